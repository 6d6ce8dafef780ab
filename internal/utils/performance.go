package utils

import (
	"time"

	"github.com/rs/zerolog"
)

// slowOpThreshold flags operations that should never take this long,
// solver runs and backups included.
const slowOpThreshold = 30 * time.Second

// OperationTimer measures an operation for defer-style use:
//
//	defer utils.OperationTimer("frontier_plan", log)()
func OperationTimer(operation string, log zerolog.Logger) func() {
	start := time.Now()

	return func() {
		duration := time.Since(start)

		log.Debug().
			Str("operation", operation).
			Dur("duration_ms", duration).
			Msg("Operation completed")

		if duration > slowOpThreshold {
			log.Warn().
				Str("operation", operation).
				Dur("duration", duration).
				Msg("Slow operation detected")
		}
	}
}
