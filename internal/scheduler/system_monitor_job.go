package scheduler

import (
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/finsight/finsight/internal/database"
)

// diskWarnPercent is the used-space level that escalates the sample to a warning
const diskWarnPercent = 90.0

// SystemMonitorJob logs an hourly sample of host CPU, memory and
// data-volume usage, plus the on-disk size of every database
type SystemMonitorJob struct {
	dataDir   string
	databases map[string]*database.DB
	log       zerolog.Logger
}

// NewSystemMonitorJob creates a new system monitor job
func NewSystemMonitorJob(dataDir string, databases map[string]*database.DB, log zerolog.Logger) *SystemMonitorJob {
	return &SystemMonitorJob{
		dataDir:   dataDir,
		databases: databases,
		log:       log.With().Str("job", "system_monitor").Logger(),
	}
}

// Name returns the job name
func (j *SystemMonitorJob) Name() string {
	return "system_monitor"
}

// Run logs one usage sample. Sampling failures are logged, never fatal.
func (j *SystemMonitorJob) Run() error {
	// 100ms window keeps the job cheap while still giving a usable reading
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		j.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}
	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		j.log.Warn().Err(err).Msg("Failed to get memory statistics")
		memStat = &mem.VirtualMemoryStat{}
	}

	usage, err := disk.Usage(j.dataDir)
	if err != nil {
		j.log.Warn().Err(err).Str("path", j.dataDir).Msg("Failed to get disk usage")
		usage = &disk.UsageStat{}
	}

	event := j.log.Info()
	if usage.UsedPercent >= diskWarnPercent {
		event = j.log.Warn()
	}
	event.
		Float64("cpu_percent", cpuAvg).
		Float64("mem_percent", memStat.UsedPercent).
		Float64("disk_percent", usage.UsedPercent).
		Uint64("disk_free_bytes", usage.Free).
		Msg("System usage sample")

	j.logDatabaseSizes()
	return nil
}

func (j *SystemMonitorJob) logDatabaseSizes() {
	names := make([]string, 0, len(j.databases))
	for name := range j.databases {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		db := j.databases[name]
		if db == nil {
			continue
		}
		stats, err := db.GetStats()
		if err != nil {
			j.log.Warn().Err(err).Str("database", name).Msg("Failed to get database stats")
			continue
		}
		j.log.Debug().
			Str("database", name).
			Int64("size_bytes", stats.SizeBytes).
			Int64("wal_size_bytes", stats.WALSizeBytes).
			Msg("Database size sample")
	}
}
