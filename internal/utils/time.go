package utils

import "time"

// ParseSQLiteTime parses timestamps written by sqlite's datetime('now')
// as well as RFC3339 strings and bare dates. Returns the zero time when
// the value is empty or unparseable.
func ParseSQLiteTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
