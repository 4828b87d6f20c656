package schema

import "time"

// CacheStatus reports diagnostic information about the discovery cache,
// printed by `headlamp cache status`.
type CacheStatus struct {
	Backend         string
	Connected       bool
	TotalEntries    int64
	OldestEntryTime time.Time
	LastEntryTime   time.Time
	TableSizeBytes  int64
}
