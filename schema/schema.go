// Package schema has configs, models and shared constants for all parts of headlamp.
package schema

import "time"

// RunnerKind identifies which backing test runner a project uses.
type RunnerKind string

// Supported backing runners.
const (
	JestRunner       RunnerKind = "jest"
	NativeRunner     RunnerKind = "native"
	NativeNextRunner RunnerKind = "native-next"
	ScriptRunner     RunnerKind = "script"
)

// ChangedMode identifies one of the five VCS change-probe modes.
type ChangedMode string

// Supported changed-file modes.
const (
	ChangedAll        ChangedMode = "all"
	ChangedStaged     ChangedMode = "staged"
	ChangedUnstaged   ChangedMode = "unstaged"
	ChangedBranch     ChangedMode = "branch"
	ChangedLastCommit ChangedMode = "lastCommit"
)

// CoverageMode controls how much coverage detail the renderer prints.
type CoverageMode string

// Supported coverage print modes.
const (
	CoverageCompact CoverageMode = "compact"
	CoverageFull    CoverageMode = "full"
	CoverageAuto    CoverageMode = "auto"
)

// CacheBackend identifies the storage engine behind the discovery cache.
type CacheBackend string

// Supported cache backends.
const (
	SQLiteBackend     CacheBackend = "sqlite"
	MySQLBackend      CacheBackend = "mysql"
	PostgreSQLBackend CacheBackend = "postgresql"
	NoneBackend       CacheBackend = "none"
)

// DefaultLookbackWindow bounds how far back the VCS probe will look for
// commands that accept an implicit window (currently unused by the probe
// itself, kept for config default symmetry with the discovery cache TTL).
const DefaultLookbackWindow = 6 * 30 * 24 * time.Hour

// DiscoveryCacheTTL is how long a cached discovery result remains valid.
const DiscoveryCacheTTL = 24 * time.Hour
