package schema

// Selection is the effective set of paths and patterns the user asked to run.
//
// Invariants: if ChangedMode is non-empty, Paths includes every file reported
// by the VCS probe for that mode. Paths never contains vendor/coverage
// directories.
type Selection struct {
	Specified     bool
	Paths         []string
	IncludeGlobs  []string
	ExcludeGlobs  []string
	ChangedMode   ChangedMode
	ChangedDepth  int
	NamePattern   string
	RunnerID      string
	OnlyFailures  bool
	ShowLogs      bool
	Sequential    bool
	Verbose       bool
	CI            bool
	NoCache       bool
	Watch         bool
	KeepArtifacts bool
	Coverage      *CoverageOptions
	CoverageUI    string
	BootstrapCmd  string
	EditorCmd     string
	Forwarded     []string
}

// CoverageOptions holds the keyed `--coverage.<key>=<value>` tuning options.
type CoverageOptions struct {
	Enabled         bool
	AbortOnFailure  bool
	Mode            CoverageMode
	PageFit         bool
	Detail          string // "" when not given; else an integer string, "all", or "auto"
	ShowCode        bool
	MaxFiles        int
	MaxHotspots     int
	Include         []string
	Exclude         []string
	ThresholdGlobal float64
	ParquetPath     string
}

// NamePatternOnly reports whether the sole selector is a name pattern with no
// path/test selection, which forces discovery into name-pattern-only mode.
func (s Selection) NamePatternOnly() bool {
	return s.NamePattern != "" && !s.Specified
}

// Project is a single backing-runner project discovered at startup.
//
// Lifecycle: created once by scanning known config filenames; immutable
// thereafter.
type Project struct {
	ConfigPath       string
	WorkingDirectory string
	RunnerKind       RunnerKind
}
