package contract

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/arjunv/headlamp/schema"
)

// Default values for configuration, mirrored from the teacher's
// internal/contract/configs.go default-constant block.
const (
	DefaultChangeDepth  = 1
	DefaultSelectorPool = 16
	DefaultStride       = 3
	DefaultVCSTimeout   = 4 // seconds
	DefaultMaxFiles     = 20
	DefaultMaxHotspots  = 10
)

// DefaultCacheBackend is the discovery cache backend used when no
// `--cache-backend` override is given.
const DefaultCacheBackend = schema.SQLiteBackend

// ConfigRawInput lists the raw configuration keys (config file, environment,
// flags) with their mapstructure tags. Nothing unmarshals into it: cmd reads
// these keys from viper one by one and fills Config directly.
type ConfigRawInput struct {
	Runner            string   `mapstructure:"runner"`
	Coverage          bool     `mapstructure:"coverage"`
	CoverageAbort     bool     `mapstructure:"coverage.abortOnFailure"`
	CoverageMode      string   `mapstructure:"coverage.mode"`
	CoveragePageFit   bool     `mapstructure:"coverage.pageFit"`
	CoverageDetail    string   `mapstructure:"coverage.detail"`
	CoverageShowCode  bool     `mapstructure:"coverage.showCode"`
	CoverageMaxFiles  int      `mapstructure:"coverage.maxFiles"`
	CoverageMaxHot    int      `mapstructure:"coverage.maxHotspots"`
	CoverageInclude   string   `mapstructure:"coverage.include"`
	CoverageExclude   string   `mapstructure:"coverage.exclude"`
	CoverageThreshold float64  `mapstructure:"coverage.threshold"`
	CoverageUI        string   `mapstructure:"coverage-ui"`
	Changed           string   `mapstructure:"changed"`
	ChangedDepth      int      `mapstructure:"changed.depth"`
	OnlyFailures      bool     `mapstructure:"onlyFailures"`
	ShowLogs          bool     `mapstructure:"showLogs"`
	Sequential        bool     `mapstructure:"sequential"`
	Verbose           bool     `mapstructure:"verbose"`
	CI                bool     `mapstructure:"ci"`
	NoCache           bool     `mapstructure:"no-cache"`
	Watch             bool     `mapstructure:"watch"`
	KeepArtifacts     bool     `mapstructure:"keep-artifacts"`
	BootstrapCommand  string   `mapstructure:"bootstrapCommand"`
	EditorCmd         string   `mapstructure:"editorCmd"`
	Include           []string `mapstructure:"include"`
	Exclude           []string `mapstructure:"exclude"`
	Color             string   `mapstructure:"color"`
	CacheBackend      string   `mapstructure:"cache-backend"`
	CacheDBConnect    string   `mapstructure:"cache-db-connect"`
	PositionalArgs    []string `mapstructure:"-"`
	Forwarded         []string `mapstructure:"-"`
}

// Config holds the validated, final configuration for a single invocation.
type Config struct {
	RepoPath       string
	Selection      schema.Selection
	Verbose        bool
	CI             bool
	NoCache        bool
	UseColors      bool
	CacheBackend   schema.CacheBackend
	CacheDBConnect string
}

// ValidateDatabaseConnectionString applies the same basic backend/connection
// validation the teacher's analysis store applies before opening a pool.
func ValidateDatabaseConnectionString(backend schema.CacheBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend, "":
		return nil
	case schema.MySQLBackend, schema.PostgreSQLBackend:
		if strings.TrimSpace(connStr) == "" {
			return fmt.Errorf("connection string required for backend %q", backend)
		}
		return nil
	default:
		return fmt.Errorf("unsupported cache backend: %s", backend)
	}
}

// ParseCoverageDetail validates the `--coverage.detail` value. Malformed
// input is reported and the caller should fall back to "auto", per
// spec.md §4.1's error-condition note.
func ParseCoverageDetail(raw string) (string, error) {
	if raw == "" || raw == "all" || raw == "auto" {
		return raw, nil
	}
	if _, err := strconv.Atoi(raw); err == nil {
		return raw, nil
	}
	return "auto", fmt.Errorf("malformed --coverage.detail %q: must be an integer, \"all\", or \"auto\"", raw)
}
