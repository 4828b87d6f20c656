package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/arjunv/headlamp/internal/contract"
	"github.com/arjunv/headlamp/internal/discovery"
	"github.com/arjunv/headlamp/internal/logx"
	"github.com/arjunv/headlamp/schema"
)

// cacheSetup loads the minimal configuration cache operations need, without
// the full VCS/project-scanning setup the orchestration command requires.
func cacheSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend := schema.CacheBackend(viper.GetString("cache-backend"))
	connStr := viper.GetString("cache-db-connect")
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	cfg.CacheBackend = backend
	cfg.CacheDBConnect = connStr
	return discovery.Init(backend, connStr)
}

func cacheSetupWrapper(_ *cobra.Command, _ []string) error {
	return cacheSetup()
}

// cacheCmd manages the discovery cache.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the test-discovery cache",
	Long: `Manage the on-disk cache of per-project discovered test files.

Subcommands:
  status  - Show cache statistics and connection info
  clear   - Remove all cached discovery entries
  migrate - Bring a shared MySQL/PostgreSQL cache schema up to date`,
}

// cacheClearCmd clears the discovery cache.
var cacheClearCmd = &cobra.Command{
	Use:     "clear",
	Short:   "Remove all cached discovery entries",
	PreRunE: cacheSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		repoRoot, err := repoRootForCache()
		if err != nil {
			return err
		}
		if err := discovery.Clear(cfg.CacheBackend, contract.DiscoveryCacheDBFilePath(repoRoot), cfg.CacheDBConnect); err != nil {
			logx.Fatal("failed to clear discovery cache", err)
		}
		fmt.Println("Discovery cache cleared.")
		return nil
	},
}

// cacheStatusCmd prints discovery cache diagnostics.
var cacheStatusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Display discovery cache statistics",
	PreRunE: cacheSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		store := discovery.Global().GetDiscoveryStore()
		if store == nil {
			fmt.Println("Discovery cache is not initialized.")
			return nil
		}
		status, err := store.GetStatus()
		if err != nil {
			logx.Fatal("failed to get discovery cache status", err)
		}
		fmt.Printf("Backend:        %s\n", status.Backend)
		fmt.Printf("Connected:      %v\n", status.Connected)
		fmt.Printf("Total entries:  %d\n", status.TotalEntries)
		fmt.Printf("Table size:     %d bytes\n", status.TableSizeBytes)
		if !status.LastEntryTime.IsZero() {
			fmt.Printf("Last entry:     %s\n", status.LastEntryTime)
		}
		return nil
	},
}

// cacheMigrateCmd runs discovery-cache schema migrations for shared SQL
// backends.
var cacheMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate the shared discovery cache schema (mysql/postgresql only)",
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return loadConfigFile()
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		backend := schema.CacheBackend(viper.GetString("cache-backend"))
		connStr := viper.GetString("cache-db-connect")
		target := viper.GetInt("target-version")
		if err := discovery.Migrate(backend, connStr, target); err != nil {
			logx.Fatal("failed to migrate discovery cache", err)
		}
		fmt.Println("Discovery cache migrated.")
		return nil
	},
}

// repoRootForCache resolves the repository root for the SQLite discovery
// cache's default file path, falling back to the working directory.
func repoRootForCache() (string, error) {
	root, err := localVCSClient().RepoRoot(rootCtx(), ".")
	if err != nil {
		return ".", nil
	}
	return root, nil
}
