package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/arjunv/headlamp/internal/contract"
	"github.com/arjunv/headlamp/internal/logx"
)

// All linker flags are set by release infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// cfg holds the validated, final configuration shared across a single
// invocation's subcommands.
var cfg = &contract.Config{}

// rootCmd is the command-line entrypoint. Flag parsing is disabled so the
// orchestration command can pass the raw token stream to the argument
// normalizer, which recognizes its own flags and forwards everything else
// to the backing test runner verbatim, per spec.md §4.1.
var rootCmd = &cobra.Command{
	Use:                "headlamp [--runner=<id>] [--coverage[.k=v]] [--changed[=mode]] [path|pattern...] [-- <forwarded-args>]",
	Short:              "Select, dispatch, and report on tests across heterogeneous backing runners.",
	Long:               `headlamp picks which tests to run across a JS-ecosystem runner, a native test tool, a next-gen native test tool, and a scripting-language runner, then merges their output into one report.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableFlagParsing: true,
	RunE:               runOrchestration,
}

// initConfig reads the config file and environment variables, per spec.md
// §6's config-file surface.
func initConfig() {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName(".headlamp")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
	}

	viper.SetEnvPrefix("HEADLAMP")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("cache-backend", string(contract.DefaultCacheBackend))
	viper.SetDefault("cache-db-connect", "")
	viper.SetDefault("color", "yes")
}

// loadConfigFile reads the config file into viper, tolerating a missing
// file (defaults/env/flags still apply).
func loadConfigFile() error {
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// resolveColors decides whether ANSI colors should be emitted, honoring
// `--ci` (colors always off under CI) and otherwise the `--color` config
// value.
func resolveColors(ci bool) bool {
	if ci {
		return false
	}
	useColors, err := contract.ParseBoolString(viper.GetString("color"))
	if err != nil {
		logx.Warn("invalid --color value, defaulting to enabled", err)
		return true
	}
	return useColors
}

