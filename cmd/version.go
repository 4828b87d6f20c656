package cmd

import (
	"runtime"

	"github.com/spf13/cobra"
)

// versionCmd prints build/version diagnostics.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of headlamp.",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("headlamp CLI\n")
		cmd.Printf("  Version: %s\n", version)
		cmd.Printf("  Commit:  %s\n", commit)
		cmd.Printf("  Built:   %s\n", date)
		cmd.Printf("  Runtime: %s\n", runtime.Version())
	},
}
