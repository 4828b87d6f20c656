// Package main is the entry point for the headlamp CLI.
package main

import (
	"fmt"
	"os"

	"github.com/arjunv/headlamp/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}
