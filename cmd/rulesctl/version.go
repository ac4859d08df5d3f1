package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is overridden by ldflags at build time.
var Version = "0.1.0-dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print rulesctl's version",
	Run: func(cmd *cobra.Command, args []string) {
		if jsonOutput {
			fmt.Printf("{\"version\":%q}\n", Version)
			return
		}
		fmt.Printf("rulesctl version %s\n", Version)
	},
}
