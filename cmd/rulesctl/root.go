package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/weftengine/rules/internal/config"
	"github.com/weftengine/rules/internal/obslog"
	"github.com/weftengine/rules/internal/session"
)

var (
	configFile     string
	verbose        bool
	jsonOutput     bool
	metricsEnabled bool

	log            *obslog.Logger
	cfg            config.Options
	sessionMetrics *session.Metrics
)

var rootCmd = &cobra.Command{
	Use:   "rulesctl",
	Short: "rulesctl drives the rules engine core against rule and fact files",
	Long:  "rulesctl compiles a rule set, asserts facts against it, and prints the execution results the core produces — a reference host for the RETE engine, not a production transport.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		log, err = obslog.New(verbose)
		if err != nil {
			return fmt.Errorf("build logger: %w", err)
		}

		v, err := config.NewViper(configFile)
		if err != nil {
			return err
		}
		cfg, err = config.Load(v)
		if err != nil {
			return err
		}

		sessionMetrics, err = setupMetrics(metricsEnabled)
		if err != nil {
			return fmt.Errorf("set up metrics: %w", err)
		}

		// Piping output to a file or another process means a consumer is
		// parsing it, not a human reading it — default to JSON unless the
		// caller explicitly chose, same IsTerminal check beads uses to
		// decide whether stdin is interactive.
		if !cmd.Flags().Changed("json") && !term.IsTerminal(int(os.Stdout.Fd())) {
			jsonOutput = true
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to a TOML config file (overlays built-in defaults; env vars prefixed RULES_ take priority)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug-level logging")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print machine-readable JSON instead of text")
	rootCmd.PersistentFlags().BoolVar(&metricsEnabled, "metrics", false, "export batch counters/histograms to stdout via OpenTelemetry")

	rootCmd.AddCommand(versionCmd, compileCmd, runCmd, watchCmd)
}

// Execute runs the rulesctl command tree; errors are already printed to
// stderr by cobra before this returns.
func Execute() error {
	rootCmd.SilenceUsage = true
	err := rootCmd.Execute()
	shutdownMetrics(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	if log != nil {
		log.Sync()
	}
	return nil
}
