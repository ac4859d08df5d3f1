package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weftengine/rules/internal/obslog"
	"github.com/weftengine/rules/internal/session"
)

var compileCmd = &cobra.Command{
	Use:   "compile <rules.yaml>",
	Short: "compile a rule file and print the compiler's structural report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rules, err := loadRules(args[0])
		if err != nil {
			return err
		}

		sess, err := session.New("", cfg, log, sessionMetrics)
		if err != nil {
			return err
		}
		defer sess.Close()

		report, err := sess.CompileRules(rules, nil)
		if err != nil {
			return fmt.Errorf("compile: %w", err)
		}

		if jsonOutput {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}

		fmt.Printf("compiled %d rule(s): %d alpha nodes (%d shared), %d join, %d not, %d aggregation, %d terminal\n",
			len(rules), report.AlphaNodeCount, report.SharedAlphaNodeCount,
			report.JoinNodeCount, report.NotNodeCount, report.AggregationNodeCount, report.TerminalNodeCount)
		for _, rr := range report.Rules {
			fmt.Printf("  %s: %v\n", rr.RuleID, rr.ConditionOrder)
		}
		log.Debug("compile report built", obslog.Int("rules", len(rules)))
		return nil
	},
}
