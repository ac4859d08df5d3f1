package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/weftengine/rules/internal/exec"
	"github.com/weftengine/rules/internal/obslog"
	"github.com/weftengine/rules/internal/session"
)

var runCmd = &cobra.Command{
	Use:   "run <rules.yaml> <facts.yaml>",
	Short: "compile a rule file, assert a fact file against it, and print execution results",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := runOnce(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		printBatch(result)
		return nil
	},
}

// runOnce is the shared compile+assert path used by both `run` and
// `watch` (watch just calls this again on every rule-file change).
func runOnce(ctx context.Context, rulesPath, factsPath string) (session.BatchResult, error) {
	rules, err := loadRules(rulesPath)
	if err != nil {
		return session.BatchResult{}, err
	}
	facts, err := loadFacts(factsPath)
	if err != nil {
		return session.BatchResult{}, err
	}

	sess, err := session.New("", cfg, log, sessionMetrics)
	if err != nil {
		return session.BatchResult{}, err
	}
	defer sess.Close()

	if _, err := sess.CompileRules(rules, nil); err != nil {
		return session.BatchResult{}, fmt.Errorf("compile: %w", err)
	}

	result, err := sess.AssertBatch(ctx, facts)
	if err != nil {
		return result, fmt.Errorf("assert batch: %w", err)
	}
	log.Debug("batch complete",
		obslog.Int("facts", len(facts)),
		obslog.Int("firings", len(result.Firings)),
	)
	return result, nil
}

func printBatch(result session.BatchResult) {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
		return
	}

	for _, oc := range result.Asserts {
		if oc.Err != nil {
			fmt.Printf("REJECTED %s: %v\n", oc.ExternalID, oc.Err)
		}
	}
	for _, f := range result.Firings {
		printFiring(f)
	}
	fmt.Printf("%d firing(s) in %s\n", len(result.Firings), result.Duration)
}

func printFiring(f exec.FiringResult) {
	fmt.Printf("fired %s (facts %v)\n", f.Rule.ID, f.FactIDs)
	for _, oc := range f.Outcomes {
		switch {
		case oc.Err != nil:
			fmt.Printf("  [%d] error: %v\n", oc.Index, oc.Err)
		case oc.Calculator != nil:
			fmt.Printf("  [%d] %s -> %s = %s\n", oc.Index, oc.Calculator.Name, oc.Calculator.OutputField, oc.Calculator.Value.String())
		case oc.Alert != nil:
			fmt.Printf("  [%d] alert %s (%s): %s\n", oc.Index, oc.Alert.Type, oc.Alert.Severity, oc.Alert.Message)
		case oc.CreatedFactID != 0:
			fmt.Printf("  [%d] created fact %d\n", oc.Index, oc.CreatedFactID)
		case len(oc.FieldWrites) > 0:
			fmt.Printf("  [%d] wrote %v\n", oc.Index, oc.FieldWrites)
		default:
			fmt.Printf("  [%d] log\n", oc.Index)
		}
	}
}
