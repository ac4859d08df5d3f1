// Package tests drives the built rulesctl binary end-to-end through
// rsc.io/script, the same engine beads lists in its own go.mod for
// scripted command tests.
package tests

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"rsc.io/script"
)

var rulesctlBinary string

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "rulesctl-bin")
	if err != nil {
		os.Exit(1)
	}
	defer os.RemoveAll(dir)

	rulesctlBinary = filepath.Join(dir, "rulesctl")
	build := exec.Command("go", "build", "-o", rulesctlBinary, "../cmd/rulesctl")
	build.Stdout = os.Stderr
	build.Stderr = os.Stderr
	if err := build.Run(); err != nil {
		os.Stderr.WriteString("building rulesctl for scripted tests: " + err.Error() + "\n")
		os.Exit(1)
	}

	os.Exit(m.Run())
}

// newEngine wires the default command/condition set (exec, stdout, stderr,
// cd, mkdir, ...); runScript points PATH at the freshly built rulesctl so
// scripts can invoke it by name with `exec rulesctl ...`.
func newEngine() *script.Engine {
	return &script.Engine{
		Cmds:  script.DefaultCmds(),
		Conds: script.DefaultConds(),
	}
}

func runScript(t *testing.T, scriptPath string, files map[string]string) {
	t.Helper()
	workdir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(workdir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("seed %s: %v", name, err)
		}
	}

	ctx := context.Background()
	st, err := script.NewState(ctx, workdir, os.Environ())
	if err != nil {
		t.Fatalf("new state: %v", err)
	}
	defer st.Close()

	path := os.Getenv("PATH")
	if err := st.Setenv("PATH", filepath.Dir(rulesctlBinary)+string(os.PathListSeparator)+path); err != nil {
		t.Fatalf("setenv PATH: %v", err)
	}

	data, err := os.ReadFile(scriptPath)
	if err != nil {
		t.Fatalf("read script %s: %v", scriptPath, err)
	}

	var log bytes.Buffer
	engine := newEngine()
	if err := engine.Execute(st, scriptPath, bufio.NewReader(bytes.NewReader(data)), &log); err != nil {
		t.Fatalf("script %s failed:\n%s\n%v", scriptPath, log.String(), err)
	}
	t.Log(log.String())
}

const highValueRule = `
rules:
  - id: high-value
    priority: 5
    conditions:
      - field: amount
        operator: ">"
        value: 100
    actions:
      - type: trigger_alert
        alert_type: high_value
        severity: warning
        alert_message: order amount exceeds threshold
`

const orderFacts = `
facts:
  - external_id: order-1
    fields:
      amount: 250
  - external_id: order-2
    fields:
      amount: 10
`

func TestScriptCompileReportsStructure(t *testing.T) {
	runScript(t, "testdata/script/compile.txt", map[string]string{
		"rules.yaml": highValueRule,
	})
}

func TestScriptRunFiresOnMatchingFact(t *testing.T) {
	runScript(t, "testdata/script/run.txt", map[string]string{
		"rules.yaml": highValueRule,
		"facts.yaml": orderFacts,
	})
}
