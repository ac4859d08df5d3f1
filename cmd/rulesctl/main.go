// Command rulesctl is the reference host for the rules engine core: it
// loads rule and fact files from disk, drives a session through the
// external interface described in spec.md §6, and prints the resulting
// execution results. The engine core itself never touches a filesystem or
// a terminal — that boundary lives entirely in this package, the way
// cmd/bd is the only place steveyegge/beads touches its own storage
// backends directly.
package main

import "os"

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
