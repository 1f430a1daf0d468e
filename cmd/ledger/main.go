// Package main is the entry point of the progress ledger.
//
// The binary serves the HTTP API and carries the operator commands that
// manage the schema and rebuild derived scores.
//
// Usage:
//
//	ledger serve
//	ledger migrate up|down|status
//	ledger recompute <intern-id> | --all
//	ledger hash-key <key>
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ledger: %v\n", err)
		os.Exit(1)
	}
}
