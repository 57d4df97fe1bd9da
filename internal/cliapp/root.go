// Package cliapp wires Code-Guardian's cobra command tree, grounded on the
// teacher's internal/cmd/root.go composition shape (one NewXCommand
// constructor per verb, assembled by NewRootCommand).
package cliapp

import (
	"github.com/spf13/cobra"
)

// Version is the CLI's reported version.
const Version = "0.1.0"

// NewRootCommand assembles the codeguardian command tree: scan, history,
// report, compare and custom-detectors, per §7.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "codeguardian",
		Short: "Static-analysis scan engine for source repositories",
		Long: `Code-Guardian scans a source tree for quality, security and
documentation issues using a registry of built-in and user-defined
pattern detectors, with incremental re-scans, result caching and
persisted scan history.`,
		Version:      Version,
		SilenceUsage: true,
	}

	root.AddCommand(newScanCommand())
	root.AddCommand(newHistoryCommand())
	root.AddCommand(newReportCommand())
	root.AddCommand(newCompareCommand())
	root.AddCommand(newCustomDetectorsCommand())

	return root
}
