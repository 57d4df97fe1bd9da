package cliapp

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/d-oit/code-guardian/internal/format"
	"github.com/d-oit/code-guardian/internal/store"
)

func newCompareCommand() *cobra.Command {
	var (
		dbPath       string
		outputFormat string
	)

	cmd := &cobra.Command{
		Use:   "compare <id_a> <id_b>",
		Short: "Diff two stored scans",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			idA, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return exitWith(exitConfigOrIO, err)
			}
			idB, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return exitWith(exitConfigOrIO, err)
			}

			f, err := format.Parse(outputFormat)
			if err != nil {
				return exitWith(exitConfigOrIO, err)
			}

			st, err := store.Open(cmd.Context(), dbPath)
			if err != nil {
				return exitWith(exitConfigOrIO, err)
			}
			defer st.Close()

			diff, err := st.Compare(cmd.Context(), idA, idB)
			if err != nil {
				return exitWith(exitConfigOrIO, err)
			}

			if err := format.WriteDiff(cmd.OutOrStdout(), *diff, f, false); err != nil {
				return exitWith(exitConfigOrIO, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "database", ".codeguardian/scans.db", "scan database path")
	cmd.Flags().StringVar(&outputFormat, "format", "text", "output format: text|json|csv|markdown|html")
	return cmd
}
