package cliapp

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/d-oit/code-guardian/internal/format"
	"github.com/d-oit/code-guardian/internal/store"
)

func newReportCommand() *cobra.Command {
	var (
		dbPath       string
		outputFormat string
	)

	cmd := &cobra.Command{
		Use:   "report <scan-id>",
		Short: "Render a stored scan in the requested format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
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

			res, err := st.Load(cmd.Context(), id)
			if err != nil {
				return exitWith(exitConfigOrIO, err)
			}

			if err := format.WriteResult(cmd.OutOrStdout(), *res, f, false); err != nil {
				return exitWith(exitConfigOrIO, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "database", ".codeguardian/scans.db", "scan database path")
	cmd.Flags().StringVar(&outputFormat, "format", "text", "output format: text|json|csv|markdown|html")
	return cmd
}
