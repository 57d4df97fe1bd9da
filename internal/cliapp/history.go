package cliapp

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/d-oit/code-guardian/internal/store"
)

func newHistoryCommand() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List previously stored scans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.Open(cmd.Context(), dbPath)
			if err != nil {
				return exitWith(exitConfigOrIO, err)
			}
			defer st.Close()

			summaries, err := st.ListHistory(cmd.Context())
			if err != nil {
				return exitWith(exitConfigOrIO, err)
			}
			for _, s := range summaries {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\n", s.ID, s.Timestamp.Format("2006-01-02T15:04:05Z"), s.Root)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "database", ".codeguardian/scans.db", "scan database path")
	return cmd
}
