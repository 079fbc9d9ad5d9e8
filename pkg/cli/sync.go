package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSyncCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Reconcile every task with the calendar",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.openStore(cmd.Context(), true)
			if err != nil {
				return err
			}
			n := s.SyncAll()
			fmt.Fprintf(cmd.OutOrStdout(), "reconciling %d tasks\n", n)
			return closeAndReport(cmd, s)
		},
	}
}
