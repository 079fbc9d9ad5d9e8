package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDepCommand(opts *options) *cobra.Command {
	dep := &cobra.Command{
		Use:   "dep",
		Short: "Manage ordering dependencies",
	}

	dep.AddCommand(&cobra.Command{
		Use:   "add <predecessor-id> <successor-id>",
		Short: "Require one task to finish before another starts",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.openStore(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.AddDependency(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s now blocks %s\n", shortID(args[0]), shortID(args[1]))
			return nil
		},
	})

	dep.AddCommand(&cobra.Command{
		Use:   "rm <predecessor-id> <successor-id>",
		Short: "Remove an ordering dependency",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.openStore(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.RemoveDependency(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "dependency removed")
			return nil
		},
	})

	return dep
}
