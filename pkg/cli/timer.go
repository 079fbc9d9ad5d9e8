package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newTimerCommand(opts *options) *cobra.Command {
	timer := &cobra.Command{
		Use:   "timer",
		Short: "Track time against a task",
	}

	timer.AddCommand(&cobra.Command{
		Use:   "start <id>",
		Short: "Start the work timer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.openStore(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.StartTimer(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "timer started on %s\n", shortID(args[0]))
			return nil
		},
	})

	timer.AddCommand(&cobra.Command{
		Use:   "stop",
		Short: "Stop the timer and record the elapsed minutes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.openStore(cmd.Context(), true)
			if err != nil {
				return err
			}
			task, err := s.StopTimer(cmd.Context())
			if err != nil {
				s.Close()
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d minutes recorded\n", task.Title, task.ActualMinutes)
			return closeAndReport(cmd, s)
		},
	})

	timer.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the running timer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.openStore(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer s.Close()
			state := s.ActiveTimer()
			if state == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "no timer running")
				return nil
			}
			elapsed := time.Since(state.StartedAt).Round(time.Second)
			fmt.Fprintf(cmd.OutOrStdout(), "timer on %s for %s\n", shortID(state.TaskID), elapsed)
			return nil
		},
	})

	return timer
}
