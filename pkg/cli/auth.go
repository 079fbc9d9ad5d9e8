package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/evanmoss/taskweave/pkg/auth"
	"github.com/evanmoss/taskweave/pkg/prefs"
	"github.com/spf13/cobra"
)

func newAuthCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize access to Google Calendar",
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := auth.ConfigDir()
			if err != nil {
				return err
			}
			tokenPath := filepath.Join(dir, auth.TokenFile)
			if _, err := os.Stat(tokenPath); err == nil && !force {
				fmt.Fprintf(cmd.OutOrStdout(), "Already authenticated (token at %s). Use --force to re-authenticate.\n", tokenPath)
				return nil
			}
			if force {
				if err := os.Remove(tokenPath); err != nil && !os.IsNotExist(err) {
					return err
				}
			}

			if _, err := auth.GetCalendarService(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Authentication successful.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "discard the cached token and re-authenticate")
	return cmd
}

func newSetCalendarCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set-calendar <name>",
		Short: "Set the default destination calendar",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := prefs.DefaultPath()
			if err != nil {
				return err
			}
			p, err := prefs.Open(path)
			if err != nil {
				return err
			}
			p.SetCalendar(args[0])
			if err := p.Save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Default calendar set to: %s\n", args[0])
			return nil
		},
	}
}
