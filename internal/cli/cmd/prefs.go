package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newPrefsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "prefs",
		Short:         "Show saved preferences",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			if a.prefs.Path == "" {
				return &ExitError{Code: ExitCLIError, Err: errors.New("no state directory available")}
			}
			p, err := a.prefs.Load()
			if err != nil {
				a.logger.Warn("preferences unreadable, showing defaults", "error", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "theme:        %s\n", p.Theme)
			fmt.Fprintf(out, "last_command: %s\n", p.LastCommand)
			fmt.Fprintf(out, "file:         %s\n", a.prefs.Path)
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:           "set <key> <value>",
		Short:         "Change a preference (theme: light|dark)",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			if a.prefs.Path == "" {
				return &ExitError{Code: ExitCLIError, Err: errors.New("no state directory available")}
			}
			p, _ := a.prefs.Load()
			if err := p.Set(args[0], args[1]); err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}
			if err := a.prefs.Save(p); err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], args[1])
			return nil
		},
	})
	return cmd
}
