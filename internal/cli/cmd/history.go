package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"speedwatch/internal/history"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "history",
		Short:         "List stored measurements",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          runHistory,
	}
	cmd.Flags().String("range", "recent", "Time range: recent (last 10), 1hour, all")
	cmd.Flags().String("type", "all", "Record type: all, live, speedtest")
	cmd.Flags().Bool("summary", false, "Print averages and peaks below the table")
	cmd.AddCommand(newHistoryClearCmd())
	return cmd
}

func runHistory(cmd *cobra.Command, _ []string) error {
	a := appFrom(cmd)
	rng, _ := cmd.Flags().GetString("range")
	typ, _ := cmd.Flags().GetString("type")
	summary, _ := cmd.Flags().GetBool("summary")

	f, err := history.ParseFilter(rng, typ)
	if err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}

	ctx, cancel := a.requestContext(cmd.Context())
	defer cancel()
	recs, err := a.client.History(ctx, f)
	if err != nil {
		return backendExit(err)
	}

	out := cmd.OutOrStdout()
	if len(recs) == 0 {
		fmt.Fprintln(out, "No measurements recorded.")
		return nil
	}
	if err := history.Render(out, recs); err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}
	if summary {
		fmt.Fprintln(out)
		if err := history.RenderSummary(out, history.Summarize(recs)); err != nil {
			return &ExitError{Code: ExitCLIError, Err: err}
		}
	}
	return nil
}

func newHistoryClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "clear",
		Short:         "Delete every stored measurement",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			yes, _ := cmd.Flags().GetBool("yes")
			if !yes && !confirm(cmd, "Are you sure you want to clear all history? [y/N] ") {
				return &ExitError{Code: ExitCLIError, Err: errors.New("aborted")}
			}
			ctx, cancel := a.requestContext(cmd.Context())
			defer cancel()
			msg, err := a.client.ClearHistory(ctx)
			if err != nil {
				return backendExit(err)
			}
			if msg == "" {
				msg = "History cleared."
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
	cmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
	return cmd
}

// confirm asks a yes/no question on the command's input.
func confirm(cmd *cobra.Command, prompt string) bool {
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
