package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"speedwatch/internal/live"
	"speedwatch/internal/util/format"
)

func newLiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "live",
		Short:         "Show the server's live throughput",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          runLive,
	}
	cmd.Flags().Duration("interval", 0, "Sample interval (default from config, 5s)")
	cmd.Flags().Int("count", 0, "Stop after this many samples; 0 runs until interrupted")
	return cmd
}

func runLive(cmd *cobra.Command, _ []string) error {
	a := appFrom(cmd)
	interval, _ := cmd.Flags().GetDuration("interval")
	count, _ := cmd.Flags().GetInt("count")
	if interval <= 0 {
		interval = a.settings.LiveInterval
	}
	if count < 0 {
		return &ExitError{Code: ExitCLIError, Err: fmt.Errorf("invalid --count: %d", count)}
	}

	mon := live.New(a.client,
		live.WithInterval(interval),
		live.WithCount(count),
		live.WithLogger(a.logger),
	)

	out := cmd.OutOrStdout()
	var ok, failed int
	var lastErr error
	err := mon.Run(cmd.Context(), func(s live.Sample) {
		ts := s.At.Format("15:04:05")
		if s.Err != nil {
			failed++
			lastErr = s.Err
			fmt.Fprintf(out, "%s  error: %v\n", ts, s.Err)
			return
		}
		ok++
		fmt.Fprintf(out, "%s  ↓ %-14s ↑ %s\n", ts, format.Mbps(s.Speed.DownloadMbps), format.Mbps(s.Speed.UploadMbps))
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return &ExitError{Code: ExitCLIError, Err: err}
	}
	if ok == 0 && failed > 0 {
		return backendExit(lastErr)
	}
	return nil
}
