package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"speedwatch/internal/model"
	"speedwatch/internal/progress"
	"speedwatch/internal/speedtest"
	"speedwatch/internal/ui"
	"speedwatch/internal/util/format"
)

func newTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "test",
		Short:         "Run one speed test and follow its progress",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          runTest,
	}
	cmd.Flags().Bool("no-ui", false, "Disable TUI; use plain textual output")
	cmd.Flags().Bool("json", false, "Print the final result as JSON")
	return cmd
}

func runTest(cmd *cobra.Command, _ []string) error {
	a := appFrom(cmd)
	noUI, _ := cmd.Flags().GetBool("no-ui")
	asJSON, _ := cmd.Flags().GetBool("json")
	ctx := cmd.Context()

	// TUI path (auto if TTY and not disabled)
	if !noUI && !asJSON && isTerminal() {
		rep := ui.NewReporter(ctx)
		ctrl := a.newController(rep)
		st, err := ui.Run(ctx, ctrl, rep, ui.Options{
			Server:    a.settings.Server,
			Theme:     a.theme(),
			AutoStart: true,
		})
		if err != nil && ctx.Err() == nil {
			return &ExitError{Code: ExitCLIError, Err: err}
		}
		if st.Phase == model.PhaseError {
			return stateExit(st)
		}
		return nil
	}

	// Non-UI path
	var rep progress.Reporter = progress.Discard
	if !asJSON {
		rep = &lineReporter{w: cmd.OutOrStdout()}
	}
	ctrl := a.newController(rep)
	if err := ctrl.Start(ctx); err != nil && !isStateErr(err) {
		if ctx.Err() != nil {
			return &ExitError{Code: ExitCLIError, Err: fmt.Errorf("interrupted: %w", ctx.Err())}
		}
		return &ExitError{Code: ExitCLIError, Err: err}
	}
	st, err := ctrl.Wait(ctx)
	if err != nil {
		ctrl.Stop()
	}
	if ctx.Err() != nil && !st.Phase.Terminal() {
		return &ExitError{Code: ExitCLIError, Err: fmt.Errorf("interrupted: %w", ctx.Err())}
	}

	if asJSON {
		if err := writeJSON(cmd.OutOrStdout(), st); err != nil {
			return &ExitError{Code: ExitCLIError, Err: err}
		}
	} else if st.Phase == model.PhaseComplete && st.Final != nil {
		printResult(cmd.OutOrStdout(), *st.Final)
	}

	switch st.Phase {
	case model.PhaseComplete:
		return nil
	case model.PhaseError:
		return stateExit(st)
	default:
		return &ExitError{Code: ExitTestFailed, Err: errors.New("server reset the speed test before it finished")}
	}
}

func (a *app) newController(rep progress.Reporter) *speedtest.Controller {
	return speedtest.NewController(a.client,
		speedtest.WithInterval(a.settings.PollInterval),
		speedtest.WithStartTimeout(a.settings.Timeout),
		speedtest.WithReporter(rep),
		speedtest.WithLogger(a.logger),
	)
}

// isStateErr reports whether Start failed with a refusal that is also
// observable as an error-phase state.
func isStateErr(err error) bool {
	return errors.Is(err, speedtest.ErrServerBusy) || errors.Is(err, speedtest.ErrTransport)
}

// stateExit maps a terminal error state to an exit code.
func stateExit(st model.JobState) *ExitError {
	err := speedtest.StateErr(st)
	switch {
	case errors.Is(err, speedtest.ErrServerBusy):
		return &ExitError{Code: ExitServerBusy, Err: err}
	case errors.Is(err, speedtest.ErrTransport):
		return &ExitError{Code: ExitUnreachable, Err: err}
	default:
		return &ExitError{Code: ExitTestFailed, Err: err}
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printResult(w io.Writer, r model.Result) {
	fmt.Fprintln(w, "Result:")
	fmt.Fprintf(w, "- Ping:      %s\n", format.Ms(r.PingMs))
	fmt.Fprintf(w, "- Download:  %s\n", format.Mbps(r.DownloadMbps))
	fmt.Fprintf(w, "- Upload:    %s\n", format.Mbps(r.UploadMbps))
	if r.ServerName != "" {
		fmt.Fprintf(w, "- Server:    %s\n", r.ServerName)
	}
}

// lineReporter prints one line per visible change. The controller delivers
// events one at a time, so no locking is needed.
type lineReporter struct {
	w    io.Writer
	last model.JobState
}

func (l *lineReporter) Report(e progress.Event) {
	st := e.State
	prev := l.last
	l.last = st.Clone()

	if st.Phase != prev.Phase || st.JobID != prev.JobID {
		switch st.Phase {
		case model.PhaseStarting:
			fmt.Fprintln(l.w, "Starting speed test…")
		case model.PhaseRunning:
			fmt.Fprintln(l.w, "Speed test running")
		case model.PhaseIdle:
			fmt.Fprintln(l.w, "Speed test stopped")
		case model.PhaseError:
			fmt.Fprintf(l.w, "Speed test failed: %s\n", st.ErrorMessage)
		}
	}
	if st.Phase == model.PhaseRunning && st.Stage != prev.Stage && st.Stage != model.StageNone {
		fmt.Fprintf(l.w, "Testing %s…\n", st.Stage)
	}
	if prev.JobID != st.JobID {
		prev.Partial = model.Measurements{}
	}
	if st.Partial.PingMs != nil && prev.Partial.PingMs == nil {
		fmt.Fprintf(l.w, "  ping      %s\n", format.Ms(*st.Partial.PingMs))
	}
	if st.Partial.DownloadMbps != nil && prev.Partial.DownloadMbps == nil {
		fmt.Fprintf(l.w, "  download  %s\n", format.Mbps(*st.Partial.DownloadMbps))
	}
	if st.Partial.UploadMbps != nil && prev.Partial.UploadMbps == nil {
		fmt.Fprintf(l.w, "  upload    %s\n", format.Mbps(*st.Partial.UploadMbps))
	}
}

var _ progress.Reporter = (*lineReporter)(nil)
