package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"speedwatch/internal/backend"
	"speedwatch/internal/config"
	"speedwatch/internal/logging"
	"speedwatch/internal/prefs"
	"speedwatch/internal/speedtest"
)

const (
	ExitOK          = 0
	ExitCLIError    = 1
	ExitUnreachable = 2
	ExitTestFailed  = 3
	ExitServerBusy  = 4
)

// ExitError wraps an error with a process exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

type ctxKey string

const appKey ctxKey = "app"

// app carries what every subcommand needs, resolved once in PersistentPreRunE.
type app struct {
	viper    *viper.Viper
	settings config.Settings
	logger   *slog.Logger
	client   *backend.Client
	prefs    prefs.Store
}

func appFrom(cmd *cobra.Command) *app {
	if a, ok := cmd.Context().Value(appKey).(*app); ok {
		return a
	}
	return nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "speedwatch",
		Short: "Run and watch network speed tests from the terminal",
		Long: "speedwatch drives a network monitor server: it runs speed tests and follows their progress, " +
			"shows live throughput, and lists, clears or exports the measurement history.",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: rootPreRun,
		PersistentPostRun: rememberCommand,
	}

	// Persistent flags available to all subcommands
	pf := root.PersistentFlags()
	pf.StringP("server", "s", config.DefaultServer, "Network monitor server address")
	pf.Duration("poll-interval", speedtest.DefaultInterval, "Status poll interval during a speed test")
	pf.Duration("timeout", config.DefaultTimeout, "Timeout for starting a test and for one-shot requests")
	pf.BoolP("verbose", "v", false, "Log requests and state transitions to stderr")
	pf.String("log-format", "text", "Log format: text, json")
	pf.String("theme", "", "TUI theme: light, dark (default from preferences)")

	// Subcommands
	root.AddCommand(newTestCmd())
	root.AddCommand(newLiveCmd())
	root.AddCommand(newHistoryCmd())
	root.AddCommand(newExportCmd())
	root.AddCommand(newMyIPCmd())
	root.AddCommand(newDoctorCmd())
	root.AddCommand(newPrefsCmd())
	root.AddCommand(newCompletionCmd())

	return root
}

func rootPreRun(cmd *cobra.Command, _ []string) error {
	v, err := config.Init(cmd.Root().PersistentFlags(), ".env")
	if err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}
	s, err := config.Load(v)
	if err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}

	lc := logging.DefaultConfig()
	lc.Format = s.LogFormat
	if s.Verbose {
		lc.Level = slog.LevelDebug
	}
	logger := logging.New(cmd.ErrOrStderr(), lc)

	client, err := backend.New(s.Server, backend.WithLogger(logger))
	if err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}

	store, err := prefs.DefaultStore()
	if err != nil {
		logger.Debug("preferences disabled", "error", err)
	}

	a := &app{viper: v, settings: s, logger: logger, client: client, prefs: store}
	cmd.SetContext(context.WithValue(cmd.Context(), appKey, a))
	return nil
}

// rememberCommand records the last command that ran, best-effort.
func rememberCommand(cmd *cobra.Command, _ []string) {
	a := appFrom(cmd)
	if a == nil || a.prefs.Path == "" {
		return
	}
	p, err := a.prefs.Load()
	if err != nil {
		a.logger.Debug("preferences unreadable", "error", err)
	}
	p.LastCommand = cmd.Name()
	if err := a.prefs.Save(p); err != nil {
		a.logger.Debug("preferences not saved", "error", err)
	}
}

// Execute runs the CLI with the provided context.
func Execute(ctx context.Context) error {
	root := newRootCmd()
	return root.ExecuteContext(ctx)
}

// Helpers

// theme resolves flag/env/config first, then saved preferences.
func (a *app) theme() string {
	if a.settings.Theme != "" {
		return a.settings.Theme
	}
	if a.prefs.Path == "" {
		return prefs.Defaults().Theme
	}
	p, _ := a.prefs.Load()
	return p.Theme
}

// requestContext bounds one-shot API calls by the configured timeout.
func (a *app) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, a.settings.Timeout)
}

// backendExit maps a failed API call to an exit code.
func backendExit(err error) *ExitError {
	var se *backend.StatusError
	var pe *fs.PathError
	switch {
	case errors.Is(err, speedtest.ErrConflict):
		return &ExitError{Code: ExitServerBusy, Err: err}
	case errors.As(err, &se), errors.As(err, &pe):
		return &ExitError{Code: ExitCLIError, Err: err}
	case errors.Is(err, context.Canceled):
		return &ExitError{Code: ExitCLIError, Err: err}
	default:
		return &ExitError{Code: ExitUnreachable, Err: fmt.Errorf("server unreachable: %w", err)}
	}
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
