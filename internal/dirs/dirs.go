package dirs

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
)

const appName = "speedwatch"

// DefaultExportName is the file name used by `export` when no --out is given.
const DefaultExportName = "network_history.csv"

// AppName returns the canonical application name for directory paths.
func AppName() string {
	return appName
}

// base resolves an XDG-style directory.
// - Linux: $<xdgEnv>/speedwatch or ~/<linuxRel>/speedwatch
// - macOS: ~/Library/Application Support/speedwatch[/macSub]
// - others: os.UserConfigDir()/speedwatch[/macSub]
func base(xdgEnv, linuxRel, macSub string) (string, error) {
	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support", AppName(), macSub), nil
	case "linux":
		if xdg := os.Getenv(xdgEnv); xdg != "" {
			return filepath.Join(xdg, AppName()), nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, linuxRel, AppName()), nil
	default:
		cfg, err := os.UserConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(cfg, AppName(), macSub), nil
	}
}

// ConfigDir holds config.{yaml,json,toml}.
func ConfigDir() (string, error) {
	return base("XDG_CONFIG_HOME", ".config", "")
}

// DataDir holds exported history.
func DataDir() (string, error) {
	return base("XDG_DATA_HOME", filepath.Join(".local", "share"), "")
}

// StateDir holds preferences.
func StateDir() (string, error) {
	return base("XDG_STATE_HOME", filepath.Join(".local", "state"), "state")
}

// DefaultExportPath returns the CSV export target under the data dir.
func DefaultExportPath() (string, error) {
	d, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, DefaultExportName), nil
}

// Ensure creates the directory if it doesn't exist.
func Ensure(path string) error {
	if path == "" {
		return errors.New("empty path")
	}
	return os.MkdirAll(path, 0o755)
}

// EnsureAll ensures config, data and state dirs exist.
func EnsureAll() error {
	for _, f := range []func() (string, error){ConfigDir, DataDir, StateDir} {
		p, err := f()
		if err != nil {
			continue
		}
		if err := Ensure(p); err != nil {
			return err
		}
	}
	return nil
}
