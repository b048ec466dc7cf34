// Package prefs persists small UI preferences between runs.
package prefs

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"speedwatch/internal/dirs"
	"speedwatch/internal/util"
)

const fileName = "prefs.yaml"

// Themes.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Prefs is the persisted document.
type Prefs struct {
	Theme       string `yaml:"theme"`
	LastCommand string `yaml:"last_command,omitempty"`
}

// Defaults returns the preferences used when nothing was saved.
func Defaults() Prefs {
	return Prefs{Theme: ThemeDark}
}

// Store reads and writes Prefs at a fixed path.
type Store struct {
	Path string
}

// DefaultStore keeps prefs in the state dir.
func DefaultStore() (Store, error) {
	d, err := dirs.StateDir()
	if err != nil {
		return Store{}, err
	}
	return Store{Path: filepath.Join(d, fileName)}, nil
}

// Load returns saved preferences. A missing, unreadable or malformed file
// yields Defaults; only the malformed case reports an error alongside.
func (s Store) Load() (Prefs, error) {
	raw, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Defaults(), nil
		}
		return Defaults(), fmt.Errorf("read prefs: %w", err)
	}
	p := Defaults()
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return Defaults(), fmt.Errorf("parse %s: %w", s.Path, err)
	}
	if _, err := ParseTheme(p.Theme); err != nil {
		p.Theme = Defaults().Theme
	}
	return p, nil
}

// Save writes p atomically.
func (s Store) Save(p Prefs) error {
	return util.WriteFileAtomic(s.Path, func(w io.Writer) error {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(p); err != nil {
			return err
		}
		return enc.Close()
	})
}

// Set updates one key by name.
func (p *Prefs) Set(key, value string) error {
	switch strings.ToLower(key) {
	case "theme":
		t, err := ParseTheme(value)
		if err != nil {
			return err
		}
		p.Theme = t
	case "last_command", "last-command":
		p.LastCommand = value
	default:
		return fmt.Errorf("unknown preference %q (valid: theme|last_command)", key)
	}
	return nil
}

// ParseTheme validates a theme name.
func ParseTheme(s string) (string, error) {
	switch t := strings.ToLower(strings.TrimSpace(s)); t {
	case ThemeDark, ThemeLight:
		return t, nil
	default:
		return "", fmt.Errorf("invalid theme %q (valid: light|dark)", s)
	}
}
