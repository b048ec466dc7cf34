package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points every config source at a temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", root)
	t.Setenv("HOME", root)
	for _, k := range []string{"SERVER", "POLL_INTERVAL", "LIVE_INTERVAL", "TIMEOUT", "VERBOSE", "LOG_FORMAT", "THEME", "GEOIP_DB"} {
		t.Setenv("SPEEDWATCH_"+k, "")
		os.Unsetenv("SPEEDWATCH_" + k)
	}
	return root
}

func testFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.StringP("server", "s", "", "")
	fs.Duration("poll-interval", 0, "")
	fs.Duration("timeout", 0, "")
	fs.BoolP("verbose", "v", false, "")
	fs.String("log-format", "", "")
	fs.String("theme", "", "")
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)
	v, err := Init(testFlags(), "")
	require.NoError(t, err)

	s, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, DefaultServer, s.Server)
	assert.Equal(t, 2*time.Second, s.PollInterval)
	assert.Equal(t, 5*time.Second, s.LiveInterval)
	assert.Equal(t, DefaultTimeout, s.Timeout)
	assert.Equal(t, "text", s.LogFormat)
	assert.Empty(t, s.Theme)
	assert.False(t, s.Verbose)
}

func TestLoad_Precedence(t *testing.T) {
	root := isolate(t)
	cfgDir := filepath.Join(root, "speedwatch")
	require.NoError(t, os.MkdirAll(cfgDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfgDir, "config.yaml"),
		[]byte("server: http://file.example:5000\npoll_interval: 3s\ntheme: dark\n"), 0o644))

	t.Setenv("SPEEDWATCH_POLL_INTERVAL", "4s")

	fs := testFlags()
	require.NoError(t, fs.Parse([]string{"--server", "10.0.0.2:8080/"}))

	v, err := Init(fs, "")
	require.NoError(t, err)
	s, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "http://10.0.0.2:8080", s.Server, "flag beats file")
	assert.Equal(t, 4*time.Second, s.PollInterval, "env beats file")
	assert.Equal(t, "dark", s.Theme, "file beats default")
}

func TestInit_LoadsDotEnv(t *testing.T) {
	root := isolate(t)
	envFile := filepath.Join(root, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("SPEEDWATCH_LOG_FORMAT=json\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("SPEEDWATCH_LOG_FORMAT") })

	v, err := Init(nil, envFile)
	require.NoError(t, err)
	s, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "json", s.LogFormat)

	_, err = Init(nil, filepath.Join(root, "missing.env"))
	assert.NoError(t, err, "a missing .env file is not an error")
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"poll interval below minimum", "SPEEDWATCH_POLL_INTERVAL", "50ms"},
		{"live interval below minimum", "SPEEDWATCH_LIVE_INTERVAL", "0s"},
		{"bad scheme", "SPEEDWATCH_SERVER", "ftp://example.com"},
		{"bad theme", "SPEEDWATCH_THEME", "solarized"},
		{"bad log format", "SPEEDWATCH_LOG_FORMAT", "xml"},
		{"zero timeout", "SPEEDWATCH_TIMEOUT", "0s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			t.Setenv(tt.key, tt.value)
			v, err := Init(nil, "")
			require.NoError(t, err)
			_, err = Load(v)
			assert.Error(t, err)
		})
	}
}
