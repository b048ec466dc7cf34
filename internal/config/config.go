package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"speedwatch/internal/dirs"
	"speedwatch/internal/logging"
	"speedwatch/internal/speedtest"
	"speedwatch/internal/util"
)

// Keys shared by flags, env (SPEEDWATCH_*) and the config file.
const (
	KeyServer       = "server"
	KeyPollInterval = "poll_interval"
	KeyLiveInterval = "live_interval"
	KeyTimeout      = "timeout"
	KeyVerbose      = "verbose"
	KeyLogFormat    = "log_format"
	KeyTheme        = "theme"
	KeyGeoIPDB      = "geoip_db"
)

const (
	DefaultServer       = "http://127.0.0.1:5000"
	DefaultLiveInterval = 5 * time.Second
	DefaultTimeout      = 10 * time.Second
)

// Settings is the resolved configuration.
type Settings struct {
	Server       string
	PollInterval time.Duration
	LiveInterval time.Duration
	// Timeout bounds the start request and one-shot API calls.
	Timeout   time.Duration
	Verbose   bool
	LogFormat string
	// Theme is empty when neither flag, env nor file set it; preferences decide then.
	Theme   string
	GeoIPDB string
}

// Init wires a Viper instance with config paths, env, defaults and flag bindings.
// envFile is loaded into the process environment first when it exists.
func Init(flags *pflag.FlagSet, envFile string) (*viper.Viper, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	v := viper.New()

	// Setup config search path
	if cfgDir, err := dirs.ConfigDir(); err == nil {
		v.AddConfigPath(cfgDir)
	}
	v.SetConfigName("config") // supports config.{yaml|yml|json|toml}

	// Environment variables: SPEEDWATCH_*
	v.SetEnvPrefix("SPEEDWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyServer, DefaultServer)
	v.SetDefault(KeyPollInterval, speedtest.DefaultInterval)
	v.SetDefault(KeyLiveInterval, DefaultLiveInterval)
	v.SetDefault(KeyTimeout, DefaultTimeout)
	v.SetDefault(KeyVerbose, false)
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyTheme, "")
	v.SetDefault(KeyGeoIPDB, "")

	// Bind persistent flags to Viper keys
	if flags != nil {
		for key, name := range map[string]string{
			KeyServer:       "server",
			KeyPollInterval: "poll-interval",
			KeyTimeout:      "timeout",
			KeyVerbose:      "verbose",
			KeyLogFormat:    "log-format",
			KeyTheme:        "theme",
		} {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind --%s: %w", name, err)
				}
			}
		}
	}

	// Read config file if present (ignore not found)
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// Load resolves and validates Settings.
func Load(v *viper.Viper) (Settings, error) {
	s := Settings{
		Server:       strings.TrimSpace(v.GetString(KeyServer)),
		PollInterval: v.GetDuration(KeyPollInterval),
		LiveInterval: v.GetDuration(KeyLiveInterval),
		Timeout:      v.GetDuration(KeyTimeout),
		Verbose:      v.GetBool(KeyVerbose),
		Theme:        strings.ToLower(strings.TrimSpace(v.GetString(KeyTheme))),
		GeoIPDB:      v.GetString(KeyGeoIPDB),
	}

	u, err := util.NormalizeBaseURL(s.Server)
	if err != nil {
		return Settings{}, fmt.Errorf("invalid server: %w", err)
	}
	s.Server = u.String()

	if s.PollInterval < speedtest.MinInterval {
		return Settings{}, fmt.Errorf("invalid poll interval %s (minimum %s)", s.PollInterval, speedtest.MinInterval)
	}
	if s.LiveInterval < speedtest.MinInterval {
		return Settings{}, fmt.Errorf("invalid live interval %s (minimum %s)", s.LiveInterval, speedtest.MinInterval)
	}
	if s.Timeout <= 0 {
		return Settings{}, fmt.Errorf("invalid timeout %s", s.Timeout)
	}

	if s.LogFormat, err = logging.ParseFormat(v.GetString(KeyLogFormat)); err != nil {
		return Settings{}, err
	}

	switch s.Theme {
	case "", "light", "dark":
	default:
		return Settings{}, fmt.Errorf("invalid theme %q (valid: light|dark)", s.Theme)
	}
	return s, nil
}
