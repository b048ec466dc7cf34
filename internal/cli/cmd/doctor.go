package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"speedwatch/internal/geo"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "doctor",
		Short:         "Check server reachability and show the effective configuration",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			out := cmd.OutOrStdout()
			s := a.settings

			cfgFile := a.viper.ConfigFileUsed()
			if cfgFile == "" {
				cfgFile = "(none)"
			}
			geoDB := geo.Enricher{Path: s.GeoIPDB}.Database()
			if geoDB == "" {
				geoDB = "(not found)"
			}
			prefsPath := a.prefs.Path
			if prefsPath == "" {
				prefsPath = "(disabled)"
			}

			fmt.Fprintf(out, "Server:        %s\n", s.Server)
			fmt.Fprintf(out, "Config file:   %s\n", cfgFile)
			fmt.Fprintf(out, "Poll interval: %s\n", s.PollInterval)
			fmt.Fprintf(out, "Live interval: %s\n", s.LiveInterval)
			fmt.Fprintf(out, "Timeout:       %s\n", s.Timeout)
			fmt.Fprintf(out, "Theme:         %s\n", a.theme())
			fmt.Fprintf(out, "Preferences:   %s\n", prefsPath)
			fmt.Fprintf(out, "GeoIP ASN db:  %s\n", geoDB)

			ctx, cancel := a.requestContext(cmd.Context())
			defer cancel()
			started := time.Now()
			if err := a.client.Ping(ctx); err != nil {
				fmt.Fprintf(out, "Reachable:     no\n")
				return backendExit(err)
			}
			fmt.Fprintf(out, "Reachable:     yes (%s)\n", time.Since(started).Round(time.Millisecond))
			return nil
		},
	}
}
