package cmd

import (
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"speedwatch/internal/geo"
	"speedwatch/internal/model"
)

func newMyIPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "myip",
		Short:         "Show the server's public IP address and location",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          runMyIP,
	}
	cmd.Flags().String("geoip-db", "", "GeoLite2 ASN database for AS enrichment (default: config, then system paths)")
	cmd.Flags().Bool("json", false, "Print the answer as JSON")
	return cmd
}

func runMyIP(cmd *cobra.Command, _ []string) error {
	a := appFrom(cmd)
	dbPath, _ := cmd.Flags().GetString("geoip-db")
	asJSON, _ := cmd.Flags().GetBool("json")
	if dbPath == "" {
		dbPath = a.settings.GeoIPDB
	}

	ctx, cancel := a.requestContext(cmd.Context())
	defer cancel()
	info, err := a.client.MyIP(ctx)
	if err != nil {
		return backendExit(err)
	}

	if _, err := (geo.Enricher{Path: dbPath}).Enrich(&info); err != nil {
		if dbPath != "" {
			return &ExitError{Code: ExitCLIError, Err: err}
		}
		a.logger.Debug("asn enrichment skipped", "error", err)
	}

	if asJSON {
		if err := writeJSON(cmd.OutOrStdout(), info); err != nil {
			return &ExitError{Code: ExitCLIError, Err: err}
		}
		return nil
	}
	if err := renderIPInfo(cmd, info); err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}
	return nil
}

func renderIPInfo(cmd *cobra.Command, info model.IPInfo) error {
	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.Header("Field", "Value")
	rows := [][]string{
		{"IP address", info.IP},
		{"ISP", info.ISP},
		{"Organization", info.Organization},
		{"City", info.City},
		{"Region", info.Region},
		{"Country", info.Country},
		{"Timezone", info.Timezone},
	}
	if info.Latitude != nil && info.Longitude != nil {
		rows = append(rows, []string{"Coordinates", fmt.Sprintf("%.4f, %.4f", *info.Latitude, *info.Longitude)})
	}
	if info.ASN != 0 {
		rows = append(rows, []string{"ASN", "AS" + strconv.FormatUint(uint64(info.ASN), 10) + " " + info.ASNOrg})
	}
	for _, r := range rows {
		if r[1] == "" {
			r[1] = "—"
		}
		if err := table.Append(r); err != nil {
			return err
		}
	}
	return table.Render()
}
