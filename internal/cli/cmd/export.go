package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"speedwatch/internal/dirs"
	"speedwatch/internal/util"
	"speedwatch/internal/util/format"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "export",
		Short:         "Save the full history as CSV",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          runExport,
	}
	cmd.Flags().StringP("out", "o", "", "Output file, or - for stdout (default: network_history.csv in the data dir)")
	return cmd
}

func runExport(cmd *cobra.Command, _ []string) error {
	a := appFrom(cmd)
	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		p, err := dirs.DefaultExportPath()
		if err != nil {
			return &ExitError{Code: ExitCLIError, Err: fmt.Errorf("resolve data dir: %w", err)}
		}
		out = p
	}

	ctx, cancel := a.requestContext(cmd.Context())
	defer cancel()

	if out == "-" {
		if _, err := a.client.ExportCSV(ctx, cmd.OutOrStdout()); err != nil {
			return backendExit(err)
		}
		return nil
	}

	var n int64
	err := util.WriteFileAtomic(out, func(w io.Writer) error {
		var err error
		n, err = a.client.ExportCSV(ctx, w)
		return err
	})
	if err != nil {
		return backendExit(err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved: %s (%s)\n", out, format.Size(n))
	return nil
}
