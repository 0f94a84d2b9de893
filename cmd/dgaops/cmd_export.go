package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	service "github.com/okian/dgaops/internal/app"
)

const leaderboardRows = 10

func newExportCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the AutoML leader as native and portable artifacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := a.newService().Export(cmd.Context())
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), report)
			return nil
		},
	}
	exportFlags(cmd)
	return cmd
}

func printReport(w io.Writer, r service.Report) {
	fmt.Fprintf(w, "Leaderboard (top %d):\n", leaderboardRows)
	for _, ref := range r.Leaderboard.Top(leaderboardRows) {
		fmt.Fprintf(w, "  %3d  %s\n", ref.Rank, ref.ID)
	}

	res := r.Artifacts
	switch {
	case !res.Portable():
		fmt.Fprintln(w, "No MOJO-capable model found. You can still use the binary model.")
	case res.SourceModelID == res.NativeModelID:
		fmt.Fprintf(w, "MOJO saved to: %s\n", res.PortablePath)
	default:
		fmt.Fprintf(w, "MOJO saved from fallback model %s to: %s\n", res.SourceModelID, res.PortablePath)
	}
	fmt.Fprintf(w, "Binary model of %s saved to: %s\n", res.NativeModelID, res.NativePath)
	fmt.Fprintf(w, "Manifest written to: %s\n", r.ManifestPath)

	if res.Portable() {
		fmt.Fprintf(w, "Production-ready MOJO at: %s\n", res.PortablePath)
	} else {
		fmt.Fprintln(w, "MOJO not produced; use the binary model above for scoring.")
	}
}
