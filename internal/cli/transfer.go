package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/TomasRacil/WanderPlan-sub000/internal/trip"
)

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import a trip from a .zip archive or a legacy JSON export",
		Long: "Import reads a trip archive (a zip holding trip_data.json) or a bare\n" +
			"JSON export in any historical format, migrates it, and stores it as a\n" +
			"new trip. Use - to read from stdin.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := a.readInput(args[0])
			if err != nil {
				return err
			}
			return a.withService(cmd, func(ctx context.Context, svc *trip.Service) error {
				rec, err := svc.Import(ctx, data)
				if err != nil {
					return err
				}
				if a.jsonMode {
					return printJSON(cmd, rec)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported trip %s (%s)\n", rec.Trip.ID, rec.Trip.Destination)
				return nil
			})
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <trip-id> <file>",
		Short: "Export a trip as a .zip archive",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd, func(ctx context.Context, svc *trip.Service) error {
				var buf bytes.Buffer
				if err := svc.Export(ctx, args[0], &buf); err != nil {
					return err
				}
				if args[1] == "-" {
					_, err := cmd.OutOrStdout().Write(buf.Bytes())
					return err
				}
				if err := os.WriteFile(args[1], buf.Bytes(), 0o644); err != nil {
					return fmt.Errorf("write archive: %w", err)
				}
				if a.jsonMode {
					return printJSON(cmd, map[string]any{"id": args[0], "file": args[1], "bytes": buf.Len()})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "exported trip %s to %s (%s)\n",
					args[0], args[1], humanize.Bytes(uint64(buf.Len())))
				return nil
			})
		},
	}
}
