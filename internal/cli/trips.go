package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/TomasRacil/WanderPlan-sub000/internal/changeset"
	"github.com/TomasRacil/WanderPlan-sub000/internal/migrate"
	"github.com/TomasRacil/WanderPlan-sub000/internal/trip"
	"github.com/TomasRacil/WanderPlan-sub000/pkg/types"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List trips, most recently updated first",
		Long: "List every stored trip. Listing reconciles the trip index with the\n" +
			"stored records first, so stale entries are dropped and lost trips\n" +
			"reappear.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd, func(ctx context.Context, svc *trip.Service) error {
				index, err := svc.List(ctx)
				if err != nil {
					return err
				}
				if a.jsonMode {
					return printJSON(cmd, index)
				}
				if len(index) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no trips")
					return nil
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tDESTINATION\tDATES\tBUDGET\tUPDATED")
				for _, m := range index {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
						m.ID, m.Destination, dateRange(m.StartDate, m.EndDate),
						money(m.Cost, m.Currency), relTime(m.UpdatedAt))
				}
				return tw.Flush()
			})
		},
	}
}

func newShowCmd(a *app) *cobra.Command {
	var asYAML bool
	cmd := &cobra.Command{
		Use:   "show <trip-id>",
		Short: "Show a trip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd, func(ctx context.Context, svc *trip.Service) error {
				st, err := svc.Load(ctx, args[0])
				if err != nil {
					return err
				}
				switch {
				case a.jsonMode:
					return printJSON(cmd, showView{Record: st.Record, Pending: st.Pending})
				case asYAML:
					m, err := migrate.ToMap(st.Record)
					if err != nil {
						return err
					}
					out, err := yaml.Marshal(m)
					if err != nil {
						return fmt.Errorf("marshal yaml: %w", err)
					}
					_, err = cmd.OutOrStdout().Write(out)
					return err
				}
				printSummary(cmd, st)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "print the full record as YAML")
	return cmd
}

type showView struct {
	Record  types.TripRecord  `json:"record"`
	Pending *types.ChangeSet `json:"pending,omitempty"`
}

func printSummary(cmd *cobra.Command, st types.TripState) {
	rec := st.Record
	packing := 0
	for _, c := range rec.Packing.List {
		packing += len(c.Items)
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s (%s)\n", rec.Trip.Destination, rec.Trip.ID)
	fmt.Fprintf(w, "  dates:      %s\n", dateRange(rec.Trip.StartDate, rec.Trip.EndDate))
	fmt.Fprintf(w, "  budget:     %s\n", money(rec.Trip.Budget, rec.Trip.Currency))
	fmt.Fprintf(w, "  itinerary:  %d items\n", len(rec.Itinerary.Items))
	fmt.Fprintf(w, "  tasks:      %d\n", len(rec.Resources.Tasks))
	fmt.Fprintf(w, "  packing:    %d items in %d categories\n", packing, len(rec.Packing.List))
	fmt.Fprintf(w, "  documents:  %d\n", len(rec.Resources.Documents))
	if st.Pending != nil {
		s := changeset.Summarize(*st.Pending)
		fmt.Fprintf(w, "  pending:    %s/%s (+%d ~%d -%d, %d ignored)\n",
			st.Pending.TargetArea, st.Pending.AIMode, s.Adds, s.Updates, s.Deletes, s.Ignored)
	}
}

func newCreateCmd(a *app) *cobra.Command {
	var core types.TripCore
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new trip",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(core.Destination) == "" {
				return userError(errors.New("--destination is required"))
			}
			core.Currency = strings.ToUpper(core.Currency)
			return a.withService(cmd, func(ctx context.Context, svc *trip.Service) error {
				rec, err := svc.Create(ctx, core)
				if err != nil {
					return err
				}
				if a.jsonMode {
					return printJSON(cmd, rec)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created trip %s (%s)\n", rec.Trip.ID, rec.Trip.Destination)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&core.Destination, "destination", "", "trip destination")
	cmd.Flags().StringVar(&core.StartDate, "start", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&core.EndDate, "end", "", "end date (YYYY-MM-DD)")
	cmd.Flags().Float64Var(&core.Budget, "budget", 0, "total budget")
	cmd.Flags().StringVar(&core.Currency, "currency", "", "home currency (default from config)")
	cmd.Flags().IntVar(&core.Travelers, "travelers", 0, "number of travelers")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <trip-id>",
		Short: "Delete a trip and its pending change set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd, func(ctx context.Context, svc *trip.Service) error {
				if err := svc.Delete(ctx, args[0]); err != nil {
					return err
				}
				if a.jsonMode {
					return printJSON(cmd, map[string]string{"deleted": args[0]})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted trip %s\n", args[0])
				return nil
			})
		},
	}
}

func newRepairCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "repair",
		Short: "Reconcile the trip index with stored records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd, func(ctx context.Context, svc *trip.Service) error {
				index, report, err := svc.Repair(ctx)
				if err != nil {
					return err
				}
				if a.jsonMode {
					return printJSON(cmd, map[string]any{"trips": len(index), "report": report})
				}
				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "%d trips indexed\n", len(index))
				printIDs(cmd, "repaired", report.Repaired)
				printIDs(cmd, "dropped", report.Dropped)
				printIDs(cmd, "recovered", report.Recovered)
				printIDs(cmd, "bootstrapped", report.Bootstrapped)
				return nil
			})
		},
	}
}

func newRebuildIndexCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild-index",
		Short: "Discard the trip index and rebuild it from stored records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd, func(ctx context.Context, svc *trip.Service) error {
				index, err := svc.RebuildIndex(ctx)
				if err != nil {
					return err
				}
				if a.jsonMode {
					return printJSON(cmd, index)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "index rebuilt: %d trips\n", len(index))
				return nil
			})
		},
	}
}

func printIDs(cmd *cobra.Command, label string, ids []string) {
	if len(ids) == 0 {
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", label, strings.Join(ids, ", "))
}
