package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TomasRacil/WanderPlan-sub000/internal/changeset"
	"github.com/TomasRacil/WanderPlan-sub000/internal/trip"
	"github.com/TomasRacil/WanderPlan-sub000/pkg/types"
)

func newSuggestCmd(a *app) *cobra.Command {
	var area, mode string
	cmd := &cobra.Command{
		Use:   "suggest <trip-id> <response.json>",
		Short: "Stage an AI response as a pending change set",
		Long: "Suggest reads an AI response (adds, updates, deletes, phrasebook and\n" +
			"newDistilledData) and stages it against the trip for review. Distilled\n" +
			"document summaries are applied immediately; everything else waits for\n" +
			"commit. Use - to read the response from stdin.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := a.readInput(args[1])
			if err != nil {
				return err
			}
			var resp types.Response
			if err := json.Unmarshal(data, &resp); err != nil {
				return userError(fmt.Errorf("parse response: %w", err))
			}
			return a.withService(cmd, func(ctx context.Context, svc *trip.Service) error {
				st, err := svc.Propose(ctx, args[0], types.Area(area), types.Mode(mode), resp)
				if err != nil {
					return err
				}
				return a.printPending(cmd, st)
			})
		},
	}
	cmd.Flags().StringVar(&area, "area", "", "target area: itinerary, tasks, packing, phrasebook")
	cmd.Flags().StringVar(&mode, "mode", string(types.ModeAdd), "AI mode: add, update, fill, dedupe")
	_ = cmd.MarkFlagRequired("area")
	return cmd
}

func newReviewCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "review <trip-id>",
		Short: "Show the pending change set with toggle keys",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd, func(ctx context.Context, svc *trip.Service) error {
				st, err := svc.Load(ctx, args[0])
				if err != nil {
					return err
				}
				if st.Pending == nil {
					return fmt.Errorf("trip %s: %w", args[0], types.ErrNoChangeSet)
				}
				return a.printPending(cmd, st)
			})
		},
	}
}

func newToggleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <trip-id> <adds|updates|deletes> <key>",
		Short: "Flip the ignored flag of one pending entry",
		Long: "Toggle marks a pending entry as ignored, or accepts it again. Adds are\n" +
			"addressed by the key shown in review, updates and deletes by item id.",
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd, func(ctx context.Context, svc *trip.Service) error {
				st, err := svc.Toggle(ctx, args[0], types.Section(args[1]), args[2])
				if err != nil {
					return err
				}
				return a.printPending(cmd, st)
			})
		},
	}
}

func newCommitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "commit <trip-id>",
		Short: "Apply the accepted entries of the pending change set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd, func(ctx context.Context, svc *trip.Service) error {
				st, err := svc.Commit(ctx, args[0])
				if err != nil {
					return err
				}
				if a.jsonMode {
					return printJSON(cmd, st.Record)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "committed changes to trip %s\n", args[0])
				return nil
			})
		},
	}
}

func newDiscardCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "discard <trip-id>",
		Short: "Drop the pending change set without applying it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd, func(ctx context.Context, svc *trip.Service) error {
				if _, err := svc.Discard(ctx, args[0]); err != nil {
					return err
				}
				if a.jsonMode {
					return printJSON(cmd, map[string]string{"discarded": args[0]})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "discarded pending changes for trip %s\n", args[0])
				return nil
			})
		},
	}
}

func (a *app) printPending(cmd *cobra.Command, st types.TripState) error {
	if a.jsonMode {
		return printJSON(cmd, st.Pending)
	}
	w := cmd.OutOrStdout()
	if st.Pending == nil {
		fmt.Fprintln(w, "no pending changes")
		return nil
	}
	writeChangeSet(w, *st.Pending)
	return nil
}

func writeChangeSet(w io.Writer, cs types.ChangeSet) {
	s := changeset.Summarize(cs)
	fmt.Fprintf(w, "%s (%s): %d adds, %d updates, %d deletes, %d ignored\n",
		cs.TargetArea, cs.AIMode, s.Adds, s.Updates, s.Deletes, s.Ignored)
	if cs.Data.ChangeSummary != "" {
		fmt.Fprintf(w, "  %s\n", cs.Data.ChangeSummary)
	}
	for _, add := range cs.Data.Adds {
		fmt.Fprintf(w, "  %s add    %s  %s\n", mark(add.Ignored), add.Key(), describe(add.Fields))
	}
	for _, u := range cs.Data.Updates {
		fmt.Fprintf(w, "  %s update %s  %s\n", mark(u.Ignored), u.ID, describeUpdate(u))
	}
	for _, d := range cs.Data.Deletes.Entries {
		fmt.Fprintf(w, "  %s delete %s\n", mark(d.Ignored), d.ID)
	}
	if s.Phrasebook {
		fmt.Fprintf(w, "  phrasebook: %d sections\n", len(cs.Data.Phrasebook))
	}
}

func mark(ignored bool) string {
	if ignored {
		return "[ ]"
	}
	return "[x]"
}

// describe picks the first human-readable field of a payload.
func describe(fields map[string]any) string {
	for _, k := range []string{"title", "text", "category", "name"} {
		if s, ok := fields[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func describeUpdate(u types.UpdateEntry) string {
	keys := make([]string, 0, len(u.Fields))
	for k := range u.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := []string{}
	if len(keys) > 0 {
		parts = append(parts, "fields: "+strings.Join(keys, ","))
	}
	if len(u.NewItems) > 0 {
		parts = append(parts, "+"+strings.Join(u.NewItems, ",+"))
	}
	if len(u.RemoveItems) > 0 {
		parts = append(parts, "-"+strings.Join(u.RemoveItems, ",-"))
	}
	return strings.Join(parts, "; ")
}
