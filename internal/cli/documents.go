package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/TomasRacil/WanderPlan-sub000/internal/docstore"
	"github.com/TomasRacil/WanderPlan-sub000/internal/trip"
	"github.com/TomasRacil/WanderPlan-sub000/pkg/types"
)

type docView struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	MimeType   string `json:"mimeType"`
	Size       *int64 `json:"size,omitempty"`
	Referenced bool   `json:"referenced"`
}

func newDocView(d types.Document, referenced bool) docView {
	return docView{ID: d.ID, Name: d.Name, MimeType: d.MimeType, Size: d.Size, Referenced: referenced}
}

func newDocsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "docs <trip-id>",
		Short: "List a trip's documents",
		Long: "List the documents in a trip's document store. Documents no item or\n" +
			"pending change references are marked unreferenced; gc removes them.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd, func(ctx context.Context, svc *trip.Service) error {
				st, err := svc.Load(ctx, args[0])
				if err != nil {
					return err
				}
				reachable := docstore.Reachable(st)
				docs := make([]docView, 0, len(st.Record.Resources.Documents))
				for id, d := range st.Record.Resources.Documents {
					docs = append(docs, newDocView(d, reachable[id]))
				}
				sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })

				if a.jsonMode {
					return printJSON(cmd, docs)
				}
				if len(docs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no documents")
					return nil
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tTYPE\tSIZE\tREFERENCED")
				for _, d := range docs {
					size := "-"
					if d.Size != nil {
						size = humanize.Bytes(uint64(*d.Size))
					}
					ref := "yes"
					if !d.Referenced {
						ref = "no"
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", d.ID, d.Name, d.MimeType, size, ref)
				}
				if dangling := docstore.Dangling(st.Record); len(dangling) > 0 {
					fmt.Fprintf(tw, "\nmissing: %s\n", strings.Join(dangling, ", "))
				}
				return tw.Flush()
			})
		},
	}
}

func newDocDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "doc-delete <trip-id> <doc-id>",
		Short: "Delete a document and every reference to it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd, func(ctx context.Context, svc *trip.Service) error {
				if _, err := svc.DeleteDocument(ctx, args[0], args[1]); err != nil {
					return err
				}
				if a.jsonMode {
					return printJSON(cmd, map[string]string{"deleted": args[1]})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted document %s\n", args[1])
				return nil
			})
		},
	}
}

func newGCCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "gc <trip-id>",
		Short: "Remove documents nothing references",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd, func(ctx context.Context, svc *trip.Service) error {
				removed, err := svc.CollectGarbage(ctx, args[0])
				if err != nil {
					return err
				}
				if a.jsonMode {
					return printJSON(cmd, map[string]any{"removed": removed})
				}
				if len(removed) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "nothing to collect")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %d documents: %s\n", len(removed), strings.Join(removed, ", "))
				return nil
			})
		},
	}
}
