package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vaultrag/core/internal/output"
)

type graphOptions struct {
	quick  bool
	format string
}

func newGraphCmd() *cobra.Command {
	var opts graphOptions

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Analyze the vault's wikilink graph",
		Long: `Graph walks every note's wikilinks and reports connection counts,
dangling links (targets that resolve to no note), and orphan notes (notes
with no incoming or outgoing links).

Use --quick for the summary counts only ({noteCount, connectionCount,
dangling, orphan}); omit it for the full backlink/forward-link report.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.quick, "quick", false, "print summary counts only")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "output format: text, json")

	return cmd
}

func runGraph(ctx context.Context, cmd *cobra.Command, opts graphOptions) error {
	out := output.New(cmd.OutOrStdout())

	r, err := openVault(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	if opts.quick {
		stats, err := r.Graph.QuickStats(ctx)
		if err != nil {
			return fmt.Errorf("graph analysis failed: %w", err)
		}
		if opts.format == "json" {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(stats)
		}
		out.Statusf("", "notes: %d, connections: %d, dangling: %d, orphan: %d",
			stats.NoteCount, stats.ConnectionCount, stats.Dangling, stats.Orphan)
		return nil
	}

	stats, err := r.Graph.Analyze(ctx)
	if err != nil {
		return fmt.Errorf("graph analysis failed: %w", err)
	}

	if opts.format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	out.Statusf("", "notes: %d, unique connections: %d, total mentions: %d",
		stats.NoteCount, stats.UniqueConnections, stats.TotalMentions)
	out.Newline()

	if len(stats.DanglingLinks) > 0 {
		out.Status("", "dangling links:")
		for _, d := range stats.DanglingLinks {
			out.Statusf("", "  [[%s]] (%d source notes)", d.Target, len(d.Occurrences))
		}
		out.Newline()
	}

	if len(stats.OrphanNotes) > 0 {
		out.Status("", "orphan notes:")
		for _, n := range stats.OrphanNotes {
			out.Statusf("", "  %s", n)
		}
	}

	return nil
}
