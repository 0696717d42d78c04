package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vaultrag/core/internal/output"
	"github.com/vaultrag/core/internal/retriever"
)

type searchOptions struct {
	limit      int
	mode       string
	format     string
	graphRerank bool
	llmRerank   bool
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the vault",
		Long: `Search runs the hybrid retriever: vector and keyword candidates are
gathered in parallel, combined into a per-note baseScore, and optionally
reranked by graph centrality and/or an LLM before the final ranking.

Examples:
  vaultrag search "product roadmap"
  vaultrag search "release plan" --mode semantic --limit 5
  vaultrag search "meeting notes" --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runSearch(cmd.Context(), cmd, query, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 10, "maximum number of results")
	cmd.Flags().StringVarP(&opts.mode, "mode", "m", "hybrid", "search mode: hybrid, semantic, keyword")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "output format: text, json")
	cmd.Flags().BoolVar(&opts.graphRerank, "graph-rerank", false, "boost results by wikilink-graph centrality")
	cmd.Flags().BoolVar(&opts.llmRerank, "llm-rerank", false, "rerank top candidates with the configured LLM reranker")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, query string, opts searchOptions) error {
	out := output.New(cmd.OutOrStdout())

	r, err := openVault(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	results, err := r.Search(ctx, query, retriever.Options{
		Mode:              retriever.Mode(opts.mode),
		TopK:              opts.limit,
		UseGraphReranking: opts.graphRerank,
		UseLLMReranking:   opts.llmRerank,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		out.Status("", fmt.Sprintf("no results for %q", query))
		return nil
	}

	if opts.format == "json" {
		return formatSearchJSON(cmd, results)
	}
	return formatSearchText(out, query, results)
}

func formatSearchText(out *output.Writer, query string, results []retriever.Result) error {
	out.Statusf("", "found %d results for %q:", len(results), query)
	out.Newline()

	for i, r := range results {
		out.Statusf("", "%d. %s (score: %.3f)", i+1, r.NotePath, r.FinalScore)
		if r.Title != "" && r.Title != r.NotePath {
			out.Status("", "   "+r.Title)
		}
		for _, c := range r.Chunks {
			snippet := firstLines(c.Content, 2)
			for _, line := range snippet {
				out.Status("", "   "+line)
			}
		}
		out.Newline()
	}
	return nil
}

func formatSearchJSON(cmd *cobra.Command, results []retriever.Result) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func firstLines(content string, n int) []string {
	lines := strings.Split(content, "\n")
	if len(lines) > n {
		lines = lines[:n]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
