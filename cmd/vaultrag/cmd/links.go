package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vaultrag/core/internal/linksuggest"
	"github.com/vaultrag/core/internal/output"
)

type linksOptions struct {
	max             int
	minConfidence   float64
	includeExisting bool
	format          string
}

func newLinksCmd() *cobra.Command {
	var opts linksOptions

	cmd := &cobra.Command{
		Use:   "links <note>",
		Short: "Suggest wikilinks for a note",
		Long: `Links scans a note's prose for plain-text mentions of other notes'
titles or aliases that aren't already wikilinked, and proposes
anchor -> target conversions ranked by confidence.

Example:
  vaultrag links projects/roadmap.md`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLinks(cmd.Context(), cmd, args[0], opts)
		},
	}

	defaults := linksuggest.DefaultOptions()
	cmd.Flags().IntVar(&opts.max, "max", defaults.MaxSuggestions, "maximum number of suggestions")
	cmd.Flags().Float64Var(&opts.minConfidence, "min-confidence", defaults.MinConfidence, "minimum confidence to report")
	cmd.Flags().BoolVar(&opts.includeExisting, "include-existing", !defaults.ExcludeExisting, "also suggest targets already wikilinked elsewhere in the note")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "output format: text, json")

	return cmd
}

func runLinks(ctx context.Context, cmd *cobra.Command, notePath string, opts linksOptions) error {
	out := output.New(cmd.OutOrStdout())

	r, err := openVault(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	suggestions, err := r.Links.Suggest(ctx, notePath, linksuggest.Options{
		MaxSuggestions:  opts.max,
		MinConfidence:   opts.minConfidence,
		ExcludeExisting: !opts.includeExisting,
		ContextChars:    linksuggest.DefaultOptions().ContextChars,
	})
	if err != nil {
		return fmt.Errorf("link suggestion failed: %w", err)
	}

	if opts.format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(suggestions)
	}

	if len(suggestions) == 0 {
		out.Status("", "no suggestions")
		return nil
	}

	for _, s := range suggestions {
		out.Statusf("", "line %d: %q -> [[%s]] (confidence %.2f)", s.Line, s.Anchor, s.TargetTitle, s.Confidence)
		out.Status("", "   "+s.Context)
	}
	return nil
}
