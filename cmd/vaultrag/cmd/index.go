package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vaultrag/core/internal/indexer"
	"github.com/vaultrag/core/internal/output"
)

type indexOptions struct {
	incremental bool
	note        string
}

func newIndexCmd() *cobra.Command {
	var opts indexOptions

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build or refresh the vault index",
		Long: `Index walks the vault, chunks and embeds every markdown note, and
persists the vector store and index metadata under .vaultrag/.

By default it rebuilds the index from scratch, clearing the vector store
and re-embedding every note. Use --incremental to reconcile only added,
changed and deleted notes, skipping notes whose content hash is unchanged,
or --note to refresh a single note.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.incremental, "incremental", false, "only reconcile notes changed since the last run")
	cmd.Flags().StringVar(&opts.note, "note", "", "re-index a single note (vault-relative path)")

	return cmd
}

func runIndex(ctx context.Context, cmd *cobra.Command, opts indexOptions) error {
	out := output.New(cmd.OutOrStdout())

	r, err := openVault(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	if opts.note != "" {
		if err := r.IndexNote(ctx, opts.note); err != nil {
			return fmt.Errorf("failed to index %s: %w", opts.note, err)
		}
		out.Successf("indexed %s", opts.note)
		return nil
	}

	var result *indexer.IndexResult
	if opts.incremental {
		result, err = r.IndexIncremental(ctx)
	} else {
		result, err = r.IndexAll(ctx)
	}
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	printIndexResult(out, result)
	return nil
}

func printIndexResult(out *output.Writer, result *indexer.IndexResult) {
	out.Successf("added %d, updated %d, removed %d, skipped %d, failed %d",
		len(result.Added), len(result.Updated), len(result.Removed), len(result.Skipped), len(result.Failed))

	for _, f := range result.Failed {
		out.Warningf("%s: %s", f.Path, f.Error)
	}
}
