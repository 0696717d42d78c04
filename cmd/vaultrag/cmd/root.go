// Package cmd provides the CLI commands for vaultrag.
package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/vaultrag/core/internal/config"
	"github.com/vaultrag/core/internal/logging"
	"github.com/vaultrag/core/pkg/rag"
	"github.com/vaultrag/core/pkg/version"
)

// vaultPath is the global --vault flag, resolved to the current directory
// by default since a vault has no project-root marker to search for.
var vaultPath string

// debugMode raises the log level to debug; logs are always written to the
// vault's log file.
var debugMode bool

// NewRootCmd creates the root command for the vaultrag CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "vaultrag",
		Short:   "Hybrid retrieval over a personal markdown vault",
		Version: version.Version,
		Long: `vaultrag indexes a directory of markdown notes and serves hybrid
(vector + keyword) search over them, with wikilink-graph-aware reranking
and link suggestions.

Run 'vaultrag index' once to build the index, then 'vaultrag search <query>'.`,
	}
	cmd.SetVersionTemplate(version.String() + "\n")

	cmd.PersistentFlags().StringVar(&vaultPath, "vault", ".", "path to the notes vault")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable debug logging to "+logging.MetadataDirName+"/logs/vaultrag.log")

	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newGraphCmd())
	cmd.AddCommand(newLinksCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// openVault resolves the current configuration and logger, then
// constructs a rag.RAG over vaultPath. Callers must Close() the result.
func openVault(ctx context.Context) (*rag.RAG, error) {
	cfg, err := config.Load(vaultPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logCfg := logging.DefaultConfig(vaultPath)
	if debugMode {
		logCfg.Level = "debug"
	}
	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		logger = slog.Default()
	} else {
		defer cleanup()
	}

	r, err := rag.New(ctx, vaultPath, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vault %s: %w", vaultPath, err)
	}
	return r, nil
}
