package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/shelfctl/shelf/internal/api"
	"github.com/shelfctl/shelf/internal/config"
	"github.com/shelfctl/shelf/internal/engine"
	"github.com/shelfctl/shelf/internal/retrieval"
	"github.com/shelfctl/shelf/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose the catalog to MCP clients over stdio",
	Long: `Expose the catalog to MCP clients over stdio.

Registers search_files, describe_file, and list_runs tools so
assistants can query the organized file catalog. The process speaks
MCP on stdin/stdout and logs to stderr.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eng, err := engine.Detect(engine.DetectConfig{
		OllamaBaseURL: cfg.Engine.OllamaBaseURL,
		OpenAIAPIKey:  cfg.OpenAI.APIKey,
		OpenAIBaseURL: cfg.OpenAI.BaseURL,
	})
	if err != nil {
		return fmt.Errorf("detecting inference engine: %w", err)
	}
	if err := engine.EnsureReady(ctx, eng, []string{cfg.Engine.EmbedModel}, os.Stderr); err != nil {
		return err
	}

	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer store.Close()

	embedder := retrieval.NewEmbedder(eng, cfg.Engine.EmbedModel)
	retriever := retrieval.NewRetriever(embedder, retrieval.NewFileStore(store.DB()))

	mcpSrv := api.NewMCPServer(api.MCPDeps{
		Catalog:   store,
		Retriever: retriever,
	})

	slog.Info("MCP server started (stdio transport)")
	stdioSrv := server.NewStdioServer(mcpSrv)
	if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("MCP stdio server: %w", err)
	}
	return nil
}
