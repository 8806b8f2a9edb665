package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shelfctl/shelf/internal/config"
	"github.com/shelfctl/shelf/internal/describe"
	"github.com/shelfctl/shelf/internal/engine"
	"github.com/shelfctl/shelf/internal/extract"
	"github.com/shelfctl/shelf/internal/organize"
	"github.com/shelfctl/shelf/internal/pipeline"
	"github.com/shelfctl/shelf/internal/retrieval"
	"github.com/shelfctl/shelf/internal/storage"
	"github.com/shelfctl/shelf/internal/tree"
)

var organizeCmd = &cobra.Command{
	Use:   "organize <source>",
	Short: "Organize a directory into topic folders",
	Long: fmt.Sprintf(`Organize a directory into topic folders.

Each supported file is described by a local model, labeled with a topic,
and copied to <dest>/<topic>/<description><ext>. The original files are
left in place.

Supported file types: %s

Examples:
  shelf organize ~/Downloads
  shelf organize ~/inbox --dest ~/sorted --limit 50
  shelf organize ~/inbox --dry-run`, strings.Join(extract.SupportedExtensions(), " ")),
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOrganize(cmd, args[0])
	},
}

func init() {
	organizeCmd.Flags().String("dest", "", "destination directory (default: <source>/organized)")
	organizeCmd.Flags().Bool("dry-run", false, "plan placements without copying anything")
	organizeCmd.Flags().Int("limit", 0, "maximum number of files to process (default from config)")
	organizeCmd.Flags().Int("workers", 0, "extraction concurrency (default: number of CPUs)")
	organizeCmd.Flags().String("artifacts", "", "directory for JSON artifacts (default: destination)")
}

func runOrganize(cmd *cobra.Command, source string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(cfg.Log.Level)

	info, err := os.Stat(source)
	if err != nil {
		return fmt.Errorf("reading source: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", source)
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	dest, _ := cmd.Flags().GetString("dest")
	if dest == "" {
		dest = cfg.Organize.DestDir
	}
	if !filepath.IsAbs(dest) {
		dest = filepath.Join(source, dest)
	}

	limit, _ := cmd.Flags().GetInt("limit")
	if limit <= 0 {
		limit = cfg.Organize.FileLimit
	}
	workers, _ := cmd.Flags().GetInt("workers")
	if workers <= 0 {
		workers = cfg.Organize.Workers
	}
	artifacts, _ := cmd.Flags().GetString("artifacts")
	if artifacts == "" && !dryRun {
		artifacts = dest
	}

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
	models := []string{cfg.Engine.VisionModel, cfg.Engine.TextModel, cfg.Engine.EmbedModel}
	if err := engine.EnsureReady(ctx, eng, models, os.Stderr); err != nil {
		return err
	}

	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer store.Close()

	printStep("Source directory before organization:")
	if listing, err := tree.Render(source); err == nil {
		fmt.Fprint(os.Stdout, listing)
	}

	maxFileSize := int64(cfg.Organize.MaxFileSizeMB) * 1024 * 1024
	ocrLangs := strings.Split(cfg.Organize.OCRLanguages, ",")
	for i := range ocrLangs {
		ocrLangs[i] = strings.TrimSpace(ocrLangs[i])
	}

	extractor := extract.New(maxFileSize, ocrLangs)
	describer := describe.New(eng, cfg.Engine.VisionModel, cfg.Engine.TextModel,
		cfg.Organize.SummaryChunkSize, cfg.Organize.MaxSummaryDepth)
	embedder := retrieval.NewEmbedder(eng, cfg.Engine.EmbedModel)
	organizer := organize.New(dest, dryRun)

	p := pipeline.New(extractor, describer, embedder, organizer, store, pipeline.Options{
		DestDir:      dest,
		Workers:      workers,
		FileLimit:    limit,
		ChunkSize:    cfg.Organize.ChunkSize,
		ArtifactsDir: artifacts,
	})

	report, err := p.Run(ctx, source)
	if err != nil {
		return err
	}

	for _, pl := range report.Placements {
		printStep("%s -> %s", pl.SourcePath, pl.NewPath)
	}

	if dryRun {
		printSuccess("Dry run: %d of %d files would be organized into %s",
			report.FilesOrganized, report.FilesScanned, dest)
		return nil
	}

	printStep("Destination after organization:")
	if listing, err := tree.Render(dest); err == nil {
		fmt.Fprint(os.Stdout, listing)
	}

	printSuccess("Organized %d of %d files into %s (run %s)",
		report.FilesOrganized, report.FilesScanned, dest, report.RunID[:8])
	return nil
}
