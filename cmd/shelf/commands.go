package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/shelfctl/shelf/internal/config"
	"github.com/shelfctl/shelf/internal/engine"
	"github.com/shelfctl/shelf/internal/retrieval"
	"github.com/shelfctl/shelf/internal/storage"
)

// --- search ---

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search organized files by meaning",
	Long: `Search organized files by meaning.

The query is embedded with the configured embedding model and matched
against the descriptions stored during organize runs.

Examples:
  shelf search "tax documents from last year"
  shelf search vacation photos --limit 3`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")
		limit, _ := cmd.Flags().GetInt("limit")

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		setupLogging(cfg.Log.Level)

		eng, err := engine.Detect(engine.DetectConfig{
			OllamaBaseURL: cfg.Engine.OllamaBaseURL,
			OpenAIAPIKey:  cfg.OpenAI.APIKey,
			OpenAIBaseURL: cfg.OpenAI.BaseURL,
		})
		if err != nil {
			return fmt.Errorf("detecting inference engine: %w", err)
		}

		store, err := storage.Open(cfg.Storage.DataDir)
		if err != nil {
			return fmt.Errorf("opening storage: %w", err)
		}
		defer store.Close()

		embedder := retrieval.NewEmbedder(eng, cfg.Engine.EmbedModel)
		retriever := retrieval.NewRetriever(embedder, retrieval.NewFileStore(store.DB()))

		results, err := retriever.Retrieve(cmd.Context(), query, limit)
		if err != nil {
			return err
		}

		if len(results) == 0 {
			fmt.Println("No results found.")
			return nil
		}

		for i, r := range results {
			fmt.Printf("\n%s [score: %.3f]\n", colorize(colorBold, fmt.Sprintf("Result %d", i+1)), r.Score)
			fmt.Printf("  Path:  %s\n", r.NewPath)
			fmt.Printf("  Topic: %s\n", r.Topic)
			fmt.Printf("  %s\n", truncateRunes(r.Description, 500))
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().Int("limit", 5, "maximum number of results")
}

// --- runs ---

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect past organize runs",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		store, err := storage.Open(cfg.Storage.DataDir)
		if err != nil {
			return fmt.Errorf("opening storage: %w", err)
		}
		defer store.Close()

		runs, err := store.ListRuns(limit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No runs found.")
			return nil
		}

		for _, r := range runs {
			fmt.Printf("%s  %s  %-9s  %d/%d  %s\n",
				colorize(colorCyan, r.ID[:8]),
				r.StartedAt.Local().Format(time.DateTime),
				r.Status,
				r.FilesOrganized, r.FilesScanned,
				r.SourceDir,
			)
		}
		return nil
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a single run with its files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		store, err := storage.Open(cfg.Storage.DataDir)
		if err != nil {
			return fmt.Errorf("opening storage: %w", err)
		}
		defer store.Close()

		run, err := resolveRun(store, args[0])
		if err != nil {
			return err
		}
		files, err := store.ListFilesForRun(run.ID)
		if err != nil {
			return err
		}

		type fileView struct {
			SourcePath  string `json:"source_path"`
			NewPath     string `json:"new_path"`
			Format      string `json:"format"`
			Topic       string `json:"topic"`
			Description string `json:"description"`
		}
		view := struct {
			ID             string     `json:"id"`
			SourceDir      string     `json:"source_dir"`
			DestDir        string     `json:"dest_dir"`
			Status         string     `json:"status"`
			FilesScanned   int        `json:"files_scanned"`
			FilesOrganized int        `json:"files_organized"`
			StartedAt      string     `json:"started_at"`
			FinishedAt     string     `json:"finished_at,omitempty"`
			Files          []fileView `json:"files"`
		}{
			ID:             run.ID,
			SourceDir:      run.SourceDir,
			DestDir:        run.DestDir,
			Status:         run.Status,
			FilesScanned:   run.FilesScanned,
			FilesOrganized: run.FilesOrganized,
			StartedAt:      run.StartedAt.Format(time.RFC3339),
		}
		if !run.FinishedAt.IsZero() {
			view.FinishedAt = run.FinishedAt.Format(time.RFC3339)
		}
		for _, f := range files {
			view.Files = append(view.Files, fileView{
				SourcePath:  f.SourcePath,
				NewPath:     f.NewPath,
				Format:      f.Format,
				Topic:       f.Topic,
				Description: f.Description,
			})
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	},
}

// resolveRun looks a run up by full ID, falling back to a unique prefix
// match over recent runs.
func resolveRun(store *storage.Store, id string) (storage.Run, error) {
	run, err := store.GetRun(id)
	if err == nil {
		return run, nil
	}
	if err != storage.ErrNotFound {
		return storage.Run{}, err
	}

	runs, err := store.ListRuns(100)
	if err != nil {
		return storage.Run{}, err
	}
	var match *storage.Run
	for i := range runs {
		if strings.HasPrefix(runs[i].ID, id) {
			if match != nil {
				return storage.Run{}, fmt.Errorf("run ID prefix %q is ambiguous", id)
			}
			match = &runs[i]
		}
	}
	if match == nil {
		return storage.Run{}, fmt.Errorf("run %q not found", id)
	}
	return *match, nil
}

func init() {
	runsListCmd.Flags().Int("limit", 20, "maximum number of runs to list")
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
}

// --- status ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show shelf system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			printError("config error: %v", err)
			return nil
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 3*time.Second)
		defer cancel()

		eng, err := engine.Detect(engine.DetectConfig{
			OllamaBaseURL: cfg.Engine.OllamaBaseURL,
			OpenAIAPIKey:  cfg.OpenAI.APIKey,
			OpenAIBaseURL: cfg.OpenAI.BaseURL,
		})
		if err != nil {
			printStatus("Engine", "error: %v", err)
		} else if eng.IsRunning(ctx) {
			if cfg.OpenAI.APIKey != "" {
				printStatus("Engine", "OpenAI-compatible endpoint reachable")
			} else {
				printStatus("Engine", "Ollama running at %s", cfg.Engine.OllamaBaseURL)
			}
		} else {
			printStatus("Engine", "not running")
		}

		printStatus("Vision model", "%s", cfg.Engine.VisionModel)
		printStatus("Text model", "%s", cfg.Engine.TextModel)
		printStatus("Embed model", "%s", cfg.Engine.EmbedModel)

		store, err := storage.Open(cfg.Storage.DataDir)
		if err != nil {
			printStatus("Catalog", "error: %v", err)
		} else {
			defer store.Close()
			if n, err := store.CountFiles(); err == nil {
				printStatus("Cataloged files", "%d", n)
			}
			if runs, err := store.ListRuns(1); err == nil && len(runs) > 0 {
				printStatus("Last run", "%s (%s)", runs[0].StartedAt.Local().Format(time.DateTime), runs[0].Status)
			}
		}

		printStatus("Data dir", "%s", cfg.Storage.DataDir)
		printStatus("Config file", "%s", config.DefaultConfigPath())
		return nil
	},
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
