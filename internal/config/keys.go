package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "engine.ollama_base_url", typ: kString, env: "SHELF_OLLAMA_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Engine.OllamaBaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Engine.OllamaBaseURL },
	},
	{
		key: "engine.vision_model", typ: kString, env: "SHELF_VISION_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Engine.VisionModel = v.(string) },
		extract: func(cfg Config) any { return cfg.Engine.VisionModel },
	},
	{
		key: "engine.text_model", typ: kString, env: "SHELF_TEXT_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Engine.TextModel = v.(string) },
		extract: func(cfg Config) any { return cfg.Engine.TextModel },
	},
	{
		key: "engine.embed_model", typ: kString, env: "SHELF_EMBED_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Engine.EmbedModel = v.(string) },
		extract: func(cfg Config) any { return cfg.Engine.EmbedModel },
	},
	{
		key: "openai.api_key", typ: kString, env: "SHELF_OPENAI_API_KEY", secret: true,
		apply:   func(cfg *Config, v any) { cfg.OpenAI.APIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.OpenAI.APIKey },
	},
	{
		key: "openai.base_url", typ: kString, env: "SHELF_OPENAI_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.OpenAI.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.OpenAI.BaseURL },
	},
	{
		key: "organize.dest_dir", typ: kString, env: "SHELF_DEST_DIR",
		apply:   func(cfg *Config, v any) { cfg.Organize.DestDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Organize.DestDir },
	},
	{
		key: "organize.file_limit", typ: kInt, env: "SHELF_FILE_LIMIT",
		apply:   func(cfg *Config, v any) { cfg.Organize.FileLimit = v.(int) },
		extract: func(cfg Config) any { return cfg.Organize.FileLimit },
	},
	{
		key: "organize.workers", typ: kInt, env: "SHELF_WORKERS",
		apply:   func(cfg *Config, v any) { cfg.Organize.Workers = v.(int) },
		extract: func(cfg Config) any { return cfg.Organize.Workers },
	},
	{
		key: "organize.chunk_size", typ: kInt, env: "SHELF_CHUNK_SIZE",
		apply:   func(cfg *Config, v any) { cfg.Organize.ChunkSize = v.(int) },
		extract: func(cfg Config) any { return cfg.Organize.ChunkSize },
	},
	{
		key: "organize.summary_chunk_size", typ: kInt, env: "SHELF_SUMMARY_CHUNK_SIZE",
		apply:   func(cfg *Config, v any) { cfg.Organize.SummaryChunkSize = v.(int) },
		extract: func(cfg Config) any { return cfg.Organize.SummaryChunkSize },
	},
	{
		key: "organize.max_summary_depth", typ: kInt, env: "SHELF_MAX_SUMMARY_DEPTH",
		apply:   func(cfg *Config, v any) { cfg.Organize.MaxSummaryDepth = v.(int) },
		extract: func(cfg Config) any { return cfg.Organize.MaxSummaryDepth },
	},
	{
		key: "organize.max_file_size_mb", typ: kInt, env: "SHELF_MAX_FILE_SIZE_MB",
		apply:   func(cfg *Config, v any) { cfg.Organize.MaxFileSizeMB = v.(int) },
		extract: func(cfg Config) any { return cfg.Organize.MaxFileSizeMB },
	},
	{
		key: "organize.ocr_languages", typ: kString, env: "SHELF_OCR_LANGUAGES",
		apply:   func(cfg *Config, v any) { cfg.Organize.OCRLanguages = v.(string) },
		extract: func(cfg Config) any { return cfg.Organize.OCRLanguages },
	},
	{
		key: "storage.data_dir", typ: kString, env: "SHELF_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "log.level", typ: kString, env: "SHELF_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
}

// applyBackend overlays values from the config backend onto cfg.
// Secrets never come from the backend.
func applyBackend(cfg *Config, b Backend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		}
	}
	return nil
}

// applyEnvOverrides overlays SHELF_* environment variables onto cfg.
// Invalid integer values are ignored.
func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			}
		}
	}
}
