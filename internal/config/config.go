package config

import (
	"os"
	"path/filepath"
)

type Config struct {
	Engine   EngineConfig
	OpenAI   OpenAIConfig
	Organize OrganizeConfig
	Storage  StorageConfig
	Log      LogConfig
}

type EngineConfig struct {
	OllamaBaseURL string
	VisionModel   string
	TextModel     string
	EmbedModel    string
}

type OpenAIConfig struct {
	APIKey  string
	BaseURL string
}

type OrganizeConfig struct {
	DestDir          string
	FileLimit        int
	Workers          int
	ChunkSize        int
	SummaryChunkSize int
	MaxSummaryDepth  int
	MaxFileSizeMB    int
	OCRLanguages     string
}

type StorageConfig struct {
	DataDir string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Engine: EngineConfig{
			OllamaBaseURL: "http://localhost:11434",
			VisionModel:   "llava",
			TextModel:     "gemma2:2b",
			EmbedModel:    "nomic-embed-text",
		},
		Organize: OrganizeConfig{
			DestDir:          "organized",
			FileLimit:        10,
			Workers:          0, // 0 means NumCPU
			ChunkSize:        6144,
			SummaryChunkSize: 2048,
			MaxSummaryDepth:  5,
			MaxFileSizeMB:    50,
			OCRLanguages:     "eng",
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the YAML config file and applies SHELF_*
// environment overrides. Secrets (the OpenAI API key) come from environment
// variables only and are never written to the file.
func Load() (Config, error) {
	return loadWith(newFileBackend(DefaultConfigPath()))
}

func loadWith(b Backend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	return cfg, nil
}

// DefaultConfigPath returns the config file location, honoring XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "shelf", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "shelf-config.yaml")
	}
	return filepath.Join(home, ".config", "shelf", "config.yaml")
}

func defaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "shelf")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "shelf-data")
	}
	return filepath.Join(home, ".local", "share", "shelf")
}
