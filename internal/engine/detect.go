package engine

// DetectConfig holds parameters for backend detection.
type DetectConfig struct {
	OllamaBaseURL string
	OpenAIAPIKey  string
	OpenAIBaseURL string
}

// Detect returns the inference backend to use: an OpenAI-compatible engine
// when an API key is configured, the local Ollama engine otherwise.
func Detect(cfg DetectConfig) (Engine, error) {
	if cfg.OpenAIAPIKey != "" {
		return NewOpenAIEngine(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL), nil
	}
	return NewOllamaEngine(cfg.OllamaBaseURL), nil
}
