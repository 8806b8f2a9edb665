package engine

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIEngine implements Engine against any OpenAI-compatible server
// (hosted APIs, llama.cpp server, vLLM, and similar).
type OpenAIEngine struct {
	client *openai.Client
}

// NewOpenAIEngine creates an OpenAIEngine. baseURL may be empty to use the
// default OpenAI endpoint.
func NewOpenAIEngine(apiKey, baseURL string) *OpenAIEngine {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIEngine{client: openai.NewClientWithConfig(cfg)}
}

func (e *OpenAIEngine) Chat(ctx context.Context, model string, messages []Message, jsonSchema *Schema) (string, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(messages)+1)

	if jsonSchema != nil {
		// OpenAI-compatible servers take json_object mode plus key guidance
		// in a system message, not an inline format schema.
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: schemaInstruction(jsonSchema),
		})
	}

	for _, m := range messages {
		if len(m.Images) == 0 {
			msgs = append(msgs, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
			continue
		}

		parts := []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: m.Content},
		}
		for _, img := range m.Images {
			parts = append(parts, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    dataURL(img),
					Detail: openai.ImageURLDetailAuto,
				},
			})
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: m.Role, MultiContent: parts})
	}

	req := openai.ChatCompletionRequest{
		Model:    model,
		Messages: msgs,
	}
	if jsonSchema != nil {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := e.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (e *OpenAIEngine) Embed(ctx context.Context, model string, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:          []string{text},
		Model:          openai.EmbeddingModel(model),
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	})
	if err != nil {
		return nil, fmt.Errorf("creating embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embed: empty embedding response")
	}
	return resp.Data[0].Embedding, nil
}

func (e *OpenAIEngine) IsRunning(ctx context.Context) bool {
	_, err := e.client.ListModels(ctx)
	return err == nil
}

func (e *OpenAIEngine) ListModels(ctx context.Context) ([]string, error) {
	list, err := e.client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing models: %w", err)
	}
	names := make([]string, len(list.Models))
	for i, m := range list.Models {
		names[i] = m.ID
	}
	return names, nil
}

func (e *OpenAIEngine) HasModel(ctx context.Context, name string) bool {
	models, err := e.ListModels(ctx)
	if err != nil {
		return false
	}
	for _, m := range models {
		if m == name {
			return true
		}
	}
	return false
}

func (e *OpenAIEngine) PullModel(_ context.Context, name string, _ func(PullProgress)) error {
	return fmt.Errorf("pull %s: model pulls are not supported by OpenAI-compatible backends", name)
}

// schemaInstruction renders a Schema as a system prompt for servers that
// only support json_object response mode.
func schemaInstruction(s *Schema) string {
	var sb strings.Builder
	sb.WriteString("Respond with ONLY a single valid JSON object. Keys:")
	for k, p := range s.Properties {
		fmt.Fprintf(&sb, " %q (%s", k, p.Type)
		if p.Description != "" {
			fmt.Fprintf(&sb, ": %s", p.Description)
		}
		sb.WriteString(")")
	}
	if len(s.Required) > 0 {
		fmt.Fprintf(&sb, ". Required: %s.", strings.Join(s.Required, ", "))
	}
	return sb.String()
}

// dataURL wraps bare base64 image data in a data URL, sniffing the format
// from the base64 prefix. Exotic formats are normalized to PNG upstream.
func dataURL(b64 string) string {
	mime := "image/png"
	switch {
	case strings.HasPrefix(b64, "/9j/"):
		mime = "image/jpeg"
	case strings.HasPrefix(b64, "iVBOR"):
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + b64
}
