// Package describe turns file content into one-sentence natural-language
// descriptions and topic labels using chat models.
package describe

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/shelfctl/shelf/internal/engine"
	"github.com/shelfctl/shelf/internal/splitter"
)

// TopicFallback is used when the model yields no usable topic.
const TopicFallback = "unsorted"

// Chatter is the chat-completion surface of an inference engine.
type Chatter interface {
	Chat(ctx context.Context, model string, messages []engine.Message, jsonSchema *engine.Schema) (string, error)
}

// Describer generates descriptions and topics for files.
type Describer struct {
	chatter     Chatter
	visionModel string
	textModel   string
	chunkSize   int
	maxDepth    int
	logger      *slog.Logger
}

// New creates a Describer. chunkSize is the summarization word budget
// (default 2048 if <= 0); maxDepth bounds summarization recursion
// (default 5 if <= 0).
func New(chatter Chatter, visionModel, textModel string, chunkSize, maxDepth int) *Describer {
	if chunkSize <= 0 {
		chunkSize = 2048
	}
	if maxDepth <= 0 {
		maxDepth = 5
	}
	return &Describer{
		chatter:     chatter,
		visionModel: visionModel,
		textModel:   textModel,
		chunkSize:   chunkSize,
		maxDepth:    maxDepth,
		logger:      slog.Default(),
	}
}

// DescribeImage produces a one-sentence description of the image at path
// using the vision model.
func (d *Describer) DescribeImage(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading image: %w", err)
	}

	messages := []engine.Message{{
		Role:    "user",
		Content: imagePrompt,
		Images:  []string{base64.StdEncoding.EncodeToString(data)},
	}}

	out, err := d.chatter.Chat(ctx, d.visionModel, messages, nil)
	if err != nil {
		return "", fmt.Errorf("describing image: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// DescribeText produces a one-sentence description of arbitrary text by
// recursive summarization: text too long for a single model call is
// summarized chunk by chunk, the partial summaries are joined, and the
// result is summarized again. Recursion depth is bounded; at the cap the
// text is returned as-is.
func (d *Describer) DescribeText(ctx context.Context, text string) (string, error) {
	return d.summarizeRecursively(ctx, text, 0)
}

func (d *Describer) summarizeRecursively(ctx context.Context, text string, depth int) (string, error) {
	if depth > d.maxDepth {
		d.logger.Warn("summarization recursion cap reached, returning text as-is", "depth", depth)
		return text, nil
	}

	chunks := splitter.Split(text, d.chunkSize)
	if len(chunks) == 0 {
		return "", nil
	}
	if len(chunks) == 1 {
		return d.summarize(ctx, chunks[0])
	}

	summaries := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		s, err := d.summarizeRecursively(ctx, chunk, depth+1)
		if err != nil {
			return "", err
		}
		summaries = append(summaries, s)
	}

	combined := strings.Join(summaries, " ")
	if splitter.Fits(combined, d.chunkSize) {
		return d.summarize(ctx, combined)
	}
	return d.summarizeRecursively(ctx, combined, depth+1)
}

func (d *Describer) summarize(ctx context.Context, text string) (string, error) {
	messages := []engine.Message{
		{Role: "system", Content: summaryPromptPrefix},
		{Role: "user", Content: text},
	}
	out, err := d.chatter.Chat(ctx, d.textModel, messages, nil)
	if err != nil {
		return "", fmt.Errorf("summarizing text: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// topicResult is the structured output shape for topic extraction.
type topicResult struct {
	Topic string `json:"topic"`
}

func topicSchema() *engine.Schema {
	return &engine.Schema{
		Type: "object",
		Properties: map[string]engine.SchemaProperty{
			"topic": {Type: "string", Description: "Main topic as a single word or short phrase"},
		},
		Required: []string{"topic"},
	}
}

// ExtractTopic derives a short topic label from a description via a
// structured-JSON chat call. A response that cannot be parsed is used
// verbatim; an empty result falls back to TopicFallback.
func (d *Describer) ExtractTopic(ctx context.Context, description string) (string, error) {
	messages := []engine.Message{
		{Role: "system", Content: topicPrompt},
		{Role: "user", Content: description},
	}

	raw, err := d.chatter.Chat(ctx, d.textModel, messages, topicSchema())
	if err != nil {
		return "", fmt.Errorf("extracting topic: %w", err)
	}

	var result topicResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		d.logger.Warn("topic response is not valid JSON, using raw text", "response", raw)
		result.Topic = raw
	}

	topic := strings.TrimSpace(result.Topic)
	if topic == "" {
		return TopicFallback, nil
	}
	return topic, nil
}
