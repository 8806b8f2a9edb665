package describe

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shelfctl/shelf/internal/engine"
)

// fakeChatter scripts chat responses and records calls.
type fakeChatter struct {
	respond func(model string, messages []engine.Message, schema *engine.Schema) (string, error)
	calls   int
}

func (f *fakeChatter) Chat(_ context.Context, model string, messages []engine.Message, schema *engine.Schema) (string, error) {
	f.calls++
	return f.respond(model, messages, schema)
}

func TestDescribeImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatal(err)
	}
	f.Close()

	var gotModel string
	var gotImages int
	chatter := &fakeChatter{respond: func(model string, messages []engine.Message, _ *engine.Schema) (string, error) {
		gotModel = model
		gotImages = len(messages[0].Images)
		return "  a white square on a dark background \n", nil
	}}

	d := New(chatter, "llava", "gemma2:2b", 0, 0)
	desc, err := d.DescribeImage(context.Background(), path)
	if err != nil {
		t.Fatalf("DescribeImage: %v", err)
	}
	if desc != "a white square on a dark background" {
		t.Errorf("description = %q", desc)
	}
	if gotModel != "llava" {
		t.Errorf("model = %q, want llava", gotModel)
	}
	if gotImages != 1 {
		t.Errorf("images attached = %d, want 1", gotImages)
	}
}

func TestDescribeText_ShortSingleCall(t *testing.T) {
	chatter := &fakeChatter{respond: func(_ string, _ []engine.Message, _ *engine.Schema) (string, error) {
		return "a short summary", nil
	}}

	d := New(chatter, "llava", "gemma2:2b", 100, 5)
	got, err := d.DescribeText(context.Background(), "just a few words here")
	if err != nil {
		t.Fatalf("DescribeText: %v", err)
	}
	if got != "a short summary" {
		t.Errorf("summary = %q", got)
	}
	if chatter.calls != 1 {
		t.Errorf("calls = %d, want 1", chatter.calls)
	}
}

func TestDescribeText_RecursesOverChunks(t *testing.T) {
	chatter := &fakeChatter{respond: func(_ string, _ []engine.Message, _ *engine.Schema) (string, error) {
		return "sum", nil
	}}

	// 25 words with a 10-word budget: 3 chunk summaries + 1 final pass.
	words := make([]string, 25)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}

	d := New(chatter, "llava", "gemma2:2b", 10, 5)
	got, err := d.DescribeText(context.Background(), strings.Join(words, " "))
	if err != nil {
		t.Fatalf("DescribeText: %v", err)
	}
	if got != "sum" {
		t.Errorf("summary = %q", got)
	}
	if chatter.calls != 4 {
		t.Errorf("calls = %d, want 4", chatter.calls)
	}
}

func TestDescribeText_DepthCap(t *testing.T) {
	// Summaries as long as the input force endless recursion; the cap
	// must return the accumulated text instead.
	long := strings.Repeat("word ", 40)
	chatter := &fakeChatter{respond: func(_ string, _ []engine.Message, _ *engine.Schema) (string, error) {
		return long, nil
	}}

	d := New(chatter, "llava", "gemma2:2b", 10, 2)
	got, err := d.DescribeText(context.Background(), long)
	if err != nil {
		t.Fatalf("DescribeText: %v", err)
	}
	if got == "" {
		t.Error("depth cap should return text, not empty")
	}
}

func TestDescribeText_Empty(t *testing.T) {
	chatter := &fakeChatter{respond: func(_ string, _ []engine.Message, _ *engine.Schema) (string, error) {
		t.Fatal("no chat call expected for empty text")
		return "", nil
	}}

	d := New(chatter, "llava", "gemma2:2b", 10, 5)
	got, err := d.DescribeText(context.Background(), "   ")
	if err != nil {
		t.Fatalf("DescribeText: %v", err)
	}
	if got != "" {
		t.Errorf("summary = %q, want empty", got)
	}
}

func TestExtractTopic_Structured(t *testing.T) {
	chatter := &fakeChatter{respond: func(_ string, _ []engine.Message, schema *engine.Schema) (string, error) {
		if schema == nil {
			t.Error("expected a JSON schema for topic extraction")
		}
		return `{"topic": "  Personal Finance "}`, nil
	}}

	d := New(chatter, "llava", "gemma2:2b", 0, 0)
	topic, err := d.ExtractTopic(context.Background(), "a household budget spreadsheet")
	if err != nil {
		t.Fatalf("ExtractTopic: %v", err)
	}
	if topic != "Personal Finance" {
		t.Errorf("topic = %q", topic)
	}
}

func TestExtractTopic_RawFallback(t *testing.T) {
	chatter := &fakeChatter{respond: func(_ string, _ []engine.Message, _ *engine.Schema) (string, error) {
		return "travel", nil
	}}

	d := New(chatter, "llava", "gemma2:2b", 0, 0)
	topic, err := d.ExtractTopic(context.Background(), "photos from a trip")
	if err != nil {
		t.Fatalf("ExtractTopic: %v", err)
	}
	if topic != "travel" {
		t.Errorf("topic = %q, want travel", topic)
	}
}

func TestExtractTopic_EmptyFallsBack(t *testing.T) {
	chatter := &fakeChatter{respond: func(_ string, _ []engine.Message, _ *engine.Schema) (string, error) {
		return `{"topic": ""}`, nil
	}}

	d := New(chatter, "llava", "gemma2:2b", 0, 0)
	topic, err := d.ExtractTopic(context.Background(), "something")
	if err != nil {
		t.Fatalf("ExtractTopic: %v", err)
	}
	if topic != TopicFallback {
		t.Errorf("topic = %q, want %q", topic, TopicFallback)
	}
}
