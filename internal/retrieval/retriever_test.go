package retrieval

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/shelfctl/shelf/internal/engine"
)

// embedEngine is an engine.Engine stub that returns canned vectors.
// The call counter is atomic since EmbedBatch embeds concurrently.
type embedEngine struct {
	vectors map[string][]float32
	err     error
	calls   atomic.Int32
}

func (e *embedEngine) Chat(ctx context.Context, model string, messages []engine.Message, jsonSchema *engine.Schema) (string, error) {
	return "", errors.New("not implemented")
}

func (e *embedEngine) Embed(ctx context.Context, model, text string) ([]float32, error) {
	e.calls.Add(1)
	if e.err != nil {
		return nil, e.err
	}
	if v, ok := e.vectors[text]; ok {
		return v, nil
	}
	return makeTestVector(64, 0.5), nil
}

func (e *embedEngine) IsRunning(ctx context.Context) bool               { return true }
func (e *embedEngine) ListModels(ctx context.Context) ([]string, error) { return nil, nil }
func (e *embedEngine) HasModel(ctx context.Context, name string) bool   { return true }
func (e *embedEngine) PullModel(ctx context.Context, name string, onProgress func(engine.PullProgress)) error {
	return nil
}

func TestRetrieve(t *testing.T) {
	db := openTestDB(t)
	store := NewFileStore(db)

	budgetVec := makeTestVector(64, 0.9)
	photoVec := makeTestVector(64, -0.9)
	insertFile(t, db, "budget", "finance", "annual budget spreadsheet", budgetVec)
	insertFile(t, db, "photo", "photos", "beach vacation photo", photoVec)

	eng := &embedEngine{vectors: map[string][]float32{
		"where is my budget": budgetVec,
	}}
	r := NewRetriever(NewEmbedder(eng, "nomic-embed-text"), store)

	got, err := r.Retrieve(context.Background(), "where is my budget", 1)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d results, want 1", len(got))
	}
	if got[0].ID != "budget" {
		t.Errorf("top result = %q, want %q", got[0].ID, "budget")
	}
}

func TestRetrieve_EmbedError(t *testing.T) {
	db := openTestDB(t)
	store := NewFileStore(db)

	eng := &embedEngine{err: errors.New("backend down")}
	r := NewRetriever(NewEmbedder(eng, "nomic-embed-text"), store)

	if _, err := r.Retrieve(context.Background(), "anything", 3); err == nil {
		t.Fatal("expected error from failing embedder")
	}
}

func TestEmbedBatch(t *testing.T) {
	eng := &embedEngine{}
	e := NewEmbedder(eng, "nomic-embed-text")

	got, err := e.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d vectors, want 3", len(got))
	}
	for i, v := range got {
		if len(v) != 64 {
			t.Errorf("vector %d has dim %d, want 64", i, len(v))
		}
	}
	if n := eng.calls.Load(); n != 3 {
		t.Errorf("engine called %d times, want 3", n)
	}
}

func TestEmbedBatch_Empty(t *testing.T) {
	e := NewEmbedder(&embedEngine{}, "nomic-embed-text")

	got, err := e.EmbedBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for empty input, got %v", got)
	}
}
