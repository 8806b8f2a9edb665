package retrieval

import (
	"context"
)

// Retriever combines embedding and vector search to find files in the
// catalog by meaning rather than by name.
type Retriever struct {
	embedder *Embedder
	store    *FileStore
}

// NewRetriever creates a Retriever backed by the given Embedder and FileStore.
func NewRetriever(embedder *Embedder, store *FileStore) *Retriever {
	return &Retriever{embedder: embedder, store: store}
}

// Retrieve embeds the query and returns the top-K most similar files.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) ([]ScoredFile, error) {
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	return r.store.Search(vec, topK)
}
