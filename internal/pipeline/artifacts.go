package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	imagesArtifactName = "images_with_embeddings.json"
	textsArtifactName  = "texts_with_embeddings.json"
)

// ImageEntry is one record in the images artifact, keyed by source path.
type ImageEntry struct {
	Description string    `json:"description"`
	Embedding   []float32 `json:"embedding"`
}

// TextEntry is one record in the texts artifact.
type TextEntry struct {
	FilePath    string    `json:"file_path"`
	Description string    `json:"description"`
	Embeddings  []float32 `json:"embeddings"`
}

// WriteArtifacts dumps the run's descriptions and embeddings as two
// JSON files in dir, one for images keyed by source path and one for
// text documents as an array.
func WriteArtifacts(dir string, images map[string]ImageEntry, texts []TextEntry) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating artifacts directory: %w", err)
	}
	if images == nil {
		images = map[string]ImageEntry{}
	}
	if texts == nil {
		texts = []TextEntry{}
	}
	if err := writeJSON(filepath.Join(dir, imagesArtifactName), images); err != nil {
		return err
	}
	return writeJSON(filepath.Join(dir, textsArtifactName), texts)
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return nil
}
