// Package pipeline orchestrates an organize run: scan the source tree,
// extract text, derive descriptions, topics, and embeddings, then place
// each file and record it in the catalog.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/shelfctl/shelf/internal/extract"
	"github.com/shelfctl/shelf/internal/organize"
	"github.com/shelfctl/shelf/internal/retrieval"
	"github.com/shelfctl/shelf/internal/splitter"
	"github.com/shelfctl/shelf/internal/storage"
	"golang.org/x/sync/errgroup"
)

// DocumentExtractor pulls plain text out of a file.
type DocumentExtractor interface {
	Extract(ctx context.Context, path string) (extract.Document, error)
}

// FileDescriber produces descriptions and topic labels.
type FileDescriber interface {
	DescribeImage(ctx context.Context, path string) (string, error)
	DescribeText(ctx context.Context, text string) (string, error)
	ExtractTopic(ctx context.Context, description string) (string, error)
}

// TextEmbedder generates embeddings for a batch of texts.
type TextEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Placer copies a file into the destination tree.
type Placer interface {
	Place(src, topic, description string) (organize.Placement, error)
}

// RunStore persists runs and file records.
type RunStore interface {
	SaveRun(r storage.Run) error
	FinishRun(id, status string, scanned, organized int) error
	SaveFile(f storage.FileRecord) error
}

// Options tunes a Pipeline.
type Options struct {
	DestDir      string // excluded from scanning, recorded on the run
	Workers      int    // extraction concurrency, default NumCPU
	FileLimit    int    // max files per run, 0 means no cap
	ChunkSize    int    // word budget passed to the describer, default 6144
	ArtifactsDir string // where JSON artifacts land, empty disables them
}

// Report summarizes a finished run.
type Report struct {
	RunID          string
	FilesScanned   int
	FilesOrganized int
	Placements     []organize.Placement
}

// Pipeline wires extraction, description, embedding, placement, and
// catalog persistence into a single run.
type Pipeline struct {
	extractor DocumentExtractor
	describer FileDescriber
	embedder  TextEmbedder
	placer    Placer
	store     RunStore
	opts      Options
	logger    *slog.Logger
}

// New creates a Pipeline with the given dependencies.
func New(extractor DocumentExtractor, describer FileDescriber, embedder TextEmbedder, placer Placer, store RunStore, opts Options) *Pipeline {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 6144
	}
	return &Pipeline{
		extractor: extractor,
		describer: describer,
		embedder:  embedder,
		placer:    placer,
		store:     store,
		opts:      opts,
		logger:    slog.Default(),
	}
}

type extractResult struct {
	path string
	doc  extract.Document
	err  error
}

// Run organizes the source directory. Per-file failures are logged and
// the file is skipped; the run keeps going.
func (p *Pipeline) Run(ctx context.Context, source string) (Report, error) {
	files, err := ListFiles(source, p.opts.FileLimit, p.opts.DestDir)
	if err != nil {
		return Report{}, err
	}

	runID := uuid.New().String()
	report := Report{RunID: runID, FilesScanned: len(files)}

	if p.store != nil {
		run := storage.Run{
			ID:        runID,
			SourceDir: source,
			DestDir:   p.opts.DestDir,
			StartedAt: time.Now().UTC(),
		}
		if err := p.store.SaveRun(run); err != nil {
			return Report{}, fmt.Errorf("recording run: %w", err)
		}
	}

	// Extraction is the I/O-heavy phase, so it runs concurrently.
	// Description and topic calls stay sequential to keep a single
	// model loaded.
	results := make([]extractResult, len(files))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			doc, err := p.extractor.Extract(gCtx, path)
			results[i] = extractResult{path: path, doc: doc, err: err}
			return nil
		})
	}
	g.Wait()

	var items []describedFile
	for _, res := range results {
		if ctx.Err() != nil {
			break
		}
		item, err := p.describeFile(ctx, res)
		if err != nil {
			p.logger.Warn("skipping file", "path", res.path, "error", err)
			continue
		}
		items = append(items, item)
	}

	// Descriptions go to the embedder as one bounded-concurrency batch.
	// A batch failure downgrades the run to unembedded records; the
	// files still get organized.
	vectors := make([][]float32, len(items))
	if p.embedder != nil && len(items) > 0 {
		descriptions := make([]string, len(items))
		for i, item := range items {
			descriptions[i] = item.description
		}
		if vecs, err := p.embedder.EmbedBatch(ctx, descriptions); err != nil {
			p.logger.Warn("embedding failed", "error", err)
		} else {
			vectors = vecs
		}
	}

	images := make(map[string]ImageEntry)
	var texts []TextEntry

	for i, item := range items {
		if ctx.Err() != nil {
			break
		}
		placement, err := p.placeFile(runID, item, vectors[i])
		if err != nil {
			p.logger.Warn("skipping file", "path", item.res.path, "error", err)
			continue
		}

		if item.res.doc.Format == extract.FormatImage {
			images[item.res.path] = ImageEntry{Description: item.description, Embedding: vectors[i]}
		} else {
			texts = append(texts, TextEntry{
				FilePath:    item.res.path,
				Description: item.description,
				Embeddings:  vectors[i],
			})
		}
		report.Placements = append(report.Placements, placement)
		report.FilesOrganized++
	}

	if p.opts.ArtifactsDir != "" {
		if err := WriteArtifacts(p.opts.ArtifactsDir, images, texts); err != nil {
			p.logger.Warn("writing artifacts failed", "error", err)
		}
	}

	status := "completed"
	if ctx.Err() != nil {
		status = "failed"
	}
	if p.store != nil {
		if err := p.store.FinishRun(runID, status, report.FilesScanned, report.FilesOrganized); err != nil {
			p.logger.Warn("finishing run record failed", "error", err)
		}
	}
	if ctx.Err() != nil {
		return report, ctx.Err()
	}
	return report, nil
}

// describedFile pairs an extracted file with its description and topic.
type describedFile struct {
	res         extractResult
	description string
	topic       string
}

func (p *Pipeline) describeFile(ctx context.Context, res extractResult) (describedFile, error) {
	if res.err != nil {
		return describedFile{}, fmt.Errorf("extracting: %w", res.err)
	}

	var description string
	var err error
	if res.doc.Format == extract.FormatImage {
		description, err = p.describer.DescribeImage(ctx, res.path)
	} else {
		text := res.doc.Text
		if text == "" {
			return describedFile{}, fmt.Errorf("no text extracted")
		}
		// Only the leading chunk feeds the summarizer; enormous files
		// get described by their opening content.
		if chunks := splitter.Split(text, p.opts.ChunkSize); len(chunks) > 0 {
			text = chunks[0]
		}
		description, err = p.describer.DescribeText(ctx, text)
	}
	if err != nil {
		return describedFile{}, fmt.Errorf("describing: %w", err)
	}

	topic, err := p.describer.ExtractTopic(ctx, description)
	if err != nil {
		p.logger.Warn("topic extraction failed", "path", res.path, "error", err)
		topic = ""
	}

	return describedFile{res: res, description: description, topic: topic}, nil
}

func (p *Pipeline) placeFile(runID string, item describedFile, vec []float32) (organize.Placement, error) {
	placement, err := p.placer.Place(item.res.path, item.topic, item.description)
	if err != nil {
		return organize.Placement{}, fmt.Errorf("placing: %w", err)
	}

	if p.store != nil {
		rec := storage.FileRecord{
			ID:          uuid.New().String(),
			RunID:       runID,
			SourcePath:  item.res.path,
			NewPath:     placement.NewPath,
			Format:      string(item.res.doc.Format),
			Topic:       placement.Topic,
			Description: item.description,
			Embedding:   retrieval.EncodeVector(vec),
			CreatedAt:   time.Now().UTC(),
		}
		if err := p.store.SaveFile(rec); err != nil {
			p.logger.Warn("recording file failed", "path", item.res.path, "error", err)
		}
	}

	return placement, nil
}
