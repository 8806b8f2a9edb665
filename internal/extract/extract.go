// Package extract pulls plain text out of documents: PDF, Word, Markdown,
// HTML, plain text, and images via Tesseract OCR.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Format identifies a supported document format.
type Format string

const (
	FormatPDF      Format = "pdf"
	FormatDocx     Format = "docx"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatText     Format = "text"
	FormatImage    Format = "image"
)

// ErrUnsupported is returned by Detect for file types the extractor
// does not handle. Callers typically skip such files rather than fail.
var ErrUnsupported = errors.New("unsupported file type")

// Document is the result of text extraction from a single file.
type Document struct {
	Path   string
	Format Format
	Text   string
}

// Extractor dispatches extraction by format.
type Extractor struct {
	maxFileSize int64
	ocrLangs    []string
	logger      *slog.Logger
}

// New creates an Extractor. maxFileSize <= 0 disables the size guard;
// ocrLangs lists Tesseract language codes (defaults to eng when empty).
func New(maxFileSize int64, ocrLangs []string) *Extractor {
	return &Extractor{
		maxFileSize: maxFileSize,
		ocrLangs:    ocrLangs,
		logger:      slog.Default(),
	}
}

// Detect returns the document format based on file extension.
func Detect(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".pdf":
		return FormatPDF, nil
	case ".docx":
		return FormatDocx, nil
	case ".md", ".markdown":
		return FormatMarkdown, nil
	case ".html", ".htm":
		return FormatHTML, nil
	case ".txt", ".text":
		return FormatText, nil
	case ".png", ".jpg", ".jpeg", ".tif", ".tiff", ".bmp", ".webp":
		return FormatImage, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}
}

// Extract parses a document and returns its plain text.
func (e *Extractor) Extract(ctx context.Context, path string) (Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Document{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if e.maxFileSize > 0 && info.Size() > e.maxFileSize {
		return Document{}, fmt.Errorf("file too large: %d bytes (max %d)", info.Size(), e.maxFileSize)
	}

	format, err := Detect(path)
	if err != nil {
		return Document{}, err
	}

	e.logger.Debug("extracting document", "path", path, "format", format)

	var text string
	switch format {
	case FormatPDF:
		text, err = extractPDF(path)
	case FormatDocx:
		text, err = extractDocx(path)
	case FormatMarkdown:
		text, err = extractMarkdown(path)
	case FormatHTML:
		text, err = extractHTML(path)
	case FormatText:
		text, err = extractText(path)
	case FormatImage:
		text, err = e.extractImage(ctx, path)
	default:
		return Document{}, fmt.Errorf("no parser for format: %s", format)
	}

	if err != nil {
		return Document{}, fmt.Errorf("extract %s (%s): %w", path, format, err)
	}

	return Document{
		Path:   path,
		Format: format,
		Text:   text,
	}, nil
}

// SupportedExtensions returns all file extensions the extractor handles.
func SupportedExtensions() []string {
	return []string{
		".pdf", ".docx", ".md", ".markdown", ".html", ".htm", ".txt", ".text",
		".png", ".jpg", ".jpeg", ".tif", ".tiff", ".bmp", ".webp",
	}
}
