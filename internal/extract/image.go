package extract

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

// extractImage runs Tesseract OCR over an image file. Formats Tesseract
// does not accept natively (tiff is fine, bmp/webp are not universally)
// are decoded and re-encoded to PNG first.
func (e *Extractor) extractImage(ctx context.Context, path string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading image: %w", err)
	}

	data, err = normalizeImage(path, data)
	if err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetImageFromBytes(data); err != nil {
		return "", fmt.Errorf("setting OCR image: %w", err)
	}
	if len(e.ocrLangs) > 0 {
		if err := client.SetLanguage(e.ocrLangs...); err != nil {
			return "", fmt.Errorf("setting OCR languages: %w", err)
		}
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("recognizing text: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// normalizeImage converts bmp/webp input to PNG bytes; other formats pass
// through untouched.
func normalizeImage(path string, data []byte) ([]byte, error) {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".bmp":
		img, err := bmp.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding bmp: %w", err)
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("re-encoding bmp as png: %w", err)
		}
		return buf.Bytes(), nil
	case ".webp":
		img, err := webp.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding webp: %w", err)
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("re-encoding webp as png: %w", err)
		}
		return buf.Bytes(), nil
	case ".tif", ".tiff":
		// Tesseract reads tiff natively; decode only to validate.
		if _, err := tiff.Decode(bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("decoding tiff: %w", err)
		}
		return data, nil
	default:
		return data, nil
	}
}
