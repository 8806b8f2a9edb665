package extract

import (
	"fmt"
	"os"
	"strings"
)

// extractText reads a plain text file as-is.
func extractText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading text file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
