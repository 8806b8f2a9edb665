// Package splitter provides word-budget text chunking for fitting document
// text into model context windows.
package splitter

import "strings"

// Split breaks text into chunks of at most chunkSize whitespace-delimited
// words, preserving word boundaries. Returns nil for empty input and a
// single chunk when the text fits the budget.
func Split(text string, chunkSize int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = 1
	}

	chunks := make([]string, 0, (len(words)+chunkSize-1)/chunkSize)
	for start := 0; start < len(words); start += chunkSize {
		end := start + chunkSize
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}
	return chunks
}

// WordCount returns the number of whitespace-delimited words in text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// Fits reports whether text fits within a single chunk of chunkSize words.
func Fits(text string, chunkSize int) bool {
	return WordCount(text) <= chunkSize
}
