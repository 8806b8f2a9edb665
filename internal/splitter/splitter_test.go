package splitter

import (
	"fmt"
	"strings"
	"testing"
)

func TestSplit_Empty(t *testing.T) {
	if got := Split("", 10); got != nil {
		t.Errorf("Split(empty) = %v, want nil", got)
	}
	if got := Split("   \n\t ", 10); got != nil {
		t.Errorf("Split(whitespace) = %v, want nil", got)
	}
}

func TestSplit_SingleChunk(t *testing.T) {
	got := Split("one two three", 10)
	if len(got) != 1 {
		t.Fatalf("got %d chunks, want 1", len(got))
	}
	if got[0] != "one two three" {
		t.Errorf("chunk = %q", got[0])
	}
}

func TestSplit_Boundaries(t *testing.T) {
	var words []string
	for i := 0; i < 25; i++ {
		words = append(words, fmt.Sprintf("w%d", i))
	}
	text := strings.Join(words, " ")

	chunks := Split(text, 10)
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	if WordCount(chunks[0]) != 10 || WordCount(chunks[1]) != 10 || WordCount(chunks[2]) != 5 {
		t.Errorf("chunk word counts = %d/%d/%d, want 10/10/5",
			WordCount(chunks[0]), WordCount(chunks[1]), WordCount(chunks[2]))
	}

	// No words lost or duplicated.
	rejoined := strings.Join(chunks, " ")
	if rejoined != text {
		t.Error("rejoined chunks differ from input")
	}
}

func TestSplit_NormalizesWhitespace(t *testing.T) {
	chunks := Split("a  b\n\nc\td", 2)
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if chunks[0] != "a b" || chunks[1] != "c d" {
		t.Errorf("chunks = %v", chunks)
	}
}

func TestFits(t *testing.T) {
	if !Fits("a b c", 3) {
		t.Error("Fits(3 words, 3) = false, want true")
	}
	if Fits("a b c d", 3) {
		t.Error("Fits(4 words, 3) = true, want false")
	}
}
