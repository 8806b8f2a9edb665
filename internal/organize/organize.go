// Package organize places files into a topic-based directory layout
// under a destination root, resolving name collisions and preserving
// the original file metadata on copy.
package organize

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Placement records where a source file ended up.
type Placement struct {
	SourcePath string
	NewPath    string
	Topic      string
}

// Organizer copies files into per-topic directories under a destination
// root. It is not safe for concurrent use.
type Organizer struct {
	destRoot string
	dryRun   bool

	// taken tracks paths claimed during this run so collisions are
	// resolved even before the files exist on disk.
	taken map[string]bool
}

// New returns an Organizer rooted at destRoot. When dryRun is set,
// Place computes target paths without creating directories or copying.
func New(destRoot string, dryRun bool) *Organizer {
	return &Organizer{
		destRoot: destRoot,
		dryRun:   dryRun,
		taken:    make(map[string]bool),
	}
}

// Place copies src into a directory named after topic, renaming the
// file after description. Unusable topics fall back to "unsorted".
func (o *Organizer) Place(src, topic, description string) (Placement, error) {
	dirName := Sanitize(topic)
	if dirName == "" {
		dirName = "unsorted"
	}

	base := Sanitize(description)
	if base == "" {
		base = Sanitize(strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)))
	}
	if base == "" {
		base = "file"
	}
	ext := strings.ToLower(filepath.Ext(src))

	dir := filepath.Join(o.destRoot, dirName)
	target := o.uniquePath(dir, base, ext)

	if !o.dryRun {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Placement{}, fmt.Errorf("creating topic directory: %w", err)
		}
		if err := CopyFile(src, target); err != nil {
			return Placement{}, fmt.Errorf("placing %s: %w", src, err)
		}
	}
	o.taken[target] = true

	return Placement{SourcePath: src, NewPath: target, Topic: dirName}, nil
}

// uniquePath appends _1, _2, ... to base until the path is free both
// on disk and among paths claimed this run.
func (o *Organizer) uniquePath(dir, base, ext string) string {
	candidate := filepath.Join(dir, base+ext)
	for i := 1; o.exists(candidate); i++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s_%d%s", base, i, ext))
	}
	return candidate
}

func (o *Organizer) exists(path string) bool {
	if o.taken[path] {
		return true
	}
	_, err := os.Stat(path)
	return err == nil
}
