package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/shelfctl/shelf/internal/extract"
)

// ListFiles walks root and returns up to limit supported files, in
// walk order. Hidden files and directories are skipped, as are any
// directories listed in skipDirs (the destination tree, typically).
func ListFiles(root string, limit int, skipDirs ...string) ([]string, error) {
	skip := make(map[string]bool, len(skipDirs))
	for _, d := range skipDirs {
		if d == "" {
			continue
		}
		if abs, err := filepath.Abs(d); err == nil {
			skip[abs] = true
		}
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != root && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			if abs, aerr := filepath.Abs(path); aerr == nil && skip[abs] {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") {
			return nil
		}
		if _, ferr := extract.Detect(path); ferr != nil {
			return nil
		}
		files = append(files, path)
		if limit > 0 && len(files) >= limit {
			return errStopWalk
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStopWalk) {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}
	return files, nil
}

var errStopWalk = errors.New("stop walk")
