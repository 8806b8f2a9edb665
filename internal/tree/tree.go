// Package tree renders tree(1)-style directory listings for showing a
// directory before and after organization.
package tree

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Render returns a tree-style listing of root. Hidden entries are
// omitted. The listing ends with a directory and file count summary.
func Render(root string) (string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", root, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", root)
	}

	var b strings.Builder
	b.WriteString(root)
	b.WriteString("\n")

	dirs, files, err := renderDir(&b, root, "")
	if err != nil {
		return "", err
	}

	b.WriteString(fmt.Sprintf("\n%s, %s\n", plural(dirs, "directory", "directories"), plural(files, "file", "files")))
	return b.String(), nil
}

func renderDir(b *strings.Builder, dir, prefix string) (dirs, files int, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, 0, fmt.Errorf("reading %s: %w", dir, err)
	}

	visible := entries[:0]
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), ".") {
			visible = append(visible, e)
		}
	}
	sort.Slice(visible, func(i, j int) bool { return visible[i].Name() < visible[j].Name() })

	for i, e := range visible {
		connector, childPrefix := "├── ", prefix+"│   "
		if i == len(visible)-1 {
			connector, childPrefix = "└── ", prefix+"    "
		}
		b.WriteString(prefix + connector + e.Name() + "\n")

		if e.IsDir() {
			dirs++
			d, f, err := renderDir(b, filepath.Join(dir, e.Name()), childPrefix)
			if err != nil {
				return dirs, files, err
			}
			dirs += d
			files += f
		} else {
			files++
		}
	}
	return dirs, files, nil
}

func plural(n int, singular, pluralForm string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", singular)
	}
	return fmt.Sprintf("%d %s", n, pluralForm)
}
