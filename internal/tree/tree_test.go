package tree

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRender(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "notes", "daily.txt"))
	touch(t, filepath.Join(root, "notes", "weekly.txt"))
	touch(t, filepath.Join(root, "readme.md"))

	got, err := Render(root)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	want := root + "\n" +
		"├── notes\n" +
		"│   ├── daily.txt\n" +
		"│   └── weekly.txt\n" +
		"└── readme.md\n" +
		"\n1 directory, 3 files\n"
	if got != want {
		t.Errorf("Render output:\n%s\nwant:\n%s", got, want)
	}
}

func TestRender_SkipsHidden(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "visible.txt"))
	touch(t, filepath.Join(root, ".hidden"))
	touch(t, filepath.Join(root, ".git", "config"))

	got, err := Render(root)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(got, "hidden") || strings.Contains(got, ".git") {
		t.Errorf("hidden entries leaked into output:\n%s", got)
	}
	if !strings.Contains(got, "visible.txt") {
		t.Errorf("visible.txt missing from output:\n%s", got)
	}
}

func TestRender_Empty(t *testing.T) {
	root := t.TempDir()

	got, err := Render(root)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(got, "0 directories, 0 files") {
		t.Errorf("unexpected summary:\n%s", got)
	}
}

func TestRender_NotADirectory(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "f.txt")
	touch(t, file)

	if _, err := Render(file); err == nil {
		t.Fatal("expected error for non-directory")
	}
}
