package organize

import (
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"
)

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestPlace(t *testing.T) {
	srcDir := t.TempDir()
	destDir := t.TempDir()
	src := writeSource(t, srcDir, "report.pdf", "pdf bytes")

	org := New(destDir, false)
	p, err := org.Place(src, "Financial Reports", "Q3 Budget Summary")
	if err != nil {
		t.Fatal(err)
	}

	want := filepath.Join(destDir, "financial-reports", "q3-budget-summary.pdf")
	if p.NewPath != want {
		t.Errorf("NewPath = %q, want %q", p.NewPath, want)
	}
	if p.Topic != "financial-reports" {
		t.Errorf("Topic = %q, want %q", p.Topic, "financial-reports")
	}

	data, err := os.ReadFile(p.NewPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "pdf bytes" {
		t.Errorf("copied content = %q", data)
	}
}

func TestPlaceCollisions(t *testing.T) {
	srcDir := t.TempDir()
	destDir := t.TempDir()

	org := New(destDir, false)
	var paths []string
	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		src := writeSource(t, srcDir, name, name)
		p, err := org.Place(src, "notes", "daily notes")
		if err != nil {
			t.Fatal(err)
		}
		paths = append(paths, filepath.Base(p.NewPath))
	}

	want := []string{"daily-notes.txt", "daily-notes_1.txt", "daily-notes_2.txt"}
	for i, w := range want {
		if paths[i] != w {
			t.Errorf("placement %d = %q, want %q", i, paths[i], w)
		}
	}
}

func TestPlaceEmptyTopicFallsBack(t *testing.T) {
	srcDir := t.TempDir()
	src := writeSource(t, srcDir, "x.txt", "x")

	org := New(t.TempDir(), false)
	p, err := org.Place(src, "???", "something")
	if err != nil {
		t.Fatal(err)
	}
	if p.Topic != "unsorted" {
		t.Errorf("Topic = %q, want %q", p.Topic, "unsorted")
	}
}

func TestPlaceEmptyDescriptionUsesFilename(t *testing.T) {
	srcDir := t.TempDir()
	src := writeSource(t, srcDir, "Vacation Photo.JPG", "img")

	org := New(t.TempDir(), false)
	p, err := org.Place(src, "photos", "")
	if err != nil {
		t.Fatal(err)
	}
	if got := filepath.Base(p.NewPath); got != "vacation-photo.jpg" {
		t.Errorf("NewPath base = %q, want %q", got, "vacation-photo.jpg")
	}
}

func TestPlaceDryRun(t *testing.T) {
	srcDir := t.TempDir()
	destDir := t.TempDir()
	src := writeSource(t, srcDir, "doc.txt", "text")

	org := New(destDir, true)
	p, err := org.Place(src, "docs", "a document")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(p.NewPath); !os.IsNotExist(err) {
		t.Errorf("dry run created %s", p.NewPath)
	}

	// Repeated placements still get distinct paths.
	p2, err := org.Place(src, "docs", "a document")
	if err != nil {
		t.Fatal(err)
	}
	if p2.NewPath == p.NewPath {
		t.Errorf("dry-run collision not resolved: %q", p2.NewPath)
	}
}

func TestPlaceDryRunSeesExistingFiles(t *testing.T) {
	srcDir := t.TempDir()
	destDir := t.TempDir()
	src := writeSource(t, srcDir, "report.txt", "text")

	// A file already sitting in the destination must claim its name in
	// dry-run mode too, so the plan matches what a real run would do.
	existing := filepath.Join(destDir, "notes")
	if err := os.MkdirAll(existing, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(existing, "report.txt"), []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	org := New(destDir, true)
	p, err := org.Place(src, "notes", "report")
	if err != nil {
		t.Fatal(err)
	}
	if got := filepath.Base(p.NewPath); got != "report_1.txt" {
		t.Errorf("NewPath base = %q, want %q", got, "report_1.txt")
	}
}

func TestCopyFilePreservesMetadata(t *testing.T) {
	srcDir := t.TempDir()
	src := writeSource(t, srcDir, "orig.txt", "contents")
	modTime := time.Date(2023, 6, 15, 12, 0, 0, 0, time.UTC)
	if err := os.Chtimes(src, modTime, modTime); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(src, 0o600); err != nil {
		t.Fatal(err)
	}

	dst := filepath.Join(t.TempDir(), "copy.txt")
	if err := CopyFile(src, dst); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(dst)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}
	if !info.ModTime().Equal(modTime) {
		t.Errorf("mod time = %v, want %v", info.ModTime(), modTime)
	}
}

func TestCopyFileModeSurvivesUmask(t *testing.T) {
	old := syscall.Umask(0o022)
	defer syscall.Umask(old)

	srcDir := t.TempDir()
	src := writeSource(t, srcDir, "open.txt", "contents")
	if err := os.Chmod(src, 0o666); err != nil {
		t.Fatal(err)
	}

	dst := filepath.Join(t.TempDir(), "copy.txt")
	if err := CopyFile(src, dst); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(dst)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o666 {
		t.Errorf("mode = %v, want 0666", info.Mode().Perm())
	}
}

func TestCopyFileRefusesExisting(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "a.txt", "a")
	dst := writeSource(t, dir, "b.txt", "b")

	if err := CopyFile(src, dst); err == nil {
		t.Fatal("expected error copying onto an existing file")
	}
}
