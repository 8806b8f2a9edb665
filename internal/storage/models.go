package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Run records one invocation of the organizer over a source directory.
type Run struct {
	ID             string
	SourceDir      string
	DestDir        string
	Status         string // "running", "completed", "failed"
	FilesScanned   int
	FilesOrganized int
	StartedAt      time.Time
	FinishedAt     time.Time // zero while the run is in progress
}

// FileRecord describes a single organized file: where it came from,
// where it went, and the description and embedding derived for it.
type FileRecord struct {
	ID          string
	RunID       string
	SourcePath  string
	NewPath     string
	Format      string
	Topic       string
	Description string
	Embedding   []byte // little-endian float32 vector
	CreatedAt   time.Time
}
