package storage

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps a SQLite database with methods for runs and file records.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database in dataDir and runs pending migrations.
// Pass ":memory:" as dataDir for an in-memory database (used by tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "shelf.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	// Set busy timeout so concurrent access waits briefly instead of failing immediately.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying connection for read-only queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// migrate reads embedded SQL migration files and applies any that haven't been run yet.
func (s *Store) migrate() error {
	// Ensure schema_version table exists (bootstrap).
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort by filename to guarantee ascending order.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}

		// Check if already applied.
		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}

		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}

	return nil
}

func parseMigrationVersion(filename string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(filename, "%d_", &version); err != nil {
		return 0, fmt.Errorf("parsing migration version from %q: %w", filename, err)
	}
	return version, nil
}

// AppliedMigrations returns the list of applied migration versions in ascending order.
func (s *Store) AppliedMigrations() ([]int, error) {
	rows, err := s.db.Query("SELECT version FROM schema_version ORDER BY version ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// --- Runs ---

func (s *Store) SaveRun(r Run) error {
	status := r.Status
	if status == "" {
		status = "running"
	}
	_, err := s.db.Exec(`
		INSERT INTO runs (id, source_dir, dest_dir, status, files_scanned, files_organized, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.SourceDir, r.DestDir, status, r.FilesScanned, r.FilesOrganized,
		r.StartedAt.UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) FinishRun(id, status string, scanned, organized int) error {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(`
		UPDATE runs SET status = ?, files_scanned = ?, files_organized = ?, finished_at = ?
		WHERE id = ?`,
		status, scanned, organized, now, id,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) GetRun(id string) (Run, error) {
	var r Run
	var startedAt string
	var finishedAt sql.NullString
	err := s.db.QueryRow(`
		SELECT id, source_dir, dest_dir, status, files_scanned, files_organized, started_at, finished_at
		FROM runs WHERE id = ?`, id,
	).Scan(&r.ID, &r.SourceDir, &r.DestDir, &r.Status, &r.FilesScanned, &r.FilesOrganized, &startedAt, &finishedAt)
	if err == sql.ErrNoRows {
		return Run{}, ErrNotFound
	}
	if err != nil {
		return Run{}, err
	}
	if r.StartedAt, err = time.Parse(time.RFC3339, startedAt); err != nil {
		return Run{}, fmt.Errorf("parsing started_at: %w", err)
	}
	if finishedAt.Valid {
		if r.FinishedAt, err = time.Parse(time.RFC3339, finishedAt.String); err != nil {
			return Run{}, fmt.Errorf("parsing finished_at: %w", err)
		}
	}
	return r, nil
}

func (s *Store) ListRuns(limit int) ([]Run, error) {
	rows, err := s.db.Query(`
		SELECT id, source_dir, dest_dir, status, files_scanned, files_organized, started_at, finished_at
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Run
	for rows.Next() {
		var r Run
		var startedAt string
		var finishedAt sql.NullString
		if err := rows.Scan(&r.ID, &r.SourceDir, &r.DestDir, &r.Status, &r.FilesScanned, &r.FilesOrganized, &startedAt, &finishedAt); err != nil {
			return nil, err
		}
		if r.StartedAt, err = time.Parse(time.RFC3339, startedAt); err != nil {
			return nil, fmt.Errorf("parsing started_at: %w", err)
		}
		if finishedAt.Valid {
			if r.FinishedAt, err = time.Parse(time.RFC3339, finishedAt.String); err != nil {
				return nil, fmt.Errorf("parsing finished_at: %w", err)
			}
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// --- File records ---

func (s *Store) SaveFile(f FileRecord) error {
	createdAt := f.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.db.Exec(`
		INSERT INTO files (id, run_id, source_path, new_path, format, topic, description, embedding, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.RunID, f.SourcePath, f.NewPath, f.Format, f.Topic, f.Description, f.Embedding,
		createdAt.UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) GetFile(id string) (FileRecord, error) {
	var f FileRecord
	var createdAt string
	err := s.db.QueryRow(`
		SELECT id, run_id, source_path, new_path, format, topic, description, embedding, created_at
		FROM files WHERE id = ?`, id,
	).Scan(&f.ID, &f.RunID, &f.SourcePath, &f.NewPath, &f.Format, &f.Topic, &f.Description, &f.Embedding, &createdAt)
	if err == sql.ErrNoRows {
		return FileRecord{}, ErrNotFound
	}
	if err != nil {
		return FileRecord{}, err
	}
	if f.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return FileRecord{}, fmt.Errorf("parsing created_at: %w", err)
	}
	return f, nil
}

// GetFileByPath looks a record up by its organized path, falling back
// to the source path when no organized copy matches.
func (s *Store) GetFileByPath(path string) (FileRecord, error) {
	var f FileRecord
	var createdAt string
	err := s.db.QueryRow(`
		SELECT id, run_id, source_path, new_path, format, topic, description, embedding, created_at
		FROM files WHERE new_path = ? OR source_path = ?
		ORDER BY created_at DESC LIMIT 1`, path, path,
	).Scan(&f.ID, &f.RunID, &f.SourcePath, &f.NewPath, &f.Format, &f.Topic, &f.Description, &f.Embedding, &createdAt)
	if err == sql.ErrNoRows {
		return FileRecord{}, ErrNotFound
	}
	if err != nil {
		return FileRecord{}, err
	}
	if f.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return FileRecord{}, fmt.Errorf("parsing created_at: %w", err)
	}
	return f, nil
}

func (s *Store) ListFilesForRun(runID string) ([]FileRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, run_id, source_path, new_path, format, topic, description, embedding, created_at
		FROM files WHERE run_id = ? ORDER BY created_at ASC`, runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFiles(rows)
}

func (s *Store) CountFiles() (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM files").Scan(&n)
	return n, err
}

func scanFiles(rows *sql.Rows) ([]FileRecord, error) {
	var results []FileRecord
	for rows.Next() {
		var f FileRecord
		var createdAt string
		if err := rows.Scan(&f.ID, &f.RunID, &f.SourcePath, &f.NewPath, &f.Format, &f.Topic, &f.Description, &f.Embedding, &createdAt); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		f.CreatedAt = t
		results = append(results, f)
	}
	return results, rows.Err()
}
