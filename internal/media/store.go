package media

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// FileRecord is one indexed media file. The index holds file bookkeeping
// only, never message content.
type FileRecord struct {
	Name     string
	Kind     string
	MimeType string
	Size     int64
}

// Store indexes stored media files in SQLite and sweeps aged ones off disk.
type Store struct {
	db       *sql.DB
	mediaDir string
	logger   *slog.Logger
}

func NewStore(dbPath, mediaDir string, logger *slog.Logger) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	// Single connection for SQLite.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &Store{db: db, mediaDir: mediaDir, logger: logger}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	return store, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS media_files (
		name        TEXT PRIMARY KEY,
		kind        TEXT NOT NULL,
		mime_type   TEXT,
		size        INTEGER DEFAULT 0,
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_media_created ON media_files(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record indexes a newly stored media file.
func (s *Store) Record(ctx context.Context, rec FileRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO media_files (name, kind, mime_type, size) VALUES (?, ?, ?, ?)`,
		rec.Name, rec.Kind, rec.MimeType, rec.Size,
	)
	if err != nil {
		return fmt.Errorf("record media file: %w", err)
	}
	return nil
}

// Count returns the number of indexed files.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM media_files`).Scan(&n)
	return n, err
}

// Sweep deletes indexed files older than the retention window, removing
// both the on-disk file and the index row. Returns how many were removed.
func (s *Store) Sweep(ctx context.Context, retention time.Duration) (int, error) {
	cutoff := time.Now().Add(-retention).UTC()

	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM media_files WHERE created_at < ?`, cutoff.Format("2006-01-02 15:04:05"))
	if err != nil {
		return 0, fmt.Errorf("query aged media: %w", err)
	}
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return 0, err
		}
		names = append(names, name)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	removed := 0
	for _, name := range names {
		path := filepath.Join(s.mediaDir, name)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("cannot remove aged media file", "path", path, "err", err)
			continue
		}
		if _, err := s.db.ExecContext(ctx, `DELETE FROM media_files WHERE name = ?`, name); err != nil {
			s.logger.Warn("cannot delete media index row", "name", name, "err", err)
			continue
		}
		removed++
	}

	if removed > 0 {
		s.logger.Info("media sweep complete", "removed", removed)
	}
	return removed, nil
}

// RunSweeper runs Sweep on a fixed interval until the context is done.
func (s *Store) RunSweeper(ctx context.Context, interval, retention time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx, retention); err != nil {
				s.logger.Error("media sweep failed", "err", err)
			}
		}
	}
}

func (s *Store) Close() error {
	return s.db.Close()
}
