package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrBackupUnsupported is returned when the engine or DSN cannot be backed up
// by copying the database file.
var ErrBackupUnsupported = errors.New("backup is only supported for file-based SQLite databases")

// Backup writes a consistent copy of a SQLite database into dir and returns its
// path / Crée un backup de la base SQLite
func (s *Store) Backup(ctx context.Context, dsn, dir string) (string, error) {
	if s.Type() != SQLite {
		return "", ErrBackupUnsupported
	}

	dbName := dsn
	if idx := strings.Index(dbName, "?"); idx > 0 {
		dbName = dbName[:idx]
	}
	dbName = strings.TrimPrefix(dbName, "file:")
	if dbName == "" || dbName == ":memory:" {
		return "", ErrBackupUnsupported
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405")
	path := filepath.Join(dir, fmt.Sprintf("%s.backup-%s.db", filepath.Base(dbName), timestamp))

	// VACUUM INTO needs SQLite 3.27.0+; it does not accept bound parameters.
	query := fmt.Sprintf("VACUUM INTO '%s'", strings.ReplaceAll(path, "'", "''"))
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return "", fmt.Errorf("backup execution failed: %w", err)
	}

	slog.InfoContext(ctx, "database backup created", "path", path)
	return path, nil
}

// PruneBackups removes backups older than retention from dir and returns how
// many were deleted. A non-positive retention keeps everything.
func PruneBackups(dir string, retention time.Duration, now time.Time) (int, error) {
	if retention <= 0 {
		return 0, nil
	}
	cutoff := now.Add(-retention)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read backup directory: %w", err)
	}

	deleted := 0
	for _, entry := range entries {
		if entry.IsDir() || !isBackupFile(entry.Name()) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			slog.Warn("failed to get backup file info", "file", entry.Name(), "error", err)
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}

		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
			slog.Warn("failed to delete old backup", "file", entry.Name(), "error", err)
			continue
		}
		deleted++
	}

	if deleted > 0 {
		slog.Info("old backups cleaned up", "deleted", deleted)
	}
	return deleted, nil
}

func isBackupFile(name string) bool {
	return strings.Contains(name, ".backup-") && strings.HasSuffix(name, ".db")
}
