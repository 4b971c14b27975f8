package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/BinaryAlley/Lyrida-sub002/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunBackup_CreatesAndPrunes(t *testing.T) {
	dir := t.TempDir()
	backups := filepath.Join(dir, "backups")
	cfg := &config.Config{
		Storage: config.StorageConfig{Type: "sqlite", DSN: filepath.Join(dir, "lyrida.db")},
		Auth: config.AuthConfig{
			JWTSecret:           "test-secret-key-min-32-chars-long-1234567890",
			AccessTokenDuration: time.Minute,
		},
		Backup: config.BackupConfig{Path: backups, RetentionDays: 7},
	}
	c, err := NewContainer(cfg, prometheus.NewRegistry())
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, os.MkdirAll(backups, 0o755))
	stale := filepath.Join(backups, "lyrida.db.backup-20000101-000000.db")
	require.NoError(t, os.WriteFile(stale, nil, 0o600))
	old := time.Now().AddDate(0, 0, -30)
	require.NoError(t, os.Chtimes(stale, old, old))

	c.runBackup(context.Background(), time.Now())

	entries, err := os.ReadDir(backups)
	require.NoError(t, err)
	require.Len(t, entries, 1, "the stale backup is pruned, a fresh one is written")
	assert.True(t, strings.HasPrefix(entries[0].Name(), "lyrida.db.backup-"))
	assert.NotEqual(t, filepath.Base(stale), entries[0].Name())
}
