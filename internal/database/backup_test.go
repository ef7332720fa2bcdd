package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"carrental/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupService(t *testing.T) {
	tempDir := t.TempDir()
	storagePath := filepath.Join(tempDir, "backups")
	logger := zerolog.Nop()
	ctx := context.Background()

	db, err := NewDB(filepath.Join(tempDir, "source.db"), &logger)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.SnapshotRepository("dynamicData").Save(ctx, []byte(`{"version":1}`)))

	s := NewBackupService(db, config.BackupConfig{
		Enabled:       true,
		StoragePath:   storagePath,
		RetentionDays: 1,
	}, &logger)
	s.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }

	t.Run("PerformBackup", func(t *testing.T) {
		path, err := s.PerformBackup(ctx)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(storagePath, "backup_20250102_030405.db"), path)

		restored, err := NewDB(path, &logger)
		require.NoError(t, err)
		defer restored.Close()
		data, err := restored.SnapshotRepository("dynamicData").Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, `{"version":1}`, string(data))
	})

	t.Run("CleanupOldBackups", func(t *testing.T) {
		oldFile := filepath.Join(storagePath, "backup_old.db")
		require.NoError(t, os.WriteFile(oldFile, []byte("old"), 0o644))
		oldTime := time.Now().AddDate(0, 0, -30)
		require.NoError(t, os.Chtimes(oldFile, oldTime, oldTime))

		s.now = time.Now
		removed := s.CleanupOldBackups()
		assert.Equal(t, 1, removed)

		files, err := os.ReadDir(storagePath)
		require.NoError(t, err)
		require.Len(t, files, 1)
		assert.Equal(t, "backup_20250102_030405.db", files[0].Name())
	})
}

func TestBackupService_Disabled(t *testing.T) {
	logger := zerolog.Nop()
	s := NewBackupService(setupTestDB(t), config.BackupConfig{Enabled: false}, &logger)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Start(ctx)
	assert.Zero(t, s.CleanupOldBackups())
}
