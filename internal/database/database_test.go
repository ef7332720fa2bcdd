package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	logger := zerolog.Nop()
	db, err := NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNewDB_DirectoryCreation(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "carrental.db")
	logger := zerolog.Nop()

	db, err := NewDB(dbPath, &logger)
	require.NoError(t, err)
	defer db.Close()

	assert.FileExists(t, dbPath)
	assert.Equal(t, dbPath, db.Path())
}

func TestDB_Ping(t *testing.T) {
	db := setupTestDB(t)
	assert.NoError(t, db.PingContext(context.Background()))
}

func TestSnapshotRepository(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := db.SnapshotRepository("dynamicData")

	data, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, data)

	ts, err := repo.UpdatedAt(ctx)
	require.NoError(t, err)
	assert.True(t, ts.IsZero())

	require.NoError(t, repo.Save(ctx, []byte(`{"version":1}`)))
	require.NoError(t, repo.Save(ctx, []byte(`{"version":1,"bookings":[]}`)))

	data, err = repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"version":1,"bookings":[]}`, string(data))

	ts, err = repo.UpdatedAt(ctx)
	require.NoError(t, err)
	assert.False(t, ts.IsZero())

	other, err := db.SnapshotRepository("other").Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestSnapshotRepository_PersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "carrental.db")
	logger := zerolog.Nop()
	ctx := context.Background()

	db, err := NewDB(dbPath, &logger)
	require.NoError(t, err)
	require.NoError(t, db.SnapshotRepository("dynamicData").Save(ctx, []byte("payload")))
	require.NoError(t, db.Close())

	db, err = NewDB(dbPath, &logger)
	require.NoError(t, err)
	defer db.Close()

	data, err := db.SnapshotRepository("dynamicData").Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}

func TestSnapshotRepository_Closed(t *testing.T) {
	logger := zerolog.Nop()
	db, err := NewDB(":memory:", &logger)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = db.SnapshotRepository("k").Load(context.Background())
	assert.Error(t, err)
	assert.Error(t, db.SnapshotRepository("k").Save(context.Background(), []byte("x")))
}
