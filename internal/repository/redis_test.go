package repository

import (
	"context"
	"testing"

	"carrental/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisSnapshotRepository(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client := NewRedisClient(config.RedisConfig{Address: s.Addr()})
	defer Close(client)

	repo := NewRedisSnapshotRepository(client, "carrental:", "dynamicData")
	ctx := context.Background()

	require.NoError(t, Ping(ctx, client))
	assert.Equal(t, "carrental:dynamicData", repo.Key())

	t.Run("GetNonExistent", func(t *testing.T) {
		data, err := repo.Load(ctx)
		require.NoError(t, err)
		assert.Nil(t, data)
	})

	t.Run("SaveAndLoad", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, []byte(`{"version":1}`)))

		data, err := repo.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, `{"version":1}`, string(data))

		raw, err := s.Get("carrental:dynamicData")
		require.NoError(t, err)
		assert.Equal(t, `{"version":1}`, raw)
		assert.Zero(t, s.TTL("carrental:dynamicData"))
	})

	t.Run("ServerDown", func(t *testing.T) {
		s.Close()
		_, err := repo.Load(ctx)
		assert.Error(t, err)
		assert.Error(t, repo.Save(ctx, []byte(`{}`)))
	})

	t.Run("NilClient", func(t *testing.T) {
		nilRepo := NewRedisSnapshotRepository(nil, "", "k")
		_, err := nilRepo.Load(ctx)
		assert.Error(t, err)
		assert.Error(t, nilRepo.Save(ctx, nil))
	})
}
