package repository

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Load(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *mockRepo) Save(ctx context.Context, data []byte) error {
	return m.Called(ctx, data).Error(0)
}

func TestFailoverSnapshotRepository(t *testing.T) {
	primary := new(mockRepo)
	fallback := NewMemorySnapshotRepository()
	logger := zerolog.New(io.Discard)
	repo := NewFailoverSnapshotRepository(primary, fallback, &logger)

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }
	ctx := context.Background()

	t.Run("PrimarySuccessMirrorsFallback", func(t *testing.T) {
		primary.On("Save", ctx, []byte("v1")).Return(nil).Once()

		require.NoError(t, repo.Save(ctx, []byte("v1")))
		assert.False(t, repo.IsDown())

		data, _ := fallback.Load(ctx)
		assert.Equal(t, "v1", string(data))
		primary.AssertExpectations(t)
	})

	t.Run("PrimaryFailureFallsBack", func(t *testing.T) {
		primary.On("Save", ctx, []byte("v2")).Return(errors.New("connection refused")).Once()

		require.NoError(t, repo.Save(ctx, []byte("v2")))
		assert.True(t, repo.IsDown())

		// While down, primary is not consulted
		data, err := repo.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "v2", string(data))
		primary.AssertExpectations(t)
	})

	t.Run("RecoveryAfterInterval", func(t *testing.T) {
		now = now.Add(2 * time.Minute)
		primary.On("Load", ctx).Return([]byte("v2"), nil).Once()

		data, err := repo.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "v2", string(data))
		assert.False(t, repo.IsDown())
		primary.AssertExpectations(t)
	})
}

func TestFailoverSnapshotRepository_LoadWhilePrimaryDownWithEmptyFallback(t *testing.T) {
	primary := new(mockRepo)
	fallback := NewMemorySnapshotRepository()
	logger := zerolog.New(io.Discard)
	repo := NewFailoverSnapshotRepository(primary, fallback, &logger)

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }
	ctx := context.Background()

	primary.On("Load", ctx).Return(nil, errors.New("connection refused")).Once()
	data, err := repo.Load(ctx)
	require.Error(t, err)
	assert.Nil(t, data)
	assert.True(t, repo.IsDown())

	// Inside the recovery window primary is skipped, fallback is still empty
	_, err = repo.Load(ctx)
	require.Error(t, err)

	now = now.Add(2 * time.Minute)
	persisted := []byte(`{"version":1,"accounts":[{"id":"0","name":"ann"}]}`)
	primary.On("Load", ctx).Return(persisted, nil).Once()

	data, err = repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, persisted, data)
	assert.False(t, repo.IsDown())
	primary.AssertExpectations(t)
}
