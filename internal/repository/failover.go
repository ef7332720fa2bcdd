package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"carrental/internal/domain"

	"github.com/rs/zerolog"
)

const defaultRecoveryInterval = time.Minute

// FailoverSnapshotRepository writes to primary and switches to fallback when
// primary errors. The primary is retried once recoveryInterval has passed.
type FailoverSnapshotRepository struct {
	primary          domain.SnapshotRepository
	fallback         domain.SnapshotRepository
	logger           *zerolog.Logger
	recoveryInterval time.Duration
	now              func() time.Time

	mu        sync.Mutex
	down      bool
	lastCheck time.Time
}

func NewFailoverSnapshotRepository(primary, fallback domain.SnapshotRepository, logger *zerolog.Logger) *FailoverSnapshotRepository {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &FailoverSnapshotRepository{
		primary:          primary,
		fallback:         fallback,
		logger:           logger,
		recoveryInterval: defaultRecoveryInterval,
		now:              time.Now,
	}
}

func (r *FailoverSnapshotRepository) IsDown() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.down
}

// usePrimary reports whether the next call should go to primary.
func (r *FailoverSnapshotRepository) usePrimary() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.down || r.now().Sub(r.lastCheck) > r.recoveryInterval
}

func (r *FailoverSnapshotRepository) markDown(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.down {
		r.logger.Error().Err(err).Msg("Primary snapshot repository failed, falling back")
	}
	r.down = true
	r.lastCheck = r.now()
}

func (r *FailoverSnapshotRepository) markUp() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.down {
		r.logger.Info().Msg("Primary snapshot repository recovered")
	}
	r.down = false
}

// Load returns the primary error when primary fails and fallback holds nothing.
// An empty result there would later be saved over the real primary snapshot.
func (r *FailoverSnapshotRepository) Load(ctx context.Context) ([]byte, error) {
	var primaryErr error
	if r.usePrimary() {
		data, err := r.primary.Load(ctx)
		if err == nil {
			r.markUp()
			return data, nil
		}
		r.markDown(err)
		primaryErr = err
	}

	data, err := r.fallback.Load(ctx)
	if err != nil {
		return nil, err
	}
	if data == nil && primaryErr != nil {
		return nil, fmt.Errorf("primary unavailable and fallback empty: %w", primaryErr)
	}
	if data == nil && r.IsDown() {
		return nil, fmt.Errorf("primary down and fallback empty")
	}
	return data, nil
}

// Save also mirrors successful primary writes into fallback so a later
// failover starts from the latest state.
func (r *FailoverSnapshotRepository) Save(ctx context.Context, data []byte) error {
	if r.usePrimary() {
		err := r.primary.Save(ctx, data)
		if err == nil {
			r.markUp()
			if ferr := r.fallback.Save(ctx, data); ferr != nil {
				r.logger.Warn().Err(ferr).Msg("mirror snapshot to fallback")
			}
			return nil
		}
		r.markDown(err)
	}
	return r.fallback.Save(ctx, data)
}
