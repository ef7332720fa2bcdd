// Package store owns the in-memory application snapshot and its persistence.
//
// All mutations go through Update, which works on a private copy and only
// commits it after the encoded snapshot has been saved. A failed mutation or
// save leaves the committed state as it was.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"carrental/internal/domain"
	"carrental/internal/metrics"
	"carrental/internal/models"
	"carrental/internal/snapshot"

	"github.com/rs/zerolog"
)

type Store struct {
	repo       domain.SnapshotRepository
	logger     *zerolog.Logger
	sessionTTL time.Duration
	now        func() time.Time

	mu    sync.RWMutex
	state *models.Snapshot
	dirty bool
}

type Option func(*Store)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
	}
}

func New(repo domain.SnapshotRepository, logger *zerolog.Logger, opts ...Option) *Store {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	s := &Store{
		repo:       repo,
		logger:     logger,
		sessionTTL: models.DefaultSessionTTL,
		now:        time.Now,
		state:      models.NewSnapshot(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Now() time.Time {
	return s.now()
}

func (s *Store) SessionTTL() time.Duration {
	return s.sessionTTL
}

// Load replaces the in-memory state with the persisted snapshot. Missing data
// starts an empty snapshot. Malformed data is logged and discarded; it is
// returned only so callers can report it, the store stays usable.
// A persisted session idle for longer than the session TTL is not restored.
func (s *Store) Load(ctx context.Context) error {
	data, err := s.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	loaded, err := snapshot.Decode(data)
	if err != nil {
		if errors.Is(err, domain.ErrMalformedSnapshot) {
			metrics.IncMalformedSnapshot()
			s.logger.Warn().Err(err).Msg("discarding malformed snapshot, starting empty")
			s.mu.Lock()
			s.state = models.NewSnapshot()
			s.dirty = false
			s.mu.Unlock()
		}
		return err
	}
	if loaded == nil {
		loaded = models.NewSnapshot()
	}

	if loaded.CurrentAccount != nil && !loaded.CurrentAccount.SessionValid(s.now(), s.sessionTTL) {
		s.logger.Info().Str("account_id", loaded.CurrentAccount.ID).Msg("persisted session expired")
		loaded.CurrentAccount = nil
	}

	s.mu.Lock()
	s.state = loaded
	s.dirty = false
	s.mu.Unlock()

	s.logger.Info().
		Int("accounts", len(loaded.Accounts)).
		Int("bookings", len(loaded.Bookings)).
		Msg("snapshot loaded")
	return nil
}

// View calls fn with the committed snapshot under a read lock. fn must not
// retain or modify it.
func (s *Store) View(fn func(*models.Snapshot)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.state)
}

// Snapshot returns a copy of the committed state.
func (s *Store) Snapshot() *models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Update runs fn on a copy of the state and commits it once saved. A live
// session counts as used and its loginMs is refreshed; an expired one is
// cleared instead.
func (s *Store) Update(ctx context.Context, fn func(*models.Snapshot) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Clone()
	if err := fn(next); err != nil {
		return err
	}
	touchSession(next, s.now(), s.sessionTTL)

	if err := s.save(ctx, next); err != nil {
		return err
	}
	s.state = next
	s.dirty = false
	return nil
}

// Flush persists the committed state without counting as session activity.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.save(ctx, s.state); err != nil {
		s.dirty = true
		return err
	}
	s.dirty = false
	return nil
}

// Dirty reports whether the last flush failed.
func (s *Store) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

func (s *Store) save(ctx context.Context, snap *models.Snapshot) error {
	data, err := snapshot.Encode(snap)
	if err != nil {
		metrics.IncSnapshotSave("encode_error")
		return err
	}
	if err := s.repo.Save(ctx, data); err != nil {
		metrics.IncSnapshotSave("error")
		s.logger.Error().Err(err).Msg("save snapshot")
		return fmt.Errorf("save snapshot: %w", err)
	}
	metrics.IncSnapshotSave("ok")
	return nil
}

func touchSession(snap *models.Snapshot, now time.Time, ttl time.Duration) {
	if snap.CurrentAccount == nil {
		return
	}
	if !snap.CurrentAccount.SessionValid(now, ttl) {
		snap.CurrentAccount = nil
		return
	}
	snap.CurrentAccount.Touch(now)
	if i := snap.FindAccount(snap.CurrentAccount.ID); i >= 0 {
		snap.Accounts[i].LoginMs = snap.CurrentAccount.LoginMs
	}
}
