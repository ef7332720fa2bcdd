package worker

import (
	"context"
	"time"

	"carrental/internal/models"

	"github.com/rs/zerolog"
)

// Flusher persists pending state.
type Flusher interface {
	Flush(ctx context.Context) error
}

// AutosaveWorker flushes the snapshot on a fixed interval. A failed flush is
// retried with backoff; if it keeps failing the next tick tries again.
type AutosaveWorker struct {
	store           Flusher
	interval        time.Duration
	retry           RetryPolicy
	shutdownTimeout time.Duration
	logger          *zerolog.Logger
}

func NewAutosaveWorker(store Flusher, interval time.Duration, retry RetryPolicy, logger *zerolog.Logger) *AutosaveWorker {
	if interval <= 0 {
		interval = models.DefaultAutosaveInterval
	}
	if retry.MaxRetries < 0 {
		retry.MaxRetries = 0
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &AutosaveWorker{
		store:           store,
		interval:        interval,
		retry:           retry,
		shutdownTimeout: 5 * time.Second,
		logger:          logger,
	}
}

// Run blocks until ctx is done, then makes one last flush.
func (w *AutosaveWorker) Run(ctx context.Context) {
	w.logger.Info().Dur("interval", w.interval).Msg("autosave started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), w.shutdownTimeout)
			if err := w.store.Flush(shutdownCtx); err != nil {
				w.logger.Error().Err(err).Msg("final autosave failed")
			}
			cancel()
			w.logger.Info().Msg("autosave stopped")
			return
		case <-ticker.C:
			_ = w.Flush(ctx)
		}
	}
}

// Flush saves once, retrying per the policy.
func (w *AutosaveWorker) Flush(ctx context.Context) error {
	for attempt := 1; ; attempt++ {
		err := w.store.Flush(ctx)
		if err == nil {
			if attempt > 1 {
				w.logger.Info().Int("attempt", attempt).Msg("autosave recovered")
			}
			return nil
		}
		if attempt > w.retry.MaxRetries {
			w.logger.Error().Err(err).Int("attempts", attempt).Msg("autosave failed")
			return err
		}

		delay := w.retry.NextDelay(attempt)
		w.logger.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", delay).Msg("autosave failed, retrying")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
