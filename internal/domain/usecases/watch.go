package usecases

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/0xcro3dile/localrag-fts/internal/domain/ports"
)

// DefaultDebounce is how long the watcher waits for a burst of changes to settle.
const DefaultDebounce = 500 * time.Millisecond

// WatchUseCase re-ingests the documents directory whenever it changes.
// Bursts of events (an editor saving, a copy of many files) collapse into one pass.
type WatchUseCase struct {
	watcher  ports.FileWatcher
	ingest   *IngestUseCase
	debounce time.Duration
	logger   *zap.Logger
}

// NewWatchUseCase creates a WatchUseCase. debounce <= 0 uses DefaultDebounce.
func NewWatchUseCase(watcher ports.FileWatcher, ingest *IngestUseCase, debounce time.Duration, logger *zap.Logger) *WatchUseCase {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WatchUseCase{
		watcher:  watcher,
		ingest:   ingest,
		debounce: debounce,
		logger:   logger,
	}
}

// Run blocks until ctx is cancelled or the watcher stops.
// Ingestion failures are logged and do not stop watching.
func (uc *WatchUseCase) Run(ctx context.Context, dir string) error {
	events, err := uc.watcher.Watch(ctx, dir)
	if err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	uc.logger.Info("watching documents", zap.String("dir", dir), zap.Duration("debounce", uc.debounce))

	timer := time.NewTimer(uc.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			uc.logger.Debug("document changed", zap.String("path", ev.Path), zap.Int("op", int(ev.Operation)))
			timer.Reset(uc.debounce)
		case <-timer.C:
			if _, err := uc.ingest.IngestDirectory(ctx, dir); err != nil {
				uc.logger.Error("re-ingest after change failed", zap.Error(err))
			}
		}
	}
}
