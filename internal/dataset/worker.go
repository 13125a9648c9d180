package dataset

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/mapstreak/geoquiz/internal/engine"
)

// RefreshWorker reloads the dataset on an interval and swaps the new
// snapshot into the engine, so geometry or catalog updates published to
// the export reach running sessions without a restart.
type RefreshWorker struct {
	loader    *Loader
	engine    *engine.Engine
	interval  time.Duration
	timeout   time.Duration
	logger    zerolog.Logger
	shutdownC chan struct{}
}

func NewRefreshWorker(loader *Loader, eng *engine.Engine, interval, timeout time.Duration, logger zerolog.Logger) *RefreshWorker {
	if interval <= 0 {
		interval = 12 * time.Hour
	}
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &RefreshWorker{
		loader:    loader,
		engine:    eng,
		interval:  interval,
		timeout:   timeout,
		logger:    logger,
		shutdownC: make(chan struct{}),
	}
}

func (w *RefreshWorker) Run() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-w.shutdownC:
			w.logger.Info().Msg("dataset refresher stopping")
			return
		case <-ticker.C:
			w.refresh()
		}
	}
}

func (w *RefreshWorker) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	data, err := w.loader.Load(ctx)
	if err != nil {
		// The engine keeps serving the previous snapshot.
		w.logger.Warn().Err(err).Msg("dataset refresh failed")
		return
	}
	w.engine.Swap(data)
	w.logger.Info().
		Int64("version", data.Version).
		Int("countries", data.Catalog.Len()).
		Msg("dataset refreshed")
}

func (w *RefreshWorker) Stop() {
	close(w.shutdownC)
}
