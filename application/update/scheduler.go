package update

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"siostam-backend/application/ports"
	"siostam-backend/domain/graph"
	"siostam-backend/domain/snapshot"
	"siostam-backend/pkg/observability"
)

// Scheduler drives the periodic graph refresh. Each tick it decides
// whether the published snapshot is still fresh and, when it is not,
// starts a rebuild in the background.
//
// Rebuilds never queue. A tick that finds one in flight skips; the
// running rebuild publishes when it finishes and freshness is judged
// again on the next tick.
type Scheduler struct {
	store    *snapshot.Store
	sources  ports.SourceProvider
	config   ports.ConfigSource
	notifier ports.Notifier
	metrics  *observability.Collector
	logger   *zap.Logger

	tick time.Duration

	buildMu sync.Mutex
	lastAck atomic.Uint64
}

// NewScheduler wires a scheduler around an already primed store. The
// configuration generation the store was built from counts as
// acknowledged, so the first rebuild waits for the interval to elapse
// or the configuration to change.
func NewScheduler(
	store *snapshot.Store,
	sources ports.SourceProvider,
	config ports.ConfigSource,
	notifier ports.Notifier,
	metrics *observability.Collector,
	logger *zap.Logger,
	tick time.Duration,
) *Scheduler {
	s := &Scheduler{
		store:    store,
		sources:  sources,
		config:   config,
		notifier: notifier,
		metrics:  metrics,
		logger:   logger,
		tick:     tick,
	}
	s.lastAck.Store(config.Generation())
	s.metrics.SnapshotVersion.Set(float64(store.Version()))
	return s
}

// Run ticks until the context is cancelled
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	s.logger.Info("Update scheduler started",
		zap.Duration("tick", s.tick),
		zap.Duration("rebuildInterval", s.config.RebuildInterval()),
	)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Update scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs one scheduling pass and reports whether it started a
// rebuild. The rebuild itself runs in its own goroutine; Tick never
// blocks on it.
func (s *Scheduler) Tick(ctx context.Context) bool {
	gen := s.config.Generation()
	if !s.rebuildDue(gen) {
		return false
	}

	if !s.buildMu.TryLock() {
		s.metrics.ObserveRebuild(observability.RebuildSkipped, 0)
		s.logger.Debug("Rebuild already in flight, skipping pass")
		return false
	}

	go s.rebuild(ctx, gen)
	return true
}

// rebuildDue reports whether the snapshot needs refreshing: the
// configuration changed since the last acknowledged rebuild, or the
// snapshot sat unchecked for longer than the rebuild interval.
func (s *Scheduler) rebuildDue(gen uint64) bool {
	if gen != s.lastAck.Load() {
		return true
	}
	return time.Since(s.store.Read().LastCheck) > s.config.RebuildInterval()
}

// rebuild loads the sources, publishes the result and acknowledges
// the configuration generation it ran for. On failure nothing is
// acknowledged and the snapshot keeps its LastCheck, so the next tick
// retries.
func (s *Scheduler) rebuild(ctx context.Context, gen uint64) {
	defer s.buildMu.Unlock()

	logger := s.logger.With(zap.String("cycleID", uuid.NewString()))
	started := time.Now()

	logger.Info("Rebuilding graph", zap.Uint64("configGeneration", gen))

	files, err := s.sources.Load(ctx)
	if err != nil {
		s.metrics.ObserveRebuild(observability.RebuildFailed, time.Since(started))
		logger.Error("Failed to load sources", zap.Error(err))
		return
	}

	version, changed, err := s.store.Replace(ctx, graph.Build(files))
	if err != nil {
		s.metrics.ObserveRebuild(observability.RebuildFailed, time.Since(started))
		logger.Error("Failed to publish snapshot", zap.Error(err))
		return
	}

	s.lastAck.Store(gen)
	s.metrics.SnapshotVersion.Set(float64(version))

	if !changed {
		s.metrics.ObserveRebuild(observability.RebuildUnchanged, time.Since(started))
		logger.Debug("Graph unchanged",
			zap.Uint64("version", version),
			zap.Duration("took", time.Since(started)),
		)
		return
	}

	s.metrics.ObserveRebuild(observability.RebuildChanged, time.Since(started))
	logger.Info("Published new snapshot",
		zap.Uint64("version", version),
		zap.Int("files", len(files)),
		zap.Duration("took", time.Since(started)),
	)
	s.notifier.NotifyVersion(version)
}
