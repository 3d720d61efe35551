package source

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/blackwell-systems/permscope/internal/apps"
	"github.com/blackwell-systems/permscope/internal/observability"
)

// Inventory loads the installed applications from wherever they live.
type Inventory interface {
	Load(ctx context.Context) ([]*apps.Pkg, error)
}

// Allocator assigns a snapshot id to a freshly loaded app list. It returns
// reused=true when the content is identical to the latest snapshot, in
// which case id is that snapshot's id.
type Allocator interface {
	Allocate(ctx context.Context, pkgs []*apps.Pkg) (id apps.SnapshotID, reused bool, err error)
}

// Counter is an in-memory Allocator handing out increasing ids.
type Counter struct {
	next atomic.Int64
}

// Allocate returns the next id. It never reports reuse.
func (c *Counter) Allocate(_ context.Context, _ []*apps.Pkg) (apps.SnapshotID, bool, error) {
	return apps.SnapshotID(c.next.Add(1)), false, nil
}

// AppSource publishes app inventory snapshots. It starts Loading and
// becomes Ready after the first successful Refresh.
type AppSource struct {
	inventory Inventory
	allocator Allocator
	logger    *slog.Logger
	metrics   *observability.Metrics

	state *Value[AppState]

	refreshMu sync.Mutex // serializes Refresh

	errMu   sync.RWMutex
	lastErr error
}

// NewAppSource creates an app source. A nil allocator uses a Counter.
func NewAppSource(inv Inventory, alloc Allocator, logger *slog.Logger) *AppSource {
	if alloc == nil {
		alloc = &Counter{}
	}
	return &AppSource{
		inventory: inv,
		allocator: alloc,
		logger:    observability.OrDefault(logger),
		metrics:   observability.GetMetrics(),
		state:     NewValue(AppLoading()),
	}
}

// Current returns the latest published state.
func (s *AppSource) Current() AppState {
	return s.state.Get()
}

// Subscribe returns a conflating stream of app states.
func (s *AppSource) Subscribe() (<-chan AppState, func()) {
	return s.state.Subscribe()
}

// Err returns the error of the most recent refresh, or nil if it succeeded.
func (s *AppSource) Err() error {
	s.errMu.RLock()
	defer s.errMu.RUnlock()
	return s.lastErr
}

// Refresh reloads the inventory and publishes a new snapshot. On failure
// the previously published state is kept and the error is returned.
func (s *AppSource) Refresh(ctx context.Context) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	start := time.Now()
	s.metrics.RefreshesTotal.Inc()

	err := s.refresh(ctx)
	s.metrics.RefreshDuration.Observe(time.Since(start).Seconds())

	s.errMu.Lock()
	s.lastErr = err
	s.errMu.Unlock()

	if err != nil {
		s.metrics.RefreshFailures.Inc()
		s.logger.Error("app inventory refresh failed", "error", err)
	}
	return err
}

func (s *AppSource) refresh(ctx context.Context) error {
	pkgs, err := s.inventory.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load app inventory: %w", err)
	}

	id, reused, err := s.allocator.Allocate(ctx, pkgs)
	if err != nil {
		return fmt.Errorf("failed to allocate snapshot id: %w", err)
	}

	current := s.state.Get()
	if reused && !current.IsLoading() && current.ID() == id {
		s.metrics.SnapshotsReused.Inc()
		s.logger.Debug("app inventory unchanged", "snapshot", id)
		return nil
	}

	s.state.Set(AppReady(&apps.Snapshot{ID: id, Pkgs: pkgs}))
	s.metrics.AppsInSnapshot.Set(float64(len(pkgs)))
	s.logger.Info("published app snapshot", "snapshot", id, "apps", len(pkgs))
	return nil
}

// Close ends every subscription.
func (s *AppSource) Close() {
	s.state.Close()
}
