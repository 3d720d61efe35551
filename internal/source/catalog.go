package source

import (
	"context"
	"log/slog"

	"github.com/blackwell-systems/permscope/internal/observability"
	"github.com/blackwell-systems/permscope/internal/perms"
)

// CatalogSource publishes the permission catalog derived from each app
// snapshot. While a new catalog is being built the previous one stays
// published, so its BasedOn lags the app state.
type CatalogSource struct {
	known   []perms.Known
	logger  *slog.Logger
	metrics *observability.Metrics

	state *Value[CatalogState]
}

// NewCatalogSource creates a catalog source using the given known
// definitions.
func NewCatalogSource(known []perms.Known, logger *slog.Logger) *CatalogSource {
	return &CatalogSource{
		known:   known,
		logger:  observability.OrDefault(logger),
		metrics: observability.GetMetrics(),
		state:   NewValue(CatalogLoading()),
	}
}

// Current returns the latest published state.
func (c *CatalogSource) Current() CatalogState {
	return c.state.Get()
}

// Subscribe returns a conflating stream of catalog states.
func (c *CatalogSource) Subscribe() (<-chan CatalogState, func()) {
	return c.state.Subscribe()
}

// Run builds a catalog for every Ready app state received until ctx is
// cancelled or appStates is closed.
func (c *CatalogSource) Run(ctx context.Context, appStates <-chan AppState) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case st, ok := <-appStates:
			if !ok {
				return nil
			}
			if st.IsLoading() {
				continue
			}
			if cur := c.state.Get(); !cur.IsLoading() && cur.BasedOn() == st.ID() {
				continue
			}
			c.Publish(st)
		}
	}
}

// Publish builds the catalog for a Ready app state and publishes it.
func (c *CatalogSource) Publish(st AppState) {
	if st.IsLoading() {
		return
	}

	catalog := perms.BuildCatalog(st.Snapshot, c.known)

	c.metrics.CatalogBuilds.Inc()
	counts := map[perms.Variant]int{}
	for _, p := range catalog.Permissions {
		counts[perms.VariantOf(p)]++
	}
	for _, v := range []perms.Variant{perms.VariantDeclared, perms.VariantExtra, perms.VariantUnknown} {
		c.metrics.CatalogSize.WithLabelValues(v.String()).Set(float64(counts[v]))
	}

	c.state.Set(CatalogReady(catalog))
	c.logger.Debug("published permission catalog", "based_on", catalog.BasedOn, "permissions", len(catalog.Permissions))
}

// Close ends every subscription.
func (c *CatalogSource) Close() {
	c.state.Close()
}
