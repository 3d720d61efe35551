// Package gate joins the app and catalog streams and releases a pair only
// when the catalog was built from exactly the current app snapshot.
package gate

import (
	"context"

	"github.com/blackwell-systems/permscope/internal/apps"
	"github.com/blackwell-systems/permscope/internal/observability"
	"github.com/blackwell-systems/permscope/internal/perms"
	"github.com/blackwell-systems/permscope/internal/source"
)

// Joined is a snapshot paired with the catalog built from it.
type Joined struct {
	Snapshot *apps.Snapshot
	Catalog  *perms.Catalog
}

// Result is NotReady (nil Joined) or Ready.
type Result struct {
	Joined *Joined
}

// NotReady is the result while either input is loading or they disagree.
var NotReady = Result{}

// Ready reports whether the result carries a consistent pair.
func (r Result) Ready() bool { return r.Joined != nil }

// ID returns the snapshot id of a Ready result, or 0.
func (r Result) ID() apps.SnapshotID {
	if r.Joined == nil {
		return 0
	}
	return r.Joined.Snapshot.ID
}

// Evaluate returns Ready only when both inputs are Ready and the catalog's
// BasedOn equals the snapshot id.
func Evaluate(a source.AppState, c source.CatalogState) Result {
	if a.IsLoading() || c.IsLoading() {
		return NotReady
	}
	if c.Catalog.BasedOn != a.Snapshot.ID {
		return NotReady
	}
	return Result{Joined: &Joined{Snapshot: a.Snapshot, Catalog: c.Catalog}}
}

// Combine holds the latest value of each input and emits a re-evaluated
// Result whenever either changes. The first emission is NotReady. Results
// are emitted only when readiness or the Ready snapshot id changes. The
// returned channel conflates and is closed when ctx is cancelled or both
// inputs are closed.
func Combine(ctx context.Context, appStates <-chan source.AppState, catalogStates <-chan source.CatalogState) <-chan Result {
	out := make(chan Result, 1)
	metrics := observability.GetMetrics()

	go func() {
		defer close(out)

		var (
			appState     = source.AppLoading()
			catalogState = source.CatalogLoading()
			last         = NotReady
		)
		emit(out, last)

		for appStates != nil || catalogStates != nil {
			select {
			case <-ctx.Done():
				return
			case st, ok := <-appStates:
				if !ok {
					appStates = nil
					continue
				}
				appState = st
			case st, ok := <-catalogStates:
				if !ok {
					catalogStates = nil
					continue
				}
				catalogState = st
			}

			next := Evaluate(appState, catalogState)
			if next.Ready() {
				metrics.GateEvaluations.WithLabelValues("ready").Inc()
			} else {
				metrics.GateEvaluations.WithLabelValues("not_ready").Inc()
			}

			if changed(last, next) {
				last = next
				emit(out, next)
			}
		}
	}()

	return out
}

func changed(prev, next Result) bool {
	if prev.Ready() != next.Ready() {
		return true
	}
	return next.Ready() && (prev.ID() != next.ID() || prev.Joined.Catalog != next.Joined.Catalog)
}

// emit replaces any unconsumed result. out has a single sender.
func emit(out chan Result, r Result) {
	select {
	case <-out:
	default:
	}
	out <- r
}
