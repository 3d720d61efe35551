// Package view turns the gate's output and the user's view settings into
// Loading | Ready presentation states. Each view has a pure Compute
// function and a Run loop that recomputes on every input change.
package view

import (
	"context"
	"errors"

	"github.com/blackwell-systems/permscope/internal/gate"
	"github.com/blackwell-systems/permscope/internal/observability"
	"github.com/blackwell-systems/permscope/internal/resolve"
)

// State is Loading or Ready(T).
type State[T any] struct {
	ready bool
	value T
}

// Loading returns the Loading state.
func Loading[T any]() State[T] { return State[T]{} }

// Ready returns a Ready state carrying v.
func Ready[T any](v T) State[T] { return State[T]{ready: true, value: v} }

// IsLoading reports whether the state is Loading.
func (s State[T]) IsLoading() bool { return !s.ready }

// Value returns the Ready value.
func (s State[T]) Value() (T, bool) { return s.value, s.ready }

// resolver caches the resolution of the current joined pair so settings
// changes do not redo the join.
type resolver struct {
	joined *gate.Joined
	res    *resolve.Resolution
}

func (r *resolver) get(g gate.Result) *resolve.Resolution {
	if !g.Ready() {
		return nil
	}
	if r.joined != g.Joined {
		r.joined = g.Joined
		r.res = resolve.Resolve(g.Joined)
	}
	return r.res
}

// emit replaces any unconsumed state in out. out has a single sender.
func emit[T any](out chan State[T], s State[T]) {
	select {
	case <-out:
	default:
	}
	out <- s
}

func record[T any](name string, s State[T]) {
	label := "ready"
	if s.IsLoading() {
		label = "loading"
	}
	observability.GetMetrics().ViewComputations.WithLabelValues(name, label).Inc()
}

// ErrClosed is returned by Await when the view stops before becoming Ready.
var ErrClosed = errors.New("view closed before becoming ready")

// Await returns the first Ready value received from ch.
func Await[T any](ctx context.Context, ch <-chan State[T]) (T, error) {
	var zero T
	for {
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case st, ok := <-ch:
			if !ok {
				return zero, ErrClosed
			}
			if v, ready := st.Value(); ready {
				return v, nil
			}
		}
	}
}
