package view

import (
	"context"

	"github.com/blackwell-systems/permscope/internal/analyzer"
	"github.com/blackwell-systems/permscope/internal/apps"
	"github.com/blackwell-systems/permscope/internal/gate"
)

// ComputeOverview summarizes a Ready gate result.
func ComputeOverview(g gate.Result, active apps.UserHandle) State[analyzer.Summary] {
	if !g.Ready() {
		return Loading[analyzer.Summary]()
	}
	return Ready(analyzer.Summarize(g.Joined.Snapshot, active))
}

// OverviewView is the reactive device overview.
type OverviewView struct {
	Gate   <-chan gate.Result
	Active apps.UserHandle
}

// Run recomputes the overview on every gate change until ctx is cancelled
// or the gate channel closes.
func (v OverviewView) Run(ctx context.Context) <-chan State[analyzer.Summary] {
	out := make(chan State[analyzer.Summary], 1)

	go func() {
		defer close(out)

		publish := func(g gate.Result) {
			st := ComputeOverview(g, v.Active)
			record("overview", st)
			emit(out, st)
		}
		publish(gate.NotReady)

		for {
			select {
			case <-ctx.Done():
				return
			case g, ok := <-v.Gate:
				if !ok {
					return
				}
				publish(g)
			}
		}
	}()

	return out
}
