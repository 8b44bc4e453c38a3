// Package simulator defines the external-collaborator contract of spec.md
// §4.3: the MCMC core never depends on a specific forward model, only on
// this interface, letting the compartmental package (or a test double) sit
// behind it.
package simulator

import (
	"context"
	"time"

	"github.com/hopkinsidd/flepimop-inference/paramstore"
)

// Series is one named daily time series over [Start, End].
type Series struct {
	Dates  []time.Time
	Values []float64
}

// Trajectory is a simulator run's full output: every subpopulation's named
// output series (compartment counts, outcome counts — whatever the concrete
// simulator produces), keyed first by subpop then by series name so the
// Statistic Extractor can look up a TargetConfig's SimSource directly.
type Trajectory struct {
	Start   time.Time
	End     time.Time
	Subpops []string
	Series  map[string]map[string]Series // Series[subpop][sourceName]
}

// At returns subpop's named series, or ok=false if either key is absent —
// spec.md §4.3 treats a missing sim source as a configuration error, not a
// silent zero.
func (t Trajectory) At(subpop, source string) (Series, bool) {
	bySource, ok := t.Series[subpop]
	if !ok {
		return Series{}, false
	}
	s, ok := bySource[source]
	return s, ok
}

// Simulator runs one forward simulation for a parameter sample. Concrete
// implementations must be deterministic given the same rng stream, so that
// the Testable Properties of spec.md §8 (e.g. detailed balance under a
// fixed simulator) hold.
type Simulator interface {
	Simulate(ctx context.Context, sample paramstore.Sample) (Trajectory, error)
}
