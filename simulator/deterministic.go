package simulator

import (
	"context"

	"github.com/hopkinsidd/flepimop-inference/paramstore"
)

// Fixed is a Simulator double that ignores its input Sample and always
// returns the same Trajectory. This is the reference collaborator spec.md
// §8's Testable Property 1 (detailed balance under a fixed simulator) and
// Scenario A are defined against: with the likelihood held constant across
// every proposal, the acceptance ratio collapses to the prior ratio alone,
// letting the chain's behavior be checked against a closed-form
// expectation.
type Fixed struct {
	Trajectory Trajectory
}

func (f Fixed) Simulate(ctx context.Context, sample paramstore.Sample) (Trajectory, error) {
	return f.Trajectory, nil
}
