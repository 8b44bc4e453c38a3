package chain

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/hopkinsidd/flepimop-inference/config"
	"github.com/hopkinsidd/flepimop-inference/errs"
	"github.com/hopkinsidd/flepimop-inference/likelihood"
	"github.com/hopkinsidd/flepimop-inference/paramstore"
	"github.com/hopkinsidd/flepimop-inference/prior"
	"github.com/hopkinsidd/flepimop-inference/rng"
	"github.com/hopkinsidd/flepimop-inference/simulator"
)

// Driver runs the classic dual-chain Metropolis algorithm for one slot.
type Driver struct {
	Config       *config.Config
	Simulator    simulator.Simulator
	Evaluator    likelihood.Evaluator
	HierGroups   []prior.HierarchicalGroup
	ScalarPriors []config.ScalarPriorConfig
	Logger       zerolog.Logger

	// Stochastic reports whether the configured simulator runs in stochastic
	// mode (§4.3), in which case proposed seed amounts are rounded to
	// integers after perturbation (§4.2).
	Stochastic bool

	// Progress, if set, is called after every iteration to feed the monitor
	// dashboard, metrics registry, and on-disk artifacts without the driver
	// importing any of those packages directly. A non-nil error is almost
	// always a persistence failure, which spec.md §7 makes fatal for the
	// slot, so RunSlot stops the chain rather than continuing past it.
	Progress func(*State) error
}

// RunSlot drives iterations on state, returning once iterations complete,
// the slot aborts on a failure-threshold breach, or ctx is cancelled.
func (d Driver) RunSlot(ctx context.Context, state *State, iterations int) error {
	tracker := NewFailureTracker(d.Config.Inference.FailureThresholdOrDefault())
	rctx := rng.NewContext(d.Config.Inference.Seed, state.Slot)
	attempt := 0

	for state.Iteration < iterations {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		// Re-derived from (block, iteration, attempt) every time, never
		// advanced from a single stream shared across the whole slot: a
		// chain resumed partway through must draw exactly what an
		// uninterrupted run would have drawn at this same iteration.
		iterRctx := rctx.ForIteration(state.Block, state.Iteration, attempt)
		err := d.step(ctx, state, iterRctx)
		switch tracker.Observe(err) {
		case OutcomeAbortRun:
			return err
		case OutcomeAbortSlot:
			return fmt.Errorf("slot %d: aborting after repeated iteration failures: %w", state.Slot, err)
		case OutcomeRetry:
			attempt++
			d.Logger.Warn().Err(err).Int("slot", state.Slot).Int("iteration", state.Iteration).Msg("retrying iteration")
			continue
		case OutcomeContinue:
			attempt = 0
			state.Iteration++
			if d.Progress != nil {
				if perr := d.Progress(state); perr != nil {
					return errs.New(errs.KindPersistence, perr).WithIteration(state.Slot, state.Iteration)
				}
			}
		}
	}
	return nil
}

// step performs §4.6's single iteration: one joint proposal from the
// chimeric sample, one simulator invocation (§4.3: "invoked exactly once per
// MCMC iteration"), a global accept/reject decision, and — only when the
// global proposal was rejected, or always when reset_chimeric_on_accept is
// disabled — a per-subpopulation chimeric decision scored from that same
// simulation's per-subpop breakdown, never a second simulate call.
func (d Driver) step(ctx context.Context, state *State, rctx *rng.Context) error {
	candidate := proposeFull(rctx, state.Chimeric.Sample, d.Config.StartDate, d.Config.EndDate, d.Stochastic)

	traj, err := d.Simulator.Simulate(ctx, candidate)
	if err != nil {
		return errs.New(errs.KindSimulator, err).WithIteration(state.Slot, state.Iteration)
	}
	results, logLik, err := d.Evaluator.Evaluate(traj)
	if err != nil {
		return errs.New(errs.KindSimulator, err).WithIteration(state.Slot, state.Iteration)
	}

	perSubpop := map[string]float64{}
	for _, r := range results {
		perSubpop[r.Subpop] += r.LogLik
	}

	logPrior := prior.LogPosteriorDensity(candidate, d.HierGroups)
	if len(d.ScalarPriors) > 0 {
		scalarLP, err := prior.ResolveScalar(candidate, d.ScalarPriors)
		if err != nil {
			return errs.New(errs.KindNumeric, err).WithIteration(state.Slot, state.Iteration)
		}
		logPrior += scalarLP
	}

	// NumericError (§7): a non-finite candidate score is treated as a plain
	// rejection, never a retried/fatal failure.
	candidateScore := logPrior + logLik
	if math.IsNaN(candidateScore) || math.IsInf(candidateScore, 0) {
		state.RecordGlobal(false)
		return nil
	}

	accept := math.Log(rctx.Float64(rng.Accept)) < candidateScore-state.Global.Score()
	state.RecordGlobal(accept)

	resetOnAccept := d.Config.Inference.ResetChimericOnAcceptOrDefault()
	if accept {
		state.Global = Book{Sample: candidate, LogPrior: logPrior, LogLik: logLik, PerSubpopLogLik: copyMap(perSubpop)}
		if resetOnAccept {
			state.Chimeric = Book{
				Sample:          candidate.Copy(),
				LogPrior:        logPrior,
				LogLik:          logLik,
				PerSubpopLogLik: copyMap(perSubpop),
			}
		}
	}

	if accept && resetOnAccept {
		return nil
	}
	return d.chimericDecide(state, rctx, candidate, perSubpop)
}

// chimericDecide applies §4.6 step 5 against a single already-simulated
// candidate: for each subpopulation, compare its slice of the candidate's
// per-subpop log-likelihood (already computed by the one Evaluate call in
// step) and restricted prior against the chimeric book's current record, and
// on acceptance merge only that subpopulation's entries into Theta_m^C.
func (d Driver) chimericDecide(state *State, rctx *rng.Context, candidate paramstore.Sample, perSubpop map[string]float64) error {
	for _, subpop := range allSubpops(state.Chimeric.Sample) {
		subLogLik := perSubpop[subpop]
		// The chimeric decision uses only this subpopulation's local
		// log-likelihood and its restricted per-entry prior, never the
		// hierarchical term H(Theta): that term compares across
		// subpopulations and would make a "local" update non-local.
		candidatePrior := prior.SampleLogPrior(restrictToSubpop(candidate, subpop))
		currentPrior := prior.SampleLogPrior(restrictToSubpop(state.Chimeric.Sample, subpop))
		current := state.Chimeric.PerSubpopLogLik[subpop]

		ratio := (candidatePrior + subLogLik) - (currentPrior + current)
		if math.IsNaN(ratio) {
			state.RecordChimeric(false)
			continue
		}
		accept := math.Log(rctx.Float64(rng.Accept)) < ratio
		state.RecordChimeric(accept)
		if accept {
			state.Chimeric.Sample = mergeSubpopInto(state.Chimeric.Sample, candidate, subpop)
			if state.Chimeric.PerSubpopLogLik == nil {
				state.Chimeric.PerSubpopLogLik = map[string]float64{}
			}
			state.Chimeric.PerSubpopLogLik[subpop] = subLogLik
		}
	}
	return nil
}
