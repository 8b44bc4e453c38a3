package chain

import (
	"context"
	"math"
	"math/rand"

	"github.com/hopkinsidd/flepimop-inference/config"
	"github.com/hopkinsidd/flepimop-inference/likelihood"
	"github.com/hopkinsidd/flepimop-inference/paramstore"
	"github.com/hopkinsidd/flepimop-inference/prior"
	"github.com/hopkinsidd/flepimop-inference/simulator"
)

// Walker is one member of an EMCEE ensemble: a full parameter sample plus
// its cached score.
type Walker struct {
	Sample   paramstore.Sample
	LogPrior float64
	LogLik   float64
}

// Score is LogPrior + LogLik.
func (w Walker) Score() float64 {
	return w.LogPrior + w.LogLik
}

// Ensemble implements the affine-invariant stretch-move sampler of spec.md
// §4.6 as an alternate MCMC backend: each walker proposes a move toward a
// randomly chosen other walker in the ensemble, scaled by a stretch factor
// drawn from the family Goodman & Weare describe. No chimeric chain exists
// in this backend — every walker is a full, independent candidate.
type Ensemble struct {
	Walkers   []Walker
	StretchA  float64
	Simulator simulator.Simulator
	Evaluator likelihood.Evaluator
	HierGroups []prior.HierarchicalGroup
}

// NewEnsemble seeds an ensemble from cfg and an initial walker population,
// one per config.EMCEEConfig.Walkers.
func NewEnsemble(cfg *config.Config, sim simulator.Simulator, ev likelihood.Evaluator, hier []prior.HierarchicalGroup, initial []paramstore.Sample) *Ensemble {
	a := cfg.Inference.EMCEE.StretchA
	if a <= 1 {
		a = 2.0
	}
	walkers := make([]Walker, len(initial))
	for i, s := range initial {
		walkers[i] = Walker{Sample: s}
	}
	return &Ensemble{Walkers: walkers, StretchA: a, Simulator: sim, Evaluator: ev, HierGroups: hier}
}

// stretchFactor draws z from g(z) proportional to 1/sqrt(z) on [1/a, a], the
// distribution the stretch move requires for detailed balance.
func stretchFactor(r *rand.Rand, a float64) float64 {
	u := r.Float64()
	root := math.Sqrt(a)
	lo := 1 / root
	return (lo + u*(root-lo)) * (lo + u*(root-lo))
}

// RunSweep advances every walker one stretch-move step, using the rest of
// the ensemble as complementary walkers. Walkers are updated sequentially
// within the sweep (not in place concurrently), since a stretch move needs
// a stable complementary-ensemble snapshot to preserve detailed balance.
func (e *Ensemble) RunSweep(ctx context.Context, r *rand.Rand) error {
	snapshot := make([]Walker, len(e.Walkers))
	copy(snapshot, e.Walkers)

	for i := range e.Walkers {
		complementary := pickOther(r, snapshot, i)
		z := stretchFactor(r, e.StretchA)
		candidate := stretchMove(e.Walkers[i].Sample, complementary.Sample, z)

		traj, err := e.Simulator.Simulate(ctx, candidate)
		if err != nil {
			return err
		}
		_, logLik, err := e.Evaluator.Evaluate(traj)
		if err != nil {
			return err
		}
		logPrior := prior.LogPosteriorDensity(candidate, e.HierGroups)

		dim := float64(countInferable(candidate))
		logRatio := (dim-1)*math.Log(z) + (logPrior+logLik) - e.Walkers[i].Score()
		if math.Log(r.Float64()) < logRatio {
			e.Walkers[i] = Walker{Sample: candidate, LogPrior: logPrior, LogLik: logLik}
		}
	}
	return nil
}

func pickOther(r *rand.Rand, walkers []Walker, exclude int) Walker {
	if len(walkers) < 2 {
		return walkers[exclude]
	}
	j := r.Intn(len(walkers) - 1)
	if j >= exclude {
		j++
	}
	return walkers[j]
}

// stretchMove computes complementary + z*(current - complementary) entrywise over
// every inferable scalar in the sample, clipped back to each entry's
// declared support.
func stretchMove(current, complementary paramstore.Sample, z float64) paramstore.Sample {
	out := current.Copy()
	stretchModifiers(out.SNPI, complementary.SNPI, z)
	stretchModifiers(out.HNPI, complementary.HNPI, z)
	stretchOutcomes(out.HPAR, complementary.HPAR, z)
	stretchInit(out.INIT, complementary.INIT, z)
	return out
}

func stretchModifiers(entries, other []paramstore.ModifierEntry, z float64) {
	otherByID := map[string]paramstore.ModifierEntry{}
	for _, e := range other {
		otherByID[e.ID()] = e
	}
	for i, e := range entries {
		if !e.Inferable {
			continue
		}
		if o, ok := otherByID[e.ID()]; ok {
			entries[i].Value = e.Support.Clip(o.Value + z*(e.Value-o.Value))
		}
	}
}

func stretchOutcomes(entries, other []paramstore.OutcomeParamEntry, z float64) {
	otherByID := map[string]paramstore.OutcomeParamEntry{}
	for _, e := range other {
		otherByID[e.ID()] = e
	}
	for i, e := range entries {
		if !e.Inferable {
			continue
		}
		if o, ok := otherByID[e.ID()]; ok {
			entries[i].Value = e.Support.Clip(o.Value + z*(e.Value-o.Value))
		}
	}
}

func stretchInit(entries, other []paramstore.InitialConditionEntry, z float64) {
	otherByID := map[string]paramstore.InitialConditionEntry{}
	for _, e := range other {
		otherByID[e.ID()] = e
	}
	unit := paramstore.Support{HasLower: true, Lower: 0}
	for i, e := range entries {
		if !e.Inferable {
			continue
		}
		if o, ok := otherByID[e.ID()]; ok {
			entries[i].Amount = unit.Clip(o.Amount + z*(e.Amount-o.Amount))
		}
	}
}

func countInferable(s paramstore.Sample) int {
	n := 0
	for _, e := range s.SNPI {
		if e.Inferable {
			n++
		}
	}
	for _, e := range s.HNPI {
		if e.Inferable {
			n++
		}
	}
	for _, e := range s.HPAR {
		if e.Inferable {
			n++
		}
	}
	for _, e := range s.INIT {
		if e.Inferable {
			n++
		}
	}
	if n == 0 {
		n = 1
	}
	return n
}
