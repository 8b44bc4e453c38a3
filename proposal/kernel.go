// Package proposal implements the symmetric perturbation kernels of spec.md
// §4.2. Every kernel here proposes a candidate value by adding a
// zero-mean, symmetric jitter to the current value and then clipping to the
// entry's declared support — the same "perturb, then clip to bound" shape
// reinforcement/learning.go's getRandAction/getRandDv use to keep a
// randomly perturbed action inside the gridworld's valid range. Clipping
// technically breaks perfect proposal symmetry at the boundary, but spec.md
// names clipping explicitly as the contract, so the Metropolis ratio is
// computed without a Hastings correction per §5's documented assumption.
package proposal

import (
	"math/rand"

	"github.com/hopkinsidd/flepimop-inference/paramstore"
)

// Perturb draws one symmetric jitter for spec.Family around current, using
// r, and clips the result to support.
func Perturb(r *rand.Rand, current float64, spec paramstore.KernelSpec, support paramstore.Support) float64 {
	var delta float64
	switch spec.Family {
	case paramstore.KernelUniform:
		if spec.SD <= 0 {
			delta = 0
		} else {
			delta = (r.Float64()*2 - 1) * spec.SD
		}
	case paramstore.KernelNormal, paramstore.KernelTruncatedNormal:
		if spec.SD <= 0 {
			delta = 0
		} else {
			delta = r.NormFloat64() * spec.SD
		}
	default:
		delta = 0
	}
	return support.Clip(current + delta)
}

// PerturbAll proposes a new value for every entry in entries, returning a
// map from entry ID to the proposed value. The group-specific proposal files
// (modifiers.go, outcomes.go, seeding.go, initial.go) do not use it; they
// call Perturb directly on a paramstore.Sample's typed slices.
func PerturbAll(r *rand.Rand, entries []paramstore.InferableEntry, supports map[string]paramstore.Support) map[string]float64 {
	out := make(map[string]float64, len(entries))
	for _, e := range entries {
		out[e.ID] = Perturb(r, e.Value, e.Kernel, supports[e.ID])
	}
	return out
}
