package proposal

import (
	"math/rand"

	"github.com/hopkinsidd/flepimop-inference/paramstore"
)

// ProposeInitial perturbs the inferable initial-condition entries of one
// subpopulation proportionally: each entry's share of the subpopulation's
// inferable total is jittered and clipped to [0,1], then all shares are
// renormalized to sum to 1 so the perturbed amounts still conserve the
// subpopulation's total population, per spec.md §3's INIT perturbation
// contract ("proportional, renormalized within subpop").
func ProposeInitial(r *rand.Rand, entries []paramstore.InitialConditionEntry) []paramstore.InitialConditionEntry {
	out := make([]paramstore.InitialConditionEntry, len(entries))
	copy(out, entries)

	bySubpop := map[string][]int{}
	for i, e := range out {
		if e.Inferable {
			bySubpop[e.Subpop] = append(bySubpop[e.Subpop], i)
		}
	}

	unit := paramstore.Support{HasLower: true, Lower: 0, HasUpper: true, Upper: 1}
	for _, idxs := range bySubpop {
		total := 0.0
		for _, i := range idxs {
			total += out[i].Amount
		}
		if total <= 0 {
			continue
		}
		shares := make([]float64, len(idxs))
		shareSum := 0.0
		for j, i := range idxs {
			proportion := out[i].Amount / total
			shares[j] = Perturb(r, proportion, out[i].Kernel, unit)
			shareSum += shares[j]
		}
		if shareSum <= 0 {
			continue
		}
		for j, i := range idxs {
			out[i].Amount = (shares[j] / shareSum) * total
		}
	}
	return out
}
