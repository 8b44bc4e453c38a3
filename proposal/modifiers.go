package proposal

import (
	"math/rand"

	"github.com/hopkinsidd/flepimop-inference/paramstore"
)

// ProposeModifiers returns a copy of entries with every inferable entry's
// Value replaced by a fresh symmetric perturbation, used for both SNPI and
// HNPI (spec.md §3 treats them identically except for which simulator stage
// they modify).
func ProposeModifiers(r *rand.Rand, entries []paramstore.ModifierEntry) []paramstore.ModifierEntry {
	out := make([]paramstore.ModifierEntry, len(entries))
	copy(out, entries)
	for i, e := range out {
		if !e.Inferable {
			continue
		}
		out[i].Value = Perturb(r, e.Value, e.Kernel, e.Support)
	}
	return out
}
