package proposal

import (
	"math/rand"

	"github.com/hopkinsidd/flepimop-inference/paramstore"
)

// ProposeOutcomeParams perturbs every inferable HPAR entry.
func ProposeOutcomeParams(r *rand.Rand, entries []paramstore.OutcomeParamEntry) []paramstore.OutcomeParamEntry {
	out := make([]paramstore.OutcomeParamEntry, len(entries))
	copy(out, entries)
	for i, e := range out {
		if !e.Inferable {
			continue
		}
		out[i].Value = Perturb(r, e.Value, e.Kernel, e.Support)
	}
	return out
}
