package proposal

import (
	"math/rand"

	"github.com/hopkinsidd/flepimop-inference/paramstore"
	"github.com/hopkinsidd/flepimop-inference/prior"
)

// DrawInitial draws a fresh sample from schema's declared priors, per
// spec.md §4.6's chain-initialization contract ("drawn from the prior")
// when no resume archive is configured. Only SNPI/HNPI/HPAR entries carry a
// PriorSpec; SEED and INIT entries have no declared prior family and keep
// their configured starting value, matching SampleLogPrior's treatment of
// those groups.
func DrawInitial(r *rand.Rand, schema paramstore.Sample) paramstore.Sample {
	out := schema.Copy()
	for i, e := range out.SNPI {
		if e.Inferable {
			out.SNPI[i].Value = e.Support.Clip(prior.Draw(r, e.Prior, e.Value))
		}
	}
	for i, e := range out.HNPI {
		if e.Inferable {
			out.HNPI[i].Value = e.Support.Clip(prior.Draw(r, e.Prior, e.Value))
		}
	}
	for i, e := range out.HPAR {
		if e.Inferable {
			out.HPAR[i].Value = e.Support.Clip(prior.Draw(r, e.Prior, e.Value))
		}
	}
	return out
}
