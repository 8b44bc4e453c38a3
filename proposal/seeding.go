package proposal

import (
	"math"
	"math/rand"
	"time"

	"github.com/hopkinsidd/flepimop-inference/paramstore"
)

// ProposeSeeding perturbs every non-NoPerturb seed event's date (an integer
// number of days, symmetric jitter via DateSD, clipped to [start, end]) and
// amount (symmetric jitter via AmountSD, clipped to >= 0), per spec.md §3's
// seeding perturbation contract. When stochastic is set (the simulator runs
// in stochastic mode and demands integer amounts), each perturbed amount is
// rounded after clipping.
func ProposeSeeding(r *rand.Rand, events []paramstore.SeedEvent, start, end time.Time, stochastic bool) []paramstore.SeedEvent {
	out := make([]paramstore.SeedEvent, len(events))
	copy(out, events)
	nonNegative := paramstore.Support{HasLower: true, Lower: 0}
	for i, e := range out {
		if e.NoPerturb {
			continue
		}
		out[i].Amount = Perturb(r, e.Amount, paramstore.KernelSpec{Family: paramstore.KernelNormal, SD: e.AmountSD}, nonNegative)
		out[i].Date = perturbDate(r, e.Date, e.DateSD, start, end)
	}
	if stochastic {
		roundAmounts(out)
	}
	return out
}

// roundAmounts rounds every event's amount to the nearest integer in place,
// spec.md §4.2's rule for a simulator running in stochastic mode.
func roundAmounts(events []paramstore.SeedEvent) {
	for i, e := range events {
		events[i].Amount = math.Round(e.Amount)
	}
}

func perturbDate(r *rand.Rand, current time.Time, sd float64, start, end time.Time) time.Time {
	if sd <= 0 {
		return current
	}
	deltaDays := math.Round(r.NormFloat64() * sd)
	proposed := current.AddDate(0, 0, int(deltaDays))
	if proposed.Before(start) {
		return start
	}
	if proposed.After(end) {
		return end
	}
	return proposed
}
