package likelihood

import "math"

// poissonLogDensity returns log P(X = round(observed)) for X ~ Poisson(lambda).
// addOne is the target's configured zero-handling flag (spec.md §4.5): when
// both the rounded observed count and lambda are exactly zero, the
// contribution is defined to be exactly 0 — not the value a literal "add 1
// to both and recompute" transform would produce — so an empty-data bin
// neither penalizes nor rewards a fit. The same zero bin is handled safely
// even without addOne, since k*log(lambda) is mathematically 0 whenever
// k=0 regardless of lambda; addOne documents the spec's explicit contract
// rather than changing the arithmetic.
func poissonLogDensity(observed, lambda float64, addOne bool) float64 {
	k := math.Round(observed)
	if k < 0 {
		return math.Inf(-1)
	}
	if addOne && k == 0 && lambda == 0 {
		return 0
	}
	logFactorial, _ := math.Lgamma(k + 1)
	if lambda <= 0 {
		if k == 0 {
			return -logFactorial
		}
		return math.Inf(-1)
	}
	return k*math.Log(lambda) - lambda - logFactorial
}
