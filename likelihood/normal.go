package likelihood

import "math"

// normalLogDensity returns log N(observed; mean=simulated, sd). sd <= 0 is
// treated as a degenerate point mass: density is 0 at an exact match and
// -Inf otherwise, matching prior.logNormalDensity's convention.
func normalLogDensity(observed, simulated, sd float64) float64 {
	if sd <= 0 {
		if observed == simulated {
			return 0
		}
		return math.Inf(-1)
	}
	z := (observed - simulated) / sd
	return -0.5*z*z - math.Log(sd) - 0.5*math.Log(2*math.Pi)
}

// logNormalLogDensity returns the log-density of observed under a
// log-normal model whose median is simulated: log-space residuals are
// compared as normalLogDensity(log(observed), log(simulated), sd), with a
// Jacobian correction for the log transform, and both counts floored away
// from zero since log(0) is undefined.
func logNormalLogDensity(observed, simulated, sd float64) float64 {
	obs := math.Max(observed, 1e-9)
	sim := math.Max(simulated, 1e-9)
	return normalLogDensity(math.Log(obs), math.Log(sim), sd) - math.Log(obs)
}
