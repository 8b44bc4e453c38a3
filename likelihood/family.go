// Package likelihood implements the closed set of likelihood families of
// spec.md §4.5 and the per-subpop/target evaluator that folds them into a
// chain's total log-likelihood. Density formulas are pinned exactly as the
// spec states them; see DESIGN.md for why this is hand-rolled rather than
// built atop an ecosystem distributions package.
package likelihood

import (
	"fmt"
	"math"

	"github.com/hopkinsidd/flepimop-inference/config"
)

// LogDensity returns log p(observed | simulated) under cfg's family. It is
// the sole family-dispatch point other packages call.
func LogDensity(observed, simulated float64, cfg config.LikelihoodConfig) (float64, error) {
	switch cfg.Family {
	case "poisson":
		return poissonLogDensity(observed, simulated, cfg.AddOne), nil
	case "normal_homoskedastic":
		return normalLogDensity(observed, simulated, cfg.SD), nil
	case "normal_heteroskedastic":
		return normalLogDensity(observed, simulated, heteroskedasticSD(simulated, cfg)), nil
	case "negative_binomial":
		return negBinomLogDensity(observed, simulated, cfg.Dispersion), nil
	case "rmse":
		return -0.5 * math.Pow(observed-simulated, 2), nil
	case "absolute_error":
		return -math.Abs(observed - simulated), nil
	case "sqrt_normal":
		return normalLogDensity(math.Sqrt(clampNonNegative(observed)), math.Sqrt(clampNonNegative(simulated)), cfg.SD), nil
	case "log_normal":
		return logNormalLogDensity(observed, simulated, cfg.SD), nil
	default:
		return 0, fmt.Errorf("unknown likelihood family %q", cfg.Family)
	}
}

// heteroskedasticFloorDefault is Open Question resolution #1 (SPEC_FULL.md):
// the variance floor defaults to 1.0 when a target's configuration omits it.
const heteroskedasticFloorDefault = 1.0

func heteroskedasticSD(simulated float64, cfg config.LikelihoodConfig) float64 {
	floor := cfg.Floor
	if floor <= 0 {
		floor = heteroskedasticFloorDefault
	}
	mean := simulated
	if mean < floor {
		mean = floor
	}
	return cfg.CoeffVar * mean
}

func clampNonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
