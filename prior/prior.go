// Package prior implements the per-entry prior log-densities of spec.md
// §4.5 and the hierarchical group-normality term. Densities are grounded in
// the same "small pure numeric kernel, no simulator dependency" style as the
// teacher's atomic_float package: stateless functions over value types, easy
// to unit test in isolation from the chain driver.
package prior

import (
	"math"
	"math/rand"

	"github.com/hopkinsidd/flepimop-inference/paramstore"
)

const tiny = 1e-300

// LogDensity returns log p(value | spec). Values outside a declared support
// bound (uniform, or truncated_normal's [Lower,Upper]) get math.Inf(-1),
// which the chain driver treats as a hard rejection once combined into the
// acceptance ratio.
func LogDensity(value float64, spec paramstore.PriorSpec) float64 {
	switch spec.Family {
	case paramstore.PriorNormal:
		return logNormalDensity(value, spec.Mean, spec.SD)
	case paramstore.PriorUniform:
		if value < spec.Lower || value > spec.Upper {
			return math.Inf(-1)
		}
		width := spec.Upper - spec.Lower
		if width <= 0 {
			return math.Inf(-1)
		}
		return -math.Log(width)
	case paramstore.PriorTruncatedNormal:
		if value < spec.Lower || value > spec.Upper {
			return math.Inf(-1)
		}
		z := logNormalDensity(value, spec.Mean, spec.SD)
		norm := truncationMass(spec.Mean, spec.SD, spec.Lower, spec.Upper)
		if norm <= tiny {
			return math.Inf(-1)
		}
		return z - math.Log(norm)
	default:
		// No declared prior: treat as an improper flat prior (contributes 0).
		return 0
	}
}

// Draw samples one value from spec using r, for the MCMC driver's
// chain-initialization step (spec.md §4.6: "drawn from the prior"). A
// truncated_normal draw rejection-samples the untruncated normal until it
// lands in [Lower, Upper]; an undeclared (zero-value) family returns current
// unchanged, so entries with no prior keep their configured value.
func Draw(r *rand.Rand, spec paramstore.PriorSpec, current float64) float64 {
	switch spec.Family {
	case paramstore.PriorNormal:
		return r.NormFloat64()*spec.SD + spec.Mean
	case paramstore.PriorUniform:
		if spec.Upper <= spec.Lower {
			return current
		}
		return spec.Lower + r.Float64()*(spec.Upper-spec.Lower)
	case paramstore.PriorTruncatedNormal:
		if spec.Upper <= spec.Lower {
			return current
		}
		for attempt := 0; attempt < 100; attempt++ {
			v := r.NormFloat64()*spec.SD + spec.Mean
			if v >= spec.Lower && v <= spec.Upper {
				return v
			}
		}
		return math.Min(math.Max(current, spec.Lower), spec.Upper)
	default:
		return current
	}
}

func logNormalDensity(x, mean, sd float64) float64 {
	if sd <= 0 {
		if x == mean {
			return 0
		}
		return math.Inf(-1)
	}
	z := (x - mean) / sd
	return -0.5*z*z - math.Log(sd) - 0.5*math.Log(2*math.Pi)
}

// truncationMass is Phi((upper-mean)/sd) - Phi((lower-mean)/sd), the
// probability mass the untruncated normal places inside [lower,upper].
func truncationMass(mean, sd, lower, upper float64) float64 {
	if sd <= 0 {
		if mean >= lower && mean <= upper {
			return 1
		}
		return 0
	}
	return stdNormalCDF((upper-mean)/sd) - stdNormalCDF((lower-mean)/sd)
}

func stdNormalCDF(z float64) float64 {
	return 0.5 * math.Erfc(-z/math.Sqrt2)
}

// SampleLogPrior sums LogDensity over every inferable entry of s that
// carries a non-default prior, across the SNPI, HNPI and HPAR groups (SEED
// and INIT entries carry no per-entry prior). This is the unregularized prior
// term combined with the hierarchical term H(Theta) in LogPosteriorDensity
// (hierarchical.go) to produce the full log-prior used by the MCMC
// acceptance ratio.
func SampleLogPrior(s paramstore.Sample) float64 {
	total := 0.0
	for _, e := range s.SNPI {
		if e.Inferable {
			total += LogDensity(e.Value, e.Prior)
		}
	}
	for _, e := range s.HNPI {
		if e.Inferable {
			total += LogDensity(e.Value, e.Prior)
		}
	}
	for _, e := range s.HPAR {
		if e.Inferable {
			total += LogDensity(e.Value, e.Prior)
		}
	}
	for _, e := range s.INIT {
		if e.Inferable {
			// INIT entries carry no per-entry PriorSpec in the current schema;
			// their regularization is purely via renormalization, not a prior.
			_ = e
		}
	}
	return total
}
