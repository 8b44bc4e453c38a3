package prior

import (
	"math"

	"github.com/hopkinsidd/flepimop-inference/paramstore"
)

// HierarchicalGroup is one resolved grouping: the value-array of the named
// parameter entry across every subpop in Subpops, pulled toward their own
// mean with strength Lambda (spec.md §4.5's H(Theta)).
type HierarchicalGroup struct {
	Group     paramstore.Group
	ParamName string
	Subpops   []string
	Lambda    float64
}

// Hierarchical evaluates H(Theta): the sum, over every configured
// hierarchical group, of -Lambda/2 * sum((x_i - xbar)^2), i.e. a
// zero-mean-centered normal pull of each subpopulation's value toward the
// group's own mean rather than toward a fixed external target. Lambda=0
// makes a group a no-op, letting configuration disable hierarchical pull
// per group without removing its declaration.
func Hierarchical(s paramstore.Sample, groups []HierarchicalGroup) float64 {
	total := 0.0
	for _, g := range groups {
		if g.Lambda <= 0 {
			continue
		}
		values := valuesForParam(s, g.Group, g.ParamName, g.Subpops)
		if len(values) < 2 {
			continue
		}
		mean := 0.0
		for _, v := range values {
			mean += v
		}
		mean /= float64(len(values))
		ss := 0.0
		for _, v := range values {
			d := v - mean
			ss += d * d
		}
		total += -0.5 * g.Lambda * ss
	}
	return total
}

func valuesForParam(s paramstore.Sample, group paramstore.Group, param string, subpops []string) []float64 {
	want := make(map[string]bool, len(subpops))
	for _, sp := range subpops {
		want[sp] = true
	}
	var out []float64
	switch group {
	case paramstore.GroupSNPI:
		for _, e := range s.SNPI {
			if e.Param == param && want[e.Subpop] {
				out = append(out, e.Value)
			}
		}
	case paramstore.GroupHNPI:
		for _, e := range s.HNPI {
			if e.Param == param && want[e.Subpop] {
				out = append(out, e.Value)
			}
		}
	case paramstore.GroupHPAR:
		for _, e := range s.HPAR {
			if e.Outcome == param && want[e.Subpop] {
				out = append(out, e.Value)
			}
		}
	}
	return out
}

// LogPosteriorDensity combines the per-entry prior term with the
// hierarchical group term into the full log-prior used by the acceptance
// ratio (§5): log p(Theta) = SampleLogPrior(Theta) + H(Theta). math.IsInf
// propagates unchanged so a hard-bound violation still forces rejection.
func LogPosteriorDensity(s paramstore.Sample, groups []HierarchicalGroup) float64 {
	base := SampleLogPrior(s)
	if math.IsInf(base, -1) {
		return base
	}
	return base + Hierarchical(s, groups)
}
