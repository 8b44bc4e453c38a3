package prior

import (
	"fmt"
	"strings"

	"github.com/hopkinsidd/flepimop-inference/config"
	"github.com/hopkinsidd/flepimop-inference/paramstore"
)

// GroupsFromConfig converts the configured hierarchical groupings of §4.5
// into the HierarchicalGroup values Hierarchical/LogPosteriorDensity expect.
// HierarchicalGroupConfig.Group already uses the same string values as
// paramstore.Group (seir_modifiers/outcome_modifiers/outcome_parameters).
func GroupsFromConfig(cfgs []config.HierarchicalGroupConfig) []HierarchicalGroup {
	groups := make([]HierarchicalGroup, len(cfgs))
	for i, c := range cfgs {
		groups[i] = HierarchicalGroup{
			Group:     paramstore.Group(c.Group),
			ParamName: c.ParamName,
			Subpops:   c.Subpops,
			Lambda:    c.Lambda,
		}
	}
	return groups
}

// ResolveScalar evaluates spec.md §6.1's free-standing "priors" section: each
// entry's Expr addresses one resolved value in s as "<group>:<id>", where id
// is that entry's ID() within its group (e.g. "snpi:r0_mult/northeast/r0",
// "init:northeast/S"), and sums the resulting prior log-densities. This lets
// configuration attach an additional prior to a quantity already declared in
// one of the five parameter groups, on top of (not instead of) that entry's
// own per-entry PriorSpec.
func ResolveScalar(s paramstore.Sample, cfgs []config.ScalarPriorConfig) (float64, error) {
	total := 0.0
	for _, c := range cfgs {
		value, err := resolveExpr(s, c.Expr)
		if err != nil {
			return 0, fmt.Errorf("scalar prior %q: %w", c.Name, err)
		}
		total += LogDensity(value, c.Prior.ToSpec())
	}
	return total, nil
}

func resolveExpr(s paramstore.Sample, expr string) (float64, error) {
	group, id, ok := strings.Cut(expr, ":")
	if !ok {
		return 0, fmt.Errorf("expr %q must be \"<group>:<id>\"", expr)
	}
	switch group {
	case "snpi":
		for _, e := range s.SNPI {
			if e.ID() == id {
				return e.Value, nil
			}
		}
	case "hnpi":
		for _, e := range s.HNPI {
			if e.ID() == id {
				return e.Value, nil
			}
		}
	case "hpar":
		for _, e := range s.HPAR {
			if e.ID() == id {
				return e.Value, nil
			}
		}
	case "init":
		for _, e := range s.INIT {
			if e.ID() == id {
				return e.Amount, nil
			}
		}
	default:
		return 0, fmt.Errorf("unknown group %q", group)
	}
	return 0, fmt.Errorf("no entry with id %q in group %q", id, group)
}
