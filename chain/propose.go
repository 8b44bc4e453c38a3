package chain

import (
	"time"

	"github.com/hopkinsidd/flepimop-inference/paramstore"
	"github.com/hopkinsidd/flepimop-inference/proposal"
	"github.com/hopkinsidd/flepimop-inference/rng"
)

// proposeFull perturbs every inferable entry across all five groups — the
// global chain's full-dimensional proposal. stochastic rounds seed amounts
// to integers after perturbation, per spec.md §4.2, when the configured
// simulator runs in stochastic mode.
func proposeFull(rctx *rng.Context, s paramstore.Sample, start, end time.Time, stochastic bool) paramstore.Sample {
	cp := s.Copy()
	r := rctx.Stream(rng.Proposal)
	if cp.HasSNPI {
		cp.SNPI = proposal.ProposeModifiers(r, cp.SNPI)
	}
	if cp.HasHNPI {
		cp.HNPI = proposal.ProposeModifiers(r, cp.HNPI)
	}
	if cp.HasHPAR {
		cp.HPAR = proposal.ProposeOutcomeParams(r, cp.HPAR)
	}
	if cp.HasSEED {
		cp.SEED = proposal.ProposeSeeding(r, cp.SEED, start, end, stochastic)
	}
	if cp.HasINIT {
		cp.INIT = proposal.ProposeInitial(r, cp.INIT)
	}
	return cp
}

// allSubpops returns the distinct subpopulation ids touched by any group in
// s, in first-seen order across groups.
func allSubpops(s paramstore.Sample) []string {
	seen := map[string]bool{}
	var out []string
	add := func(ids []string) {
		for _, id := range ids {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	add(s.SubpopsOf(paramstore.GroupSNPI))
	add(s.SubpopsOf(paramstore.GroupHNPI))
	add(s.SubpopsOf(paramstore.GroupHPAR))
	add(s.SubpopsOf(paramstore.GroupSEED))
	add(s.SubpopsOf(paramstore.GroupINIT))
	return out
}

// mergeSubpopInto returns a copy of base with every entry belonging to
// subpop replaced by candidate's corresponding entry — the chimeric accept
// path of §4.6 step 5 ("update the subpopulation's entries of Theta_m^C to
// Theta*'s entries; leave others unchanged"), applied against the single
// jointly-proposed Theta* rather than a fresh per-subpop proposal.
func mergeSubpopInto(base, candidate paramstore.Sample, subpop string) paramstore.Sample {
	out := base.Copy()
	replaceModifiers := func(dst, src []paramstore.ModifierEntry) []paramstore.ModifierEntry {
		bySubpop := map[string]paramstore.ModifierEntry{}
		for _, e := range src {
			if e.Subpop == subpop {
				bySubpop[e.ID()] = e
			}
		}
		outSlice := append([]paramstore.ModifierEntry(nil), dst...)
		for i, e := range outSlice {
			if e.Subpop != subpop {
				continue
			}
			if v, ok := bySubpop[e.ID()]; ok {
				outSlice[i] = v
			}
		}
		return outSlice
	}
	if out.HasSNPI {
		out.SNPI = replaceModifiers(out.SNPI, candidate.SNPI)
	}
	if out.HasHNPI {
		out.HNPI = replaceModifiers(out.HNPI, candidate.HNPI)
	}
	if out.HasHPAR {
		bySubpop := map[string]paramstore.OutcomeParamEntry{}
		for _, e := range candidate.HPAR {
			if e.Subpop == subpop {
				bySubpop[e.ID()] = e
			}
		}
		for i, e := range out.HPAR {
			if e.Subpop != subpop {
				continue
			}
			if v, ok := bySubpop[e.ID()]; ok {
				out.HPAR[i] = v
			}
		}
	}
	if out.HasSEED {
		bySubpop := map[string]paramstore.SeedEvent{}
		for _, e := range candidate.SEED {
			if e.Subpop == subpop {
				bySubpop[e.ID()] = e
			}
		}
		for i, e := range out.SEED {
			if e.Subpop != subpop {
				continue
			}
			if v, ok := bySubpop[e.ID()]; ok {
				out.SEED[i] = v
			}
		}
	}
	if out.HasINIT {
		bySubpop := map[string]paramstore.InitialConditionEntry{}
		for _, e := range candidate.INIT {
			if e.Subpop == subpop {
				bySubpop[e.ID()] = e
			}
		}
		for i, e := range out.INIT {
			if e.Subpop != subpop {
				continue
			}
			if v, ok := bySubpop[e.ID()]; ok {
				out.INIT[i] = v
			}
		}
	}
	return out
}

// restrictToSubpop returns a Sample containing only subpop's entries,
// for scoring the chimeric chain's local, non-hierarchical prior term.
func restrictToSubpop(s paramstore.Sample, subpop string) paramstore.Sample {
	out := paramstore.Sample{HasSNPI: s.HasSNPI, HasHNPI: s.HasHNPI, HasHPAR: s.HasHPAR, HasSEED: s.HasSEED, HasINIT: s.HasINIT}
	for _, e := range s.SNPI {
		if e.Subpop == subpop {
			out.SNPI = append(out.SNPI, e)
		}
	}
	for _, e := range s.HNPI {
		if e.Subpop == subpop {
			out.HNPI = append(out.HNPI, e)
		}
	}
	for _, e := range s.HPAR {
		if e.Subpop == subpop {
			out.HPAR = append(out.HPAR, e)
		}
	}
	for _, e := range s.INIT {
		if e.Subpop == subpop {
			out.INIT = append(out.INIT, e)
		}
	}
	return out
}
