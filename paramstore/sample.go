// Package paramstore implements the Parameter Store (spec.md §4.1): a typed
// container for one parameter sample Theta, with five independently
// addressable groups (§3). Sample is treated as a value type throughout the
// core — proposal kernels and the MCMC driver copy it rather than mutate it
// in place, per the "algorithm assumes value semantics" note in spec.md.
package paramstore

import "time"

// Group names one of the five parameter groups a Sample may carry.
type Group string

const (
	GroupSNPI Group = "seir_modifiers"
	GroupHNPI Group = "outcome_modifiers"
	GroupHPAR Group = "outcome_parameters"
	GroupSEED Group = "seeding"
	GroupINIT Group = "initial_conditions"
)

// AllGroups enumerates Group in the order artifacts are conventionally
// listed; useful for iterating deterministically (e.g. in persistence).
var AllGroups = []Group{GroupSNPI, GroupHNPI, GroupHPAR, GroupSEED, GroupINIT}

// Support bounds the values a perturbable entry may take, per §4.2 ("clip to
// the entry's declared support").
type Support struct {
	HasLower bool
	Lower    float64
	HasUpper bool
	Upper    float64
}

// Clip projects v into the support, a no-op on either side absent a bound.
func (s Support) Clip(v float64) float64 {
	if s.HasLower && v < s.Lower {
		v = s.Lower
	}
	if s.HasUpper && v > s.Upper {
		v = s.Upper
	}
	return v
}

// PriorFamily is the closed set of per-entry prior families (§4.5).
type PriorFamily string

const (
	PriorNormal          PriorFamily = "normal"
	PriorTruncatedNormal PriorFamily = "truncated_normal"
	PriorUniform         PriorFamily = "uniform"
)

// PriorSpec is a declared per-entry prior. Mean/SD apply to normal and
// truncated_normal; Lower/Upper bound uniform and truncated_normal.
type PriorSpec struct {
	Family PriorFamily
	Mean   float64
	SD     float64
	Lower  float64
	Upper  float64
}

// KernelFamily is the closed set of symmetric proposal-kernel families
// (§4.2). All three are symmetric about the current value (or, for uniform,
// the kernel itself is a symmetric jitter, not a fresh draw from the bound
// interval), which is what licenses omitting the Hastings correction.
type KernelFamily string

const (
	KernelNormal         KernelFamily = "normal"
	KernelTruncatedNormal KernelFamily = "truncated_normal"
	KernelUniform        KernelFamily = "uniform"
)

// KernelSpec is a declared per-entry symmetric perturbation kernel.
type KernelSpec struct {
	Family KernelFamily
	SD     float64 // stddev (normal/truncated_normal) or half-width (uniform)
}

// ModifierEntry is one SNPI or HNPI record: a scalar reduction value applied
// to a named simulator parameter, for one subpopulation, over a time window.
type ModifierEntry struct {
	Name      string // modifier name
	Subpop    string
	Param     string // the simulator parameter this modifier scales
	Start     time.Time
	End       time.Time
	Value     float64
	Support   Support
	Prior     PriorSpec
	Kernel    KernelSpec
	Inferable bool
}

// ID returns the composite key (name, subpop, param) identifying this entry
// within its group.
func (m ModifierEntry) ID() string {
	return m.Name + "/" + m.Subpop + "/" + m.Param
}

// OutcomeParamKind is the closed set of HPAR quantities (§3).
type OutcomeParamKind string

const (
	OutcomeProbability OutcomeParamKind = "probability"
	OutcomeDelay       OutcomeParamKind = "delay"
	OutcomeDuration    OutcomeParamKind = "duration"
)

// OutcomeParamEntry is one HPAR record: (quantity, subpop, outcome) -> value.
type OutcomeParamEntry struct {
	Quantity  OutcomeParamKind
	Subpop    string
	Outcome   string
	Value     float64
	Support   Support
	Prior     PriorSpec
	Kernel    KernelSpec
	Inferable bool
}

// ID returns the composite key identifying this entry within HPAR.
func (e OutcomeParamEntry) ID() string {
	return string(e.Quantity) + "/" + e.Subpop + "/" + e.Outcome
}

// SeedEvent is one SEED record (§3): a finite seeding event, optionally
// subject to date/amount perturbation.
type SeedEvent struct {
	Date              time.Time
	Subpop            string
	SourceCompartment string
	DestCompartment   string
	Amount            float64
	NoPerturb         bool
	DateSD            float64 // date_sd: stddev of the integer-day date kernel
	AmountSD          float64 // amount_sd: stddev of the amount kernel
}

// ID returns a key identifying this event within SEED. Seed events are not
// uniquely named in configuration, so the key is positional context plus the
// compartment pair, sufficient for artifact round-tripping within one Sample.
func (e SeedEvent) ID() string {
	return e.Subpop + "/" + e.SourceCompartment + "->" + e.DestCompartment + "@" + e.Date.Format("2006-01-02")
}

// InitialConditionEntry is one INIT record (§3): a compartment's amount for a
// subpopulation at t_start.
type InitialConditionEntry struct {
	Subpop      string
	Compartment string
	Amount      float64
	Inferable   bool
	Kernel      KernelSpec // perturbs the compartment's proportion of the subpop total
}

// ID returns the composite key identifying this entry within INIT.
func (e InitialConditionEntry) ID() string {
	return e.Subpop + "/" + e.Compartment
}

// Sample is one parameter draw Theta: the five groups of §3, each optionally
// absent (HasX false) when configuration declares that group unused.
type Sample struct {
	SNPI []ModifierEntry
	HNPI []ModifierEntry
	HPAR []OutcomeParamEntry
	SEED []SeedEvent
	INIT []InitialConditionEntry

	HasSNPI bool
	HasHNPI bool
	HasHPAR bool
	HasSEED bool
	HasINIT bool
}

// Copy returns a deep-enough copy of s: every group slice is duplicated, so
// mutating the copy's entries (as proposal kernels do) never aliases s.
func (s Sample) Copy() Sample {
	cp := Sample{
		HasSNPI: s.HasSNPI, HasHNPI: s.HasHNPI, HasHPAR: s.HasHPAR,
		HasSEED: s.HasSEED, HasINIT: s.HasINIT,
	}
	if s.SNPI != nil {
		cp.SNPI = append([]ModifierEntry(nil), s.SNPI...)
	}
	if s.HNPI != nil {
		cp.HNPI = append([]ModifierEntry(nil), s.HNPI...)
	}
	if s.HPAR != nil {
		cp.HPAR = append([]OutcomeParamEntry(nil), s.HPAR...)
	}
	if s.SEED != nil {
		cp.SEED = append([]SeedEvent(nil), s.SEED...)
	}
	if s.INIT != nil {
		cp.INIT = append([]InitialConditionEntry(nil), s.INIT...)
	}
	return cp
}

// Get returns the raw group value for dynamic-dispatch callers (persistence,
// generic tooling). Typed callers should prefer the Sample fields directly.
func (s Sample) Get(g Group) interface{} {
	switch g {
	case GroupSNPI:
		return s.SNPI
	case GroupHNPI:
		return s.HNPI
	case GroupHPAR:
		return s.HPAR
	case GroupSEED:
		return s.SEED
	case GroupINIT:
		return s.INIT
	default:
		return nil
	}
}

// Set replaces group g's value, validating the value's shape against the
// group's declared schema. Returns *InvalidParameterShape on mismatch.
func (s *Sample) Set(g Group, value interface{}) error {
	switch g {
	case GroupSNPI:
		v, ok := value.([]ModifierEntry)
		if !ok {
			return &InvalidParameterShape{Group: g, Reason: "expected []ModifierEntry"}
		}
		s.SNPI = v
	case GroupHNPI:
		v, ok := value.([]ModifierEntry)
		if !ok {
			return &InvalidParameterShape{Group: g, Reason: "expected []ModifierEntry"}
		}
		s.HNPI = v
	case GroupHPAR:
		v, ok := value.([]OutcomeParamEntry)
		if !ok {
			return &InvalidParameterShape{Group: g, Reason: "expected []OutcomeParamEntry"}
		}
		s.HPAR = v
	case GroupSEED:
		v, ok := value.([]SeedEvent)
		if !ok {
			return &InvalidParameterShape{Group: g, Reason: "expected []SeedEvent"}
		}
		s.SEED = v
	case GroupINIT:
		v, ok := value.([]InitialConditionEntry)
		if !ok {
			return &InvalidParameterShape{Group: g, Reason: "expected []InitialConditionEntry"}
		}
		s.INIT = v
	default:
		return &InvalidParameterShape{Group: g, Reason: "unknown group"}
	}
	return nil
}

// InferableEntry is one (id, current_value, kernel_spec) triple handed to the
// proposal kernels, per the iter_inferable contract in spec.md §4.1.
type InferableEntry struct {
	ID     string
	Value  float64
	Kernel KernelSpec
}

// IterInferable returns the inferable entries of group g, in declaration
// order, for the Proposal Kernels to perturb.
func (s Sample) IterInferable(g Group) []InferableEntry {
	var out []InferableEntry
	switch g {
	case GroupSNPI:
		for _, e := range s.SNPI {
			if e.Inferable {
				out = append(out, InferableEntry{ID: e.ID(), Value: e.Value, Kernel: e.Kernel})
			}
		}
	case GroupHNPI:
		for _, e := range s.HNPI {
			if e.Inferable {
				out = append(out, InferableEntry{ID: e.ID(), Value: e.Value, Kernel: e.Kernel})
			}
		}
	case GroupHPAR:
		for _, e := range s.HPAR {
			if e.Inferable {
				out = append(out, InferableEntry{ID: e.ID(), Value: e.Value, Kernel: e.Kernel})
			}
		}
	case GroupSEED:
		for _, e := range s.SEED {
			if !e.NoPerturb {
				out = append(out, InferableEntry{ID: e.ID(), Value: e.Amount, Kernel: KernelSpec{Family: KernelNormal, SD: e.AmountSD}})
			}
		}
	case GroupINIT:
		for _, e := range s.INIT {
			if e.Inferable {
				out = append(out, InferableEntry{ID: e.ID(), Value: e.Amount, Kernel: e.Kernel})
			}
		}
	}
	return out
}

// SubpopsOf returns the distinct subpopulation ids touched by group g, in
// first-seen order, used by the chimeric per-subpopulation update path.
func (s Sample) SubpopsOf(g Group) []string {
	seen := map[string]bool{}
	var out []string
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	switch g {
	case GroupSNPI:
		for _, e := range s.SNPI {
			add(e.Subpop)
		}
	case GroupHNPI:
		for _, e := range s.HNPI {
			add(e.Subpop)
		}
	case GroupHPAR:
		for _, e := range s.HPAR {
			add(e.Subpop)
		}
	case GroupSEED:
		for _, e := range s.SEED {
			add(e.Subpop)
		}
	case GroupINIT:
		for _, e := range s.INIT {
			add(e.Subpop)
		}
	}
	return out
}
