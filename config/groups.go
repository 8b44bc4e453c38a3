package config

import (
	"time"

	"github.com/hopkinsidd/flepimop-inference/paramstore"
)

// SupportConfig is the yaml shape of paramstore.Support.
type SupportConfig struct {
	Lower *float64 `yaml:"lower"`
	Upper *float64 `yaml:"upper"`
}

func (s SupportConfig) toSupport() paramstore.Support {
	var out paramstore.Support
	if s.Lower != nil {
		out.HasLower, out.Lower = true, *s.Lower
	}
	if s.Upper != nil {
		out.HasUpper, out.Upper = true, *s.Upper
	}
	return out
}

// PriorConfig is the yaml shape of paramstore.PriorSpec.
type PriorConfig struct {
	Family paramstore.PriorFamily `yaml:"family" validate:"omitempty,oneof=normal truncated_normal uniform"`
	Mean   float64                `yaml:"mean"`
	SD     float64                `yaml:"sd"`
	Lower  float64                `yaml:"lower"`
	Upper  float64                `yaml:"upper"`
}

// ToSpec exposes the resolved paramstore.PriorSpec for callers outside this
// package (prior.ResolveScalar evaluating §6.1's free-standing "priors"
// section against resolved scalar quantities).
func (p PriorConfig) ToSpec() paramstore.PriorSpec {
	return p.toSpec()
}

func (p PriorConfig) toSpec() paramstore.PriorSpec {
	return paramstore.PriorSpec{Family: p.Family, Mean: p.Mean, SD: p.SD, Lower: p.Lower, Upper: p.Upper}
}

// KernelConfig is the yaml shape of paramstore.KernelSpec.
type KernelConfig struct {
	Family paramstore.KernelFamily `yaml:"family" validate:"omitempty,oneof=normal truncated_normal uniform"`
	SD     float64                 `yaml:"sd"`
}

func (k KernelConfig) toSpec() paramstore.KernelSpec {
	return paramstore.KernelSpec{Family: k.Family, SD: k.SD}
}

// ModifierConfig declares one SNPI or HNPI entry (§6.1).
type ModifierConfig struct {
	Name      string        `yaml:"name" validate:"required"`
	Subpop    string        `yaml:"subpop" validate:"required"`
	Param     string        `yaml:"param" validate:"required"`
	Start     time.Time     `yaml:"start"`
	End       time.Time     `yaml:"end"`
	Value     float64       `yaml:"value"`
	Support   SupportConfig `yaml:"support"`
	Prior     PriorConfig   `yaml:"prior"`
	Kernel    KernelConfig  `yaml:"kernel"`
	Inferable bool          `yaml:"inferable"`
}

func (m ModifierConfig) toEntry() paramstore.ModifierEntry {
	return paramstore.ModifierEntry{
		Name: m.Name, Subpop: m.Subpop, Param: m.Param, Start: m.Start, End: m.End, Value: m.Value,
		Support: m.Support.toSupport(), Prior: m.Prior.toSpec(), Kernel: m.Kernel.toSpec(), Inferable: m.Inferable,
	}
}

// OutcomeParamConfig declares one HPAR entry.
type OutcomeParamConfig struct {
	Quantity  paramstore.OutcomeParamKind `yaml:"quantity" validate:"required,oneof=probability delay duration"`
	Subpop    string                      `yaml:"subpop" validate:"required"`
	Outcome   string                      `yaml:"outcome" validate:"required"`
	Value     float64                     `yaml:"value"`
	Support   SupportConfig               `yaml:"support"`
	Prior     PriorConfig                 `yaml:"prior"`
	Kernel    KernelConfig                `yaml:"kernel"`
	Inferable bool                        `yaml:"inferable"`
}

func (o OutcomeParamConfig) toEntry() paramstore.OutcomeParamEntry {
	return paramstore.OutcomeParamEntry{
		Quantity: o.Quantity, Subpop: o.Subpop, Outcome: o.Outcome, Value: o.Value,
		Support: o.Support.toSupport(), Prior: o.Prior.toSpec(), Kernel: o.Kernel.toSpec(), Inferable: o.Inferable,
	}
}

// SeedConfig declares one SEED event.
type SeedConfig struct {
	Date              time.Time `yaml:"date" validate:"required"`
	Subpop            string    `yaml:"subpop" validate:"required"`
	SourceCompartment string    `yaml:"source" validate:"required"`
	DestCompartment   string    `yaml:"destination" validate:"required"`
	Amount            float64   `yaml:"amount"`
	NoPerturb         bool      `yaml:"no_perturb"`
	DateSD            float64   `yaml:"date_sd"`
	AmountSD          float64   `yaml:"amount_sd"`
}

func (s SeedConfig) toEvent() paramstore.SeedEvent {
	return paramstore.SeedEvent{
		Date: s.Date, Subpop: s.Subpop, SourceCompartment: s.SourceCompartment, DestCompartment: s.DestCompartment,
		Amount: s.Amount, NoPerturb: s.NoPerturb, DateSD: s.DateSD, AmountSD: s.AmountSD,
	}
}

// InitialConditionConfig declares one INIT entry.
type InitialConditionConfig struct {
	Subpop      string       `yaml:"subpop" validate:"required"`
	Compartment string       `yaml:"compartment" validate:"required"`
	Amount      float64      `yaml:"amount"`
	Inferable   bool         `yaml:"inferable"`
	Kernel      KernelConfig `yaml:"kernel"`
}

func (i InitialConditionConfig) toEntry() paramstore.InitialConditionEntry {
	return paramstore.InitialConditionEntry{
		Subpop: i.Subpop, Compartment: i.Compartment, Amount: i.Amount, Inferable: i.Inferable, Kernel: i.Kernel.toSpec(),
	}
}

// ToSample builds the declared schema Sample (§4.1) from configuration: the
// initial value of every entry, plus the Support/Prior/Kernel/Inferable
// metadata that never gets persisted to artifacts and must instead be
// recovered from configuration on every load, including resume.
func (c *Config) ToSample() paramstore.Sample {
	var s paramstore.Sample
	if len(c.SEIRModifiers) > 0 {
		s.HasSNPI = true
		for _, m := range c.SEIRModifiers {
			s.SNPI = append(s.SNPI, m.toEntry())
		}
	}
	if len(c.OutcomeModifiers) > 0 {
		s.HasHNPI = true
		for _, m := range c.OutcomeModifiers {
			s.HNPI = append(s.HNPI, m.toEntry())
		}
	}
	if len(c.OutcomeParameters) > 0 {
		s.HasHPAR = true
		for _, o := range c.OutcomeParameters {
			s.HPAR = append(s.HPAR, o.toEntry())
		}
	}
	if len(c.Seeding) > 0 {
		s.HasSEED = true
		for _, sc := range c.Seeding {
			s.SEED = append(s.SEED, sc.toEvent())
		}
	}
	if len(c.InitialConditions) > 0 {
		s.HasINIT = true
		for _, i := range c.InitialConditions {
			s.INIT = append(s.INIT, i.toEntry())
		}
	}
	return s
}
