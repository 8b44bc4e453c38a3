// Package compartmental is a minimal SEIR-like forward simulator: the
// concrete Simulator the inference core drives by default. Its day-by-day
// loop (initialize, then Process/Transmit/Update per generation) is modeled
// on contagiongo's SIRSimulation.Run/Update shape (other_examples
// kentwait-contagion sir_simulation.go/epidemic.go), simplified to
// deterministic compartment flows since this system infers aggregate rates
// rather than per-host genetics.
package compartmental

import (
	"context"
	"time"

	"github.com/hopkinsidd/flepimop-inference/config"
	"github.com/hopkinsidd/flepimop-inference/paramstore"
	"github.com/hopkinsidd/flepimop-inference/simulator"
)

// Compartment names one of the model's four stocks.
type Compartment string

const (
	Susceptible Compartment = "S"
	Exposed     Compartment = "E"
	Infectious  Compartment = "I"
	Recovered   Compartment = "R"
)

// Rates are the base per-day transition rates before SNPI/HNPI modifiers are
// applied; Beta is the base transmission rate, SigmaInv/GammaInv are the
// mean incubation and infectious periods in days.
type Rates struct {
	Beta     float64
	SigmaInv float64
	GammaInv float64
}

// Model is a deterministic, discrete-time SEIR forward simulator for one
// or more independent subpopulations (no cross-subpop mixing, matching the
// "subpopulations are independently fit units" framing of spec.md §3).
type Model struct {
	Start, End time.Time
	Subpops    []config.Subpopulation
	Base       Rates
}

// New builds a Model from configuration and a base rate set. Per-subpop
// INIT compartments and SNPI/HNPI-modified rates are resolved per call to
// Simulate, since those vary with the sampled Theta.
func New(cfg *config.Config, base Rates) *Model {
	return &Model{Start: cfg.StartDate, End: cfg.EndDate, Subpops: cfg.Subpopulations, Base: base}
}

// Simulate implements simulator.Simulator. It steps each subpopulation
// forward one day at a time with a forward-Euler update, applying SEIR
// modifiers (SNPI scales Beta, HNPI is reserved for outcome-stage modifiers
// and not consumed here), seeding events, and initial conditions drawn from
// sample.
func (m *Model) Simulate(ctx context.Context, sample paramstore.Sample) (simulator.Trajectory, error) {
	days := int(m.End.Sub(m.Start).Hours()/24) + 1
	traj := simulator.Trajectory{Start: m.Start, End: m.End, Series: map[string]map[string]simulator.Series{}}

	seedsBySubpop := map[string][]paramstore.SeedEvent{}
	for _, e := range sample.SEED {
		seedsBySubpop[e.Subpop] = append(seedsBySubpop[e.Subpop], e)
	}

	for _, sp := range m.Subpops {
		select {
		case <-ctx.Done():
			return simulator.Trajectory{}, ctx.Err()
		default:
		}
		traj.Subpops = append(traj.Subpops, sp.ID)
		s, e, i, r := m.initialState(sp, sample)
		beta := m.r0Multiplier(sp.ID, sample) * m.Base.Beta
		sigma := 1.0 / nonZero(m.Base.SigmaInv, 1)
		gamma := 1.0 / nonZero(m.Base.GammaInv, 1)
		total := s + e + i + r
		if total <= 0 {
			total = 1
		}

		sSeries := make([]float64, days)
		eSeries := make([]float64, days)
		iSeries := make([]float64, days)
		rSeries := make([]float64, days)
		incidence := make([]float64, days)
		dates := make([]time.Time, days)

		for t := 0; t < days; t++ {
			day := m.Start.AddDate(0, 0, t)
			dates[t] = day
			for _, seed := range seedsBySubpop[sp.ID] {
				if sameDay(seed.Date, day) {
					s, e = applySeed(seed, s, e)
				}
			}

			sSeries[t], eSeries[t], iSeries[t], rSeries[t] = s, e, i, r
			newInfections := beta * s * i / total
			incidence[t] = newInfections

			dS := -newInfections
			dE := newInfections - sigma*e
			dI := sigma*e - gamma*i
			dR := gamma * i

			s += dS
			e += dE
			i += dI
			r += dR
			s, e, i, r = clampNonNegative(s), clampNonNegative(e), clampNonNegative(i), clampNonNegative(r)
		}

		traj.Series[sp.ID] = map[string]simulator.Series{
			string(Susceptible): {Dates: dates, Values: sSeries},
			string(Exposed):     {Dates: dates, Values: eSeries},
			string(Infectious):  {Dates: dates, Values: iSeries},
			string(Recovered):   {Dates: dates, Values: rSeries},
			"incidence":         {Dates: dates, Values: incidence},
		}
	}
	return traj, nil
}

func (m *Model) initialState(sp config.Subpopulation, sample paramstore.Sample) (s, e, i, r float64) {
	s = float64(sp.Population)
	for _, ic := range sample.INIT {
		if ic.Subpop != sp.ID {
			continue
		}
		switch Compartment(ic.Compartment) {
		case Susceptible:
			s = ic.Amount
		case Exposed:
			e = ic.Amount
		case Infectious:
			i = ic.Amount
		case Recovered:
			r = ic.Amount
		}
	}
	return s, e, i, r
}

// r0Multiplier folds every SNPI entry targeting "r0" for subpop into a
// single multiplicative factor: modifiers compose multiplicatively, the
// standard convention for transmission-rate reductions (lockdowns, masking).
func (m *Model) r0Multiplier(subpop string, sample paramstore.Sample) float64 {
	mult := 1.0
	for _, mod := range sample.SNPI {
		if mod.Subpop != subpop || mod.Param != "r0" {
			continue
		}
		mult *= (1 + mod.Value)
	}
	if mult < 0 {
		mult = 0
	}
	return mult
}

func applySeed(seed paramstore.SeedEvent, s, e float64) (float64, float64) {
	if Compartment(seed.SourceCompartment) == Susceptible && Compartment(seed.DestCompartment) == Exposed {
		amount := seed.Amount
		if amount > s {
			amount = s
		}
		return s - amount, e + amount
	}
	return s, e
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func clampNonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func nonZero(v, fallback float64) float64 {
	if v == 0 {
		return fallback
	}
	return v
}
