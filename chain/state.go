// Package chain implements the Chain State and MCMC Driver of spec.md §3/§4.6:
// the dual-chain (global + chimeric) Metropolis algorithm over a
// paramstore.Sample, driven by a proposal/simulator/likelihood/prior
// pipeline per iteration. The per-slot iteration shape — generate a
// candidate, score it, apply a single serialized accept/reject decision to
// shared state — follows the worker/estimator split in
// reinforcement/learning.go's alphaMonteCarloVanillaTrain.
package chain

import (
	"github.com/hopkinsidd/flepimop-inference/atomic_float"
	"github.com/hopkinsidd/flepimop-inference/paramstore"
)

// Book is one parameter book (global Theta^G or chimeric Theta^C, spec.md
// §3) together with its cached score so repeated evaluation of an unchanged
// sample is never needed.
type Book struct {
	Sample          paramstore.Sample
	LogPrior        float64
	LogLik          float64
	PerSubpopLogLik map[string]float64
}

// Score is LogPrior + LogLik, the scalar the Metropolis ratio compares.
func (b Book) Score() float64 {
	return b.LogPrior + b.LogLik
}

// State is one slot's full chain state: both books, the iteration/block
// position, and the running counters the monitor/metrics packages read
// concurrently via their Atomic* accessors.
type State struct {
	Slot  int
	Block int

	Global   Book
	Chimeric Book

	Iteration         int
	LastAcceptedIndex int

	acceptedGlobal  *atomic_float.AtomicFloat64
	proposedGlobal  *atomic_float.AtomicFloat64
	acceptedChim    *atomic_float.AtomicFloat64
	proposedChim    *atomic_float.AtomicFloat64
}

// NewState seeds a fresh chain state from an initial sample, score identical
// for both books (global and chimeric start from the same draw, per §3).
func NewState(slot int, initial paramstore.Sample, logPrior, logLik float64, perSubpop map[string]float64) *State {
	book := Book{Sample: initial, LogPrior: logPrior, LogLik: logLik, PerSubpopLogLik: copyMap(perSubpop)}
	return &State{
		Slot:           slot,
		Global:         book,
		Chimeric:       Book{Sample: initial.Copy(), LogPrior: logPrior, LogLik: logLik, PerSubpopLogLik: copyMap(perSubpop)},
		acceptedGlobal: atomic_float.NewAtomicFloat64(0),
		proposedGlobal: atomic_float.NewAtomicFloat64(0),
		acceptedChim:   atomic_float.NewAtomicFloat64(0),
		proposedChim:   atomic_float.NewAtomicFloat64(0),
	}
}

func copyMap(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// RecordGlobal updates the global acceptance counters; call after every
// global-chain iteration regardless of accept/reject outcome.
func (s *State) RecordGlobal(accepted bool) {
	s.proposedGlobal.AtomicAdd(1)
	if accepted {
		s.acceptedGlobal.AtomicAdd(1)
		// RunSlot advances Iteration after step returns, so the accepted
		// sample is the one reported under Iteration+1.
		s.LastAcceptedIndex = s.Iteration + 1
	}
}

// RecordChimeric updates the chimeric acceptance counters.
func (s *State) RecordChimeric(accepted bool) {
	s.proposedChim.AtomicAdd(1)
	if accepted {
		s.acceptedChim.AtomicAdd(1)
	}
}

// GlobalAcceptRate returns the running global acceptance fraction, safe to
// call concurrently from the monitor/metrics goroutines.
func (s *State) GlobalAcceptRate() float64 {
	proposed := s.proposedGlobal.AtomicRead()
	if proposed == 0 {
		return 0
	}
	return s.acceptedGlobal.AtomicRead() / proposed
}

// ChimericAcceptRate returns the running chimeric acceptance fraction.
func (s *State) ChimericAcceptRate() float64 {
	proposed := s.proposedChim.AtomicRead()
	if proposed == 0 {
		return 0
	}
	return s.acceptedChim.AtomicRead() / proposed
}
