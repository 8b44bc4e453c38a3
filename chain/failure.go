package chain

import "github.com/hopkinsidd/flepimop-inference/errs"

// FailureTracker implements spec.md §7's retry-once-then-threshold-abort
// policy for non-fatal (simulator/numeric) iteration failures: a single
// failing iteration is retried once with a fresh proposal; consecutive
// failures reaching the configured threshold abort the slot.
type FailureTracker struct {
	Threshold         int
	consecutive       int
	retriedThisIter   bool
}

// NewFailureTracker builds a tracker with threshold consecutive failures
// before Observe reports an abort.
func NewFailureTracker(threshold int) *FailureTracker {
	return &FailureTracker{Threshold: threshold}
}

// Outcome is the driver's next action after Observe classifies an error.
type Outcome int

const (
	// OutcomeContinue means the iteration succeeded (err was nil); counters reset.
	OutcomeContinue Outcome = iota
	// OutcomeRetry means the iteration should be retried once, in place, with a
	// fresh proposal draw.
	OutcomeRetry
	// OutcomeAbortSlot means the consecutive-failure threshold was reached, or
	// a persistence error was observed.
	OutcomeAbortSlot
	// OutcomeAbortRun means a fatal error (configuration, resume, observation)
	// was observed; the whole run halts, not just this slot.
	OutcomeAbortRun
)

// Observe classifies err (nil meaning the iteration succeeded) and returns
// the driver's next action.
func (f *FailureTracker) Observe(err error) Outcome {
	if err == nil {
		f.consecutive = 0
		f.retriedThisIter = false
		return OutcomeContinue
	}

	if fatal, ok := err.(*errs.Error); ok && fatal.Kind.Fatal() {
		// PersistenceError is "fatal for the slot" (spec.md §7), not the
		// whole run: a write failure on one slot's artifacts says nothing
		// about whether other slots can still make progress. Configuration,
		// observation, and resume errors are all resolved before any slot
		// starts, so in practice they only ever surface here pre-iteration-0
		// and halting the run is the correct response.
		if fatal.Kind == errs.KindPersistence {
			return OutcomeAbortSlot
		}
		return OutcomeAbortRun
	}

	f.consecutive++
	if !f.retriedThisIter {
		f.retriedThisIter = true
		return OutcomeRetry
	}
	if f.consecutive >= f.Threshold {
		return OutcomeAbortSlot
	}
	return OutcomeRetry
}
