// Package errs implements the error taxonomy of the inference core (see
// spec.md §7). Every fatal or recorded failure in the system is wrapped in a
// *Error carrying a Kind, so callers can both log a structured record and
// make the fatal/non-fatal decision the taxonomy requires without string
// matching.
package errs

import "fmt"

// Kind identifies one of the fixed error categories the inference core can
// raise. The set is closed; chain/failure.go's FailureTracker inspects it to
// decide fatal-vs-retryable behavior.
type Kind string

const (
	// KindConfiguration marks a missing required section or invalid shape in
	// the parsed configuration. Always fatal at startup.
	KindConfiguration Kind = "configuration"
	// KindObservation marks a missing file or unparseable row in the
	// observation bundle. Always fatal at startup.
	KindObservation Kind = "observation"
	// KindSimulator marks a simulator panic/error or a malformed trajectory.
	// Treated as an iteration rejection; counted toward a per-slot failure
	// threshold.
	KindSimulator Kind = "simulator"
	// KindNumeric marks a non-finite likelihood or prior value. Treated as an
	// iteration rejection.
	KindNumeric Kind = "numeric"
	// KindPersistence marks a failed artifact write or read. Fatal for the
	// slot.
	KindPersistence Kind = "persistence"
	// KindResume marks missing or inconsistent prior-run artifacts. Fatal
	// before iteration 0.
	KindResume Kind = "resume"
)

// Error is a structured, taxonomized error. Subpop and Iteration are optional
// context, set to their zero values when not applicable.
type Error struct {
	Kind      Kind
	Subpop    string
	Iteration int
	Slot      int
	Err       error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Kind, e.Err)
	if e.Subpop != "" {
		msg = fmt.Sprintf("%s (subpop=%s)", msg, e.Subpop)
	}
	if e.Iteration > 0 {
		msg = fmt.Sprintf("%s (iteration=%d)", msg, e.Iteration)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// New wraps err under the given Kind.
func New(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// WithIteration returns a copy of e annotated with slot/iteration context.
func (e *Error) WithIteration(slot, iteration int) *Error {
	cp := *e
	cp.Slot = slot
	cp.Iteration = iteration
	return &cp
}

// WithSubpop returns a copy of e annotated with a subpopulation id.
func (e *Error) WithSubpop(subpop string) *Error {
	cp := *e
	cp.Subpop = subpop
	return &cp
}

// Fatal reports whether errors of this kind are never retried, per the
// policy table in spec.md §7: a persistence error halts its slot, the other
// fatal kinds halt the whole run. Simulator and Numeric errors are NOT fatal by
// themselves — they are rejections, possibly counted toward a threshold that
// the driver enforces separately.
func (k Kind) Fatal() bool {
	switch k {
	case KindConfiguration, KindObservation, KindPersistence, KindResume:
		return true
	default:
		return false
	}
}
