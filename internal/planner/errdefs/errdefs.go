// Package errdefs defines the session-planning pipeline's closed set of
// failure kinds. None of these are fatal: the pipeline always returns a
// SessionPlan instead of returning a Go error. Plan appends
// InconsistentInput and EmptyFeasiblePool events to SessionPlan.Notes.
package errdefs

import "github.com/forgelift/planner/internal/errors"

// Sentinel categories for the four failure kinds the core can surface.
// These wrap the generic errors.DomainError categories from internal/errors
// so observability tooling built against that vocabulary (e.g. the example
// store adapter) keeps working against planner-specific events too.
var (
	// EmptyFeasiblePool: after hard filters, no exercise survives.
	EmptyFeasiblePool = errors.NewValidationMsg("no feasible exercises after hard filters")

	// InconsistentInput: a weekly target is missing for a muscle with a
	// ceiling entry, or a preference id is not found in the library. The
	// caller should ignore the offending entry and continue; this value is
	// combined via go.uber.org/multierr rather than returned directly.
	InconsistentInput = errors.NewValidationMsg("inconsistent input")

	// NumericDegenerate: all candidate total scores are identical
	// (cold-start). Handled by the deterministic name-order tiebreak.
	NumericDegenerate = errors.NewValidationMsg("numeric degenerate: candidate scores tied")

	// ProgressionUnavailable: no history, no baseline, no donor, and no
	// body-weight ratio estimate exists for an exercise's load.
	ProgressionUnavailable = errors.NewValidationMsg("progression unavailable: target load unspecified")
)
