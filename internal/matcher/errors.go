package matcher

import (
	"errors"
	"fmt"
)

// Sentinel kinds for matching errors. Callers classify per-unit failures
// with errors.Is; neither kind aborts a whole run.
var (
	// ErrTransientStore marks a recoverable repository failure. The
	// failing unit of work is abandoned for this cycle and retried
	// naturally on the next run.
	ErrTransientStore = errors.New("transient store failure")

	// ErrInconsistentState marks a dangling reference between the two
	// stores, e.g. a group member with no profile record. The affected
	// record self-heals on a later pass.
	ErrInconsistentState = errors.New("inconsistent store state")
)

func transientErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrTransientStore, err)
}

func inconsistentErr(op string, detail string) error {
	return fmt.Errorf("%s: %w: %s", op, ErrInconsistentState, detail)
}
