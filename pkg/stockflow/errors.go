package stockflow

import (
	"errors"
	"fmt"

	"github.com/quayside/stockflow/pkg/recordstore"
)

var (
	// ErrNotFound means a referenced item, location, line or stock unit
	// does not exist; the caller must supply valid references
	ErrNotFound = errors.New("not found")

	// ErrQuantityMismatch means a caller-supplied split or quantity set
	// violates the conservation invariant. Terminal, never retried.
	ErrQuantityMismatch = errors.New("quantity mismatch")

	// ErrInsufficientQuantity means demand exceeds available stock; at
	// batch level this surfaces as partial fulfillment, not a hard failure
	ErrInsufficientQuantity = errors.New("insufficient quantity")

	// ErrInvalidStateTransition means a header status precondition was
	// violated. Terminal, requires user correction.
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrUpstreamUnavailable means a record store call failed; the
	// enclosing batch reports the element and carries on
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrNoStagingLocation means no staging-class location resolves for
	// the warehouse. The legacy system silently fell back to a hardcoded
	// location id here; that is now a hard failure.
	ErrNoStagingLocation = errors.New("no staging location resolved")
)

// classifyStoreErr folds record store failures into the engine taxonomy
func classifyStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, recordstore.ErrNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, recordstore.ErrConflict), errors.Is(err, recordstore.ErrUnavailable):
		return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	default:
		return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
}
