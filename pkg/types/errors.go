package types

import "errors"

// Error kinds surfaced by the case core. Every error returned from
// internal/cases matches exactly one of these with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidState      = errors.New("invalid state")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrAlreadyAssigned   = errors.New("already assigned")
	ErrNotOwner          = errors.New("not owner")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrInternal          = errors.New("internal error")
)

// ErrConditionFailed is returned by stores when a conditional case update
// matched no row. The core translates it into one of the kinds above.
var ErrConditionFailed = errors.New("case update precondition failed")

var errorKinds = []struct {
	err  error
	name string
}{
	{ErrNotFound, "not_found"},
	{ErrInvalidState, "invalid_state"},
	{ErrInvalidTransition, "invalid_transition"},
	{ErrAlreadyAssigned, "already_assigned"},
	{ErrNotOwner, "not_owner"},
	{ErrInvalidArgument, "invalid_argument"},
	{ErrPermissionDenied, "permission_denied"},
	{ErrInternal, "internal"},
}

// ErrorKind returns the stable name of the error kind carried by err, or
// "internal" when err is not classified.
func ErrorKind(err error) string {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "internal"
}
