package studyhub

import "errors"

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrAlreadyMember     = errors.New("already a member of this session")
	ErrSessionFull       = errors.New("session is full")
	ErrNotAMember        = errors.New("not a member of this session")
	ErrHostLeave         = errors.New("the host cannot leave their own session")
	ErrAlreadyWaitlisted = errors.New("already on the waitlist")
	ErrNotWaitlisted     = errors.New("not on the waitlist")
	ErrSessionHasSpots   = errors.New("session has open spots, join directly")
	ErrForbidden         = errors.New("only the session owner can do this")
	ErrInvalidSession    = errors.New("invalid session")
	ErrEmptyMessage      = errors.New("message text is empty")

	// ErrNotificationDelivery wraps notifier failures. It is logged, never returned
	// from a membership operation.
	ErrNotificationDelivery = errors.New("notification delivery failed")
)
