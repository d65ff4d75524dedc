package cart

type StatusCode int

const (
	StatusInvalidArgument StatusCode = iota
	StatusFailedPrecondition
)

// Error message constants for the cart domain.
const (
	ErrMsgCartEmpty     = "Cart is empty"
	ErrMsgNoSession     = "No active session"
	ErrMsgSyncerClosed  = "Cart sync is closed"
	ErrMsgTokenRequired = "Session token is required"
)

func (s StatusCode) String() string {
	switch s {
	case StatusInvalidArgument:
		return "INVALID_ARGUMENT"
	case StatusFailedPrecondition:
		return "FAILED_PRECONDITION"
	default:
		return "UNKNOWN"
	}
}

type CommandError struct {
	Code    StatusCode
	Message string
}

func (e *CommandError) Error() string {
	return e.Message
}

func NewInvalidArgument(message string) *CommandError {
	return &CommandError{Code: StatusInvalidArgument, Message: message}
}

func NewFailedPrecondition(message string) *CommandError {
	return &CommandError{Code: StatusFailedPrecondition, Message: message}
}

var (
	// ErrEmptyCart rejects a checkout of an empty cart.
	ErrEmptyCart = NewFailedPrecondition(ErrMsgCartEmpty)
	// ErrNoSession rejects operations that need an authenticated session.
	ErrNoSession = NewFailedPrecondition(ErrMsgNoSession)
	// ErrSyncerClosed is returned by a Syncer after Close.
	ErrSyncerClosed = NewFailedPrecondition(ErrMsgSyncerClosed)
	// ErrTokenRequired rejects a server call without a session token.
	ErrTokenRequired = NewInvalidArgument(ErrMsgTokenRequired)
)
