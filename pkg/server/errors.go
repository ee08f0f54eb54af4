package server

import (
	"errors"
	"fmt"

	werrors "github.com/vango-go/weft/internal/errors"
	"github.com/vango-go/weft/pkg/protocol"
)

// Sentinel errors for session and server conditions.
var (
	// ErrSessionClosed is returned when an operation is attempted on a closed session.
	ErrSessionClosed = errors.New("server: session closed")

	// ErrMaxSessionsReached is returned when the session limit is reached.
	ErrMaxSessionsReached = errors.New("server: max sessions reached")

	// ErrEventQueueFull is returned when a session loop cannot take another event.
	ErrEventQueueFull = errors.New("server: event queue full")

	// ErrNilMount is returned by New without an application to mount.
	ErrNilMount = errors.New("server: nil mount")
)

// SessionError wraps an error with session context.
type SessionError struct {
	SessionID string
	Op        string // Operation that failed
	Err       error  // Underlying error
}

// Error returns the error message with session context.
func (e *SessionError) Error() string {
	if e.SessionID == "" {
		return fmt.Sprintf("server: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("server: session %s: %s: %v", e.SessionID, e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *SessionError) Unwrap() error {
	return e.Err
}

// NewSessionError creates a new SessionError.
func NewSessionError(sessionID, op string, err error) *SessionError {
	return &SessionError{SessionID: sessionID, Op: op, Err: err}
}

// protocolError classifies a decode failure under its registry code.
func protocolError(err error) *werrors.Error {
	switch {
	case errors.Is(err, protocol.ErrUnknownChange), errors.Is(err, protocol.ErrUnknownNodeKind):
		return werrors.FromError(err, "E061")
	case errors.Is(err, protocol.ErrAllocationTooLarge),
		errors.Is(err, protocol.ErrCollectionTooLarge),
		errors.Is(err, protocol.ErrMaxDepthExceeded),
		errors.Is(err, protocol.ErrFrameTooLarge):
		return werrors.FromError(err, "E062")
	default:
		return werrors.FromError(err, "E060")
	}
}
