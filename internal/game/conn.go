package game

import (
	"errors"
	"time"
)

// ErrReceiveTimeout is returned by Conn.ReceiveTimeout when the deadline
// expires before a message arrives. It is the only receive failure that does
// not terminate a session.
var ErrReceiveTimeout = errors.New("receive timed out")

// Conn is the duplex text channel a session talks over. Implementations must
// allow concurrent senders (the two tasks of a session both write) but only
// one task per session receives.
type Conn interface {
	Send(text string) error
	SendJSON(v any) error
	Receive() (string, error)
	ReceiveTimeout(timeout time.Duration) (string, error)
}
