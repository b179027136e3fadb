package bassethound

import (
	"errors"
	"fmt"
)

// ErrConnectionClosed is returned by calls made on a client whose
// connection has been closed, locally or by the peer.
var ErrConnectionClosed = errors.New("connection closed")

// CommandError is a command the extension received and rejected
// (a reply frame with success=false).
type CommandError struct {
	CommandID string
	Type      string
	Message   string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed: %s", e.Type, e.Message)
}
