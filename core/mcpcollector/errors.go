package mcpcollector

import "fmt"

// TransportError wraps a network or protocol-level failure talking to an
// MCP server (connection refused, malformed JSON-RPC envelope, handshake
// failure). Per spec §4.9, in single-server mode this is a process-level
// scan failure; in multi-server mode the caller records the target with
// zero items and an error meta field instead of aborting the whole scan.
type TransportError struct {
	Server string
	Op     string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("mcpcollector: %s: %s: %v", e.Server, e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func newTransportError(server, op string, err error) *TransportError {
	return &TransportError{Server: server, Op: op, Err: err}
}
