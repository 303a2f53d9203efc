// Package wire implements the on-wire mutation codec and control-message
// grammar shared by every branch node, plus the error taxonomy used to
// classify failures as they cross the transport boundary.
package wire

import "fmt"

// ValidationError covers duplicate keys, unknown entities, malformed
// fields and failed field validation. The store returns it when a
// decided command fails a check at apply time; the UI checks duplicate
// usernames, cards and article codes itself before a round is initiated.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "validation: " + e.Reason }

// NewValidationError builds a ValidationError with a formatted reason.
func NewValidationError(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// TransportError covers ConnectionRefused / NoRouteToHost / Timeout
// reaching a peer. Kind identifies which of the three it was so callers
// can decide between triggering failover and excluding a participant.
type TransportError struct {
	Peer string
	Kind TransportErrorKind
	Err  error
}

// TransportErrorKind enumerates the network failure modes callers need
// to distinguish — a dead master triggers failover, a plain timeout does
// not.
type TransportErrorKind int

const (
	ConnectionRefused TransportErrorKind = iota
	NoRouteToHost
	Timeout
)

func (k TransportErrorKind) String() string {
	switch k {
	case ConnectionRefused:
		return "connection_refused"
	case NoRouteToHost:
		return "no_route_to_host"
	case Timeout:
		return "timeout"
	default:
		return "unknown"
	}
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s reaching %s: %v", e.Kind, e.Peer, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError covers malformed commands, unknown verbs, and oversized
// frames. It is logged and dropped; the round proceeds.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string { return "protocol: " + e.Reason }

// NewProtocolError builds a ProtocolError with a formatted reason.
func NewProtocolError(format string, args ...any) error {
	return &ProtocolError{Reason: fmt.Sprintf(format, args...)}
}

// StoreError covers constraint violations at apply time. It should not
// occur if every peer decided the same command; it is logged and the
// round is still considered applied.
type StoreError struct {
	Reason string
	Err    error
}

func (e *StoreError) Error() string { return fmt.Sprintf("store: %s: %v", e.Reason, e.Err) }
func (e *StoreError) Unwrap() error { return e.Err }

// NewStoreError wraps err as a StoreError.
func NewStoreError(reason string, err error) error {
	return &StoreError{Reason: reason, Err: err}
}
