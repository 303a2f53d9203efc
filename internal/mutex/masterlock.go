// Package mutex implements the cluster-wide write lock: a single
// binary semaphore held by the master node and requested over the wire
// by whichever node wants to start a quorum round. It mirrors the
// write_lock threading.Semaphore() the coordination core was built
// around, as a buffered channel of capacity 1; the round-progress
// bookkeeping lives in quorum.Round instead.
package mutex

import (
	"context"

	"github.com/nomadgto/dist-syst/internal/transport"
	"github.com/nomadgto/dist-syst/internal/wire"
)

// MasterLock is the local, in-process side of the lock: the master
// node acquires it before granting AuthorizedPermission to a caller,
// and releases it on ReleasePermission. A non-master node never
// touches this directly — it talks to the master's lock over the wire
// via RequestPermission/ReleasePermission.
type MasterLock struct {
	writeLock chan struct{}
}

// NewMasterLock returns an unheld lock, ready to Acquire.
func NewMasterLock() *MasterLock {
	return &MasterLock{writeLock: make(chan struct{}, 1)}
}

// Acquire blocks until the lock is free or ctx is done. It is called by
// the master's own request handler on behalf of whichever node sent
// AcquirePermission — including the master itself, when it is the one
// initiating a round.
func (l *MasterLock) Acquire(ctx context.Context) error {
	select {
	case l.writeLock <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees the lock. Calling Release on an unheld lock is a no-op
// rather than a panic — a duplicate release_permission message should
// never wedge the node.
func (l *MasterLock) Release() {
	select {
	case <-l.writeLock:
	default:
	}
}

// RequestPermission asks the master at masterAddr for the write lock
// and blocks for AuthorizedPermission. A TransportError bubbles up
// unchanged so the caller can tell a genuinely dead master (the
// failover trigger) apart from a malformed reply. Any non-
// AuthorizedPermission reply is a ProtocolError.
func RequestPermission(masterAddr string) error {
	reply, err := transport.Send(masterAddr, []byte(wire.EncodeControl(wire.ControlMessage{Kind: wire.AcquirePermission})), true)
	if err != nil {
		return err
	}
	msg, ok, err := wire.DecodeControl(string(reply))
	if err != nil {
		return err
	}
	if !ok || msg.Kind != wire.AuthorizedPermission {
		return wire.NewProtocolError("expected authorized_permission, got %q", string(reply))
	}
	return nil
}

// ReleasePermission tells the master at masterAddr to free the lock.
// It is fire-and-forget — the source never waits for a reply here
// either.
func ReleasePermission(masterAddr string) error {
	_, err := transport.Send(masterAddr, []byte(wire.EncodeControl(wire.ControlMessage{Kind: wire.ReleasePermission})), false)
	return err
}
