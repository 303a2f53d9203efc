// Package router is the single place an inbound wire payload is decoded
// and dispatched to whichever subsystem owns that control message —
// the master-mutex, the quorum coordinator/participant, or the failover
// controller. The only other caller of wire.DecodeControl is
// mutex.RequestPermission, which decodes the master's reply.
package router

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nomadgto/dist-syst/internal/failover"
	"github.com/nomadgto/dist-syst/internal/membership"
	"github.com/nomadgto/dist-syst/internal/mutex"
	"github.com/nomadgto/dist-syst/internal/quorum"
	"github.com/nomadgto/dist-syst/internal/wire"
)

// AcquireTimeout bounds how long a Router handling AcquirePermission
// waits for the local write lock before giving up on the caller.
const AcquireTimeout = 15 * time.Second

// Router wires a transport.Server's Handler to the coordination core.
type Router struct {
	registry    *membership.Registry
	lock        *mutex.MasterLock
	coordinator *quorum.Coordinator
	participant *quorum.Participant
	failoverCtl *failover.Controller
	log         *logrus.Entry
}

// New builds a Router over the given subsystems.
func New(
	registry *membership.Registry,
	lock *mutex.MasterLock,
	coordinator *quorum.Coordinator,
	participant *quorum.Participant,
	failoverCtl *failover.Controller,
	log *logrus.Entry,
) *Router {
	return &Router{
		registry:    registry,
		lock:        lock,
		coordinator: coordinator,
		participant: participant,
		failoverCtl: failoverCtl,
		log:         log,
	}
}

// Handle implements transport.Handler. It decodes every inbound payload
// with wire.DecodeControl and drops anything that is not a control
// message.
func (r *Router) Handle(remoteAddr string, payload []byte) []byte {
	msg, ok, err := wire.DecodeControl(string(payload))
	if err != nil {
		r.log.WithError(err).WithField("remote", remoteAddr).Warn("router: malformed control message")
		return nil
	}
	if !ok {
		r.log.WithField("remote", remoteAddr).Warn("router: payload did not match any known message")
		return nil
	}

	switch msg.Kind {
	case wire.AcquirePermission:
		return r.handleAcquire()
	case wire.ReleasePermission:
		r.lock.Release()
		return nil
	case wire.StartConsensus:
		go r.participant.HandleStart(msg)
		return nil
	case wire.ContinueConsensus:
		r.participant.HandleContinue(msg)
		return nil
	case wire.ConsensusOver:
		r.coordinator.NotifyConsensusOver(msg.SenderID, msg.Command)
		return nil
	case wire.NewMasterNode:
		r.failoverCtl.HandleNewMasterNode(msg)
		return nil
	default:
		r.log.WithField("kind", msg.Kind).Warn("router: unhandled control message kind")
		return nil
	}
}

func (r *Router) handleAcquire() []byte {
	if !r.registry.IsMasterSelf() {
		r.log.Warn("router: acquire_permission received by a non-master node")
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), AcquireTimeout)
	defer cancel()
	if err := r.lock.Acquire(ctx); err != nil {
		r.log.WithError(err).Warn("router: acquire_permission timed out")
		return nil
	}
	return []byte(wire.EncodeControl(wire.ControlMessage{Kind: wire.AuthorizedPermission}))
}
