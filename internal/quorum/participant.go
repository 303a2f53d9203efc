package quorum

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nomadgto/dist-syst/internal/membership"
	"github.com/nomadgto/dist-syst/internal/store"
	"github.com/nomadgto/dist-syst/internal/transport"
	"github.com/nomadgto/dist-syst/internal/wire"
)

// DefaultRoundTimeout bounds how long a Participant or Coordinator waits
// to collect every peer's vote before deciding with whatever arrived. The source
// this was built from spins forever on `while count < N: pass`; a
// bounded wait is required so one unreachable peer cannot wedge a node
// indefinitely (see the round's own design notes on timeout handling).
const DefaultRoundTimeout = 10 * time.Second

// Participant is the receiving side of a quorum round: FORWARD, COLLECT,
// DECIDE, APPLY-LOCAL, NOTIFY-DONE. Every live node runs one, including
// the node acting as master.
type Participant struct {
	registry     *membership.Registry
	store        *store.Store
	log          *logrus.Entry
	roundTimeout time.Duration

	mu      sync.Mutex
	current *Round
}

// NewParticipant builds a Participant bound to registry and store.
func NewParticipant(registry *membership.Registry, st *store.Store, log *logrus.Entry) *Participant {
	return &Participant{
		registry:     registry,
		store:        st,
		log:          log,
		roundTimeout: DefaultRoundTimeout,
	}
}

// HandleStart processes an inbound StartConsensus control message: it
// is the FORWARD step. It records the initiator's own copy of the
// command, relays a ContinueConsensus to every active peer other than
// itself and the initiator, waits
// (bounded) to collect their copies back, decides, applies locally, and
// finally reports the decided command back to the initiator via
// ConsensusOver so the initiator can fold it into its own vote rather
// than trusting its own unreviewed proposal.
func (p *Participant) HandleStart(msg wire.ControlMessage) {
	selfID := p.registry.SelfID()
	peers := p.registry.ActivePeersExcluding(selfID)

	forwardTargets := make([]membership.Node, 0, len(peers))
	for _, n := range peers {
		if n.ID != msg.SenderID {
			forwardTargets = append(forwardTargets, n)
		}
	}

	round := newRound(msg.SenderID, len(forwardTargets)+1)
	p.mu.Lock()
	p.current = round
	p.mu.Unlock()

	round.recordVote(msg.SenderID, msg.Command)

	continueMsg := []byte(wire.EncodeControl(wire.ControlMessage{
		Kind: wire.ContinueConsensus, SenderID: selfID, Command: msg.Command,
	}))
	forwardAddrs := make([]string, len(forwardTargets))
	for i, n := range forwardTargets {
		forwardAddrs[i] = n.IP
	}
	for _, r := range transport.Broadcast(forwardAddrs, continueMsg, broadcastSendTimeout) {
		if r.Err != nil {
			p.log.WithError(r.Err).WithField("peer", r.Addr).Warn("quorum: forward failed")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.roundTimeout)
	defer cancel()
	if err := round.wait(ctx); err != nil {
		p.log.WithError(err).Warn("quorum: timed out collecting votes, deciding with partial set")
	}

	op, err := round.decide()
	if err != nil {
		p.log.WithError(err).Error("quorum: could not decide round")
		return
	}
	if err := p.store.Apply(op); err != nil {
		p.log.WithError(err).Error("quorum: apply-local failed")
	}

	initiator, ok := p.registry.Node(msg.SenderID)
	if !ok {
		p.log.WithField("initiator", msg.SenderID).Error("quorum: unknown initiator, cannot notify completion")
		return
	}
	over := []byte(wire.EncodeControl(wire.ControlMessage{
		Kind: wire.ConsensusOver, SenderID: selfID, Command: wire.Encode(op),
	}))
	if _, err := transport.Send(initiator.IP, over, false); err != nil {
		p.log.WithError(err).Warn("quorum: failed to notify initiator of completion")
	}
}

// HandleContinue processes an inbound ContinueConsensus message: it is
// the COLLECT step, recording one more peer's copy of the command into
// whichever round is currently active on this node.
func (p *Participant) HandleContinue(msg wire.ControlMessage) {
	p.mu.Lock()
	round := p.current
	p.mu.Unlock()

	if round == nil {
		p.log.WithField("sender", msg.SenderID).Warn("quorum: continue_consensus with no active round")
		return
	}
	round.recordVote(msg.SenderID, msg.Command)
}
