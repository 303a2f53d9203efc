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

// Coordinator is the initiating side of a quorum round: INITIATE,
// COLLECT, DECIDE, APPLY-LOCAL, COMPLETE. It assumes the caller has
// already acquired the master-mutex write lock — Run only performs the
// broadcast, the collect/decide, and its own local apply; it does not
// touch the lock. The initiator's own proposal is only one vote among
// the round's — it defers to the same plurality decision every
// participant reaches, rather than applying its unreviewed input.
type Coordinator struct {
	registry     *membership.Registry
	store        *store.Store
	log          *logrus.Entry
	roundTimeout time.Duration

	mu      sync.Mutex
	current *Round
}

// broadcastSendTimeout bounds how long Run waits for its StartConsensus
// fan-out to finish writing to every peer's socket — this is not the
// round's collection wait, just the initial send.
const broadcastSendTimeout = 2 * time.Second

// NewCoordinator builds a Coordinator bound to registry and store.
func NewCoordinator(registry *membership.Registry, st *store.Store, log *logrus.Entry) *Coordinator {
	return &Coordinator{
		registry:     registry,
		store:        st,
		log:          log,
		roundTimeout: DefaultRoundTimeout,
	}
}

// Run broadcasts op as a StartConsensus to every other active node,
// records op as its own vote, collects each participant's decided copy
// back via ConsensusOver, and applies whichever command wins the
// plurality — not necessarily op itself, if enough participants
// disagreed with the initiator's own proposal.
func (c *Coordinator) Run(op wire.Op) error {
	selfID := c.registry.SelfID()
	peers := c.registry.ActivePeersExcluding(selfID)

	round := newRound(selfID, len(peers)+1)
	round.recordVote(selfID, wire.Encode(op))
	c.mu.Lock()
	c.current = round
	c.mu.Unlock()

	startMsg := []byte(wire.EncodeControl(wire.ControlMessage{
		Kind: wire.StartConsensus, SenderID: selfID, Command: wire.Encode(op),
	}))
	peerAddrs := make([]string, len(peers))
	for i, peer := range peers {
		peerAddrs[i] = peer.IP
	}
	for _, r := range transport.Broadcast(peerAddrs, startMsg, broadcastSendTimeout) {
		if r.Err != nil {
			c.log.WithError(r.Err).WithField("peer", r.Addr).Warn("quorum: start_consensus send failed")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.roundTimeout)
	defer cancel()
	if err := round.wait(ctx); err != nil {
		c.log.WithError(err).Warn("quorum: timed out collecting consensus_over acks, deciding with partial set")
	}

	decided, err := round.decide()
	if err != nil {
		return err
	}
	return c.store.Apply(decided)
}

// NotifyConsensusOver is called by the router when a ConsensusOver
// control message arrives, recording voterID's decided command into
// whichever round this node is currently coordinating.
func (c *Coordinator) NotifyConsensusOver(voterID int, command string) {
	c.mu.Lock()
	round := c.current
	c.mu.Unlock()
	if round == nil {
		c.log.WithField("voter", voterID).Warn("quorum: consensus_over with no outstanding round")
		return
	}
	round.recordVote(voterID, command)
}
