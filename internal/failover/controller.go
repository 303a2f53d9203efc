// Package failover implements self-promotion: when a node cannot reach
// the master to acquire the write lock, it declares itself the new
// master, tells every other live node, and retries. There is no
// election vote and no leader lease — the node that happens to notice
// the old master is gone simply takes over. This is the split-brain
// risk the source accepts and so do we; it is not fixed here.
package failover

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nomadgto/dist-syst/internal/membership"
	"github.com/nomadgto/dist-syst/internal/transport"
	"github.com/nomadgto/dist-syst/internal/wire"
)

// SettleDelay is how long Promote sleeps after broadcasting the new
// master so the rest of the cluster's registries can catch up before
// any node retries a lock request against the new master.
const SettleDelay = 5 * time.Second

// Controller promotes this node to master on request and tells every
// other live peer about the change.
type Controller struct {
	registry *membership.Registry
	log      *logrus.Entry
}

// NewController builds a Controller bound to registry.
func NewController(registry *membership.Registry, log *logrus.Entry) *Controller {
	return &Controller{registry: registry, log: log}
}

// Promote self-promotes this node over oldMasterID: it updates the
// local registry first, broadcasts NewMasterNode to every other active
// peer, and sleeps SettleDelay before returning. Broadcast failures to
// individual peers are logged and otherwise ignored — a peer that misses
// the announcement will simply also self-promote the next time it tries
// to reach the (now wrong) master, converging eventually at the cost of
// a second broadcast.
func (c *Controller) Promote(oldMasterID int) {
	selfID := c.registry.SelfID()
	c.registry.SetMaster(oldMasterID, selfID)

	msg := []byte(wire.EncodeControl(wire.ControlMessage{
		Kind: wire.NewMasterNode, OldMaster: oldMasterID, NewMaster: selfID,
	}))
	for _, peer := range c.registry.ActivePeersExcluding(selfID) {
		if _, err := transport.Send(peer.IP, msg, false); err != nil {
			c.log.WithError(err).WithField("peer", peer.ID).Warn("failover: broadcast to peer failed")
		}
	}

	c.log.WithFields(logrus.Fields{"old_master": oldMasterID, "new_master": selfID}).Warn("failover: self-promoted to master")
	time.Sleep(SettleDelay)
}

// HandleNewMasterNode applies an inbound NewMasterNode announcement
// from whichever peer promoted itself.
func (c *Controller) HandleNewMasterNode(msg wire.ControlMessage) {
	c.registry.SetMaster(msg.OldMaster, msg.NewMaster)
	c.log.WithFields(logrus.Fields{"old_master": msg.OldMaster, "new_master": msg.NewMaster}).Info("failover: master updated by peer announcement")
}
