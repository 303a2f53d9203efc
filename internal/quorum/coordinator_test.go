package quorum

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/nomadgto/dist-syst/internal/membership"
	"github.com/nomadgto/dist-syst/internal/store"
	"github.com/nomadgto/dist-syst/internal/wire"
)

func newTestCoordinator(t *testing.T) (*Coordinator, *store.Store) {
	t.Helper()
	registry, err := membership.NewRegistry([]membership.Node{
		{ID: 1, IP: "127.0.0.1:1", IsSelf: true, IsMaster: true, Up: true},
		{ID: 2, IP: "127.0.0.1:2", Up: true},
		{ID: 3, IP: "127.0.0.1:3", Up: true},
		{ID: 4, IP: "127.0.0.1:4", Up: true},
	})
	require.NoError(t, err)

	st, err := store.New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	log := logrus.New().WithField("branch_id", 1)
	c := NewCoordinator(registry, st, log)
	c.roundTimeout = time.Second
	return c, st
}

// TestCoordinatorAppliesPluralityNotItsOwnRawProposal is the plurality
// override scenario: the initiator proposes a command with an empty
// address, every other live node reports back a corrected address, and
// the initiator's own applied row must follow the plurality rather than
// the proposal it originally sent.
func TestCoordinatorAppliesPluralityNotItsOwnRawProposal(t *testing.T) {
	c, st := newTestCoordinator(t)

	done := make(chan error, 1)
	go func() {
		done <- c.Run(wire.CreateCustomer{Username: "bob", Name: "Bob", Address: "", Card: "9999"})
	}()

	require.Eventually(t, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.current != nil
	}, time.Second, time.Millisecond)

	corrected := "create_cliente|bob|Bob|Unknown|9999"
	c.NotifyConsensusOver(2, corrected)
	c.NotifyConsensusOver(3, corrected)
	c.NotifyConsensusOver(4, corrected)

	require.NoError(t, <-done)

	customer, ok := st.CustomerByUsername("bob")
	require.True(t, ok)
	require.Equal(t, "Unknown", customer.Address)
}
