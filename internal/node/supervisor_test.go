package node

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/nomadgto/dist-syst/internal/membership"
	"github.com/nomadgto/dist-syst/internal/store"
	"github.com/nomadgto/dist-syst/internal/wire"
)

// threeBranchCluster builds three in-process Supervisors sharing the
// same static node set on distinct localhost ports, node 1 as master,
// and starts each one's Run loop. It returns the supervisors indexed by
// branch id (1-based) and a cancel func that stops every one of them.
func threeBranchCluster(t *testing.T) (map[int]*Supervisor, context.CancelFunc) {
	t.Helper()

	addrs := map[int]string{1: "127.0.0.1:19101", 2: "127.0.0.1:19102", 3: "127.0.0.1:19103"}
	log := logrus.New()
	log.SetOutput(io.Discard)

	sups := make(map[int]*Supervisor, 3)
	ctx, cancel := context.WithCancel(context.Background())

	for selfID := range addrs {
		nodes := make([]membership.Node, 0, 3)
		for id, addr := range addrs {
			nodes = append(nodes, membership.Node{
				ID: id, IP: addr, Up: true,
				IsSelf:   id == selfID,
				IsMaster: id == 1,
			})
		}
		registry, err := membership.NewRegistry(nodes)
		require.NoError(t, err)

		sup, err := New(registry, t.TempDir(), log.WithField("branch_id", selfID))
		require.NoError(t, err)
		sups[selfID] = sup

		go func() { _ = sup.Run(ctx) }()
	}

	// give every listener a moment to bind before the test starts
	// dialing them.
	time.Sleep(50 * time.Millisecond)

	return sups, cancel
}

func TestClusterReplicatesAWriteToEveryBranch(t *testing.T) {
	sups, cancel := threeBranchCluster(t)
	defer cancel()

	master := sups[1]
	err := master.Apply(wire.CreateCustomer{
		Username: "jdoe", Name: "Jane Doe", Address: "1 Main St", Card: "4111111111111111",
	})
	require.NoError(t, err)

	for id, sup := range sups {
		c, ok := sup.Store.CustomerByUsername("jdoe")
		require.Truef(t, ok, "branch %d missing replicated customer", id)
		require.Equal(t, "Jane Doe", c.Name)
		require.Equal(t, store.CustomerActive, c.Status)
	}
}

func TestClusterSecondWriteBuildsOnFirst(t *testing.T) {
	sups, cancel := threeBranchCluster(t)
	defer cancel()

	master := sups[1]
	require.NoError(t, master.Apply(wire.CreateArticle{
		Code: "SKU1", Name: "Widget", Price: "9.99", BranchID: "1",
	}))
	require.NoError(t, master.Apply(wire.RestockArticle{Code: "SKU1"}))

	for id, sup := range sups {
		a, ok := sup.Store.ArticleByCode("SKU1")
		require.Truef(t, ok, "branch %d missing replicated article", id)
		require.Equal(t, store.StockAvailable, a.Status)
	}
}
