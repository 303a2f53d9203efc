package membership

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func threeNodes() []Node {
	return []Node{
		{ID: 1, IP: "127.0.0.1:2221", IsSelf: true, Up: true},
		{ID: 2, IP: "127.0.0.1:2222", IsMaster: true, Up: true},
		{ID: 3, IP: "127.0.0.1:2223", Up: true},
	}
}

func TestNewRegistryRequiresExactlyOneSelf(t *testing.T) {
	nodes := threeNodes()
	nodes[0].IsSelf = false
	_, err := NewRegistry(nodes)
	require.Error(t, err)
}

func TestNewRegistryRequiresExactlyOneMaster(t *testing.T) {
	nodes := threeNodes()
	nodes[1].IsMaster = false
	nodes[2].IsMaster = true
	nodes[0].IsMaster = true
	_, err := NewRegistry(nodes)
	require.Error(t, err)
}

func TestSetMasterTransfersRole(t *testing.T) {
	r, err := NewRegistry(threeNodes())
	require.NoError(t, err)
	require.Equal(t, 2, r.MasterID())

	r.SetMaster(2, 3)
	require.Equal(t, 3, r.MasterID())

	n2, _ := r.Node(2)
	require.False(t, n2.IsMaster)
}

func TestActivePeersExcludingSelf(t *testing.T) {
	r, err := NewRegistry(threeNodes())
	require.NoError(t, err)

	peers := r.ActivePeersExcluding(r.SelfID())
	require.Len(t, peers, 2)
	for _, p := range peers {
		require.NotEqual(t, r.SelfID(), p.ID)
	}
}

func TestMarkDownRemovesFromActivePeers(t *testing.T) {
	r, err := NewRegistry(threeNodes())
	require.NoError(t, err)

	r.MarkDown(3)
	peers := r.ActivePeersExcluding(r.SelfID())
	require.Len(t, peers, 1)
	require.Equal(t, 2, peers[0].ID)
}
