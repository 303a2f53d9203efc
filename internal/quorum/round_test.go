package quorum

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nomadgto/dist-syst/internal/wire"
)

func TestRoundDecidesUnanimousVote(t *testing.T) {
	r := newRound(1, 3)
	r.recordVote(1, "create_cliente|jdoe|Jane Doe|1 Main St|4111111111111111")
	r.recordVote(2, "create_cliente|jdoe|Jane Doe|1 Main St|4111111111111111")
	r.recordVote(3, "create_cliente|jdoe|Jane Doe|1 Main St|4111111111111111")

	require.NoError(t, r.wait(context.Background()))
	op, err := r.decide()
	require.NoError(t, err)
	require.Equal(t, wire.CreateCustomer{Username: "jdoe", Name: "Jane Doe", Address: "1 Main St", Card: "4111111111111111"}, op)
}

func TestRoundBreaksTieByFirstSeen(t *testing.T) {
	r := newRound(1, 4)
	r.recordVote(1, "restock_articulo|SKU1")
	r.recordVote(2, "restock_articulo|SKU2")
	r.recordVote(3, "restock_articulo|SKU1")
	r.recordVote(4, "restock_articulo|SKU2")

	op, err := r.decide()
	require.NoError(t, err)
	require.Equal(t, wire.RestockArticle{Code: "SKU1"}, op)
}

func TestRoundWaitTimesOutWithPartialVotes(t *testing.T) {
	r := newRound(1, 3)
	r.recordVote(1, "restock_articulo|SKU1")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := r.wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	op, err := r.decide()
	require.NoError(t, err)
	require.Equal(t, wire.RestockArticle{Code: "SKU1"}, op)
}

func TestRoundZeroExpectedClosesImmediately(t *testing.T) {
	r := newRound(1, 0)
	require.NoError(t, r.wait(context.Background()))
}

func TestRoundUnblocksOnlyAfterEveryVoteRecorded(t *testing.T) {
	r := newRound(1, 2)

	done := make(chan error, 1)
	go func() { done <- r.wait(context.Background()) }()

	r.recordVote(1, "restock_articulo|SKU1")
	select {
	case <-done:
		t.Fatal("round unblocked after only one of two votes")
	case <-time.After(50 * time.Millisecond):
	}

	r.recordVote(2, "restock_articulo|SKU1")
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("round never unblocked after both votes")
	}
}
