package mutex

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAcquireBlocksUntilRelease(t *testing.T) {
	l := NewMasterLock()

	require.NoError(t, l.Acquire(context.Background()))

	acquired := make(chan struct{})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		require.NoError(t, l.Acquire(ctx))
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second Acquire should have blocked while lock is held")
	case <-time.After(100 * time.Millisecond):
	}

	l.Release()

	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatal("second Acquire never unblocked after Release")
	}
}

func TestAcquireRespectsContextTimeout(t *testing.T) {
	l := NewMasterLock()
	require.NoError(t, l.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := l.Acquire(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestReleaseOnUnheldLockIsNoop(t *testing.T) {
	l := NewMasterLock()
	require.NotPanics(t, func() { l.Release() })
}
