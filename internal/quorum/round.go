// Package quorum implements the one-round plurality-vote replication
// protocol every mutation goes through: the initiating node broadcasts
// its proposed command, every other live node forwards it on to its
// own peers and collects their copies back, and each of them decides
// independently (by majority, first-seen tie-break) and applies the
// decided command to its own store before telling the initiator it is
// done.
package quorum

import (
	"context"
	"sort"
	"sync"

	"github.com/nomadgto/dist-syst/internal/wire"
)

// Phase tracks where a Round is in its lifecycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseCollecting
	PhaseDecided
)

// Round is the per-node, per-round transient state a Participant (or
// the initiating Coordinator) holds while COLLECT is in progress. Exactly one Round is active on
// a node at a time — a second start_consensus arriving while one is in
// flight overwrites it, a known limitation carried over unchanged from
// the source (concurrent rounds from different initiators are
// undefined, not merely unimplemented).
type Round struct {
	mu          sync.Mutex
	initiatorID int
	votes       map[int]string
	expected    int
	phase       Phase
	done        chan struct{}
}

func newRound(initiatorID, expected int) *Round {
	r := &Round{
		initiatorID: initiatorID,
		votes:       make(map[int]string, expected),
		expected:    expected,
		phase:       PhaseCollecting,
		done:        make(chan struct{}),
	}
	if expected <= 0 {
		r.phase = PhaseDecided
		close(r.done)
	}
	return r
}

// recordVote stores voterID's copy of the proposed command. Once every
// expected vote is in, the round transitions to PhaseDecided and
// wait() unblocks. A vote arriving after the round already decided is
// ignored. A repeated vote from the same voter overwrites its earlier
// copy and does not count twice.
func (r *Round) recordVote(voterID int, command string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phase != PhaseCollecting {
		return
	}
	r.votes[voterID] = command
	if len(r.votes) >= r.expected {
		r.phase = PhaseDecided
		close(r.done)
	}
}

// wait blocks until every expected vote has arrived or ctx is done.
func (r *Round) wait(ctx context.Context) error {
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// decide returns the plurality-winning command among the votes
// collected so far (which may be fewer than expected, if wait returned
// on a timeout rather than completion). Ties are broken by the order
// the distinct values were first seen, scanning voter ids ascending —
// deterministic, so every node facing the identical vote set decides
// identically.
func (r *Round) decide() (wire.Op, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.votes) == 0 {
		return nil, wire.NewProtocolError("quorum: no votes collected for round from initiator %d", r.initiatorID)
	}

	voterIDs := make([]int, 0, len(r.votes))
	for id := range r.votes {
		voterIDs = append(voterIDs, id)
	}
	sort.Ints(voterIDs)

	counts := make(map[string]int, len(r.votes))
	order := make([]string, 0, len(r.votes))
	for _, id := range voterIDs {
		cmd := r.votes[id]
		if _, seen := counts[cmd]; !seen {
			order = append(order, cmd)
		}
		counts[cmd]++
	}

	winner := order[0]
	for _, cmd := range order[1:] {
		if counts[cmd] > counts[winner] {
			winner = cmd
		}
	}
	return wire.Decode(winner)
}
