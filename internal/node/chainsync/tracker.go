// Package chainsync tracks neutrino sync progress from the three height
// counters lnd reports while catching up: the chain tip it is syncing
// toward, the block height it has processed, and the compact filter height.
package chainsync

import "sync"

type HeightKind string

const (
	// HeightChain is the reference chain tip height.
	HeightChain HeightKind = "chain"
	// HeightBlock is the node's synced block height.
	HeightBlock HeightKind = "block"
	// HeightFilter is the node's synced compact filter height.
	HeightFilter HeightKind = "filter"
)

// State is a snapshot of the three counters. Counters only move forward;
// a stale update can never make reported progress go backward.
type State struct {
	ChainHeight  uint64
	BlockHeight  uint64
	FilterHeight uint64
}

// Percentage computes sync progress. Blocks and filters are two independent
// sync phases of comparable length, hence the doubled denominator. Progress
// is undefined (ok == false) until a reference chain height is known. No
// upper clamp: counters update independently, so the value may transiently
// exceed 100.
func Percentage(s State) (pct int, ok bool) {
	if s.ChainHeight == 0 {
		return 0, false
	}
	return int((s.BlockHeight + s.FilterHeight) * 100 / (2 * s.ChainHeight)), true
}

// Tracker is the mutable holder of a State. It is safe for concurrent use,
// though in practice only the controller's event loop updates it.
type Tracker struct {
	mu    sync.Mutex
	state State
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// Update raises one counter to value and returns the new snapshot. Values
// below the current counter are ignored.
func (t *Tracker) Update(kind HeightKind, value uint64) State {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch kind {
	case HeightChain:
		if value > t.state.ChainHeight {
			t.state.ChainHeight = value
		}
	case HeightBlock:
		if value > t.state.BlockHeight {
			t.state.BlockHeight = value
		}
	case HeightFilter:
		if value > t.state.FilterHeight {
			t.state.FilterHeight = value
		}
	}
	return t.state
}

func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = State{}
}
