package chainsync

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercentageFormula(t *testing.T) {
	for _, chain := range []uint64{1, 7, 500, 1000, 650000} {
		for _, block := range []uint64{0, 1, chain / 2, chain} {
			for _, filter := range []uint64{0, 3, chain / 3, chain} {
				got, ok := Percentage(State{
					ChainHeight:  chain,
					BlockHeight:  block,
					FilterHeight: filter,
				})
				assert.True(t, ok)

				want := int(math.Floor(float64(block+filter) / (2 * float64(chain)) * 100))
				assert.Equal(t, want, got)
			}
		}
	}
}

func TestPercentageUndefinedAtZeroChainHeight(t *testing.T) {
	_, ok := Percentage(State{BlockHeight: 10, FilterHeight: 10})
	assert.False(t, ok)
}

func TestPercentageMonotonic(t *testing.T) {
	base := State{ChainHeight: 1000, BlockHeight: 100, FilterHeight: 100}
	prev, _ := Percentage(base)

	for h := uint64(100); h <= 1000; h += 50 {
		s := base
		s.BlockHeight = h
		pct, _ := Percentage(s)
		assert.GreaterOrEqual(t, pct, prev)
		prev = pct
	}

	prev, _ = Percentage(base)
	for h := uint64(100); h <= 1000; h += 50 {
		s := base
		s.FilterHeight = h
		pct, _ := Percentage(s)
		assert.GreaterOrEqual(t, pct, prev)
		prev = pct
	}
}

func TestPercentageMayExceedHundred(t *testing.T) {
	// Counters update independently, so a stale reference height can put
	// the ratio above 1. That is accepted behavior, not an error.
	pct, ok := Percentage(State{ChainHeight: 100, BlockHeight: 150, FilterHeight: 150})
	assert.True(t, ok)
	assert.Equal(t, 150, pct)
}

func TestTrackerScenario(t *testing.T) {
	tracker := NewTracker()

	tracker.Update(HeightChain, 1000)
	tracker.Update(HeightBlock, 500)
	state := tracker.Update(HeightFilter, 300)

	pct, ok := Percentage(state)
	assert.True(t, ok)
	assert.Equal(t, 40, pct)

	tracker.Update(HeightBlock, 1000)
	state = tracker.Update(HeightFilter, 1000)

	pct, ok = Percentage(state)
	assert.True(t, ok)
	assert.Equal(t, 100, pct)
}

func TestTrackerIgnoresRegressions(t *testing.T) {
	tracker := NewTracker()
	tracker.Update(HeightBlock, 500)
	state := tracker.Update(HeightBlock, 400)
	assert.Equal(t, uint64(500), state.BlockHeight)
}
