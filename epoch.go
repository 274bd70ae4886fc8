package ebr

import (
	"sync/atomic"

	"golang.org/x/exp/constraints"
)

// cacheLineSize is the assumed cache line width used to pad frequently
// contended atomics apart, avoiding false sharing between them. 64 bytes
// covers essentially every mainstream architecture Go targets.
const cacheLineSize = 64

// epochCell holds the single global epoch, cache-padded so that frequent
// reads of it by every pinning participant don't bounce a cache line
// shared with anything else.
type epochCell struct {
	value atomic.Uint64
	_     [cacheLineSize - 8]byte
}

func (c *epochCell) load() uint64 {
	return c.value.Load()
}

// advanceTo stores next, which must be the result of advancing the epoch
// this cell last reported; see globalState.tryAdvance for the only caller
// that is allowed to do this.
func (c *epochCell) advanceTo(next uint64) {
	c.value.Store(next)
}

// distance returns the wrap-around "circular" distance between two epoch
// values, i.e. min(a-b, b-a) computed with unsigned wraparound arithmetic -
// this is what makes epoch comparisons correct across a counter wrap.
func distance[T constraints.Unsigned](a, b T) T {
	d1 := a - b
	d2 := b - a
	if d1 < d2 {
		return d1
	}
	return d2
}

// reclaimable reports whether a bag tagged with defEpoch is safe to run,
// given the collector currently observes nowEpoch as the global epoch: the
// core invariant is that this holds only once every participant that could
// still be pinned at or after defEpoch has long since unpinned.
func reclaimable(nowEpoch, defEpoch uint64) bool {
	return distance(nowEpoch, defEpoch) > 2
}
