package ebr

import "sync/atomic"

// pinnedBit is the low bit of a registry entry's state word: 1 means the
// participant is currently pinned. The remaining bits hold the epoch the
// participant announced at pin time - always even while pinned (the
// advancer only ever stores even epochs), and 0 while unpinned.
const pinnedBit = uint64(1)

func composeState(epoch uint64) uint64 {
	return epoch | pinnedBit
}

func stateIsPinned(state uint64) bool {
	return state&pinnedBit != 0
}

func stateEpoch(state uint64) uint64 {
	return state &^ pinnedBit
}

// registryEntry is one participant's slot in the global registry list,
// cache-padded for the same reason as epochCell: many participants pin and
// unpin concurrently, each touching only their own entry, and none of them
// should share a cache line with a neighbor's entry.
type registryEntry struct {
	state atomic.Uint64
	_     [cacheLineSize - 8]byte
}

func (e *registryEntry) announcePinned(epoch uint64) {
	e.state.Store(composeState(epoch))
}

func (e *registryEntry) releasePin() {
	e.state.Store(0)
}

func (e *registryEntry) load() uint64 {
	return e.state.Load()
}
