package ebr

import (
	"github.com/joeycumines/go-ebr/internal/ilist"
	"github.com/joeycumines/go-ebr/internal/msqueue"
)

// pinsBetweenCollect is how often (in pins) a handle opportunistically
// tries to advance the epoch and collect - once every 128th pin.
const pinsBetweenCollect = 128

// collectSteps bounds how many bags a single call to collect will drain,
// so collect itself stays non-blocking relative to queue length.
const collectSteps = 8

// bagQueueEntry is one element of the global bag queue: a retired bag
// tagged with the epoch that was current when it was handed off.
type bagQueueEntry struct {
	epoch uint64
	bag   *bag
}

// globalState is everything shared by every handle of one Collector: the
// participant registry, the bag queue, and the epoch cell. It is reference
// counted by Collector/Handle so it outlives the last handle that needs it.
type globalState struct {
	participants ilist.List[*registryEntry]
	queue        *msqueue.Queue[bagQueueEntry]
	epoch        epochCell
}

func newGlobalState() *globalState {
	return &globalState{queue: msqueue.New[bagQueueEntry]()}
}

// registerParticipant inserts a fresh, unpinned registry entry and returns
// its list node, which the owning Handle holds onto in order to announce
// pins and to unregister at teardown.
func (g *globalState) registerParticipant() *ilist.Node[*registryEntry] {
	return g.participants.Insert(&registryEntry{})
}

func (g *globalState) unregisterParticipant(n *ilist.Node[*registryEntry]) {
	n.Delete()
}

func (g *globalState) pushBag(epoch uint64, b *bag) {
	if b.isEmpty() {
		return
	}
	g.queue.Push(bagQueueEntry{epoch: epoch, bag: b})
}

// tryAdvance enumerates every live participant, and only stores epoch+2 if
// every currently-pinned participant has announced the current epoch. It
// returns whatever the global epoch is after the attempt (advanced or
// not).
func (g *globalState) tryAdvance() uint64 {
	e := g.epoch.load()

	// registry nodes physically unlinked here need no deferred free: once
	// unlinked they are unreachable from any other participant, and Go's
	// garbage collector reclaims them the moment nothing references them
	// anymore.
	it := g.participants.Iterate(func(*ilist.Node[*registryEntry]) {})

	for {
		entry, ok := it.Next()
		if !ok {
			break
		}
		state := entry.load()
		if stateIsPinned(state) && stateEpoch(state) != e {
			// some participant hasn't caught up to e yet: not safe to advance.
			return e
		}
	}
	if it.LostRace() {
		// a concurrent advancer is already unlinking a deleted participant
		// from this same list; let it finish and retry advancement itself.
		return e
	}

	next := e + 2
	g.epoch.advanceTo(next)
	return next
}

// collect drains up to collectSteps reclaimable bags from the global
// queue, running each one (executing its closures) as it comes out.
func (g *globalState) collect() {
	now := g.epoch.load()
	for range collectSteps {
		entry, ok := g.queue.TryPopIf(func(e bagQueueEntry) bool {
			return reclaimable(now, e.epoch)
		})
		if !ok {
			return
		}
		entry.bag.run()
	}
}

// drainAll unconditionally runs every bag still in the queue, regardless of
// its epoch. It is only safe to call once there can be no other concurrent
// participant - i.e. at Collector teardown.
func (g *globalState) drainAll() {
	for _, e := range g.queue.Drain() {
		e.bag.run()
	}
}
