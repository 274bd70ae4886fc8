package ebr

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestAtomic_LoadStoreSwap(t *testing.T) {
	c := NewCollector()
	defer c.Close()
	h := c.Handle()
	defer h.Close()

	a := NewAtomic(1234)
	g := h.Pin()
	defer g.Unpin()

	s := a.Load(g)
	require.False(t, s.IsNull())
	require.Equal(t, 1234, *s.Deref(g))

	old := a.Swap(Shared[int]{}, g)
	require.Equal(t, 1234, *old.Deref(g))

	require.True(t, a.Load(g).IsNull())
}

func TestAtomic_CompareAndSwap(t *testing.T) {
	c := NewCollector()
	defer c.Close()
	h := c.Handle()
	defer h.Close()
	g := h.Pin()
	defer g.Unpin()

	a := NewAtomic(1)
	first := a.Load(g)

	replacement := NewOwned(2)
	ok, actual, rejected := a.CompareAndSwapOwned(first, replacement, g)
	require.True(t, ok)
	require.Equal(t, Owned[int]{}, rejected)
	require.Equal(t, 2, *actual.Deref(g))

	// stale expectation now fails, and the rejected Owned is handed back.
	stale := NewOwned(3)
	ok, actual, rejected = a.CompareAndSwapOwned(first, stale, g)
	require.False(t, ok)
	require.Equal(t, 2, *actual.Deref(g))
	require.Equal(t, 3, *rejected.IntoValue())
}

// TestAtomic_TaggedCAS walks a uint64 atomic (alignment 8, so 3 tag bits)
// through fetch_or/fetch_and/fetch_xor, checking the address never moves.
func TestAtomic_TaggedCAS(t *testing.T) {
	c := NewCollector()
	defer c.Close()
	h := c.Handle()
	defer h.Close()
	g := h.Pin()
	defer g.Unpin()

	var val uint64 = 99
	a := NewAtomic(val)

	require.EqualValues(t, 3, tagBits[uint64]())

	s := a.Load(g)
	require.EqualValues(t, 0, s.Tag())

	old := a.FetchOr(3, g)
	require.EqualValues(t, 0, old.Tag())
	require.EqualValues(t, 3, a.Load(g).Tag())

	old = a.FetchAnd(2, g)
	require.EqualValues(t, 3, old.Tag())
	require.EqualValues(t, 2, a.Load(g).Tag())

	old = a.FetchXor(3, g)
	require.EqualValues(t, 2, old.Tag())
	require.EqualValues(t, 1, a.Load(g).Tag())

	// the address itself must never move across tag-only operations.
	require.Equal(t, s.AsPointer(), a.Load(g).AsPointer())
}

func TestTagRoundTrip(t *testing.T) {
	type aligned struct {
		_ uint64
	}
	align := int(alignOf[aligned]())
	bitsAvail := tagBits[aligned]()
	maxTag := uintptr(1)<<bitsAvail - 1

	for tag := uintptr(0); tag <= maxTag; tag++ {
		o := OwnedFromRaw(new(aligned), tag)
		require.Equal(t, tag, o.Tag())
		s := o.IntoShared(nil)
		require.Equal(t, tag, s.Tag())
		require.Zero(t, uintptr(s.AsPointer())%uintptr(align))
	}
}

func TestCheckAligned_PanicsOnMisalignedRaw(t *testing.T) {
	var buf [16]byte
	// force an odd address: guaranteed misaligned for any type whose
	// alignment is greater than one, regardless of buf's own base address.
	misaligned := unsafe.Pointer(uintptr(unsafe.Pointer(&buf[0])) | 1)

	type wide struct {
		_ int64
	}
	require.Panics(t, func() {
		checkAligned[wide](misaligned, "test")
	})
}
