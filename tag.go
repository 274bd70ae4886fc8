package ebr

import (
	"math/bits"
	"unsafe"
)

// alignOf returns the alignment, in bytes, that a *T is guaranteed to have.
func alignOf[T any]() uintptr {
	var zero T
	return unsafe.Alignof(zero)
}

// tagBits returns the number of low bits of an aligned *T address that are
// free to repurpose as a tag: floor(log2(alignOf[T]())).
func tagBits[T any]() uint {
	return uint(bits.TrailingZeros(uint(alignOf[T]())))
}

// tagMask returns a mask covering exactly the low tagBits[T]() bits.
func tagMask[T any]() uintptr {
	n := tagBits[T]()
	if n == 0 {
		return 0
	}
	return uintptr(1)<<n - 1
}

// maskTag truncates tag to the bits tagMask[T] allows: any tag wider than
// that is silently masked to fit, rather than rejected.
func maskTag[T any](tag uintptr) uintptr {
	return tag & tagMask[T]()
}

// checkAligned panics if p is non-nil and not aligned to alignOf[T](), so
// that no Shared, Owned or Atomic is ever constructed from a misaligned raw
// pointer.
func checkAligned[T any](p unsafe.Pointer, component string) {
	if p == nil {
		return
	}
	if uintptr(p)&tagMask[T]() != 0 {
		panic("ebr: " + component + ": pointer is not aligned to " + component + "'s required alignment")
	}
}
