// Package buffer implements the SharedBuffer / ManagedBuffer / Chunk data
// model described in spec.md §3: contiguous byte regions with
// reference-counted lifetime, domain-scoped managers, and a typed,
// serializable view over them.
package buffer

import (
	"sync/atomic"
	"unsafe"
)

// region is the actual backing allocation shared by a SharedBuffer and any
// slices taken from it. It is freed (onFree called, or simply dropped for
// GC to reclaim) when the last reference releases.
type region struct {
	buf    []byte
	refs   int32
	onFree func()
}

// SharedBuffer is a contiguous byte region with shared ownership: the
// region is freed when the last SharedBuffer and the last ManagedBuffer
// referencing it drop (spec.md §3 "SharedBuffer").
type SharedBuffer struct {
	reg    *region
	offset int
	length int
}

// NewSharedBuffer allocates a fresh SharedBuffer of numBytes, with an
// initial reference count of one.
func NewSharedBuffer(numBytes int) SharedBuffer {
	return SharedBuffer{
		reg:    &region{buf: make([]byte, numBytes), refs: 1},
		offset: 0,
		length: numBytes,
	}
}

// newSharedBufferWithFree is used by BufferManagers to construct a buffer
// whose backing region calls onFree when the last reference drops, so the
// manager can recycle it instead of letting it be garbage collected.
func newSharedBufferWithFree(numBytes int, onFree func()) SharedBuffer {
	return SharedBuffer{
		reg:    &region{buf: make([]byte, numBytes), refs: 1, onFree: onFree},
		offset: 0,
		length: numBytes,
	}
}

// Address returns a stable, comparable identity for the region's backing
// storage -- analogous to the source's raw pointer address. It is only
// valid for equality/debugging purposes; use Bytes() to access memory.
func (b SharedBuffer) Address() uintptr {
	if b.reg == nil || len(b.reg.buf) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&b.reg.buf[0])) + uintptr(b.offset)
}

// Length is the number of bytes this SharedBuffer (or slice) spans.
func (b SharedBuffer) Length() int { return b.length }

// Capacity is the size of the underlying region, regardless of slicing.
func (b SharedBuffer) Capacity() int {
	if b.reg == nil {
		return 0
	}
	return len(b.reg.buf)
}

// IsValid reports whether this SharedBuffer refers to an allocated region.
func (b SharedBuffer) IsValid() bool { return b.reg != nil }

// Bytes returns the byte slice this SharedBuffer addresses.
func (b SharedBuffer) Bytes() []byte {
	if b.reg == nil {
		return nil
	}
	return b.reg.buf[b.offset : b.offset+b.length]
}

// Slice returns a new SharedBuffer over [begin, begin+length) of this
// buffer, sharing ownership (and lifetime) with the parent -- spec.md §3
// "Supports slicing (a sub-range sharing ownership with the parent)".
func (b SharedBuffer) Slice(begin, length int) SharedBuffer {
	if b.reg == nil {
		return SharedBuffer{}
	}
	if begin < 0 || length < 0 || begin+length > b.length {
		panic("buffer: slice out of range")
	}
	atomic.AddInt32(&b.reg.refs, 1)
	return SharedBuffer{reg: b.reg, offset: b.offset + begin, length: length}
}

// Retain increments the region's reference count and returns a handle that
// shares the same region; each Retain must be matched by exactly one Release.
func (b SharedBuffer) Retain() SharedBuffer {
	if b.reg != nil {
		atomic.AddInt32(&b.reg.refs, 1)
	}
	return b
}

// Release drops one reference. When the last reference drops, onFree (if
// any) runs -- for a plain SharedBuffer this is nil and the backing array
// is simply left for the garbage collector.
func (b SharedBuffer) Release() {
	if b.reg == nil {
		return
	}
	if atomic.AddInt32(&b.reg.refs, -1) == 0 {
		if b.reg.onFree != nil {
			b.reg.onFree()
		}
	}
}

// RefCount returns the current reference count, for tests and diagnostics.
func (b SharedBuffer) RefCount() int32 {
	if b.reg == nil {
		return 0
	}
	return atomic.LoadInt32(&b.reg.refs)
}

// sameRegion reports whether two SharedBuffers share the same backing region.
func sameRegion(a, b SharedBuffer) bool {
	return a.reg != nil && a.reg == b.reg
}
