package buffer

// Manager is implemented by buffer.Generic, buffer.Circular, and
// buffer.Passthrough (and any other domain-scoped allocator). It supplies
// output ports with empty buffers and reclaims them once consumers release
// the last reference, per spec.md §4.2.
type Manager interface {
	// Pop acquires a buffer for writing; ok is false if the manager is
	// exhausted (this is not an error -- it gates actor readiness).
	Pop() (mb ManagedBuffer, ok bool)
	// Push returns a buffer to the pool. It must be the same instance the
	// manager issued.
	Push(mb ManagedBuffer)
	// Empty reports whether Pop would currently fail.
	Empty() bool
	// Front inspects (without consuming) the next available buffer.
	Front() (mb ManagedBuffer, ok bool)
	// SetCallback registers a function invoked whenever a new buffer
	// becomes available (e.g. after Push), so the owning actor can be
	// re-flagged.
	SetCallback(fn func())
	// Domain names the memory domain this manager allocates within.
	Domain() string
}

// ManagedBuffer is a SharedBuffer tagged with a back-pointer to the
// BufferManager that issued it; on final drop the buffer returns to the
// manager's free list rather than being destroyed (spec.md §3).
type ManagedBuffer struct {
	SharedBuffer
	manager Manager
}

// NewManagedBuffer allocates numBytes and wires its release path to return
// the buffer to mgr once every reference drops.
func NewManagedBuffer(numBytes int, mgr Manager) ManagedBuffer {
	mb := &ManagedBuffer{manager: mgr}
	mb.SharedBuffer = newSharedBufferWithFree(numBytes, func() {
		if mgr != nil {
			mgr.Push(*mb)
		}
	})
	return *mb
}

// Manager returns the BufferManager that issued this buffer, or nil for a
// plain (unmanaged) buffer.
func (mb ManagedBuffer) Manager() Manager { return mb.manager }
