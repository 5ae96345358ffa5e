package actor

// WaitHandle is returned by every control message so the caller can block
// for completion and read back a failure, per spec.md §6 "Each returns a
// wait-handle whose WaitInfo() yields "" on success or a non-empty error
// string."
type WaitHandle struct {
	done   chan struct{}
	errMsg string
}

// newWaitHandle returns a handle and the function that resolves it.
func newWaitHandle() (*WaitHandle, func(error)) {
	h := &WaitHandle{done: make(chan struct{})}
	resolve := func(err error) {
		if err != nil {
			h.errMsg = err.Error()
		}
		close(h.done)
	}
	return h, resolve
}

// WaitInfo blocks until the control message completes and returns "" on
// success or the error's message on failure.
func (h *WaitHandle) WaitInfo() string {
	<-h.done
	return h.errMsg
}
