package port

import (
	"testing"

	"github.com/pothosware/flowcore/buffer"
)

// newTestManagerFor installs a fresh Generic manager with one 64-byte
// buffer on out and returns it, for tests exercising Output.Produce.
func newTestManagerFor(t *testing.T, out *Output) buffer.Manager {
	t.Helper()
	mgr := buffer.NewGeneric(out.Domain(), 1, 64)
	out.SetManager(mgr)
	return mgr
}
