package scheduler

import "errors"

// Sentinel errors for scheduler pool lifecycle, mirroring pkg/worker's
// lifecycle error set.
var (
	ErrPoolAlreadyStarted = errors.New("scheduler pool already started")
	ErrPoolNotStarted     = errors.New("scheduler pool not started")
	ErrPoolStopped        = errors.New("scheduler pool stopped")
	ErrStopTimeout        = errors.New("timeout waiting for scheduler workers to stop")
)
