// Package scheduler implements the fixed worker-thread pool and ready-set
// dispatch described in spec.md §4.5: a configurable number of worker
// goroutines, each repeatedly driving actor.Worker.ProcessTask over the
// actors assigned to it, in either wait mode (condition-variable blocking,
// lowest idle CPU) or poll mode (spin, paced by a rate.Limiter, lowest
// latency).
package scheduler

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/pothosware/flowcore/actor"
)

// Config configures a Pool. Workers <= 0 defaults to runtime.NumCPU().
type Config struct {
	Workers      int
	Mode         Mode
	ThreadConfig ThreadConfig

	// PollRate/PollBurst pace the poll-mode spin loop so an idle ready-set
	// does not pin a core at 100%, per spec.md §4.5 and SPEC_FULL.md §3's
	// binding of golang.org/x/time/rate to this dispatch loop. Ignored in
	// Wait mode. Defaults to 1000 passes/sec, burst 1, if unset.
	PollRate  rate.Limit
	PollBurst int

	Logger *slog.Logger
}

// Stats reports current pool occupancy and throughput.
type Stats struct {
	Workers    int    `json:"workers"`
	ActorCount int    `json:"actor_count"`
	Mode       string `json:"mode"`
	Dispatches uint64 `json:"dispatches"`
}

// Pool is a fixed set of worker goroutines dispatching a dynamic set of
// actor.Worker actors, per spec.md §4.5.
type Pool struct {
	workers      int
	mode         Mode
	threadConfig ThreadConfig
	pollRate     rate.Limit
	pollBurst    int
	logger       *slog.Logger

	lifecycleMu sync.Mutex
	started     bool
	stopped     bool
	cancel      context.CancelFunc
	wg          sync.WaitGroup

	mu        sync.Mutex
	buckets   [][]*actor.Worker
	bucketOf  map[*actor.Worker]int
	nextIndex int

	warnOnce   sync.Once
	dispatches atomic.Uint64
}

// NewPool allocates a Pool in the stopped state.
func NewPool(cfg Config) *Pool {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	pollRate := cfg.PollRate
	if pollRate <= 0 {
		pollRate = 1000
	}
	pollBurst := cfg.PollBurst
	if pollBurst <= 0 {
		pollBurst = 1
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{
		workers:      workers,
		mode:         cfg.Mode,
		threadConfig: cfg.ThreadConfig,
		pollRate:     pollRate,
		pollBurst:    pollBurst,
		logger:       logger,
		buckets:      make([][]*actor.Worker, workers),
		bucketOf:     map[*actor.Worker]int{},
	}
}

// Add assigns w to the next worker bucket in round-robin order of Add calls
// (current bucket sizes are not considered) and wires
// its Interface's wait-mode flag to the pool's dispatch mode.
func (p *Pool) Add(w *actor.Worker) {
	w.Interface().EnableWaitMode(p.mode == Wait)

	p.mu.Lock()
	idx := p.nextIndex % p.workers
	p.nextIndex++
	p.buckets[idx] = append(p.buckets[idx], w)
	p.bucketOf[w] = idx
	p.mu.Unlock()
}

// Remove detaches w from the pool. It is safe to call while the pool is
// running.
func (p *Pool) Remove(w *actor.Worker) {
	p.mu.Lock()
	defer p.mu.Unlock()
	idx, ok := p.bucketOf[w]
	if !ok {
		return
	}
	delete(p.bucketOf, w)
	bucket := p.buckets[idx]
	for i, a := range bucket {
		if a == w {
			p.buckets[idx] = append(bucket[:i:i], bucket[i+1:]...)
			return
		}
	}
}

// Start launches the pool's worker goroutines.
func (p *Pool) Start() error {
	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()
	if p.started {
		return ErrPoolAlreadyStarted
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.runWorker(ctx, i)
	}

	p.started = true
	return nil
}

// Stop cancels dispatch and waits up to timeout for all worker goroutines
// to exit.
func (p *Pool) Stop(timeout time.Duration) error {
	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()
	if !p.started || p.stopped {
		return nil
	}
	p.cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
		p.stopped = true
		return nil
	case <-timer.C:
		return ErrStopTimeout
	}
}

// Stats returns a snapshot of pool occupancy and dispatch count.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	count := len(p.bucketOf)
	p.mu.Unlock()
	return Stats{
		Workers:    p.workers,
		ActorCount: count,
		Mode:       p.mode.String(),
		Dispatches: p.dispatches.Load(),
	}
}

// runWorker is one worker thread's dispatch loop: apply best-effort thread
// tuning once, then repeatedly drive ProcessTask over its assigned actors.
func (p *Pool) runWorker(ctx context.Context, idx int) {
	defer p.wg.Done()

	if !p.threadConfig.IsZero() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		if errs := configureCurrentThread(p.threadConfig); len(errs) > 0 {
			p.warnOnce.Do(func() {
				for _, err := range errs {
					p.logger.Warn("scheduler thread tuning failed, continuing with defaults", "error", err)
				}
			})
		}
	}

	var limiter *rate.Limiter
	if p.mode == Poll {
		limiter = rate.NewLimiter(p.pollRate, p.pollBurst)
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		bucket := p.bucketSnapshot(idx)
		if len(bucket) == 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Millisecond):
			}
			continue
		}

		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
		}

		for _, a := range bucket {
			select {
			case <-ctx.Done():
				return
			default:
			}
			before := a.Ticks()
			a.ProcessTask()
			if a.Ticks() != before {
				p.dispatches.Add(1)
			}
		}
	}
}

func (p *Pool) bucketSnapshot(idx int) []*actor.Worker {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*actor.Worker(nil), p.buckets[idx]...)
}
