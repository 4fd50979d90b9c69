package queue

import (
	"context"
	"sync"
)

// Priority is a fixed-size worker pool with two strictly ordered FIFO
// tiers. Workers always drain the high tier completely before looking at
// the low tier; there is no fairness guarantee for low-tier jobs under
// sustained high-tier load.
//
// The reference implementation wires both its high- and low-priority
// facades to the same underlying queue, so "low priority" work is
// silently promoted to high priority. That aliasing is a defect, not a
// feature: here High and Low are genuinely distinct FIFO slices, both
// guarded by the pool's single mutex/condition-variable pair.
type Priority struct {
	mu      sync.Mutex
	cond    *sync.Cond
	high    []queuedJob
	low     []queuedJob
	stop    bool
	workers sync.WaitGroup

	highFacade *priorityFacade
	lowFacade  *priorityFacade
}

// priorityFacade is a thin Queue view over one of Priority's two tiers.
type priorityFacade struct {
	p    *Priority
	tier *[]queuedJob
}

func (f *priorityFacade) RegisterJob(ctx context.Context, job Job) {
	f.p.enqueue(f.tier, ctx, job)
}

// NewPriority constructs a two-tier pool with the given number of
// workers and starts them immediately. Zero workers is invalid and
// panics. A negative count resolves to defaultPoolSize workers.
func NewPriority(workers int) *Priority {
	if workers == 0 {
		panic("queue: invalid worker count 0")
	}
	if workers < 0 {
		workers = defaultPoolSize
	}

	p := &Priority{}
	p.cond = sync.NewCond(&p.mu)
	p.highFacade = &priorityFacade{p: p, tier: &p.high}
	p.lowFacade = &priorityFacade{p: p, tier: &p.low}

	p.workers.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

// High returns the Queue facade for the high-priority tier.
func (p *Priority) High() Queue { return p.highFacade }

// Low returns the Queue facade for the low-priority tier.
func (p *Priority) Low() Queue { return p.lowFacade }

func (p *Priority) enqueue(tier *[]queuedJob, ctx context.Context, job Job) {
	p.mu.Lock()
	if p.stop {
		p.mu.Unlock()
		panic("queue: RegisterJob called after Stop")
	}
	*tier = append(*tier, queuedJob{ctx: ctx, job: job})
	p.mu.Unlock()
	p.cond.Signal()
}

func (p *Priority) worker() {
	defer p.workers.Done()
	for {
		p.mu.Lock()
		for len(p.high) == 0 && len(p.low) == 0 && !p.stop {
			p.cond.Wait()
		}
		if len(p.high) == 0 && len(p.low) == 0 && p.stop {
			p.mu.Unlock()
			return
		}

		var qj queuedJob
		if len(p.high) > 0 {
			qj = p.high[0]
			p.high = p.high[1:]
		} else {
			qj = p.low[0]
			p.low = p.low[1:]
		}
		p.mu.Unlock()

		runJob(qj.ctx, qj.job)
	}
}

// Stop signals every worker to exit once both tiers drain, then blocks
// until all of them have returned.
func (p *Priority) Stop() {
	p.mu.Lock()
	p.stop = true
	p.mu.Unlock()
	p.cond.Broadcast()
	p.workers.Wait()
}
