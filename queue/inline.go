package queue

import "context"

// Inline runs each submitted job on the caller's goroutine before
// RegisterJob returns. Useful for deterministic single-threaded execution
// and for tests. Because the object context calls into the queue from
// within its own critical regions, Inline tolerates reentrant submission:
// a job that itself calls RegisterJob simply recurses on the same stack.
type Inline struct{}

// NewInline returns a ready-to-use inline queue.
func NewInline() *Inline {
	return &Inline{}
}

// RegisterJob implements Queue.
func (q *Inline) RegisterJob(ctx context.Context, job Job) {
	runJob(ctx, job)
}
