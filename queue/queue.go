package queue

import (
	"context"
	"log/slog"

	"github.com/vk/depgraph/internal/ctxlog"
)

// Style is an advisory hint describing what kind of work a job represents.
// Reference implementations ignore it, but it is preserved so alternative
// implementations can route by hint (e.g. a CPU-bound build job vs. an
// IO-bound discovery call).
type Style int

const (
	// Other is the style for work that is neither discovery nor a build.
	Other Style = iota
	// ObjectBuilding is the style used for a node's build job.
	ObjectBuilding
	// Discovery is the style used for a node's dependency-discovery job.
	// The reference engine always runs discovery synchronously on the
	// caller's goroutine (see Context.GetDependencies), so no built-in
	// queue implementation ever receives a job tagged Discovery; the style
	// exists for callers who build their own discovery-dispatching queue.
	Discovery
)

// String implements fmt.Stringer for Style.
func (s Style) String() string {
	switch s {
	case ObjectBuilding:
		return "object_building"
	case Discovery:
		return "discovery"
	default:
		return "other"
	}
}

// Job is a single unit of work submitted to a Queue.
type Job struct {
	Style Style
	Func  func()
}

// Queue accepts opaque units of work tagged with a style hint and schedules
// them per implementation policy. RegisterJob must never block waiting for
// the job to run, and must never let a job's panic escape to the caller.
type Queue interface {
	RegisterJob(ctx context.Context, job Job)
}

// runJob invokes job.Func, recovering and logging any panic so the queue
// keeps running regardless of what user code does. This is the one place
// every reference implementation funnels job execution through.
func runJob(ctx context.Context, job Job) {
	defer func() {
		if r := recover(); r != nil {
			ctxlog.FromContext(ctx).Warn("queue: job panicked, discarding",
				"style", job.Style.String(),
				"panic", r,
			)
		}
	}()
	if job.Func != nil {
		job.Func()
	}
}

// logger is a tiny convenience wrapper over ctxlog.FromContext. Nothing in
// this package calls it; runJob calls ctxlog.FromContext directly.
func logger(ctx context.Context) *slog.Logger {
	return ctxlog.FromContext(ctx)
}
