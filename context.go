package depgraph

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vk/depgraph/internal/ctxlog"
	"github.com/vk/depgraph/queue"
)

// ErrNoBuilder is returned (wrapped, with the offending key) from
// BuildObject when a key's node settled in NoBuilderAvailable. It is
// deliberately not a *BuildError: the provider finding no builder is not a
// fault, so it must never be logged as an error (see BuildError's doc
// comment).
var ErrNoBuilder = errors.New("depgraph: no builder available")

// Context is the object context: a memoizing, concurrency-safe key->node
// map plus the orchestration that drives every node through discovery and
// build exactly once, no matter how many goroutines request overlapping
// keys concurrently. The graph is discovered lazily: nothing about its
// shape needs to be known before the first call.
type Context[K comparable, V any] struct {
	provider BuilderProvider[K, V]
	jobs     queue.Queue

	mu    sync.Mutex
	nodes map[K]*node[K, V]
}

// New constructs a Context resolving builders from provider and
// dispatching build jobs through jobs. Discovery always runs synchronously
// on the calling goroutine (see GetDependencies), regardless of jobs.
func New[K comparable, V any](provider BuilderProvider[K, V], jobs queue.Queue) *Context[K, V] {
	return &Context[K, V]{
		provider: provider,
		jobs:     jobs,
		nodes:    make(map[K]*node[K, V]),
	}
}

// getOrCreateNode returns key's node, inserting a fresh Starting node on
// first reference. Safe for concurrent callers: exactly one of them
// inserts the node; the rest observe it. The mutex is held only for the
// map lookup/insert itself -- never across a TryGetBuilder call, since
// c.provider (including any user-supplied Fallback) must be free to run
// arbitrary, possibly slow or reentrant, code without stalling every
// other key's lookup or deadlocking against this non-reentrant mutex.
// Builder resolution happens later, in ensureDiscovered, once discovery
// for this node actually starts.
func (c *Context[K, V]) getOrCreateNode(key K) *node[K, V] {
	c.mu.Lock()
	if n, ok := c.nodes[key]; ok {
		c.mu.Unlock()
		return n
	}
	n := newNode[K, V](key)
	c.nodes[key] = n
	c.mu.Unlock()
	return n
}

// GetDependencies returns key's dependency list, running discovery if it
// has not already happened. It blocks until the node's dependencies are
// known or the node reaches a terminal state without ever discovering
// them (NoBuilderAvailable, or Failure with Kind DiscoveryFailed). Once the
// node is in Failure, of any Kind, it returns the node's error instead of
// the list.
func (c *Context[K, V]) GetDependencies(ctx context.Context, key K) ([]K, error) {
	n := c.getOrCreateNode(key)
	c.ensureDiscovered(ctx, n)
	n.depsKnownWait.Wait()

	switch n.getState() {
	case Failure:
		return nil, n.buildError()
	case NoBuilderAvailable:
		return nil, fmt.Errorf("%w: key %v", ErrNoBuilder, key)
	default:
		return n.dependencies(), nil
	}
}

// BuildObject ensures key's value is built, discovering and building
// every transitive dependency as needed, and blocks until the node
// reaches a terminal state.
func (c *Context[K, V]) BuildObject(ctx context.Context, key K) (V, error) {
	n := c.getOrCreateNode(key)
	c.requestBuild(ctx, n)
	n.builtWait.Wait()

	var zero V
	switch n.getState() {
	case Failure:
		return zero, n.buildError()
	case NoBuilderAvailable:
		return zero, fmt.Errorf("%w: key %v", ErrNoBuilder, key)
	default:
		return n.builtValue(), nil
	}
}

// ensureDiscovered resolves n's builder and runs its Dependencies call
// exactly once, always on the calling goroutine and always with no
// Context-level lock held: TryGetBuilder runs after getOrCreateNode has
// already released c.mu, so a slow or reentrant provider (e.g. a
// Fallback that does I/O, or that itself calls back into this Context)
// never stalls or deadlocks other keys' lookups. Callers that lose the
// tryStartDiscovery race return at once: GetDependencies and the cycle walk
// then wait on n.depsKnownWait, and requestBuild registers a callback on
// the same milestone.
func (c *Context[K, V]) ensureDiscovered(ctx context.Context, n *node[K, V]) {
	if !n.tryStartDiscovery() {
		return
	}
	builder, ok := c.provider.TryGetBuilder(n.key)
	if !ok {
		n.setNoBuilder()
		return
	}
	n.builder = builder

	log := ctxlog.FromContext(ctx)
	deps, err := builder.Dependencies(ctx, n.key)
	if err != nil {
		log.Error("🔥 discovery failed", "key", n.key, "err", err)
		n.setFailed(DiscoveryFailed, err)
		return
	}
	log.Debug("▶️ dependencies discovered", "key", n.key, "count", len(deps))
	n.setRequestedDependencies(deps)
}

// requestBuild arms n's build pipeline exactly once: the winning caller
// registers a callback that drives dependency fan-out as soon as n's
// dependencies are known (running discovery first if nobody has yet).
// Every other caller is a no-op here and simply waits on n.builtWait.
func (c *Context[K, V]) requestBuild(ctx context.Context, n *node[K, V]) {
	if !n.tryStartBuild() {
		return
	}
	c.ensureDiscovered(ctx, n)
	n.registerPostDepsKnownCallback(func() {
		c.onDependenciesKnown(ctx, n)
	})
}

// onDependenciesKnown runs once n's dependency list is frozen (or once n
// reaches a terminal state without one). It detects cycles through n
// before fanning out, then requests a build of every dependency and
// arranges for n's own build job to be enqueued once every dependency has
// reached a terminal state.
func (c *Context[K, V]) onDependenciesKnown(ctx context.Context, n *node[K, V]) {
	switch n.getState() {
	case NoBuilderAvailable, Failure:
		return
	}

	if c.detectCycle(ctx, n) {
		return
	}

	deps := n.dependencies()
	if len(deps) == 0 {
		c.enqueueBuild(ctx, n)
		return
	}

	n.setOutstanding(int64(len(deps)))
	for _, depKey := range deps {
		depNode := c.getOrCreateNode(depKey)
		c.requestBuild(ctx, depNode)
		depNode.registerPostBuildCallback(func() {
			if n.decrementOutstanding() {
				c.enqueueBuild(ctx, n)
			}
		})
	}
}

func (c *Context[K, V]) enqueueBuild(ctx context.Context, n *node[K, V]) {
	c.jobs.RegisterJob(ctx, queue.Job{
		Style: queue.ObjectBuilding,
		Func: func() {
			c.runBuild(ctx, n)
		},
	})
}

// runBuild gathers n's dependencies' built values and invokes
// builder.Build. It only runs after every dependency has reached a
// terminal state, so any non-ObjectBuilt dependency here is propagated as
// a DependencyFailed failure rather than retried.
func (c *Context[K, V]) runBuild(ctx context.Context, n *node[K, V]) {
	deps := n.dependencies()
	values := make(map[K]V, len(deps))
	for _, depKey := range deps {
		depNode := c.getOrCreateNode(depKey)
		switch depNode.getState() {
		case ObjectBuilt:
			values[depKey] = depNode.builtValue()
		case NoBuilderAvailable:
			n.setFailed(DependencyFailed, fmt.Errorf("%w: key %v", ErrNoBuilder, depKey))
			return
		case Failure:
			n.setFailed(DependencyFailed, depNode.buildError())
			return
		default:
			n.setFailed(DependencyFailed, fmt.Errorf("depgraph: dependency %v not terminal at build time", depKey))
			return
		}
	}

	log := ctxlog.FromContext(ctx)
	value, err := n.builder.Build(ctx, n.key, values)
	if err != nil {
		log.Error("🔥 build failed", "key", n.key, "err", err)
		n.setFailed(BuildFailed, err)
		return
	}
	log.Debug("✅ built", "key", n.key)
	n.setBuilt(value)
}
