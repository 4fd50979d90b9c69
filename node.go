package depgraph

import (
	"sync"
	"sync/atomic"
)

// node is the per-key record tracking one object's discovery and build
// lifecycle. A node is created once per key, on first reference, and is
// never removed or reset; every transition below is monotonic and every
// terminal state is permanent.
//
// A single mutex guards state, deps, built, err, and both callback lists.
// depsKnownWait and builtWait are condition variables layered over that
// same mutex (see waitHandle), one per milestone a caller might block on.
type node[K comparable, V any] struct {
	key K

	// builder is resolved lazily, by the single goroutine that wins
	// tryStartDiscovery, and only ever read afterward by goroutines that
	// have observed this node's state past Starting (see ensureDiscovered
	// in context.go). That happens-before relationship, carried by the
	// state transition's mutex/broadcast, is what makes this field safe
	// to read without its own lock despite having no guard here.
	builder Builder[K, V]

	mu    sync.Mutex
	state int32 // State, also read lock-free via atomic
	deps  []K
	built V
	err   *BuildError

	depsKnownWait      *waitHandle
	depsKnownCallbacks []func()

	builtWait          *waitHandle
	postBuildCallbacks []func()

	// discoveryRequested is a one-shot 0->1 latch guarding the single call
	// to builder.Dependencies for this node.
	discoveryRequested uint32

	// buildRequested is a one-shot 0->1 latch: the first goroutine to win
	// the CompareAndSwap in tryStartBuild is the one that arranges
	// discovery, dependency fan-out, and the eventual build job. Every
	// later caller is a no-op; it just waits on builtWait like anyone else.
	buildRequested uint32

	// outstanding counts dependencies not yet in a terminal build state.
	// It is set once, after discovery, and decremented by each
	// dependency's post-build callback; the decrement that reaches zero
	// is the signal to enqueue this node's own build job.
	outstanding int64
}

func newNode[K comparable, V any](key K) *node[K, V] {
	n := &node[K, V]{key: key, state: int32(Starting)}
	n.depsKnownWait = newWaitHandle(&n.mu, n.getState, depsKnownMask)
	n.builtWait = newWaitHandle(&n.mu, n.getState, builtMask)
	return n
}

// getState reads the node's state without taking the lock.
func (n *node[K, V]) getState() State {
	return State(atomic.LoadInt32(&n.state))
}

// setStateLocked updates the state. Callers must hold n.mu.
func (n *node[K, V]) setStateLocked(s State) {
	atomic.StoreInt32(&n.state, int32(s))
}

func (n *node[K, V]) dependencies() []K {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.deps
}

func (n *node[K, V]) builtValue() V {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.built
}

func (n *node[K, V]) buildError() *BuildError {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.err
}

// setNoBuilder transitions Starting -> NoBuilderAvailable. Both wait
// handles accept this state since no dependencies will ever be known and
// no value will ever be built.
func (n *node[K, V]) setNoBuilder() {
	n.mu.Lock()
	n.setStateLocked(NoBuilderAvailable)
	n.depsKnownWait.broadcast()
	n.builtWait.broadcast()
	depsCbs, buildCbs := n.drainCallbacksLocked()
	n.mu.Unlock()

	runCallbacks(depsCbs)
	runCallbacks(buildCbs)
}

// setRequestedDependencies transitions Starting -> DependenciesKnown,
// freezing deps as the node's dependency list.
func (n *node[K, V]) setRequestedDependencies(deps []K) {
	n.mu.Lock()
	n.deps = deps
	n.setStateLocked(DependenciesKnown)
	n.depsKnownWait.broadcast()
	depsCbs := n.depsKnownCallbacks
	n.depsKnownCallbacks = nil
	n.mu.Unlock()

	runCallbacks(depsCbs)
}

// setBuilt transitions DependenciesKnown -> ObjectBuilt.
func (n *node[K, V]) setBuilt(value V) {
	n.mu.Lock()
	n.built = value
	n.setStateLocked(ObjectBuilt)
	n.builtWait.broadcast()
	buildCbs := n.postBuildCallbacks
	n.postBuildCallbacks = nil
	n.mu.Unlock()

	runCallbacks(buildCbs)
}

// setFailed transitions to Failure, from Starting (discovery failure) or
// from DependenciesKnown (dependency or build failure). Both callback
// lists are drained regardless of origin; whichever one is already empty
// is simply a no-op.
func (n *node[K, V]) setFailed(kind Kind, err error) {
	n.mu.Lock()
	if n.getState().IsTerminal() {
		// Another goroutine already moved this node to a terminal state
		// (e.g. two concurrent cycle-detection walks crossing the same
		// node). The first transition wins; state is monotonic.
		n.mu.Unlock()
		return
	}
	n.err = newBuildError(kind, n.key, err)
	n.setStateLocked(Failure)
	n.depsKnownWait.broadcast()
	n.builtWait.broadcast()
	depsCbs, buildCbs := n.drainCallbacksLocked()
	n.mu.Unlock()

	runCallbacks(depsCbs)
	runCallbacks(buildCbs)
}

// drainCallbacksLocked captures and clears both callback lists. Callers
// must hold n.mu and must run the returned slices after unlocking.
func (n *node[K, V]) drainCallbacksLocked() (depsCbs, buildCbs []func()) {
	depsCbs = n.depsKnownCallbacks
	n.depsKnownCallbacks = nil
	buildCbs = n.postBuildCallbacks
	n.postBuildCallbacks = nil
	return depsCbs, buildCbs
}

func runCallbacks(cbs []func()) {
	for _, cb := range cbs {
		cb()
	}
}

// registerPostDepsKnownCallback runs cb once the node's dependency list is
// frozen, or immediately if that has already happened. This is the
// register-or-run-immediately pattern: the fast-path check and the locked
// recheck must agree on exactly one of "run now" or "append for later",
// never both and never neither.
func (n *node[K, V]) registerPostDepsKnownCallback(cb func()) {
	if n.depsKnownWait.signaled() {
		cb()
		return
	}
	n.mu.Lock()
	if depsKnownMask.accepts(n.getState()) {
		n.mu.Unlock()
		cb()
		return
	}
	n.depsKnownCallbacks = append(n.depsKnownCallbacks, cb)
	n.mu.Unlock()
}

// registerPostBuildCallback runs cb once the node reaches a terminal
// state, or immediately if it already has.
func (n *node[K, V]) registerPostBuildCallback(cb func()) {
	if n.builtWait.signaled() {
		cb()
		return
	}
	n.mu.Lock()
	if builtMask.accepts(n.getState()) {
		n.mu.Unlock()
		cb()
		return
	}
	n.postBuildCallbacks = append(n.postBuildCallbacks, cb)
	n.mu.Unlock()
}

// tryStartDiscovery arms the single call to builder.Dependencies for this
// node exactly once.
func (n *node[K, V]) tryStartDiscovery() bool {
	return atomic.CompareAndSwapUint32(&n.discoveryRequested, 0, 1)
}

// tryStartBuild arms the build pipeline for this node exactly once. The
// caller for which this returns true is responsible for discovery (if not
// already underway), dependency fan-out, and eventually enqueuing the
// node's build job; every other caller just waits on builtWait.
func (n *node[K, V]) tryStartBuild() bool {
	return atomic.CompareAndSwapUint32(&n.buildRequested, 0, 1)
}

// setOutstanding records how many dependencies this node is waiting on
// before its own build job can run.
func (n *node[K, V]) setOutstanding(count int64) {
	atomic.StoreInt64(&n.outstanding, count)
}

// decrementOutstanding records that one dependency reached a terminal
// state, and reports whether this call drove the counter to zero -- the
// signal that this node's build job may now be enqueued.
func (n *node[K, V]) decrementOutstanding() bool {
	return atomic.AddInt64(&n.outstanding, -1) == 0
}
