package depgraph

import (
	"context"
	"fmt"
)

// detectCycle walks n's dependency graph depth-first, forcing discovery
// of each dependency as it goes, and reports whether n participates in a
// cycle. This is not required for correctness of a cycle-free graph, but
// without it a cyclic graph's outstanding-dependency counters would never
// reach zero and every node on the cycle would wait forever; detecting
// the cycle and failing every node on it turns that hang into a
// DependencyFailed error.
func (c *Context[K, V]) detectCycle(ctx context.Context, n *node[K, V]) bool {
	return c.walkForCycle(ctx, n, map[K]bool{}, map[K]bool{})
}

func (c *Context[K, V]) walkForCycle(ctx context.Context, n *node[K, V], visiting, visited map[K]bool) bool {
	if visited[n.key] {
		return false
	}
	if visiting[n.key] {
		n.setFailed(DependencyFailed, fmt.Errorf("depgraph: dependency cycle through key %v", n.key))
		return true
	}

	switch n.getState() {
	case NoBuilderAvailable, Failure:
		visited[n.key] = true
		return false
	}

	visiting[n.key] = true
	defer delete(visiting, n.key)

	for _, depKey := range n.dependencies() {
		depNode := c.getOrCreateNode(depKey)
		c.ensureDiscovered(ctx, depNode)
		depNode.depsKnownWait.Wait()

		if c.walkForCycle(ctx, depNode, visiting, visited) {
			n.setFailed(DependencyFailed, fmt.Errorf("depgraph: dependency cycle through key %v", n.key))
			visited[n.key] = true
			return true
		}
	}

	visited[n.key] = true
	return false
}
