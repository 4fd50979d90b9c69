// Package depgraph is a concurrent, in-memory dependency-graph build engine.
//
// Given an opaque key, a Context discovers the dependencies of the value
// identified by that key, recursively ensures each dependency is built, and
// then builds the value from its already-built dependencies. Builds are
// dispatched through a pluggable job queue (see the queue subpackage) so the
// engine can run inline, on a fixed worker pool, or on a priority-tiered
// worker pool without any change to the dependency-resolution logic.
//
// Every key is built at most once per Context regardless of how many
// dependents transitively need it, and regardless of how many goroutines
// concurrently request overlapping subgraphs. The graph is discovered on
// demand: nothing about the shape of the DAG needs to be known up front.
//
// The engine does not persist graph state, does not prevent cycles (a
// depth-first cycle check runs when a node's build is requested, and fails
// the nodes it finds on a cycle with DependencyFailed), does not cancel
// in-flight builds, and never evicts a node once created.
package depgraph
