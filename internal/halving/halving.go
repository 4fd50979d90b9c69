// Package halving provides a synthetic depgraph.Builder used by the
// benchmark driver. A key's dependencies are its successive integer
// halves, and building a key sums a CPU-bound trigonometric kernel over
// its already-built dependency values -- a workload shaped after
// DependencyGraph.cpp's benchmark main(), which walks the same halving
// chain and sums sin(address*i) over a fixed iteration count.
package halving

import (
	"context"
	"math"

	"github.com/vk/depgraph"
)

// Builder is a depgraph.Builder[int,float64] whose Dependencies(k) walks
// k/2, k/4, ... down to 1, and whose Build sums a configurable number of
// sin() terms plus every dependency's built value.
type Builder struct {
	// Iterations is the number of sin() terms summed per key. Higher
	// values make Build more CPU-bound, for stressing the worker pool.
	Iterations int
}

// NewBuilder returns a Builder with the given iteration count. A
// non-positive count is clamped to 1 so Build always does some work.
func NewBuilder(iterations int) *Builder {
	if iterations < 1 {
		iterations = 1
	}
	return &Builder{Iterations: iterations}
}

// Dependencies returns key's successive integer halves, stopping at 1.
// Key 1 and key 0 have no dependencies.
func (b *Builder) Dependencies(_ context.Context, key int) ([]int, error) {
	if key <= 1 {
		return nil, nil
	}
	var deps []int
	for d := key / 2; d >= 1; d /= 2 {
		deps = append(deps, d)
	}
	return deps, nil
}

// Build sums b.Iterations terms of sin(key*i) plus every dependency's
// already-built value.
func (b *Builder) Build(_ context.Context, key int, deps map[int]float64) (float64, error) {
	sum := 0.0
	for i := 1; i <= b.Iterations; i++ {
		sum += math.Sin(float64(key) * float64(i))
	}
	for _, v := range deps {
		sum += v
	}
	return sum, nil
}

var _ depgraph.Builder[int, float64] = (*Builder)(nil)
