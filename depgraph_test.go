package depgraph

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/depgraph/queue"
)

func intBuilder(deps func(int) []int) *FuncBuilder[int, int] {
	return &FuncBuilder[int, int]{
		DependenciesFunc: func(_ context.Context, key int) ([]int, error) {
			return deps(key), nil
		},
		BuildFunc: func(_ context.Context, key int, built map[int]int) (int, error) {
			sum := key
			for _, v := range built {
				sum += v
			}
			return sum, nil
		},
	}
}

func newTestContext(builders map[int]Builder[int, int], q queue.Queue) *Context[int, int] {
	provider := NewMapBuilderProvider[int, int]()
	for k, b := range builders {
		provider.Builders[k] = b
	}
	return New[int, int](provider, q)
}

func TestBuildObject_Leaf(t *testing.T) {
	builders := map[int]Builder[int, int]{
		1: intBuilder(func(int) []int { return nil }),
	}
	ctx := newTestContext(builders, queue.NewInline())

	value, err := ctx.BuildObject(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, value)
}

func TestBuildObject_LinearChain(t *testing.T) {
	builders := map[int]Builder[int, int]{
		3: intBuilder(func(int) []int { return []int{2} }),
		2: intBuilder(func(int) []int { return []int{1} }),
		1: intBuilder(func(int) []int { return nil }),
	}
	ctx := newTestContext(builders, queue.NewPool(4))

	value, err := ctx.BuildObject(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 6, value) // 3 + (2 + (1))
}

func TestBuildObject_Diamond(t *testing.T) {
	// 4 depends on {2,3}; 2 and 3 both depend on {1}.
	builders := map[int]Builder[int, int]{
		4: intBuilder(func(int) []int { return []int{2, 3} }),
		3: intBuilder(func(int) []int { return []int{1} }),
		2: intBuilder(func(int) []int { return []int{1} }),
		1: intBuilder(func(int) []int { return nil }),
	}

	var oneBuilds int32
	builders[1] = &FuncBuilder[int, int]{
		BuildFunc: func(context.Context, int, map[int]int) (int, error) {
			atomic.AddInt32(&oneBuilds, 1)
			return 1, nil
		},
	}

	ctx := newTestContext(builders, queue.NewPool(8))

	value, err := ctx.BuildObject(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, 4+3+2+1+1, value) // 4 + (3+1) + (2+1)
	assert.Equal(t, int32(1), atomic.LoadInt32(&oneBuilds), "shared dependency must build exactly once")
}

func TestBuildObject_NoBuilderAvailable(t *testing.T) {
	ctx := newTestContext(nil, queue.NewInline())

	_, err := ctx.BuildObject(context.Background(), 42)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoBuilder))
}

func TestBuildObject_DiscoveryFailure(t *testing.T) {
	boom := errors.New("boom")
	builders := map[int]Builder[int, int]{
		1: &FuncBuilder[int, int]{
			DependenciesFunc: func(context.Context, int) ([]int, error) {
				return nil, boom
			},
		},
	}
	ctx := newTestContext(builders, queue.NewInline())

	_, err := ctx.BuildObject(context.Background(), 1)
	require.Error(t, err)
	var buildErr *BuildError
	require.True(t, errors.As(err, &buildErr))
	assert.Equal(t, DiscoveryFailed, buildErr.Kind)
	assert.True(t, errors.Is(err, boom))
}

func TestBuildObject_DependencyFailurePropagates(t *testing.T) {
	boom := errors.New("boom")
	builders := map[int]Builder[int, int]{
		2: intBuilder(func(int) []int { return []int{1} }),
		1: &FuncBuilder[int, int]{
			BuildFunc: func(context.Context, int, map[int]int) (int, error) {
				return 0, boom
			},
		},
	}
	ctx := newTestContext(builders, queue.NewPool(2))

	_, err := ctx.BuildObject(context.Background(), 2)
	require.Error(t, err)
	var buildErr *BuildError
	require.True(t, errors.As(err, &buildErr))
	assert.Equal(t, DependencyFailed, buildErr.Kind)
}

func TestBuildObject_CycleDetected(t *testing.T) {
	builders := map[int]Builder[int, int]{
		1: intBuilder(func(int) []int { return []int{2} }),
		2: intBuilder(func(int) []int { return []int{1} }),
	}
	ctx := newTestContext(builders, queue.NewPool(2))

	_, err := ctx.BuildObject(context.Background(), 1)
	require.Error(t, err)
	var buildErr *BuildError
	require.True(t, errors.As(err, &buildErr))
	assert.Equal(t, DependencyFailed, buildErr.Kind)
}

func TestBuildObject_MemoizesAcrossConcurrentRequesters(t *testing.T) {
	var builds int32
	builders := map[int]Builder[int, int]{
		1: &FuncBuilder[int, int]{
			BuildFunc: func(context.Context, int, map[int]int) (int, error) {
				atomic.AddInt32(&builds, 1)
				return 7, nil
			},
		},
	}
	ctx := newTestContext(builders, queue.NewPool(16))

	const requesters = 64
	var wg sync.WaitGroup
	wg.Add(requesters)
	results := make([]int, requesters)
	errs := make([]error, requesters)
	for i := 0; i < requesters; i++ {
		i := i
		go func() {
			defer wg.Done()
			results[i], errs[i] = ctx.BuildObject(context.Background(), 1)
		}()
	}
	wg.Wait()

	for i := 0; i < requesters; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, 7, results[i])
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&builds))
}

func TestGetDependencies_ReturnsFrozenList(t *testing.T) {
	builders := map[int]Builder[int, int]{
		1: intBuilder(func(int) []int { return []int{2, 3} }),
	}
	ctx := newTestContext(builders, queue.NewInline())

	deps, err := ctx.GetDependencies(context.Background(), 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{2, 3}, deps)
}

func TestOverride_TakesPriorityOverBuilder(t *testing.T) {
	provider := NewMapBuilderProvider[int, int]()
	provider.Builders[1] = intBuilder(func(int) []int { return nil })
	provider.Override(1, 999)

	ctx := New[int, int](provider, queue.NewInline())
	value, err := ctx.BuildObject(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 999, value)
}

func TestBuildObject_HalvingWorkload(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping large halving workload in -short mode")
	}

	const top = 1 << 12
	provider := NewMapBuilderProvider[int, int]()
	provider.Fallback = func(key int) (Builder[int, int], bool) {
		return &FuncBuilder[int, int]{
			DependenciesFunc: func(_ context.Context, key int) ([]int, error) {
				var deps []int
				for d := key / 2; d >= 1; d /= 2 {
					deps = append(deps, d)
					if d == 1 {
						break
					}
				}
				return deps, nil
			},
			BuildFunc: func(_ context.Context, key int, built map[int]int) (int, error) {
				sum := key
				for _, v := range built {
					sum += v
				}
				return sum, nil
			},
		}, true
	}

	ctx := New[int, int](provider, queue.NewPool(16))
	value, err := ctx.BuildObject(context.Background(), top)
	require.NoError(t, err)
	assert.Positive(t, value)
}

func TestBuildError_UnwrapAndFormat(t *testing.T) {
	cause := errors.New("root cause")
	err := newBuildError(BuildFailed, "key-"+strconv.Itoa(1), cause)

	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "BuildFailed")
	assert.Contains(t, err.Error(), "key-1")
	assert.Equal(t, fmt.Sprintf("depgraph: %s for key %v: %v", BuildFailed, "key-1", cause), err.Error())
}
