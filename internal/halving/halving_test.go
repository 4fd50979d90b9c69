package halving

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_DependenciesHalves(t *testing.T) {
	b := NewBuilder(1)

	deps, err := b.Dependencies(context.Background(), 12)
	require.NoError(t, err)
	assert.Equal(t, []int{6, 3, 1}, deps)
}

func TestBuilder_DependenciesBaseCase(t *testing.T) {
	b := NewBuilder(1)

	deps, err := b.Dependencies(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, deps)

	deps, err = b.Dependencies(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, deps)
}

func TestBuilder_BuildSumsDependenciesAndKernel(t *testing.T) {
	b := NewBuilder(10)

	value, err := b.Build(context.Background(), 4, map[int]float64{2: 1.5, 1: 0.5})
	require.NoError(t, err)
	assert.Greater(t, value, 2.0) // at least the 2.0 from dependencies
}

func TestNewBuilder_ClampsNonPositiveIterations(t *testing.T) {
	b := NewBuilder(0)
	assert.Equal(t, 1, b.Iterations)

	b = NewBuilder(-5)
	assert.Equal(t, 1, b.Iterations)
}
