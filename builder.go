package depgraph

import "context"

// Builder resolves the dependencies and the built value for every key it is
// responsible for. A single Builder instance may have Dependencies and
// Build invoked concurrently from different worker goroutines, but never
// concurrently for the same key (the node's build-request latch guarantees
// at most one in-flight build per key).
type Builder[K comparable, V any] interface {
	// Dependencies returns the keys this key depends on. Called exactly
	// once per node during discovery. Returning an error marks the node
	// Failure with Kind DiscoveryFailed.
	Dependencies(ctx context.Context, key K) ([]K, error)

	// Build produces the value for key given the fully built values of its
	// dependencies. Called exactly once per node during build. Returning
	// an error marks the node Failure with Kind BuildFailed.
	Build(ctx context.Context, key K, deps map[K]V) (V, error)
}

// BuilderProvider resolves a key to a Builder. It never raises; failure to
// find a builder is signaled by a false return, which the context turns
// into the NoBuilderAvailable terminal state (not a fault of the caller).
type BuilderProvider[K comparable, V any] interface {
	TryGetBuilder(key K) (Builder[K, V], bool)
}

// FuncBuilder adapts a pair of plain functions into a Builder, mirroring
// the reference implementation's FunctionBasedObjectBuilder. Either
// function may be nil, in which case Dependencies returns no dependencies
// and Build returns the zero value of V.
type FuncBuilder[K comparable, V any] struct {
	DependenciesFunc func(ctx context.Context, key K) ([]K, error)
	BuildFunc        func(ctx context.Context, key K, deps map[K]V) (V, error)
}

func (f *FuncBuilder[K, V]) Dependencies(ctx context.Context, key K) ([]K, error) {
	if f.DependenciesFunc == nil {
		return nil, nil
	}
	return f.DependenciesFunc(ctx, key)
}

func (f *FuncBuilder[K, V]) Build(ctx context.Context, key K, deps map[K]V) (V, error) {
	if f.BuildFunc == nil {
		var zero V
		return zero, nil
	}
	return f.BuildFunc(ctx, key, deps)
}

// ProviderFunc resolves a builder for a key dynamically. It returns false
// when it cannot synthesize one, without raising.
type ProviderFunc[K comparable, V any] func(key K) (Builder[K, V], bool)

// MapBuilderProvider is the reference BuilderProvider implementation,
// ported from ObjectBuilderProvider. Lookup order is: per-key overrides,
// then per-key explicit builders, then the fallback function.
type MapBuilderProvider[K comparable, V any] struct {
	// Builders holds per-key builders registered ahead of time.
	Builders map[K]Builder[K, V]
	// Fallback synthesizes a builder on demand when no explicit builder or
	// override exists for a key.
	Fallback ProviderFunc[K, V]

	overrides map[K]V
}

// NewMapBuilderProvider returns an empty provider ready for registration.
func NewMapBuilderProvider[K comparable, V any]() *MapBuilderProvider[K, V] {
	return &MapBuilderProvider[K, V]{
		Builders:  make(map[K]Builder[K, V]),
		overrides: make(map[K]V),
	}
}

// Override registers a zero-dependency synthetic builder for key that
// always returns value from Build. This implements the
// addressSpecificOverrides map from the reference design notes (§9):
// lookup order places overrides ahead of explicit builders and the
// fallback function.
func (p *MapBuilderProvider[K, V]) Override(key K, value V) {
	if p.overrides == nil {
		p.overrides = make(map[K]V)
	}
	p.overrides[key] = value
}

// TryGetBuilder implements BuilderProvider.
func (p *MapBuilderProvider[K, V]) TryGetBuilder(key K) (Builder[K, V], bool) {
	if value, ok := p.overrides[key]; ok {
		return &FuncBuilder[K, V]{
			BuildFunc: func(context.Context, K, map[K]V) (V, error) {
				return value, nil
			},
		}, true
	}

	if builder, ok := p.Builders[key]; ok {
		return builder, true
	}

	if p.Fallback != nil {
		if builder, ok := p.Fallback(key); ok {
			return builder, true
		}
	}

	return nil, false
}
