package telemetry

import (
	"context"
	"fmt"
	"sync"
)

// propertyBag is the per-invocation mutable property map. It rides on
// the context so code arbitrarily deep in the operation's call graph can
// annotate the eventual terminal event without an explicit handle.
type propertyBag struct {
	mu    sync.Mutex
	props Properties
}

type bagKey struct{}

// StrictProperties, when true, turns SetProperty calls that have no
// invocation context into panics instead of silent no-ops. Tests use it
// to catch wiring mistakes; production builds leave it false.
var StrictProperties = false

// withInvocation binds a property bag to ctx. A nested instrumented
// operation reuses the nearest enclosing bag rather than shadowing it,
// so only one bag is current along a given call path.
func withInvocation(ctx context.Context) (context.Context, *propertyBag) {
	if bag, ok := ctx.Value(bagKey{}).(*propertyBag); ok {
		return ctx, bag
	}
	bag := &propertyBag{props: make(Properties)}
	return context.WithValue(ctx, bagKey{}, bag), bag
}

// SetProperty attaches a property to the terminal event of the enclosing
// instrumented operation, overwriting any prior value for key. Outside
// any instrumented operation it is a no-op.
func SetProperty(ctx context.Context, key string, value any) {
	bag, ok := ctx.Value(bagKey{}).(*propertyBag)
	if !ok {
		if StrictProperties {
			panic(fmt.Sprintf("telemetry: SetProperty(%q) outside an instrumented operation", key))
		}
		return
	}
	bag.mu.Lock()
	bag.props[key] = value
	bag.mu.Unlock()
}

// snapshot copies the accumulated properties. The terminal event is
// built from this copy, so writes after the snapshot have no effect.
func (b *propertyBag) snapshot() Properties {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(Properties, len(b.props))
	for k, v := range b.props {
		out[k] = v
	}
	return out
}
