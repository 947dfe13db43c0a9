package sim

import (
	"context"
	"sort"
)

// Method is a solver variant: given a validated configuration it advances
// the vorticity field to TFinal and returns the result. The set of variants
// is closed; selection happens once at configuration time.
type Method interface {
	Name() string
	Solve(ctx context.Context, cfg SimulationConfig) (*SolveResult, error)
}

// methodFactory builds a fresh method instance with an optional observer.
type methodFactory func(obs Observer) Method

var methodRegistry = map[string]methodFactory{}

// reservedMethods are recognized variant names that have no implementation
// yet. Selecting one fails eagerly with a distinct message instead of an
// "unknown method" error.
var reservedMethods = map[string]bool{
	"spectral":      true,
	"finite-volume": true,
}

// RegisterMethod installs a solver variant. Called from package init
// functions of the implementing packages.
func RegisterMethod(name string, factory func(obs Observer) Method) {
	methodRegistry[name] = factory
}

// NewMethod resolves a variant by name. Unknown and reserved-but-missing
// names are both InvalidConfigError, reported before any solve starts.
func NewMethod(name string, obs Observer) (Method, error) {
	if factory, ok := methodRegistry[name]; ok {
		return factory(obs), nil
	}
	if reservedMethods[name] {
		return nil, invalidf("method", "%q is recognized but not implemented", name)
	}
	return nil, invalidf("method", "unknown method %q (available: %v)", name, MethodNames())
}

// MethodNames lists the implemented variants in sorted order.
func MethodNames() []string {
	names := make([]string, 0, len(methodRegistry))
	for name := range methodRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
