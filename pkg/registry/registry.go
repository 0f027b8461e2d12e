package registry

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/aretw0/abacus/pkg/domain"
)

// Function defines the signature of a unary scientific function.
// Implementations receive a finite operand; domain violations must wrap domain.ErrDomain.
type Function func(x float64) (float64, error)

// Registry dispatches named unary functions.
type Registry struct {
	mu      sync.RWMutex
	funcs   map[string]Function
	aliases map[string]string
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		funcs:   make(map[string]Function),
		aliases: make(map[string]string),
	}
}

// Default returns a registry with the calculator's scientific functions.
// Trigonometric functions take radians.
func Default() *Registry {
	r := NewRegistry()
	r.Register(domain.FuncSin, pure(math.Sin))
	r.Register(domain.FuncCos, pure(math.Cos))
	r.Register(domain.FuncTan, pure(math.Tan))
	r.Register(domain.FuncSqrt, func(x float64) (float64, error) {
		if x < 0 {
			return 0, fmt.Errorf("%w: square root of negative number %v", domain.ErrDomain, x)
		}
		return math.Sqrt(x), nil
	})
	r.Register(domain.FuncSquare, func(x float64) (float64, error) {
		return x * x, nil
	})
	r.Register(domain.FuncPercent, func(x float64) (float64, error) {
		return x / 100, nil
	})

	r.Alias("√", domain.FuncSqrt)
	r.Alias("x²", domain.FuncSquare)
	r.Alias("%", domain.FuncPercent)
	return r
}

func pure(fn func(float64) float64) Function {
	return func(x float64) (float64, error) {
		return fn(x), nil
	}
}

// Register adds a function to the registry.
// If a function with the same name exists, it is overwritten.
func (r *Registry) Register(name string, fn Function) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[name] = fn
}

// Alias makes alias resolve to the registered function name.
func (r *Registry) Alias(alias, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aliases[alias] = name
}

// Has reports whether name (or an alias of it) is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.lookup(name)
	return ok
}

// Names returns the registered canonical names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Apply looks up a function by name and applies it to operand.
// A non-finite operand fails with domain.ErrInvalidOperand before dispatch.
func (r *Registry) Apply(name string, operand float64) (float64, error) {
	fn, ok := r.lookup(name)
	if !ok {
		return 0, fmt.Errorf("%w: %s", domain.ErrUnknownFunction, name)
	}
	if math.IsNaN(operand) || math.IsInf(operand, 0) {
		return 0, fmt.Errorf("%w: %v", domain.ErrInvalidOperand, operand)
	}
	return fn(operand)
}

func (r *Registry) lookup(name string) (Function, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if canonical, ok := r.aliases[name]; ok {
		name = canonical
	}
	fn, ok := r.funcs[name]
	return fn, ok
}
