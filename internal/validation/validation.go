// Package validation is the pipeline stage that rejects malformed requests
// before their handler runs. Validators are pure: they only look at the request.
package validation

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"github.com/BinaryAlley/Lyrida-sub002/internal/mediator"
	"github.com/BinaryAlley/Lyrida-sub002/internal/result"
)

// Validator checks one request type / Vérifie un type de requête
type Validator[R any] interface {
	Validate(req R) []result.Error
}

// Func adapts a function to Validator.
type Func[R any] func(req R) []result.Error

// Validate calls f(req).
func (f Func[R]) Validate(req R) []result.Error {
	return f(req)
}

// Registry holds at most one validator per request type.
type Registry struct {
	mu         sync.RWMutex
	validators map[reflect.Type]func(any) []result.Error
}

// NewRegistry creates an empty registry / Crée un registre vide
func NewRegistry() *Registry {
	return &Registry{validators: make(map[reflect.Type]func(any) []result.Error)}
}

// Register binds v to request type R. A second validator for R panics.
func Register[R any](reg *Registry, v Validator[R]) {
	if v == nil {
		panic("validation: nil validator")
	}
	t := reflect.TypeFor[R]()

	reg.mu.Lock()
	defer reg.mu.Unlock()

	if _, exists := reg.validators[t]; exists {
		panic(fmt.Sprintf("validation: duplicate validator for %s", t))
	}
	reg.validators[t] = func(req any) []result.Error {
		return v.Validate(req.(R))
	}
}

// Validate runs the validator registered for req's type. Without one, it
// reports no failure.
func (reg *Registry) Validate(req any) []result.Error {
	reg.mu.RLock()
	fn, ok := reg.validators[reflect.TypeOf(req)]
	reg.mu.RUnlock()
	if !ok {
		return nil
	}
	return fn(req)
}

// Has reports whether req's type has a validator.
func (reg *Registry) Has(req any) bool {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	_, ok := reg.validators[reflect.TypeOf(req)]
	return ok
}

// Behavior returns the pipeline stage. On any failure it returns one
// validation error per failure and never calls the handler.
func Behavior(reg *Registry) mediator.Behavior {
	return mediator.BehaviorFunc(func(ctx context.Context, call mediator.Call, next mediator.Next) result.Any {
		failures := reg.Validate(call.Request)
		if len(failures) == 0 {
			return next(ctx)
		}

		errs := make([]result.Error, len(failures))
		for i, f := range failures {
			// Validators only describe field problems; the kind is always Validation.
			f.Kind = result.KindValidation
			errs[i] = f
		}

		slog.DebugContext(ctx, "request rejected by validation",
			"request", call.Name,
			"failures", len(errs),
		)
		return call.Fail(errs...)
	})
}
