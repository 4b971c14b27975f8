// Package mediator routes typed requests to exactly one handler through an
// ordered chain of pipeline behaviors.
package mediator

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/BinaryAlley/Lyrida-sub002/internal/result"
)

// ErrNoHandler reports a request type without a registered handler.
// It is a configuration error: Check returns it at startup and Send panics with it.
var ErrNoHandler = errors.New("no handler registered for request")

// Call describes the request flowing through the pipeline.
type Call struct {
	Request any
	Name    string
	fail    func([]result.Error) result.Any
}

// Fail builds a failed Result of the request's own result type, so a behavior
// can short-circuit without knowing T.
func (c Call) Fail(errs ...result.Error) result.Any {
	return c.fail(errs)
}

// Next invokes the rest of the pipeline / Appelle la suite du pipeline
type Next func(ctx context.Context) result.Any

// Behavior wraps the handler like a middleware: it may run code before and
// after next, or return early without calling it.
type Behavior interface {
	Handle(ctx context.Context, call Call, next Next) result.Any
}

// BehaviorFunc adapts a function to Behavior.
type BehaviorFunc func(ctx context.Context, call Call, next Next) result.Any

// Handle calls f(ctx, call, next).
func (f BehaviorFunc) Handle(ctx context.Context, call Call, next Next) result.Any {
	return f(ctx, call, next)
}

type entry struct {
	name   string
	invoke func(ctx context.Context, req any) result.Any
	fail   func([]result.Error) result.Any
}

// Dispatcher maps request types to handlers / Associe les types de requêtes aux handlers
type Dispatcher struct {
	mu        sync.RWMutex
	handlers  map[reflect.Type]entry
	behaviors []Behavior
	started   atomic.Bool
}

// New creates a dispatcher. Behaviors run in the given order, the first one
// being the outermost.
func New(behaviors ...Behavior) *Dispatcher {
	for i, b := range behaviors {
		if b == nil {
			panic(fmt.Sprintf("mediator: behavior %d is nil", i))
		}
	}
	return &Dispatcher{
		handlers:  make(map[reflect.Type]entry),
		behaviors: behaviors,
	}
}

// Register binds h to request type R. Registering R twice, or registering
// after the first dispatch, panics.
func Register[R Request[T], T any](d *Dispatcher, h Handler[R, T]) {
	if h == nil {
		panic("mediator: nil handler")
	}
	if d.started.Load() {
		panic("mediator: Register called after dispatching started")
	}

	t := reflect.TypeFor[R]()

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.handlers[t]; exists {
		panic(fmt.Sprintf("mediator: duplicate handler for %s", t))
	}
	d.handlers[t] = entry{
		name: t.Name(),
		invoke: func(ctx context.Context, req any) result.Any {
			return h.Handle(ctx, req.(R))
		},
		fail: func(errs []result.Error) result.Any {
			return result.Fail[T](errs...)
		},
	}
}

// Send dispatches req and returns the handler's Result unchanged, after it went
// through every behavior. Sending an unregistered request type panics.
func Send[T any](ctx context.Context, d *Dispatcher, req Request[T]) result.Result[T] {
	if req == nil {
		panic("mediator: nil request")
	}
	d.started.Store(true)

	t := reflect.TypeOf(req)
	d.mu.RLock()
	e, ok := d.handlers[t]
	d.mu.RUnlock()
	if !ok {
		panic(fmt.Sprintf("mediator: %v: %s", ErrNoHandler, t))
	}

	call := Call{Request: req, Name: e.name, fail: e.fail}
	out := d.run(ctx, call, e)

	r, ok := out.(result.Result[T])
	if !ok {
		panic(fmt.Sprintf("mediator: pipeline for %s returned %T", e.name, out))
	}
	return r
}

func (d *Dispatcher) run(ctx context.Context, call Call, e entry) result.Any {
	next := Next(func(ctx context.Context) result.Any {
		return e.invoke(ctx, call.Request)
	})

	for i := len(d.behaviors) - 1; i >= 0; i-- {
		b, inner := d.behaviors[i], next
		next = func(ctx context.Context) result.Any {
			return b.Handle(ctx, call, inner)
		}
	}

	return next(ctx)
}

// Check verifies that every sample request has a handler. Call it at startup
// with the full request catalogue and abort when it fails.
func (d *Dispatcher) Check(requests ...any) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var errs []error
	for _, req := range requests {
		t := reflect.TypeOf(req)
		if _, ok := d.handlers[t]; !ok {
			errs = append(errs, fmt.Errorf("%w: %s", ErrNoHandler, t))
		}
	}
	return errors.Join(errs...)
}

// Registered lists the names of the registered request types, sorted.
func (d *Dispatcher) Registered() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	names := make([]string, 0, len(d.handlers))
	for _, e := range d.handlers {
		names = append(names, e.name)
	}
	sort.Strings(names)
	return names
}
