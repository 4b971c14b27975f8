package mediator

import (
	"context"

	"github.com/BinaryAlley/Lyrida-sub002/internal/result"
)

// Request is implemented by every request type whose handler returns Result[T].
// Concrete requests embed Query[T] or Command[T]; the unexported method ties T
// to the request type so Send can return a statically typed Result.
type Request[T any] interface {
	returns() T
}

// Query marks a read-only request producing T / Marque une requête en lecture seule
type Query[T any] struct{}

func (Query[T]) returns() T {
	var zero T
	return zero
}

// Command marks a request that mutates state / Marque une requête qui modifie l'état
type Command[T any] struct{}

func (Command[T]) returns() T {
	var zero T
	return zero
}

func (Command[T]) mutates() {}

// Mutating is satisfied by every request embedding Command.
type Mutating interface {
	mutates()
}

// IsCommand reports whether req embeds Command.
func IsCommand(req any) bool {
	_, ok := req.(Mutating)
	return ok
}

// Handler handles one request type / Traite un type de requête
type Handler[R Request[T], T any] interface {
	Handle(ctx context.Context, req R) result.Result[T]
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc[R Request[T], T any] func(ctx context.Context, req R) result.Result[T]

// Handle calls f(ctx, req).
func (f HandlerFunc[R, T]) Handle(ctx context.Context, req R) result.Result[T] {
	return f(ctx, req)
}
