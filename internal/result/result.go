package result

// Result holds either a value or a non-empty list of errors, never both.
// The zero value is not a valid Result; build one with Ok or Fail.
type Result[T any] struct {
	value T
	errs  []Error
	set   bool
}

// Ok wraps a successful value / Encapsule une valeur de succès
func Ok[T any](value T) Result[T] {
	return Result[T]{value: value, set: true}
}

// Fail wraps one or more errors. Only validation errors may be combined;
// an empty list or a mixed list is a programming error and panics.
func Fail[T any](errs ...Error) Result[T] {
	if len(errs) == 0 {
		panic("result: Fail called without errors")
	}
	if len(errs) > 1 {
		for _, e := range errs {
			if e.Kind != KindValidation {
				panic("result: only validation errors may be combined, got " + e.Kind.String())
			}
		}
	}
	cp := make([]Error, len(errs))
	copy(cp, errs)
	return Result[T]{errs: cp, set: true}
}

// FromError converts err into a failed Result, see AsError.
func FromError[T any](err error) Result[T] {
	return Fail[T](AsError(err))
}

// IsOk reports success / Indique le succès
func (r Result[T]) IsOk() bool {
	if !r.set {
		panic("result: use of zero Result")
	}
	return len(r.errs) == 0
}

// IsErr reports failure / Indique l'échec
func (r Result[T]) IsErr() bool {
	return !r.IsOk()
}

// Value returns the value and whether the Result is successful.
func (r Result[T]) Value() (T, bool) {
	return r.value, r.IsOk()
}

// Errors returns a copy of the error list, nil on success.
func (r Result[T]) Errors() []Error {
	if r.IsOk() {
		return nil
	}
	cp := make([]Error, len(r.errs))
	copy(cp, r.errs)
	return cp
}

// FirstError returns the first error. It panics on success.
func (r Result[T]) FirstError() Error {
	if r.IsOk() {
		panic("result: FirstError on successful Result")
	}
	return r.errs[0]
}

// Equal compares two Results structurally.
func (r Result[T]) Equal(other Result[T], eq func(a, b T) bool) bool {
	if r.IsOk() != other.IsOk() {
		return false
	}
	if r.IsOk() {
		return eq(r.value, other.value)
	}
	if len(r.errs) != len(other.errs) {
		return false
	}
	for i := range r.errs {
		if r.errs[i] != other.errs[i] {
			return false
		}
	}
	return true
}

// Erase hides T so pipeline behaviors can inspect a Result without knowing it.
func (r Result[T]) Erase() Any {
	return r
}

// Any is the type-erased view of a Result used by the dispatcher pipeline.
type Any interface {
	IsOk() bool
	Errors() []Error
}

// Map transforms the value of a successful Result / Transforme la valeur d'un succès
func Map[T, U any](r Result[T], f func(T) U) Result[U] {
	if r.IsErr() {
		return Result[U]{errs: r.errs, set: true}
	}
	return Ok(f(r.value))
}

// AndThen chains a computation that can itself fail, only on success.
func AndThen[T, U any](r Result[T], f func(T) Result[U]) Result[U] {
	if r.IsErr() {
		return Result[U]{errs: r.errs, set: true}
	}
	return f(r.value)
}

// Match branches into the success or the error handler.
func Match[T, U any](r Result[T], onOk func(T) U, onErr func([]Error) U) U {
	if r.IsOk() {
		return onOk(r.value)
	}
	return onErr(r.Errors())
}

// Cast re-types a failed Result. It panics on success since there is no value to convert.
func Cast[U, T any](r Result[T]) Result[U] {
	if r.IsOk() {
		panic("result: Cast on successful Result")
	}
	return Result[U]{errs: r.errs, set: true}
}
