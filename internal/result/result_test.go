package result

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResult_OkAndFail(t *testing.T) {
	ok := Ok(42)
	require.True(t, ok.IsOk())
	v, good := ok.Value()
	assert.True(t, good)
	assert.Equal(t, 42, v)
	assert.Nil(t, ok.Errors())

	failed := Fail[int](NotFound("Page.NotFound", ""))
	require.True(t, failed.IsErr())
	assert.Equal(t, KindNotFound, failed.FirstError().Kind)
	assert.Len(t, failed.Errors(), 1)
}

func TestResult_FailPanics(t *testing.T) {
	tests := []struct {
		name string
		errs []Error
	}{
		{"no errors", nil},
		{"mixed kinds", []Error{Validation("a", ""), Conflict("b", "")}},
		{"two failures", []Error{Failure("a", ""), Failure("b", "")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Panics(t, func() { Fail[int](tt.errs...) })
		})
	}
}

func TestResult_MultipleValidationErrors(t *testing.T) {
	r := Fail[string](Validation("path.required", ""), Validation("title.max", ""))
	assert.Len(t, r.Errors(), 2)
}

func TestResult_ZeroValuePanics(t *testing.T) {
	var r Result[int]
	assert.Panics(t, func() { r.IsOk() })
}

func TestMap(t *testing.T) {
	r := Map(Ok(7), strconv.Itoa)
	v, _ := r.Value()
	assert.Equal(t, "7", v)

	failed := Map(Fail[int](Conflict("Role.AlreadyExists", "")), strconv.Itoa)
	assert.Equal(t, "Role.AlreadyExists", failed.FirstError().Code)
}

func TestAndThen(t *testing.T) {
	calls := 0
	half := func(n int) Result[int] {
		calls++
		if n%2 != 0 {
			return Fail[int](Validation("odd", ""))
		}
		return Ok(n / 2)
	}

	r := AndThen(AndThen(Ok(8), half), half)
	v, _ := r.Value()
	assert.Equal(t, 2, v)
	assert.Equal(t, 2, calls)

	calls = 0
	r = AndThen(AndThen(Ok(3), half), half)
	assert.True(t, r.IsErr())
	assert.Equal(t, 1, calls, "chain stops at the first failure")
}

func TestMatch(t *testing.T) {
	describe := func(r Result[int]) string {
		return Match(r,
			func(v int) string { return "ok:" + strconv.Itoa(v) },
			func(errs []Error) string { return "err:" + errs[0].Code },
		)
	}

	assert.Equal(t, "ok:1", describe(Ok(1)))
	assert.Equal(t, "err:x", describe(Fail[int](Failure("x", ""))))
}

func TestResult_Equal(t *testing.T) {
	eq := func(a, b int) bool { return a == b }

	assert.True(t, Ok(1).Equal(Ok(1), eq))
	assert.False(t, Ok(1).Equal(Ok(2), eq))
	assert.False(t, Ok(1).Equal(Fail[int](Failure("x", "")), eq))
	assert.True(t, Fail[int](Failure("x", "m")).Equal(Fail[int](Failure("x", "m")), eq))
	assert.False(t, Fail[int](Failure("x", "")).Equal(Fail[int](Failure("y", "")), eq))
}

func TestFromError(t *testing.T) {
	r := FromError[int](ErrInvalidPermission)
	assert.Equal(t, ErrInvalidPermission, r.FirstError())

	r = FromError[int](errors.New("boom"))
	assert.Equal(t, KindFailure, r.FirstError().Kind)
	assert.Equal(t, "Unexpected", r.FirstError().Code)
}

func TestCast(t *testing.T) {
	r := Cast[string](Fail[int](NotFound("User.NotFound", "")))
	assert.Equal(t, "User.NotFound", r.FirstError().Code)
	assert.Panics(t, func() { Cast[string](Ok(1)) })
}

func TestError_Error(t *testing.T) {
	assert.Equal(t, "conflict: Role.AlreadyExists", Conflict("Role.AlreadyExists", "").Error())
	assert.Equal(t, "validation: path.required: path is required", Validation("path.required", "path is required").Error())
}
