package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/BinaryAlley/Lyrida-sub002/internal/mocks"
	"github.com/BinaryAlley/Lyrida-sub002/internal/result"
	"github.com/BinaryAlley/Lyrida-sub002/internal/storage"
	"github.com/BinaryAlley/Lyrida-sub002/internal/storage/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTxStorage() *mocks.MockTransactionalStorage {
	return mocks.NewMockTransactionalStorage(memstore.New(memstore.Container{Name: "notes", Key: "id", Timestamps: true}))
}

func TestInScope_CommitsOnOk(t *testing.T) {
	st := newTxStorage()
	uow := NewUnitOfWork(st, nil)

	r := InScope(context.Background(), uow, func(s *Scope) result.Result[int64] {
		assert.True(t, s.Transactional())
		inserted := For[note, int64](s, notes).Insert(context.Background(), note{OwnerID: 1, Title: "x"})
		return result.Map(inserted, func(n []note) int64 { return n[0].ID })
	})

	require.True(t, r.IsOk())
	assert.Equal(t, 1, st.BeginCalls)
	assert.Equal(t, 1, st.CommitCalls)
	assert.Equal(t, 0, st.RollbackCalls)
}

func TestInScope_RollsBackOnErr(t *testing.T) {
	st := newTxStorage()
	uow := NewUnitOfWork(st, nil)

	r := InScope(context.Background(), uow, func(s *Scope) result.Result[int64] {
		return result.Fail[int64](result.ErrInvalidPermission)
	})

	require.True(t, r.IsErr())
	assert.Equal(t, "InvalidPermission", r.FirstError().Code)
	assert.Equal(t, 0, st.CommitCalls)
	assert.Equal(t, 1, st.RollbackCalls)
}

func TestInScope_BeginFailure(t *testing.T) {
	st := newTxStorage()
	st.BeginError = errors.New("database is locked")
	called := false

	r := InScope(context.Background(), NewUnitOfWork(st, nil), func(s *Scope) result.Result[int] {
		called = true
		return result.Ok(1)
	})

	assert.False(t, called)
	require.True(t, r.IsErr())
	assert.Equal(t, storage.CodeBusy, r.FirstError().Code)
}

func TestInScope_CommitFailure(t *testing.T) {
	st := newTxStorage()
	st.CommitError = errors.New("could not serialize access")

	r := InScope(context.Background(), NewUnitOfWork(st, nil), func(s *Scope) result.Result[int] {
		return result.Ok(1)
	})

	require.True(t, r.IsErr())
	assert.Equal(t, storage.CodeBusy, r.FirstError().Code)
}

func TestInScope_PanicRollsBack(t *testing.T) {
	st := newTxStorage()
	uow := NewUnitOfWork(st, nil)

	assert.Panics(t, func() {
		InScope(context.Background(), uow, func(s *Scope) result.Result[int] {
			panic("boom")
		})
	})
	assert.Equal(t, 1, st.RollbackCalls)
}

func TestScope_BestEffortWithoutTransactions(t *testing.T) {
	store := memstore.New(memstore.Container{Name: "notes", Key: "id"})
	uow := NewUnitOfWork(store, nil)

	s, err := uow.Begin(context.Background())
	require.NoError(t, err)
	assert.False(t, s.Transactional())

	For[note, int64](s, notes).Insert(context.Background(), note{OwnerID: 1, Title: "x"})
	assert.NoError(t, s.Rollback())
	assert.NoError(t, s.Commit(), "ending twice is a no-op")
	assert.Equal(t, 1, store.Len("notes"), "without transactions a rollback cannot undo writes")
}

func TestScope_EndsOnce(t *testing.T) {
	st := newTxStorage()
	s, err := NewUnitOfWork(st, nil).Begin(context.Background())
	require.NoError(t, err)

	require.NoError(t, s.Commit())
	require.NoError(t, s.Rollback())
	assert.Equal(t, 1, st.CommitCalls)
	assert.Equal(t, 0, st.RollbackCalls)
}
