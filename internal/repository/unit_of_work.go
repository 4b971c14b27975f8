package repository

import (
	"context"
	"log/slog"
	"sync"

	"github.com/BinaryAlley/Lyrida-sub002/internal/result"
	"github.com/BinaryAlley/Lyrida-sub002/internal/storage"
)

// UnitOfWork opens request-bounded scopes over one storage client.
type UnitOfWork struct {
	client     storage.Client
	classifier *storage.Classifier
}

// NewUnitOfWork creates a unit of work / Crée une unité de travail
func NewUnitOfWork(client storage.Client, c *storage.Classifier) *UnitOfWork {
	if c == nil {
		c = storage.DefaultClassifier()
	}
	return &UnitOfWork{client: client, classifier: c}
}

// Classifier returns the classifier shared by every scope.
func (u *UnitOfWork) Classifier() *storage.Classifier { return u.classifier }

// Scope is the set of repositories valid for one logical transaction. When
// the medium is transactional every call goes through one transaction;
// otherwise Commit and Rollback do nothing.
type Scope struct {
	client     storage.Client
	tx         storage.Tx
	classifier *storage.Classifier

	mu   sync.Mutex
	done bool
}

// Begin opens a scope. It must end with Commit or Rollback.
func (u *UnitOfWork) Begin(ctx context.Context) (*Scope, error) {
	s := &Scope{client: u.client, classifier: u.classifier}

	if tc, ok := u.client.(storage.Transactional); ok {
		tx, err := tc.BeginTx(ctx)
		if err != nil {
			return nil, err
		}
		s.client, s.tx = tx, tx
	}
	return s, nil
}

// Transactional reports whether the scope runs inside a real transaction.
func (s *Scope) Transactional() bool { return s.tx != nil }

// Commit ends the scope keeping its changes.
func (s *Scope) Commit() error {
	if !s.finish() || s.tx == nil {
		return nil
	}
	return s.tx.Commit()
}

// Rollback ends the scope discarding its changes when the medium allows it.
func (s *Scope) Rollback() error {
	if !s.finish() || s.tx == nil {
		return nil
	}
	return s.tx.Rollback()
}

// finish reports whether this call ended the scope.
func (s *Scope) finish() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return false
	}
	s.done = true
	return true
}

// For returns the repository for mapping m inside scope s.
func For[E any, K comparable](s *Scope, m *Mapping[E]) *Repository[E, K] {
	return New[E, K](s.client, m, s.classifier)
}

// InScope runs fn in a fresh scope, commits when it returns Ok and rolls back
// otherwise. A panic in fn rolls back and is re-raised.
func InScope[T any](ctx context.Context, u *UnitOfWork, fn func(s *Scope) result.Result[T]) (out result.Result[T]) {
	s, err := u.Begin(ctx)
	if err != nil {
		return result.Fail[T](u.classifier.FromError(err))
	}

	defer func() {
		if p := recover(); p != nil {
			if rbErr := s.Rollback(); rbErr != nil {
				slog.ErrorContext(ctx, "rollback after panic failed", "error", rbErr)
			}
			panic(p)
		}
	}()

	out = fn(s)

	if out.IsErr() {
		if err := s.Rollback(); err != nil {
			slog.WarnContext(ctx, "rollback failed", "error", err)
		}
		return out
	}

	if err := s.Commit(); err != nil {
		return result.Fail[T](u.classifier.FromError(err))
	}
	return out
}
