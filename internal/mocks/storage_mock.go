package mocks

import (
	"context"
	"sync"

	"github.com/BinaryAlley/Lyrida-sub002/internal/storage"
)

// StorageCall is one recorded storage call.
type StorageCall struct {
	Container string
	Op        storage.Operation
	Payload   storage.Payload
}

// MockStorage records every storage call and either answers from canned
// responses or forwards to Inner.
type MockStorage struct {
	Inner storage.Client

	// Mock behavior, keyed by "container/op"
	Responses map[string]*storage.Response
	Errors    map[string]error

	mu    sync.Mutex
	calls []StorageCall
}

// NewMockStorage creates a mock forwarding to inner, which may be nil.
func NewMockStorage(inner storage.Client) *MockStorage {
	return &MockStorage{
		Inner:     inner,
		Responses: make(map[string]*storage.Response),
		Errors:    make(map[string]error),
	}
}

func key(container string, op storage.Operation) string {
	return container + "/" + string(op)
}

// Respond sets the canned response for container/op.
func (m *MockStorage) Respond(container string, op storage.Operation, resp *storage.Response) *MockStorage {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Responses[key(container, op)] = resp
	return m
}

// Fail makes container/op return err.
func (m *MockStorage) Fail(container string, op storage.Operation, err error) *MockStorage {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors[key(container, op)] = err
	return m
}

func (m *MockStorage) Call(ctx context.Context, container string, op storage.Operation, p storage.Payload) (*storage.Response, error) {
	m.mu.Lock()
	m.calls = append(m.calls, StorageCall{Container: container, Op: op, Payload: p})
	err := m.Errors[key(container, op)]
	resp, canned := m.Responses[key(container, op)]
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if canned {
		return resp, nil
	}
	if m.Inner != nil {
		return m.Inner.Call(ctx, container, op, p)
	}
	return &storage.Response{}, nil
}

// Calls returns a copy of the recorded calls.
func (m *MockStorage) Calls() []StorageCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]StorageCall(nil), m.calls...)
}

// CallsTo counts the calls made to container with op.
func (m *MockStorage) CallsTo(container string, op storage.Operation) int {
	n := 0
	for _, c := range m.Calls() {
		if c.Container == container && c.Op == op {
			n++
		}
	}
	return n
}

// MutatingCalls counts insert, update and delete calls.
func (m *MockStorage) MutatingCalls() int {
	n := 0
	for _, c := range m.Calls() {
		if c.Op != storage.OpSelect {
			n++
		}
	}
	return n
}

// Reset forgets the recorded calls.
func (m *MockStorage) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// MockTransactionalStorage is a MockStorage that also counts transactions.
// Its transactions record calls but do not isolate them.
type MockTransactionalStorage struct {
	*MockStorage

	BeginError  error
	CommitError error

	BeginCalls    int
	CommitCalls   int
	RollbackCalls int
}

// NewMockTransactionalStorage creates a transactional mock over inner.
func NewMockTransactionalStorage(inner storage.Client) *MockTransactionalStorage {
	return &MockTransactionalStorage{MockStorage: NewMockStorage(inner)}
}

func (m *MockTransactionalStorage) BeginTx(ctx context.Context) (storage.Tx, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BeginCalls++
	if m.BeginError != nil {
		return nil, m.BeginError
	}
	return &mockTx{parent: m}, nil
}

type mockTx struct {
	parent *MockTransactionalStorage
}

func (t *mockTx) Call(ctx context.Context, container string, op storage.Operation, p storage.Payload) (*storage.Response, error) {
	return t.parent.MockStorage.Call(ctx, container, op, p)
}

func (t *mockTx) Commit() error {
	t.parent.mu.Lock()
	defer t.parent.mu.Unlock()
	t.parent.CommitCalls++
	return t.parent.CommitError
}

func (t *mockTx) Rollback() error {
	t.parent.mu.Lock()
	defer t.parent.mu.Unlock()
	t.parent.RollbackCalls++
	return nil
}
