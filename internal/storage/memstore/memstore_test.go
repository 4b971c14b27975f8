package memstore

import (
	"context"
	"testing"

	"github.com/BinaryAlley/Lyrida-sub002/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() *Store {
	return New(
		Container{Name: "roles", Key: "id", KeyType: IntKey, Unique: [][]string{{"name"}}, Timestamps: true},
		Container{Name: "pages", Key: "id", KeyType: UUIDKey, Timestamps: true},
	)
}

func call(t *testing.T, s *Store, container string, op storage.Operation, p storage.Payload) *storage.Response {
	t.Helper()
	resp, err := s.Call(context.Background(), container, op, p)
	require.NoError(t, err)
	return resp
}

func TestInsert_AssignsKeysAndTimestamps(t *testing.T) {
	s := newTestStore()

	first := call(t, s, "roles", storage.OpInsert, storage.Payload{Values: map[string]any{"name": "admin"}})
	second := call(t, s, "roles", storage.OpInsert, storage.Payload{Values: map[string]any{"name": "viewer"}})

	require.Len(t, first.Rows, 1)
	assert.Equal(t, int64(1), first.Rows[0]["id"])
	assert.Equal(t, int64(2), second.Rows[0]["id"])
	assert.NotNil(t, first.Rows[0]["created_at"])

	page := call(t, s, "pages", storage.OpInsert, storage.Payload{Values: map[string]any{"user_id": int64(5)}})
	assert.Len(t, page.Rows[0]["id"], 36)
}

func TestInsert_UniqueViolation(t *testing.T) {
	s := newTestStore()
	call(t, s, "roles", storage.OpInsert, storage.Payload{Values: map[string]any{"name": "admin"}})

	resp := call(t, s, "roles", storage.OpInsert, storage.Payload{Values: map[string]any{"name": "admin"}})
	assert.Contains(t, resp.Error, "UNIQUE constraint failed: roles.name")
	assert.Equal(t, 1, s.Len("roles"))
}

func TestSelect_FilterAndOrder(t *testing.T) {
	s := newTestStore()
	for _, v := range []map[string]any{
		{"user_id": int64(5), "position": 2, "title": "b"},
		{"user_id": int64(7), "position": 1, "title": "x"},
		{"user_id": 5, "position": 1, "title": "a"},
	} {
		call(t, s, "pages", storage.OpInsert, storage.Payload{Values: v})
	}

	resp := call(t, s, "pages", storage.OpSelect, storage.Payload{
		Filter: map[string]any{"user_id": int64(5)},
		Order:  "position",
	})

	require.Len(t, resp.Rows, 2)
	assert.Equal(t, "a", resp.Rows[0]["title"])
	assert.Equal(t, "b", resp.Rows[1]["title"])
}

func TestSelect_ReturnsCopies(t *testing.T) {
	s := newTestStore()
	call(t, s, "roles", storage.OpInsert, storage.Payload{Values: map[string]any{"name": "admin"}})

	resp := call(t, s, "roles", storage.OpSelect, storage.Payload{})
	resp.Rows[0]["name"] = "hacked"

	again := call(t, s, "roles", storage.OpSelect, storage.Payload{})
	assert.Equal(t, "admin", again.Rows[0]["name"])
}

func TestUpdate_TouchesAndKeepsKey(t *testing.T) {
	s := newTestStore()
	call(t, s, "roles", storage.OpInsert, storage.Payload{Values: map[string]any{"name": "viewer"}})

	resp := call(t, s, "roles", storage.OpUpdate, storage.Payload{
		Filter: map[string]any{"id": int64(1)},
		Values: map[string]any{"id": int64(99), "name": "reader"},
		Touch:  []string{"updated_at"},
	})
	assert.Equal(t, int64(1), resp.Count)

	rows := call(t, s, "roles", storage.OpSelect, storage.Payload{Filter: map[string]any{"id": 1}}).Rows
	require.Len(t, rows, 1)
	assert.Equal(t, "reader", rows[0]["name"])
	assert.NotNil(t, rows[0]["updated_at"])
}

func TestDelete_Idempotent(t *testing.T) {
	s := newTestStore()
	call(t, s, "roles", storage.OpInsert, storage.Payload{Values: map[string]any{"name": "viewer"}})

	filter := storage.Payload{Filter: map[string]any{"id": int64(1)}}
	assert.Equal(t, int64(1), call(t, s, "roles", storage.OpDelete, filter).Count)
	assert.Equal(t, int64(0), call(t, s, "roles", storage.OpDelete, filter).Count)
}

func TestUnknownContainer(t *testing.T) {
	s := newTestStore()
	resp := call(t, s, "profile_preferences", storage.OpSelect, storage.Payload{})

	assert.Equal(t, `relation "profile_preferences" does not exist`, resp.Error)
	assert.Equal(t, storage.CodeMissingContainer, storage.DefaultClassifier().Classify(resp.Error).Code)
}

func TestCanceledContext(t *testing.T) {
	s := newTestStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Call(ctx, "roles", storage.OpSelect, storage.Payload{})
	assert.ErrorIs(t, err, context.Canceled)
}
