// Package memstore is an in-memory storage medium used by the development
// profile and by tests. It has no transactions: a unit of work over it is
// best-effort.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/BinaryAlley/Lyrida-sub002/internal/storage"
	"github.com/google/uuid"
	"github.com/spf13/cast"
)

// KeyType selects how the store assigns identities.
type KeyType int

const (
	IntKey  KeyType = iota // 1, 2, 3...
	UUIDKey                // random UUID strings
)

// Container declares one collection / Déclare une collection
type Container struct {
	Name    string
	Key     string
	KeyType KeyType
	// Unique lists column sets whose values must be unique across rows.
	Unique [][]string
	// Timestamps makes the store fill created_at and updated_at on insert.
	Timestamps bool
}

type table struct {
	def    Container
	rows   []storage.Row
	nextID int64
}

// Store keeps rows in memory behind a single lock.
type Store struct {
	mu     sync.RWMutex
	tables map[string]*table
	now    func() time.Time
}

// New creates a store holding the given containers.
func New(defs ...Container) *Store {
	s := &Store{
		tables: make(map[string]*table),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, d := range defs {
		s.Define(d)
	}
	return s
}

// Define adds a container. Redefining an existing one drops its rows.
func (s *Store) Define(def Container) {
	if def.Key == "" {
		def.Key = "id"
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[def.Name] = &table{def: def}
}

// Len returns the number of rows in container, or -1 when it is undefined.
func (s *Store) Len(container string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[container]
	if !ok {
		return -1
	}
	return len(t.rows)
}

// Call implements storage.Client.
func (s *Store) Call(ctx context.Context, container string, op storage.Operation, p storage.Payload) (*storage.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if op == storage.OpSelect {
		s.mu.RLock()
		defer s.mu.RUnlock()
	} else {
		s.mu.Lock()
		defer s.mu.Unlock()
	}

	t, ok := s.tables[container]
	if !ok {
		return &storage.Response{Error: fmt.Sprintf("relation %q does not exist", container)}, nil
	}

	switch op {
	case storage.OpSelect:
		return t.selectRows(p), nil
	case storage.OpInsert:
		return t.insert(p, s.now()), nil
	case storage.OpUpdate:
		return t.update(p, s.now()), nil
	case storage.OpDelete:
		return t.delete(p), nil
	default:
		return &storage.Response{Error: fmt.Sprintf("unsupported operation %q", op)}, nil
	}
}

func (t *table) selectRows(p storage.Payload) *storage.Response {
	var rows []storage.Row
	for _, r := range t.rows {
		if matches(r, p.Filter) {
			rows = append(rows, clone(r))
		}
	}

	order := p.Order
	if order == "" {
		order = t.def.Key
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return compare(rows[i][order], rows[j][order]) < 0
	})

	return &storage.Response{Rows: rows, Count: int64(len(rows))}
}

func (t *table) insert(p storage.Payload, now time.Time) *storage.Response {
	row := clone(p.Values)

	if v, ok := row[t.def.Key]; !ok || v == nil {
		switch t.def.KeyType {
		case UUIDKey:
			row[t.def.Key] = uuid.NewString()
		default:
			t.nextID++
			row[t.def.Key] = t.nextID
		}
	} else if n, err := cast.ToInt64E(v); err == nil && t.def.KeyType == IntKey && n > t.nextID {
		t.nextID = n
	}

	if t.def.Timestamps {
		row["created_at"] = now
		row["updated_at"] = now
	}

	if msg := t.violation(row, -1); msg != "" {
		return &storage.Response{Error: msg}
	}

	t.rows = append(t.rows, row)
	return &storage.Response{Rows: []storage.Row{clone(row)}, Count: 1}
}

func (t *table) update(p storage.Payload, now time.Time) *storage.Response {
	var hits []int
	for i, r := range t.rows {
		if matches(r, p.Filter) {
			hits = append(hits, i)
		}
	}

	updated := make(map[int]storage.Row, len(hits))
	for _, i := range hits {
		row := clone(t.rows[i])
		for k, v := range p.Values {
			if k == t.def.Key {
				continue
			}
			row[k] = v
		}
		for _, col := range p.Touch {
			row[col] = now
		}
		if msg := t.violation(row, i); msg != "" {
			return &storage.Response{Error: msg}
		}
		updated[i] = row
	}

	for i, row := range updated {
		t.rows[i] = row
	}
	return &storage.Response{Count: int64(len(hits))}
}

func (t *table) delete(p storage.Payload) *storage.Response {
	kept := t.rows[:0]
	var count int64
	for _, r := range t.rows {
		if matches(r, p.Filter) {
			count++
			continue
		}
		kept = append(kept, r)
	}
	t.rows = kept
	return &storage.Response{Count: count}
}

// violation returns a unique constraint error text when row collides with
// another row than the one at index self.
func (t *table) violation(row storage.Row, self int) string {
	sets := append([][]string{{t.def.Key}}, t.def.Unique...)
	for _, cols := range sets {
		for i, other := range t.rows {
			if i == self {
				continue
			}
			if sameValues(row, other, cols) {
				return fmt.Sprintf("UNIQUE constraint failed: %s.%s", t.def.Name, strings.Join(cols, ", "))
			}
		}
	}
	return ""
}

func sameValues(a, b storage.Row, cols []string) bool {
	for _, c := range cols {
		av, bv := a[c], b[c]
		if av == nil || bv == nil || !equal(av, bv) {
			return false
		}
	}
	return true
}

func matches(r storage.Row, filter map[string]any) bool {
	for k, want := range filter {
		got, ok := r[k]
		if !ok {
			return false
		}
		if want == nil || got == nil {
			if want != got {
				return false
			}
			continue
		}
		if !equal(got, want) {
			return false
		}
	}
	return true
}

func equal(a, b any) bool {
	return compare(a, b) == 0
}

// compare orders numbers numerically, times chronologically and everything
// else by its string form.
func compare(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}

	if at, ok := a.(time.Time); ok {
		if bt, ok := b.(time.Time); ok {
			return at.Compare(bt)
		}
	}

	if isNumber(a) && isNumber(b) {
		af, bf := cast.ToFloat64(a), cast.ToFloat64(b)
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}

	return strings.Compare(cast.ToString(a), cast.ToString(b))
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	default:
		return false
	}
}

func clone(r map[string]any) storage.Row {
	out := make(storage.Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
