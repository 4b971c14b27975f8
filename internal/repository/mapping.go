// Package repository gives business logic a uniform CRUD contract per entity
// kind over the storage medium. Each entity is described by an explicit
// Mapping whose fields say how they are named in the medium and whether they
// are written or read.
package repository

import (
	"fmt"
	"reflect"
	"time"

	"github.com/BinaryAlley/Lyrida-sub002/internal/storage"
	"github.com/spf13/cast"
)

// Field maps one attribute of E to a column of the medium.
type Field[E any] struct {
	name      string
	column    string
	key       bool
	parent    bool
	readOnly  bool
	writeOnly bool
	touch     bool
	get       func(*E) any
	set       func(*E, any) error
}

// Name returns the attribute name used by business code.
func (f Field[E]) Name() string { return f.name }

// Column returns the name the medium addresses the field by.
func (f Field[E]) Column() string { return f.column }

// Key marks the identity field. It is always server assigned, so it is also
// read-only.
func (f Field[E]) Key() Field[E] {
	f.key = true
	f.readOnly = true
	return f
}

// Parent marks the field that links E to its owner.
func (f Field[E]) Parent() Field[E] {
	f.parent = true
	return f
}

// ReadOnly excludes the field from insert and update payloads.
func (f Field[E]) ReadOnly() Field[E] {
	f.readOnly = true
	return f
}

// WriteOnly excludes the field from read payloads: it is never filled from rows.
func (f Field[E]) WriteOnly() Field[E] {
	f.writeOnly = true
	return f
}

// Touched marks a server-assigned timestamp the medium refreshes on update.
func (f Field[E]) Touched() Field[E] {
	f.touch = true
	f.readOnly = true
	return f
}

// Int64 maps an int64 attribute / Associe un attribut int64
func Int64[E any](name, column string, ptr func(*E) *int64) Field[E] {
	return Field[E]{
		name: name, column: column,
		get: func(e *E) any { return *ptr(e) },
		set: func(e *E, v any) error {
			if v == nil {
				*ptr(e) = 0
				return nil
			}
			n, err := cast.ToInt64E(v)
			*ptr(e) = n
			return err
		},
	}
}

// Int maps an int attribute.
func Int[E any](name, column string, ptr func(*E) *int) Field[E] {
	return Field[E]{
		name: name, column: column,
		get: func(e *E) any { return *ptr(e) },
		set: func(e *E, v any) error {
			if v == nil {
				*ptr(e) = 0
				return nil
			}
			n, err := cast.ToIntE(v)
			*ptr(e) = n
			return err
		},
	}
}

// String maps a string attribute / Associe un attribut string
func String[E any](name, column string, ptr func(*E) *string) Field[E] {
	return Field[E]{
		name: name, column: column,
		get: func(e *E) any { return *ptr(e) },
		set: func(e *E, v any) error {
			if v == nil {
				*ptr(e) = ""
				return nil
			}
			s, err := cast.ToStringE(v)
			*ptr(e) = s
			return err
		},
	}
}

// Bool maps a bool attribute. Engines storing booleans as integers are handled.
func Bool[E any](name, column string, ptr func(*E) *bool) Field[E] {
	return Field[E]{
		name: name, column: column,
		get: func(e *E) any { return *ptr(e) },
		set: func(e *E, v any) error {
			if v == nil {
				*ptr(e) = false
				return nil
			}
			b, err := cast.ToBoolE(v)
			*ptr(e) = b
			return err
		},
	}
}

// Time maps a time attribute. Textual timestamps are parsed.
func Time[E any](name, column string, ptr func(*E) *time.Time) Field[E] {
	return Field[E]{
		name: name, column: column,
		get: func(e *E) any { return *ptr(e) },
		set: func(e *E, v any) error {
			if v == nil {
				*ptr(e) = time.Time{}
				return nil
			}
			t, err := cast.ToTimeE(v)
			*ptr(e) = t.UTC()
			return err
		},
	}
}

// OptionalInt64 maps a nullable int64 attribute.
func OptionalInt64[E any](name, column string, ptr func(*E) **int64) Field[E] {
	return Field[E]{
		name: name, column: column,
		get: func(e *E) any {
			if p := *ptr(e); p != nil {
				return *p
			}
			return nil
		},
		set: func(e *E, v any) error {
			if v == nil {
				*ptr(e) = nil
				return nil
			}
			n, err := cast.ToInt64E(v)
			if err != nil {
				return err
			}
			*ptr(e) = &n
			return nil
		},
	}
}

// OptionalString maps a nullable string attribute.
func OptionalString[E any](name, column string, ptr func(*E) **string) Field[E] {
	return Field[E]{
		name: name, column: column,
		get: func(e *E) any {
			if p := *ptr(e); p != nil {
				return *p
			}
			return nil
		},
		set: func(e *E, v any) error {
			if v == nil {
				*ptr(e) = nil
				return nil
			}
			s, err := cast.ToStringE(v)
			if err != nil {
				return err
			}
			*ptr(e) = &s
			return nil
		},
	}
}

// Mapping describes how E is stored / Décrit le stockage de E
type Mapping[E any] struct {
	container string
	fields    []Field[E]
	byName    map[string]int
	key       int
	parent    int
	order     string
}

// NewMapping builds a mapping and checks it: exactly one key, at most one
// parent, unique names and columns. A broken mapping panics.
func NewMapping[E any](container string, fields ...Field[E]) *Mapping[E] {
	m := &Mapping[E]{
		container: container,
		fields:    fields,
		byName:    make(map[string]int, len(fields)),
		key:       -1,
		parent:    -1,
	}

	columns := make(map[string]bool, len(fields))
	for i, f := range fields {
		if f.get == nil || f.set == nil || f.name == "" || f.column == "" {
			panic(fmt.Sprintf("repository: %s: field %d is incomplete", container, i))
		}
		if _, dup := m.byName[f.name]; dup {
			panic(fmt.Sprintf("repository: %s: duplicate field %s", container, f.name))
		}
		if columns[f.column] {
			panic(fmt.Sprintf("repository: %s: duplicate column %s", container, f.column))
		}
		m.byName[f.name] = i
		columns[f.column] = true

		if f.key {
			if m.key >= 0 {
				panic(fmt.Sprintf("repository: %s: more than one key", container))
			}
			m.key = i
		}
		if f.parent {
			if m.parent >= 0 {
				panic(fmt.Sprintf("repository: %s: more than one parent", container))
			}
			m.parent = i
		}
	}
	if m.key < 0 {
		panic(fmt.Sprintf("repository: %s: no key field", container))
	}
	return m
}

// OrderBy sorts every read by the named field, ascending.
func (m *Mapping[E]) OrderBy(name string) *Mapping[E] {
	m.order = m.column(name)
	return m
}

// Container returns the medium's container name.
func (m *Mapping[E]) Container() string { return m.container }

// Fields returns the field descriptors.
func (m *Mapping[E]) Fields() []Field[E] {
	return append([]Field[E](nil), m.fields...)
}

func (m *Mapping[E]) column(name string) string {
	i, ok := m.byName[name]
	if !ok {
		panic(fmt.Sprintf("repository: %s: unknown field %s", m.container, name))
	}
	return m.fields[i].column
}

func (m *Mapping[E]) keyColumn() string { return m.fields[m.key].column }

func (m *Mapping[E]) keyOf(e *E) any { return m.fields[m.key].get(e) }

func (m *Mapping[E]) parentColumn() (string, bool) {
	if m.parent < 0 {
		return "", false
	}
	return m.fields[m.parent].column, true
}

// values builds a write payload: read-only fields are skipped. On update a
// write-only field left at its zero value is skipped too, since it was never
// read back and would otherwise erase the stored value.
func (m *Mapping[E]) values(e *E, update bool) map[string]any {
	out := make(map[string]any, len(m.fields))
	for _, f := range m.fields {
		if f.readOnly {
			continue
		}
		v := f.get(e)
		if update && f.writeOnly && isZero(v) {
			continue
		}
		out[f.column] = v
	}
	return out
}

func isZero(v any) bool {
	return v == nil || reflect.ValueOf(v).IsZero()
}

func (m *Mapping[E]) touched() []string {
	var cols []string
	for _, f := range m.fields {
		if f.touch {
			cols = append(cols, f.column)
		}
	}
	return cols
}

// decode fills a new E from row. Write-only fields stay zero; columns absent
// from the row are left untouched.
func (m *Mapping[E]) decode(row storage.Row) (E, error) {
	var e E
	for _, f := range m.fields {
		if f.writeOnly {
			continue
		}
		v, ok := row[f.column]
		if !ok {
			continue
		}
		if err := f.set(&e, v); err != nil {
			return e, fmt.Errorf("%s.%s: %w", m.container, f.column, err)
		}
	}
	return e, nil
}

// filter translates attribute names into columns.
func (m *Mapping[E]) filter(where Where) map[string]any {
	if len(where) == 0 {
		return nil
	}
	out := make(map[string]any, len(where))
	for name, v := range where {
		out[m.column(name)] = v
	}
	return out
}
