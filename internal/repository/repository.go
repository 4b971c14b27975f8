package repository

import (
	"context"

	"github.com/BinaryAlley/Lyrida-sub002/internal/result"
	"github.com/BinaryAlley/Lyrida-sub002/internal/storage"
)

// CodeDecode reports a row that could not be turned into an entity.
const CodeDecode = "Storage.Decode"

// Where selects records by attribute name (not column name). Conditions are
// joined with AND; a nil value matches NULL.
type Where map[string]any

// Repository is a stateless adapter between E and one container. K is the
// type of E's identity.
type Repository[E any, K comparable] struct {
	client     storage.Client
	mapping    *Mapping[E]
	classifier *storage.Classifier
}

// New creates a repository over client / Crée un repository sur le client
func New[E any, K comparable](client storage.Client, m *Mapping[E], c *storage.Classifier) *Repository[E, K] {
	if c == nil {
		c = storage.DefaultClassifier()
	}
	return &Repository[E, K]{client: client, mapping: m, classifier: c}
}

// GetByID returns the records whose key is id: one, or none.
func (r *Repository[E, K]) GetByID(ctx context.Context, id K) result.Result[[]E] {
	return r.read(ctx, map[string]any{r.mapping.keyColumn(): id})
}

// GetByParentID returns the records owned by parentID. The mapping must
// declare a parent field.
func (r *Repository[E, K]) GetByParentID(ctx context.Context, parentID int64) result.Result[[]E] {
	col, ok := r.mapping.parentColumn()
	if !ok {
		panic("repository: " + r.mapping.container + " has no parent field")
	}
	return r.read(ctx, map[string]any{col: parentID})
}

// GetAll returns every record of the container.
func (r *Repository[E, K]) GetAll(ctx context.Context) result.Result[[]E] {
	return r.read(ctx, nil)
}

// Find returns the records matching where.
func (r *Repository[E, K]) Find(ctx context.Context, where Where) result.Result[[]E] {
	return r.read(ctx, r.mapping.filter(where))
}

// Insert stores e and echoes the stored record with its server-assigned fields.
// Read-only fields of e, the key included, are never sent.
func (r *Repository[E, K]) Insert(ctx context.Context, e E) result.Result[[]E] {
	resp := r.call(ctx, storage.OpInsert, storage.Payload{Values: r.mapping.values(&e, false)})
	if resp.IsErr() {
		return result.Cast[[]E](resp)
	}
	v, _ := resp.Value()
	return r.decode(v.Rows)
}

// Update writes e's writable fields to the record with e's key and returns the
// number of records changed. Write-only fields left empty keep their stored value.
func (r *Repository[E, K]) Update(ctx context.Context, e E) result.Result[int64] {
	return r.count(ctx, storage.OpUpdate, storage.Payload{
		Filter: map[string]any{r.mapping.keyColumn(): r.mapping.keyOf(&e)},
		Values: r.mapping.values(&e, true),
		Touch:  r.mapping.touched(),
	})
}

// DeleteByID removes the record with key id. Deleting a missing record
// returns 0, not an error.
func (r *Repository[E, K]) DeleteByID(ctx context.Context, id K) result.Result[int64] {
	return r.count(ctx, storage.OpDelete, storage.Payload{
		Filter: map[string]any{r.mapping.keyColumn(): id},
	})
}

// DeleteWhere removes the records matching where. An empty where is refused.
func (r *Repository[E, K]) DeleteWhere(ctx context.Context, where Where) result.Result[int64] {
	if len(where) == 0 {
		panic("repository: DeleteWhere without conditions on " + r.mapping.container)
	}
	return r.count(ctx, storage.OpDelete, storage.Payload{Filter: r.mapping.filter(where)})
}

func (r *Repository[E, K]) read(ctx context.Context, filter map[string]any) result.Result[[]E] {
	resp := r.call(ctx, storage.OpSelect, storage.Payload{Filter: filter, Order: r.mapping.order})
	return result.AndThen(resp, func(v *storage.Response) result.Result[[]E] {
		return r.decode(v.Rows)
	})
}

func (r *Repository[E, K]) count(ctx context.Context, op storage.Operation, p storage.Payload) result.Result[int64] {
	return result.Map(r.call(ctx, op, p), func(v *storage.Response) int64 {
		return v.Count
	})
}

// call performs one storage call and classifies its failures.
func (r *Repository[E, K]) call(ctx context.Context, op storage.Operation, p storage.Payload) result.Result[*storage.Response] {
	resp, err := r.client.Call(ctx, r.mapping.container, op, p)
	switch {
	case err != nil:
		return result.Fail[*storage.Response](r.classifier.FromError(err))
	case resp == nil:
		return result.Fail[*storage.Response](result.Failure(storage.CodeFailure, "empty response from the storage medium"))
	case resp.Failed():
		return result.Fail[*storage.Response](r.classifier.Classify(resp.Error))
	default:
		return result.Ok(resp)
	}
}

func (r *Repository[E, K]) decode(rows []storage.Row) result.Result[[]E] {
	out := make([]E, 0, len(rows))
	for _, row := range rows {
		e, err := r.mapping.decode(row)
		if err != nil {
			return result.Fail[[]E](result.Failure(CodeDecode, err.Error()))
		}
		out = append(out, e)
	}
	return result.Ok(out)
}
