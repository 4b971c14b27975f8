// Package storage defines the downstream boundary: an opaque remote call that
// returns rows, a count, or the medium's own error text.
package storage

import (
	"context"
	"errors"
)

// Operation names what a call does to a container.
type Operation string

const (
	OpSelect Operation = "select"
	OpInsert Operation = "insert"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Valid reports whether op is a known operation.
func (op Operation) Valid() bool {
	switch op {
	case OpSelect, OpInsert, OpUpdate, OpDelete:
		return true
	default:
		return false
	}
}

// Row is one record as the medium names it / Un enregistrement tel que nommé par le support
type Row map[string]any

// Payload carries the inputs of a call. Filter holds equality conditions joined
// with AND; Values holds the columns to write; Touch names timestamp columns the
// medium refreshes on update; Order sorts selected rows ascending.
type Payload struct {
	Filter map[string]any
	Values map[string]any
	Touch  []string
	Order  string
}

// Response is what the medium sends back. Error is non-empty when the medium
// itself rejected the call.
type Response struct {
	Rows  []Row
	Count int64
	Error string
}

// Failed reports whether the medium returned an error text.
func (r *Response) Failed() bool {
	return r != nil && r.Error != ""
}

// Client performs calls against the storage medium. A non-nil error means the
// call never produced a response (transport failure, cancellation).
type Client interface {
	Call(ctx context.Context, container string, op Operation, p Payload) (*Response, error)
}

// Tx is a client bound to one open transaction.
type Tx interface {
	Client
	Commit() error
	Rollback() error
}

// Transactional is implemented by media that support transactions.
type Transactional interface {
	Client
	BeginTx(ctx context.Context) (Tx, error)
}

// ErrTxDone is returned when a finished transaction is used again.
var ErrTxDone = errors.New("storage: transaction already committed or rolled back")

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, container string, op Operation, p Payload) (*Response, error)

// Call calls f.
func (f ClientFunc) Call(ctx context.Context, container string, op Operation, p Payload) (*Response, error) {
	return f(ctx, container, op, p)
}
