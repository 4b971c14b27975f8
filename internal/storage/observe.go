package storage

import (
	"context"
	"log/slog"
	"time"
)

// Recorder receives one observation per storage call.
type Recorder interface {
	RecordStorageCall(container, op, outcome string, d time.Duration)
}

// Outcomes reported to a Recorder.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Options configures Observe.
type Options struct {
	// Timeout bounds every call; zero keeps the caller's deadline.
	Timeout  time.Duration
	Recorder Recorder
	Logger   *slog.Logger
}

type observed struct {
	inner Client
	opts  Options
}

// Observe wraps c with a per-call timeout, metrics and debug logs. The wrapper
// stays Transactional when c is.
func Observe(c Client, opts Options) Client {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	o := &observed{inner: c, opts: opts}
	if tc, ok := c.(Transactional); ok {
		return &observedTransactional{observed: o, tc: tc}
	}
	return o
}

func (o *observed) Call(ctx context.Context, container string, op Operation, p Payload) (*Response, error) {
	return o.call(ctx, o.inner, container, op, p)
}

func (o *observed) call(ctx context.Context, c Client, container string, op Operation, p Payload) (*Response, error) {
	if o.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := c.Call(ctx, container, op, p)
	elapsed := time.Since(start)

	outcome := OutcomeOK
	switch {
	case err != nil:
		outcome = OutcomeError
		o.opts.Logger.WarnContext(ctx, "storage call failed",
			"container", container, "op", string(op), "error", err)
	case resp.Failed():
		outcome = OutcomeRejected
		o.opts.Logger.DebugContext(ctx, "storage call rejected",
			"container", container, "op", string(op), "reason", resp.Error)
	}

	if o.opts.Recorder != nil {
		o.opts.Recorder.RecordStorageCall(container, string(op), outcome, elapsed)
	}
	return resp, err
}

type observedTransactional struct {
	*observed
	tc Transactional
}

func (o *observedTransactional) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := o.tc.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	return &observedTx{observed: o.observed, tx: tx}, nil
}

type observedTx struct {
	*observed
	tx Tx
}

func (o *observedTx) Call(ctx context.Context, container string, op Operation, p Payload) (*Response, error) {
	return o.call(ctx, o.tx, container, op, p)
}

func (o *observedTx) Commit() error   { return o.tx.Commit() }
func (o *observedTx) Rollback() error { return o.tx.Rollback() }
