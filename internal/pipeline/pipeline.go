// Package pipeline holds the dispatcher behaviors that run around every
// handler, after validation: logging, metrics and auditing.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/BinaryAlley/Lyrida-sub002/internal/audit"
	"github.com/BinaryAlley/Lyrida-sub002/internal/authz"
	"github.com/BinaryAlley/Lyrida-sub002/internal/mediator"
	"github.com/BinaryAlley/Lyrida-sub002/internal/result"
)

// OutcomeOK labels a successful request.
const OutcomeOK = "ok"

// Outcome returns "ok" or the kind of the first error, with its code.
func Outcome(r result.Any) (outcome, code string) {
	if r.IsOk() {
		return OutcomeOK, ""
	}
	first := r.Errors()[0]
	return first.Kind.String(), first.Code
}

// Logging logs every dispatched request with its outcome and latency.
// Failures of kind Failure are logged as errors, other failures at info.
func Logging(logger *slog.Logger) mediator.Behavior {
	if logger == nil {
		logger = slog.Default()
	}
	return mediator.BehaviorFunc(func(ctx context.Context, call mediator.Call, next mediator.Next) result.Any {
		start := time.Now()
		out := next(ctx)
		outcome, code := Outcome(out)

		attrs := []any{
			"request", call.Name,
			"outcome", outcome,
			"duration", time.Since(start),
		}
		if p, ok := authz.PrincipalFrom(ctx); ok {
			attrs = append(attrs, "user_id", p.UserID)
		}

		switch {
		case out.IsOk():
			logger.DebugContext(ctx, "request handled", attrs...)
		case outcome == result.KindFailure.String():
			logger.ErrorContext(ctx, "request failed", append(attrs, "code", code, "errors", out.Errors())...)
		default:
			logger.InfoContext(ctx, "request refused", append(attrs, "code", code)...)
		}
		return out
	})
}

// DispatchRecorder records pipeline passes.
type DispatchRecorder interface {
	RecordDispatch(request, outcome string, d time.Duration)
}

// Metrics counts requests by type and outcome and observes their latency.
func Metrics(rec DispatchRecorder) mediator.Behavior {
	return mediator.BehaviorFunc(func(ctx context.Context, call mediator.Call, next mediator.Next) result.Any {
		start := time.Now()
		out := next(ctx)
		outcome, _ := Outcome(out)
		rec.RecordDispatch(call.Name, outcome, time.Since(start))
		return out
	})
}

// AuditFailureRecorder counts entries a sink could not store.
type AuditFailureRecorder interface {
	RecordAuditFailure(sink string)
}

// Audit writes one entry per command to sink once the handler returned.
// Queries are not audited. A sink error is logged and never changes the
// request's Result.
func Audit(sink audit.Sink, failures AuditFailureRecorder) mediator.Behavior {
	return mediator.BehaviorFunc(func(ctx context.Context, call mediator.Call, next mediator.Next) result.Any {
		if !mediator.IsCommand(call.Request) {
			return next(ctx)
		}

		start := time.Now()
		out := next(ctx)

		outcome, code := Outcome(out)
		e := audit.Entry{
			Time:     start.UTC(),
			Request:  call.Name,
			Outcome:  outcome,
			Code:     code,
			Duration: time.Since(start),
		}
		if p, ok := authz.PrincipalFrom(ctx); ok {
			e.UserID = p.UserID
		}

		if err := sink.Write(context.WithoutCancel(ctx), e); err != nil {
			slog.WarnContext(ctx, "audit write failed", "sink", sink.Name(), "request", call.Name, "error", err)
			if failures != nil {
				failures.RecordAuditFailure(sink.Name())
			}
		}
		return out
	})
}
