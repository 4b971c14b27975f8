package handler

import (
	"context"
	"log/slog"

	"github.com/BinaryAlley/Lyrida-sub002/internal/audit"
	"github.com/BinaryAlley/Lyrida-sub002/internal/authz"
	"github.com/BinaryAlley/Lyrida-sub002/internal/domain"
	"github.com/BinaryAlley/Lyrida-sub002/internal/mediator"
	"github.com/BinaryAlley/Lyrida-sub002/internal/result"
)

const defaultAuditLimit = 100

// GetAuditTrailQuery returns the latest audited commands, oldest first. It
// needs users:read. Zero means the default limit.
type GetAuditTrailQuery struct {
	mediator.Query[[]audit.Entry]
	Limit int64 `json:"limit" validate:"gte=0,lte=1000"`
}

func (h *Handlers) registerAudit(d *mediator.Dispatcher) {
	mediator.Register[GetAuditTrailQuery, []audit.Entry](d, mediator.HandlerFunc[GetAuditTrailQuery, []audit.Entry](h.getAuditTrail))
}

func (h *Handlers) getAuditTrail(ctx context.Context, q GetAuditTrailQuery) result.Result[[]audit.Entry] {
	return result.AndThen(h.Gate.Require(ctx, domain.PermissionUsersRead), func(authz.Principal) result.Result[[]audit.Entry] {
		if h.AuditTrail == nil {
			return result.Fail[[]audit.Entry](ErrAuditUnavailable)
		}
		limit := q.Limit
		if limit == 0 {
			limit = defaultAuditLimit
		}
		entries, err := h.AuditTrail.Recent(ctx, limit)
		if err != nil {
			slog.ErrorContext(ctx, "failed to read the audit trail", "err", err)
			return result.Fail[[]audit.Entry](errAuditRead)
		}
		if entries == nil {
			entries = []audit.Entry{}
		}
		return result.Ok(entries)
	})
}
