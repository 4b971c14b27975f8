package dto

import (
	"time"

	"github.com/BinaryAlley/Lyrida-sub002/internal/audit"
)

// AuditEntryResponse is DTO for an audited command / Est le DTO d'une commande auditée
type AuditEntryResponse struct {
	Time       time.Time `json:"time"`
	Request    string    `json:"request"`
	UserID     int64     `json:"user_id,omitempty"`
	Outcome    string    `json:"outcome"`
	Code       string    `json:"code,omitempty"`
	DurationMS float64   `json:"duration_ms"`
}

func AuditEntryToDTO(e audit.Entry) AuditEntryResponse {
	return AuditEntryResponse{
		Time:       e.Time,
		Request:    e.Request,
		UserID:     e.UserID,
		Outcome:    e.Outcome,
		Code:       e.Code,
		DurationMS: float64(e.Duration) / float64(time.Millisecond),
	}
}

func AuditTrailToDTO(entries []audit.Entry) []AuditEntryResponse {
	return mapAll(entries, AuditEntryToDTO)
}
