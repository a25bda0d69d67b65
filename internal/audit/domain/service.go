package domain

import (
	"context"
	"time"

	"github.com/ayurtrace/ayurtrace/internal/actor"
	"github.com/ayurtrace/ayurtrace/internal/apperror"
	"github.com/ayurtrace/ayurtrace/pkg/db/pagination"
)

const (
	ActionAuthorizationDenied = "authorization.denied"
	ActionBatchRecalled       = "batch.recalled"
	ActionBundlePublished     = "provenance.published"
	ActionAccountVerified     = "account.verified"
)

type ListAuditLogRequest struct {
	pagination.Pagination
	Action     string
	TargetType string
	TargetID   string
	ActorType  string
	ActorRole  string
	ActorID    string
	StartAt    *time.Time
	EndAt      *time.Time
}

type ListAuditLogResponse struct {
	pagination.PageInfo
	AuditLogs []AuditLog `json:"audit_logs"`
}

type Service interface {
	// AuditLog records an entry. A zero actor is recorded as the system.
	AuditLog(ctx context.Context, who actor.Actor, action string, targetType string, targetID *string, metadata map[string]any) error
	List(ctx context.Context, req ListAuditLogRequest) (ListAuditLogResponse, error)
}

var (
	ErrInvalidPageToken = apperror.Validation("invalid_page_token")
	ErrInvalidTimeRange = apperror.Validation("invalid_time_range")
	ErrInvalidAction    = apperror.Validation("invalid_action")
)
