package repository

import (
	"context"
	"strings"

	"github.com/ayurtrace/ayurtrace/internal/audit/domain"
	"gorm.io/gorm"
)

const auditColumns = `id, actor_type, actor_role, actor_id, action, target_type, target_id,
	metadata, ip_address, user_agent, created_at`

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, entry *domain.AuditLog) error {
	if entry == nil {
		return nil
	}
	return db.WithContext(ctx).Exec(
		`INSERT INTO audit_logs (`+auditColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.ActorType,
		entry.ActorRole,
		entry.ActorID,
		entry.Action,
		entry.TargetType,
		entry.TargetID,
		entry.Metadata,
		entry.IPAddress,
		entry.UserAgent,
		entry.CreatedAt,
	).Error
}

// List returns entries newest first, reading one row past Limit so the
// caller can tell whether another page follows.
func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.AuditLog, error) {
	where, args := filterClause(filter)
	query := `SELECT ` + auditColumns + ` FROM audit_logs`
	if where != "" {
		query += ` WHERE ` + where
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit+1)
	}

	var logs []*domain.AuditLog
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

func filterClause(f domain.ListFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	eq := func(column, value string) {
		if v := strings.TrimSpace(value); v != "" {
			conds = append(conds, column+" = ?")
			args = append(args, v)
		}
	}
	eq("action", f.Action)
	eq("target_type", f.TargetType)
	eq("target_id", f.TargetID)
	eq("actor_type", f.ActorType)
	eq("actor_role", f.ActorRole)
	eq("actor_id", f.ActorID)

	if f.StartAt != nil {
		conds = append(conds, "created_at >= ?")
		args = append(args, f.StartAt.UTC())
	}
	if f.EndAt != nil {
		conds = append(conds, "created_at <= ?")
		args = append(args, f.EndAt.UTC())
	}
	if c := f.Cursor; c != nil {
		conds = append(conds, "(created_at < ? OR (created_at = ? AND id < ?))")
		args = append(args, c.CreatedAt, c.CreatedAt, c.ID.Int64())
	}
	return strings.Join(conds, " AND "), args
}
