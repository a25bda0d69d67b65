package option

import (
	"strings"

	"gorm.io/gorm"
)

type QueryOption interface {
	Apply(db *gorm.DB) *gorm.DB
}

type queryOptionFunc func(db *gorm.DB) *gorm.DB

func (f queryOptionFunc) Apply(db *gorm.DB) *gorm.DB { return f(db) }

// WithQuerySortBy validates a sort column against allowed and returns an
// ORDER BY clause. Unknown columns fall back to created_at.
func WithQuerySortBy(sortBy, orderBy string, allowed map[string]bool) string {
	column := strings.ToLower(strings.TrimSpace(sortBy))
	if !allowed[column] {
		column = "created_at"
	}
	direction := "asc"
	if strings.EqualFold(strings.TrimSpace(orderBy), "desc") {
		direction = "desc"
	}
	return column + " " + direction
}

func WithSortBy(clause string) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		if strings.TrimSpace(clause) == "" {
			return db
		}
		return db.Order(clause)
	})
}

func WithLimit(limit int) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		if limit <= 0 {
			return db
		}
		return db.Limit(limit)
	})
}

func WithWhere(query string, args ...any) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		return db.Where(query, args...)
	})
}
