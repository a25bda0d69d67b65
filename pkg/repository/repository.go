package repository

import (
	"context"

	"github.com/ayurtrace/ayurtrace/pkg/db/option"
	"gorm.io/gorm"
)

// Repository is a generic gorm-backed store for simple reference records.
type Repository[T any] interface {
	WithTrx(tx *gorm.DB) Repository[T]
	Find(ctx context.Context, query *T, opts ...option.QueryOption) ([]*T, error)
	FindOne(ctx context.Context, query *T, opts ...option.QueryOption) (*T, error)
	FindByID(ctx context.Context, id int64) (*T, error)
	FindByIDs(ctx context.Context, ids []int64) ([]*T, error)
	Create(ctx context.Context, resource *T) error
	Update(ctx context.Context, id int64, fields map[string]any) error
	Count(ctx context.Context, query *T) (int64, error)
}
