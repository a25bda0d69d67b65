package domain

import (
	"context"

	"github.com/ayurtrace/ayurtrace/internal/actor"
	"github.com/ayurtrace/ayurtrace/internal/apperror"
)

type Service interface {
	// Assemble resolves the lineage of a batch without an authorization check.
	Assemble(ctx context.Context, batchID int64) (*Provenance, error)
	// Get is Assemble for an authenticated caller, rendered as a bundle.
	Get(ctx context.Context, who actor.Actor, batchID string) (*Bundle, error)
	// Publish renders the bundle and its certificate to the blob store and
	// records the bundle URL on the batch.
	Publish(ctx context.Context, who actor.Actor, batchID string) (*PublishResult, error)
	// TraceByQR is the unauthenticated consumer lookup. Every call counts
	// as a scan.
	TraceByQR(ctx context.Context, code string, meta ScanMeta) (*Bundle, error)
}

var (
	ErrInvalidID = apperror.Validation("invalid_batch_id")
	ErrNotFound  = apperror.NotFound("batch_not_found")
)
