package authorization

import (
	"context"

	"github.com/ayurtrace/ayurtrace/internal/actor"
	"github.com/ayurtrace/ayurtrace/internal/apperror"
)

const (
	ObjectBatch           = "batch"
	ObjectQualityTest     = "quality_test"
	ObjectCollectionEvent = "collection_event"
	ObjectProduct         = "product"
	ObjectCustody         = "custody"
	ObjectRegistry        = "registry"
	ObjectProvenance      = "provenance"
	ObjectAnalytics       = "analytics"
	ObjectAuditLog        = "audit_log"
)

const (
	ActionView = "view"

	ActionBatchCreate       = "batch.create"
	ActionBatchUpdateStatus = "batch.update_status"
	ActionBatchAddStep      = "batch.add_step"
	ActionBatchRecall       = "batch.recall"

	ActionQualityTestSubmit = "quality_test.submit"
	ActionQualityTestUpdate = "quality_test.update"

	ActionCollectionEventCreate = "collection_event.create"
	ActionCollectionEventUpdate = "collection_event.update"

	ActionProductCreate  = "product.create"
	ActionCustodyCreate  = "custody.create"
	ActionRegistryCreate = "registry.create"

	ActionProvenancePublish = "provenance.publish"
	ActionAnalyticsExport   = "analytics.export"
)

var (
	ErrForbidden     = apperror.New(apperror.KindForbidden, "forbidden_action")
	ErrInvalidActor  = apperror.New(apperror.KindUnauthorized, "invalid_actor")
	ErrInvalidObject = apperror.Validation("invalid_object")
	ErrInvalidAction = apperror.Validation("invalid_action")
)

// Service checks whether an actor may perform action on object.
type Service interface {
	Authorize(ctx context.Context, who actor.Actor, object string, action string) error
}
