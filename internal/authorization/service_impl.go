package authorization

import (
	"context"
	_ "embed"
	"strings"

	"github.com/ayurtrace/ayurtrace/internal/actor"
	auditdomain "github.com/ayurtrace/ayurtrace/internal/audit/domain"
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
	AuditSvc auditdomain.Service `optional:"true"`
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
	auditSvc auditdomain.Service
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	if err := enforcer.BuildRoleLinks(); err != nil {
		return nil, err
	}
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
		auditSvc: p.AuditSvc,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, who actor.Actor, object string, action string) error {
	if !who.Role.Valid() {
		return ErrInvalidActor
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	allowed, err := s.enforcer.Enforce(who.Subject(), object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Debug("authorization denied",
			zap.String("role", string(who.Role)),
			zap.String("object", object),
			zap.String("action", action),
		)
		s.auditDenied(ctx, who, object, action)
		return ErrForbidden
	}
	return nil
}

func (s *ServiceImpl) auditDenied(ctx context.Context, who actor.Actor, object string, action string) {
	if s.auditSvc == nil {
		return
	}
	targetID := object
	_ = s.auditSvc.AuditLog(ctx, who, auditdomain.ActionAuthorizationDenied, "authorization", &targetID, map[string]any{
		"object": object,
		"action": action,
		"role":   string(who.Role),
	})
}

func roleSubject(role actor.Role) string {
	return actor.Actor{Role: role}.Subject()
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	consumer := roleSubject(actor.RoleConsumer)
	farmer := roleSubject(actor.RoleFarmerUnion)
	lab := roleSubject(actor.RoleLaboratory)
	manufacturer := roleSubject(actor.RoleManufacturer)
	admin := roleSubject(actor.RoleAdmin)

	policies := [][]string{
		// Consumers only read what a QR code would show them.
		{consumer, ObjectProvenance, ActionView},
		{consumer, ObjectBatch, ActionView},
		{consumer, ObjectProduct, ActionView},

		{farmer, ObjectCollectionEvent, ActionCollectionEventCreate},
		{farmer, ObjectCollectionEvent, ActionCollectionEventUpdate},
		{farmer, ObjectCollectionEvent, ActionView},
		{farmer, ObjectBatch, ActionBatchCreate},
		{farmer, ObjectBatch, ActionBatchUpdateStatus},
		{farmer, ObjectBatch, ActionView},
		{farmer, ObjectCustody, ActionCustodyCreate},
		{farmer, ObjectCustody, ActionView},
		{farmer, ObjectRegistry, ActionRegistryCreate},
		{farmer, ObjectRegistry, ActionView},
		{farmer, ObjectProvenance, ActionView},

		{lab, ObjectQualityTest, ActionQualityTestSubmit},
		{lab, ObjectQualityTest, ActionQualityTestUpdate},
		{lab, ObjectQualityTest, ActionView},
		{lab, ObjectBatch, ActionView},
		{lab, ObjectRegistry, ActionView},
		{lab, ObjectProvenance, ActionView},
		{lab, ObjectAnalytics, ActionView},

		{manufacturer, ObjectBatch, ActionBatchCreate},
		{manufacturer, ObjectBatch, ActionBatchUpdateStatus},
		{manufacturer, ObjectBatch, ActionBatchAddStep},
		{manufacturer, ObjectBatch, ActionBatchRecall},
		{manufacturer, ObjectBatch, ActionView},
		{manufacturer, ObjectProduct, ActionProductCreate},
		{manufacturer, ObjectProduct, ActionView},
		{manufacturer, ObjectCustody, ActionCustodyCreate},
		{manufacturer, ObjectCustody, ActionView},
		{manufacturer, ObjectCollectionEvent, ActionView},
		{manufacturer, ObjectQualityTest, ActionView},
		{manufacturer, ObjectRegistry, ActionView},
		{manufacturer, ObjectProvenance, ActionView},
		{manufacturer, ObjectProvenance, ActionProvenancePublish},
		{manufacturer, ObjectAnalytics, ActionView},
		{manufacturer, ObjectAnalytics, ActionAnalyticsExport},

		{admin, ObjectAuditLog, ActionView},
	}

	for _, policy := range policies {
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}

	// Admins inherit every operator role.
	for _, inherited := range []string{farmer, lab, manufacturer, consumer} {
		if _, err := enforcer.AddGroupingPolicy(admin, inherited); err != nil {
			return err
		}
	}
	return nil
}
