package testutil

import (
	"context"
	"regexp"
	"sync"
	"testing"

	analyticsdomain "github.com/ayurtrace/ayurtrace/internal/analytics/domain"
	analyticsrepository "github.com/ayurtrace/ayurtrace/internal/analytics/repository"
	analyticsservice "github.com/ayurtrace/ayurtrace/internal/analytics/service"
	batchdomain "github.com/ayurtrace/ayurtrace/internal/batch/domain"
	batchrepository "github.com/ayurtrace/ayurtrace/internal/batch/repository"
	batchservice "github.com/ayurtrace/ayurtrace/internal/batch/service"
	collectiondomain "github.com/ayurtrace/ayurtrace/internal/collection/domain"
	collectionrepository "github.com/ayurtrace/ayurtrace/internal/collection/repository"
	collectionservice "github.com/ayurtrace/ayurtrace/internal/collection/service"
	"github.com/ayurtrace/ayurtrace/internal/config"
	custodydomain "github.com/ayurtrace/ayurtrace/internal/custody/domain"
	custodyservice "github.com/ayurtrace/ayurtrace/internal/custody/service"
	identityrepository "github.com/ayurtrace/ayurtrace/internal/identity/repository"
	identityservice "github.com/ayurtrace/ayurtrace/internal/identity/service"
	"github.com/ayurtrace/ayurtrace/internal/identity/token"
	productdomain "github.com/ayurtrace/ayurtrace/internal/product/domain"
	productrepository "github.com/ayurtrace/ayurtrace/internal/product/repository"
	productservice "github.com/ayurtrace/ayurtrace/internal/product/service"
	provenancedomain "github.com/ayurtrace/ayurtrace/internal/provenance/domain"
	provenanceservice "github.com/ayurtrace/ayurtrace/internal/provenance/service"
	"github.com/ayurtrace/ayurtrace/internal/providers/pdf"
	qrdomain "github.com/ayurtrace/ayurtrace/internal/qrcode/domain"
	qrrepository "github.com/ayurtrace/ayurtrace/internal/qrcode/repository"
	qualitydomain "github.com/ayurtrace/ayurtrace/internal/quality/domain"
	qualityrepository "github.com/ayurtrace/ayurtrace/internal/quality/repository"
	qualityservice "github.com/ayurtrace/ayurtrace/internal/quality/service"
	"github.com/ayurtrace/ayurtrace/internal/quality/thresholds"
	"github.com/ayurtrace/ayurtrace/internal/ratelimit"
	registrydomain "github.com/ayurtrace/ayurtrace/internal/registry/domain"
	registryservice "github.com/ayurtrace/ayurtrace/internal/registry/service"
	"github.com/ayurtrace/ayurtrace/pkg/repository"
	"github.com/stretchr/testify/require"
)

// Services is every domain service wired against one Env.
type Services struct {
	Registry   *registryservice.Service
	Collection collectiondomain.Service
	Batch      *batchservice.Service
	Quality    qualitydomain.Service
	Product    productdomain.Service
	Custody    custodydomain.Service
	Provenance provenancedomain.Service
	Analytics  analyticsdomain.Service
	Identity   *identityservice.Service
	Tokens     *token.Issuer
	SMS        *RecordingSMS

	Events     collectiondomain.Repository
	Batches    batchdomain.Repository
	Products   productdomain.Repository
	QrCodes    qrdomain.Repository
	Tests      qualitydomain.Repository
	Thresholds *thresholds.Holder
	Config     config.Config
}

func (e *Env) Services(t *testing.T) *Services {
	t.Helper()
	cfg := config.Config{
		AppName:        "ayurtrace",
		Environment:    "test",
		AuthJWTSecret:  "test-secret",
		AuthJWTIssuer:  "ayurtrace",
		OTPMaxAttempts: 5,
		OTPRatePerHour: 5,
		PublicBaseURL:  "http://localhost:8080",
	}

	registry := registryservice.NewService(registryservice.Params{
		Log:          e.Log,
		GenID:        e.GenID,
		Clock:        e.Clock,
		Validate:     e.Validate,
		Authz:        e.Authz,
		Species:      repository.ProvideStore[registrydomain.Species](e.DB),
		Cooperatives: repository.ProvideStore[registrydomain.Cooperative](e.DB),
		Collectors:   repository.ProvideStore[registrydomain.Collector](e.DB),
		Facilities:   repository.ProvideStore[registrydomain.ProcessingFacility](e.DB),
		Labs:         repository.ProvideStore[registrydomain.QualityLab](e.DB),
	})

	events := collectionrepository.Provide()
	products := productrepository.Provide()
	qrCodes := qrrepository.Provide()
	tests := qualityrepository.Provide()
	batches := batchrepository.Provide()
	table := thresholds.NewStatic(qualitydomain.DefaultThresholds())

	batch := batchservice.New(batchservice.Params{
		DB:       e.DB,
		Log:      e.Log,
		GenID:    e.GenID,
		Clock:    e.Clock,
		Validate: e.Validate,
		Authz:    e.Authz,
		Audit:    e.Audit,
		Locker:   e.Locker,
		Registry: registry,
		Events:   events,
		Products: products,
		QrCodes:  qrCodes,
		Repo:     batches,
	})

	tokens, err := token.NewIssuer(cfg, e.Clock)
	require.NoError(t, err)
	recorder := &RecordingSMS{}

	collection := collectionservice.New(collectionservice.Params{
		DB:       e.DB,
		Log:      e.Log,
		GenID:    e.GenID,
		Clock:    e.Clock,
		Validate: e.Validate,
		Authz:    e.Authz,
		Registry: registry,
		Repo:     events,
	})
	quality := qualityservice.New(qualityservice.Params{
		DB:         e.DB,
		Log:        e.Log,
		GenID:      e.GenID,
		Clock:      e.Clock,
		Validate:   e.Validate,
		Authz:      e.Authz,
		Thresholds: table,
		Registry:   registry,
		Batches:    batch,
		Repo:       tests,
	})
	product := productservice.New(productservice.Params{
		DB:       e.DB,
		Log:      e.Log,
		GenID:    e.GenID,
		Clock:    e.Clock,
		Validate: e.Validate,
		Authz:    e.Authz,
		Batches:  batch,
		Repo:     products,
	})
	custody := custodyservice.New(custodyservice.Params{
		Log:      e.Log,
		GenID:    e.GenID,
		Clock:    e.Clock,
		Validate: e.Validate,
		Authz:    e.Authz,
		Batches:  batch,
		Store:    repository.ProvideStore[custodydomain.ChainOfCustody](e.DB),
	})
	provenance := provenanceservice.New(provenanceservice.Params{
		DB:        e.DB,
		Log:       e.Log,
		Config:    cfg,
		GenID:     e.GenID,
		Clock:     e.Clock,
		Authz:     e.Authz,
		Audit:     e.Audit,
		Blob:      e.Blob,
		PDF:       pdf.New(),
		Batches:   batch,
		Lifecycle: batch,
		Registry:  registry,
		Events:    events,
		Tests:     tests,
		Products:  products,
		QrCodes:   qrCodes,
	})
	analytics := analyticsservice.New(analyticsservice.Params{
		DB:    e.DB,
		Log:   e.Log,
		Clock: e.Clock,
		Authz: e.Authz,
		Repo:  analyticsrepository.Provide(),
	})
	limiter := ratelimit.NewOTPLimiter(ratelimit.OTPLimiterParams{
		Config: cfg,
		Log:    e.Log,
		Clock:  e.Clock,
	})
	identity := identityservice.New(identityservice.Params{
		DB:       e.DB,
		Log:      e.Log,
		Config:   cfg,
		GenID:    e.GenID,
		Clock:    e.Clock,
		Validate: e.Validate,
		Audit:    e.Audit,
		Tokens:   tokens,
		SMS:      recorder,
		Limiter:  limiter,
		Repo:     identityrepository.Provide(),
	})

	return &Services{
		Registry:   registry,
		Collection: collection,
		Batch:      batch,
		Quality:    quality,
		Product:    product,
		Custody:    custody,
		Provenance: provenance,
		Analytics:  analytics,
		Identity:   identity,
		Tokens:     tokens,
		SMS:        recorder,

		Events:     events,
		Batches:    batches,
		Products:   products,
		QrCodes:    qrCodes,
		Tests:      tests,
		Thresholds: table,
		Config:     cfg,
	}
}

var digits = regexp.MustCompile(`\b\d{6}\b`)

// RecordingSMS keeps sent messages in memory.
type RecordingSMS struct {
	mu       sync.Mutex
	messages map[string][]string
}

func (r *RecordingSMS) Send(ctx context.Context, phone string, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.messages == nil {
		r.messages = make(map[string][]string)
	}
	r.messages[phone] = append(r.messages[phone], message)
	return nil
}

// LastCode returns the six digit code of the newest message to phone.
func (r *RecordingSMS) LastCode(phone string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	sent := r.messages[phone]
	if len(sent) == 0 {
		return ""
	}
	return digits.FindString(sent[len(sent)-1])
}

func (r *RecordingSMS) Count(phone string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.messages[phone])
}
