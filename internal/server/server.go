package server

import (
	"context"
	"net/http"
	"time"

	analyticsdomain "github.com/ayurtrace/ayurtrace/internal/analytics/domain"
	auditdomain "github.com/ayurtrace/ayurtrace/internal/audit/domain"
	"github.com/ayurtrace/ayurtrace/internal/authorization"
	batchdomain "github.com/ayurtrace/ayurtrace/internal/batch/domain"
	"github.com/ayurtrace/ayurtrace/internal/blob"
	collectiondomain "github.com/ayurtrace/ayurtrace/internal/collection/domain"
	"github.com/ayurtrace/ayurtrace/internal/config"
	custodydomain "github.com/ayurtrace/ayurtrace/internal/custody/domain"
	identitydomain "github.com/ayurtrace/ayurtrace/internal/identity/domain"
	"github.com/ayurtrace/ayurtrace/internal/observability"
	obsmiddleware "github.com/ayurtrace/ayurtrace/internal/observability/logger"
	obsmetrics "github.com/ayurtrace/ayurtrace/internal/observability/metrics"
	obstracing "github.com/ayurtrace/ayurtrace/internal/observability/tracing"
	productdomain "github.com/ayurtrace/ayurtrace/internal/product/domain"
	provenancedomain "github.com/ayurtrace/ayurtrace/internal/provenance/domain"
	qualitydomain "github.com/ayurtrace/ayurtrace/internal/quality/domain"
	"github.com/ayurtrace/ayurtrace/internal/ratelimit"
	registrydomain "github.com/ayurtrace/ayurtrace/internal/registry/domain"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Provide(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Base:            log,
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics, log *zap.Logger) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics, log)
}

func run(lc fx.Lifecycle, cfg config.Config, s *Server, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: s.Engine(),
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine        *gin.Engine
	cfg           config.Config
	authn         identitydomain.Authenticator
	identitySvc   identitydomain.Service
	authzSvc      authorization.Service
	auditSvc      auditdomain.Service
	registrySvc   registrydomain.Service
	collectionSvc collectiondomain.Service
	batchSvc      batchdomain.Service
	qualitySvc    qualitydomain.Service
	productSvc    productdomain.Service
	custodySvc    custodydomain.Service
	provenanceSvc provenancedomain.Service
	analyticsSvc  analyticsdomain.Service
	blobs         blob.Store
	traceLimiter  *ratelimit.TraceLimiter
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	Authn         identitydomain.Authenticator
	IdentitySvc   identitydomain.Service
	AuthzSvc      authorization.Service
	AuditSvc      auditdomain.Service
	RegistrySvc   registrydomain.Service
	CollectionSvc collectiondomain.Service
	BatchSvc      batchdomain.Service
	QualitySvc    qualitydomain.Service
	ProductSvc    productdomain.Service
	CustodySvc    custodydomain.Service
	ProvenanceSvc provenancedomain.Service
	AnalyticsSvc  analyticsdomain.Service
	Blobs         blob.Store
	TraceLimiter  *ratelimit.TraceLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		authn:         p.Authn,
		identitySvc:   p.IdentitySvc,
		authzSvc:      p.AuthzSvc,
		auditSvc:      p.AuditSvc,
		registrySvc:   p.RegistrySvc,
		collectionSvc: p.CollectionSvc,
		batchSvc:      p.BatchSvc,
		qualitySvc:    p.QualitySvc,
		productSvc:    p.ProductSvc,
		custodySvc:    p.CustodySvc,
		provenanceSvc: p.ProvenanceSvc,
		analyticsSvc:  p.AnalyticsSvc,
		blobs:         p.Blobs,
		traceLimiter:  p.TraceLimiter,
	}

	svc.registerAuthRoutes()
	svc.registerAPIRoutes()
	svc.registerPublicRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/auth")

	auth.POST("/register", s.Register)
	auth.POST("/otp/request", s.RequestOTP)
	auth.POST("/otp/verify", s.VerifyOTP)
	auth.GET("/me", s.AuthRequired(), s.Me)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api", s.AuthRequired())

	// -------- Registry --------
	api.GET("/species", s.ListSpecies)
	api.POST("/species", s.CreateSpecies)
	api.GET("/species/:id", s.GetSpecies)
	api.GET("/cooperatives", s.ListCooperatives)
	api.POST("/cooperatives", s.CreateCooperative)
	api.GET("/cooperatives/:id", s.GetCooperative)
	api.GET("/collectors", s.ListCollectors)
	api.POST("/collectors", s.CreateCollector)
	api.GET("/collectors/:id", s.GetCollector)
	api.GET("/facilities", s.ListFacilities)
	api.POST("/facilities", s.CreateFacility)
	api.GET("/facilities/:id", s.GetFacility)
	api.GET("/labs", s.ListLabs)
	api.POST("/labs", s.CreateLab)
	api.GET("/labs/:id", s.GetLab)

	// -------- Collection --------
	api.GET("/collection-events", s.ListCollectionEvents)
	api.POST("/collection-events", s.RecordCollectionEvent)
	api.GET("/collection-events/:id", s.GetCollectionEvent)
	api.PATCH("/collection-events/:id", s.UpdateCollectionEvent)

	// -------- Batches --------
	api.GET("/batches", s.ListBatches)
	api.POST("/batches", s.CreateBatch)
	api.GET("/batches/:id", s.GetBatch)
	api.PATCH("/batches/:id/status", s.UpdateBatchStatus)
	api.GET("/batches/:id/steps", s.ListProcessingSteps)
	api.POST("/batches/:id/steps", s.AddProcessingStep)
	api.POST("/batches/:id/recall", s.RecallBatch)
	api.GET("/batches/:id/quality-tests", s.ListQualityTests)
	api.GET("/batches/:id/products", s.ListBatchProducts)
	api.GET("/batches/:id/custody", s.ListCustody)
	api.GET("/batches/:id/provenance", s.GetProvenance)
	api.POST("/batches/:id/provenance/publish", s.PublishProvenance)

	// -------- Quality --------
	api.POST("/quality-tests", s.SubmitQualityTest)
	api.GET("/quality-tests/:id", s.GetQualityTest)
	api.PATCH("/quality-tests/:id", s.UpdateQualityTest)

	// -------- Products & custody --------
	api.POST("/products", s.CreateProduct)
	api.GET("/products/:id", s.GetProduct)
	api.POST("/custody", s.RecordCustody)

	// -------- Analytics & audit --------
	api.GET("/analytics", s.GetAnalytics)
	api.GET("/analytics/export", s.ExportAnalytics)
	api.GET("/audit-logs", s.ListAuditLogs)
}

func (s *Server) registerPublicRoutes() {
	public := s.engine.Group("/public")

	public.GET("/trace/:code", s.OptionalAuth(), s.TraceRateLimit(), s.TraceByQR)
	public.GET("/blobs/*key", s.GetBlob)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
