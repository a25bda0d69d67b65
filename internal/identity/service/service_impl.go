package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ayurtrace/ayurtrace/internal/actor"
	"github.com/ayurtrace/ayurtrace/internal/apperror"
	auditdomain "github.com/ayurtrace/ayurtrace/internal/audit/domain"
	"github.com/ayurtrace/ayurtrace/internal/clock"
	"github.com/ayurtrace/ayurtrace/internal/config"
	"github.com/ayurtrace/ayurtrace/internal/identity/domain"
	"github.com/ayurtrace/ayurtrace/internal/identity/token"
	"github.com/ayurtrace/ayurtrace/internal/providers/sms"
	"github.com/ayurtrace/ayurtrace/internal/ratelimit"
	"github.com/ayurtrace/ayurtrace/internal/validation"
	"github.com/ayurtrace/ayurtrace/pkg/db"
	"github.com/bwmarrin/snowflake"
	"github.com/go-playground/validator/v10"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Config   config.Config
	GenID    *snowflake.Node
	Clock    clock.Clock
	Validate *validator.Validate
	Audit    auditdomain.Service
	Tokens   *token.Issuer
	SMS      sms.Provider
	Limiter  *ratelimit.OTPLimiter `optional:"true"`
	Repo     domain.Repository
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	validate    *validator.Validate
	audit       auditdomain.Service
	tokens      *token.Issuer
	sms         sms.Provider
	limiter     *ratelimit.OTPLimiter
	repo        domain.Repository
	otpTTL      time.Duration
	maxAttempts int
}

func New(p Params) *Service {
	maxAttempts := p.Config.OTPMaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	ttl := p.Config.OTPTTL
	if ttl <= 0 {
		ttl = defaultOTPTTL
	}
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("identity.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		validate:    p.Validate,
		audit:       p.Audit,
		tokens:      p.Tokens,
		sms:         p.SMS,
		limiter:     p.Limiter,
		repo:        p.Repo,
		otpTTL:      ttl,
		maxAttempts: maxAttempts,
	}
}

func (s *Service) Register(ctx context.Context, req domain.RegisterRequest) (*domain.AccountResponse, error) {
	if err := validation.Struct(s.validate, req); err != nil {
		return nil, err
	}
	role, ok := actor.ParseRole(req.Role)
	if !ok {
		return nil, domain.ErrInvalidRole
	}
	if role == actor.RoleAdmin {
		return nil, domain.ErrRoleNotAllowed
	}

	profile, err := domain.DecodeProfile(role, req.Profile)
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(s.validate, profile); err != nil {
		return nil, err
	}
	encoded, err := json.Marshal(profile)
	if err != nil {
		return nil, err
	}

	phone := strings.TrimSpace(req.Phone)
	existing, err := s.repo.FindAccountByPhone(ctx, s.db, phone)
	if err != nil {
		return nil, apperror.Storage(err)
	}
	if existing != nil {
		return nil, domain.ErrPhoneExists
	}

	now := s.clock.Now()
	account := &domain.Account{
		ID:          s.genID.Generate().Int64(),
		Phone:       phone,
		DisplayName: strings.TrimSpace(req.DisplayName),
		Role:        role,
		Profile:     datatypes.JSON(encoded),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.InsertAccount(ctx, s.db, account); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrPhoneExists
		}
		return nil, apperror.Storage(err)
	}

	s.log.Info("account registered",
		zap.String("account_id", snowflake.ID(account.ID).String()),
		zap.String("role", string(role)),
		zap.String("phone", sms.MaskPhone(phone)),
	)
	resp := toResponse(account)
	return &resp, nil
}

func (s *Service) Me(ctx context.Context, who actor.Actor) (*domain.AccountResponse, error) {
	if who.IsZero() {
		return nil, domain.ErrInvalidToken
	}
	account, err := s.repo.FindAccountByID(ctx, s.db, who.ID.Int64())
	if err != nil {
		return nil, apperror.Storage(err)
	}
	if account == nil {
		return nil, domain.ErrAccountNotFound
	}
	resp := toResponse(account)
	return &resp, nil
}

func (s *Service) Authenticate(ctx context.Context, bearer string) (actor.Actor, error) {
	raw := strings.TrimSpace(bearer)
	if scheme, rest, ok := strings.Cut(raw, " "); ok && strings.EqualFold(scheme, "bearer") {
		raw = strings.TrimSpace(rest)
	}
	if raw == "" {
		return actor.Actor{}, domain.ErrInvalidToken
	}
	who, err := s.tokens.Parse(raw)
	if err != nil {
		return actor.Actor{}, apperror.Wrap(domain.ErrInvalidToken, err)
	}
	return who, nil
}

func toResponse(a *domain.Account) domain.AccountResponse {
	resp := domain.AccountResponse{
		ID:          snowflake.ID(a.ID).String(),
		Phone:       a.Phone,
		DisplayName: a.DisplayName,
		Role:        a.Role,
		Verified:    a.Verified,
		CreatedAt:   a.CreatedAt,
	}
	if profile, err := domain.DecodeProfile(a.Role, a.Profile); err == nil {
		resp.Profile = profile
	}
	return resp
}

func otpMessage(code string, ttl time.Duration) string {
	return fmt.Sprintf("%s is your AyurTrace verification code. It expires in %d minutes.", code, int(ttl.Minutes()))
}
