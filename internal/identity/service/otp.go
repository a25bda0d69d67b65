package service

import (
	"context"
	"strings"
	"time"

	"github.com/ayurtrace/ayurtrace/internal/actor"
	"github.com/ayurtrace/ayurtrace/internal/apperror"
	auditdomain "github.com/ayurtrace/ayurtrace/internal/audit/domain"
	"github.com/ayurtrace/ayurtrace/internal/identity/domain"
	"github.com/ayurtrace/ayurtrace/internal/identity/otp"
	"github.com/ayurtrace/ayurtrace/internal/providers/sms"
	"github.com/ayurtrace/ayurtrace/internal/validation"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultOTPTTL = 5 * time.Minute

// RequestOTP replaces any open challenge for the phone with a new one.
func (s *Service) RequestOTP(ctx context.Context, req domain.RequestOTPRequest) (*domain.OTPResponse, error) {
	if err := validation.Struct(s.validate, req); err != nil {
		return nil, err
	}
	phone := strings.TrimSpace(req.Phone)

	account, err := s.repo.FindAccountByPhone(ctx, s.db, phone)
	if err != nil {
		return nil, apperror.Storage(err)
	}
	if account == nil {
		return nil, domain.ErrAccountNotFound
	}

	limit, err := s.limiter.Allow(ctx, phone)
	if err != nil {
		return nil, err
	}
	if !limit.Allowed {
		s.log.Warn("otp rate limited",
			zap.String("phone", sms.MaskPhone(phone)),
			zap.Duration("retry_after", limit.RetryAfter),
		)
		return nil, domain.ErrOTPRateLimited
	}

	code, err := otp.Generate()
	if err != nil {
		return nil, err
	}
	hash, err := otp.Hash(code)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	challenge := &domain.OTPChallenge{
		ID:        s.genID.Generate().Int64(),
		Phone:     phone,
		CodeHash:  hash,
		ExpiresAt: now.Add(s.otpTTL),
		CreatedAt: now,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.ConsumeOpen(ctx, tx, phone, now); err != nil {
			return err
		}
		return s.repo.InsertChallenge(ctx, tx, challenge)
	})
	if err != nil {
		return nil, apperror.Storage(err)
	}

	if err := s.sms.Send(ctx, phone, otpMessage(code, s.otpTTL)); err != nil {
		s.log.Error("failed to send otp", zap.String("phone", sms.MaskPhone(phone)), zap.Error(err))
		return nil, err
	}

	return &domain.OTPResponse{Phone: phone, ExpiresAt: challenge.ExpiresAt}, nil
}

func (s *Service) VerifyOTP(ctx context.Context, req domain.VerifyOTPRequest) (*domain.TokenResponse, error) {
	if err := validation.Struct(s.validate, req); err != nil {
		return nil, err
	}
	phone := strings.TrimSpace(req.Phone)

	account, err := s.repo.FindAccountByPhone(ctx, s.db, phone)
	if err != nil {
		return nil, apperror.Storage(err)
	}
	if account == nil {
		return nil, domain.ErrInvalidOTP
	}
	challenge, err := s.repo.LatestChallenge(ctx, s.db, phone)
	if err != nil {
		return nil, apperror.Storage(err)
	}
	if challenge == nil {
		return nil, domain.ErrInvalidOTP
	}

	now := s.clock.Now()
	if !now.Before(challenge.ExpiresAt) {
		return nil, domain.ErrOTPExpired
	}
	if challenge.Attempts >= s.maxAttempts {
		return nil, domain.ErrTooManyAttempts
	}
	if !otp.Verify(strings.TrimSpace(req.Code), challenge.CodeHash) {
		if err := s.repo.IncrementAttempts(ctx, s.db, challenge.ID); err != nil {
			return nil, apperror.Storage(err)
		}
		return nil, domain.ErrInvalidOTP
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		consumed, err := s.repo.Consume(ctx, tx, challenge.ID, now)
		if err != nil {
			return err
		}
		if !consumed {
			return domain.ErrInvalidOTP
		}
		return s.repo.MarkLoggedIn(ctx, tx, account.ID, now)
	})
	if err != nil {
		return nil, apperror.Storage(err)
	}

	who := actor.New(snowflake.ID(account.ID), account.Role)
	signed, expiresAt, err := s.tokens.Issue(who)
	if err != nil {
		return nil, err
	}

	if !account.Verified {
		target := who.IDString()
		if err := s.audit.AuditLog(ctx, who, auditdomain.ActionAccountVerified, "account", &target, map[string]any{
			"role": string(account.Role),
		}); err != nil {
			s.log.Warn("failed to audit account verification", zap.String("account_id", target), zap.Error(err))
		}
		account.Verified = true
	}
	s.log.Info("account signed in", zap.String("account_id", who.IDString()), zap.String("role", string(who.Role)))

	return &domain.TokenResponse{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
		Account:     toResponse(account),
	}, nil
}
