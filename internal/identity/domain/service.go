package domain

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ayurtrace/ayurtrace/internal/actor"
	"github.com/ayurtrace/ayurtrace/internal/apperror"
)

type RequestOTPRequest struct {
	Phone string `json:"phone" validate:"required,e164"`
}

type RegisterRequest struct {
	Phone       string          `json:"phone" validate:"required,e164"`
	DisplayName string          `json:"display_name" validate:"required,max=200"`
	Role        string          `json:"role" validate:"required"`
	Profile     json.RawMessage `json:"profile"`
}

type VerifyOTPRequest struct {
	Phone string `json:"phone" validate:"required,e164"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

type OTPResponse struct {
	Phone     string    `json:"phone"`
	ExpiresAt time.Time `json:"expires_at"`
}

type AccountResponse struct {
	ID          string     `json:"id"`
	Phone       string     `json:"phone"`
	DisplayName string     `json:"display_name"`
	Role        actor.Role `json:"role"`
	Verified    bool       `json:"verified"`
	Profile     Profile    `json:"profile,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type TokenResponse struct {
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type"`
	ExpiresAt   time.Time       `json:"expires_at"`
	Account     AccountResponse `json:"account"`
}

type Service interface {
	// RequestOTP sends a one-time code to a registered phone.
	RequestOTP(ctx context.Context, req RequestOTPRequest) (*OTPResponse, error)
	Register(ctx context.Context, req RegisterRequest) (*AccountResponse, error)
	// VerifyOTP checks the code, marks the account verified and issues a token.
	VerifyOTP(ctx context.Context, req VerifyOTPRequest) (*TokenResponse, error)
	Me(ctx context.Context, who actor.Actor) (*AccountResponse, error)
}

var (
	ErrInvalidRole     = apperror.Validation("invalid_role")
	ErrRoleNotAllowed  = apperror.Validation("role_not_self_registrable")
	ErrInvalidProfile  = apperror.Validation("invalid_profile")
	ErrProfileRequired = apperror.Validation("profile_required")
	ErrPhoneExists     = apperror.Conflict("phone_already_registered")
	ErrAccountNotFound = apperror.NotFound("account_not_found")
	ErrOTPRateLimited  = apperror.New(apperror.KindRateLimited, "otp_rate_limited")
	ErrInvalidOTP      = apperror.New(apperror.KindUnauthorized, "invalid_otp")
	ErrOTPExpired      = apperror.New(apperror.KindUnauthorized, "otp_expired")
	ErrTooManyAttempts = apperror.New(apperror.KindUnauthorized, "otp_attempts_exceeded")
	ErrInvalidToken    = apperror.New(apperror.KindUnauthorized, "invalid_token")
)

// Authenticator resolves a bearer token to the actor it was issued for.
type Authenticator interface {
	Authenticate(ctx context.Context, bearer string) (actor.Actor, error)
}
