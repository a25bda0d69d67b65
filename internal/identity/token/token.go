package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ayurtrace/ayurtrace/internal/actor"
	"github.com/ayurtrace/ayurtrace/internal/clock"
	"github.com/ayurtrace/ayurtrace/internal/config"
	"github.com/bwmarrin/snowflake"
	"github.com/golang-jwt/jwt/v4"
)

var (
	ErrMissingSecret = errors.New("AUTH_JWT_SECRET is required outside development")
	ErrInvalid       = errors.New("invalid token")
	ErrExpired       = errors.New("token expired")
)

// devSecret signs tokens in development when no secret is configured.
const devSecret = "ayurtrace-development-only"

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 access tokens carrying the account id
// and role.
type Issuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	clock  clock.Clock
}

func NewIssuer(cfg config.Config, clk clock.Clock) (*Issuer, error) {
	secret := cfg.AuthJWTSecret
	if secret == "" {
		if cfg.IsProduction() {
			return nil, ErrMissingSecret
		}
		secret = devSecret
	}
	ttl := cfg.AuthTokenTTL
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &Issuer{secret: []byte(secret), issuer: cfg.AuthJWTIssuer, ttl: ttl, clock: clk}, nil
}

func (i *Issuer) Issue(who actor.Actor) (string, time.Time, error) {
	now := i.clock.Now()
	expiresAt := now.Add(i.ttl)
	c := claims{
		Role: string(who.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   who.ID.String(),
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Parse verifies raw and returns the actor it was issued for.
func (i *Issuer) Parse(raw string) (actor.Actor, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(raw, &c, i.key)
	if err != nil {
		var verr *jwt.ValidationError
		if errors.As(err, &verr) && verr.Errors&jwt.ValidationErrorExpired != 0 {
			return actor.Actor{}, ErrExpired
		}
		return actor.Actor{}, ErrInvalid
	}
	if !parsed.Valid {
		return actor.Actor{}, ErrInvalid
	}
	// The injected clock bounds expiry as well.
	if c.ExpiresAt == nil || !i.clock.Now().Before(c.ExpiresAt.Time) {
		return actor.Actor{}, ErrExpired
	}
	if i.issuer != "" && c.Issuer != i.issuer {
		return actor.Actor{}, ErrInvalid
	}

	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return actor.Actor{}, ErrInvalid
	}
	role, ok := actor.ParseRole(c.Role)
	if !ok {
		return actor.Actor{}, ErrInvalid
	}
	return actor.New(snowflake.ID(id), role), nil
}

func (i *Issuer) key(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
	}
	return i.secret, nil
}
