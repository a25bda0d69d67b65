package token

import (
	"testing"
	"time"

	"github.com/ayurtrace/ayurtrace/internal/actor"
	"github.com/ayurtrace/ayurtrace/internal/clock"
	"github.com/ayurtrace/ayurtrace/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIssuer(t *testing.T, clk clock.Clock) *Issuer {
	t.Helper()
	issuer, err := NewIssuer(config.Config{
		AuthJWTSecret: "test-secret",
		AuthJWTIssuer: "ayurtrace",
		AuthTokenTTL:  time.Hour,
	}, clk)
	require.NoError(t, err)
	return issuer
}

func TestIssueAndParse(t *testing.T) {
	clk := clock.NewFakeClock(time.Now().UTC())
	issuer := newIssuer(t, clk)

	signed, expiresAt, err := issuer.Issue(actor.New(1790000000000000001, actor.RoleLaboratory))
	require.NoError(t, err)
	assert.Equal(t, clk.Now().Add(time.Hour), expiresAt)

	who, err := issuer.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, actor.RoleLaboratory, who.Role)
	assert.Equal(t, "1790000000000000001", who.IDString())
}

func TestParseExpired(t *testing.T) {
	clk := clock.NewFakeClock(time.Now().UTC())
	issuer := newIssuer(t, clk)

	signed, _, err := issuer.Issue(actor.New(42, actor.RoleConsumer))
	require.NoError(t, err)

	clk.Advance(2 * time.Hour)
	_, err = issuer.Parse(signed)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestParseRejectsForeignSignature(t *testing.T) {
	clk := clock.NewFakeClock(time.Now().UTC())
	signed, _, err := newIssuer(t, clk).Issue(actor.New(42, actor.RoleConsumer))
	require.NoError(t, err)

	other, err := NewIssuer(config.Config{AuthJWTSecret: "other", AuthJWTIssuer: "ayurtrace"}, clk)
	require.NoError(t, err)
	_, err = other.Parse(signed)
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = other.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestNewIssuerRequiresSecretInProduction(t *testing.T) {
	_, err := NewIssuer(config.Config{Environment: "production"}, clock.SystemClock{})
	assert.ErrorIs(t, err, ErrMissingSecret)
}
