package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), " req-1 ")
	ctx = WithActor(ctx, "LABORATORY", "42")
	ctx = WithClient(ctx, "10.0.0.1", "scanner/1.0")

	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
	role, id := ActorFromContext(ctx)
	assert.Equal(t, "LABORATORY", role)
	assert.Equal(t, "42", id)
	assert.Equal(t, ClientInfo{IPAddress: "10.0.0.1", UserAgent: "scanner/1.0"}, ClientFromContext(ctx))
}

func TestEmptyContext(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "", RequestIDFromContext(ctx))
	role, id := ActorFromContext(ctx)
	assert.Empty(t, role)
	assert.Empty(t, id)
	assert.Equal(t, ClientInfo{}, ClientFromContext(ctx))
}
