package context

import (
	"context"
	"strings"
)

type requestIDKey struct{}
type actorKey struct{}
type clientKey struct{}

type actorValue struct {
	role string
	id   string
}

// ClientInfo carries the caller network fields recorded on scans and audit entries.
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, strings.TrimSpace(requestID))
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(requestIDKey{}).(string)
	return value
}

func WithActor(ctx context.Context, role, id string) context.Context {
	return context.WithValue(ctx, actorKey{}, actorValue{role: strings.TrimSpace(role), id: strings.TrimSpace(id)})
}

// ActorFromContext returns the actor role and id used for log correlation.
func ActorFromContext(ctx context.Context) (string, string) {
	if ctx == nil {
		return "", ""
	}
	value, ok := ctx.Value(actorKey{}).(actorValue)
	if !ok {
		return "", ""
	}
	return value.role, value.id
}

func WithClient(ctx context.Context, ip, userAgent string) context.Context {
	return context.WithValue(ctx, clientKey{}, ClientInfo{IPAddress: strings.TrimSpace(ip), UserAgent: strings.TrimSpace(userAgent)})
}

func ClientFromContext(ctx context.Context) ClientInfo {
	if ctx == nil {
		return ClientInfo{}
	}
	value, _ := ctx.Value(clientKey{}).(ClientInfo)
	return value
}
