package context

import (
	"context"
	"strings"
)

type requestIDKey struct{}
type userIDKey struct{}
type roleKey struct{}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(requestIDKey{}).(string)
	return value
}

// WithActor records the authenticated user and role on the context.
func WithActor(ctx context.Context, userID, role string) context.Context {
	ctx = context.WithValue(ctx, userIDKey{}, strings.TrimSpace(userID))
	return context.WithValue(ctx, roleKey{}, strings.TrimSpace(role))
}

func ActorFromContext(ctx context.Context) (string, string) {
	if ctx == nil {
		return "", ""
	}
	userID, _ := ctx.Value(userIDKey{}).(string)
	role, _ := ctx.Value(roleKey{}).(string)
	return userID, role
}
