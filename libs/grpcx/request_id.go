package grpcx

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey struct{}

// RequestIDMetadataKey is the metadata key used to propagate request ids
// over gRPC. Lowercase per gRPC metadata conventions.
const RequestIDMetadataKey = "x-request-id"

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, id)
}

func NewRequestID() string {
	return uuid.NewString()
}
