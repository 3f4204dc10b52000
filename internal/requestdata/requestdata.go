package requestdata

import (
	"context"

	"github.com/google/uuid"
)

type requestDataKey struct{}

// RequestData is what the auth middleware knows about the caller. The user id
// is the internal row id; ExternalID is the opaque subject from the identity
// provider.
type RequestData struct {
	UserID     uuid.UUID
	ExternalID string
	IsAdmin    bool
	Entitled   bool
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	val := ctx.Value(requestDataKey{})
	if rd, ok := val.(*RequestData); ok {
		return rd
	}
	return nil
}
