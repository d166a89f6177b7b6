package requestdata

import (
	"context"

	"github.com/gtead/marketplace-backend/internal/types"
)

type ctxKey struct{}

var requestDataKey ctxKey

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	if rd, ok := ctx.Value(requestDataKey).(*RequestData); ok {
		return rd
	}
	return nil
}

// RequestData is attached by the auth middleware once the session cookie
// has been verified and the user loaded.
type RequestData struct {
	SessionID string
	User      *types.User
}
