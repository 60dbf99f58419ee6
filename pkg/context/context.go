package context

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

const (
	RequestIDKey = "request_id"
	// LocalsRequestID is the fiber Locals key the request id middleware writes.
	LocalsRequestID = "X-Request-ID"
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		requestID = "unknown"
	}
	return context.WithValue(ctx, RequestIDKey, requestID)
}

func GetRequestID(ctx context.Context) string {
	if ctx == nil {
		return "unknown"
	}
	requestID, ok := ctx.Value(RequestIDKey).(string)
	if !ok || requestID == "" {
		return "unknown"
	}
	return requestID
}

// FromFiberCtx builds a request-scoped context carrying the request id. The
// returned context is detached from fasthttp, which recycles its ctx after
// the handler returns.
func FromFiberCtx(c *fiber.Ctx) context.Context {
	requestID, ok := c.Locals(LocalsRequestID).(string)
	if !ok || requestID == "" {
		requestID = c.Get(LocalsRequestID)
	}

	return WithRequestID(context.Background(), requestID)
}

// FromLocals is FromFiberCtx for callers that only hold a Locals accessor,
// such as a websocket connection.
func FromLocals(locals func(key string) interface{}) context.Context {
	requestID, _ := locals(LocalsRequestID).(string)
	return WithRequestID(context.Background(), requestID)
}
