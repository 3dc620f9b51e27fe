package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// HeaderRequestID carries the per-request correlation id.
	HeaderRequestID = "X-Request-ID"
	// ContextRequestIDKey stores the request id inside Gin context.
	ContextRequestIDKey = "request_id"
)

// RequestIDMiddleware reuses an inbound X-Request-ID or generates a new UUID.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id := ctx.GetHeader(HeaderRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		ctx.Set(ContextRequestIDKey, id)
		ctx.Header(HeaderRequestID, id)
		ctx.Next()
	}
}

// RequestID returns the id assigned by RequestIDMiddleware, or "".
func RequestID(ctx *gin.Context) string {
	return ctx.GetString(ContextRequestIDKey)
}
