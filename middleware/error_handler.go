package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/postapi/utils"
)

// ErrorHandler renders the last error attached by a handler through
// utils.RenderError. Server side failures are logged with their cause.
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Next()

		last := ctx.Errors.Last()
		if last == nil || ctx.Writer.Written() {
			return
		}

		appErr := utils.AsAppError(last.Err)
		if appErr.Status >= http.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("request_id", RequestID(ctx)),
				zap.String("method", ctx.Request.Method),
				zap.String("path", ctx.Request.URL.Path),
				zap.Error(last.Err),
			)
		}
		utils.RenderError(ctx, appErr)
	}
}
