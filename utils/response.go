package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// JSONResponse defines the uniform structure for API responses.
type JSONResponse struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Data    interface{}       `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// Respond writes a JSON response with the given status code.
func Respond(ctx *gin.Context, status int, code int, message string, data interface{}) {
	ctx.JSON(status, JSONResponse{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

// Success returns a standard success response.
func Success(ctx *gin.Context, data interface{}) {
	SuccessWithStatus(ctx, http.StatusOK, data)
}

// SuccessWithStatus returns a success envelope with an overridden status code.
func SuccessWithStatus(ctx *gin.Context, status int, data interface{}) {
	if status == http.StatusNoContent {
		NoContent(ctx)
		return
	}
	Respond(ctx, status, 0, "success", data)
}

// Created returns a 201 success envelope.
func Created(ctx *gin.Context, data interface{}) {
	SuccessWithStatus(ctx, http.StatusCreated, data)
}

// NoContent writes a 204 with no body.
func NoContent(ctx *gin.Context) {
	ctx.Status(http.StatusNoContent)
}

// Error returns a standard error response.
func Error(ctx *gin.Context, status int, code int, message string) {
	Respond(ctx, status, code, message, nil)
}

// RenderError writes err as an error envelope. AppError fields are rendered as-is,
// anything else becomes a generic 500.
func RenderError(ctx *gin.Context, err error) {
	appErr := AsAppError(err)
	ctx.JSON(appErr.Status, JSONResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
		Errors:  appErr.Details,
	})
}
