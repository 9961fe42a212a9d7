package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/naydelinzavala7/back-login-mongo/internal/account"
)

// Envelope is the shape of every API response. Error is null on success.
type Envelope struct {
	Error     *string     `json:"error"`
	Data      interface{} `json:"data,omitempty"`
	Code      string      `json:"code,omitempty"`
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

func requestIDFrom(ctx *gin.Context) string {
	v, ok := ctx.Get("request_id")

	if ok {
		s, ok := v.(string)
		if ok && s != "" {
			return s
		}
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

func RespondOK(ctx *gin.Context, data interface{}) {
	ctx.JSON(http.StatusOK, Envelope{Data: data})
}

func RespondError(ctx *gin.Context, status int, code, message string, details interface{}) {
	ctx.JSON(status, Envelope{
		Error:     &message,
		Code:      code,
		RequestID: requestIDFrom(ctx),
		Details:   details,
	})
}

func RespondBadRequest(ctx *gin.Context, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, "invalid_request", message, details)
}

func RespondUnauthorized(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusUnauthorized, "unauthorized", message, nil)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, "not_found", message, nil)
}

func RespondConflict(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusConflict, code, message, nil)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, "internal_error", message, nil)
}

// StatusFor maps a result kind to its one status code.
func StatusFor(kind account.ErrorKind) int {
	switch kind {
	case account.KindNone:
		return http.StatusOK
	case account.KindValidation:
		return http.StatusBadRequest
	case account.KindUnauthorized:
		return http.StatusUnauthorized
	case account.KindNotFound:
		return http.StatusNotFound
	case account.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func codeFor(kind account.ErrorKind) string {
	switch kind {
	case account.KindValidation:
		return "invalid_request"
	case account.KindUnauthorized:
		return "invalid_credentials"
	case account.KindNotFound:
		return "not_found"
	case account.KindConflict:
		return "conflict"
	default:
		return "internal_error"
	}
}

// RespondKind answers with the status and code of err's kind and the given message.
func RespondKind(ctx *gin.Context, err error, message string) {
	kind := account.Kind(err)
	RespondError(ctx, StatusFor(kind), codeFor(kind), message, nil)
}
