package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yabe12/bizdir/internal/apperr"
	"github.com/yabe12/bizdir/internal/domain/user"
	"github.com/yabe12/bizdir/internal/errutil"
	"github.com/yabe12/bizdir/internal/http/middlewares"
)

type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
	Details   any    `json:"details,omitempty"`
}

func requestIDFrom(ctx *gin.Context) string {
	if id := ctx.GetString(middlewares.CtxRequestID); id != "" {
		return id
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

func RespondError(ctx *gin.Context, status int, code, message string, details any) {
	ctx.JSON(status, gin.H{
		"error": APIError{
			Code:      code,
			Message:   message,
			RequestID: requestIDFrom(ctx),
			Details:   details,
		},
	})
}

func RespondBadRequest(ctx *gin.Context, message string, details any) {
	RespondError(ctx, http.StatusBadRequest, "invalid_request", message, details)
}

func RespondUnauthorized(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusUnauthorized, "unauthorized", message, nil)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, "internal_error", message, nil)
}

// RespondErr writes the envelope for an error returned by a service. Internal
// errors are logged in full and answered with a fixed message.
func RespondErr(ctx *gin.Context, log *slog.Logger, err error) {
	kind := apperr.KindOf(err)

	if kind == apperr.KindInternal {
		errutil.LogError(ctx.Request.Context(), log, "request failed", err)
		RespondInternal(ctx, apperr.Message(err))
		return
	}

	status := apperr.Status(kind)

	// duplicate account fields are plain input errors for API clients
	if errors.Is(err, user.ErrUsernameTaken) || errors.Is(err, user.ErrEmailTaken) {
		status = http.StatusBadRequest
	}

	RespondError(ctx, status, apperr.ReasonOf(err), apperr.Message(err), nil)
}

// RespondMessage is the plain {"message": ...} confirmation body.
func RespondMessage(ctx *gin.Context, status int, message string) {
	ctx.JSON(status, gin.H{"message": message})
}
