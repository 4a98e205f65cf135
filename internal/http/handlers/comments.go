package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yabe12/bizdir/internal/config"
	"github.com/yabe12/bizdir/internal/domain/comment"
	"github.com/yabe12/bizdir/internal/http/middlewares"
)

type CommentService interface {
	AddComment(ctx context.Context, userID string, req comment.CreateCommentRequest) (comment.Comment, error)
	UpdateComment(ctx context.Context, userID, id string, req comment.UpdateCommentRequest) (comment.Comment, error)
	DeleteComment(ctx context.Context, userID, id string) (comment.Comment, error)
	ListComments(ctx context.Context, businessID string) ([]comment.Comment, error)
}

type CommentsHandler struct {
	svc CommentService
	log *slog.Logger
}

func NewCommentsHandler(svc CommentService, log *slog.Logger) *CommentsHandler {
	if log == nil {
		log = slog.Default()
	}
	return &CommentsHandler{svc: svc, log: log}
}

func (h *CommentsHandler) Create(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "Missing identity context")
		return
	}

	var req comment.CreateCommentRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), requestTimeout)
	defer cancel()

	c, err := h.svc.AddComment(cctx, userID, req)
	if err != nil {
		RespondErr(ctx, h.log, err)
		return
	}

	ctx.JSON(http.StatusCreated, c)
}

func (h *CommentsHandler) Update(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "Missing identity context")
		return
	}

	var req comment.UpdateCommentRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), requestTimeout)
	defer cancel()

	c, err := h.svc.UpdateComment(cctx, userID, ctx.Param("id"), req)
	if err != nil {
		RespondErr(ctx, h.log, err)
		return
	}

	ctx.JSON(http.StatusOK, c)
}

func (h *CommentsHandler) Delete(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "Missing identity context")
		return
	}

	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), requestTimeout)
	defer cancel()

	c, err := h.svc.DeleteComment(cctx, userID, ctx.Param("id"))
	if err != nil {
		RespondErr(ctx, h.log, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Comment deleted successfully", "deletedComment": c})
}

// ListByBusiness serves GET /api/businesses/:id/comments.
func (h *CommentsHandler) ListByBusiness(ctx *gin.Context) {
	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), requestTimeout)
	defer cancel()

	items, err := h.svc.ListComments(cctx, ctx.Param("id"))
	if err != nil {
		RespondErr(ctx, h.log, err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, items)
}
