package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yabe12/bizdir/internal/config"
	"github.com/yabe12/bizdir/internal/domain/rating"
	"github.com/yabe12/bizdir/internal/http/middlewares"
)

type RatingService interface {
	AddRating(ctx context.Context, userID string, req rating.CreateRatingRequest) (rating.Rating, error)
	UpdateRating(ctx context.Context, userID, id string, req rating.UpdateRatingRequest) (rating.Rating, error)
	DeleteRating(ctx context.Context, userID, id string) (rating.Rating, error)
	ListRatings(ctx context.Context, businessID string) (rating.Summary, error)
}

type RatingsHandler struct {
	svc RatingService
	log *slog.Logger
}

func NewRatingsHandler(svc RatingService, log *slog.Logger) *RatingsHandler {
	if log == nil {
		log = slog.Default()
	}
	return &RatingsHandler{svc: svc, log: log}
}

func (h *RatingsHandler) Create(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "Missing identity context")
		return
	}

	var req rating.CreateRatingRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), requestTimeout)
	defer cancel()

	r, err := h.svc.AddRating(cctx, userID, req)
	if err != nil {
		RespondErr(ctx, h.log, err)
		return
	}

	ctx.JSON(http.StatusCreated, r)
}

func (h *RatingsHandler) Update(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "Missing identity context")
		return
	}

	var req rating.UpdateRatingRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), requestTimeout)
	defer cancel()

	r, err := h.svc.UpdateRating(cctx, userID, ctx.Param("id"), req)
	if err != nil {
		RespondErr(ctx, h.log, err)
		return
	}

	ctx.JSON(http.StatusOK, r)
}

func (h *RatingsHandler) Delete(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "Missing identity context")
		return
	}

	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), requestTimeout)
	defer cancel()

	r, err := h.svc.DeleteRating(cctx, userID, ctx.Param("id"))
	if err != nil {
		RespondErr(ctx, h.log, err)
		return
	}

	ctx.JSON(http.StatusOK, r)
}

// ListByBusiness serves GET /api/businesses/:id/ratings.
func (h *RatingsHandler) ListByBusiness(ctx *gin.Context) {
	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), requestTimeout)
	defer cancel()

	summary, err := h.svc.ListRatings(cctx, ctx.Param("id"))
	if err != nil {
		RespondErr(ctx, h.log, err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, summary)
}
