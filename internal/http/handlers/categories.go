package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yabe12/bizdir/internal/config"
	"github.com/yabe12/bizdir/internal/domain/business"
	"github.com/yabe12/bizdir/internal/domain/category"
)

type CategoryService interface {
	ListCategories(ctx context.Context) ([]category.Category, error)
	GetCategory(ctx context.Context, id string) (category.Category, error)
	ListBusinessesByCategory(ctx context.Context, categoryID string) ([]business.Business, error)
}

type CategoriesHandler struct {
	svc CategoryService
	log *slog.Logger
}

func NewCategoriesHandler(svc CategoryService, log *slog.Logger) *CategoriesHandler {
	if log == nil {
		log = slog.Default()
	}
	return &CategoriesHandler{svc: svc, log: log}
}

func (h *CategoriesHandler) List(ctx *gin.Context) {
	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), requestTimeout)
	defer cancel()

	items, err := h.svc.ListCategories(cctx)
	if err != nil {
		RespondErr(ctx, h.log, err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, items)
}

func (h *CategoriesHandler) GetByID(ctx *gin.Context) {
	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), requestTimeout)
	defer cancel()

	c, err := h.svc.GetCategory(cctx, ctx.Param("id"))
	if err != nil {
		RespondErr(ctx, h.log, err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, c)
}

func (h *CategoriesHandler) ListBusinesses(ctx *gin.Context) {
	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), requestTimeout)
	defer cancel()

	items, err := h.svc.ListBusinessesByCategory(cctx, ctx.Param("id"))
	if err != nil {
		RespondErr(ctx, h.log, err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, items)
}
