package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yabe12/bizdir/internal/config"
	"github.com/yabe12/bizdir/internal/directory"
	"github.com/yabe12/bizdir/internal/domain/business"
	"github.com/yabe12/bizdir/internal/http/middlewares"
)

type BusinessService interface {
	RegisterBusiness(ctx context.Context, ownerID string, req business.CreateBusinessRequest) (business.Business, error)
	ListBusinesses(ctx context.Context, limit int, cursor string) (directory.Page, error)
	GetBusiness(ctx context.Context, id string) (business.Business, error)
	SearchBusinesses(ctx context.Context, f business.SearchFilter) ([]business.Business, error)
	UpdateBusiness(ctx context.Context, callerID, id string, req business.UpdateBusinessRequest) (business.Business, error)
	DeleteBusiness(ctx context.Context, callerID, id string) error
}

type BusinessesHandler struct {
	svc BusinessService
	log *slog.Logger
}

func NewBusinessesHandler(svc BusinessService, log *slog.Logger) *BusinessesHandler {
	if log == nil {
		log = slog.Default()
	}
	return &BusinessesHandler{svc: svc, log: log}
}

func (h *BusinessesHandler) Create(ctx *gin.Context) {
	ownerID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "Missing identity context")
		return
	}

	var req business.CreateBusinessRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), requestTimeout)
	defer cancel()

	b, err := h.svc.RegisterBusiness(cctx, ownerID, req)
	if err != nil {
		RespondErr(ctx, h.log, err)
		return
	}

	ctx.Header("Location", "/api/businesses/"+b.ID)
	ctx.JSON(http.StatusCreated, b)
}

// List pages through businesses with ?limit=&cursor=.
func (h *BusinessesHandler) List(ctx *gin.Context) {
	limit := 0
	if raw := ctx.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			RespondBadRequest(ctx, "limit must be a positive integer", gin.H{"limit": raw})
			return
		}
		limit = n
	}

	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), requestTimeout)
	defer cancel()

	page, err := h.svc.ListBusinesses(cctx, limit, ctx.Query("cursor"))
	if err != nil {
		RespondErr(ctx, h.log, err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, page)
}

func (h *BusinessesHandler) GetByID(ctx *gin.Context) {
	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), requestTimeout)
	defer cancel()

	b, err := h.svc.GetBusiness(cctx, ctx.Param("id"))
	if err != nil {
		RespondErr(ctx, h.log, err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, b)
}

func (h *BusinessesHandler) Search(ctx *gin.Context) {
	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), requestTimeout)
	defer cancel()

	items, err := h.svc.SearchBusinesses(cctx, business.SearchFilter{
		Name:    ctx.Query("name"),
		Address: ctx.Query("address"),
		Service: ctx.Query("service"),
	})
	if err != nil {
		RespondErr(ctx, h.log, err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, items)
}

func (h *BusinessesHandler) Update(ctx *gin.Context) {
	callerID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "Missing identity context")
		return
	}

	var req business.UpdateBusinessRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), requestTimeout)
	defer cancel()

	b, err := h.svc.UpdateBusiness(cctx, callerID, ctx.Param("id"), req)
	if err != nil {
		RespondErr(ctx, h.log, err)
		return
	}

	ctx.JSON(http.StatusOK, b)
}

func (h *BusinessesHandler) Delete(ctx *gin.Context) {
	callerID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "Missing identity context")
		return
	}

	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), requestTimeout)
	defer cancel()

	if err := h.svc.DeleteBusiness(cctx, callerID, ctx.Param("id")); err != nil {
		RespondErr(ctx, h.log, err)
		return
	}

	RespondMessage(ctx, http.StatusOK, "Business deleted successfully")
}
