package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yabe12/bizdir/internal/account"
	"github.com/yabe12/bizdir/internal/config"
	"github.com/yabe12/bizdir/internal/domain/user"
	"github.com/yabe12/bizdir/internal/errutil"
	"github.com/yabe12/bizdir/internal/http/middlewares"
)

// AccountService is the slice of account.Service the user routes need.
type AccountService interface {
	Register(ctx context.Context, in account.RegisterInput) (user.User, string, error)
	Login(ctx context.Context, email, password string) (user.User, string, error)
	Profile(ctx context.Context, userID string) (user.User, error)
	UpdateProfile(ctx context.Context, userID string, patch user.ProfilePatch) (user.User, error)
	DeleteAccount(ctx context.Context, userID string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, code, newPassword string) error
}

const (
	requestTimeout = 3 * time.Second
	// covers the reset-code insert plus the mail send timeout
	forgotPasswordTimeout = 10 * time.Second

	forgotPasswordMessage = "If an account exists for that email, a verification code has been sent"
)

type UsersHandler struct {
	accounts AccountService
	log      *slog.Logger
}

func NewUsersHandler(accounts AccountService, log *slog.Logger) *UsersHandler {
	if log == nil {
		log = slog.Default()
	}
	return &UsersHandler{accounts: accounts, log: log}
}

type RegisterRequest struct {
	Username  string `json:"username" binding:"required,max=50"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"firstname" binding:"max=100"`
	LastName  string `json:"lastname" binding:"max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UpdateProfileRequest struct {
	FirstName *string `json:"firstname" binding:"omitempty,max=100"`
	LastName  *string `json:"lastname" binding:"omitempty,max=100"`
	Email     *string `json:"email" binding:"omitempty,email"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}

type authResponse struct {
	Token string    `json:"token"`
	User  user.User `json:"user"`
}

func (h *UsersHandler) Register(ctx *gin.Context) {
	var req RegisterRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), requestTimeout)
	defer cancel()

	u, token, err := h.accounts.Register(cctx, account.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		RespondErr(ctx, h.log, err)
		return
	}

	ctx.JSON(http.StatusCreated, authResponse{Token: token, User: u})
}

func (h *UsersHandler) Login(ctx *gin.Context) {
	var req LoginRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), requestTimeout)
	defer cancel()

	u, token, err := h.accounts.Login(cctx, req.Email, req.Password)
	if err != nil {
		RespondErr(ctx, h.log, err)
		return
	}

	ctx.JSON(http.StatusOK, authResponse{Token: token, User: u})
}

func (h *UsersHandler) GetProfile(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "Missing identity context")
		return
	}

	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), requestTimeout)
	defer cancel()

	u, err := h.accounts.Profile(cctx, userID)
	if err != nil {
		RespondErr(ctx, h.log, err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{"user": u})
}

func (h *UsersHandler) UpdateProfile(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "Missing identity context")
		return
	}

	var req UpdateProfileRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), requestTimeout)
	defer cancel()

	u, err := h.accounts.UpdateProfile(cctx, userID, user.ProfilePatch{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
	})
	if err != nil {
		RespondErr(ctx, h.log, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": u})
}

func (h *UsersHandler) DeleteProfile(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "Missing identity context")
		return
	}

	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), requestTimeout)
	defer cancel()

	if err := h.accounts.DeleteAccount(cctx, userID); err != nil {
		RespondErr(ctx, h.log, err)
		return
	}

	RespondMessage(ctx, http.StatusOK, "User profile deleted successfully")
}

// ForgotPassword answers known and unknown emails identically.
func (h *UsersHandler) ForgotPassword(ctx *gin.Context) {
	var req ForgotPasswordRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), forgotPasswordTimeout)
	defer cancel()

	err := h.accounts.ForgotPassword(cctx, req.Email)
	switch {
	case err == nil, errors.Is(err, account.ErrUserNotFound):
	case errors.Is(err, account.ErrMailDelivery):
		// the code is stored; the caller can ask again
		errutil.LogError(ctx.Request.Context(), h.log, "password reset email failed", err)
	default:
		RespondErr(ctx, h.log, err)
		return
	}

	RespondMessage(ctx, http.StatusOK, forgotPasswordMessage)
}

func (h *UsersHandler) ResetPassword(ctx *gin.Context) {
	var req ResetPasswordRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), requestTimeout)
	defer cancel()

	if err := h.accounts.ResetPassword(cctx, req.Token, req.NewPassword); err != nil {
		RespondErr(ctx, h.log, err)
		return
	}

	RespondMessage(ctx, http.StatusOK, "Password has been reset successfully")
}
