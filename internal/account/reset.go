package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yabe12/bizdir/internal/apperr"
	"github.com/yabe12/bizdir/internal/domain/resettoken"
	"github.com/yabe12/bizdir/internal/domain/user"
	"github.com/yabe12/bizdir/internal/notifications"
	"github.com/yabe12/bizdir/internal/security"
)

// ForgotPassword issues a fresh reset code for the account behind email and
// mails it. Any code issued earlier for the same user stops working.
//
// Unknown emails return ErrUserNotFound; the HTTP layer hides that from
// clients.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			s.prom.AuthEvent("forgot_password", "unknown_email")
			return apperr.NotFound("user_not_found", ErrUserNotFound)
		}
		return apperr.Internal("account.forgot.lookup", err)
	}

	now := s.now().UTC()
	expiresAt := now.Add(s.resetTTL)

	code, err := s.storeResetCode(ctx, u.ID, now)
	if err != nil {
		return err
	}

	err = s.mailer.SendPasswordReset(ctx, notifications.PasswordResetEmail{
		To:        u.Email,
		Username:  u.Username,
		Code:      code,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		s.prom.AuthEvent("forgot_password", "mail_failed")
		return apperr.Internal("account.forgot.mail", fmt.Errorf("%w: %w", ErrMailDelivery, err))
	}

	s.prom.AuthEvent("forgot_password", "ok")
	s.log.InfoContext(ctx, "password reset requested", "user_id", u.ID)
	return nil
}

func (s *Service) storeResetCode(ctx context.Context, userID string, now time.Time) (string, error) {
	for range maxCodeAttempts {
		code, err := security.GenerateResetCode()
		if err != nil {
			return "", apperr.Internal("account.forgot.generate", err)
		}

		err = s.tokens.Replace(ctx, resettoken.Token{
			TokenHash: security.HashResetCode(code),
			UserID:    userID,
			ExpiresAt: now.Add(s.resetTTL),
			CreatedAt: now,
		})
		switch {
		case err == nil:
			return code, nil
		case errors.Is(err, resettoken.ErrCollision):
			continue
		case errors.Is(err, user.ErrNotFound):
			// account deleted between lookup and insert
			return "", apperr.NotFound("user_not_found", ErrUserNotFound)
		default:
			return "", apperr.Internal("account.forgot.store", err)
		}
	}
	return "", apperr.Internal("account.forgot.store", errResetCodeSpaceExhausted)
}

// ResetPassword redeems code and sets newPassword. A code works at most once.
func (s *Service) ResetPassword(ctx context.Context, code, newPassword string) error {
	code = strings.TrimSpace(code)
	if len(code) != security.ResetCodeLength {
		s.prom.AuthEvent("reset_password", "invalid_token")
		return apperr.Validation("invalid_or_expired_token", ErrInvalidOrExpiredToken)
	}

	tokenHash := security.HashResetCode(code)
	now := s.now().UTC()

	tok, err := s.tokens.GetByHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, resettoken.ErrNotFound) {
			s.prom.AuthEvent("reset_password", "invalid_token")
			return apperr.Validation("invalid_or_expired_token", ErrInvalidOrExpiredToken)
		}
		return apperr.Internal("account.reset.lookup", err)
	}
	if tok.Expired(now) {
		s.prom.AuthEvent("reset_password", "expired_token")
		return apperr.Validation("invalid_or_expired_token", ErrInvalidOrExpiredToken)
	}

	if !security.IsAcceptable(newPassword) {
		s.prom.AuthEvent("reset_password", "weak_password")
		return apperr.Validation("weak_password", ErrWeakPassword)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return apperr.Internal("account.reset.hash", err)
	}

	// Redeem re-checks expiry and deletes the token in the same transaction
	// as the password update, so a concurrent second redemption finds nothing.
	userID, err := s.tokens.Redeem(ctx, tokenHash, hash, now)
	switch {
	case errors.Is(err, resettoken.ErrNotFound), errors.Is(err, user.ErrNotFound):
		s.prom.AuthEvent("reset_password", "invalid_token")
		return apperr.Validation("invalid_or_expired_token", ErrInvalidOrExpiredToken)
	case err != nil:
		return apperr.Internal("account.reset.redeem", err)
	}

	s.prom.AuthEvent("reset_password", "ok")
	s.log.InfoContext(ctx, "password reset", "user_id", userID)
	return nil
}
