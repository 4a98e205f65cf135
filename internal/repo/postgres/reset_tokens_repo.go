package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/yabe12/bizdir/internal/domain/resettoken"
	"github.com/yabe12/bizdir/internal/domain/user"
	"github.com/yabe12/bizdir/internal/observability"
)

type ResetTokensRepo struct {
	db DBTX
	observer
}

func NewResetTokensRepo(db DBTX, prom *observability.Prom) *ResetTokensRepo {
	return &ResetTokensRepo{db: db, observer: observer{prom: prom}}
}

// Replace stores t and drops every other outstanding token of the same user
// in one transaction.
func (r *ResetTokensRepo) Replace(ctx context.Context, t resettoken.Token) error {
	err := r.observe("reset_tokens.replace", func() error {
		return inTx(ctx, r.db, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, `DELETE FROM password_reset_tokens WHERE user_id = $1`, t.UserID); err != nil {
				return err
			}

			_, err := tx.Exec(ctx,
				`INSERT INTO password_reset_tokens (token_hash, user_id, expires_at, created_at)
				VALUES ($1,$2,$3,$4)`,
				t.TokenHash, t.UserID, t.ExpiresAt, t.CreatedAt,
			)
			return err
		})
	})

	if IsUniqueViolation(err) {
		return resettoken.ErrCollision
	}
	if _, ok := foreignKeyViolation(err); ok {
		return user.ErrNotFound
	}
	return err
}

func (r *ResetTokensRepo) GetByHash(ctx context.Context, tokenHash string) (resettoken.Token, error) {
	var t resettoken.Token

	err := r.observe("reset_tokens.get_by_hash", func() error {
		return r.db.QueryRow(ctx,
			`SELECT token_hash, user_id, expires_at, created_at
			FROM password_reset_tokens
			WHERE token_hash = $1`,
			tokenHash,
		).Scan(&t.TokenHash, &t.UserID, &t.ExpiresAt, &t.CreatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return resettoken.Token{}, resettoken.ErrNotFound
		}
		return resettoken.Token{}, err
	}
	return t, nil
}

// Redeem consumes the token and sets the owner's password hash atomically.
// The DELETE ... RETURNING row-locks the token, so of two concurrent
// redemptions exactly one sees a row. If anything after the delete fails the
// transaction rolls back and the token survives.
func (r *ResetTokensRepo) Redeem(ctx context.Context, tokenHash, passwordHash string, now time.Time) (string, error) {
	var userID string

	err := r.observe("reset_tokens.redeem", func() error {
		return inTx(ctx, r.db, func(tx pgx.Tx) error {
			err := tx.QueryRow(ctx,
				`DELETE FROM password_reset_tokens
				WHERE token_hash = $1 AND expires_at >= $2
				RETURNING user_id`,
				tokenHash, now,
			).Scan(&userID)
			if err != nil {
				return err
			}

			tag, err := tx.Exec(ctx,
				`UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`,
				userID, passwordHash, now,
			)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				return user.ErrNotFound
			}

			_, err = tx.Exec(ctx, `DELETE FROM password_reset_tokens WHERE user_id = $1`, userID)
			return err
		})
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", resettoken.ErrNotFound
		}
		return "", err
	}
	return userID, nil
}

// DeleteExpired purges tokens that expired strictly before now.
func (r *ResetTokensRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	var n int64

	err := r.observe("reset_tokens.delete_expired", func() error {
		tag, err := r.db.Exec(ctx, `DELETE FROM password_reset_tokens WHERE expires_at < $1`, now)
		n = tag.RowsAffected()
		return err
	})

	return n, err
}
