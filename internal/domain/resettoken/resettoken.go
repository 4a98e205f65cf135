package resettoken

import (
	"errors"
	"time"
)

var (
	ErrNotFound  = errors.New("reset token not found")
	ErrCollision = errors.New("reset token already exists")
)

// Token is a stored password-reset token. Only the SHA-256 of the code is kept.
type Token struct {
	TokenHash string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the token is past its expiry at now. A token whose
// expiry equals now is still valid.
func (t Token) Expired(now time.Time) bool {
	return t.ExpiresAt.Before(now)
}
