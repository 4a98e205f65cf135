package memory

import (
	"context"
	"sync"
	"time"

	"github.com/yabe12/bizdir/internal/domain/resettoken"
)

// ResetTokensRepo keeps reset tokens in memory. Redeem updates the owner in
// users while holding the token lock, so redemption is atomic within the
// process. Deleting a user does not cascade here; a dangling token fails to
// redeem with user.ErrNotFound.
type ResetTokensRepo struct {
	mu    sync.Mutex
	items map[string]resettoken.Token // token hash -> token
	users *UsersRepo
}

func NewResetTokensRepo(users *UsersRepo) *ResetTokensRepo {
	return &ResetTokensRepo{
		items: make(map[string]resettoken.Token),
		users: users,
	}
}

func (r *ResetTokensRepo) Replace(_ context.Context, t resettoken.Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[t.TokenHash]; exists {
		return resettoken.ErrCollision
	}

	r.deleteForUserLocked(t.UserID)
	r.items[t.TokenHash] = t
	return nil
}

func (r *ResetTokensRepo) GetByHash(_ context.Context, tokenHash string) (resettoken.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.items[tokenHash]
	if !ok {
		return resettoken.Token{}, resettoken.ErrNotFound
	}
	return t, nil
}

func (r *ResetTokensRepo) Redeem(_ context.Context, tokenHash, passwordHash string, now time.Time) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.items[tokenHash]
	if !ok || t.Expired(now) {
		return "", resettoken.ErrNotFound
	}

	if err := r.users.setPasswordHash(t.UserID, passwordHash, now); err != nil {
		return "", err
	}

	r.deleteForUserLocked(t.UserID)
	return t.UserID, nil
}

func (r *ResetTokensRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for hash, t := range r.items {
		if t.Expired(now) {
			delete(r.items, hash)
			n++
		}
	}
	return n, nil
}

// Len is the number of stored tokens, for tests.
func (r *ResetTokensRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

func (r *ResetTokensRepo) deleteForUserLocked(userID string) {
	for hash, t := range r.items {
		if t.UserID == userID {
			delete(r.items, hash)
		}
	}
}
