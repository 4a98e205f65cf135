// Package account implements registration, login, profile self-service and
// the password-reset flow on top of the user and reset-token stores.
package account

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yabe12/bizdir/internal/apperr"
	"github.com/yabe12/bizdir/internal/domain/resettoken"
	"github.com/yabe12/bizdir/internal/domain/user"
	"github.com/yabe12/bizdir/internal/notifications"
	"github.com/yabe12/bizdir/internal/observability"
	"github.com/yabe12/bizdir/internal/security"
)

type UserStore interface {
	Create(ctx context.Context, u user.User) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	UpdateProfile(ctx context.Context, id string, patch user.ProfilePatch) (user.User, error)
	Delete(ctx context.Context, id string) error
}

type ResetTokenStore interface {
	Replace(ctx context.Context, t resettoken.Token) error
	GetByHash(ctx context.Context, tokenHash string) (resettoken.Token, error)
	Redeem(ctx context.Context, tokenHash, passwordHash string, now time.Time) (string, error)
}

type TokenIssuer interface {
	Issue(userID string) (string, error)
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

// Config holds the service dependencies. Prom, Log, Now and ResetTTL are
// optional.
type Config struct {
	Users    UserStore
	Tokens   ResetTokenStore
	Sessions TokenIssuer
	Hasher   PasswordHasher
	Mailer   notifications.Mailer
	Prom     *observability.Prom
	Log      *slog.Logger
	Now      func() time.Time
	ResetTTL time.Duration
}

type Service struct {
	users    UserStore
	tokens   ResetTokenStore
	sessions TokenIssuer
	hasher   PasswordHasher
	mailer   notifications.Mailer
	prom     *observability.Prom
	log      *slog.Logger
	now      func() time.Time
	resetTTL time.Duration

	dummyOnce sync.Once
	dummyHash string
}

const defaultResetTTL = time.Hour

// maxCodeAttempts bounds retries when a fresh reset code collides with an
// outstanding one.
const maxCodeAttempts = 3

func NewService(cfg Config) (*Service, error) {
	switch {
	case cfg.Users == nil:
		return nil, errors.New("account: user store is required")
	case cfg.Tokens == nil:
		return nil, errors.New("account: reset token store is required")
	case cfg.Sessions == nil:
		return nil, errors.New("account: token issuer is required")
	case cfg.Hasher == nil:
		return nil, errors.New("account: password hasher is required")
	case cfg.Mailer == nil:
		return nil, errors.New("account: mailer is required")
	}

	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.ResetTTL <= 0 {
		cfg.ResetTTL = defaultResetTTL
	}

	return &Service{
		users:    cfg.Users,
		tokens:   cfg.Tokens,
		sessions: cfg.Sessions,
		hasher:   cfg.Hasher,
		mailer:   cfg.Mailer,
		prom:     cfg.Prom,
		log:      cfg.Log,
		now:      cfg.Now,
		resetTTL: cfg.ResetTTL,
	}, nil
}

type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Register creates the user and signs them in. Duplicates are detected by
// the store's unique constraints, not by a prior lookup.
func (s *Service) Register(ctx context.Context, in RegisterInput) (user.User, string, error) {
	username := strings.TrimSpace(in.Username)
	email := normalizeEmail(in.Email)

	if username == "" || email == "" || in.Password == "" {
		return user.User{}, "", apperr.Validation("missing_fields", ErrMissingRequiredField)
	}
	if !security.IsAcceptable(in.Password) {
		s.prom.AuthEvent("register", "weak_password")
		return user.User{}, "", apperr.Validation("weak_password", ErrWeakPassword)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return user.User{}, "", apperr.Internal("account.register.hash", err)
	}

	now := s.now().UTC()
	created, err := s.users.Create(ctx, user.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	switch {
	case errors.Is(err, user.ErrUsernameTaken):
		s.prom.AuthEvent("register", "conflict")
		return user.User{}, "", apperr.Conflict("username_taken", err)
	case errors.Is(err, user.ErrEmailTaken):
		s.prom.AuthEvent("register", "conflict")
		return user.User{}, "", apperr.Conflict("email_taken", err)
	case err != nil:
		return user.User{}, "", apperr.Internal("account.register.create", err)
	}

	token, err := s.sessions.Issue(created.ID)
	if err != nil {
		return user.User{}, "", apperr.Internal("account.register.issue", err)
	}

	s.prom.AuthEvent("register", "ok")
	return created, token, nil
}

// Login answers unknown emails and wrong passwords with the same error and
// roughly the same latency.
func (s *Service) Login(ctx context.Context, email, password string) (user.User, string, error) {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			return user.User{}, "", apperr.Internal("account.login.lookup", err)
		}
		s.hasher.Verify(password, s.dummy())
		s.prom.AuthEvent("login", "invalid_credentials")
		return user.User{}, "", apperr.Validation("invalid_credentials", ErrInvalidCredentials)
	}

	if !s.hasher.Verify(password, u.PasswordHash) {
		s.prom.AuthEvent("login", "invalid_credentials")
		return user.User{}, "", apperr.Validation("invalid_credentials", ErrInvalidCredentials)
	}

	token, err := s.sessions.Issue(u.ID)
	if err != nil {
		return user.User{}, "", apperr.Internal("account.login.issue", err)
	}

	s.prom.AuthEvent("login", "ok")
	return u, token, nil
}

func (s *Service) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash("dummy-password-for-timing")
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}

func (s *Service) Profile(ctx context.Context, userID string) (user.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return user.User{}, mapUserErr("account.profile", err)
	}
	return u, nil
}

// UpdateProfile applies the non-nil fields of patch. An empty patch returns
// the current profile.
func (s *Service) UpdateProfile(ctx context.Context, userID string, patch user.ProfilePatch) (user.User, error) {
	if patch.Email != nil {
		e := normalizeEmail(*patch.Email)
		if e == "" {
			patch.Email = nil
		} else {
			patch.Email = &e
		}
	}
	patch.FirstName = trimmedOrNil(patch.FirstName)
	patch.LastName = trimmedOrNil(patch.LastName)

	if patch.IsEmpty() {
		return s.Profile(ctx, userID)
	}

	u, err := s.users.UpdateProfile(ctx, userID, patch)
	if errors.Is(err, user.ErrEmailTaken) {
		return user.User{}, apperr.Conflict("email_taken", err)
	}
	if err != nil {
		return user.User{}, mapUserErr("account.update_profile", err)
	}
	return u, nil
}

func (s *Service) DeleteAccount(ctx context.Context, userID string) error {
	if err := s.users.Delete(ctx, userID); err != nil {
		return mapUserErr("account.delete", err)
	}
	s.prom.AuthEvent("delete_account", "ok")
	return nil
}

func mapUserErr(op string, err error) error {
	if errors.Is(err, user.ErrNotFound) {
		return apperr.NotFound("user_not_found", ErrUserNotFound)
	}
	return apperr.Internal(op, err)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// blank strings count as "not provided", as in the original profile form
func trimmedOrNil(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}
