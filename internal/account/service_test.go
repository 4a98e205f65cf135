package account_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yabe12/bizdir/internal/account"
	"github.com/yabe12/bizdir/internal/apperr"
	"github.com/yabe12/bizdir/internal/auth"
	"github.com/yabe12/bizdir/internal/domain/user"
	"github.com/yabe12/bizdir/internal/notifications"
	"github.com/yabe12/bizdir/internal/repo/memory"
	"github.com/yabe12/bizdir/internal/security"
)

type captureMailer struct {
	mu   sync.Mutex
	sent []notifications.PasswordResetEmail
	err  error
}

func (m *captureMailer) SendPasswordReset(_ context.Context, msg notifications.PasswordResetEmail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *captureMailer) lastCode(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent, "no reset email sent")
	return m.sent[len(m.sent)-1].Code
}

type fixture struct {
	svc    *account.Service
	mailer *captureMailer
	jwt    *auth.Manager
	tokens *memory.ResetTokensRepo
	now    *time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	users := memory.NewUsersRepo()
	tokens := memory.NewResetTokensRepo(users)
	jwt := auth.NewManager("test-secret", time.Hour).WithClock(clock)
	mailer := &captureMailer{}

	svc, err := account.NewService(account.Config{
		Users:    users,
		Tokens:   tokens,
		Sessions: jwt,
		Hasher:   security.NewHasherWithCost(bcrypt.MinCost),
		Mailer:   mailer,
		Now:      func() time.Time { return now },
	})
	require.NoError(t, err)

	return &fixture{svc: svc, mailer: mailer, jwt: jwt, tokens: tokens, now: &now}
}

func (f *fixture) register(t *testing.T, username, email, password string) user.User {
	t.Helper()
	u, _, err := f.svc.Register(context.Background(), account.RegisterInput{
		Username: username, Email: email, Password: password,
	})
	require.NoError(t, err)
	return u
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := account.NewService(account.Config{})
	assert.Error(t, err)
}

func TestRegister(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, token, err := f.svc.Register(ctx, account.RegisterInput{
		Username:  "u1",
		Email:     " U1@Example.com ",
		Password:  "Secret1!",
		FirstName: "Ada",
	})
	require.NoError(t, err)
	assert.Equal(t, "u1@example.com", u.Email)
	assert.NotEqual(t, "Secret1!", u.PasswordHash)

	uid, err := f.jwt.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, uid)
}

func TestRegisterRejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "taken", "taken@example.com", "Secret1!")

	tests := []struct {
		name   string
		in     account.RegisterInput
		kind   apperr.Kind
		target error
	}{
		{"weak password", account.RegisterInput{Username: "a", Email: "a@x.io", Password: "abc12345"}, apperr.KindValidation, account.ErrWeakPassword},
		{"missing email", account.RegisterInput{Username: "a", Password: "Secret1!"}, apperr.KindValidation, account.ErrMissingRequiredField},
		{"duplicate username", account.RegisterInput{Username: "taken", Email: "b@x.io", Password: "Secret1!"}, apperr.KindConflict, account.ErrUsernameTaken},
		{"duplicate email", account.RegisterInput{Username: "b", Email: "TAKEN@example.com", Password: "Secret1!"}, apperr.KindConflict, account.ErrEmailTaken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := f.svc.Register(ctx, tt.in)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
		})
	}
}

func TestRegisterConcurrentDuplicates(t *testing.T) {
	f := newFixture(t)

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := f.svc.Register(context.Background(), account.RegisterInput{
				Username: "same", Email: "same@example.com", Password: "Secret1!",
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	}
	assert.Equal(t, 1, ok)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	registered := f.register(t, "u1", "u1@example.com", "Secret1!")

	u, token, err := f.svc.Login(ctx, "u1@example.com", "Secret1!")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, u.ID)
	assert.NotEmpty(t, token)

	_, _, err = f.svc.Login(ctx, "u1@example.com", "wrong-pass!")
	assert.ErrorIs(t, err, account.ErrInvalidCredentials)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, _, unknownErr := f.svc.Login(ctx, "nobody@example.com", "Secret1!")
	assert.ErrorIs(t, unknownErr, account.ErrInvalidCredentials)
	assert.Equal(t, apperr.Message(err), apperr.Message(unknownErr))
}

func TestProfileLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "u1", "u1@example.com", "Secret1!")
	f.register(t, "u2", "u2@example.com", "Secret1!")

	first := "Grace"
	updated, err := f.svc.UpdateProfile(ctx, u.ID, user.ProfilePatch{FirstName: &first})
	require.NoError(t, err)
	assert.Equal(t, "Grace", updated.FirstName)
	assert.Equal(t, "u1@example.com", updated.Email)

	dup := "u2@example.com"
	_, err = f.svc.UpdateProfile(ctx, u.ID, user.ProfilePatch{Email: &dup})
	assert.ErrorIs(t, err, account.ErrEmailTaken)

	require.NoError(t, f.svc.DeleteAccount(ctx, u.ID))

	_, err = f.svc.Profile(ctx, u.ID)
	assert.ErrorIs(t, err, account.ErrUserNotFound)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestPasswordResetEndToEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "u1", "u1@example.com", "Secret1!")

	require.NoError(t, f.svc.ForgotPassword(ctx, "u1@example.com"))
	code := f.mailer.lastCode(t)
	assert.Len(t, code, security.ResetCodeLength)

	require.NoError(t, f.svc.ResetPassword(ctx, code, "Newer2@pass"))

	_, _, err := f.svc.Login(ctx, "u1@example.com", "Secret1!")
	assert.ErrorIs(t, err, account.ErrInvalidCredentials)

	_, _, err = f.svc.Login(ctx, "u1@example.com", "Newer2@pass")
	assert.NoError(t, err)
}

func TestLongPasswordsRegisterAndReset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := strings.Repeat("a", 80) + "!"
	second := strings.Repeat("b", 120) + "#"

	f.register(t, "u1", "u1@example.com", first)
	_, _, err := f.svc.Login(ctx, "u1@example.com", first)
	require.NoError(t, err)

	require.NoError(t, f.svc.ForgotPassword(ctx, "u1@example.com"))
	require.NoError(t, f.svc.ResetPassword(ctx, f.mailer.lastCode(t), second))

	_, _, err = f.svc.Login(ctx, "u1@example.com", second)
	assert.NoError(t, err)
	_, _, err = f.svc.Login(ctx, "u1@example.com", first)
	assert.ErrorIs(t, err, account.ErrInvalidCredentials)
}

func TestResetPasswordIsSingleUse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "u1", "u1@example.com", "Secret1!")

	require.NoError(t, f.svc.ForgotPassword(ctx, "u1@example.com"))
	code := f.mailer.lastCode(t)

	require.NoError(t, f.svc.ResetPassword(ctx, code, "Newer2@pass"))

	err := f.svc.ResetPassword(ctx, code, "Another3#pass")
	assert.ErrorIs(t, err, account.ErrInvalidOrExpiredToken)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestResetPasswordConcurrentRedemption(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "u1", "u1@example.com", "Secret1!")
	require.NoError(t, f.svc.ForgotPassword(ctx, "u1@example.com"))
	code := f.mailer.lastCode(t)

	const n = 6
	var wg sync.WaitGroup
	results := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- f.svc.ResetPassword(ctx, code, "Newer2@pass")
		}()
	}
	wg.Wait()
	close(results)

	ok := 0
	for err := range results {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, account.ErrInvalidOrExpiredToken)
	}
	assert.Equal(t, 1, ok)
}

func TestResetPasswordExpired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "u1", "u1@example.com", "Secret1!")
	require.NoError(t, f.svc.ForgotPassword(ctx, "u1@example.com"))
	code := f.mailer.lastCode(t)

	*f.now = f.now.Add(time.Hour + time.Second)

	err := f.svc.ResetPassword(ctx, code, "Newer2@pass")
	assert.ErrorIs(t, err, account.ErrInvalidOrExpiredToken)
}

func TestResetPasswordAtExactExpiryStillWorks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "u1", "u1@example.com", "Secret1!")
	require.NoError(t, f.svc.ForgotPassword(ctx, "u1@example.com"))
	code := f.mailer.lastCode(t)

	*f.now = f.now.Add(time.Hour)

	assert.NoError(t, f.svc.ResetPassword(ctx, code, "Newer2@pass"))
}

func TestResetPasswordWeakKeepsToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "u1", "u1@example.com", "Secret1!")
	require.NoError(t, f.svc.ForgotPassword(ctx, "u1@example.com"))
	code := f.mailer.lastCode(t)

	// too short: 7 characters
	err := f.svc.ResetPassword(ctx, code, "Newer2@")
	assert.ErrorIs(t, err, account.ErrWeakPassword)

	assert.NoError(t, f.svc.ResetPassword(ctx, code, "Newer2@pass"))
}

func TestResetCodeIsCaseInsensitive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "u1", "u1@example.com", "Secret1!")
	require.NoError(t, f.svc.ForgotPassword(ctx, "u1@example.com"))
	code := f.mailer.lastCode(t)

	lower := []byte(code)
	for i, c := range lower {
		if c >= 'A' && c <= 'Z' {
			lower[i] = c + ('a' - 'A')
		}
	}

	assert.NoError(t, f.svc.ResetPassword(ctx, " "+string(lower)+" ", "Newer2@pass"))
}

func TestForgotPasswordInvalidatesPreviousCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "u1", "u1@example.com", "Secret1!")

	require.NoError(t, f.svc.ForgotPassword(ctx, "u1@example.com"))
	first := f.mailer.lastCode(t)
	require.NoError(t, f.svc.ForgotPassword(ctx, "u1@example.com"))
	second := f.mailer.lastCode(t)

	assert.Equal(t, 1, f.tokens.Len())
	if first != second {
		assert.ErrorIs(t, f.svc.ResetPassword(ctx, first, "Newer2@pass"), account.ErrInvalidOrExpiredToken)
	}
	assert.NoError(t, f.svc.ResetPassword(ctx, second, "Newer2@pass"))
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	f := newFixture(t)

	err := f.svc.ForgotPassword(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, account.ErrUserNotFound)
	assert.Empty(t, f.mailer.sent)
}

func TestForgotPasswordMailFailureIsInternal(t *testing.T) {
	f := newFixture(t)
	f.register(t, "u1", "u1@example.com", "Secret1!")
	f.mailer.err = errors.New("smtp: 421 service not available")

	err := f.svc.ForgotPassword(context.Background(), "u1@example.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, account.ErrMailDelivery)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	assert.Equal(t, "Something went wrong", apperr.Message(err))
}

func TestResetPasswordRejectsMalformedCode(t *testing.T) {
	f := newFixture(t)

	err := f.svc.ResetPassword(context.Background(), "ABC", "Newer2@pass")
	assert.ErrorIs(t, err, account.ErrInvalidOrExpiredToken)
}
