package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yabe12/bizdir/internal/account"
	"github.com/yabe12/bizdir/internal/auth"
	apphttp "github.com/yabe12/bizdir/internal/http"
	"github.com/yabe12/bizdir/internal/notifications"
	"github.com/yabe12/bizdir/internal/repo/memory"
	"github.com/yabe12/bizdir/internal/security"
)

type inboxMailer struct {
	mu    sync.Mutex
	codes map[string]string
}

func (m *inboxMailer) SendPasswordReset(_ context.Context, msg notifications.PasswordResetEmail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[msg.To] = msg.Code
	return nil
}

func (m *inboxMailer) code(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[email]
}

func newTestAPI(t *testing.T) (http.Handler, *inboxMailer) {
	t.Helper()

	users := memory.NewUsersRepo()
	jwt := auth.NewManager("router-test-secret", time.Hour)
	mailer := &inboxMailer{codes: map[string]string{}}

	accounts, err := account.NewService(account.Config{
		Users:    users,
		Tokens:   memory.NewResetTokensRepo(users),
		Sessions: jwt,
		Hasher:   security.NewHasherWithCost(bcrypt.MinCost),
		Mailer:   mailer,
	})
	require.NoError(t, err)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := apphttp.NewRouter(log, apphttp.Deps{
		Env:      "test",
		Accounts: accounts,
		Tokens:   jwt,
	})
	return r, mailer
}

func call(t *testing.T, h http.Handler, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	out := map[string]any{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w.Code, out
}

func creds(email, password string) map[string]string {
	return map[string]string{"email": email, "password": password}
}

func TestPasswordLifecycle(t *testing.T) {
	api, mailer := newTestAPI(t)

	status, body := call(t, api, http.MethodPost, "/api/users/register", "", map[string]string{
		"username": "u1", "email": "u1@example.com", "password": "Secret1!",
	})
	require.Equal(t, http.StatusCreated, status, body)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)

	status, _ = call(t, api, http.MethodGet, "/api/users/profile", token, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = call(t, api, http.MethodPost, "/api/users/login", "", creds("u1@example.com", "Secret1!"))
	assert.Equal(t, http.StatusOK, status)

	status, body = call(t, api, http.MethodPost, "/api/users/login", "", creds("u1@example.com", "Wrong1!x"))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_credentials", body["error"].(map[string]any)["code"])

	status, _ = call(t, api, http.MethodPost, "/api/users/forgot-password", "", map[string]string{"email": "u1@example.com"})
	require.Equal(t, http.StatusOK, status)
	code := mailer.code("u1@example.com")
	require.Len(t, code, 6)

	// a weak password leaves the code usable
	status, _ = call(t, api, http.MethodPost, "/api/users/reset-password", "", map[string]string{
		"token": code, "newPassword": "Newer2@",
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = call(t, api, http.MethodPost, "/api/users/reset-password", "", map[string]string{
		"token": code, "newPassword": "Newer2@pass",
	})
	require.Equal(t, http.StatusOK, status)

	status, _ = call(t, api, http.MethodPost, "/api/users/reset-password", "", map[string]string{
		"token": code, "newPassword": "Another3#pass",
	})
	assert.Equal(t, http.StatusBadRequest, status, "codes are single use")

	status, _ = call(t, api, http.MethodPost, "/api/users/login", "", creds("u1@example.com", "Secret1!"))
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = call(t, api, http.MethodPost, "/api/users/login", "", creds("u1@example.com", "Newer2@pass"))
	assert.Equal(t, http.StatusOK, status)
}

func TestForgotPasswordDoesNotRevealAccounts(t *testing.T) {
	api, _ := newTestAPI(t)

	_, _ = call(t, api, http.MethodPost, "/api/users/register", "", map[string]string{
		"username": "known", "email": "known@example.com", "password": "Secret1!",
	})

	s1, b1 := call(t, api, http.MethodPost, "/api/users/forgot-password", "", map[string]string{"email": "known@example.com"})
	s2, b2 := call(t, api, http.MethodPost, "/api/users/forgot-password", "", map[string]string{"email": "nobody@example.com"})
	assert.Equal(t, http.StatusOK, s1)
	assert.Equal(t, s1, s2)
	assert.Equal(t, b1, b2)
}

func TestConcurrentRegistrationSameUsername(t *testing.T) {
	api, _ := newTestAPI(t)

	var wg sync.WaitGroup
	statuses := make([]int, 2)
	for i := range statuses {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			statuses[i], _ = call(t, api, http.MethodPost, "/api/users/register", "", map[string]string{
				"username": "dup", "email": "dup" + string(rune('a'+i)) + "@example.com", "password": "Secret1!",
			})
		}(i)
	}
	wg.Wait()

	assert.ElementsMatch(t, []int{http.StatusCreated, http.StatusBadRequest}, statuses)
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	api, _ := newTestAPI(t)

	status, body := call(t, api, http.MethodGet, "/api/users/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "unauthorized", body["error"].(map[string]any)["code"])

	status, _ = call(t, api, http.MethodGet, "/api/users/profile", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestLoginIsRateLimited(t *testing.T) {
	api, _ := newTestAPI(t)

	var last int
	for i := 0; i < 11; i++ {
		last, _ = call(t, api, http.MethodPost, "/api/users/login", "", creds("ghost@example.com", "Secret1!"))
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}

func TestHealthz(t *testing.T) {
	api, _ := newTestAPI(t)

	status, _ := call(t, api, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, status)
}
