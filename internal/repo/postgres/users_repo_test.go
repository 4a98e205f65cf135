package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yabe12/bizdir/internal/domain/user"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func anyArgs(n int) []any {
	out := make([]any, n)
	for i := range out {
		out[i] = pgxmock.AnyArg()
	}
	return out
}

func sampleUser() user.User {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return user.User{
		ID:           "7c9e6679-7425-40de-944b-e07fc1f90ae7",
		Username:     "ada",
		Email:        "ada@example.com",
		PasswordHash: "$2a$10$hash",
		FirstName:    "Ada",
		LastName:     "Lovelace",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func userRows(u user.User) *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "username", "email", "password_hash", "first_name", "last_name", "created_at", "updated_at"}).
		AddRow(u.ID, u.Username, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.CreatedAt, u.UpdatedAt)
}

func TestUsersRepoCreateMapsConstraints(t *testing.T) {
	tests := []struct {
		name    string
		dbErr   error
		wantErr error
	}{
		{name: "ok"},
		{
			name:    "duplicate username",
			dbErr:   &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_username_key"},
			wantErr: user.ErrUsernameTaken,
		},
		{
			name:    "duplicate email",
			dbErr:   &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_email_key"},
			wantErr: user.ErrEmailTaken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			u := sampleUser()

			exp := mock.ExpectExec("INSERT INTO users").
				WithArgs(u.ID, u.Username, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.CreatedAt, u.UpdatedAt)
			if tt.dbErr != nil {
				exp.WillReturnError(tt.dbErr)
			} else {
				exp.WillReturnResult(pgxmock.NewResult("INSERT", 1))
			}

			got, err := NewUsersRepo(mock, nil).Create(context.Background(), u)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, u, got)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUsersRepoGetByEmail(t *testing.T) {
	mock := newMock(t)
	u := sampleUser()

	mock.ExpectQuery("SELECT .* FROM users WHERE email").
		WithArgs(u.Email).
		WillReturnRows(userRows(u))

	got, err := NewUsersRepo(mock, nil).GetByEmail(context.Background(), u.Email)
	require.NoError(t, err)
	assert.Equal(t, u, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUsersRepoGetByIDNotFound(t *testing.T) {
	mock := newMock(t)

	mock.ExpectQuery("SELECT .* FROM users WHERE id").
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{"id", "username", "email", "password_hash", "first_name", "last_name", "created_at", "updated_at"}))

	_, err := NewUsersRepo(mock, nil).GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestUsersRepoUpdateProfileDuplicateEmail(t *testing.T) {
	mock := newMock(t)
	email := "taken@example.com"

	mock.ExpectQuery("UPDATE users").
		WithArgs("u1", (*string)(nil), (*string)(nil), &email).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_email_key"})

	_, err := NewUsersRepo(mock, nil).UpdateProfile(context.Background(), "u1", user.ProfilePatch{Email: &email})
	assert.ErrorIs(t, err, user.ErrEmailTaken)
}

func TestUsersRepoDelete(t *testing.T) {
	mock := newMock(t)

	mock.ExpectExec("DELETE FROM users").WithArgs("u1").WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec("DELETE FROM users").WithArgs("u2").WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec("DELETE FROM users").WithArgs("u3").WillReturnError(errors.New("conn reset"))

	repo := NewUsersRepo(mock, nil)
	assert.NoError(t, repo.Delete(context.Background(), "u1"))
	assert.ErrorIs(t, repo.Delete(context.Background(), "u2"), user.ErrNotFound)
	assert.EqualError(t, repo.Delete(context.Background(), "u3"), "conn reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}
