package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/yabe12/bizdir/internal/domain/user"
	"github.com/yabe12/bizdir/internal/observability"
)

const userColumns = `id, username, email, password_hash, first_name, last_name, created_at, updated_at`

type UsersRepo struct {
	db DBTX
	observer
}

func NewUsersRepo(db DBTX, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{db: db, observer: observer{prom: prom}}
}

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.FirstName,
		&u.LastName,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}

// Create inserts u in one statement; the unique constraints decide duplicates,
// so two concurrent registrations for the same email cannot both succeed.
func (r *UsersRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	err := r.observe("users.create", func() error {
		_, err := r.db.Exec(ctx,
			`INSERT INTO users (`+userColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			u.ID, u.Username, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.CreatedAt, u.UpdatedAt,
		)
		return err
	})

	if err != nil {
		return user.User{}, mapUserConflict(err)
	}

	return u, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	return r.getOne(ctx, "users.get_by_id", `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return r.getOne(ctx, "users.get_by_email", `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *UsersRepo) getOne(ctx context.Context, op, sql string, arg any) (user.User, error) {
	var u user.User

	err := r.observe(op, func() error {
		var err error
		u, err = scanUser(r.db.QueryRow(ctx, sql, arg))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return u, nil
}

// UpdateProfile applies the non-nil fields of patch.
func (r *UsersRepo) UpdateProfile(ctx context.Context, id string, patch user.ProfilePatch) (user.User, error) {
	var u user.User

	err := r.observe("users.update_profile", func() error {
		var err error
		u, err = scanUser(r.db.QueryRow(ctx,
			`UPDATE users
			SET first_name = COALESCE($2::text, first_name),
				last_name = COALESCE($3::text, last_name),
				email = COALESCE($4::text, email),
				updated_at = NOW()
			WHERE id = $1
			RETURNING `+userColumns,
			id, patch.FirstName, patch.LastName, patch.Email,
		))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, mapUserConflict(err)
	}
	return u, nil
}

// Delete removes the user; reset tokens, comments, ratings and owned
// businesses go with it through ON DELETE CASCADE.
func (r *UsersRepo) Delete(ctx context.Context, id string) error {
	var affected int64

	err := r.observe("users.delete", func() error {
		tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		affected = tag.RowsAffected()
		return err
	})

	if err != nil {
		return err
	}
	if affected == 0 {
		return user.ErrNotFound
	}
	return nil
}

func mapUserConflict(err error) error {
	constraint, ok := uniqueViolation(err)
	if !ok {
		return err
	}

	switch constraint {
	case "users_username_key":
		return user.ErrUsernameTaken
	case "users_email_key":
		return user.ErrEmailTaken
	default:
		return err
	}
}
