package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/yabe12/bizdir/internal/domain/business"
	"github.com/yabe12/bizdir/internal/domain/comment"
	"github.com/yabe12/bizdir/internal/domain/user"
	"github.com/yabe12/bizdir/internal/observability"
)

type CommentsRepo struct {
	db DBTX
	observer
}

func NewCommentsRepo(db DBTX, prom *observability.Prom) *CommentsRepo {
	return &CommentsRepo{db: db, observer: observer{prom: prom}}
}

func (r *CommentsRepo) Create(ctx context.Context, c comment.Comment) (comment.Comment, error) {
	err := r.observe("comments.create", func() error {
		_, err := r.db.Exec(ctx,
			`INSERT INTO comments (id, user_id, business_id, body, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			c.ID, c.UserID, c.BusinessID, c.Body, c.CreatedAt, c.UpdatedAt,
		)
		return err
	})

	if err != nil {
		return comment.Comment{}, mapAuthoredFK(err)
	}
	return c, nil
}

func (r *CommentsRepo) GetByID(ctx context.Context, id string) (comment.Comment, error) {
	var c comment.Comment

	err := r.observe("comments.get_by_id", func() error {
		return r.db.QueryRow(ctx,
			`SELECT id, user_id, business_id, body, created_at, updated_at
			FROM comments WHERE id = $1`, id,
		).Scan(&c.ID, &c.UserID, &c.BusinessID, &c.Body, &c.CreatedAt, &c.UpdatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return comment.Comment{}, comment.ErrNotFound
		}
		return comment.Comment{}, err
	}
	return c, nil
}

func (r *CommentsRepo) Update(ctx context.Context, id, body string) (comment.Comment, error) {
	var c comment.Comment

	err := r.observe("comments.update", func() error {
		return r.db.QueryRow(ctx,
			`UPDATE comments SET body = $2, updated_at = NOW()
			WHERE id = $1
			RETURNING id, user_id, business_id, body, created_at, updated_at`,
			id, body,
		).Scan(&c.ID, &c.UserID, &c.BusinessID, &c.Body, &c.CreatedAt, &c.UpdatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return comment.Comment{}, comment.ErrNotFound
		}
		return comment.Comment{}, err
	}
	return c, nil
}

func (r *CommentsRepo) Delete(ctx context.Context, id string) error {
	var affected int64

	err := r.observe("comments.delete", func() error {
		tag, err := r.db.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
		affected = tag.RowsAffected()
		return err
	})

	if err != nil {
		return err
	}
	if affected == 0 {
		return comment.ErrNotFound
	}
	return nil
}

// ListByBusiness returns comments oldest first with their author.
func (r *CommentsRepo) ListByBusiness(ctx context.Context, businessID string) ([]comment.Comment, error) {
	out := []comment.Comment{}

	err := r.observe("comments.list_by_business", func() error {
		rows, err := r.db.Query(ctx,
			`SELECT c.id, c.user_id, c.business_id, c.body, c.created_at, c.updated_at, u.username
			FROM comments c
			JOIN users u ON u.id = c.user_id
			WHERE c.business_id = $1
			ORDER BY c.created_at, c.id`,
			businessID,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var c comment.Comment
			var username string
			if err := rows.Scan(&c.ID, &c.UserID, &c.BusinessID, &c.Body, &c.CreatedAt, &c.UpdatedAt, &username); err != nil {
				return err
			}
			c.Author = &comment.Author{ID: c.UserID, Username: username}
			out = append(out, c)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

// mapAuthoredFK maps FK violations on comments/ratings to the missing parent.
func mapAuthoredFK(err error) error {
	constraint, ok := foreignKeyViolation(err)
	if !ok {
		return err
	}

	switch constraint {
	case "comments_business_id_fkey", "ratings_business_id_fkey":
		return business.ErrNotFound
	case "comments_user_id_fkey", "ratings_user_id_fkey":
		return user.ErrNotFound
	default:
		return err
	}
}
