package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/yabe12/bizdir/internal/domain/rating"
	"github.com/yabe12/bizdir/internal/observability"
)

const ratingColumns = `id, user_id, business_id, value, created_at, updated_at`

type RatingsRepo struct {
	db DBTX
	observer
}

func NewRatingsRepo(db DBTX, prom *observability.Prom) *RatingsRepo {
	return &RatingsRepo{db: db, observer: observer{prom: prom}}
}

func scanRating(row pgx.Row) (rating.Rating, error) {
	var r rating.Rating
	err := row.Scan(&r.ID, &r.UserID, &r.BusinessID, &r.Value, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func (r *RatingsRepo) Create(ctx context.Context, rt rating.Rating) (rating.Rating, error) {
	err := r.observe("ratings.create", func() error {
		_, err := r.db.Exec(ctx,
			`INSERT INTO ratings (`+ratingColumns+`) VALUES ($1,$2,$3,$4,$5,$6)`,
			rt.ID, rt.UserID, rt.BusinessID, rt.Value, rt.CreatedAt, rt.UpdatedAt,
		)
		return err
	})

	if err != nil {
		if constraint, ok := uniqueViolation(err); ok && constraint == "ratings_user_business_key" {
			return rating.Rating{}, rating.ErrAlreadyRated
		}
		return rating.Rating{}, mapAuthoredFK(err)
	}
	return rt, nil
}

func (r *RatingsRepo) GetByID(ctx context.Context, id string) (rating.Rating, error) {
	var rt rating.Rating

	err := r.observe("ratings.get_by_id", func() error {
		var err error
		rt, err = scanRating(r.db.QueryRow(ctx, `SELECT `+ratingColumns+` FROM ratings WHERE id = $1`, id))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return rating.Rating{}, rating.ErrNotFound
		}
		return rating.Rating{}, err
	}
	return rt, nil
}

func (r *RatingsRepo) Update(ctx context.Context, id string, value int) (rating.Rating, error) {
	var rt rating.Rating

	err := r.observe("ratings.update", func() error {
		var err error
		rt, err = scanRating(r.db.QueryRow(ctx,
			`UPDATE ratings SET value = $2, updated_at = NOW()
			WHERE id = $1
			RETURNING `+ratingColumns,
			id, value,
		))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return rating.Rating{}, rating.ErrNotFound
		}
		return rating.Rating{}, err
	}
	return rt, nil
}

func (r *RatingsRepo) Delete(ctx context.Context, id string) error {
	var affected int64

	err := r.observe("ratings.delete", func() error {
		tag, err := r.db.Exec(ctx, `DELETE FROM ratings WHERE id = $1`, id)
		affected = tag.RowsAffected()
		return err
	})

	if err != nil {
		return err
	}
	if affected == 0 {
		return rating.ErrNotFound
	}
	return nil
}

func (r *RatingsRepo) ListByBusiness(ctx context.Context, businessID string) ([]rating.Rating, error) {
	out := []rating.Rating{}

	err := r.observe("ratings.list_by_business", func() error {
		rows, err := r.db.Query(ctx,
			`SELECT `+ratingColumns+` FROM ratings WHERE business_id = $1 ORDER BY created_at, id`,
			businessID,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			rt, err := scanRating(rows)
			if err != nil {
				return err
			}
			out = append(out, rt)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}
