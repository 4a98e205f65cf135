package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/yabe12/bizdir/internal/domain/category"
	"github.com/yabe12/bizdir/internal/observability"
)

type CategoriesRepo struct {
	db DBTX
	observer
}

func NewCategoriesRepo(db DBTX, prom *observability.Prom) *CategoriesRepo {
	return &CategoriesRepo{db: db, observer: observer{prom: prom}}
}

func (r *CategoriesRepo) List(ctx context.Context) ([]category.Category, error) {
	out := []category.Category{}

	err := r.observe("categories.list", func() error {
		rows, err := r.db.Query(ctx, `SELECT id, name, created_at FROM categories ORDER BY name`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var c category.Category
			if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
				return err
			}
			out = append(out, c)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *CategoriesRepo) GetByID(ctx context.Context, id string) (category.Category, error) {
	var c category.Category

	err := r.observe("categories.get_by_id", func() error {
		return r.db.QueryRow(ctx,
			`SELECT id, name, created_at FROM categories WHERE id = $1`, id,
		).Scan(&c.ID, &c.Name, &c.CreatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return category.Category{}, category.ErrNotFound
		}
		return category.Category{}, err
	}
	return c, nil
}
