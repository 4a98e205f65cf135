package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/yabe12/bizdir/internal/domain/category"
)

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// SeedCategories inserts any of names that are not present yet and returns
// how many rows were added. Running it twice is a no-op.
func SeedCategories(ctx context.Context, db execer, names []string) (int, error) {
	if names == nil {
		names = category.Defaults
	}

	added := 0
	now := time.Now().UTC()

	for _, name := range names {
		tag, err := db.Exec(ctx,
			`INSERT INTO categories (id, name, created_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (name) DO NOTHING`,
			uuid.NewString(), name, now,
		)
		if err != nil {
			return added, oops.Code("SEED_CATEGORY_FAILED").With("category", name).Wrap(err)
		}
		added += int(tag.RowsAffected())
	}

	return added, nil
}
