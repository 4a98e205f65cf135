package postgres

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yabe12/bizdir/internal/domain/business"
	"github.com/yabe12/bizdir/internal/domain/category"
	"github.com/yabe12/bizdir/internal/observability"
	"github.com/yabe12/bizdir/internal/utils"
)

const businessSelect = `SELECT b.id, b.owner_id, b.category_id, b.name, b.email, b.address, b.phone,
	b.website_url, b.latitude, b.longitude, b.opening_time, b.closing_time, b.license_number,
	b.created_at, b.updated_at, c.id, c.name, c.created_at
FROM businesses b
JOIN categories c ON c.id = b.category_id`

type BusinessesRepo struct {
	db DBTX
	observer
}

func NewBusinessesRepo(db DBTX, prom *observability.Prom) *BusinessesRepo {
	return &BusinessesRepo{db: db, observer: observer{prom: prom}}
}

func scanBusiness(row pgx.Row) (business.Business, error) {
	var b business.Business
	var c category.Category

	err := row.Scan(
		&b.ID, &b.OwnerID, &b.CategoryID, &b.Name, &b.Email, &b.Address, &b.Phone,
		&b.WebsiteURL, &b.Latitude, &b.Longitude, &b.OpeningTime, &b.ClosingTime, &b.LicenseNumber,
		&b.CreatedAt, &b.UpdatedAt, &c.ID, &c.Name, &c.CreatedAt,
	)
	if err != nil {
		return business.Business{}, err
	}

	b.Category = &c
	b.Services = []string{}
	return b, nil
}

func (r *BusinessesRepo) Create(ctx context.Context, b business.Business) (business.Business, error) {
	err := r.observe("businesses.create", func() error {
		return inTx(ctx, r.db, func(tx pgx.Tx) error {
			_, err := tx.Exec(ctx,
				`INSERT INTO businesses (id, owner_id, category_id, name, email, address, phone,
					website_url, latitude, longitude, opening_time, closing_time, license_number,
					created_at, updated_at)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
				b.ID, b.OwnerID, b.CategoryID, b.Name, b.Email, b.Address, b.Phone,
				b.WebsiteURL, b.Latitude, b.Longitude, b.OpeningTime, b.ClosingTime, b.LicenseNumber,
				b.CreatedAt, b.UpdatedAt,
			)
			if err != nil {
				return err
			}
			return insertServices(ctx, tx, b.ID, b.Services)
		})
	})

	if err != nil {
		return business.Business{}, mapBusinessFK(err)
	}
	return b, nil
}

func insertServices(ctx context.Context, tx pgx.Tx, businessID string, services []string) error {
	for _, name := range services {
		_, err := tx.Exec(ctx,
			`INSERT INTO business_services (id, business_id, name) VALUES ($1,$2,$3)`,
			uuid.NewString(), businessID, name,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *BusinessesRepo) GetByID(ctx context.Context, id string) (business.Business, error) {
	var b business.Business

	err := r.observe("businesses.get_by_id", func() error {
		var err error
		b, err = scanBusiness(r.db.QueryRow(ctx, businessSelect+` WHERE b.id = $1`, id))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return business.Business{}, business.ErrNotFound
		}
		return business.Business{}, err
	}

	list := []business.Business{b}
	if err := r.attachServices(ctx, list); err != nil {
		return business.Business{}, err
	}
	return list[0], nil
}

// ListCursor returns up to limit businesses ordered by (created_at, id)
// strictly after the cursor, plus the cursor of the next page.
func (r *BusinessesRepo) ListCursor(ctx context.Context, limit int, after *utils.BusinessCursor) ([]business.Business, *string, bool, error) {
	if limit <= 0 {
		limit = 20
	}

	sql := businessSelect
	args := []any{}

	if after != nil {
		sql += ` WHERE (b.created_at, b.id) > ($1, $2::uuid)`
		args = append(args, after.CreatedAt, after.ID)
	}

	// one extra row tells us whether there is a next page
	args = append(args, limit+1)
	sql += ` ORDER BY b.created_at, b.id LIMIT $` + strconv.Itoa(len(args))

	items, err := r.queryMany(ctx, "businesses.list_cursor", sql, args...)
	if err != nil {
		return nil, nil, false, err
	}

	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}

	var next *string
	if hasMore && len(items) > 0 {
		last := items[len(items)-1]
		c, err := utils.EncodeBusinessCursor(last.CreatedAt, last.ID)
		if err != nil {
			return nil, nil, false, err
		}
		next = &c
	}

	return items, next, hasMore, nil
}

func (r *BusinessesRepo) ListByCategory(ctx context.Context, categoryID string) ([]business.Business, error) {
	return r.queryMany(ctx, "businesses.list_by_category",
		businessSelect+` WHERE b.category_id = $1 ORDER BY b.created_at, b.id`, categoryID)
}

// Search matches case-insensitive substrings on name, address and service names.
func (r *BusinessesRepo) Search(ctx context.Context, f business.SearchFilter) ([]business.Business, error) {
	where := []string{}
	args := []any{}

	add := func(cond, value string) {
		args = append(args, "%"+escapeLike(value)+"%")
		where = append(where, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(args))))
	}

	if f.Name != "" {
		add(`b.name ILIKE ?`, f.Name)
	}
	if f.Address != "" {
		add(`b.address ILIKE ?`, f.Address)
	}
	if f.Service != "" {
		add(`EXISTS (SELECT 1 FROM business_services s WHERE s.business_id = b.id AND s.name ILIKE ?)`, f.Service)
	}

	sql := businessSelect
	if len(where) > 0 {
		sql += ` WHERE ` + strings.Join(where, " AND ")
	}
	sql += ` ORDER BY b.name, b.id LIMIT 100`

	return r.queryMany(ctx, "businesses.search", sql, args...)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *BusinessesRepo) queryMany(ctx context.Context, op, sql string, args ...any) ([]business.Business, error) {
	out := []business.Business{}

	err := r.observe(op, func() error {
		rows, err := r.db.Query(ctx, sql, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			b, err := scanBusiness(rows)
			if err != nil {
				return err
			}
			out = append(out, b)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	if err := r.attachServices(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *BusinessesRepo) attachServices(ctx context.Context, items []business.Business) error {
	if len(items) == 0 {
		return nil
	}

	ids := make([]string, len(items))
	index := make(map[string]int, len(items))
	for i, b := range items {
		ids[i] = b.ID
		index[b.ID] = i
	}

	return r.observe("businesses.services", func() error {
		rows, err := r.db.Query(ctx,
			`SELECT business_id, name FROM business_services
			WHERE business_id = ANY($1::uuid[])
			ORDER BY name`,
			ids,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var businessID, name string
			if err := rows.Scan(&businessID, &name); err != nil {
				return err
			}
			if i, ok := index[businessID]; ok {
				items[i].Services = append(items[i].Services, name)
			}
		}
		return rows.Err()
	})
}

func (r *BusinessesRepo) Update(ctx context.Context, id string, req business.UpdateBusinessRequest) (business.Business, error) {
	err := r.observe("businesses.update", func() error {
		return inTx(ctx, r.db, func(tx pgx.Tx) error {
			tag, err := tx.Exec(ctx,
				`UPDATE businesses
				SET name = COALESCE($2::text, name),
					email = COALESCE($3::text, email),
					category_id = COALESCE($4::uuid, category_id),
					address = COALESCE($5::text, address),
					phone = COALESCE($6::text, phone),
					website_url = COALESCE($7::text, website_url),
					latitude = COALESCE($8::double precision, latitude),
					longitude = COALESCE($9::double precision, longitude),
					opening_time = COALESCE($10::text, opening_time),
					closing_time = COALESCE($11::text, closing_time),
					license_number = COALESCE($12::bigint, license_number),
					updated_at = NOW()
				WHERE id = $1`,
				id, req.Name, req.Email, req.CategoryID, req.Address, req.Phone, req.WebsiteURL,
				req.Latitude, req.Longitude, req.OpeningTime, req.ClosingTime, req.LicenseNumber,
			)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				return business.ErrNotFound
			}

			if req.Services == nil {
				return nil
			}
			if _, err := tx.Exec(ctx, `DELETE FROM business_services WHERE business_id = $1`, id); err != nil {
				return err
			}
			return insertServices(ctx, tx, id, *req.Services)
		})
	})

	if err != nil {
		return business.Business{}, mapBusinessFK(err)
	}

	return r.GetByID(ctx, id)
}

func (r *BusinessesRepo) Delete(ctx context.Context, id string) error {
	var affected int64

	err := r.observe("businesses.delete", func() error {
		tag, err := r.db.Exec(ctx, `DELETE FROM businesses WHERE id = $1`, id)
		affected = tag.RowsAffected()
		return err
	})

	if err != nil {
		return err
	}
	if affected == 0 {
		return business.ErrNotFound
	}
	return nil
}

func mapBusinessFK(err error) error {
	constraint, ok := foreignKeyViolation(err)
	if !ok {
		return err
	}
	if constraint == "businesses_category_id_fkey" {
		return business.ErrInvalidCategory
	}
	return err
}
