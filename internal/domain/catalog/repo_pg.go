package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dentaldesk/clinic/internal/platform/apperr"
	"github.com/dentaldesk/clinic/internal/platform/db"
)

type catalogRepoPG struct{ pool *pgxpool.Pool }

func NewCatalogRepoPG(pool *pgxpool.Pool) Repository {
	return &catalogRepoPG{pool: pool}
}

const itemCols = `id, kind, name, description, price, is_active, created_at`

func (r *catalogRepoPG) scanRow(row pgx.Row) (*Item, error) {
	var it Item
	err := row.Scan(&it.ID, &it.Kind, &it.Name, &it.Description, &it.Price, &it.IsActive, &it.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	return &it, err
}

func (r *catalogRepoPG) GetByID(ctx context.Context, kind Kind, id string) (*Item, error) {
	it, err := r.scanRow(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+itemCols+` FROM catalog_item WHERE kind = $1 AND id = $2`, kind, id))
	if err != nil {
		return nil, apperr.Storage(fmt.Sprintf("get %s %s", kind, id), err)
	}
	return it, nil
}

func (r *catalogRepoPG) List(ctx context.Context, kind Kind, limit, offset int) ([]*Item, int, error) {
	q := db.Conn(ctx, r.pool)
	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM catalog_item WHERE kind = $1`, kind).Scan(&total); err != nil {
		return nil, 0, apperr.Storage("count catalog", err)
	}
	// Numeric ids sort numerically, anything else after them.
	rows, err := q.Query(ctx, `SELECT `+itemCols+` FROM catalog_item WHERE kind = $1
		ORDER BY (id ~ '^[0-9]+$') DESC, CASE WHEN id ~ '^[0-9]+$' THEN id::bigint END, id
		LIMIT $2 OFFSET $3`, kind, limit, offset)
	if err != nil {
		return nil, 0, apperr.Storage("list catalog", err)
	}
	defer rows.Close()
	var items []*Item
	for rows.Next() {
		it, err := r.scanRow(rows)
		if err != nil {
			return nil, 0, apperr.Storage("scan catalog item", err)
		}
		items = append(items, it)
	}
	return items, total, apperr.Storage("list catalog", rows.Err())
}

func (r *catalogRepoPG) Save(ctx context.Context, item *Item) error {
	q := db.Conn(ctx, r.pool)
	if item.ID == "" {
		err := q.QueryRow(ctx, `
			INSERT INTO catalog_item (kind, id, name, description, price, is_active)
			VALUES ($1,
				(SELECT (COALESCE(MAX(id::bigint), 0) + 1)::text FROM catalog_item WHERE kind = $1 AND id ~ '^[0-9]+$'),
				$2, $3, $4, $5)
			RETURNING id, created_at`,
			item.Kind, item.Name, item.Description, item.Price, item.IsActive,
		).Scan(&item.ID, &item.CreatedAt)
		return apperr.Storage("insert catalog item", err)
	}

	tag, err := q.Exec(ctx, `
		UPDATE catalog_item SET name=$3, description=$4, price=$5, is_active=$6, updated_at=NOW()
		WHERE kind = $1 AND id = $2`,
		item.Kind, item.ID, item.Name, item.Description, item.Price, item.IsActive)
	if err != nil {
		return apperr.Storage("update catalog item", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %s: %w", item.Kind, item.ID, apperr.ErrNotFound)
	}
	return nil
}

// Upsert writes a predefined item with a fixed id; used by the seed command.
func Upsert(ctx context.Context, pool *pgxpool.Pool, item Item) error {
	_, err := db.Conn(ctx, pool).Exec(ctx, `
		INSERT INTO catalog_item (kind, id, name, description, price, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (kind, id) DO UPDATE SET name = EXCLUDED.name, price = EXCLUDED.price,
			description = EXCLUDED.description, is_active = EXCLUDED.is_active, updated_at = NOW()`,
		item.Kind, item.ID, item.Name, item.Description, item.Price, item.IsActive)
	return err
}
