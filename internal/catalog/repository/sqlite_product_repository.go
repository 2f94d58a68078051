// Package repository provides data persistence for the mirrored catalog and
// the pull watermark.
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/allisson/possync/internal/catalog/domain"
	"github.com/allisson/possync/internal/database"
	apperrors "github.com/allisson/possync/internal/errors"
)

// watermarkKey is the sync_state row holding the catalog pull watermark.
const watermarkKey = "catalog:last_sync_at"

// SQLiteProductRepository handles product persistence in the local store.
type SQLiteProductRepository struct {
	db *sql.DB
}

// NewSQLiteProductRepository creates a new SQLiteProductRepository.
func NewSQLiteProductRepository(db *sql.DB) *SQLiteProductRepository {
	return &SQLiteProductRepository{
		db: db,
	}
}

// Upsert writes a batch of products, inserting new rows and replacing changed
// ones by server id.
func (r *SQLiteProductRepository) Upsert(ctx context.Context, workspaceID string, products []*domain.Product) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO products (id, workspace_id, name, sku, price_cents, active, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?)
			  ON CONFLICT (id) DO UPDATE SET
			    name = excluded.name,
			    sku = excluded.sku,
			    price_cents = excluded.price_cents,
			    active = excluded.active,
			    updated_at = excluded.updated_at`

	for _, product := range products {
		_, err := querier.ExecContext(ctx, query, product.ID, workspaceID, product.Name,
			product.SKU, product.PriceCents, boolToInt(product.Active), product.UpdatedAt)
		if err != nil {
			return apperrors.Wrap(err, "failed to upsert product")
		}
	}

	return nil
}

// DeleteAll wipes the workspace's mirrored products. Used by a reset pull
// before the full refetch so delisted items do not linger.
func (r *SQLiteProductRepository) DeleteAll(ctx context.Context, workspaceID string) error {
	querier := database.GetTx(ctx, r.db)

	_, err := querier.ExecContext(ctx, `DELETE FROM products WHERE workspace_id = ?`, workspaceID)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete products")
	}

	return nil
}

// List returns the workspace's products ordered by name. With activeOnly set,
// discontinued items are filtered out.
func (r *SQLiteProductRepository) List(ctx context.Context, workspaceID string, activeOnly bool) ([]*domain.Product, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, workspace_id, name, sku, price_cents, active, updated_at
			  FROM products
			  WHERE workspace_id = ?`
	if activeOnly {
		query += ` AND active = 1`
	}
	query += ` ORDER BY name ASC, id ASC`

	rows, err := querier.QueryContext(ctx, query, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var products []*domain.Product
	for rows.Next() {
		var product domain.Product
		var active int

		err := rows.Scan(&product.ID, &product.WorkspaceID, &product.Name, &product.SKU,
			&product.PriceCents, &active, &product.UpdatedAt)
		if err != nil {
			return nil, err
		}
		product.Active = active != 0
		products = append(products, &product)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

// Watermark returns the time of the last completed pull, or nil before the
// first one.
func (r *SQLiteProductRepository) Watermark(ctx context.Context) (*time.Time, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT value FROM sync_state WHERE key = ?`

	var value string
	err := querier.QueryRowContext(ctx, query, watermarkKey).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	watermark, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to parse catalog watermark")
	}

	return &watermark, nil
}

// SetWatermark advances the pull watermark. Written only after every page of
// a pull has been applied, so an interrupted pull repeats instead of skipping.
func (r *SQLiteProductRepository) SetWatermark(ctx context.Context, watermark time.Time) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO sync_state (key, value, updated_at)
			  VALUES (?, ?, ?)
			  ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

	_, err := querier.ExecContext(ctx, query, watermarkKey,
		watermark.UTC().Format(time.RFC3339Nano), time.Now().UTC())

	return err
}

// ClearWatermark forgets the watermark so the next pull fetches everything.
func (r *SQLiteProductRepository) ClearWatermark(ctx context.Context) error {
	querier := database.GetTx(ctx, r.db)

	_, err := querier.ExecContext(ctx, `DELETE FROM sync_state WHERE key = ?`, watermarkKey)

	return err
}

// boolToInt converts for SQLite's integer booleans.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
