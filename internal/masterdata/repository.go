package masterdata

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads item and location master data from PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetItem loads one item by id.
func (r *Repository) GetItem(ctx context.Context, id int64) (Item, error) {
	var item Item
	err := r.pool.QueryRow(ctx, `SELECT id, sku, name, price, category_id, safety_stock, created_at
FROM items WHERE id=$1`, id).
		Scan(&item.ID, &item.SKU, &item.Name, &item.Price, &item.CategoryID, &item.SafetyStock, &item.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, ErrItemNotFound
		}
		return Item{}, err
	}
	return item, nil
}

// GetLocation loads one bin location by id.
func (r *Repository) GetLocation(ctx context.Context, id int64) (Location, error) {
	return r.scanLocation(ctx, `SELECT id, center_name, zone, bin_code, is_active, created_at
FROM locations WHERE id=$1`, id)
}

// GetLocationByBinCode loads one bin location by its unique bin code.
func (r *Repository) GetLocationByBinCode(ctx context.Context, binCode string) (Location, error) {
	return r.scanLocation(ctx, `SELECT id, center_name, zone, bin_code, is_active, created_at
FROM locations WHERE bin_code=$1`, binCode)
}

func (r *Repository) scanLocation(ctx context.Context, query string, arg any) (Location, error) {
	var loc Location
	err := r.pool.QueryRow(ctx, query, arg).
		Scan(&loc.ID, &loc.CenterName, &loc.Zone, &loc.BinCode, &loc.IsActive, &loc.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Location{}, ErrLocationNotFound
		}
		return Location{}, err
	}
	return loc, nil
}
