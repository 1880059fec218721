package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const summarySelect = `
SELECT i.id, i.name, i.sku, i.price, c.name,
       p.id, p.quantity, l.center_name, l.zone, l.bin_code
FROM inventory_positions p
JOIN items i ON i.id = p.item_id
JOIN categories c ON c.id = i.category_id
JOIN locations l ON l.id = p.location_id`

const summaryCount = `
SELECT COUNT(*)
FROM inventory_positions p
JOIN items i ON i.id = p.item_id
JOIN categories c ON c.id = i.category_id
JOIN locations l ON l.id = p.location_id`

func summaryWhere(f SummaryFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Name != "" {
		add("i.name ILIKE '%%' || $%d || '%%'", f.Name)
	}
	if f.SKU != "" {
		add("i.sku = $%d", f.SKU)
	}
	if f.CategoryID > 0 {
		add("i.category_id = $%d", f.CategoryID)
	}
	if f.CenterName != "" {
		add("l.center_name = $%d", f.CenterName)
	}
	if f.Zone != "" {
		add("l.zone = $%d", f.Zone)
	}
	if f.BinCode != "" {
		add("l.bin_code = $%d", f.BinCode)
	}
	if f.MinQuantity != nil {
		add("p.quantity >= $%d", *f.MinQuantity)
	}
	if f.MinPrice != nil {
		add("i.price >= $%d", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		add("i.price <= $%d", *f.MaxPrice)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// SearchSummaries returns the requested page of summary rows. Rows are
// ordered by item name then position id so paging is stable.
func (r *Repository) SearchSummaries(ctx context.Context, f SummaryFilter) ([]Summary, error) {
	where, args := summaryWhere(f)

	query := summarySelect + where +
		fmt.Sprintf(" ORDER BY i.name ASC, p.id ASC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, f.PerPage, (f.Page-1)*f.PerPage)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search summaries: %w", err)
	}
	defer rows.Close()

	summaries := make([]Summary, 0, f.PerPage)
	for rows.Next() {
		var s Summary
		if err := rows.Scan(
			&s.ItemID, &s.ItemName, &s.SKU, &s.Price, &s.CategoryName,
			&s.InventoryID, &s.Quantity, &s.CenterName, &s.Zone, &s.BinCode,
		); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

func (r *Repository) CountSummaries(ctx context.Context, f SummaryFilter) (int, error) {
	where, args := summaryWhere(f)

	var total int
	if err := r.pool.QueryRow(ctx, summaryCount+where, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count summaries: %w", err)
	}
	return total, nil
}
