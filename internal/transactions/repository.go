package transactions

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

const historySelect = `
SELECT t.id, t.item_id, i.name, i.sku,
       lf.bin_code, lf.center_name, lt.bin_code, lt.center_name,
       t.type, t.quantity, t.occurred_at,
       t.user_id, u.username, t.notes
FROM ledger_transactions t
JOIN items i ON i.id = t.item_id
LEFT JOIN locations lf ON lf.id = t.from_location_id
LEFT JOIN locations lt ON lt.id = t.to_location_id
LEFT JOIN users u ON u.id = t.user_id`

const historyCount = `
SELECT COUNT(*)
FROM ledger_transactions t
JOIN items i ON i.id = t.item_id
LEFT JOIN locations lf ON lf.id = t.from_location_id
LEFT JOIN locations lt ON lt.id = t.to_location_id
LEFT JOIN users u ON u.id = t.user_id`

func historyWhere(f HistoryFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Type != "" {
		add("t.type = $%d", f.Type)
	}
	if f.ItemSKU != "" {
		add("i.sku = $%d", f.ItemSKU)
	}
	if f.Username != "" {
		add("u.username = $%d", f.Username)
	}
	if f.FromBinCode != "" {
		add("lf.bin_code = $%d", f.FromBinCode)
	}
	if f.ToBinCode != "" {
		add("lt.bin_code = $%d", f.ToBinCode)
	}
	if f.StartDate != nil {
		add("t.occurred_at >= $%d", *f.StartDate)
	}
	if f.EndDate != nil {
		add("t.occurred_at <= $%d", *f.EndDate)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// SearchHistory returns the requested page ordered newest first, id as
// the tie-break so paging stays deterministic within one timestamp.
func (r *Repository) SearchHistory(ctx context.Context, f HistoryFilter) ([]HistoryEntry, error) {
	where, args := historyWhere(f)

	query := historySelect + where +
		fmt.Sprintf(" ORDER BY t.occurred_at DESC, t.id DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, f.PerPage, (f.Page-1)*f.PerPage)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search history: %w", err)
	}
	defer rows.Close()

	entries := make([]HistoryEntry, 0, f.PerPage)
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(
			&e.TransactionID, &e.ItemID, &e.ItemName, &e.ItemSKU,
			&e.FromBinCode, &e.FromCenterName, &e.ToBinCode, &e.ToCenterName,
			&e.Type, &e.Quantity, &e.OccurredAt,
			&e.UserID, &e.Username, &e.Notes,
		); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *Repository) CountHistory(ctx context.Context, f HistoryFilter) (int, error) {
	where, args := historyWhere(f)

	var total int
	if err := r.pool.QueryRow(ctx, historyCount+where, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count history: %w", err)
	}
	return total, nil
}
