package ledger

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists ledger data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by the service. All
// methods run inside the repeatable-read transaction opened by WithTx, so a
// position update and its transaction record commit or roll back together.
type TxRepository interface {
	GetPositionForUpdate(ctx context.Context, itemID, locationID int64) (Position, error)
	GetPositionByIDForUpdate(ctx context.Context, positionID int64) (Position, error)
	UpsertPosition(ctx context.Context, itemID, locationID, quantity int64) (Position, error)
	SetQuantity(ctx context.Context, positionID, quantity int64) error
	InsertTransaction(ctx context.Context, record TransactionRecord) (int64, error)
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
// Serialization failures and deadlocks surface as ErrConcurrencyConflict.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("ledger repository not initialised")
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	wrapper := &txRepository{tx: tx}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return mapConflict(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return mapConflict(err)
	}
	return nil
}

// GetPosition reads the committed position outside any write transaction.
// Unknown positions report zero quantity.
func (r *Repository) GetPosition(ctx context.Context, itemID, locationID int64) (Position, error) {
	var pos Position
	err := r.pool.QueryRow(ctx, `SELECT id, item_id, location_id, quantity, updated_at
FROM inventory_positions WHERE item_id=$1 AND location_id=$2`, itemID, locationID).
		Scan(&pos.ID, &pos.ItemID, &pos.LocationID, &pos.Quantity, &pos.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Position{ItemID: itemID, LocationID: locationID}, nil
		}
		return Position{}, err
	}
	return pos, nil
}

func (r *txRepository) GetPositionForUpdate(ctx context.Context, itemID, locationID int64) (Position, error) {
	return scanPositionForUpdate(ctx, r.tx, `SELECT id, item_id, location_id, quantity, updated_at
FROM inventory_positions WHERE item_id=$1 AND location_id=$2 FOR UPDATE`, itemID, locationID)
}

func (r *txRepository) GetPositionByIDForUpdate(ctx context.Context, positionID int64) (Position, error) {
	return scanPositionForUpdate(ctx, r.tx, `SELECT id, item_id, location_id, quantity, updated_at
FROM inventory_positions WHERE id=$1 FOR UPDATE`, positionID)
}

func (r *txRepository) UpsertPosition(ctx context.Context, itemID, locationID, quantity int64) (Position, error) {
	var pos Position
	err := r.tx.QueryRow(ctx, `INSERT INTO inventory_positions (item_id, location_id, quantity, updated_at)
VALUES ($1,$2,$3,NOW())
ON CONFLICT (item_id, location_id) DO UPDATE SET quantity=EXCLUDED.quantity, updated_at=NOW()
RETURNING id, item_id, location_id, quantity, updated_at`, itemID, locationID, quantity).
		Scan(&pos.ID, &pos.ItemID, &pos.LocationID, &pos.Quantity, &pos.UpdatedAt)
	if err != nil {
		return Position{}, err
	}
	return pos, nil
}

func (r *txRepository) SetQuantity(ctx context.Context, positionID, quantity int64) error {
	tag, err := r.tx.Exec(ctx, `UPDATE inventory_positions SET quantity=$2, updated_at=NOW() WHERE id=$1`, positionID, quantity)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPositionNotFound
	}
	return nil
}

func (r *txRepository) InsertTransaction(ctx context.Context, record TransactionRecord) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO ledger_transactions (type, item_id, from_location_id, to_location_id, quantity, occurred_at, user_id, notes)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id`,
		string(record.Type), record.ItemID, record.FromLocationID, record.ToLocationID,
		record.Quantity, record.OccurredAt, record.UserID, record.Notes).Scan(&id)
	return id, err
}

func scanPositionForUpdate(ctx context.Context, tx pgx.Tx, query string, args ...any) (Position, error) {
	var pos Position
	err := tx.QueryRow(ctx, query, args...).
		Scan(&pos.ID, &pos.ItemID, &pos.LocationID, &pos.Quantity, &pos.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Position{}, ErrPositionNotFound
		}
		return Position{}, err
	}
	return pos, nil
}

// mapConflict translates retryable PostgreSQL failures. Unique violations on
// the position key mean two writers raced to create the same position.
func mapConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01":
			return ErrConcurrencyConflict
		case "23505":
			if pgErr.ConstraintName == "inventory_positions_item_id_location_id_key" {
				return ErrConcurrencyConflict
			}
		}
	}
	return err
}
