package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stockflow/stockflow/internal/masterdata"
	"github.com/stockflow/stockflow/internal/shared"
)

// maxConflictRetries bounds retries after ErrConcurrencyConflict before the
// conflict surfaces to the caller.
const maxConflictRetries = 3

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetPosition(ctx context.Context, itemID, locationID int64) (Position, error)
}

// MasterDataPort provides read-only item and location lookups.
type MasterDataPort interface {
	GetItem(ctx context.Context, id int64) (masterdata.Item, error)
	GetLocation(ctx context.Context, id int64) (masterdata.Location, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// IdempotencyPort guards operations against duplicate request keys.
// Implemented by shared.IdempotencyStore.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// Service coordinates ledger operations. Each operation applies its position
// delta and appends exactly one transaction record inside a single repository
// transaction.
type Service struct {
	repo        RepositoryPort
	master      MasterDataPort
	audit       AuditPort
	idempotency IdempotencyPort
	events      EventHandler
}

// NewService builds Service.
func NewService(repo RepositoryPort, master MasterDataPort, audit AuditPort, idem IdempotencyPort, events EventHandler) *Service {
	return &Service{repo: repo, master: master, audit: audit, idempotency: idem, events: events}
}

// Move transfers quantity of one item between two bins, appending one
// MOVEMENT record. Either both position updates and the record are visible,
// or none of them are.
func (s *Service) Move(ctx context.Context, input MoveInput) (TransactionRecord, error) {
	if input.Quantity <= 0 {
		return TransactionRecord{}, fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}
	if input.FromLocationID == input.ToLocationID {
		return TransactionRecord{}, fmt.Errorf("%w: source and destination bin are identical", ErrInvalidRoute)
	}
	if _, err := s.master.GetItem(ctx, input.ItemID); err != nil {
		return TransactionRecord{}, err
	}
	for _, locID := range []int64{input.FromLocationID, input.ToLocationID} {
		loc, err := s.master.GetLocation(ctx, locID)
		if err != nil {
			return TransactionRecord{}, err
		}
		if !loc.IsActive {
			return TransactionRecord{}, fmt.Errorf("%w: bin %s is inactive", ErrInvalidRoute, loc.BinCode)
		}
	}

	now := time.Now().UTC()
	from := input.FromLocationID
	to := input.ToLocationID
	record := TransactionRecord{
		Type:           TransactionTypeMovement,
		ItemID:         input.ItemID,
		FromLocationID: &from,
		ToLocationID:   &to,
		Quantity:       input.Quantity,
		OccurredAt:     now,
		UserID:         input.ActorID,
		Notes:          input.Notes,
	}

	err := s.run(ctx, input.IdempotencyKey, func(ctx context.Context, tx TxRepository) error {
		src, dst, err := lockPair(ctx, tx, input.ItemID, input.FromLocationID, input.ToLocationID)
		if err != nil {
			return err
		}
		if src.Quantity < input.Quantity {
			return &InsufficientStockError{Current: src.Quantity, Requested: input.Quantity}
		}
		if err := tx.SetQuantity(ctx, src.ID, src.Quantity-input.Quantity); err != nil {
			return err
		}
		if _, err := tx.UpsertPosition(ctx, input.ItemID, input.ToLocationID, dst.Quantity+input.Quantity); err != nil {
			return err
		}
		id, err := tx.InsertTransaction(ctx, record)
		if err != nil {
			return err
		}
		record.ID = id
		return nil
	})
	if err != nil {
		return TransactionRecord{}, err
	}

	s.afterCommit(ctx, record, map[string]any{
		"from_location_id": input.FromLocationID,
		"to_location_id":   input.ToLocationID,
		"quantity":         input.Quantity,
	})
	return record, nil
}

// Adjust applies a signed delta to one position, appending one ADJUSTMENT
// record with both locations unset.
func (s *Service) Adjust(ctx context.Context, input AdjustInput) (TransactionRecord, error) {
	if input.Delta == 0 {
		return TransactionRecord{}, fmt.Errorf("%w: adjustment quantity must be non zero", ErrValidation)
	}
	if input.Notes == "" {
		return TransactionRecord{}, fmt.Errorf("%w: adjustment requires notes", ErrValidation)
	}

	record := TransactionRecord{
		Type:       TransactionTypeAdjustment,
		Quantity:   input.Delta,
		OccurredAt: time.Now().UTC(),
		UserID:     input.ActorID,
		Notes:      input.Notes,
	}

	err := s.run(ctx, input.IdempotencyKey, func(ctx context.Context, tx TxRepository) error {
		pos, err := tx.GetPositionByIDForUpdate(ctx, input.PositionID)
		if err != nil {
			return err
		}
		newQty := pos.Quantity + input.Delta
		if newQty < 0 {
			return &InsufficientStockError{Current: pos.Quantity, Requested: -input.Delta}
		}
		if err := tx.SetQuantity(ctx, pos.ID, newQty); err != nil {
			return err
		}
		record.ItemID = pos.ItemID
		id, err := tx.InsertTransaction(ctx, record)
		if err != nil {
			return err
		}
		record.ID = id
		return nil
	})
	if err != nil {
		return TransactionRecord{}, err
	}

	s.afterCommit(ctx, record, map[string]any{
		"position_id": input.PositionID,
		"delta":       input.Delta,
		"notes":       input.Notes,
	})
	return record, nil
}

// GetPosition reports the committed quantity for an item in a bin, zero when
// the position was never recorded.
func (s *Service) GetPosition(ctx context.Context, itemID, locationID int64) (Position, error) {
	if _, err := s.master.GetItem(ctx, itemID); err != nil {
		return Position{}, err
	}
	if _, err := s.master.GetLocation(ctx, locationID); err != nil {
		return Position{}, err
	}
	return s.repo.GetPosition(ctx, itemID, locationID)
}

// run executes fn inside a transaction, retrying bounded on conflicts and
// guarding the whole operation with an optional idempotency key.
func (s *Service) run(ctx context.Context, key string, fn func(context.Context, TxRepository) error) error {
	insertedKey := false
	if key != "" && s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, key, "ledger"); err != nil {
			return err
		}
		insertedKey = true
	}

	var err error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		err = s.repo.WithTx(ctx, fn)
		if !errors.Is(err, ErrConcurrencyConflict) {
			break
		}
	}
	if err != nil && insertedKey {
		_ = s.idempotency.Delete(ctx, key)
	}
	return err
}

func (s *Service) afterCommit(ctx context.Context, record TransactionRecord, meta map[string]any) {
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  record.UserID,
			Action:   fmt.Sprintf("ledger:%s", record.Type),
			Entity:   "ledger_transaction",
			EntityID: fmt.Sprintf("%d", record.ID),
			Meta:     meta,
		})
	}
	if s.events != nil {
		s.events.HandleLedgerCommitted(ctx, CommittedEvent{Record: record})
	}
}

// lockPair acquires row locks for both positions of a movement in ascending
// location-id order so opposing transfers cannot deadlock. The destination
// may not exist yet; it reports zero quantity and is created by the upsert.
func lockPair(ctx context.Context, tx TxRepository, itemID, fromID, toID int64) (src, dst Position, err error) {
	lock := func(locationID int64) (Position, error) {
		pos, err := tx.GetPositionForUpdate(ctx, itemID, locationID)
		if errors.Is(err, ErrPositionNotFound) {
			if locationID == fromID {
				return Position{}, fmt.Errorf("%w: no stock at source bin", ErrPositionNotFound)
			}
			return Position{ItemID: itemID, LocationID: locationID}, nil
		}
		return pos, err
	}

	first, second := fromID, toID
	if second < first {
		first, second = second, first
	}
	a, err := lock(first)
	if err != nil {
		return Position{}, Position{}, err
	}
	b, err := lock(second)
	if err != nil {
		return Position{}, Position{}, err
	}
	if first == fromID {
		return a, b, nil
	}
	return b, a, nil
}
