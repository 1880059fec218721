package ledger

import (
	"errors"
	"fmt"
	"time"
)

// TransactionType enumerates ledger transaction kinds.
type TransactionType string

const (
	// TransactionTypeInbound is reserved for the external receiving collaborator.
	TransactionTypeInbound TransactionType = "INBOUND"
	// TransactionTypeOutbound is reserved for the external shipping collaborator.
	TransactionTypeOutbound TransactionType = "OUTBOUND"
	// TransactionTypeMovement records a transfer between two bins.
	TransactionTypeMovement TransactionType = "MOVEMENT"
	// TransactionTypeAdjustment records a signed correction to one position.
	TransactionTypeAdjustment TransactionType = "ADJUSTMENT"
)

// Position is the current quantity of one item in one bin location.
// Rows are created on first movement-in and never deleted; quantity may
// reach zero but never goes negative.
type Position struct {
	ID         int64     `json:"id"`
	ItemID     int64     `json:"itemId"`
	LocationID int64     `json:"binLocationId"`
	Quantity   int64     `json:"quantity"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// TransactionRecord is one immutable entry of the audit trail. Every
// successful mutation of a position quantity appends exactly one record.
// MOVEMENT carries both locations and a positive magnitude; ADJUSTMENT
// carries neither location and a signed quantity.
type TransactionRecord struct {
	ID             int64           `json:"id"`
	Type           TransactionType `json:"type"`
	ItemID         int64           `json:"itemId"`
	FromLocationID *int64          `json:"fromBinLocationId"`
	ToLocationID   *int64          `json:"toBinLocationId"`
	Quantity       int64           `json:"quantity"`
	OccurredAt     time.Time       `json:"occurredAt"`
	UserID         int64           `json:"userId"`
	Notes          string          `json:"notes,omitempty"`
}

// MoveInput describes a transfer of quantity between two bins for one item.
type MoveInput struct {
	ItemID         int64
	FromLocationID int64
	ToLocationID   int64
	Quantity       int64
	Notes          string
	ActorID        int64
	IdempotencyKey string
}

// AdjustInput describes a signed correction to one inventory position.
type AdjustInput struct {
	PositionID     int64
	Delta          int64
	Notes          string
	ActorID        int64
	IdempotencyKey string
}

// ErrValidation indicates a malformed request.
var ErrValidation = errors.New("ledger: validation failed")

// ErrInvalidRoute indicates identical source/destination or an inactive bin.
var ErrInvalidRoute = errors.New("ledger: invalid route")

// ErrPositionNotFound indicates an unknown inventory position.
var ErrPositionNotFound = errors.New("ledger: position not found")

// ErrInsufficientStock indicates the mutation would drive a quantity negative.
var ErrInsufficientStock = errors.New("ledger: insufficient stock")

// ErrConcurrencyConflict indicates two operations raced on the same position.
// Safe to retry a bounded number of times.
var ErrConcurrencyConflict = errors.New("ledger: concurrency conflict")

// InsufficientStockError reports current versus requested quantities so the
// caller can correct the request.
type InsufficientStockError struct {
	Current   int64
	Requested int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("ledger: insufficient stock: have %d, need %d", e.Current, e.Requested)
}

// Unwrap lets errors.Is match ErrInsufficientStock.
func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}
