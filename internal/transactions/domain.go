package transactions

import (
	"errors"
	"time"

	"github.com/stockflow/stockflow/internal/shared"
)

// HistoryEntry is one ledger transaction joined with item, location and
// user master data for display.
type HistoryEntry struct {
	TransactionID int64  `json:"transactionId"`
	ItemID        int64  `json:"itemId"`
	ItemName      string `json:"itemName"`
	ItemSKU       string `json:"itemSku"`

	FromBinCode    *string `json:"fromBinCode"`
	FromCenterName *string `json:"fromCenterName"`
	ToBinCode      *string `json:"toBinCode"`
	ToCenterName   *string `json:"toCenterName"`

	Type       string    `json:"type"`
	Quantity   int64     `json:"quantity"`
	OccurredAt time.Time `json:"occurredAt"`

	UserID   *int64  `json:"userId"`
	Username *string `json:"username"`
	Notes    string  `json:"notes"`
}

// HistoryFilter narrows the transaction history. Date bounds are
// inclusive on both ends.
type HistoryFilter struct {
	Type        string
	ItemSKU     string
	Username    string
	FromBinCode string
	ToBinCode   string
	StartDate   *time.Time
	EndDate     *time.Time

	Page    int
	PerPage int
}

// HistoryPage is a page of history entries, newest first.
type HistoryPage struct {
	Entries    []HistoryEntry    `json:"entries"`
	Pagination shared.Pagination `json:"pagination"`
}

var (
	// ErrInvalidFilter indicates an unusable filter combination.
	ErrInvalidFilter = errors.New("transactions: invalid filter")
)
