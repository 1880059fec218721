package inventory

import (
	"errors"

	"github.com/stockflow/stockflow/internal/shared"
)

// Summary is one row of the inventory status view: a position joined with
// its item and bin location master data.
type Summary struct {
	ItemID       int64  `json:"itemId"`
	ItemName     string `json:"itemName"`
	SKU          string `json:"sku"`
	Price        int64  `json:"price"`
	CategoryName string `json:"categoryName"`

	InventoryID int64  `json:"inventoryId"`
	Quantity    int64  `json:"quantity"`
	CenterName  string `json:"centerName"`
	Zone        string `json:"zoneCode"`
	BinCode     string `json:"binCode"`
}

// SummaryFilter narrows the inventory status view.
type SummaryFilter struct {
	Name        string
	SKU         string
	CategoryID  int64
	CenterName  string
	Zone        string
	BinCode     string
	MinQuantity *int64
	MinPrice    *int64
	MaxPrice    *int64

	Page    int
	PerPage int
}

// SummaryPage is a deterministic page of summary rows.
type SummaryPage struct {
	Items      []Summary         `json:"items"`
	Pagination shared.Pagination `json:"pagination"`
}

// ErrInvalidFilter indicates an unusable filter combination.
var ErrInvalidFilter = errors.New("inventory: invalid filter")
