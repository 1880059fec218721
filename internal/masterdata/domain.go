package masterdata

import (
	"errors"
	"time"
)

// Item represents an item master record. Item lifecycle is owned by the
// master-data service; this module only reads it.
type Item struct {
	ID          int64     `json:"id"`
	SKU         string    `json:"sku"`
	Name        string    `json:"name"`
	Price       int64     `json:"price"`
	CategoryID  int64     `json:"categoryId"`
	SafetyStock int64     `json:"safetyStock"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Location represents a bin location within a center/zone.
type Location struct {
	ID         int64     `json:"id"`
	CenterName string    `json:"centerName"`
	Zone       string    `json:"zone"`
	BinCode    string    `json:"binCode"`
	IsActive   bool      `json:"isActive"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ErrItemNotFound indicates an unknown item id.
var ErrItemNotFound = errors.New("masterdata: item not found")

// ErrLocationNotFound indicates an unknown location id or bin code.
var ErrLocationNotFound = errors.New("masterdata: location not found")
