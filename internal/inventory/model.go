package inventory

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/alnoor-clinic/platform/internal/shared/types"
)

// Item is a stocked clinic supply. Low stock and expiry are derived
// states, never stored; they are computed against the current day and
// the configured expiry horizon whenever an item is read.
type Item struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Category      string          `json:"category"`
	SupplierID    *int64          `json:"supplier_id,omitempty"`
	Quantity      int             `json:"quantity"`
	Unit          string          `json:"unit"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	MinStockLevel int             `json:"min_stock_level"`
	ExpiryDate    *types.Date     `json:"expiry_date,omitempty"`
	Notes         string          `json:"notes"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// LowStock reports whether the item is at or below its minimum level
func (i *Item) LowStock() bool {
	return i.Quantity <= i.MinStockLevel
}

// Expired reports whether the item's expiry date has passed as of today
func (i *Item) Expired(today types.Date) bool {
	return i.ExpiryDate != nil && i.ExpiryDate.Before(today)
}

// ExpiringSoon reports whether the item expires within horizonDays of
// today. Items already expired are not expiring soon, they are expired.
func (i *Item) ExpiringSoon(today types.Date, horizonDays int) bool {
	if i.ExpiryDate == nil || i.Expired(today) {
		return false
	}
	return !i.ExpiryDate.After(today.AddDays(horizonDays))
}

// TotalValue is quantity times unit price
func (i *Item) TotalValue() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Supplier is a vendor inventory items are sourced from
type Supplier struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	Address   string    `json:"address"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateItemRequest is the request to add an inventory item
type CreateItemRequest struct {
	Name          string          `json:"name"`
	Category      string          `json:"category"`
	SupplierID    *int64          `json:"supplier_id"`
	Quantity      int             `json:"quantity"`
	Unit          string          `json:"unit"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	MinStockLevel int             `json:"min_stock_level"`
	ExpiryDate    *types.Date     `json:"expiry_date"`
	Notes         string          `json:"notes"`
}

// UpdateItemRequest is the request to update an inventory item
type UpdateItemRequest struct {
	Name          *string          `json:"name"`
	Category      *string          `json:"category"`
	SupplierID    *int64           `json:"supplier_id"`
	Quantity      *int             `json:"quantity"`
	Unit          *string          `json:"unit"`
	UnitPrice     *decimal.Decimal `json:"unit_price"`
	MinStockLevel *int             `json:"min_stock_level"`
	ExpiryDate    *types.Date      `json:"expiry_date"`
	Notes         *string          `json:"notes"`
}

// AdjustStockRequest changes an item's quantity by a signed delta
type AdjustStockRequest struct {
	Delta  int    `json:"delta"`
	Reason string `json:"reason"`
}

// CreateSupplierRequest is the request to add a supplier
type CreateSupplierRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
	Notes   string `json:"notes"`
}

// UpdateSupplierRequest is the request to update a supplier
type UpdateSupplierRequest struct {
	Name    *string `json:"name"`
	Phone   *string `json:"phone"`
	Email   *string `json:"email"`
	Address *string `json:"address"`
	Notes   *string `json:"notes"`
}

// ListItemsFilter narrows an item listing
type ListItemsFilter struct {
	Category   string
	SupplierID *int64
	Search     string
	Limit      int
	Offset     int
}

// Alerts groups the items that need attention
type Alerts struct {
	LowStock     []Item `json:"low_stock"`
	Expired      []Item `json:"expired"`
	ExpiringSoon []Item `json:"expiring_soon"`
}
