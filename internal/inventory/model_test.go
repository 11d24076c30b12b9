package inventory

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alnoor-clinic/platform/internal/shared/types"
)

func datePtr(y int, m time.Month, d int) *types.Date {
	dt := types.NewDate(y, m, d)
	return &dt
}

func TestLowStock(t *testing.T) {
	tests := []struct {
		name     string
		quantity int
		min      int
		want     bool
	}{
		{"above minimum", 10, 5, false},
		{"at minimum", 5, 5, true},
		{"below minimum", 2, 5, true},
		{"zero stock zero minimum", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := Item{Quantity: tt.quantity, MinStockLevel: tt.min}
			if got := item.LowStock(); got != tt.want {
				t.Errorf("LowStock() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExpiry(t *testing.T) {
	today := types.NewDate(2024, time.June, 15)
	horizon := 30

	tests := []struct {
		name         string
		expiry       *types.Date
		expired      bool
		expiringSoon bool
	}{
		{"no expiry date", nil, false, false},
		{"expired yesterday", datePtr(2024, time.June, 14), true, false},
		{"expires today", datePtr(2024, time.June, 15), false, true},
		{"expires inside horizon", datePtr(2024, time.July, 10), false, true},
		{"expires at horizon edge", datePtr(2024, time.July, 15), false, true},
		{"expires past horizon", datePtr(2024, time.July, 16), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := Item{ExpiryDate: tt.expiry}
			if got := item.Expired(today); got != tt.expired {
				t.Errorf("Expired() = %v, want %v", got, tt.expired)
			}
			if got := item.ExpiringSoon(today, horizon); got != tt.expiringSoon {
				t.Errorf("ExpiringSoon() = %v, want %v", got, tt.expiringSoon)
			}
		})
	}
}

func TestTotalValue(t *testing.T) {
	item := Item{Quantity: 12, UnitPrice: decimal.NewFromFloat(2.50)}
	if !item.TotalValue().Equal(decimal.NewFromInt(30)) {
		t.Errorf("TotalValue() = %s, want 30", item.TotalValue())
	}
}

func TestBuildAlerts(t *testing.T) {
	today := types.NewDate(2024, time.June, 15)

	items := []Item{
		{Name: "gauze", Quantity: 2, MinStockLevel: 10},
		{Name: "anesthetic", Quantity: 50, MinStockLevel: 10, ExpiryDate: datePtr(2024, time.June, 1)},
		{Name: "gloves", Quantity: 3, MinStockLevel: 5, ExpiryDate: datePtr(2024, time.June, 30)},
		{Name: "composite", Quantity: 40, MinStockLevel: 5, ExpiryDate: datePtr(2025, time.January, 1)},
	}

	alerts := BuildAlerts(items, today, 30)

	if len(alerts.LowStock) != 2 {
		t.Errorf("low stock count = %d, want 2 (gauze, gloves)", len(alerts.LowStock))
	}
	if len(alerts.Expired) != 1 || alerts.Expired[0].Name != "anesthetic" {
		t.Errorf("expired = %v, want [anesthetic]", alerts.Expired)
	}
	// An expired item never double-counts as expiring soon
	if len(alerts.ExpiringSoon) != 1 || alerts.ExpiringSoon[0].Name != "gloves" {
		t.Errorf("expiring soon = %v, want [gloves]", alerts.ExpiringSoon)
	}
}
