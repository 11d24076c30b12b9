package doctor

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidCommissionRate(t *testing.T) {
	tests := []struct {
		rate string
		want bool
	}{
		{"0", true},
		{"12.5", true},
		{"100", true},
		{"-0.01", false},
		{"100.01", false},
	}

	for _, tt := range tests {
		rate, err := decimal.NewFromString(tt.rate)
		if err != nil {
			t.Fatalf("bad test rate %q: %v", tt.rate, err)
		}
		if got := ValidCommissionRate(rate); got != tt.want {
			t.Errorf("ValidCommissionRate(%s) = %v, want %v", tt.rate, got, tt.want)
		}
	}
}
