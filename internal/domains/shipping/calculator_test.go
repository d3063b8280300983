package shipping

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func testConfig() *Config {
	return &Config{
		FreeShippingThreshold: decimal.NewFromInt(500),
		BaseRate:              decimal.NewFromInt(40),
		ZoneSurcharges: map[string]decimal.Decimal{
			"19": decimal.NewFromInt(20), // Ladakh
			"7":  decimal.NewFromInt(15), // east zone
			"79": decimal.NewFromInt(30), // north-east
		},
	}
}

func TestCalculate(t *testing.T) {
	calc := NewCalculator(testConfig())

	tests := []struct {
		name       string
		itemCount  int
		pincode    string
		orderValue string
		want       string
	}{
		{"empty cart ships nothing", 0, "560001", "0", "0"},
		{"below threshold pays base rate", 2, "560001", "499", "40"},
		{"at threshold ships free", 2, "560001", "500", "0"},
		{"above threshold ships free", 5, "110001", "1250.50", "0"},
		{"east zone surcharge", 1, "700001", "300", "55"},
		{"longest prefix wins over shorter", 1, "790001", "300", "70"},
		{"unknown pincode pays base rate only", 1, "999999", "300", "40"},
		{"missing pincode pays base rate only", 1, "", "300", "40"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calc.Calculate(tt.itemCount, tt.pincode, decimal.RequireFromString(tt.orderValue))
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestCalculate_NoFreeThreshold(t *testing.T) {
	calc := NewCalculator(&Config{
		BaseRate: decimal.NewFromInt(40),
	})

	// Threshold zero means free shipping is disabled, not always-free
	got := calc.Calculate(1, "560001", decimal.NewFromInt(100000))
	assert.Equal(t, "40", got.String())
}
