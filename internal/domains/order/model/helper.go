package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =====================================================
// CALCULATION HELPERS
// =====================================================

// CalculateTotal derives the order total from its parts.
// Total never goes below zero even if the discount exceeds the goods
// value.
func CalculateTotal(subtotal, discount, shipping decimal.Decimal) decimal.Decimal {
	total := subtotal.Sub(discount).Add(shipping)
	if total.LessThan(decimal.Zero) {
		return decimal.Zero
	}
	return total
}

// ToMinorUnits converts a major-unit amount to minor currency units:
// round(total * 100). Rounding happens exactly once, here, so every
// consumer of amountMinor sees the same integer.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// =====================================================
// IDENTIFIER HELPERS
// =====================================================

// GenerateOrderNumber builds a human-readable order reference,
// e.g. ORD-20250114-8F3A21C4.
func GenerateOrderNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
	return fmt.Sprintf("ORD-%s-%s", time.Now().Format("20060102"), suffix)
}
