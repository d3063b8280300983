package model

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// =====================================================
// MERCHANT TRANSACTION REFERENCE
// =====================================================

// merchantTxnPrefixes keys the reference prefix by provider so an ID
// read off a gateway dashboard is recognizable at a glance.
var merchantTxnPrefixes = map[string]string{
	ProviderCashfree: "CF",
	ProviderPhonePe:  "PP",
}

// NewMerchantTransactionID mints the reference handed to the gateway.
// One reference per attempt, never reused: a retry mints a new one.
// Stays within the 38-character limit the stricter gateways enforce.
func NewMerchantTransactionID(provider string) string {
	prefix, ok := merchantTxnPrefixes[provider]
	if !ok {
		prefix = "TX"
	}
	return fmt.Sprintf("%s-%s", prefix, strings.ReplaceAll(uuid.New().String(), "-", ""))
}

// NewMerchantRefundID mints the reference for a gateway refund call.
func NewMerchantRefundID() string {
	return fmt.Sprintf("RF-%s", strings.ReplaceAll(uuid.New().String(), "-", ""))
}
