package phonepe

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// =====================================================
// PHONEPE CHECKSUM GENERATION & VERIFICATION
// =====================================================

// GenerateXVerify computes the X-VERIFY header for a PhonePe request
//
// Algorithm:
// 1. Concatenate base64 payload (empty for GETs), request path, salt key
// 2. SHA-256 the concatenation, hex encode
// 3. Append "###" and the salt key index
func GenerateXVerify(base64Payload, path, saltKey, saltIndex string) string {
	sum := sha256.Sum256([]byte(base64Payload + path + saltKey))
	return hex.EncodeToString(sum[:]) + "###" + saltIndex
}

// VerifyXVerify checks a received X-VERIFY header against the expected
// checksum for the given payload and path
func VerifyXVerify(received, base64Payload, path, saltKey, saltIndex string) bool {
	if received == "" {
		return false
	}
	expected := GenerateXVerify(base64Payload, path, saltKey, saltIndex)
	return strings.EqualFold(received, expected)
}
