package gateway

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

const checksumSeparator = "###"

// Checksum builds the integrity token SHA256(payload + path + saltKey) + "###" + saltIndex.
func Checksum(payload, path, saltKey, saltIndex string) string {
	sum := sha256.Sum256([]byte(payload + path + saltKey))
	return hex.EncodeToString(sum[:]) + checksumSeparator + saltIndex
}

// VerifyChecksum recomputes the token over payload and compares it with header
// in constant time.
func VerifyChecksum(header, payload, path, saltKey, saltIndex string) bool {
	header = strings.TrimSpace(header)
	if header == "" || saltKey == "" {
		return false
	}
	expected := Checksum(payload, path, saltKey, saltIndex)
	return subtle.ConstantTimeCompare([]byte(strings.ToLower(header)), []byte(expected)) == 1
}

// merchantTransactionPrefix starts every merchant transaction id.
const merchantTransactionPrefix = "TXN"

// FormatMerchantTransactionID builds TXN_{bookingID}_{nonce}.
func FormatMerchantTransactionID(bookingID uint, nonce string) string {
	return fmt.Sprintf("%s_%d_%s", merchantTransactionPrefix, bookingID, nonce)
}

// ParseMerchantTransactionID recovers the booking id embedded in a merchant
// transaction id: the second "_"-separated token.
func ParseMerchantTransactionID(merchantTransactionID string) (uint, error) {
	parts := strings.Split(strings.TrimSpace(merchantTransactionID), "_")
	if len(parts) < 2 || parts[0] != merchantTransactionPrefix {
		return 0, fmt.Errorf("merchant transaction id %q is not in TXN_{id}_{nonce} form", merchantTransactionID)
	}
	id, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("merchant transaction id %q has invalid booking id %q", merchantTransactionID, parts[1])
	}
	return uint(id), nil
}
