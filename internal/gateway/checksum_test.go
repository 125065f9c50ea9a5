package gateway

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecksum(t *testing.T) {
	sum := sha256.Sum256([]byte("eyJhIjoxfQ==" + "/pg/v1/pay" + "salt"))
	want := hex.EncodeToString(sum[:]) + "###1"

	assert.Equal(t, want, Checksum("eyJhIjoxfQ==", "/pg/v1/pay", "salt", "1"))
}

func TestVerifyChecksum(t *testing.T) {
	header := Checksum("payload", "", "salt", "1")

	assert.True(t, VerifyChecksum(header, "payload", "", "salt", "1"))
	assert.True(t, VerifyChecksum(" "+header+" ", "payload", "", "salt", "1"))
	assert.False(t, VerifyChecksum(header, "payload2", "", "salt", "1"))
	assert.False(t, VerifyChecksum(header, "payload", "", "other-salt", "1"))
	assert.False(t, VerifyChecksum(header, "payload", "", "salt", "2"))
	assert.False(t, VerifyChecksum("", "payload", "", "salt", "1"))
	assert.False(t, VerifyChecksum(header, "payload", "", "", "1"))
}

func TestMerchantTransactionID(t *testing.T) {
	id := FormatMerchantTransactionID(42, "999")
	assert.Equal(t, "TXN_42_999", id)

	bookingID, err := ParseMerchantTransactionID(id)
	require.NoError(t, err)
	assert.Equal(t, uint(42), bookingID)

	for _, bad := range []string{"", "TXN", "TXN_abc_1", "TXN_0_1", "ORD_42_1", "TXN_-5_1"} {
		_, err := ParseMerchantTransactionID(bad)
		assert.Error(t, err, bad)
	}
}

func TestStatus_Outcome(t *testing.T) {
	assert.Equal(t, OutcomePaid, StatusSuccess.Outcome())
	assert.Equal(t, OutcomePending, StatusPending.Outcome())
	assert.Equal(t, OutcomeFailed, StatusError.Outcome())
	assert.Equal(t, OutcomeFailed, Status("PAYMENT_DECLINED").Outcome())
	assert.Equal(t, OutcomeFailed, Status("").Outcome())
}
