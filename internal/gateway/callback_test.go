package gateway

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookingcore/internal/errors"
)

func jsonCallbackRequest(t *testing.T, response, checksum string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/payments/callback", strings.NewReader(`{"response":"`+response+`"}`))
	req.Header.Set("Content-Type", "application/json")
	if checksum != "" {
		req.Header.Set("X-VERIFY", checksum)
	}
	return req
}

func TestVerifier_ServerCallback(t *testing.T) {
	cfg := testGatewayConfig("http://gateway")
	response, checksum, err := EncodeCallback(cfg, StatusSuccess, "TXN_42_999", "T-1", 149950)
	require.NoError(t, err)

	parsed, err := NewVerifier(cfg).Verify(jsonCallbackRequest(t, response, checksum))
	require.NoError(t, err)

	cb, ok := parsed.(*ServerCallback)
	require.True(t, ok)
	assert.Equal(t, TrustVerified, cb.Trust())
	assert.Equal(t, uint(42), cb.BookingID)
	assert.Equal(t, StatusSuccess, cb.GatewayStatus)
	assert.Equal(t, "T-1", cb.TransactionID)
	assert.Equal(t, "TXN_42_999", cb.MerchantTransactionID)
	assert.Equal(t, int64(149950), cb.Amount)
}

func TestVerifier_ServerCallbackAsForm(t *testing.T) {
	cfg := testGatewayConfig("http://gateway")
	response, checksum, err := EncodeCallback(cfg, StatusPending, "TXN_42_1", "", 100)
	require.NoError(t, err)

	form := url.Values{"response": {response}}
	req := httptest.NewRequest(http.MethodPost, "/api/payments/callback", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-VERIFY", checksum)

	parsed, err := NewVerifier(cfg).Verify(req)
	require.NoError(t, err)
	assert.Equal(t, TrustVerified, parsed.Trust())
	assert.Equal(t, StatusPending, parsed.Code())
}

func TestVerifier_RejectsBadChecksum(t *testing.T) {
	cfg := testGatewayConfig("http://gateway")
	response, _, err := EncodeCallback(cfg, StatusSuccess, "TXN_42_999", "T-1", 100)
	require.NoError(t, err)

	forged := Checksum(response, "", "attacker-salt", "1")
	_, err = NewVerifier(cfg).Verify(jsonCallbackRequest(t, response, forged))
	assert.ErrorIs(t, err, errors.ErrCallbackIntegrity)

	_, err = NewVerifier(cfg).Verify(jsonCallbackRequest(t, response, ""))
	assert.ErrorIs(t, err, errors.ErrCallbackIntegrity)
}

func TestVerifier_RejectsTamperedPayload(t *testing.T) {
	cfg := testGatewayConfig("http://gateway")
	_, checksum, err := EncodeCallback(cfg, StatusError, "TXN_42_999", "", 100)
	require.NoError(t, err)
	tampered, _, err := EncodeCallback(cfg, StatusSuccess, "TXN_42_999", "", 100)
	require.NoError(t, err)

	_, err = NewVerifier(cfg).Verify(jsonCallbackRequest(t, tampered, checksum))
	assert.ErrorIs(t, err, errors.ErrCallbackIntegrity)
}

func TestVerifier_MalformedBookingID(t *testing.T) {
	cfg := testGatewayConfig("http://gateway")
	response, checksum, err := EncodeCallback(cfg, StatusSuccess, "TXN_abc_999", "", 100)
	require.NoError(t, err)

	_, err = NewVerifier(cfg).Verify(jsonCallbackRequest(t, response, checksum))
	assert.ErrorIs(t, err, errors.ErrCallbackMalformed)
}

func TestVerifier_SignedGarbage(t *testing.T) {
	cfg := testGatewayConfig("http://gateway")
	response := base64.StdEncoding.EncodeToString([]byte("not json"))
	checksum := Checksum(response, "", cfg.SaltKey, cfg.SaltIndex)

	_, err := NewVerifier(cfg).Verify(jsonCallbackRequest(t, response, checksum))
	assert.ErrorIs(t, err, errors.ErrCallbackMalformed)
}

func TestVerifier_RedirectCallback(t *testing.T) {
	form := url.Values{
		"code":                  {"PAYMENT_SUCCESS"},
		"merchantId":            {"MERCHANT1"},
		"merchantTransactionId": {"TXN_42_999"},
	}
	req := httptest.NewRequest(http.MethodPost, "/api/payments/callback", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	parsed, err := NewVerifier(testGatewayConfig("http://gateway")).Verify(req)
	require.NoError(t, err)

	cb, ok := parsed.(*RedirectCallback)
	require.True(t, ok)
	assert.Equal(t, TrustUnverified, cb.Trust())
	assert.Equal(t, uint(42), cb.BookingID)
	assert.Equal(t, StatusSuccess, cb.GatewayStatus)
}

func TestVerifier_RedirectFallsBackToTransactionID(t *testing.T) {
	form := url.Values{"code": {"PAYMENT_ERROR"}, "transactionId": {"TXN_5_1"}}
	req := httptest.NewRequest(http.MethodPost, "/api/payments/callback", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	parsed, err := NewVerifier(testGatewayConfig("http://gateway")).Verify(req)
	require.NoError(t, err)
	assert.Equal(t, uint(5), parsed.Booking())
}

func TestVerifier_UnrecognisedShape(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
	}{
		{"empty json", "application/json", `{}`},
		{"broken json", "application/json", `{"response":`},
		{"unrelated form", "application/x-www-form-urlencoded", "foo=bar"},
		{"redirect without txn", "application/x-www-form-urlencoded", "code=PAYMENT_SUCCESS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/payments/callback", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)

			_, err := NewVerifier(testGatewayConfig("http://gateway")).Verify(req)
			assert.ErrorIs(t, err, errors.ErrCallbackMalformed)
		})
	}
}

func TestVerifier_FailsClosedWithoutSalt(t *testing.T) {
	cfg := testGatewayConfig("http://gateway")
	response, checksum, err := EncodeCallback(cfg, StatusSuccess, "TXN_42_999", "", 100)
	require.NoError(t, err)

	cfg.SaltKey = ""
	_, err = NewVerifier(cfg).Verify(jsonCallbackRequest(t, response, checksum))
	assert.ErrorIs(t, err, errors.ErrGatewayConfiguration)
}
