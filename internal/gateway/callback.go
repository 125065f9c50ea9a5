package gateway

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"bookingcore/internal/config"
	"bookingcore/internal/errors"
)

const maxCallbackBytes = 64 << 10

// Trust is how much a parsed callback may be relied on.
type Trust int

const (
	// TrustUnverified callbacks only drive browser redirects.
	TrustUnverified Trust = iota
	// TrustVerified callbacks carried a valid checksum and may change payment state.
	TrustVerified
)

// ParsedCallback is either a *ServerCallback or a *RedirectCallback.
type ParsedCallback interface {
	Trust() Trust
	Booking() uint
	Code() Status
	MerchantTxn() string
}

// ServerCallback is a checksum-verified server-to-server notification.
type ServerCallback struct {
	BookingID             uint
	GatewayStatus         Status
	TransactionID         string
	MerchantTransactionID string
	Amount                int64
	// Payload is the decoded JSON document.
	Payload []byte
}

func (c *ServerCallback) Trust() Trust        { return TrustVerified }
func (c *ServerCallback) Booking() uint       { return c.BookingID }
func (c *ServerCallback) Code() Status        { return c.GatewayStatus }
func (c *ServerCallback) MerchantTxn() string { return c.MerchantTransactionID }

// RedirectCallback is a browser form POST. Its fields are not signed.
type RedirectCallback struct {
	BookingID             uint
	GatewayStatus         Status
	MerchantID            string
	MerchantTransactionID string
	TransactionID         string
}

func (c *RedirectCallback) Trust() Trust        { return TrustUnverified }
func (c *RedirectCallback) Booking() uint       { return c.BookingID }
func (c *RedirectCallback) Code() Status        { return c.GatewayStatus }
func (c *RedirectCallback) MerchantTxn() string { return c.MerchantTransactionID }

// Verifier authenticates and decodes inbound gateway callbacks.
type Verifier struct {
	cfg config.GatewayConfig
}

// NewVerifier creates a callback verifier bound to the gateway credentials.
func NewVerifier(cfg config.GatewayConfig) *Verifier {
	return &Verifier{cfg: cfg}
}

// Verify parses r into a ParsedCallback. It returns an error wrapping
// ErrCallbackIntegrity when the checksum does not match, ErrCallbackMalformed
// when neither shape is recognised or fields are unusable, and
// ErrGatewayConfiguration when no salt key is configured for verification.
func (v *Verifier) Verify(r *http.Request) (ParsedCallback, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxCallbackBytes+1))
	if err != nil {
		return nil, errors.Malformed("read body: %v", err)
	}
	if len(body) > maxCallbackBytes {
		return nil, errors.Malformed("body exceeds %d bytes", maxCallbackBytes)
	}

	fields, err := decodeFields(r.Header.Get("Content-Type"), body)
	if err != nil {
		return nil, err
	}

	if response := fields.Get("response"); response != "" {
		return v.verifyEnvelope(response, r.Header.Get("X-VERIFY"))
	}
	if fields.Get("code") != "" {
		return parseRedirect(fields)
	}
	return nil, errors.Malformed("callback has neither response envelope nor redirect fields")
}

// VerifyEnvelope checks and decodes a base64 envelope directly.
func (v *Verifier) VerifyEnvelope(response, checksumHeader string) (*ServerCallback, error) {
	return v.verifyEnvelope(response, checksumHeader)
}

func (v *Verifier) verifyEnvelope(response, checksumHeader string) (*ServerCallback, error) {
	if v.cfg.SaltKey == "" {
		return nil, errors.ErrGatewayConfiguration
	}
	if strings.TrimSpace(checksumHeader) == "" {
		return nil, errors.Integrity("missing X-VERIFY header")
	}
	if !VerifyChecksum(checksumHeader, response, v.cfg.CallbackVerifyPath, v.cfg.SaltKey, v.cfg.SaltIndex) {
		return nil, errors.Integrity("checksum mismatch")
	}

	decoded, err := base64.StdEncoding.DecodeString(response)
	if err != nil {
		return nil, errors.Malformed("response is not valid base64")
	}

	var env envelope
	if err := json.Unmarshal(decoded, &env); err != nil {
		return nil, errors.Malformed("response is not valid json")
	}
	if env.Data.MerchantID != "" && v.cfg.MerchantID != "" && env.Data.MerchantID != v.cfg.MerchantID {
		return nil, errors.Malformed("merchant id %q does not match", env.Data.MerchantID)
	}

	bookingID, err := ParseMerchantTransactionID(env.Data.MerchantTransactionID)
	if err != nil {
		return nil, errors.Malformed("%v", err)
	}

	code := env.Code
	if code == "" {
		code = string(StatusError)
	}

	return &ServerCallback{
		BookingID:             bookingID,
		GatewayStatus:         Status(code),
		TransactionID:         env.Data.TransactionID,
		MerchantTransactionID: env.Data.MerchantTransactionID,
		Amount:                env.Data.Amount,
		Payload:               decoded,
	}, nil
}

func parseRedirect(fields url.Values) (*RedirectCallback, error) {
	merchantTxnID := fields.Get("merchantTransactionId")
	if merchantTxnID == "" {
		merchantTxnID = fields.Get("transactionId")
	}
	if merchantTxnID == "" {
		return nil, errors.Malformed("redirect callback has no merchantTransactionId")
	}

	bookingID, err := ParseMerchantTransactionID(merchantTxnID)
	if err != nil {
		return nil, errors.Malformed("%v", err)
	}

	return &RedirectCallback{
		BookingID:             bookingID,
		GatewayStatus:         Status(fields.Get("code")),
		MerchantID:            fields.Get("merchantId"),
		MerchantTransactionID: merchantTxnID,
		TransactionID:         fields.Get("providerReferenceId"),
	}, nil
}

// decodeFields flattens a JSON object or form body into url.Values.
func decodeFields(contentType string, body []byte) (url.Values, error) {
	mediaType, _, _ := mime.ParseMediaType(contentType)
	trimmed := bytes.TrimSpace(body)

	if mediaType == "application/json" || (mediaType == "" && len(trimmed) > 0 && trimmed[0] == '{') {
		var obj map[string]interface{}
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return nil, errors.Malformed("body is not valid json")
		}
		fields := url.Values{}
		for k, val := range obj {
			if s, ok := val.(string); ok {
				fields.Set(k, s)
			}
		}
		return fields, nil
	}

	fields, err := url.ParseQuery(string(trimmed))
	if err != nil {
		return nil, errors.Malformed("body is not a valid form")
	}
	return fields, nil
}

// EncodeCallback builds a signed server-to-server envelope the way the gateway
// does. Used by the payment simulator.
func EncodeCallback(cfg config.GatewayConfig, code Status, merchantTransactionID, transactionID string, amount int64) (response, checksum string, err error) {
	env := envelope{
		Success: code == StatusSuccess,
		Code:    string(code),
		Message: "Simulated " + string(code),
		Data: envelopeData{
			MerchantID:            cfg.MerchantID,
			MerchantTransactionID: merchantTransactionID,
			TransactionID:         transactionID,
			Amount:                amount,
			State:                 simulatedState(code),
		},
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return "", "", err
	}
	response = base64.StdEncoding.EncodeToString(raw)
	return response, Checksum(response, cfg.CallbackVerifyPath, cfg.SaltKey, cfg.SaltIndex), nil
}

func simulatedState(code Status) string {
	switch code.Outcome() {
	case OutcomePaid:
		return "COMPLETED"
	case OutcomePending:
		return "PENDING"
	default:
		return "FAILED"
	}
}
