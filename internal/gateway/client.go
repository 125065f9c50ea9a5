package gateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"bookingcore/internal/config"
	"bookingcore/internal/errors"
	"bookingcore/internal/model"
)

// Failure codes produced locally, never by the gateway.
const (
	CodeConfigurationMissing = "CONFIGURATION_MISSING"
	CodeTimeout              = "GATEWAY_TIMEOUT"
	CodeNetworkError         = "NETWORK_ERROR"
	CodeInvalidResponse      = "INVALID_RESPONSE"
	CodeUnknownError         = "UNKNOWN_ERROR"
)

const maxResponseBytes = 1 << 20

var nonDigits = regexp.MustCompile(`\D`)

// Initiator starts a payment for a booking.
type Initiator interface {
	Initiate(ctx context.Context, booking *model.Booking, callbackURL string) InitiateResult
}

// StatusChecker polls the gateway for the state of a merchant transaction.
type StatusChecker interface {
	CheckStatus(ctx context.Context, merchantTransactionID string) (*StatusResult, error)
}

// InitiateResult is the outcome of a payment initiation. Initiate never
// returns an error: failures come back with Success false.
type InitiateResult struct {
	Success               bool
	RedirectURL           string
	MerchantTransactionID string
	TransactionID         string
	Reason                string
	Code                  string
	HTTPStatus            int
}

// Err converts a failed result into the matching domain error.
func (r InitiateResult) Err() error {
	if r.Success {
		return nil
	}
	switch r.Code {
	case CodeConfigurationMissing:
		return errors.ErrGatewayConfiguration
	case CodeTimeout:
		return errors.ErrGatewayTimeout
	}
	return &errors.GatewayInitiationError{Message: r.Reason, Code: r.Code, HTTPStatus: r.HTTPStatus}
}

// StatusResult is the gateway's view of a merchant transaction.
type StatusResult struct {
	MerchantTransactionID string
	TransactionID         string
	Status                Status
	Amount                int64
	Raw                   []byte
}

// Client talks to the payment gateway.
type Client struct {
	cfg    config.GatewayConfig
	http   *http.Client
	logger *logrus.Logger
	now    func() time.Time
}

var (
	_ Initiator     = (*Client)(nil)
	_ StatusChecker = (*Client)(nil)
)

// NewClient creates a gateway client. The HTTP timeout bounds every call.
func NewClient(cfg config.GatewayConfig, logger *logrus.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: timeout},
		logger: logger,
		now:    time.Now,
	}
}

type payRequest struct {
	MerchantID            string            `json:"merchantId"`
	MerchantTransactionID string            `json:"merchantTransactionId"`
	MerchantUserID        string            `json:"merchantUserId"`
	Amount                int64             `json:"amount"`
	RedirectURL           string            `json:"redirectUrl"`
	RedirectMode          string            `json:"redirectMode"`
	CallbackURL           string            `json:"callbackUrl"`
	MobileNumber          string            `json:"mobileNumber,omitempty"`
	PaymentInstrument     paymentInstrument `json:"paymentInstrument"`
}

type paymentInstrument struct {
	Type string `json:"type"`
}

// MinorUnits converts an amount to the gateway's minor unit (paise).
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// Initiate builds a signed pay request for the booking and sends it.
// callbackURL overrides the configured server-to-server callback when set.
func (c *Client) Initiate(ctx context.Context, booking *model.Booking, callbackURL string) InitiateResult {
	if !c.cfg.Configured() {
		c.logger.WithField("booking_id", booking.ID).Error("payment gateway credentials missing, refusing to initiate")
		return InitiateResult{Code: CodeConfigurationMissing, Reason: "payment gateway is not configured"}
	}
	if callbackURL == "" {
		callbackURL = c.cfg.CallbackURL
	}
	redirectURL := c.cfg.RedirectURL
	if redirectURL == "" {
		redirectURL = callbackURL
	}

	merchantTxnID := FormatMerchantTransactionID(booking.ID, strconv.FormatInt(c.now().Unix(), 10))
	amount := MinorUnits(booking.TotalAmount)

	payload := payRequest{
		MerchantID:            c.cfg.MerchantID,
		MerchantTransactionID: merchantTxnID,
		MerchantUserID:        merchantUserID(booking.Mobile),
		Amount:                amount,
		RedirectURL:           redirectURL,
		RedirectMode:          "POST",
		CallbackURL:           callbackURL,
		MobileNumber:          nonDigits.ReplaceAllString(booking.Mobile, ""),
		PaymentInstrument:     paymentInstrument{Type: "PAY_PAGE"},
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return InitiateResult{Code: CodeUnknownError, Reason: "could not encode payment request"}
	}
	encoded := base64.StdEncoding.EncodeToString(raw)
	body, _ := json.Marshal(map[string]string{"request": encoded})

	entry := c.logger.WithFields(logrus.Fields{
		"booking_id":              booking.ID,
		"merchant_transaction_id": merchantTxnID,
		"amount":                  amount,
		"gateway_env":             c.cfg.Env,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+c.cfg.PayPath, bytes.NewReader(body))
	if err != nil {
		return InitiateResult{Code: CodeUnknownError, Reason: "could not build payment request", MerchantTransactionID: merchantTxnID}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-VERIFY", Checksum(encoded, c.cfg.PayPath, c.cfg.SaltKey, c.cfg.SaltIndex))
	req.Header.Set("X-MERCHANT-ID", c.cfg.MerchantID)

	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(ctx, err) {
			entry.WithError(err).Error("payment initiation timed out")
			return InitiateResult{Code: CodeTimeout, Reason: "payment gateway timed out", MerchantTransactionID: merchantTxnID}
		}
		entry.WithError(err).Error("payment initiation request failed")
		return InitiateResult{Code: CodeNetworkError, Reason: "payment gateway unreachable", MerchantTransactionID: merchantTxnID}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		entry.WithError(err).Error("read payment initiation response")
		return InitiateResult{Code: CodeNetworkError, Reason: "payment gateway response unreadable", HTTPStatus: resp.StatusCode, MerchantTransactionID: merchantTxnID}
	}

	var env envelope
	decodeErr := json.Unmarshal(respBody, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || decodeErr != nil || !env.Success {
		result := InitiateResult{
			Reason:                env.Message,
			Code:                  env.Code,
			HTTPStatus:            resp.StatusCode,
			MerchantTransactionID: merchantTxnID,
		}
		if result.Reason == "" {
			result.Reason = "payment initiation failed"
		}
		if result.Code == "" {
			if decodeErr != nil {
				result.Code = CodeInvalidResponse
			} else {
				result.Code = strconv.Itoa(resp.StatusCode)
			}
		}
		entry.WithFields(logrus.Fields{
			"http_status":  resp.StatusCode,
			"gateway_code": result.Code,
			"message":      result.Reason,
		}).Error("payment initiation rejected")
		return result
	}

	if env.Data.InstrumentResponse == nil || env.Data.InstrumentResponse.RedirectInfo.URL == "" {
		entry.Error("payment initiation response has no redirect url")
		return InitiateResult{Code: CodeInvalidResponse, Reason: "payment gateway returned no redirect url", HTTPStatus: resp.StatusCode, MerchantTransactionID: merchantTxnID}
	}

	entry.Info("payment initiated")
	return InitiateResult{
		Success:               true,
		RedirectURL:           env.Data.InstrumentResponse.RedirectInfo.URL,
		MerchantTransactionID: merchantTxnID,
		TransactionID:         env.Data.TransactionID,
		HTTPStatus:            resp.StatusCode,
	}
}

// CheckStatus asks the gateway for the authoritative state of a transaction.
func (c *Client) CheckStatus(ctx context.Context, merchantTransactionID string) (*StatusResult, error) {
	if !c.cfg.Configured() {
		return nil, errors.ErrGatewayConfiguration
	}

	path := fmt.Sprintf("%s/%s/%s", c.cfg.StatusPath, c.cfg.MerchantID, merchantTransactionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build status request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-VERIFY", Checksum("", path, c.cfg.SaltKey, c.cfg.SaltIndex))
	req.Header.Set("X-MERCHANT-ID", c.cfg.MerchantID)

	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, errors.ErrGatewayTimeout
		}
		return nil, fmt.Errorf("status request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read status response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode status response (http %d): %w", resp.StatusCode, err)
	}
	if env.Code == "" {
		return nil, fmt.Errorf("status response (http %d) has no code", resp.StatusCode)
	}

	txnID := env.Data.MerchantTransactionID
	if txnID == "" {
		txnID = merchantTransactionID
	}
	return &StatusResult{
		MerchantTransactionID: txnID,
		TransactionID:         env.Data.TransactionID,
		Status:                Status(env.Code),
		Amount:                env.Data.Amount,
		Raw:                   body,
	}, nil
}

func merchantUserID(mobile string) string {
	digits := nonDigits.ReplaceAllString(mobile, "")
	if digits == "" {
		return "USER_GUEST"
	}
	return "USER_" + digits
}

func isTimeout(ctx context.Context, err error) bool {
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return stderrors.As(err, &netErr) && netErr.Timeout()
}
