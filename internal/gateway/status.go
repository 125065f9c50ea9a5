package gateway

// Status is the raw gateway state code.
type Status string

const (
	StatusSuccess Status = "PAYMENT_SUCCESS"
	StatusPending Status = "PAYMENT_PENDING"
	StatusError   Status = "PAYMENT_ERROR"
)

// Outcome is the business meaning of a gateway status.
type Outcome int

const (
	OutcomeFailed Outcome = iota
	OutcomePending
	OutcomePaid
)

func (o Outcome) String() string {
	switch o {
	case OutcomePaid:
		return "paid"
	case OutcomePending:
		return "pending"
	default:
		return "failed"
	}
}

// Outcome maps the code. Any code other than success or pending is a failure.
func (s Status) Outcome() Outcome {
	switch s {
	case StatusSuccess:
		return OutcomePaid
	case StatusPending:
		return OutcomePending
	default:
		return OutcomeFailed
	}
}

// envelope is the gateway response document, used both for API responses and
// the decoded callback payload.
type envelope struct {
	Success bool         `json:"success"`
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Data    envelopeData `json:"data"`
}

type envelopeData struct {
	MerchantID            string              `json:"merchantId"`
	MerchantTransactionID string              `json:"merchantTransactionId"`
	TransactionID         string              `json:"transactionId,omitempty"`
	Amount                int64               `json:"amount,omitempty"`
	State                 string              `json:"state,omitempty"`
	ResponseCode          string              `json:"responseCode,omitempty"`
	InstrumentResponse    *instrumentResponse `json:"instrumentResponse,omitempty"`
}

type instrumentResponse struct {
	Type         string `json:"type"`
	RedirectInfo struct {
		URL    string `json:"url"`
		Method string `json:"method"`
	} `json:"redirectInfo"`
}
