// internal/provider/intouch.go
package provider

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/montoit/payment-platform/internal/httpclient"
	"github.com/montoit/payment-platform/internal/money"
)

// InTouchConfig holds the aggregator gateway settings. Username and
// password authenticate the HTTP calls (Basic); LoginAPI and
// PasswordAPI are the separate agent credentials carried in request
// bodies and query strings, the way the gateway wants them.
type InTouchConfig struct {
	BaseURL     string
	Username    string
	Password    string
	PartnerID   string
	LoginAPI    string
	PasswordAPI string
	CallbackURL string
	Timeout     time.Duration
}

// InTouch is the client for the aggregator gateway that fronts all
// four networks for payouts, transaction status lookups and SMS.
type InTouch struct {
	cfg InTouchConfig
	api *httpclient.Client
}

// InTouchCashinRequest is the gateway's cashin wire shape
type InTouchCashinRequest struct {
	ServiceID            string `json:"service_id"`
	RecipientPhoneNumber string `json:"recipient_phone_number"`
	Amount               int64  `json:"amount"`
	PartnerID            string `json:"partner_id"`
	PartnerTransactionID string `json:"partner_transaction_id"`
	LoginAPI             string `json:"login_api"`
	PasswordAPI          string `json:"password_api"`
	CallBackURL          string `json:"call_back_url"`
}

// InTouchPayoutRequest is the gateway's payout wire shape. The field
// names (idFromClient, additionnalInfos) are the gateway's, typos
// included.
type InTouchPayoutRequest struct {
	IDFromClient    string                  `json:"idFromClient"`
	AdditionalInfos InTouchRecipientDetails `json:"additionnalInfos"`
	Amount          int64                   `json:"amount"`
	Callback        string                  `json:"callback"`
	RecipientNumber string                  `json:"recipientNumber"`
	ServiceCode     string                  `json:"serviceCode"`
}

// InTouchRecipientDetails carries payout recipient identity
type InTouchRecipientDetails struct {
	RecipientEmail     string `json:"recipientEmail"`
	RecipientFirstName string `json:"recipientFirstName"`
	RecipientLastName  string `json:"recipientLastName"`
	Destinataire       string `json:"destinataire"`
}

// InTouchResponse is the gateway's generic dispatch response
type InTouchResponse struct {
	Status        string          `json:"status"`
	Message       string          `json:"message"`
	TransactionID string          `json:"transaction_id,omitempty"`
	Code          string          `json:"code,omitempty"`
	Data          json.RawMessage `json:"data,omitempty"`
}

// InTouchTransactionStatus is the status-poll response
type InTouchTransactionStatus struct {
	TransactionID        string `json:"transaction_id"`
	PartnerTransactionID string `json:"partner_transaction_id"`
	Status               string `json:"status"`
	Amount               int64  `json:"amount"`
	PhoneNumber          string `json:"phone_number"`
	ServiceID            string `json:"service_id"`
	CreatedAt            string `json:"created_at"`
	UpdatedAt            string `json:"updated_at"`
	ErrorMessage         string `json:"error_message,omitempty"`
}

// InTouchBalance is the float balance response
type InTouchBalance struct {
	Status    string  `json:"status"`
	Balance   float64 `json:"balance"`
	Currency  string  `json:"currency"`
	Timestamp string  `json:"timestamp"`
}

// WebhookPayload is the inbound callback the gateway POSTs on status
// changes
type WebhookPayload struct {
	TransactionID        string `json:"transaction_id"`
	PartnerTransactionID string `json:"partner_transaction_id"`
	Status               string `json:"status"`
	Amount               int64  `json:"amount"`
	PhoneNumber          string `json:"phone_number"`
	Timestamp            string `json:"timestamp"`
	ServiceID            string `json:"service_id,omitempty"`
	ErrorMessage         string `json:"error_message,omitempty"`
}

// NewInTouch creates the gateway client
func NewInTouch(cfg InTouchConfig) *InTouch {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &InTouch{
		cfg: cfg,
		api: httpclient.New("intouch", cfg.BaseURL, cfg.Timeout),
	}
}

func (t *InTouch) authHeaders() map[string]string {
	basic := base64.StdEncoding.EncodeToString([]byte(t.cfg.Username + ":" + t.cfg.Password))
	return map[string]string{
		"Authorization": "Basic " + basic,
	}
}

// Cashin dispatches a collection through the per-provider cashin
// service id
func (t *InTouch) Cashin(ctx context.Context, p money.Provider, phoneNumber string, amount int64, reference string) (*InTouchResponse, error) {
	req := InTouchCashinRequest{
		ServiceID:            p.ServiceID(money.Cashin),
		RecipientPhoneNumber: money.CleanPhoneNumber(phoneNumber),
		Amount:               amount,
		PartnerID:            t.cfg.PartnerID,
		PartnerTransactionID: reference,
		LoginAPI:             t.cfg.LoginAPI,
		PasswordAPI:          t.cfg.PasswordAPI,
		CallBackURL:          t.cfg.CallbackURL,
	}

	var resp InTouchResponse
	if err := t.api.Post(ctx, "/cashin", t.authHeaders(), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Payout dispatches a disbursement through the per-provider payout
// service code
func (t *InTouch) Payout(ctx context.Context, p money.Provider, phoneNumber string, amount int64, reference string, recipient InTouchRecipientDetails) (*InTouchResponse, error) {
	if recipient.Destinataire == "" {
		recipient.Destinataire = money.CleanPhoneNumber(phoneNumber)
	}
	req := InTouchPayoutRequest{
		IDFromClient:    reference,
		AdditionalInfos: recipient,
		Amount:          amount,
		Callback:        t.cfg.CallbackURL,
		RecipientNumber: money.CleanPhoneNumber(phoneNumber),
		ServiceCode:     p.ServiceID(money.Payout),
	}

	var resp InTouchResponse
	if err := t.api.Post(ctx, "/payout", t.authHeaders(), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TransactionStatus polls the gateway for a transaction's native
// status. Callers map it through money.MapGatewayStatus.
func (t *InTouch) TransactionStatus(ctx context.Context, transactionID string) (*InTouchTransactionStatus, error) {
	endpoint := fmt.Sprintf("/transaction/%s?%s", url.PathEscape(transactionID), t.agentQuery())

	var resp InTouchTransactionStatus
	if err := t.api.Get(ctx, endpoint, t.authHeaders(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Balance fetches the float account balance
func (t *InTouch) Balance(ctx context.Context) (*InTouchBalance, error) {
	var resp InTouchBalance
	if err := t.api.Get(ctx, "/balance?"+t.agentQuery(), t.authHeaders(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SendSMS pushes a notification SMS through the gateway
func (t *InTouch) SendSMS(ctx context.Context, phoneNumber, message string) error {
	req := map[string]interface{}{
		"recipient_phone_number": money.CleanPhoneNumber(phoneNumber),
		"message":                message,
		"partner_id":             t.cfg.PartnerID,
		"partner_transaction_id": money.NewTransactionReference(),
		"login_api":              t.cfg.LoginAPI,
		"password_api":           t.cfg.PasswordAPI,
	}
	return t.api.Post(ctx, "/sms", t.authHeaders(), req, nil)
}

func (t *InTouch) agentQuery() string {
	q := url.Values{}
	q.Set("loginAgent", t.cfg.LoginAPI)
	q.Set("passwordAgent", t.cfg.PasswordAPI)
	return q.Encode()
}

// ValidateWebhook checks the shape of an inbound callback before it is
// trusted: transaction_id, partner_transaction_id and status must be
// strings, amount a number, phone_number a string. Signature
// verification is the gateway SDK's concern, not ours.
func ValidateWebhook(raw map[string]interface{}) bool {
	if raw == nil {
		return false
	}
	if _, ok := raw["transaction_id"].(string); !ok {
		return false
	}
	if _, ok := raw["partner_transaction_id"].(string); !ok {
		return false
	}
	if _, ok := raw["status"].(string); !ok {
		return false
	}
	if _, ok := raw["amount"].(float64); !ok {
		return false
	}
	if _, ok := raw["phone_number"].(string); !ok {
		return false
	}
	return true
}

// ParseWebhook validates and decodes an inbound callback body
func ParseWebhook(body []byte) (*WebhookPayload, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("malformed webhook body: %w", err)
	}
	if !ValidateWebhook(raw) {
		return nil, fmt.Errorf("invalid webhook data")
	}

	var payload WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("malformed webhook body: %w", err)
	}
	return &payload, nil
}
