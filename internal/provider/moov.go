// internal/provider/moov.go
package provider

import (
	"context"
	"time"

	"github.com/montoit/payment-platform/internal/httpclient"
	"github.com/montoit/payment-platform/internal/money"
)

// MoovConfig holds the Moov Money endpoint settings
type MoovConfig struct {
	BaseURL     string
	CallbackURL string
}

// MoovAdapter speaks the Moov Africa payments API: a single
// Bearer-authenticated init call that returns a transaction id and a
// native status string.
type MoovAdapter struct {
	cfg      MoovConfig
	keystore Keystore
	api      *httpclient.Client
}

type moovRequest struct {
	MerchantID  string `json:"merchant_id"`
	Phone       string `json:"phone"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Reference   string `json:"reference"`
	Description string `json:"description"`
	CallbackURL string `json:"callback_url"`
}

type moovResponse struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	Message       string `json:"message"`
}

var moovStatusTable = map[string]money.PaymentStatus{
	"PENDING":    money.StatusProcessing,
	"SUCCESS":    money.StatusCompleted,
	"FAILED":     money.StatusFailed,
	"PROCESSING": money.StatusProcessing,
	"CANCELLED":  money.StatusCancelled,
}

func NewMoovAdapter(cfg MoovConfig, keystore Keystore, timeout time.Duration) *MoovAdapter {
	return &MoovAdapter{
		cfg:      cfg,
		keystore: keystore,
		api:      httpclient.New("moov_money", cfg.BaseURL, timeout),
	}
}

func (a *MoovAdapter) Provider() money.Provider { return money.MoovMoney }
func (a *MoovAdapter) Name() string             { return "moov_money" }

func (a *MoovAdapter) Cashin(ctx context.Context, intent money.Intent) (*CashinResult, error) {
	creds, err := a.keystore.Credentials(ctx, string(money.MoovMoney))
	if err != nil {
		return nil, money.NewPaymentErrorf(money.ErrProviderError, "moov_money: credentials: %v", err)
	}

	req := moovRequest{
		MerchantID:  creds.MerchantID,
		Phone:       money.CleanPhoneNumber(intent.PhoneNumber),
		Amount:      intent.Amount,
		Currency:    "XOF",
		Reference:   intent.Reference,
		Description: intent.Description,
		CallbackURL: a.cfg.CallbackURL,
	}

	headers := map[string]string{
		"Authorization": "Bearer " + creds.APIKey,
	}

	var resp moovResponse
	if err := a.api.Post(ctx, "/v1/payments/init", headers, req, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, money.NewPaymentErrorf(money.ErrProviderError, "moov_money: init rejected: %s", resp.Message)
	}

	status, err := mapNativeStatus("moov_money", resp.Status, moovStatusTable)
	if err != nil {
		return nil, err
	}
	return &CashinResult{
		TransactionID: resp.TransactionID,
		Status:        status,
	}, nil
}
