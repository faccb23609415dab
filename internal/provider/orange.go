// internal/provider/orange.go
package provider

import (
	"context"
	"time"

	"github.com/montoit/payment-platform/internal/httpclient"
	"github.com/montoit/payment-platform/internal/money"
)

// OrangeConfig holds the Orange Money webpayment endpoint settings
type OrangeConfig struct {
	BaseURL   string
	ReturnURL string
	CancelURL string
	NotifyURL string
}

// OrangeAdapter speaks the Orange Money WebPayment API: a single
// Bearer-authenticated POST that opens a payment session and returns a
// pay token plus a redirect URL.
type OrangeAdapter struct {
	cfg      OrangeConfig
	keystore Keystore
	api      *httpclient.Client
}

type orangeRequest struct {
	MerchantKey string `json:"merchant_key"`
	Currency    string `json:"currency"`
	OrderID     string `json:"order_id"`
	Amount      int64  `json:"amount"`
	ReturnURL   string `json:"return_url"`
	CancelURL   string `json:"cancel_url"`
	NotifURL    string `json:"notif_url"`
	Lang        string `json:"lang"`
	Reference   string `json:"reference"`
}

type orangeResponse struct {
	Status     int    `json:"status"`
	Message    string `json:"message"`
	PayToken   string `json:"pay_token"`
	PaymentURL string `json:"payment_url"`
	NotifToken string `json:"notif_token"`
}

func NewOrangeAdapter(cfg OrangeConfig, keystore Keystore, timeout time.Duration) *OrangeAdapter {
	return &OrangeAdapter{
		cfg:      cfg,
		keystore: keystore,
		api:      httpclient.New("orange_money", cfg.BaseURL, timeout),
	}
}

func (a *OrangeAdapter) Provider() money.Provider { return money.OrangeMoney }
func (a *OrangeAdapter) Name() string             { return "orange_money" }

func (a *OrangeAdapter) Cashin(ctx context.Context, intent money.Intent) (*CashinResult, error) {
	creds, err := a.keystore.Credentials(ctx, string(money.OrangeMoney))
	if err != nil {
		return nil, money.NewPaymentErrorf(money.ErrProviderError, "orange_money: credentials: %v", err)
	}

	req := orangeRequest{
		MerchantKey: creds.MerchantID,
		Currency:    "XOF",
		OrderID:     intent.Reference,
		Amount:      intent.Amount,
		ReturnURL:   a.cfg.ReturnURL,
		CancelURL:   a.cfg.CancelURL,
		NotifURL:    a.cfg.NotifyURL,
		Lang:        "fr",
		Reference:   intent.Description,
	}

	headers := map[string]string{
		"Authorization": "Bearer " + creds.APIKey,
	}

	var resp orangeResponse
	if err := a.api.Post(ctx, "/webpayment", headers, req, &resp); err != nil {
		return nil, err
	}
	if resp.PayToken == "" {
		return nil, money.NewPaymentErrorf(money.ErrProviderError, "orange_money: no pay_token in response (status %d: %s)", resp.Status, resp.Message)
	}

	// payment session opened, confirmation arrives via the notif_url
	return &CashinResult{
		TransactionID: resp.PayToken,
		Status:        money.StatusInitiated,
		PaymentURL:    resp.PaymentURL,
	}, nil
}
