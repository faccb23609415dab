// internal/provider/mtn.go
package provider

import (
	"context"
	"encoding/base64"
	"net/http"
	"strconv"
	"time"

	"github.com/montoit/payment-platform/internal/httpclient"
	"github.com/montoit/payment-platform/internal/money"
)

// MTNConfig holds the MTN MoMo collection endpoint settings
type MTNConfig struct {
	BaseURL     string
	Environment string // X-Target-Environment, e.g. "sandbox" or "mtnivorycoast"
}

// MTNAdapter speaks the MTN MoMo collection API. The contract is
// two-step: a Basic-auth token exchange, then a Bearer-authenticated
// requesttopay carrying the reference as X-Reference-Id. A 202 with
// an empty body means the request was accepted and is pending.
type MTNAdapter struct {
	cfg      MTNConfig
	keystore Keystore
	api      *httpclient.Client
}

type mtnTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type mtnParty struct {
	PartyIDType string `json:"partyIdType"`
	PartyID     string `json:"partyId"`
}

type mtnRequestToPay struct {
	Amount       string   `json:"amount"`
	Currency     string   `json:"currency"`
	ExternalID   string   `json:"externalId"`
	Payer        mtnParty `json:"payer"`
	PayerMessage string   `json:"payerMessage"`
	PayeeNote    string   `json:"payeeNote"`
}

// mtnStatusTable maps MoMo native statuses onto the canonical enum
var mtnStatusTable = map[string]money.PaymentStatus{
	"PENDING":    money.StatusProcessing,
	"SUCCESSFUL": money.StatusCompleted,
	"FAILED":     money.StatusFailed,
}

func NewMTNAdapter(cfg MTNConfig, keystore Keystore, timeout time.Duration) *MTNAdapter {
	return &MTNAdapter{
		cfg:      cfg,
		keystore: keystore,
		api:      httpclient.New("mtn_money", cfg.BaseURL, timeout),
	}
}

func (a *MTNAdapter) Provider() money.Provider { return money.MTNMoney }
func (a *MTNAdapter) Name() string             { return "mtn_money" }

func (a *MTNAdapter) Cashin(ctx context.Context, intent money.Intent) (*CashinResult, error) {
	creds, err := a.keystore.Credentials(ctx, string(money.MTNMoney))
	if err != nil {
		return nil, money.NewPaymentErrorf(money.ErrProviderError, "mtn_money: credentials: %v", err)
	}

	token, err := a.authenticate(ctx, creds)
	if err != nil {
		return nil, err
	}

	req := mtnRequestToPay{
		Amount:     moneyAmountString(intent.Amount),
		Currency:   "XOF",
		ExternalID: intent.Reference,
		Payer: mtnParty{
			PartyIDType: "MSISDN",
			PartyID:     money.CleanPhoneNumber(intent.PhoneNumber),
		},
		PayerMessage: intent.Description,
		PayeeNote:    intent.Description,
	}

	headers := map[string]string{
		"Authorization":             "Bearer " + token,
		"X-Reference-Id":            intent.Reference,
		"X-Target-Environment":      a.cfg.Environment,
		"Ocp-Apim-Subscription-Key": creds.SubscriptionKey,
	}

	if err := a.api.Post(ctx, "/collection/v1_0/requesttopay", headers, req, nil, http.StatusAccepted); err != nil {
		return nil, err
	}

	status, err := mapNativeStatus("mtn_money", "PENDING", mtnStatusTable)
	if err != nil {
		return nil, err
	}
	return &CashinResult{
		TransactionID: intent.Reference,
		Status:        status,
	}, nil
}

// moneyAmountString renders an amount the way MoMo expects it: a
// decimal string, not a JSON number
func moneyAmountString(v int64) string {
	return strconv.FormatInt(v, 10)
}

// authenticate exchanges the Basic credentials for a bearer token
func (a *MTNAdapter) authenticate(ctx context.Context, creds Credentials) (string, error) {
	basic := base64.StdEncoding.EncodeToString([]byte(creds.APIUser + ":" + creds.APIKey))
	headers := map[string]string{
		"Authorization":             "Basic " + basic,
		"Ocp-Apim-Subscription-Key": creds.SubscriptionKey,
	}

	var resp mtnTokenResponse
	if err := a.api.Post(ctx, "/collection/token/", headers, nil, &resp); err != nil {
		return "", err
	}
	if resp.AccessToken == "" {
		return "", money.NewPaymentErrorf(money.ErrProviderError, "mtn_money: authentication returned no access token")
	}
	return resp.AccessToken, nil
}
