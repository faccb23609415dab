package provider

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/montoit/payment-platform/internal/money"
)

func newTestInTouch(t *testing.T, handler http.HandlerFunc) *InTouch {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewInTouch(InTouchConfig{
		BaseURL:     srv.URL,
		Username:    "montoit",
		Password:    "secret",
		PartnerID:   "MTT-PARTNER",
		LoginAPI:    "agent-login",
		PasswordAPI: "agent-pass",
		CallbackURL: "https://app.test/webhooks/intouch",
	})
}

func TestInTouchCashin(t *testing.T) {
	var gotReq InTouchCashinRequest
	var gotAuth string

	client := newTestInTouch(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cashin" {
			t.Errorf("path = %s, want /cashin", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(InTouchResponse{Status: "PENDING", TransactionID: "itc-1"})
	})

	resp, err := client.Cashin(context.Background(), money.OrangeMoney, "07 12 34 56 78", 10150, "MTT1700000000000ABC123")
	if err != nil {
		t.Fatalf("Cashin: %v", err)
	}

	wantBasic := "Basic " + base64.StdEncoding.EncodeToString([]byte("montoit:secret"))
	if gotAuth != wantBasic {
		t.Errorf("Authorization = %q, want %q", gotAuth, wantBasic)
	}
	if gotReq.ServiceID != "CASHINOMCIPART2" {
		t.Errorf("service_id = %q, want CASHINOMCIPART2", gotReq.ServiceID)
	}
	if gotReq.RecipientPhoneNumber != "0712345678" {
		t.Errorf("recipient_phone_number = %q, want digits only", gotReq.RecipientPhoneNumber)
	}
	if gotReq.PartnerTransactionID != "MTT1700000000000ABC123" {
		t.Errorf("partner_transaction_id = %q", gotReq.PartnerTransactionID)
	}
	if gotReq.LoginAPI != "agent-login" || gotReq.PasswordAPI != "agent-pass" {
		t.Errorf("agent credentials not carried: %q / %q", gotReq.LoginAPI, gotReq.PasswordAPI)
	}
	if resp.TransactionID != "itc-1" {
		t.Errorf("TransactionID = %q, want itc-1", resp.TransactionID)
	}
}

func TestInTouchPayoutServiceCodes(t *testing.T) {
	tests := []struct {
		provider money.Provider
		want     string
	}{
		{money.OrangeMoney, "PAIEMENTMARCHANDOMPAYCIDIRECT"},
		{money.MTNMoney, "PAIEMENTMARCHAND_MTN_CI"},
		{money.MoovMoney, "PAIEMENTMARCHAND_MOOV_CI"},
		{money.Wave, "CI_PAIEMENTWAVE_TP"},
	}

	for _, tt := range tests {
		t.Run(string(tt.provider), func(t *testing.T) {
			var gotReq InTouchPayoutRequest
			client := newTestInTouch(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/payout" {
					t.Errorf("path = %s, want /payout", r.URL.Path)
				}
				if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
					t.Fatalf("decode request: %v", err)
				}
				json.NewEncoder(w).Encode(InTouchResponse{Status: "PENDING"})
			})

			_, err := client.Payout(context.Background(), tt.provider, "0712345678", 9500, "MTT-ref", InTouchRecipientDetails{
				RecipientFirstName: "Awa",
				RecipientLastName:  "Kone",
			})
			if err != nil {
				t.Fatalf("Payout: %v", err)
			}
			if gotReq.ServiceCode != tt.want {
				t.Errorf("serviceCode = %q, want %q", gotReq.ServiceCode, tt.want)
			}
			if gotReq.AdditionalInfos.Destinataire != "0712345678" {
				t.Errorf("destinataire = %q, want the cleaned number", gotReq.AdditionalInfos.Destinataire)
			}
		})
	}
}

func TestInTouchTransactionStatus(t *testing.T) {
	client := newTestInTouch(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transaction/itc-1" {
			t.Errorf("path = %s, want /transaction/itc-1", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("loginAgent") != "agent-login" || q.Get("passwordAgent") != "agent-pass" {
			t.Errorf("agent query params missing: %s", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode(InTouchTransactionStatus{
			TransactionID:        "itc-1",
			PartnerTransactionID: "MTT-ref",
			Status:               "SUCCESS",
			Amount:               10150,
		})
	})

	st, err := client.TransactionStatus(context.Background(), "itc-1")
	if err != nil {
		t.Fatalf("TransactionStatus: %v", err)
	}
	if st.Status != "SUCCESS" {
		t.Errorf("Status = %q, want SUCCESS", st.Status)
	}

	mapped, ok := money.MapGatewayStatus(money.GatewayStatus(st.Status))
	if !ok {
		t.Fatal("SUCCESS should map")
	}
	if mapped != money.StatusCompleted {
		t.Errorf("mapped = %s, want %s", mapped, money.StatusCompleted)
	}
}

func TestValidateWebhook(t *testing.T) {
	valid := map[string]interface{}{
		"transaction_id":         "itc-1",
		"partner_transaction_id": "MTT-ref",
		"status":                 "SUCCESS",
		"amount":                 float64(10150),
		"phone_number":           "0712345678",
	}

	if !ValidateWebhook(valid) {
		t.Error("complete payload should validate")
	}

	tests := []struct {
		name   string
		mutate func(map[string]interface{})
	}{
		{"missing transaction_id", func(m map[string]interface{}) { delete(m, "transaction_id") }},
		{"missing partner id", func(m map[string]interface{}) { delete(m, "partner_transaction_id") }},
		{"missing status", func(m map[string]interface{}) { delete(m, "status") }},
		{"amount as string", func(m map[string]interface{}) { m["amount"] = "10150" }},
		{"phone as number", func(m map[string]interface{}) { m["phone_number"] = float64(712345678) }},
		{"status as number", func(m map[string]interface{}) { m["status"] = float64(1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := make(map[string]interface{}, len(valid))
			for k, v := range valid {
				m[k] = v
			}
			tt.mutate(m)
			if ValidateWebhook(m) {
				t.Error("mutated payload should not validate")
			}
		})
	}

	if ValidateWebhook(nil) {
		t.Error("nil payload should not validate")
	}
}

func TestParseWebhook(t *testing.T) {
	body := []byte(`{"transaction_id":"itc-1","partner_transaction_id":"MTT-ref","status":"FAILED","amount":10150,"phone_number":"0712345678","error_message":"solde insuffisant"}`)

	p, err := ParseWebhook(body)
	if err != nil {
		t.Fatalf("ParseWebhook: %v", err)
	}
	if p.PartnerTransactionID != "MTT-ref" {
		t.Errorf("PartnerTransactionID = %q", p.PartnerTransactionID)
	}
	if p.Status != "FAILED" {
		t.Errorf("Status = %q", p.Status)
	}
	if p.Amount != 10150 {
		t.Errorf("Amount = %d", p.Amount)
	}

	if _, err := ParseWebhook([]byte(`{"status":"FAILED"}`)); err == nil {
		t.Error("incomplete payload should be rejected")
	}
	if _, err := ParseWebhook([]byte(`not json`)); err == nil {
		t.Error("malformed body should be rejected")
	}
}
