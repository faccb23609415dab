package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/montoit/payment-platform/internal/money"
	"github.com/montoit/payment-platform/internal/provider"
)

func newTestGateway() *MockGateway {
	return NewMockGateway(0, 0)
}

func muxSetID(r *http.Request, id string) *http.Request {
	return mux.SetURLVars(r, map[string]string{"id": id})
}

func postJSON(t *testing.T, handler http.HandlerFunc, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req := httptest.NewRequest("POST", "/", bytes.NewReader(body))
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func TestCashinDeliversWebhook(t *testing.T) {
	g := newTestGateway()

	received := make(chan provider.WebhookPayload, 1)
	callback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p provider.WebhookPayload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Errorf("decode webhook: %v", err)
		}
		received <- p
		w.WriteHeader(http.StatusOK)
	}))
	defer callback.Close()

	w := postJSON(t, g.cashin, provider.InTouchCashinRequest{
		ServiceID:            "CASHINOMCIPART2",
		RecipientPhoneNumber: "0712345678",
		Amount:               10150,
		PartnerID:            "MONTOIT",
		PartnerTransactionID: "MTT1700000000000ABC123",
		CallBackURL:          callback.URL,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("cashin status = %d, body %s", w.Code, w.Body.String())
	}

	var resp provider.InTouchResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Status != string(money.GatewayPending) {
		t.Errorf("dispatch status = %s, want PENDING", resp.Status)
	}
	if resp.TransactionID == "" {
		t.Fatal("transaction id must be assigned")
	}

	select {
	case p := <-received:
		if p.PartnerTransactionID != "MTT1700000000000ABC123" {
			t.Errorf("webhook reference = %q", p.PartnerTransactionID)
		}
		if p.Status != string(money.GatewaySuccess) {
			t.Errorf("webhook status = %s, want SUCCESS at 0%% failure rate", p.Status)
		}
		if p.Amount != 10150 {
			t.Errorf("webhook amount = %d", p.Amount)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("webhook never delivered")
	}
}

func TestCashinValidation(t *testing.T) {
	g := newTestGateway()

	w := postJSON(t, g.cashin, provider.InTouchCashinRequest{
		ServiceID: "CASHINOMCIPART2",
		Amount:    10150,
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing phone: status = %d, want 400", w.Code)
	}
}

func TestCashinWhileUnhealthy(t *testing.T) {
	g := newTestGateway()
	g.isHealthy = false

	w := postJSON(t, g.cashin, provider.InTouchCashinRequest{
		ServiceID:            "CASHINMTNPART2",
		RecipientPhoneNumber: "0512345678",
		Amount:               20000,
		PartnerTransactionID: "MTT1700000000001XYZ789",
	})
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
}

func TestPayoutDebitsBalance(t *testing.T) {
	g := newTestGateway()
	g.balance = 100_000

	w := postJSON(t, g.payout, provider.InTouchPayoutRequest{
		IDFromClient:    "payment-1",
		Amount:          60_000,
		RecipientNumber: "0712345678",
		ServiceCode:     "PAIEMENTMARCHANDOMPAYCIDIRECT",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp provider.InTouchResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Status != string(money.GatewaySuccess) {
		t.Errorf("payout status = %s", resp.Status)
	}

	// a second payout overdraws the float
	w = postJSON(t, g.payout, provider.InTouchPayoutRequest{
		IDFromClient:    "payment-2",
		Amount:          60_000,
		RecipientNumber: "0712345678",
		ServiceCode:     "PAIEMENTMARCHANDOMPAYCIDIRECT",
	})
	if w.Code != http.StatusPaymentRequired {
		t.Fatalf("overdraw status = %d, want 402", w.Code)
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Code != "INSUFFICIENT_BALANCE" {
		t.Errorf("overdraw code = %s", resp.Code)
	}
}

func TestConfigureDuringTraffic(t *testing.T) {
	g := newTestGateway()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 25; i++ {
			req := httptest.NewRequest("POST", "/admin/config", bytes.NewReader([]byte(`{"latency_ms": 1}`)))
			g.configure(httptest.NewRecorder(), req)
		}
	}()

	for i := 0; i < 25; i++ {
		w := postJSON(t, g.cashin, provider.InTouchCashinRequest{
			ServiceID:            "CASHINOMCIPART2",
			RecipientPhoneNumber: "0712345678",
			Amount:               1000,
			PartnerTransactionID: fmt.Sprintf("MTT170000000000%dAB", i),
		})
		if w.Code != http.StatusOK {
			t.Fatalf("cashin %d: status = %d", i, w.Code)
		}
	}
	wg.Wait()
}

func TestTransactionStatusLookup(t *testing.T) {
	g := newTestGateway()

	w := postJSON(t, g.payout, provider.InTouchPayoutRequest{
		IDFromClient:    "payment-9",
		Amount:          5000,
		RecipientNumber: "0112345678",
		ServiceCode:     "PAIEMENTMARCHAND_MOOV_CI",
	})
	var resp provider.InTouchResponse
	json.Unmarshal(w.Body.Bytes(), &resp)

	r := httptest.NewRequest("GET", "/transaction/"+resp.TransactionID, nil)
	r = muxSetID(r, resp.TransactionID)
	rec := httptest.NewRecorder()
	g.transactionStatus(rec, r)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var st provider.InTouchTransactionStatus
	json.Unmarshal(rec.Body.Bytes(), &st)
	if st.PartnerTransactionID != "payment-9" {
		t.Errorf("partner reference = %q", st.PartnerTransactionID)
	}
	if st.Status != string(money.GatewaySuccess) {
		t.Errorf("status = %s", st.Status)
	}

	// unknown ids are a 404
	r = httptest.NewRequest("GET", "/transaction/nope", nil)
	r = muxSetID(r, "nope")
	rec = httptest.NewRecorder()
	g.transactionStatus(rec, r)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown tx status = %d, want 404", rec.Code)
	}
}
