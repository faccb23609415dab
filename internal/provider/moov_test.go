package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/montoit/payment-platform/internal/money"
)

func TestMoovCashin(t *testing.T) {
	var gotReq moovRequest
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/payments/init" {
			t.Errorf("path = %s, want /v1/payments/init", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(moovResponse{
			Success:       true,
			TransactionID: "moov-789",
			Status:        "PENDING",
		})
	}))
	t.Cleanup(srv.Close)

	adapter := NewMoovAdapter(MoovConfig{BaseURL: srv.URL, CallbackURL: "https://app.test/cb"}, testKeystore(), 5*time.Second)

	intent := testIntent()
	intent.Provider = money.MoovMoney
	intent.PhoneNumber = "0112345678"

	res, err := adapter.Cashin(context.Background(), intent)
	if err != nil {
		t.Fatalf("Cashin: %v", err)
	}

	if gotAuth != "Bearer moov-token" {
		t.Errorf("Authorization = %q, want Bearer moov-token", gotAuth)
	}
	if gotReq.MerchantID != "moov-merchant" {
		t.Errorf("merchant_id = %q, want moov-merchant", gotReq.MerchantID)
	}
	if gotReq.Phone != "0112345678" {
		t.Errorf("phone = %q, want 0112345678", gotReq.Phone)
	}
	if gotReq.CallbackURL != "https://app.test/cb" {
		t.Errorf("callback_url = %q", gotReq.CallbackURL)
	}

	if res.TransactionID != "moov-789" {
		t.Errorf("TransactionID = %q, want moov-789", res.TransactionID)
	}
	if res.Status != money.StatusProcessing {
		t.Errorf("Status = %s, want %s", res.Status, money.StatusProcessing)
	}
}

func TestMoovCashinRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(moovResponse{Success: false, Message: "wallet blocked"})
	}))
	t.Cleanup(srv.Close)

	adapter := NewMoovAdapter(MoovConfig{BaseURL: srv.URL}, testKeystore(), 5*time.Second)

	intent := testIntent()
	intent.Provider = money.MoovMoney

	_, err := adapter.Cashin(context.Background(), intent)
	var pe *money.PaymentError
	if !errors.As(err, &pe) {
		t.Fatalf("want *money.PaymentError, got %v", err)
	}
	if pe.Code != money.ErrProviderError {
		t.Errorf("code = %s, want %s", pe.Code, money.ErrProviderError)
	}
}

func TestMoovCashinUnmappedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(moovResponse{Success: true, TransactionID: "moov-1", Status: "REVERSED"})
	}))
	t.Cleanup(srv.Close)

	adapter := NewMoovAdapter(MoovConfig{BaseURL: srv.URL}, testKeystore(), 5*time.Second)

	intent := testIntent()
	intent.Provider = money.MoovMoney

	if _, err := adapter.Cashin(context.Background(), intent); err == nil {
		t.Fatal("an unmapped native status must not be coerced into a canonical one")
	}
}
