package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"github.com/montoit/payment-platform/internal/money"
	"github.com/montoit/payment-platform/internal/store"
)

// queuedTransfer completes a payment through the webhook path so a
// pending disbursement exists
func queuedTransfer(t *testing.T, o *Orchestrator) *store.TransferRecord {
	t.Helper()
	rec := initiateTestPayment(t, o)
	postWebhook(o, webhookBody(t, rec, "SUCCESS", ""))
	tr, err := o.store.GetTransferByPayment(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("queued transfer: %v", err)
	}
	return tr
}

func TestTransferAbandonedAfterMaxAttempts(t *testing.T) {
	o, gateway, _ := newTestOrchestrator(t)
	tr := queuedTransfer(t, o)

	gateway.mu.Lock()
	gateway.payoutErr = money.NewPaymentError(money.ErrProviderError)
	gateway.mu.Unlock()

	for i := 0; i < maxTransferAttempts; i++ {
		o.settlePendingTransfers(context.Background())
	}

	dead, err := o.store.GetTransfer(context.Background(), tr.ID)
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if dead.Status != money.StatusFailed {
		t.Fatalf("status = %s, want failed after %d attempts", dead.Status, maxTransferAttempts)
	}
	if dead.Attempts != maxTransferAttempts {
		t.Errorf("attempts = %d, want %d", dead.Attempts, maxTransferAttempts)
	}

	events := auditEvents(t, o, tr.PaymentID)
	if !containsEvent(events, "transfer_abandoned") {
		t.Errorf("audit events = %v, want transfer_abandoned", events)
	}

	// an abandoned transfer is out of the worker's reach
	o.settlePendingTransfers(context.Background())
	after, _ := o.store.GetTransfer(context.Background(), tr.ID)
	if after.Attempts != maxTransferAttempts {
		t.Errorf("attempts after abandonment = %d, want %d", after.Attempts, maxTransferAttempts)
	}
}

func TestListTransfersEndpoint(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)
	tr := queuedTransfer(t, o)

	req := httptest.NewRequest("GET", "/transfers?status=pending", nil)
	w := httptest.NewRecorder()
	o.listTransfers(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp struct {
		Transfers []*store.TransferRecord `json:"transfers"`
		Count     int                     `json:"count"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Count != 1 || len(resp.Transfers) != 1 {
		t.Fatalf("count = %d, transfers = %d", resp.Count, len(resp.Transfers))
	}
	if resp.Transfers[0].ID != tr.ID {
		t.Errorf("transfer id = %s, want %s", resp.Transfers[0].ID, tr.ID)
	}

	// completed filter matches nothing yet
	req = httptest.NewRequest("GET", "/transfers?status=completed", nil)
	w = httptest.NewRecorder()
	o.listTransfers(w, req)
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Count != 0 {
		t.Errorf("completed count = %d, want 0", resp.Count)
	}
}

func TestForceDispatchTransfer(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)
	tr := queuedTransfer(t, o)

	req := httptest.NewRequest("POST", "/transfers/"+tr.ID+"/dispatch", nil)
	req = mux.SetURLVars(req, map[string]string{"id": tr.ID})
	w := httptest.NewRecorder()
	o.forceDispatchTransfer(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var settled store.TransferRecord
	json.Unmarshal(w.Body.Bytes(), &settled)
	if settled.Status != money.StatusCompleted {
		t.Errorf("status = %s, want completed", settled.Status)
	}

	// a settled transfer cannot be dispatched again
	req = httptest.NewRequest("POST", "/transfers/"+tr.ID+"/dispatch", nil)
	req = mux.SetURLVars(req, map[string]string{"id": tr.ID})
	w = httptest.NewRecorder()
	o.forceDispatchTransfer(w, req)
	if w.Code != http.StatusConflict {
		t.Errorf("second dispatch status = %d, want 409", w.Code)
	}
}

func TestGetTransferNotFound(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)

	req := httptest.NewRequest("GET", "/transfers/missing", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "missing"})
	w := httptest.NewRecorder()
	o.getTransfer(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}
