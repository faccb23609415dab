package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/montoit/payment-platform/internal/money"
)

func testPayment() *PaymentRecord {
	return &PaymentRecord{
		ID:             uuid.New().String(),
		Reference:      money.NewTransactionReference(),
		LeaseID:        "lease-1",
		TenantID:       "tenant-1",
		LandlordID:     "landlord-1",
		Provider:       money.OrangeMoney,
		PhoneNumber:    "0712345678",
		BaseAmount:     10000,
		ProviderFee:    150,
		PlatformFee:    500,
		TotalAmount:    10150,
		LandlordAmount: 9500,
		Status:         money.StatusPending,
	}
}

func TestMemoryPaymentLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	rec := testPayment()
	if err := m.CreatePayment(ctx, rec); err != nil {
		t.Fatalf("CreatePayment: %v", err)
	}

	got, err := m.GetPayment(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetPayment: %v", err)
	}
	if got.Status != money.StatusPending {
		t.Errorf("status = %s, want pending", got.Status)
	}
	if got.TotalAmount != 10150 {
		t.Errorf("total = %d, want 10150", got.TotalAmount)
	}

	byRef, err := m.GetPaymentByReference(ctx, rec.Reference)
	if err != nil {
		t.Fatalf("GetPaymentByReference: %v", err)
	}
	if byRef.ID != rec.ID {
		t.Errorf("reference lookup returned %s, want %s", byRef.ID, rec.ID)
	}

	if err := m.UpdatePaymentStatus(ctx, rec.ID, money.StatusCompleted, "itc-1", "", ""); err != nil {
		t.Fatalf("UpdatePaymentStatus: %v", err)
	}
	got, _ = m.GetPayment(ctx, rec.ID)
	if got.Status != money.StatusCompleted {
		t.Errorf("status = %s, want completed", got.Status)
	}
	if got.GatewayTransactionID != "itc-1" {
		t.Errorf("gateway tx = %q, want itc-1", got.GatewayTransactionID)
	}
	if got.CompletedAt == nil {
		t.Error("CompletedAt should be set on completion")
	}
}

func TestMemoryDuplicateReference(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	rec := testPayment()
	if err := m.CreatePayment(ctx, rec); err != nil {
		t.Fatalf("CreatePayment: %v", err)
	}

	dup := testPayment()
	dup.Reference = rec.Reference
	err := m.CreatePayment(ctx, dup)
	var pe *money.PaymentError
	if !errors.As(err, &pe) || pe.Code != money.ErrDuplicateTransaction {
		t.Fatalf("duplicate reference should give DUPLICATE_TRANSACTION, got %v", err)
	}
}

func TestMemoryNotFound(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if _, err := m.GetPayment(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetPayment(missing) = %v, want ErrNotFound", err)
	}
	if _, err := m.GetPaymentByReference(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetPaymentByReference(missing) = %v, want ErrNotFound", err)
	}
	if err := m.UpdatePaymentStatus(ctx, "missing", money.StatusFailed, "", "", ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdatePaymentStatus(missing) = %v, want ErrNotFound", err)
	}
	if _, err := m.GetAPIKey(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetAPIKey(missing) = %v, want ErrNotFound", err)
	}
}

func TestMemoryListPayments(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	for i := 0; i < 3; i++ {
		rec := testPayment()
		if i == 2 {
			rec.LeaseID = "lease-2"
			rec.Status = money.StatusCompleted
		}
		if err := m.CreatePayment(ctx, rec); err != nil {
			t.Fatalf("CreatePayment: %v", err)
		}
	}

	all, err := m.ListPayments(ctx, ListFilter{})
	if err != nil {
		t.Fatalf("ListPayments: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("unfiltered list = %d rows, want 3", len(all))
	}

	byLease, _ := m.ListPayments(ctx, ListFilter{LeaseID: "lease-1"})
	if len(byLease) != 2 {
		t.Errorf("lease-1 list = %d rows, want 2", len(byLease))
	}

	completed, _ := m.ListPayments(ctx, ListFilter{Status: money.StatusCompleted})
	if len(completed) != 1 {
		t.Errorf("completed list = %d rows, want 1", len(completed))
	}

	limited, _ := m.ListPayments(ctx, ListFilter{Limit: 2})
	if len(limited) != 2 {
		t.Errorf("limited list = %d rows, want 2", len(limited))
	}
}

func TestMemoryListPaymentsProviderAndDateFilters(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	orange := testPayment()
	if err := m.CreatePayment(ctx, orange); err != nil {
		t.Fatalf("CreatePayment: %v", err)
	}
	wave := testPayment()
	wave.Provider = money.Wave
	if err := m.CreatePayment(ctx, wave); err != nil {
		t.Fatalf("CreatePayment: %v", err)
	}

	byProvider, err := m.ListPayments(ctx, ListFilter{Provider: money.Wave})
	if err != nil {
		t.Fatalf("ListPayments: %v", err)
	}
	if len(byProvider) != 1 || byProvider[0].ID != wave.ID {
		t.Errorf("wave filter = %d rows", len(byProvider))
	}

	stored, _ := m.GetPayment(ctx, orange.ID)
	afterBoth := stored.CreatedAt.Add(time.Hour)
	beforeBoth := stored.CreatedAt.Add(-time.Hour)

	window, _ := m.ListPayments(ctx, ListFilter{From: beforeBoth, To: afterBoth})
	if len(window) != 2 {
		t.Errorf("window = %d rows, want 2", len(window))
	}
	past, _ := m.ListPayments(ctx, ListFilter{To: beforeBoth})
	if len(past) != 0 {
		t.Errorf("past window = %d rows, want 0", len(past))
	}
	future, _ := m.ListPayments(ctx, ListFilter{From: afterBoth})
	if len(future) != 0 {
		t.Errorf("future window = %d rows, want 0", len(future))
	}
}

func TestMemoryTransfers(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	tr := &TransferRecord{
		ID:          uuid.New().String(),
		PaymentID:   "pay-1",
		LandlordID:  "landlord-1",
		Provider:    money.Wave,
		PhoneNumber: "0712345678",
		Amount:      9500,
		Status:      money.StatusPending,
	}
	if err := m.CreateTransfer(ctx, tr); err != nil {
		t.Fatalf("CreateTransfer: %v", err)
	}

	// a repeat create for the same payment is silently absorbed
	again := *tr
	again.ID = uuid.New().String()
	if err := m.CreateTransfer(ctx, &again); err != nil {
		t.Fatalf("repeat CreateTransfer: %v", err)
	}
	got, err := m.GetTransferByPayment(ctx, "pay-1")
	if err != nil {
		t.Fatalf("GetTransferByPayment: %v", err)
	}
	if got.ID != tr.ID {
		t.Errorf("transfer id = %s, want the first create to win", got.ID)
	}

	pending, _ := m.ListPendingTransfers(ctx, 10)
	if len(pending) != 1 {
		t.Fatalf("pending = %d, want 1", len(pending))
	}

	if err := m.UpdateTransferStatus(ctx, tr.ID, money.StatusCompleted, "itc-9", ""); err != nil {
		t.Fatalf("UpdateTransferStatus: %v", err)
	}
	pending, _ = m.ListPendingTransfers(ctx, 10)
	if len(pending) != 0 {
		t.Errorf("pending after completion = %d, want 0", len(pending))
	}

	completed, _ := m.ListTransfers(ctx, money.StatusCompleted, 10)
	if len(completed) != 1 {
		t.Errorf("completed list = %d, want 1", len(completed))
	}
	all, _ := m.ListTransfers(ctx, "", 10)
	if len(all) != 1 {
		t.Errorf("unfiltered list = %d, want 1", len(all))
	}

	byID, err := m.GetTransfer(ctx, tr.ID)
	if err != nil {
		t.Fatalf("GetTransfer: %v", err)
	}
	if byID.Status != money.StatusCompleted {
		t.Errorf("status = %s, want completed", byID.Status)
	}
}

func TestMemoryClaimTransfer(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	tr := &TransferRecord{
		ID:          uuid.New().String(),
		PaymentID:   "pay-7",
		LandlordID:  "landlord-1",
		Provider:    money.MTNMoney,
		PhoneNumber: "0512345678",
		Amount:      9500,
		Status:      money.StatusPending,
	}
	if err := m.CreateTransfer(ctx, tr); err != nil {
		t.Fatalf("CreateTransfer: %v", err)
	}

	claimed, err := m.ClaimTransfer(ctx, tr.ID)
	if err != nil {
		t.Fatalf("ClaimTransfer: %v", err)
	}
	if claimed.Status != money.StatusProcessing {
		t.Errorf("status = %s, want processing", claimed.Status)
	}
	if claimed.Attempts != 1 {
		t.Errorf("attempts = %d, want 1", claimed.Attempts)
	}

	// an already-claimed transfer cannot be claimed again
	if _, err := m.ClaimTransfer(ctx, tr.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second claim error = %v, want ErrNotFound", err)
	}

	// requeue and reclaim counts the next attempt
	if err := m.UpdateTransferStatus(ctx, tr.ID, money.StatusPending, "", "timeout"); err != nil {
		t.Fatalf("UpdateTransferStatus: %v", err)
	}
	claimed, err = m.ClaimTransfer(ctx, tr.ID)
	if err != nil {
		t.Fatalf("reclaim: %v", err)
	}
	if claimed.Attempts != 2 {
		t.Errorf("attempts after reclaim = %d, want 2", claimed.Attempts)
	}
}

func TestMemoryAuditTrail(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	events := []string{"payment_created", "cashin_dispatched", "payment_completed"}
	for _, ev := range events {
		if err := m.AppendAudit(ctx, &AuditEntry{
			ID:        uuid.New().String(),
			PaymentID: "pay-1",
			Event:     ev,
		}); err != nil {
			t.Fatalf("AppendAudit(%s): %v", ev, err)
		}
	}

	trail, err := m.ListAudit(ctx, "pay-1")
	if err != nil {
		t.Fatalf("ListAudit: %v", err)
	}
	if len(trail) != len(events) {
		t.Fatalf("trail = %d entries, want %d", len(trail), len(events))
	}
	for i, ev := range events {
		if trail[i].Event != ev {
			t.Errorf("trail[%d] = %s, want %s (append order preserved)", i, trail[i].Event, ev)
		}
	}
}

func TestMemoryAPIKeys(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	creds := []byte(`{"api_key":"k1"}`)
	if err := m.PutAPIKey(ctx, "orange_money", creds); err != nil {
		t.Fatalf("PutAPIKey: %v", err)
	}

	rec, err := m.GetAPIKey(ctx, "orange_money")
	if err != nil {
		t.Fatalf("GetAPIKey: %v", err)
	}
	if string(rec.Credentials) != string(creds) {
		t.Errorf("credentials = %s", rec.Credentials)
	}

	// rotation overwrites
	if err := m.PutAPIKey(ctx, "orange_money", []byte(`{"api_key":"k2"}`)); err != nil {
		t.Fatalf("rotate PutAPIKey: %v", err)
	}
	rec, _ = m.GetAPIKey(ctx, "orange_money")
	if string(rec.Credentials) != `{"api_key":"k2"}` {
		t.Errorf("rotated credentials = %s", rec.Credentials)
	}
}
