// internal/store/memory.go
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/montoit/payment-platform/internal/money"
)

// Memory is an in-process Store used by tests and the mock gateway.
// It enforces the same uniqueness rules as the Postgres schema.
type Memory struct {
	mu        sync.RWMutex
	payments  map[string]*PaymentRecord
	byRef     map[string]string
	transfers map[string]*TransferRecord
	byPayment map[string]string
	audit     map[string][]*AuditEntry
	keys      map[string]*APIKeyRecord
}

// NewMemory creates an empty in-process store
func NewMemory() *Memory {
	return &Memory{
		payments:  make(map[string]*PaymentRecord),
		byRef:     make(map[string]string),
		transfers: make(map[string]*TransferRecord),
		byPayment: make(map[string]string),
		audit:     make(map[string][]*AuditEntry),
		keys:      make(map[string]*APIKeyRecord),
	}
}

func (m *Memory) CreatePayment(_ context.Context, rec *PaymentRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byRef[rec.Reference]; ok {
		return money.NewPaymentError(money.ErrDuplicateTransaction)
	}

	now := time.Now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	cp := *rec
	m.payments[rec.ID] = &cp
	m.byRef[rec.Reference] = rec.ID
	return nil
}

func (m *Memory) GetPayment(_ context.Context, id string) (*PaymentRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.payments[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *Memory) GetPaymentByReference(ctx context.Context, reference string) (*PaymentRecord, error) {
	m.mu.RLock()
	id, ok := m.byRef[reference]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return m.GetPayment(ctx, id)
}

func (m *Memory) UpdatePaymentStatus(_ context.Context, id string, status money.PaymentStatus, gatewayTxID, errorCode, errorMessage string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.payments[id]
	if !ok {
		return ErrNotFound
	}
	rec.Status = status
	if gatewayTxID != "" {
		rec.GatewayTransactionID = gatewayTxID
	}
	rec.ErrorCode = errorCode
	rec.ErrorMessage = errorMessage
	rec.UpdatedAt = time.Now()
	if status == money.StatusCompleted && rec.CompletedAt == nil {
		now := time.Now()
		rec.CompletedAt = &now
	}
	return nil
}

func (m *Memory) ListPayments(_ context.Context, filter ListFilter) ([]*PaymentRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var all []*PaymentRecord
	for _, rec := range m.payments {
		if filter.LeaseID != "" && rec.LeaseID != filter.LeaseID {
			continue
		}
		if filter.TenantID != "" && rec.TenantID != filter.TenantID {
			continue
		}
		if filter.Status != "" && rec.Status != filter.Status {
			continue
		}
		if filter.Provider != "" && rec.Provider != filter.Provider {
			continue
		}
		if !filter.From.IsZero() && rec.CreatedAt.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && !rec.CreatedAt.Before(filter.To) {
			continue
		}
		cp := *rec
		all = append(all, &cp)
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(all) {
			return nil, nil
		}
		all = all[filter.Offset:]
	}
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (m *Memory) PaymentStats(_ context.Context) (map[string]interface{}, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var total, completed, failed, volume int64
	for _, rec := range m.payments {
		total++
		switch rec.Status {
		case money.StatusCompleted:
			completed++
			volume += rec.TotalAmount
		case money.StatusFailed:
			failed++
		}
	}

	successRate := float64(0)
	if total > 0 {
		successRate = float64(completed) / float64(total) * 100
	}
	return map[string]interface{}{
		"total_payments": total,
		"completed":      completed,
		"failed":         failed,
		"success_rate":   successRate,
		"total_volume":   volume,
	}, nil
}

func (m *Memory) CreateTransfer(_ context.Context, tr *TransferRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// one transfer per payment, repeat creates are no-ops
	if _, ok := m.byPayment[tr.PaymentID]; ok {
		return nil
	}

	now := time.Now()
	if tr.CreatedAt.IsZero() {
		tr.CreatedAt = now
	}
	tr.UpdatedAt = now

	cp := *tr
	m.transfers[tr.ID] = &cp
	m.byPayment[tr.PaymentID] = tr.ID
	return nil
}

func (m *Memory) GetTransfer(_ context.Context, id string) (*TransferRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tr, ok := m.transfers[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *tr
	return &cp, nil
}

func (m *Memory) GetTransferByPayment(_ context.Context, paymentID string) (*TransferRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byPayment[paymentID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *m.transfers[id]
	return &cp, nil
}

func (m *Memory) ClaimTransfer(_ context.Context, id string) (*TransferRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tr, ok := m.transfers[id]
	if !ok || tr.Status != money.StatusPending {
		return nil, ErrNotFound
	}
	tr.Status = money.StatusProcessing
	tr.Attempts++
	tr.UpdatedAt = time.Now()
	cp := *tr
	return &cp, nil
}

func (m *Memory) UpdateTransferStatus(_ context.Context, id string, status money.PaymentStatus, gatewayTxID, errorMessage string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tr, ok := m.transfers[id]
	if !ok {
		return ErrNotFound
	}
	tr.Status = status
	if gatewayTxID != "" {
		tr.GatewayTransactionID = gatewayTxID
	}
	tr.ErrorMessage = errorMessage
	tr.UpdatedAt = time.Now()
	return nil
}

func (m *Memory) ListTransfers(_ context.Context, status money.PaymentStatus, limit int) ([]*TransferRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var transfers []*TransferRecord
	for _, tr := range m.transfers {
		if status != "" && tr.Status != status {
			continue
		}
		cp := *tr
		transfers = append(transfers, &cp)
	}
	sort.Slice(transfers, func(i, j int) bool {
		return transfers[i].CreatedAt.Before(transfers[j].CreatedAt)
	})
	if len(transfers) > limit {
		transfers = transfers[:limit]
	}
	return transfers, nil
}

func (m *Memory) ListPendingTransfers(ctx context.Context, limit int) ([]*TransferRecord, error) {
	return m.ListTransfers(ctx, money.StatusPending, limit)
}

func (m *Memory) AppendAudit(_ context.Context, e *AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	cp := *e
	m.audit[e.PaymentID] = append(m.audit[e.PaymentID], &cp)
	return nil
}

func (m *Memory) ListAudit(_ context.Context, paymentID string) ([]*AuditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := make([]*AuditEntry, 0, len(m.audit[paymentID]))
	for _, e := range m.audit[paymentID] {
		cp := *e
		entries = append(entries, &cp)
	}
	return entries, nil
}

func (m *Memory) GetAPIKey(_ context.Context, service string) (*APIKeyRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.keys[service]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *Memory) PutAPIKey(_ context.Context, service string, credentials []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.keys[service] = &APIKeyRecord{
		Service:     service,
		Credentials: append([]byte(nil), credentials...),
		UpdatedAt:   time.Now(),
	}
	return nil
}
