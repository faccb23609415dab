// internal/store/repository.go
package store

import (
	"context"
	"errors"
	"time"

	"github.com/montoit/payment-platform/internal/money"
)

// ErrNotFound is returned when a lookup matches no row
var ErrNotFound = errors.New("store: not found")

// PaymentRecord is the persisted state of one rent payment
type PaymentRecord struct {
	ID                   string              `json:"id"`
	Reference            string              `json:"reference"`
	LeaseID              string              `json:"lease_id"`
	TenantID             string              `json:"tenant_id"`
	LandlordID           string              `json:"landlord_id"`
	Provider             money.Provider      `json:"provider"`
	PhoneNumber          string              `json:"phone_number"`
	BaseAmount           int64               `json:"base_amount"`
	ProviderFee          int64               `json:"provider_fee"`
	PlatformFee          int64               `json:"platform_fee"`
	TotalAmount          int64               `json:"total_amount"`
	LandlordAmount       int64               `json:"landlord_amount"`
	Status               money.PaymentStatus `json:"status"`
	GatewayTransactionID string              `json:"gateway_transaction_id,omitempty"`
	PaymentURL           string              `json:"payment_url,omitempty"`
	ErrorCode            string              `json:"error_code,omitempty"`
	ErrorMessage         string              `json:"error_message,omitempty"`
	Description          string              `json:"description,omitempty"`
	CreatedAt            time.Time           `json:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at"`
	CompletedAt          *time.Time          `json:"completed_at,omitempty"`
}

// TransferRecord is the persisted state of one landlord disbursement.
// A transfer is created when its payment completes and settles
// asynchronously through the gateway payout flow.
type TransferRecord struct {
	ID                   string              `json:"id"`
	PaymentID            string              `json:"payment_id"`
	LandlordID           string              `json:"landlord_id"`
	Provider             money.Provider      `json:"provider"`
	PhoneNumber          string              `json:"phone_number"`
	Amount               int64               `json:"amount"`
	Status               money.PaymentStatus `json:"status"`
	Attempts             int                 `json:"attempts"`
	GatewayTransactionID string              `json:"gateway_transaction_id,omitempty"`
	ErrorMessage         string              `json:"error_message,omitempty"`
	CreatedAt            time.Time           `json:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at"`
}

// AuditEntry is an append-only trail row. Detail carries the raw
// diagnostic text that never reaches users.
type AuditEntry struct {
	ID        string    `json:"id"`
	PaymentID string    `json:"payment_id"`
	Event     string    `json:"event"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// APIKeyRecord holds one service's credentials as an opaque JSON blob
type APIKeyRecord struct {
	Service     string    `json:"service"`
	Credentials []byte    `json:"credentials"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ListFilter narrows payment listings. Zero values mean "any".
type ListFilter struct {
	LeaseID  string
	TenantID string
	Status   money.PaymentStatus
	Provider money.Provider
	From     time.Time
	To       time.Time
	Limit    int
	Offset   int
}

// PaymentStore persists payments
type PaymentStore interface {
	CreatePayment(ctx context.Context, p *PaymentRecord) error
	GetPayment(ctx context.Context, id string) (*PaymentRecord, error)
	GetPaymentByReference(ctx context.Context, reference string) (*PaymentRecord, error)
	UpdatePaymentStatus(ctx context.Context, id string, status money.PaymentStatus, gatewayTxID, errorCode, errorMessage string) error
	ListPayments(ctx context.Context, filter ListFilter) ([]*PaymentRecord, error)
	PaymentStats(ctx context.Context) (map[string]interface{}, error)
}

// TransferStore persists landlord disbursements
type TransferStore interface {
	CreateTransfer(ctx context.Context, tr *TransferRecord) error
	GetTransfer(ctx context.Context, id string) (*TransferRecord, error)
	GetTransferByPayment(ctx context.Context, paymentID string) (*TransferRecord, error)
	// ClaimTransfer atomically moves a pending transfer to processing,
	// counting the attempt. ErrNotFound means the row was missing or
	// already claimed by another worker.
	ClaimTransfer(ctx context.Context, id string) (*TransferRecord, error)
	UpdateTransferStatus(ctx context.Context, id string, status money.PaymentStatus, gatewayTxID, errorMessage string) error
	ListTransfers(ctx context.Context, status money.PaymentStatus, limit int) ([]*TransferRecord, error)
	ListPendingTransfers(ctx context.Context, limit int) ([]*TransferRecord, error)
}

// AuditStore appends audit trail entries
type AuditStore interface {
	AppendAudit(ctx context.Context, e *AuditEntry) error
	ListAudit(ctx context.Context, paymentID string) ([]*AuditEntry, error)
}

// KeyStore persists provider credentials
type KeyStore interface {
	GetAPIKey(ctx context.Context, service string) (*APIKeyRecord, error)
	PutAPIKey(ctx context.Context, service string, credentials []byte) error
}

// Store is the full persistence surface the orchestrator needs
type Store interface {
	PaymentStore
	TransferStore
	AuditStore
	KeyStore
}
