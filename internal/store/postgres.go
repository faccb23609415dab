// internal/store/postgres.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/montoit/payment-platform/internal/database"
	"github.com/montoit/payment-platform/internal/money"
)

// Postgres implements Store on top of the shared connection pool
type Postgres struct {
	db *database.DB
}

// NewPostgres wraps an established connection
func NewPostgres(db *database.DB) *Postgres {
	return &Postgres{db: db}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (p *Postgres) CreatePayment(ctx context.Context, rec *PaymentRecord) error {
	query := `
		INSERT INTO payments (
			id, reference, lease_id, tenant_id, landlord_id,
			provider, phone_number,
			base_amount, provider_fee, platform_fee, total_amount, landlord_amount,
			status, gateway_transaction_id, payment_url,
			error_code, error_message, description,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		ON CONFLICT (reference) DO NOTHING`

	now := time.Now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	res, err := p.db.Conn.ExecContext(ctx, query,
		rec.ID, rec.Reference, rec.LeaseID, rec.TenantID, rec.LandlordID,
		string(rec.Provider), rec.PhoneNumber,
		rec.BaseAmount, rec.ProviderFee, rec.PlatformFee, rec.TotalAmount, rec.LandlordAmount,
		string(rec.Status), nullString(rec.GatewayTransactionID), nullString(rec.PaymentURL),
		nullString(rec.ErrorCode), nullString(rec.ErrorMessage), nullString(rec.Description),
		rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return money.NewPaymentError(money.ErrDuplicateTransaction)
	}
	return nil
}

const paymentColumns = `
	id, reference, lease_id, tenant_id, landlord_id,
	provider, phone_number,
	base_amount, provider_fee, platform_fee, total_amount, landlord_amount,
	status, gateway_transaction_id, payment_url,
	error_code, error_message, description,
	created_at, updated_at, completed_at`

func scanPayment(row *sql.Row) (*PaymentRecord, error) {
	var rec PaymentRecord
	var provider, status string
	var gatewayTxID, paymentURL, errorCode, errorMessage, description sql.NullString
	var completedAt sql.NullTime

	err := row.Scan(
		&rec.ID, &rec.Reference, &rec.LeaseID, &rec.TenantID, &rec.LandlordID,
		&provider, &rec.PhoneNumber,
		&rec.BaseAmount, &rec.ProviderFee, &rec.PlatformFee, &rec.TotalAmount, &rec.LandlordAmount,
		&status, &gatewayTxID, &paymentURL,
		&errorCode, &errorMessage, &description,
		&rec.CreatedAt, &rec.UpdatedAt, &completedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rec.Provider = money.Provider(provider)
	rec.Status = money.PaymentStatus(status)
	if gatewayTxID.Valid {
		rec.GatewayTransactionID = gatewayTxID.String
	}
	if paymentURL.Valid {
		rec.PaymentURL = paymentURL.String
	}
	if errorCode.Valid {
		rec.ErrorCode = errorCode.String
	}
	if errorMessage.Valid {
		rec.ErrorMessage = errorMessage.String
	}
	if description.Valid {
		rec.Description = description.String
	}
	if completedAt.Valid {
		rec.CompletedAt = &completedAt.Time
	}
	return &rec, nil
}

func (p *Postgres) GetPayment(ctx context.Context, id string) (*PaymentRecord, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	return scanPayment(p.db.Conn.QueryRowContext(ctx, query, id))
}

func (p *Postgres) GetPaymentByReference(ctx context.Context, reference string) (*PaymentRecord, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE reference = $1`
	return scanPayment(p.db.Conn.QueryRowContext(ctx, query, reference))
}

func (p *Postgres) UpdatePaymentStatus(ctx context.Context, id string, status money.PaymentStatus, gatewayTxID, errorCode, errorMessage string) error {
	query := `
		UPDATE payments
		SET status = $2,
			gateway_transaction_id = COALESCE($3, gateway_transaction_id),
			error_code = $4,
			error_message = $5,
			updated_at = NOW(),
			completed_at = CASE WHEN $2 = 'completed' THEN NOW() ELSE completed_at END
		WHERE id = $1`

	var txID interface{}
	if gatewayTxID != "" {
		txID = gatewayTxID
	}

	res, err := p.db.Conn.ExecContext(ctx, query, id, string(status), txID,
		nullString(errorCode), nullString(errorMessage))
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) ListPayments(ctx context.Context, filter ListFilter) ([]*PaymentRecord, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE 1=1`
	args := []interface{}{}

	if filter.LeaseID != "" {
		args = append(args, filter.LeaseID)
		query += fmt.Sprintf(" AND lease_id = $%d", len(args))
	}
	if filter.TenantID != "" {
		args = append(args, filter.TenantID)
		query += fmt.Sprintf(" AND tenant_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Provider != "" {
		args = append(args, string(filter.Provider))
		query += fmt.Sprintf(" AND provider = $%d", len(args))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		query += fmt.Sprintf(" AND created_at < $%d", len(args))
	}

	query += " ORDER BY created_at DESC"
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := p.db.Conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var payments []*PaymentRecord
	for rows.Next() {
		var rec PaymentRecord
		var provider, status string
		var gatewayTxID, paymentURL, errorCode, errorMessage, description sql.NullString
		var completedAt sql.NullTime

		if err := rows.Scan(
			&rec.ID, &rec.Reference, &rec.LeaseID, &rec.TenantID, &rec.LandlordID,
			&provider, &rec.PhoneNumber,
			&rec.BaseAmount, &rec.ProviderFee, &rec.PlatformFee, &rec.TotalAmount, &rec.LandlordAmount,
			&status, &gatewayTxID, &paymentURL,
			&errorCode, &errorMessage, &description,
			&rec.CreatedAt, &rec.UpdatedAt, &completedAt,
		); err != nil {
			return nil, err
		}

		rec.Provider = money.Provider(provider)
		rec.Status = money.PaymentStatus(status)
		if gatewayTxID.Valid {
			rec.GatewayTransactionID = gatewayTxID.String
		}
		if paymentURL.Valid {
			rec.PaymentURL = paymentURL.String
		}
		if errorCode.Valid {
			rec.ErrorCode = errorCode.String
		}
		if errorMessage.Valid {
			rec.ErrorMessage = errorMessage.String
		}
		if description.Valid {
			rec.Description = description.String
		}
		if completedAt.Valid {
			rec.CompletedAt = &completedAt.Time
		}
		payments = append(payments, &rec)
	}
	return payments, rows.Err()
}

func (p *Postgres) PaymentStats(ctx context.Context) (map[string]interface{}, error) {
	query := `
		SELECT
			COUNT(*) as total_payments,
			SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END) as completed,
			SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END) as failed,
			SUM(CASE WHEN status = 'completed' THEN total_amount ELSE 0 END) as total_volume
		FROM payments
		WHERE created_at > NOW() - INTERVAL '24 hours'`

	var stats struct {
		Total       sql.NullInt64
		Completed   sql.NullInt64
		Failed      sql.NullInt64
		TotalVolume sql.NullInt64
	}

	err := p.db.Conn.QueryRowContext(ctx, query).Scan(
		&stats.Total, &stats.Completed, &stats.Failed, &stats.TotalVolume,
	)
	if err != nil {
		return nil, fmt.Errorf("payment stats: %w", err)
	}

	total := stats.Total.Int64
	completed := stats.Completed.Int64

	successRate := float64(0)
	if total > 0 {
		successRate = float64(completed) / float64(total) * 100
	}

	return map[string]interface{}{
		"total_payments": total,
		"completed":      completed,
		"failed":         stats.Failed.Int64,
		"success_rate":   successRate,
		"total_volume":   stats.TotalVolume.Int64,
	}, nil
}

const transferColumns = `id, payment_id, landlord_id, provider, phone_number,
	amount, status, attempts, gateway_transaction_id, error_message,
	created_at, updated_at`

// rowScanner is satisfied by both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTransfer(row rowScanner) (*TransferRecord, error) {
	var tr TransferRecord
	var provider, status string
	var gatewayTxID, errorMessage sql.NullString

	err := row.Scan(
		&tr.ID, &tr.PaymentID, &tr.LandlordID, &provider, &tr.PhoneNumber,
		&tr.Amount, &status, &tr.Attempts, &gatewayTxID, &errorMessage,
		&tr.CreatedAt, &tr.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	tr.Provider = money.Provider(provider)
	tr.Status = money.PaymentStatus(status)
	if gatewayTxID.Valid {
		tr.GatewayTransactionID = gatewayTxID.String
	}
	if errorMessage.Valid {
		tr.ErrorMessage = errorMessage.String
	}
	return &tr, nil
}

func (p *Postgres) CreateTransfer(ctx context.Context, tr *TransferRecord) error {
	query := `
		INSERT INTO landlord_transfers (
			id, payment_id, landlord_id, provider, phone_number,
			amount, status, attempts, gateway_transaction_id, error_message,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (payment_id) DO NOTHING`

	now := time.Now()
	if tr.CreatedAt.IsZero() {
		tr.CreatedAt = now
	}
	tr.UpdatedAt = now

	_, err := p.db.Conn.ExecContext(ctx, query,
		tr.ID, tr.PaymentID, tr.LandlordID, string(tr.Provider), tr.PhoneNumber,
		tr.Amount, string(tr.Status), tr.Attempts, nullString(tr.GatewayTransactionID), nullString(tr.ErrorMessage),
		tr.CreatedAt, tr.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create transfer: %w", err)
	}
	return nil
}

func (p *Postgres) GetTransfer(ctx context.Context, id string) (*TransferRecord, error) {
	query := `SELECT ` + transferColumns + ` FROM landlord_transfers WHERE id = $1`
	return scanTransfer(p.db.Conn.QueryRowContext(ctx, query, id))
}

func (p *Postgres) GetTransferByPayment(ctx context.Context, paymentID string) (*TransferRecord, error) {
	query := `SELECT ` + transferColumns + ` FROM landlord_transfers WHERE payment_id = $1`
	return scanTransfer(p.db.Conn.QueryRowContext(ctx, query, paymentID))
}

func (p *Postgres) ClaimTransfer(ctx context.Context, id string) (*TransferRecord, error) {
	query := `
		UPDATE landlord_transfers
		SET status = 'processing',
			attempts = attempts + 1,
			updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + transferColumns

	return scanTransfer(p.db.Conn.QueryRowContext(ctx, query, id))
}

func (p *Postgres) UpdateTransferStatus(ctx context.Context, id string, status money.PaymentStatus, gatewayTxID, errorMessage string) error {
	query := `
		UPDATE landlord_transfers
		SET status = $2,
			gateway_transaction_id = COALESCE($3, gateway_transaction_id),
			error_message = $4,
			updated_at = NOW()
		WHERE id = $1`

	var txID interface{}
	if gatewayTxID != "" {
		txID = gatewayTxID
	}

	res, err := p.db.Conn.ExecContext(ctx, query, id, string(status), txID, nullString(errorMessage))
	if err != nil {
		return fmt.Errorf("update transfer status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) ListTransfers(ctx context.Context, status money.PaymentStatus, limit int) ([]*TransferRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := `SELECT ` + transferColumns + ` FROM landlord_transfers`
	args := []interface{}{}
	if status != "" {
		args = append(args, string(status))
		query += " WHERE status = $1"
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at ASC LIMIT $%d", len(args))

	rows, err := p.db.Conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	defer rows.Close()

	var transfers []*TransferRecord
	for rows.Next() {
		tr, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}
		transfers = append(transfers, tr)
	}
	return transfers, rows.Err()
}

func (p *Postgres) ListPendingTransfers(ctx context.Context, limit int) ([]*TransferRecord, error) {
	return p.ListTransfers(ctx, money.StatusPending, limit)
}

func (p *Postgres) AppendAudit(ctx context.Context, e *AuditEntry) error {
	query := `
		INSERT INTO payment_audit (id, payment_id, event, detail, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := p.db.Conn.ExecContext(ctx, query,
		e.ID, e.PaymentID, e.Event, nullString(e.Detail), e.CreatedAt)
	if err != nil {
		return fmt.Errorf("append audit: %w", err)
	}
	return nil
}

func (p *Postgres) ListAudit(ctx context.Context, paymentID string) ([]*AuditEntry, error) {
	query := `
		SELECT id, payment_id, event, detail, created_at
		FROM payment_audit
		WHERE payment_id = $1
		ORDER BY created_at ASC`

	rows, err := p.db.Conn.QueryContext(ctx, query, paymentID)
	if err != nil {
		return nil, fmt.Errorf("list audit: %w", err)
	}
	defer rows.Close()

	var entries []*AuditEntry
	for rows.Next() {
		var e AuditEntry
		var detail sql.NullString
		if err := rows.Scan(&e.ID, &e.PaymentID, &e.Event, &detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		if detail.Valid {
			e.Detail = detail.String
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

func (p *Postgres) GetAPIKey(ctx context.Context, service string) (*APIKeyRecord, error) {
	query := `SELECT service, credentials, updated_at FROM api_keys WHERE service = $1`

	var rec APIKeyRecord
	err := p.db.Conn.QueryRowContext(ctx, query, service).Scan(
		&rec.Service, &rec.Credentials, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (p *Postgres) PutAPIKey(ctx context.Context, service string, credentials []byte) error {
	query := `
		INSERT INTO api_keys (service, credentials, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (service) DO UPDATE
		SET credentials = EXCLUDED.credentials, updated_at = NOW()`

	_, err := p.db.Conn.ExecContext(ctx, query, service, credentials)
	if err != nil {
		return fmt.Errorf("put api key: %w", err)
	}
	return nil
}
