package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/montoit/payment-platform/internal/money"
	"github.com/montoit/payment-platform/internal/store"
)

// duplicateWindow is how long an identical payment attempt is treated
// as a double submission rather than a retry
const duplicateWindow = 2 * time.Minute

type InitiateRequest struct {
	LeaseID       string `json:"lease_id"`
	TenantID      string `json:"tenant_id"`
	LandlordID    string `json:"landlord_id"`
	Amount        int64  `json:"amount"`
	Provider      string `json:"provider,omitempty"`
	PhoneNumber   string `json:"phone_number"`
	LandlordPhone string `json:"landlord_phone,omitempty"`
	Description   string `json:"description,omitempty"`
}

type InitiateResponse struct {
	PaymentID   string              `json:"payment_id"`
	Reference   string              `json:"reference"`
	Provider    money.Provider      `json:"provider"`
	Status      money.PaymentStatus `json:"status"`
	Fees        money.Calculation   `json:"fees"`
	PaymentURL  string              `json:"payment_url,omitempty"`
	UserMessage string              `json:"user_message,omitempty"`
}

type QuoteRequest struct {
	Amount      int64  `json:"amount"`
	Provider    string `json:"provider,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

type errorBody struct {
	ErrorCode   string `json:"error_code"`
	UserMessage string `json:"user_message"`
	Retryable   bool   `json:"retryable"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writePaymentError renders a canonical payment error. Internal detail
// stays in the logs and the audit trail; clients only get the code and
// the user-facing message.
func writePaymentError(w http.ResponseWriter, err error) {
	var pe *money.PaymentError
	if !errors.As(err, &pe) {
		log.Printf("Unclassified error reached handler: %v", err)
		pe = money.NewPaymentError(money.ErrUnknown)
	}

	status := http.StatusBadGateway
	switch pe.Code {
	case money.ErrInvalidPhone, money.ErrInvalidAmount, money.ErrInvalidOTP:
		status = http.StatusBadRequest
	case money.ErrDuplicateTransaction, money.ErrCancelledByUser, money.ErrTransactionExpired:
		status = http.StatusConflict
	case money.ErrInsufficientBalance:
		status = http.StatusPaymentRequired
	case money.ErrTimeout:
		status = http.StatusGatewayTimeout
	}

	writeJSON(w, status, errorBody{
		ErrorCode:   string(pe.Code),
		UserMessage: pe.Message,
		Retryable:   pe.Retryable,
	})
}

// resolveProviderFor settles the provider for a request, either from
// the explicit field or by prefix detection, then validates the pair
func resolveProviderFor(amount int64, phoneNumber, explicit string) (money.Provider, error) {
	var p money.Provider
	if explicit != "" {
		parsed, err := money.ParseProvider(explicit)
		if err != nil {
			return "", money.NewPaymentErrorf(money.ErrProviderError, "unknown provider %q", explicit)
		}
		p = parsed
	} else {
		detection := money.DetectProvider(phoneNumber)
		if !detection.IsValid || detection.Provider == "" {
			return "", money.NewPaymentError(money.ErrInvalidPhone).WithMessage(detection.Error)
		}
		p = detection.Provider
	}

	if err := money.ValidatePaymentRequest(amount, phoneNumber, p); err != nil {
		return "", err
	}
	return p, nil
}

func (o *Orchestrator) audit(ctx context.Context, paymentID, event, detail string) {
	entry := &store.AuditEntry{
		ID:        uuid.New().String(),
		PaymentID: paymentID,
		Event:     event,
		Detail:    detail,
	}
	if err := o.store.AppendAudit(ctx, entry); err != nil {
		log.Printf("Audit append failed for %s/%s: %v", paymentID, event, err)
	}
}

// failPayment records a dispatch failure. The stored error keeps the
// full canonical code, the user only ever sees pe.Message.
func (o *Orchestrator) failPayment(ctx context.Context, rec *store.PaymentRecord, err error) {
	var pe *money.PaymentError
	if !errors.As(err, &pe) {
		pe = money.NewPaymentError(money.ErrUnknown)
	}

	if uerr := o.store.UpdatePaymentStatus(ctx, rec.ID, money.StatusFailed, "", string(pe.Code), pe.Message); uerr != nil {
		log.Printf("Failed to mark payment %s failed: %v", rec.ID, uerr)
	}
	o.audit(ctx, rec.ID, "payment_failed", pe.Error())
	rec.Status = money.StatusFailed
	rec.ErrorCode = string(pe.Code)
	rec.ErrorMessage = pe.Message
	o.events.EmitPaymentFailed(rec)
}

func (o *Orchestrator) initiatePayment(w http.ResponseWriter, r *http.Request) {
	var req InitiateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.LeaseID == "" || req.TenantID == "" || req.LandlordID == "" {
		http.Error(w, "lease_id, tenant_id and landlord_id are required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	p, err := resolveProviderFor(req.Amount, req.PhoneNumber, req.Provider)
	if err != nil {
		writePaymentError(w, err)
		return
	}

	fees, err := money.Calculate(req.Amount, p)
	if err != nil {
		writePaymentError(w, err)
		return
	}

	// Same lease, same payer, same amount inside the window is a
	// double submission
	dupKey := fmt.Sprintf("payment:dup:%s:%s:%d", req.LeaseID, money.CleanPhoneNumber(req.PhoneNumber), req.Amount)
	acquired, err := o.cache.SetNX(ctx, dupKey, "1", duplicateWindow)
	if err != nil {
		log.Printf("Duplicate check unavailable, continuing: %v", err)
	} else if !acquired {
		writePaymentError(w, money.NewPaymentError(money.ErrDuplicateTransaction))
		return
	}

	reference := money.NewTransactionReference()
	paymentID := uuid.New().String()

	description := req.Description
	if description == "" {
		description = "Loyer " + req.LeaseID
	}

	rec := &store.PaymentRecord{
		ID:             paymentID,
		Reference:      reference,
		LeaseID:        req.LeaseID,
		TenantID:       req.TenantID,
		LandlordID:     req.LandlordID,
		Provider:       p,
		PhoneNumber:    money.CleanPhoneNumber(req.PhoneNumber),
		BaseAmount:     fees.BaseAmount,
		ProviderFee:    fees.ProviderFee,
		PlatformFee:    fees.PlatformFee,
		TotalAmount:    fees.TotalAmount,
		LandlordAmount: fees.LandlordAmount,
		Status:         money.StatusPending,
		Description:    description,
	}
	if err := o.store.CreatePayment(ctx, rec); err != nil {
		writePaymentError(w, err)
		return
	}
	o.audit(ctx, paymentID, "payment_created", fmt.Sprintf("provider=%s total=%d", p, fees.TotalAmount))
	o.events.EmitPaymentInitiated(rec)

	adapter, err := o.registry.Get(p)
	if err != nil {
		o.failPayment(ctx, rec, money.NewPaymentErrorf(money.ErrProviderError, "%v", err))
		writePaymentError(w, money.NewPaymentError(money.ErrProviderError))
		return
	}

	result, err := adapter.Cashin(ctx, money.Intent{
		LeaseID:     req.LeaseID,
		Amount:      fees.TotalAmount,
		Provider:    p,
		PhoneNumber: rec.PhoneNumber,
		Reference:   reference,
		Description: description,
	})
	if err != nil {
		o.failPayment(ctx, rec, err)
		writePaymentError(w, err)
		return
	}

	if err := o.store.UpdatePaymentStatus(ctx, paymentID, result.Status, result.TransactionID, "", ""); err != nil {
		log.Printf("Failed to record dispatch for %s: %v", paymentID, err)
	}
	o.audit(ctx, paymentID, "cashin_dispatched", fmt.Sprintf("adapter=%s tx=%s", adapter.Name(), result.TransactionID))

	writeJSON(w, http.StatusCreated, InitiateResponse{
		PaymentID:   paymentID,
		Reference:   reference,
		Provider:    p,
		Status:      result.Status,
		Fees:        fees,
		PaymentURL:  result.PaymentURL,
		UserMessage: fmt.Sprintf("Paiement de %d FCFA initié via %s", fees.TotalAmount, p.DisplayName()),
	})
}

// quotePayment returns the fee breakdown without creating anything
func (o *Orchestrator) quotePayment(w http.ResponseWriter, r *http.Request) {
	var req QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	var p money.Provider
	if req.Provider != "" {
		parsed, err := money.ParseProvider(req.Provider)
		if err != nil {
			writePaymentError(w, money.NewPaymentErrorf(money.ErrProviderError, "unknown provider %q", req.Provider))
			return
		}
		p = parsed
	} else {
		detection := money.DetectProvider(req.PhoneNumber)
		if !detection.IsValid || detection.Provider == "" {
			writePaymentError(w, money.NewPaymentError(money.ErrInvalidPhone).WithMessage(detection.Error))
			return
		}
		p = detection.Provider
	}

	fees, err := money.Calculate(req.Amount, p)
	if err != nil {
		writePaymentError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"provider":     p,
		"display_name": p.DisplayName(),
		"fees":         fees,
	})
}

func (o *Orchestrator) getPayment(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	rec, err := o.store.GetPayment(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "Payment not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// parseDateParam accepts RFC3339 timestamps or bare dates
func parseDateParam(v string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, v); err == nil {
		return ts, nil
	}
	return time.Parse("2006-01-02", v)
}

func (o *Orchestrator) listPayments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.ListFilter{
		LeaseID:  q.Get("lease_id"),
		TenantID: q.Get("tenant_id"),
		Status:   money.PaymentStatus(q.Get("status")),
		Provider: money.Provider(q.Get("provider")),
	}
	if v := q.Get("from"); v != "" {
		if ts, err := parseDateParam(v); err == nil {
			filter.From = ts
		}
	}
	if v := q.Get("to"); v != "" {
		if ts, err := parseDateParam(v); err == nil {
			filter.To = ts
		}
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}

	payments, err := o.store.ListPayments(r.Context(), filter)
	if err != nil {
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	if payments == nil {
		payments = []*store.PaymentRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"payments": payments,
		"count":    len(payments),
	})
}

func (o *Orchestrator) paymentStats(w http.ResponseWriter, r *http.Request) {
	stats, err := o.store.PaymentStats(r.Context())
	if err != nil {
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (o *Orchestrator) paymentAudit(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	trail, err := o.store.ListAudit(r.Context(), id)
	if err != nil {
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	if trail == nil {
		trail = []*store.AuditEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"payment_id": id,
		"entries":    trail,
	})
}

// refreshPaymentStatus polls the gateway for payments stuck in a
// non-final state and applies the mapped status
func (o *Orchestrator) refreshPaymentStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	ctx := r.Context()

	rec, err := o.store.GetPayment(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "Payment not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	// Final statuses never move again
	if rec.Status.IsFinal() {
		writeJSON(w, http.StatusOK, rec)
		return
	}
	if rec.GatewayTransactionID == "" {
		writeJSON(w, http.StatusOK, rec)
		return
	}

	gwStatus, err := o.gateway.TransactionStatus(ctx, rec.GatewayTransactionID)
	if err != nil {
		writePaymentError(w, err)
		return
	}

	mapped, ok := money.MapGatewayStatus(money.GatewayStatus(gwStatus.Status))
	if !ok {
		// An unknown native status on the poll path is logged and the
		// payment left processing until a recognized status arrives
		log.Printf("Unknown gateway status %q for payment %s", gwStatus.Status, id)
		o.audit(ctx, id, "unknown_gateway_status", gwStatus.Status)
		writeJSON(w, http.StatusOK, rec)
		return
	}

	if mapped != rec.Status {
		o.applyStatusChange(ctx, rec, mapped, gwStatus.TransactionID, gwStatus.ErrorMessage)
	}
	updated, err := o.store.GetPayment(ctx, id)
	if err != nil {
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// cancelPayment aborts a payment that has not reached a final state
func (o *Orchestrator) cancelPayment(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	ctx := r.Context()

	rec, err := o.store.GetPayment(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "Payment not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	if rec.Status.IsFinal() {
		writePaymentError(w, money.NewPaymentErrorf(money.ErrTransactionExpired, "payment already %s", rec.Status).
			WithMessage(fmt.Sprintf("Ce paiement est déjà %s et ne peut plus être annulé", rec.Status)))
		return
	}

	pe := money.NewPaymentError(money.ErrCancelledByUser)
	if err := o.store.UpdatePaymentStatus(ctx, id, money.StatusCancelled, "", string(pe.Code), pe.Message); err != nil {
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	o.audit(ctx, id, "payment_cancelled", "cancelled via API")

	rec.Status = money.StatusCancelled
	rec.ErrorCode = string(pe.Code)
	rec.ErrorMessage = pe.Message
	o.events.EmitPaymentUpdated(rec)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"payment_id":   id,
		"status":       money.StatusCancelled,
		"user_message": pe.Message,
	})
}

// listProviders describes the supported networks with their fee rates
func (o *Orchestrator) listProviders(w http.ResponseWriter, r *http.Request) {
	type providerInfo struct {
		Provider    money.Provider `json:"provider"`
		DisplayName string         `json:"display_name"`
		FeeRate     float64        `json:"fee_rate"`
		Prefixes    []string       `json:"prefixes"`
	}

	providers := make([]providerInfo, 0, len(money.Providers))
	for _, p := range o.registry.Providers() {
		profile, err := money.GetProfile(p)
		if err != nil {
			continue
		}
		providers = append(providers, providerInfo{
			Provider:    p,
			DisplayName: profile.DisplayName,
			FeeRate:     profile.FeeRate,
			Prefixes:    profile.Prefixes,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"providers": providers,
	})
}

// resolveProvider detects the operator for a phone number
func (o *Orchestrator) resolveProvider(w http.ResponseWriter, r *http.Request) {
	phone := r.URL.Query().Get("phone")
	if phone == "" {
		http.Error(w, "phone query parameter is required", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, money.DetectProvider(phone))
}
