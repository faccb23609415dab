package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/montoit/payment-platform/internal/money"
	"github.com/montoit/payment-platform/internal/provider"
	"github.com/montoit/payment-platform/internal/store"
)

// handleInTouchWebhook finalizes payments from gateway callbacks. The
// gateway retries until it sees a 200, so every path through here is
// idempotent: replays of an already-final payment are acknowledged
// without side effects.
func (o *Orchestrator) handleInTouchWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	payload, err := provider.ParseWebhook(body)
	if err != nil {
		log.Printf("Rejected webhook: %v", err)
		http.Error(w, "Invalid webhook data", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	rec, err := o.store.GetPaymentByReference(ctx, payload.PartnerTransactionID)
	if err != nil {
		// Not ours, or not yet persisted. Acknowledge so the gateway
		// stops retrying a reference we will never recognize.
		log.Printf("Webhook for unknown reference %s", payload.PartnerTransactionID)
		writeJSON(w, http.StatusOK, map[string]string{"result": "ignored"})
		return
	}

	if rec.Status.IsFinal() {
		writeJSON(w, http.StatusOK, map[string]string{"result": "already_final"})
		return
	}

	mapped, ok := money.MapGatewayStatus(money.GatewayStatus(payload.Status))
	if !ok {
		// Unknown native statuses on the webhook path are treated as
		// still-processing so a later recognized callback can settle
		// the payment
		log.Printf("Unknown gateway status %q for payment %s, holding as processing", payload.Status, rec.ID)
		o.audit(ctx, rec.ID, "unknown_gateway_status", payload.Status)
		mapped = money.StatusProcessing
	}

	o.applyStatusChange(ctx, rec, mapped, payload.TransactionID, payload.ErrorMessage)

	writeJSON(w, http.StatusOK, map[string]string{"result": "processed"})
}

// applyStatusChange moves a payment to its new status and runs the
// completion side effects exactly once
func (o *Orchestrator) applyStatusChange(ctx context.Context, rec *store.PaymentRecord, status money.PaymentStatus, gatewayTxID, gatewayError string) {
	errorCode, errorMessage := "", ""
	switch status {
	case money.StatusFailed:
		pe := money.NewPaymentError(money.ErrProviderError)
		if gatewayError != "" {
			o.audit(ctx, rec.ID, "gateway_error", gatewayError)
		}
		errorCode, errorMessage = string(pe.Code), pe.Message
	case money.StatusCancelled:
		pe := money.NewPaymentError(money.ErrCancelledByUser)
		errorCode, errorMessage = string(pe.Code), pe.Message
	case money.StatusExpired:
		pe := money.NewPaymentError(money.ErrTransactionExpired)
		errorCode, errorMessage = string(pe.Code), pe.Message
	}

	if err := o.store.UpdatePaymentStatus(ctx, rec.ID, status, gatewayTxID, errorCode, errorMessage); err != nil {
		log.Printf("Failed to update payment %s to %s: %v", rec.ID, status, err)
		return
	}
	o.audit(ctx, rec.ID, "status_"+string(status), fmt.Sprintf("gateway_tx=%s", gatewayTxID))

	rec.Status = status
	if gatewayTxID != "" {
		rec.GatewayTransactionID = gatewayTxID
	}
	rec.ErrorCode = errorCode
	rec.ErrorMessage = errorMessage

	switch status {
	case money.StatusCompleted:
		o.events.EmitPaymentCompleted(rec)
		o.onPaymentCompleted(ctx, rec)
	case money.StatusFailed:
		o.events.EmitPaymentFailed(rec)
		o.notifyTenant(rec, fmt.Sprintf("Votre paiement de %d FCFA a échoué. %s", rec.TotalAmount, rec.ErrorMessage))
	default:
		o.events.EmitPaymentUpdated(rec)
	}
}

// onPaymentCompleted queues the landlord disbursement and sends the
// confirmation SMS. The transfer store absorbs replays, so a repeated
// completion webhook cannot double-pay a landlord.
func (o *Orchestrator) onPaymentCompleted(ctx context.Context, rec *store.PaymentRecord) {
	transfer := &store.TransferRecord{
		ID:          uuid.New().String(),
		PaymentID:   rec.ID,
		LandlordID:  rec.LandlordID,
		Provider:    rec.Provider,
		PhoneNumber: o.landlordPayoutNumber(ctx, rec),
		Amount:      rec.LandlordAmount,
		Status:      money.StatusPending,
	}
	if err := o.store.CreateTransfer(ctx, transfer); err != nil {
		log.Printf("Failed to queue transfer for payment %s: %v", rec.ID, err)
		o.audit(ctx, rec.ID, "transfer_queue_failed", err.Error())
	} else {
		o.audit(ctx, rec.ID, "transfer_queued", fmt.Sprintf("amount=%d landlord=%s", transfer.Amount, transfer.LandlordID))
	}

	o.notifyTenant(rec, fmt.Sprintf("Paiement de %d FCFA reçu pour votre loyer. Référence: %s", rec.TotalAmount, rec.Reference))
}

// landlordPayoutNumber resolves where the disbursement goes. Landlord
// profiles live outside this service; the payout number is cached per
// landlord and defaults to the paying number only as a last resort.
func (o *Orchestrator) landlordPayoutNumber(ctx context.Context, rec *store.PaymentRecord) string {
	var number string
	key := "landlord:payout:" + rec.LandlordID
	if err := o.cache.Get(ctx, key, &number); err == nil && number != "" {
		return number
	}
	return rec.PhoneNumber
}

// notifyTenant fires an SMS without blocking the request path
func (o *Orchestrator) notifyTenant(rec *store.PaymentRecord, message string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := o.gateway.SendSMS(ctx, rec.PhoneNumber, message); err != nil {
			log.Printf("SMS to %s failed: %v", rec.PhoneNumber, err)
		}
	}()
}
