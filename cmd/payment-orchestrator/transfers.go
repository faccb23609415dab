package main

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/montoit/payment-platform/internal/money"
	"github.com/montoit/payment-platform/internal/provider"
	"github.com/montoit/payment-platform/internal/store"
)

const (
	transferPollInterval = 30 * time.Second
	transferBatchSize    = 20
	// maxTransferAttempts is how many payout dispatches a transfer gets
	// before it is abandoned as failed instead of requeued
	maxTransferAttempts = 5
)

// runTransferWorker settles queued landlord disbursements through the
// gateway payout flow. Several workers can run concurrently; the
// claim transition makes each attempt visible to the others.
func (o *Orchestrator) runTransferWorker(ctx context.Context) {
	ticker := time.NewTicker(transferPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.settlePendingTransfers(ctx)
		}
	}
}

func (o *Orchestrator) settlePendingTransfers(ctx context.Context) {
	pending, err := o.store.ListPendingTransfers(ctx, transferBatchSize)
	if err != nil {
		log.Printf("Failed to list pending transfers: %v", err)
		return
	}

	for _, tr := range pending {
		if ctx.Err() != nil {
			return
		}
		o.dispatchTransfer(ctx, tr.ID)
	}
}

func (o *Orchestrator) dispatchTransfer(ctx context.Context, id string) {
	// The claim moves pending->processing and counts the attempt, so a
	// transfer another worker already took simply comes back not found
	tr, err := o.store.ClaimTransfer(ctx, id)
	if err != nil {
		return
	}

	resp, err := o.gateway.Payout(ctx, tr.Provider, tr.PhoneNumber, tr.Amount, tr.PaymentID, provider.InTouchRecipientDetails{})
	if err != nil {
		log.Printf("Payout for transfer %s failed (attempt %d): %v", tr.ID, tr.Attempts, err)
		if tr.Attempts >= maxTransferAttempts {
			// Out of attempts: surface the dead payout instead of
			// requeuing it forever
			if uerr := o.store.UpdateTransferStatus(ctx, tr.ID, money.StatusFailed, "", err.Error()); uerr != nil {
				log.Printf("Failed to abandon transfer %s: %v", tr.ID, uerr)
			}
			o.audit(ctx, tr.PaymentID, "transfer_abandoned", err.Error())
			tr.Status = money.StatusFailed
		} else {
			// Back to pending so the next cycle retries
			if uerr := o.store.UpdateTransferStatus(ctx, tr.ID, money.StatusPending, "", err.Error()); uerr != nil {
				log.Printf("Failed to requeue transfer %s: %v", tr.ID, uerr)
			}
			o.audit(ctx, tr.PaymentID, "transfer_retry", err.Error())
			tr.Status = money.StatusPending
		}
		tr.ErrorMessage = err.Error()
		o.events.EmitTransferFailed(tr)
		return
	}

	status := money.StatusProcessing
	if mapped, ok := money.MapGatewayStatus(money.GatewayStatus(resp.Status)); ok {
		status = mapped
	}

	if err := o.store.UpdateTransferStatus(ctx, tr.ID, status, resp.TransactionID, ""); err != nil {
		log.Printf("Failed to record payout for transfer %s: %v", tr.ID, err)
		return
	}
	o.audit(ctx, tr.PaymentID, "transfer_dispatched", "gateway_tx="+resp.TransactionID)

	tr.Status = status
	tr.GatewayTransactionID = resp.TransactionID
	if status == money.StatusCompleted {
		o.events.EmitTransferCompleted(tr)
	} else {
		o.events.EmitTransferDispatched(tr)
	}
}

// listTransfers returns disbursements, optionally narrowed by status
func (o *Orchestrator) listTransfers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	status := money.PaymentStatus(q.Get("status"))

	limit := 0
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	transfers, err := o.store.ListTransfers(r.Context(), status, limit)
	if err != nil {
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	if transfers == nil {
		transfers = []*store.TransferRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"transfers": transfers,
		"count":     len(transfers),
	})
}

// getTransfer returns one disbursement by id
func (o *Orchestrator) getTransfer(w http.ResponseWriter, r *http.Request) {
	tr, err := o.store.GetTransfer(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Transfer not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, tr)
}

// forceDispatchTransfer settles one pending transfer immediately
// instead of waiting for the next worker cycle
func (o *Orchestrator) forceDispatchTransfer(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	ctx := r.Context()

	tr, err := o.store.GetTransfer(ctx, id)
	if err != nil {
		http.Error(w, "Transfer not found", http.StatusNotFound)
		return
	}
	if tr.Status != money.StatusPending {
		writeJSON(w, http.StatusConflict, map[string]interface{}{
			"transfer_id": id,
			"status":      tr.Status,
			"error":       "only pending transfers can be dispatched",
		})
		return
	}

	o.dispatchTransfer(ctx, id)

	updated, err := o.store.GetTransfer(ctx, id)
	if err != nil {
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}
