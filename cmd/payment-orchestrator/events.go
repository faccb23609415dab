package main

import (
	"github.com/montoit/payment-platform/internal/store"
	ws "github.com/montoit/payment-platform/internal/websocket"
)

// EventEmitter handles emitting events to WebSocket clients
type EventEmitter struct {
	hub *ws.Hub
}

// NewEventEmitter creates a new event emitter
func NewEventEmitter(hub *ws.Hub) *EventEmitter {
	return &EventEmitter{hub: hub}
}

func paymentData(rec *store.PaymentRecord) ws.PaymentData {
	return ws.PaymentData{
		PaymentID:    rec.ID,
		Reference:    rec.Reference,
		LeaseID:      rec.LeaseID,
		Provider:     string(rec.Provider),
		Amount:       rec.TotalAmount,
		Status:       string(rec.Status),
		ErrorCode:    rec.ErrorCode,
		ErrorMessage: rec.ErrorMessage,
	}
}

func transferData(tr *store.TransferRecord) ws.TransferData {
	return ws.TransferData{
		TransferID:   tr.ID,
		PaymentID:    tr.PaymentID,
		LandlordID:   tr.LandlordID,
		Provider:     string(tr.Provider),
		Amount:       tr.Amount,
		Status:       string(tr.Status),
		ErrorMessage: tr.ErrorMessage,
	}
}

// EmitPaymentInitiated emits a payment initiated event
func (e *EventEmitter) EmitPaymentInitiated(rec *store.PaymentRecord) {
	if e.hub == nil {
		return
	}
	e.hub.BroadcastEvent(ws.TypePayment, ws.EventPaymentInitiated, paymentData(rec))
}

// EmitPaymentUpdated emits a status change that is not terminal
func (e *EventEmitter) EmitPaymentUpdated(rec *store.PaymentRecord) {
	if e.hub == nil {
		return
	}
	e.hub.BroadcastEvent(ws.TypePayment, ws.EventPaymentUpdated, paymentData(rec))
}

// EmitPaymentCompleted emits a payment completed event
func (e *EventEmitter) EmitPaymentCompleted(rec *store.PaymentRecord) {
	if e.hub == nil {
		return
	}
	e.hub.BroadcastEvent(ws.TypePayment, ws.EventPaymentCompleted, paymentData(rec))
}

// EmitPaymentFailed emits a payment failed event
func (e *EventEmitter) EmitPaymentFailed(rec *store.PaymentRecord) {
	if e.hub == nil {
		return
	}
	e.hub.BroadcastEvent(ws.TypePayment, ws.EventPaymentFailed, paymentData(rec))
}

// EmitTransferDispatched emits a transfer dispatched event
func (e *EventEmitter) EmitTransferDispatched(tr *store.TransferRecord) {
	if e.hub == nil {
		return
	}
	e.hub.BroadcastEvent(ws.TypeTransfer, ws.EventTransferDispatched, transferData(tr))
}

// EmitTransferCompleted emits a transfer completed event
func (e *EventEmitter) EmitTransferCompleted(tr *store.TransferRecord) {
	if e.hub == nil {
		return
	}
	e.hub.BroadcastEvent(ws.TypeTransfer, ws.EventTransferCompleted, transferData(tr))
}

// EmitTransferFailed emits a transfer failed event
func (e *EventEmitter) EmitTransferFailed(tr *store.TransferRecord) {
	if e.hub == nil {
		return
	}
	e.hub.BroadcastEvent(ws.TypeTransfer, ws.EventTransferFailed, transferData(tr))
}
