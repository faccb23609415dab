package websocket

import (
	"encoding/json"
	"time"
)

// Message types for WebSocket events
const (
	TypePayment   = "payment"
	TypeTransfer  = "transfer"
	TypeHealth    = "health"
	TypeHeartbeat = "heartbeat"
)

// Payment events
const (
	EventPaymentInitiated = "initiated"
	EventPaymentUpdated   = "status_updated"
	EventPaymentCompleted = "completed"
	EventPaymentFailed    = "failed"
	EventPaymentCancelled = "cancelled"
	EventPaymentExpired   = "expired"
)

// Transfer events
const (
	EventTransferDispatched = "dispatched"
	EventTransferCompleted  = "completed"
	EventTransferFailed     = "failed"
)

// Health events
const (
	EventGatewayHealthy   = "gateway_healthy"
	EventGatewayUnhealthy = "gateway_unhealthy"
)

// Message represents a WebSocket message
type Message struct {
	Type      string      `json:"type"`
	Event     string      `json:"event"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType, event string, data interface{}) *Message {
	return &Message{
		Type:      msgType,
		Event:     event,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the message to JSON bytes
func (m *Message) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// PaymentData represents payment event data
type PaymentData struct {
	PaymentID    string `json:"payment_id"`
	Reference    string `json:"reference"`
	LeaseID      string `json:"lease_id,omitempty"`
	Provider     string `json:"provider,omitempty"`
	Amount       int64  `json:"amount"`
	Status       string `json:"status"`
	ErrorCode    string `json:"error_code,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// TransferData represents landlord transfer event data
type TransferData struct {
	TransferID   string `json:"transfer_id"`
	PaymentID    string `json:"payment_id"`
	LandlordID   string `json:"landlord_id,omitempty"`
	Provider     string `json:"provider,omitempty"`
	Amount       int64  `json:"amount"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// HealthData represents gateway health event data
type HealthData struct {
	Gateway string `json:"gateway"`
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
}

// HeartbeatData represents heartbeat data
type HeartbeatData struct {
	ServerTime  time.Time `json:"server_time"`
	ClientCount int       `json:"client_count"`
}
