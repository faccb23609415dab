package events

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Publisher sends events to the orchestrator's WebSocket hub
type Publisher struct {
	orchestratorURL string
	httpClient      *http.Client
}

// NewPublisher creates a new event publisher
func NewPublisher(orchestratorURL string) *Publisher {
	return &Publisher{
		orchestratorURL: orchestratorURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// Event represents an event to publish
type Event struct {
	Type  string      `json:"type"`
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Publish sends an event to the orchestrator
func (p *Publisher) Publish(ctx context.Context, eventType, eventName string, data interface{}) error {
	event := Event{
		Type:  eventType,
		Event: eventName,
		Data:  data,
	}

	jsonData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.orchestratorURL+"/internal/events", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("event rejected with status: %d", resp.StatusCode)
	}

	return nil
}

// PublishAsync sends an event asynchronously (fire and forget)
func (p *Publisher) PublishAsync(eventType, eventName string, data interface{}) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		// Ignore errors for async publishing
		p.Publish(ctx, eventType, eventName, data)
	}()
}

// Event type constants
const (
	TypePayment  = "payment"
	TypeTransfer = "transfer"
	TypeHealth   = "health"
)

// Payment event constants
const (
	PaymentInitiated = "initiated"
	PaymentUpdated   = "status_updated"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
	PaymentCancelled = "cancelled"
	PaymentExpired   = "expired"
)

// Transfer event constants
const (
	TransferDispatched = "dispatched"
	TransferCompleted  = "completed"
	TransferFailed     = "failed"
)

// Health event constants
const (
	GatewayHealthy   = "gateway_healthy"
	GatewayUnhealthy = "gateway_unhealthy"
)

// PaymentEventData represents a payment event payload
type PaymentEventData struct {
	PaymentID    string `json:"payment_id"`
	Reference    string `json:"reference"`
	LeaseID      string `json:"lease_id"`
	Provider     string `json:"provider"`
	Amount       int64  `json:"amount"`
	Status       string `json:"status"`
	ErrorCode    string `json:"error_code,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// TransferEventData represents a landlord transfer event payload
type TransferEventData struct {
	TransferID   string `json:"transfer_id"`
	PaymentID    string `json:"payment_id"`
	LandlordID   string `json:"landlord_id"`
	Provider     string `json:"provider"`
	Amount       int64  `json:"amount"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// HealthEventData represents a gateway health event payload
type HealthEventData struct {
	Gateway string `json:"gateway"`
	Status  string `json:"status"`
}

// PublishGatewayHealth publishes a gateway health transition
func (p *Publisher) PublishGatewayHealth(gateway string, healthy bool) {
	event := GatewayUnhealthy
	status := "unhealthy"
	if healthy {
		event = GatewayHealthy
		status = "healthy"
	}
	p.PublishAsync(TypeHealth, event, HealthEventData{Gateway: gateway, Status: status})
}

// PublishPaymentInitiated publishes a payment initiated event
func (p *Publisher) PublishPaymentInitiated(data PaymentEventData) {
	p.PublishAsync(TypePayment, PaymentInitiated, data)
}

// PublishPaymentCompleted publishes a payment completed event
func (p *Publisher) PublishPaymentCompleted(data PaymentEventData) {
	p.PublishAsync(TypePayment, PaymentCompleted, data)
}

// PublishPaymentFailed publishes a payment failed event
func (p *Publisher) PublishPaymentFailed(data PaymentEventData) {
	p.PublishAsync(TypePayment, PaymentFailed, data)
}

// PublishTransferDispatched publishes a transfer dispatched event
func (p *Publisher) PublishTransferDispatched(data TransferEventData) {
	p.PublishAsync(TypeTransfer, TransferDispatched, data)
}

// PublishTransferCompleted publishes a transfer completed event
func (p *Publisher) PublishTransferCompleted(data TransferEventData) {
	p.PublishAsync(TypeTransfer, TransferCompleted, data)
}

// PublishTransferFailed publishes a transfer failed event
func (p *Publisher) PublishTransferFailed(data TransferEventData) {
	p.PublishAsync(TypeTransfer, TransferFailed, data)
}
