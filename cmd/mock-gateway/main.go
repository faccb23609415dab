// cmd/mock-gateway/main.go
package main

import (
	"bytes"
	"encoding/json"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/montoit/payment-platform/internal/config"
	"github.com/montoit/payment-platform/internal/events"
	"github.com/montoit/payment-platform/internal/logger"
	"github.com/montoit/payment-platform/internal/money"
	"github.com/montoit/payment-platform/internal/provider"
)

// MockGateway simulates the aggregator: it accepts cashin and payout
// dispatches, settles them asynchronously after a configurable delay,
// and posts the settlement webhook back to the caller.
type MockGateway struct {
	mu          sync.RWMutex
	isHealthy   bool
	failureRate float64
	latency     time.Duration
	balance     float64
	txns        map[string]*mockTransaction
	stats       GatewayStats
	httpClient  *http.Client
	publisher   *events.Publisher
	log         *logger.Logger
}

type mockTransaction struct {
	TransactionID        string
	PartnerTransactionID string
	ServiceID            string
	PhoneNumber          string
	Amount               int64
	Status               money.GatewayStatus
	CallbackURL          string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

type GatewayStats struct {
	TotalRequests int     `json:"total_requests"`
	Successful    int     `json:"successful"`
	Failed        int     `json:"failed"`
	Payouts       int     `json:"payouts"`
	SMSSent       int     `json:"sms_sent"`
	SuccessRate   float64 `json:"success_rate"`
}

func NewMockGateway(failureRate float64, latency time.Duration) *MockGateway {
	return &MockGateway{
		isHealthy:   true,
		failureRate: failureRate,
		latency:     latency,
		balance:     50_000_000,
		txns:        make(map[string]*mockTransaction),
		httpClient:  &http.Client{Timeout: 5 * time.Second},
		log:         logger.New("mock-gateway"),
	}
}

func main() {
	cfg := config.Load()
	gateway := NewMockGateway(float64(cfg.MockFailureRate)/100, time.Duration(cfg.MockLatencyMs)*time.Millisecond)
	// Health transitions are announced to the orchestrator so dashboard
	// clients see gateway outages as they are simulated
	gateway.publisher = events.NewPublisher(cfg.CallbackBaseURL)

	r := mux.NewRouter()
	r.HandleFunc("/health", gateway.health).Methods("GET")
	r.HandleFunc("/cashin", gateway.cashin).Methods("POST")
	r.HandleFunc("/payout", gateway.payout).Methods("POST")
	r.HandleFunc("/transaction/{id}", gateway.transactionStatus).Methods("GET")
	r.HandleFunc("/balance", gateway.getBalance).Methods("GET")
	r.HandleFunc("/sms", gateway.sendSMS).Methods("POST")
	r.HandleFunc("/admin/config", gateway.configure).Methods("POST")
	r.HandleFunc("/admin/stats", gateway.getStats).Methods("GET")

	port := cfg.Port
	if port == "8080" {
		port = "8101"
	}
	gateway.log.Info("Mock gateway listening", "port", port, "failure_rate", gateway.failureRate)
	if err := http.ListenAndServe(":"+port, r); err != nil {
		gateway.log.Fatal("Server stopped", "error", err)
	}
}

func (g *MockGateway) cashin(w http.ResponseWriter, r *http.Request) {
	var req provider.InTouchCashinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Amount <= 0 || req.RecipientPhoneNumber == "" || req.ServiceID == "" {
		http.Error(w, "Missing required fields", http.StatusBadRequest)
		return
	}

	g.mu.Lock()
	g.stats.TotalRequests++
	healthy := g.isHealthy
	latency := g.latency
	g.mu.Unlock()

	time.Sleep(latency)

	w.Header().Set("Content-Type", "application/json")
	if !healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(provider.InTouchResponse{
			Status:  "FAILED",
			Message: "Gateway temporarily unavailable",
		})
		return
	}

	txn := &mockTransaction{
		TransactionID:        "ITC" + uuid.New().String()[:12],
		PartnerTransactionID: req.PartnerTransactionID,
		ServiceID:            req.ServiceID,
		PhoneNumber:          req.RecipientPhoneNumber,
		Amount:               req.Amount,
		Status:               money.GatewayPending,
		CallbackURL:          req.CallBackURL,
		CreatedAt:            time.Now(),
		UpdatedAt:            time.Now(),
	}
	g.mu.Lock()
	g.txns[txn.TransactionID] = txn
	g.mu.Unlock()

	// Customer confirmation simulated in the background
	go g.settle(txn)

	json.NewEncoder(w).Encode(provider.InTouchResponse{
		Status:        string(money.GatewayPending),
		Message:       "Cashin dispatched, awaiting customer confirmation",
		TransactionID: txn.TransactionID,
	})
}

func (g *MockGateway) payout(w http.ResponseWriter, r *http.Request) {
	var req provider.InTouchPayoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Amount <= 0 || req.RecipientNumber == "" || req.ServiceCode == "" {
		http.Error(w, "Missing required fields", http.StatusBadRequest)
		return
	}

	g.mu.Lock()
	g.stats.TotalRequests++
	g.stats.Payouts++
	enough := g.balance >= float64(req.Amount)
	if enough {
		g.balance -= float64(req.Amount)
	}
	latency := g.latency
	g.mu.Unlock()

	time.Sleep(latency)

	w.Header().Set("Content-Type", "application/json")
	if !enough {
		w.WriteHeader(http.StatusPaymentRequired)
		json.NewEncoder(w).Encode(provider.InTouchResponse{
			Status:  "FAILED",
			Code:    "INSUFFICIENT_BALANCE",
			Message: "Float balance too low for this payout",
		})
		return
	}

	txn := &mockTransaction{
		TransactionID:        "ITP" + uuid.New().String()[:12],
		PartnerTransactionID: req.IDFromClient,
		ServiceID:            req.ServiceCode,
		PhoneNumber:          req.RecipientNumber,
		Amount:               req.Amount,
		Status:               money.GatewaySuccess,
		CallbackURL:          req.Callback,
		CreatedAt:            time.Now(),
		UpdatedAt:            time.Now(),
	}
	g.mu.Lock()
	g.txns[txn.TransactionID] = txn
	g.stats.Successful++
	g.mu.Unlock()

	json.NewEncoder(w).Encode(provider.InTouchResponse{
		Status:        string(money.GatewaySuccess),
		Message:       "Payout executed",
		TransactionID: txn.TransactionID,
	})
}

// settle decides the outcome after a delay and fires the webhook
func (g *MockGateway) settle(txn *mockTransaction) {
	g.mu.RLock()
	latency := g.latency
	g.mu.RUnlock()
	time.Sleep(3 * latency)

	g.mu.Lock()
	outcome := money.GatewaySuccess
	if rand.Float64() < g.failureRate {
		outcome = money.GatewayFailed
		g.stats.Failed++
	} else {
		g.stats.Successful++
		g.balance += float64(txn.Amount)
	}
	txn.Status = outcome
	txn.UpdatedAt = time.Now()
	if g.stats.TotalRequests > 0 {
		g.stats.SuccessRate = float64(g.stats.Successful) / float64(g.stats.TotalRequests) * 100
	}
	g.mu.Unlock()

	if txn.CallbackURL == "" {
		return
	}

	payload := provider.WebhookPayload{
		TransactionID:        txn.TransactionID,
		PartnerTransactionID: txn.PartnerTransactionID,
		Status:               string(outcome),
		Amount:               txn.Amount,
		PhoneNumber:          txn.PhoneNumber,
		Timestamp:            time.Now().UTC().Format(time.RFC3339),
		ServiceID:            txn.ServiceID,
	}
	if outcome == money.GatewayFailed {
		payload.ErrorMessage = "Customer declined or insufficient wallet balance"
	}

	body, err := json.Marshal(payload)
	if err != nil {
		g.log.Error("Webhook marshal failed", "transaction_id", txn.TransactionID, "error", err)
		return
	}

	resp, err := g.httpClient.Post(txn.CallbackURL, "application/json", bytes.NewReader(body))
	if err != nil {
		g.log.Error("Webhook delivery failed", "callback_url", txn.CallbackURL, "error", err)
		return
	}
	resp.Body.Close()
	g.log.Info("Webhook delivered", "reference", txn.PartnerTransactionID, "status", string(outcome))
}

func (g *MockGateway) transactionStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	g.mu.RLock()
	txn, ok := g.txns[id]
	g.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "transaction not found"})
		return
	}

	json.NewEncoder(w).Encode(provider.InTouchTransactionStatus{
		TransactionID:        txn.TransactionID,
		PartnerTransactionID: txn.PartnerTransactionID,
		Status:               string(txn.Status),
		Amount:               txn.Amount,
		PhoneNumber:          txn.PhoneNumber,
		ServiceID:            txn.ServiceID,
		CreatedAt:            txn.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:            txn.UpdatedAt.UTC().Format(time.RFC3339),
	})
}

func (g *MockGateway) getBalance(w http.ResponseWriter, r *http.Request) {
	g.mu.RLock()
	balance := g.balance
	g.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(provider.InTouchBalance{
		Status:    "SUCCESS",
		Balance:   balance,
		Currency:  "XOF",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (g *MockGateway) sendSMS(w http.ResponseWriter, r *http.Request) {
	var req map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	g.mu.Lock()
	g.stats.SMSSent++
	g.mu.Unlock()

	g.log.Info("SMS sent", "recipient", req["recipient_phone_number"], "message", req["message"])
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "SUCCESS"})
}

// configure tunes the simulator at runtime
func (g *MockGateway) configure(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Healthy     *bool    `json:"healthy,omitempty"`
		FailureRate *float64 `json:"failure_rate,omitempty"`
		LatencyMs   *int     `json:"latency_ms,omitempty"`
		Balance     *float64 `json:"balance,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	g.mu.Lock()
	healthChanged := false
	if req.Healthy != nil && g.isHealthy != *req.Healthy {
		g.isHealthy = *req.Healthy
		healthChanged = true
	}
	if req.FailureRate != nil {
		g.failureRate = *req.FailureRate
	}
	if req.LatencyMs != nil {
		g.latency = time.Duration(*req.LatencyMs) * time.Millisecond
	}
	if req.Balance != nil {
		g.balance = *req.Balance
	}
	cfg := map[string]interface{}{
		"healthy":      g.isHealthy,
		"failure_rate": g.failureRate,
		"latency_ms":   g.latency.Milliseconds(),
		"balance":      g.balance,
	}
	healthy := g.isHealthy
	g.mu.Unlock()

	if healthChanged && g.publisher != nil {
		g.publisher.PublishGatewayHealth("intouch", healthy)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(cfg)
}

func (g *MockGateway) getStats(w http.ResponseWriter, r *http.Request) {
	g.mu.RLock()
	stats := g.stats
	g.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

func (g *MockGateway) health(w http.ResponseWriter, r *http.Request) {
	g.mu.RLock()
	healthy := g.isHealthy
	g.mu.RUnlock()

	status := "healthy"
	code := http.StatusOK
	if !healthy {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"service":   "mock-gateway",
		"status":    status,
		"timestamp": time.Now(),
	})
}
