package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/montoit/payment-platform/internal/cache"
	"github.com/montoit/payment-platform/internal/config"
	"github.com/montoit/payment-platform/internal/database"
	"github.com/montoit/payment-platform/internal/money"
	"github.com/montoit/payment-platform/internal/provider"
	"github.com/montoit/payment-platform/internal/store"
	ws "github.com/montoit/payment-platform/internal/websocket"
)

// Cache is the slice of the Redis client the orchestrator needs
type Cache interface {
	SetNX(ctx context.Context, key, value string, expiration time.Duration) (bool, error)
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	HealthCheck() error
}

// Gateway is the aggregator surface used for payouts, status polls
// and SMS
type Gateway interface {
	Payout(ctx context.Context, p money.Provider, phoneNumber string, amount int64, reference string, recipient provider.InTouchRecipientDetails) (*provider.InTouchResponse, error)
	TransactionStatus(ctx context.Context, transactionID string) (*provider.InTouchTransactionStatus, error)
	Balance(ctx context.Context) (*provider.InTouchBalance, error)
	SendSMS(ctx context.Context, phoneNumber, message string) error
}

type Orchestrator struct {
	cfg      *config.Config
	store    store.Store
	cache    Cache
	registry *provider.Registry
	gateway  Gateway
	wsHub    *ws.Hub
	events   *EventEmitter
}

func main() {
	cfg := config.Load()
	log.Printf("Payment orchestrator starting on port %s", cfg.Port)

	db, err := database.Connect(cfg.DatabaseURL, database.Pool{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
	})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	redisCache, err := cache.NewRedisClient(cfg.RedisURL)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer redisCache.Close()

	repo := store.NewPostgres(db)

	endpoints, err := config.LoadProviders(cfg.ProvidersPath)
	if err != nil {
		log.Fatal("Failed to load provider endpoints:", err)
	}

	keystore := NewCachedKeystore(repo, redisCache)
	registry := buildRegistry(endpoints, keystore, cfg.ProviderTimeout)

	gateway := provider.NewInTouch(provider.InTouchConfig{
		BaseURL:     cfg.GatewayBaseURL,
		Username:    cfg.GatewayUsername,
		Password:    cfg.GatewayPassword,
		PartnerID:   cfg.GatewayPartner,
		LoginAPI:    cfg.GatewayLogin,
		PasswordAPI: cfg.GatewayLoginPwd,
		CallbackURL: cfg.CallbackBaseURL + "/webhooks/intouch",
		Timeout:     cfg.ProviderTimeout,
	})

	wsLogger := log.New(os.Stdout, "[WS-HUB] ", log.LstdFlags)
	wsHub := ws.NewHub(wsLogger)
	go wsHub.Run()

	orchestrator := &Orchestrator{
		cfg:      cfg,
		store:    repo,
		cache:    redisCache,
		registry: registry,
		gateway:  gateway,
		wsHub:    wsHub,
		events:   NewEventEmitter(wsHub),
	}

	// Background settlement of landlord transfers
	transferCtx, stopTransfers := context.WithCancel(context.Background())
	defer stopTransfers()
	for i := 0; i < cfg.TransferWorkers; i++ {
		go orchestrator.runTransferWorker(transferCtx)
	}

	r := mux.NewRouter()
	r.HandleFunc("/health", orchestrator.healthCheck).Methods("GET")
	r.HandleFunc("/ws", wsHub.ServeWs).Methods("GET")
	r.HandleFunc("/ws/stats", orchestrator.wsStats).Methods("GET")
	r.HandleFunc("/providers", orchestrator.listProviders).Methods("GET")
	r.HandleFunc("/providers/resolve", orchestrator.resolveProvider).Methods("GET")
	r.HandleFunc("/payments/quote", orchestrator.quotePayment).Methods("POST")
	r.HandleFunc("/payments/initiate", orchestrator.initiatePayment).Methods("POST")
	r.HandleFunc("/payments", orchestrator.listPayments).Methods("GET")
	r.HandleFunc("/payments/stats", orchestrator.paymentStats).Methods("GET")
	r.HandleFunc("/payments/{id}", orchestrator.getPayment).Methods("GET")
	r.HandleFunc("/payments/{id}/status", orchestrator.refreshPaymentStatus).Methods("POST")
	r.HandleFunc("/payments/{id}/cancel", orchestrator.cancelPayment).Methods("POST")
	r.HandleFunc("/payments/{id}/audit", orchestrator.paymentAudit).Methods("GET")
	r.HandleFunc("/transfers", orchestrator.listTransfers).Methods("GET")
	r.HandleFunc("/transfers/{id}", orchestrator.getTransfer).Methods("GET")
	r.HandleFunc("/transfers/{id}/dispatch", orchestrator.forceDispatchTransfer).Methods("POST")
	r.HandleFunc("/webhooks/intouch", orchestrator.handleInTouchWebhook).Methods("POST")
	r.HandleFunc("/internal/events", orchestrator.handleInternalEvent).Methods("POST")

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("Payment orchestrator listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	stopTransfers()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}

func buildRegistry(endpoints *config.ProviderEndpoints, keystore provider.Keystore, timeout time.Duration) *provider.Registry {
	registry := provider.NewRegistry()
	registry.Register(provider.NewOrangeAdapter(provider.OrangeConfig{
		BaseURL:   endpoints.Orange.BaseURL,
		ReturnURL: endpoints.Orange.ReturnURL,
		CancelURL: endpoints.Orange.CancelURL,
		NotifyURL: endpoints.Orange.NotifyURL,
	}, keystore, timeout))
	registry.Register(provider.NewMTNAdapter(provider.MTNConfig{
		BaseURL:     endpoints.MTN.BaseURL,
		Environment: endpoints.MTN.Environment,
	}, keystore, timeout))
	registry.Register(provider.NewMoovAdapter(provider.MoovConfig{
		BaseURL:     endpoints.Moov.BaseURL,
		CallbackURL: endpoints.Moov.CallbackURL,
	}, keystore, timeout))
	registry.Register(provider.NewWaveAdapter(provider.WaveConfig{
		BaseURL:      endpoints.Wave.BaseURL,
		MerchantName: endpoints.Wave.MerchantName,
		SuccessURL:   endpoints.Wave.SuccessURL,
		ErrorURL:     endpoints.Wave.ErrorURL,
	}, keystore, timeout))
	return registry
}

func (o *Orchestrator) healthCheck(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"service":   "payment-orchestrator",
		"status":    "healthy",
		"timestamp": time.Now(),
		"version":   "1.0.0",
		"dependencies": map[string]string{
			"database": o.checkDatabaseHealth(),
			"redis":    o.checkRedisHealth(),
			"gateway":  o.checkGatewayHealth(r.Context()),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}

func (o *Orchestrator) checkDatabaseHealth() string {
	if _, err := o.store.PaymentStats(context.Background()); err != nil {
		return "unhealthy"
	}
	return "healthy"
}

func (o *Orchestrator) checkRedisHealth() string {
	if err := o.cache.HealthCheck(); err != nil {
		return "unhealthy"
	}
	return "healthy"
}

func (o *Orchestrator) checkGatewayHealth(ctx context.Context) string {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := o.gateway.Balance(ctx); err != nil {
		return "unhealthy"
	}
	return "healthy"
}

// wsStats returns WebSocket hub statistics
func (o *Orchestrator) wsStats(w http.ResponseWriter, r *http.Request) {
	stats := o.wsHub.GetStats()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

// InternalEventRequest represents an internal event from other services
type InternalEventRequest struct {
	Type  string      `json:"type"`
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// handleInternalEvent receives events from other services and broadcasts them
func (o *Orchestrator) handleInternalEvent(w http.ResponseWriter, r *http.Request) {
	var req InternalEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	o.wsHub.BroadcastEvent(req.Type, req.Event, req.Data)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":      true,
		"client_count": o.wsHub.ClientCount(),
	})
}
