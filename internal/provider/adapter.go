// internal/provider/adapter.go
package provider

import (
	"context"
	"fmt"

	"github.com/montoit/payment-platform/internal/money"
)

// Credentials is the authentication material for one provider API,
// sourced from the key store and never compiled in.
type Credentials struct {
	APIKey          string `json:"api_key"`
	MerchantID      string `json:"merchant_id"`
	APIUser         string `json:"api_user,omitempty"`
	SubscriptionKey string `json:"subscription_key,omitempty"`
}

// Keystore resolves credentials for a service name
type Keystore interface {
	Credentials(ctx context.Context, service string) (Credentials, error)
}

// CashinResult is the canonical outcome of a cashin dispatch
type CashinResult struct {
	TransactionID string
	Status        money.PaymentStatus
	PaymentURL    string
}

// Adapter hides one network's proprietary HTTP contract behind a
// uniform dispatch operation. Implementations translate a canonical
// intent into the provider's wire shape, and the provider's native
// status vocabulary back into the canonical enum. Failures are always
// surfaced as *money.PaymentError, never as raw HTTP errors.
type Adapter interface {
	Provider() money.Provider
	Name() string
	Cashin(ctx context.Context, intent money.Intent) (*CashinResult, error)
}

// Registry maps providers to their adapters. Adding a provider means
// adding one Adapter variant and one Register call.
type Registry struct {
	adapters map[money.Provider]Adapter
}

// NewRegistry creates an empty adapter registry
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[money.Provider]Adapter)}
}

// Register adds an adapter for its provider
func (r *Registry) Register(a Adapter) {
	r.adapters[a.Provider()] = a
}

// Get returns the adapter for a provider
func (r *Registry) Get(p money.Provider) (Adapter, error) {
	a, ok := r.adapters[p]
	if !ok {
		return nil, fmt.Errorf("no adapter registered for provider %s", p)
	}
	return a, nil
}

// Providers returns the providers with a registered adapter, in
// registry order
func (r *Registry) Providers() []money.Provider {
	providers := make([]money.Provider, 0, len(r.adapters))
	for _, p := range money.Providers {
		if _, ok := r.adapters[p]; ok {
			providers = append(providers, p)
		}
	}
	return providers
}

// mapNativeStatus resolves a provider-native status through the
// adapter's own table. An unmapped value is a contract defect and is
// surfaced, never coerced.
func mapNativeStatus(adapterName, native string, table map[string]money.PaymentStatus) (money.PaymentStatus, error) {
	status, ok := table[native]
	if !ok {
		return "", money.NewPaymentErrorf(money.ErrProviderError, "%s: unmapped native status %q", adapterName, native)
	}
	return status, nil
}
