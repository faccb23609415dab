package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/montoit/payment-platform/internal/cache"
	"github.com/montoit/payment-platform/internal/provider"
	"github.com/montoit/payment-platform/internal/store"
)

const keystoreCacheTTL = 5 * time.Minute

// CachedKeystore resolves provider credentials from the database with
// a short Redis cache in front. Rotating a key in the api_keys table
// takes effect within the cache TTL.
type CachedKeystore struct {
	store store.KeyStore
	cache *cache.Client
}

// NewCachedKeystore wires the credential store
func NewCachedKeystore(s store.KeyStore, c *cache.Client) *CachedKeystore {
	return &CachedKeystore{store: s, cache: c}
}

// Credentials implements provider.Keystore
func (k *CachedKeystore) Credentials(ctx context.Context, service string) (provider.Credentials, error) {
	cacheKey := "apikey:" + service

	var creds provider.Credentials
	if k.cache != nil {
		if err := k.cache.Get(ctx, cacheKey, &creds); err == nil {
			return creds, nil
		}
	}

	rec, err := k.store.GetAPIKey(ctx, service)
	if err != nil {
		return provider.Credentials{}, fmt.Errorf("credentials for %s: %w", service, err)
	}
	if err := json.Unmarshal(rec.Credentials, &creds); err != nil {
		return provider.Credentials{}, fmt.Errorf("credentials for %s: malformed: %w", service, err)
	}

	if k.cache != nil {
		// best effort, a cache miss next time just rereads the table
		k.cache.Set(ctx, cacheKey, creds, keystoreCacheTTL)
	}
	return creds, nil
}
