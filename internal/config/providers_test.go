package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadProviders(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "providers.yaml")
	content := `
orange_money:
  base_url: https://api.orange.test/v1
  return_url: https://app.test/return
  cancel_url: https://app.test/cancel
  notify_url: https://app.test/notify

mtn_money:
  base_url: https://momo.test
  environment: sandbox

moov_money:
  base_url: https://moov.test
  callback_url: https://app.test/cb

wave:
  base_url: https://wave.test
  merchant_name: MonToit
  success_url: https://app.test/ok
  error_url: https://app.test/ko
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	endpoints, err := LoadProviders(path)
	if err != nil {
		t.Fatalf("LoadProviders: %v", err)
	}

	if endpoints.Orange.BaseURL != "https://api.orange.test/v1" {
		t.Errorf("orange base_url = %q", endpoints.Orange.BaseURL)
	}
	if endpoints.MTN.Environment != "sandbox" {
		t.Errorf("mtn environment = %q", endpoints.MTN.Environment)
	}
	if endpoints.Moov.CallbackURL != "https://app.test/cb" {
		t.Errorf("moov callback_url = %q", endpoints.Moov.CallbackURL)
	}
	if endpoints.Wave.MerchantName != "MonToit" {
		t.Errorf("wave merchant_name = %q", endpoints.Wave.MerchantName)
	}
}

func TestLoadProvidersMissingFile(t *testing.T) {
	if _, err := LoadProviders(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("a missing file should be an error")
	}
}

func TestLoadProvidersMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "providers.yaml")
	if err := os.WriteFile(path, []byte("{not yaml"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := LoadProviders(path); err == nil {
		t.Fatal("malformed yaml should be an error")
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.Port != "8080" {
		t.Errorf("default port = %q, want 8080", cfg.Port)
	}
	if cfg.TransferWorkers != 2 {
		t.Errorf("default transfer workers = %d, want 2", cfg.TransferWorkers)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("PROVIDER_TIMEOUT", "5s")
	t.Setenv("TRANSFER_WORKERS", "4")

	cfg := Load()
	if cfg.Port != "9090" {
		t.Errorf("port = %q, want 9090", cfg.Port)
	}
	if cfg.ProviderTimeout.Seconds() != 5 {
		t.Errorf("timeout = %s, want 5s", cfg.ProviderTimeout)
	}
	if cfg.TransferWorkers != 4 {
		t.Errorf("transfer workers = %d, want 4", cfg.TransferWorkers)
	}
}
