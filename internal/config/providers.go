package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// ProviderEndpoints is the per-network endpoint block in
// configs/providers.yaml. Only the networks with a direct integration
// appear; the aggregator gateway is configured by environment.
type ProviderEndpoints struct {
	Orange struct {
		BaseURL   string `yaml:"base_url"`
		ReturnURL string `yaml:"return_url"`
		CancelURL string `yaml:"cancel_url"`
		NotifyURL string `yaml:"notify_url"`
	} `yaml:"orange_money"`
	MTN struct {
		BaseURL     string `yaml:"base_url"`
		Environment string `yaml:"environment"`
	} `yaml:"mtn_money"`
	Moov struct {
		BaseURL     string `yaml:"base_url"`
		CallbackURL string `yaml:"callback_url"`
	} `yaml:"moov_money"`
	Wave struct {
		BaseURL      string `yaml:"base_url"`
		MerchantName string `yaml:"merchant_name"`
		SuccessURL   string `yaml:"success_url"`
		ErrorURL     string `yaml:"error_url"`
	} `yaml:"wave"`
}

// LoadProviders reads the provider endpoint file
func LoadProviders(path string) (*ProviderEndpoints, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read providers config: %w", err)
	}

	var endpoints ProviderEndpoints
	if err := yaml.Unmarshal(data, &endpoints); err != nil {
		return nil, fmt.Errorf("parse providers config: %w", err)
	}
	return &endpoints, nil
}
