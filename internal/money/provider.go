// internal/money/provider.go
package money

import "fmt"

// Provider identifies a Mobile Money network
type Provider string

const (
	OrangeMoney Provider = "orange_money"
	MTNMoney    Provider = "mtn_money"
	MoovMoney   Provider = "moov_money"
	Wave        Provider = "wave"
)

// Providers lists every supported network in registry order. Prefix
// detection walks this slice front to back, so the order is part of the
// detection contract.
var Providers = []Provider{OrangeMoney, MTNMoney, MoovMoney, Wave}

// Profile holds the static registry entry for one provider
type Profile struct {
	Provider        Provider
	DisplayName     string
	Prefixes        []string
	FeeRate         float64
	CashinServiceID string
	PayoutServiceID string
}

// profiles is the compiled-in provider registry. Prefix sets must stay
// disjoint across providers; overlap is a configuration defect, not
// something detection resolves.
var profiles = map[Provider]Profile{
	OrangeMoney: {
		Provider:        OrangeMoney,
		DisplayName:     "Orange Money",
		Prefixes:        []string{"07", "227"},
		FeeRate:         1.5,
		CashinServiceID: "CASHINOMCIPART2",
		PayoutServiceID: "PAIEMENTMARCHANDOMPAYCIDIRECT",
	},
	MTNMoney: {
		Provider:        MTNMoney,
		DisplayName:     "MTN Money",
		Prefixes:        []string{"05", "054", "055", "056"},
		FeeRate:         1.5,
		CashinServiceID: "CASHINMTNPART2",
		PayoutServiceID: "PAIEMENTMARCHAND_MTN_CI",
	},
	MoovMoney: {
		Provider:        MoovMoney,
		DisplayName:     "Moov Money",
		Prefixes:        []string{"01"},
		FeeRate:         1.2,
		CashinServiceID: "CASHINMOOVPART2",
		PayoutServiceID: "PAIEMENTMARCHAND_MOOV_CI",
	},
	// Wave wallets are not tied to an operator prefix; users select Wave
	// explicitly.
	Wave: {
		Provider:        Wave,
		DisplayName:     "Wave",
		Prefixes:        nil,
		FeeRate:         1.0,
		CashinServiceID: "CI_CASHIN_WAVE_PART",
		PayoutServiceID: "CI_PAIEMENTWAVE_TP",
	},
}

// GetProfile returns the registry entry for a provider
func GetProfile(p Provider) (Profile, error) {
	profile, ok := profiles[p]
	if !ok {
		return Profile{}, fmt.Errorf("unknown provider: %s", p)
	}
	return profile, nil
}

// ParseProvider validates a provider identifier from the wire
func ParseProvider(s string) (Provider, error) {
	p := Provider(s)
	if _, ok := profiles[p]; !ok {
		return "", fmt.Errorf("unknown provider: %q", s)
	}
	return p, nil
}

// IsValid reports whether p is a known provider
func (p Provider) IsValid() bool {
	_, ok := profiles[p]
	return ok
}

// DisplayName returns the human-readable provider name
func (p Provider) DisplayName() string {
	if profile, ok := profiles[p]; ok {
		return profile.DisplayName
	}
	return string(p)
}

// FeeRate returns the provider transaction fee as a percentage
func (p Provider) FeeRate() float64 {
	return profiles[p].FeeRate
}

// ServiceID returns the gateway service identifier for the given
// transaction direction
func (p Provider) ServiceID(direction Direction) string {
	profile := profiles[p]
	if direction == Payout {
		return profile.PayoutServiceID
	}
	return profile.CashinServiceID
}

// Direction distinguishes collections from disbursements
type Direction string

const (
	// Cashin pulls funds from a customer wallet into the platform
	Cashin Direction = "cashin"
	// Payout pushes funds from the platform to a recipient wallet
	Payout Direction = "payout"
)
