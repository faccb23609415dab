// internal/money/fees.go
package money

import "math"

// PlatformFeeRate is the platform commission as a percentage of the
// base amount, flat across providers.
const PlatformFeeRate = 5.0

// Calculation is the fee breakdown for one payment. All fields are
// whole FCFA; FCFA has no subunits.
type Calculation struct {
	BaseAmount     int64 `json:"base_amount"`
	ProviderFee    int64 `json:"provider_fee"`
	PlatformFee    int64 `json:"platform_fee"`
	TotalAmount    int64 `json:"total_amount"`
	LandlordAmount int64 `json:"landlord_amount"`
}

// Calculate derives the fee breakdown for an amount on a provider.
// Provider fee and platform fee are independent percentages of the base
// amount, each rounded half away from zero on its own; the totals are
// then exact integer sums, so TotalAmount == BaseAmount + ProviderFee
// and LandlordAmount == BaseAmount - PlatformFee always hold.
func Calculate(amount int64, provider Provider) (Calculation, error) {
	if amount <= 0 {
		return Calculation{}, NewPaymentError(ErrInvalidAmount)
	}

	profile, err := GetProfile(provider)
	if err != nil {
		return Calculation{}, err
	}

	providerFee := roundPercent(amount, profile.FeeRate)
	platformFee := roundPercent(amount, PlatformFeeRate)

	return Calculation{
		BaseAmount:     amount,
		ProviderFee:    providerFee,
		PlatformFee:    platformFee,
		TotalAmount:    amount + providerFee,
		LandlordAmount: amount - platformFee,
	}, nil
}

// roundPercent computes rate% of amount, rounded half away from zero
func roundPercent(amount int64, rate float64) int64 {
	return int64(math.Round(float64(amount) * rate / 100))
}
