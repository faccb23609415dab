// internal/money/validate.go
package money

import "fmt"

const (
	// MinAmount is the smallest accepted payment in FCFA
	MinAmount int64 = 100
	// MaxAmount is the largest accepted payment in FCFA
	MaxAmount int64 = 5_000_000
)

// validPrefixes is the allow-list of mobile prefixes accepted by the
// numbering plan. It is a superset of the per-provider prefix sets:
// some valid mobile prefixes are not yet mapped to a provider.
var validPrefixes = []string{"01", "05", "07", "054", "055", "056", "227"}

// ValidateAmount checks an amount against the platform bounds
func ValidateAmount(amount int64) error {
	if amount < MinAmount {
		return NewPaymentError(ErrInvalidAmount).
			WithMessage(fmt.Sprintf("Le montant minimum est de %d FCFA", MinAmount))
	}
	if amount > MaxAmount {
		return NewPaymentError(ErrInvalidAmount).
			WithMessage(fmt.Sprintf("Le montant maximum est de %d FCFA", MaxAmount))
	}
	return nil
}

// ValidatePhoneNumber checks that a raw number cleans to 10 digits with
// a known mobile prefix
func ValidatePhoneNumber(raw string) error {
	clean := CleanPhoneNumber(raw)
	if len(clean) != localNumberLength {
		return NewPaymentError(ErrInvalidPhone).
			WithMessage("Le numéro doit contenir 10 chiffres")
	}

	prefix2 := clean[:2]
	prefix3 := clean[:3]
	for _, prefix := range validPrefixes {
		if prefix == prefix2 || prefix == prefix3 {
			return nil
		}
	}
	return NewPaymentError(ErrInvalidPhone)
}

// ValidatePaymentRequest runs the full pre-dispatch check: amount
// bounds, phone format, and provider consistency. A number detected as
// belonging to another provider is rejected so the wrong network's fee
// table is never applied silently.
func ValidatePaymentRequest(amount int64, phoneNumber string, provider Provider) error {
	if err := ValidateAmount(amount); err != nil {
		return err
	}
	if err := ValidatePhoneNumber(phoneNumber); err != nil {
		return err
	}

	detection := DetectProvider(phoneNumber)
	if detection.Provider != "" && detection.Provider != provider {
		return NewPaymentError(ErrInvalidPhone).
			WithMessage(fmt.Sprintf("Ce numéro correspond à %s", detection.Provider.DisplayName()))
	}
	return nil
}
