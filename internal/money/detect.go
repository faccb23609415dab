// internal/money/detect.go
package money

import "strings"

// CountryCallingCode is the international prefix for Côte d'Ivoire
const CountryCallingCode = "+225"

// localNumberLength is the length of a national subscriber number
const localNumberLength = 10

// DetectionResult is the outcome of provider auto-detection on a raw
// phone number.
type DetectionResult struct {
	Provider        Provider `json:"provider,omitempty"`
	IsValid         bool     `json:"is_valid"`
	PhoneNumber     string   `json:"phone_number"`
	FormattedNumber string   `json:"formatted_number"`
	Error           string   `json:"error,omitempty"`
}

// CleanPhoneNumber strips every non-digit character from a raw number
// and drops a leading 225 country code, so "+2250712345678" and
// "0712345678" normalize to the same national form.
func CleanPhoneNumber(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	clean := b.String()
	if len(clean) == localNumberLength+3 && strings.HasPrefix(clean, "225") {
		return clean[3:]
	}
	return clean
}

// DetectProvider normalizes a raw phone number and infers its Mobile
// Money provider from the registry prefix tables. A syntactically valid
// number whose operator cannot be determined (Wave wallets, unmapped
// prefixes) comes back valid with no provider and an advisory error;
// the caller is expected to let the user pick manually.
func DetectProvider(raw string) DetectionResult {
	clean := CleanPhoneNumber(raw)

	if len(clean) != localNumberLength {
		return DetectionResult{
			Provider:        "",
			IsValid:         false,
			PhoneNumber:     raw,
			FormattedNumber: clean,
			Error:           "Le numéro doit contenir exactement 10 chiffres",
		}
	}

	prefix2 := clean[:2]
	prefix3 := clean[:3]

	for _, p := range Providers {
		profile := profiles[p]
		for _, prefix := range profile.Prefixes {
			if prefix == prefix2 || prefix == prefix3 {
				return DetectionResult{
					Provider:        p,
					IsValid:         true,
					PhoneNumber:     raw,
					FormattedNumber: FormatPhoneNumber(clean),
				}
			}
		}
	}

	return DetectionResult{
		Provider:        "",
		IsValid:         true,
		PhoneNumber:     raw,
		FormattedNumber: FormatPhoneNumber(clean),
		Error:           "Opérateur non détecté automatiquement. Veuillez sélectionner manuellement.",
	}
}

// FormatPhoneNumber renders a number in the grouped display form
// "XX XX XX XX XX". Numbers that do not clean to 10 digits are returned
// unchanged.
func FormatPhoneNumber(raw string) string {
	clean := CleanPhoneNumber(raw)
	if len(clean) != localNumberLength {
		return raw
	}

	parts := make([]string, 0, 5)
	for i := 0; i < localNumberLength; i += 2 {
		parts = append(parts, clean[i:i+2])
	}
	return strings.Join(parts, " ")
}

// FormatInternational renders a number in the international form
// "+225XXXXXXXXXX"
func FormatInternational(raw string) string {
	return CountryCallingCode + CleanPhoneNumber(raw)
}
