// internal/money/intent.go
package money

// Intent is a canonical payment intent, created by the caller
// immediately before dispatch. It is immutable and never persisted on
// its own; it is the input to fee calculation and provider dispatch.
type Intent struct {
	LeaseID     string
	Amount      int64
	Provider    Provider
	PhoneNumber string
	Reference   string
	Description string
}
