// internal/money/errors.go
package money

import "fmt"

// ErrorCode is the canonical payment error taxonomy. Every failure the
// subsystem surfaces, local or provider-side, carries one of these.
type ErrorCode string

const (
	ErrInvalidPhone         ErrorCode = "INVALID_PHONE"
	ErrInvalidAmount        ErrorCode = "INVALID_AMOUNT"
	ErrInsufficientBalance  ErrorCode = "INSUFFICIENT_BALANCE"
	ErrProviderError        ErrorCode = "PROVIDER_ERROR"
	ErrNetworkError         ErrorCode = "NETWORK_ERROR"
	ErrTimeout              ErrorCode = "TIMEOUT"
	ErrDuplicateTransaction ErrorCode = "DUPLICATE_TRANSACTION"
	ErrCancelledByUser      ErrorCode = "CANCELLED_BY_USER"
	ErrInvalidOTP           ErrorCode = "INVALID_OTP"
	ErrTransactionExpired   ErrorCode = "TRANSACTION_EXPIRED"
	ErrUnknown              ErrorCode = "UNKNOWN_ERROR"
)

// userMessages maps each code to its fixed user-facing message
var userMessages = map[ErrorCode]string{
	ErrInvalidPhone:         "Numéro de téléphone invalide",
	ErrInvalidAmount:        "Montant invalide",
	ErrInsufficientBalance:  "Solde insuffisant",
	ErrProviderError:        "Erreur de l'opérateur. Veuillez réessayer.",
	ErrNetworkError:         "Erreur de connexion. Vérifiez votre réseau.",
	ErrTimeout:              "La transaction a expiré. Veuillez réessayer.",
	ErrDuplicateTransaction: "Cette transaction existe déjà",
	ErrCancelledByUser:      "Transaction annulée",
	ErrInvalidOTP:           "Code OTP invalide",
	ErrTransactionExpired:   "La transaction a expiré",
	ErrUnknown:              "Une erreur est survenue. Veuillez réessayer.",
}

// retryableCodes marks the codes a caller may retry
var retryableCodes = map[ErrorCode]bool{
	ErrProviderError: true,
	ErrNetworkError:  true,
	ErrTimeout:       true,
	ErrUnknown:       true,
}

// PaymentError is a canonical payment failure. Details holds the raw
// provider context for the audit log; it is never shown to the user.
type PaymentError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable"`
	Details   string    `json:"details,omitempty"`
}

func (e *PaymentError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewPaymentError builds the canonical error for a code
func NewPaymentError(code ErrorCode) *PaymentError {
	return &PaymentError{
		Code:      code,
		Message:   UserMessage(code),
		Retryable: IsRetryable(code),
	}
}

// NewPaymentErrorf builds the canonical error for a code with audit
// details attached
func NewPaymentErrorf(code ErrorCode, format string, args ...interface{}) *PaymentError {
	err := NewPaymentError(code)
	err.Details = fmt.Sprintf(format, args...)
	return err
}

// WithMessage overrides the user-facing message, keeping code and
// retryable flag
func (e *PaymentError) WithMessage(message string) *PaymentError {
	e.Message = message
	return e
}

// UserMessage returns the fixed user-facing message for a code
func UserMessage(code ErrorCode) string {
	if msg, ok := userMessages[code]; ok {
		return msg
	}
	return userMessages[ErrUnknown]
}

// IsRetryable reports whether a code indicates a transient condition
func IsRetryable(code ErrorCode) bool {
	return retryableCodes[code]
}
