// internal/money/status.go
package money

// PaymentStatus is the canonical lifecycle status every provider-native
// vocabulary is mapped onto.
type PaymentStatus string

const (
	StatusPending    PaymentStatus = "pending"
	StatusInitiated  PaymentStatus = "initiated"
	StatusProcessing PaymentStatus = "processing"
	StatusCompleted  PaymentStatus = "completed"
	StatusFailed     PaymentStatus = "failed"
	StatusCancelled  PaymentStatus = "cancelled"
	StatusExpired    PaymentStatus = "expired"
)

// IsFinal reports whether a status admits no further transitions
func (s PaymentStatus) IsFinal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

// GatewayStatus is the payment gateway's native status vocabulary
type GatewayStatus string

const (
	GatewayPending    GatewayStatus = "PENDING"
	GatewaySuccess    GatewayStatus = "SUCCESS"
	GatewayFailed     GatewayStatus = "FAILED"
	GatewayProcessing GatewayStatus = "PROCESSING"
	GatewayCancelled  GatewayStatus = "CANCELLED"
)

// GatewayStatuses enumerates every value the gateway can emit. The
// mapping below must cover all of them; an unmapped value is a defect.
var GatewayStatuses = []GatewayStatus{
	GatewayPending,
	GatewaySuccess,
	GatewayFailed,
	GatewayProcessing,
	GatewayCancelled,
}

var gatewayStatusMapping = map[GatewayStatus]PaymentStatus{
	GatewayPending:    StatusProcessing,
	GatewaySuccess:    StatusCompleted,
	GatewayFailed:     StatusFailed,
	GatewayProcessing: StatusProcessing,
	GatewayCancelled:  StatusCancelled,
}

// MapGatewayStatus translates a native gateway status into the
// canonical vocabulary. The second return is false for values outside
// the native enum.
func MapGatewayStatus(native GatewayStatus) (PaymentStatus, bool) {
	status, ok := gatewayStatusMapping[native]
	return status, ok
}
