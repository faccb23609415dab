package money

import "testing"

func TestGatewayStatusMappingExhaustive(t *testing.T) {
	// every value the gateway can emit must have an explicit entry;
	// silent coercion of unmapped values is a defect
	for _, native := range GatewayStatuses {
		if _, ok := MapGatewayStatus(native); !ok {
			t.Errorf("gateway status %q has no mapping", native)
		}
	}
}

func TestGatewayStatusMapping(t *testing.T) {
	tests := []struct {
		native GatewayStatus
		want   PaymentStatus
	}{
		{GatewayPending, StatusProcessing},
		{GatewaySuccess, StatusCompleted},
		{GatewayFailed, StatusFailed},
		{GatewayProcessing, StatusProcessing},
		{GatewayCancelled, StatusCancelled},
	}

	for _, tt := range tests {
		got, ok := MapGatewayStatus(tt.native)
		if !ok {
			t.Fatalf("MapGatewayStatus(%s) unmapped", tt.native)
		}
		if got != tt.want {
			t.Errorf("MapGatewayStatus(%s) = %s, want %s", tt.native, got, tt.want)
		}
	}
}

func TestMapGatewayStatusRejectsUnknown(t *testing.T) {
	if _, ok := MapGatewayStatus(GatewayStatus("REVERSED")); ok {
		t.Fatal("unknown native status must not map")
	}
}

func TestStatusIsFinal(t *testing.T) {
	finals := map[PaymentStatus]bool{
		StatusPending:    false,
		StatusInitiated:  false,
		StatusProcessing: false,
		StatusCompleted:  true,
		StatusFailed:     true,
		StatusCancelled:  true,
		StatusExpired:    true,
	}
	for status, want := range finals {
		if got := status.IsFinal(); got != want {
			t.Errorf("%s.IsFinal() = %v, want %v", status, got, want)
		}
	}
}
