package money

import "testing"

func TestDetectProvider(t *testing.T) {
	tests := []struct {
		name      string
		phone     string
		provider  Provider
		isValid   bool
		formatted string
	}{
		{name: "orange 07", phone: "0712345678", provider: OrangeMoney, isValid: true, formatted: "07 12 34 56 78"},
		{name: "orange 227", phone: "2271234567", provider: OrangeMoney, isValid: true, formatted: "22 71 23 45 67"},
		{name: "mtn 05", phone: "0512345678", provider: MTNMoney, isValid: true, formatted: "05 12 34 56 78"},
		{name: "mtn 054", phone: "0541234567", provider: MTNMoney, isValid: true, formatted: "05 41 23 45 67"},
		{name: "mtn 056", phone: "0561234567", provider: MTNMoney, isValid: true, formatted: "05 61 23 45 67"},
		{name: "moov 01", phone: "0112345678", provider: MoovMoney, isValid: true, formatted: "01 12 34 56 78"},
		{name: "formatted input", phone: "07 12 34 56 78", provider: OrangeMoney, isValid: true, formatted: "07 12 34 56 78"},
		{name: "dashed input", phone: "07-12-34-56-78", provider: OrangeMoney, isValid: true, formatted: "07 12 34 56 78"},
		{name: "international prefix", phone: "+2250712345678", provider: OrangeMoney, isValid: true, formatted: "07 12 34 56 78"},
		{name: "bare country code", phone: "2250512345678", provider: MTNMoney, isValid: true, formatted: "05 12 34 56 78"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectProvider(tt.phone)
			if got.Provider != tt.provider {
				t.Fatalf("provider = %q, want %q", got.Provider, tt.provider)
			}
			if got.IsValid != tt.isValid {
				t.Fatalf("isValid = %v, want %v", got.IsValid, tt.isValid)
			}
			if got.FormattedNumber != tt.formatted {
				t.Fatalf("formatted = %q, want %q", got.FormattedNumber, tt.formatted)
			}
			if got.Error != "" {
				t.Fatalf("unexpected error: %s", got.Error)
			}
		})
	}
}

func TestDetectProviderInvalidLength(t *testing.T) {
	for _, phone := range []string{"", "07123", "071234567", "07123456789", "abc"} {
		got := DetectProvider(phone)
		if got.IsValid {
			t.Errorf("DetectProvider(%q).IsValid = true, want false", phone)
		}
		if got.Provider != "" {
			t.Errorf("DetectProvider(%q).Provider = %q, want empty", phone, got.Provider)
		}
	}
}

func TestDetectProviderUnknownOperator(t *testing.T) {
	// 09 is ten digits but belongs to no provider prefix set
	got := DetectProvider("0912345678")
	if !got.IsValid {
		t.Fatal("expected a syntactically valid number")
	}
	if got.Provider != "" {
		t.Fatalf("provider = %q, want empty", got.Provider)
	}
	if got.Error == "" {
		t.Fatal("expected an advisory error for manual selection")
	}
}

func TestFormatRoundTrip(t *testing.T) {
	clean := "0712345678"
	if got := CleanPhoneNumber(FormatPhoneNumber(clean)); got != clean {
		t.Fatalf("round trip = %q, want %q", got, clean)
	}
	if got := CleanPhoneNumber(FormatInternational(clean)); got != clean {
		t.Fatalf("international round trip = %q, want %q", got, clean)
	}
}

func TestFormatPhoneNumberPassthrough(t *testing.T) {
	// numbers that do not clean to 10 digits come back unchanged
	if got := FormatPhoneNumber("12345"); got != "12345" {
		t.Fatalf("got %q, want passthrough", got)
	}
}

func TestFormatInternational(t *testing.T) {
	if got := FormatInternational("07 12 34 56 78"); got != "+2250712345678" {
		t.Fatalf("got %q, want +2250712345678", got)
	}
}

func TestRegistryPrefixesDisjoint(t *testing.T) {
	seen := map[string]Provider{}
	for _, p := range Providers {
		profile, err := GetProfile(p)
		if err != nil {
			t.Fatalf("GetProfile(%s): %v", p, err)
		}
		for _, prefix := range profile.Prefixes {
			if other, ok := seen[prefix]; ok {
				t.Errorf("prefix %q claimed by both %s and %s", prefix, other, p)
			}
			seen[prefix] = p
		}
	}
}
