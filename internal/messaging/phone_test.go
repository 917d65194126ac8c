package messaging

import "testing"

func TestIsE164(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"+972501234567", true},
		{"+15551234567", true},
		{"972501234567", false},
		{"+0501234567", false},
		{"+1234567", false},
		{"+1234567890123456", false},
		{"+97250-123", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsE164(tt.in); got != tt.want {
			t.Errorf("IsE164(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeE164(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"whatsapp:+972501234567", "+972501234567"},
		{" whatsapp: +972 50-123-4567 ", "+972501234567"},
		{"+1 (555) 123.4567", "+15551234567"},
		{"+972501234567", "+972501234567"},
		{"not-a-phone", "not-a-phone"},
	}
	for _, tt := range tests {
		if got := NormalizeE164(tt.in); got != tt.want {
			t.Errorf("NormalizeE164(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
