package runtime

import (
	"testing"
	"time"
)

func TestParseFloat(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"1.5", 1.5},
		{" -2 ", -2},
		{"", 7},
		{"abc", 7},
		{"NaN", 7},
		{"Inf", 7},
		{"1e400", 7},
	}
	for _, tt := range tests {
		if got := ParseFloat(tt.in, 7); got != tt.want {
			t.Errorf("ParseFloat(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"42", 42},
		{"-3", -3},
		{"2.9", 2},
		{"", 5},
		{"ten", 5},
		{"1e30", 5},
	}
	for _, tt := range tests {
		if got := ParseInt(tt.in, 5); got != tt.want {
			t.Errorf("ParseInt(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		in   string
		def  bool
		want bool
	}{
		{"", false, true},
		{"TRUE", false, true},
		{"on", false, true},
		{"0", true, false},
		{"off", true, false},
		{"maybe", true, true},
		{"maybe", false, false},
	}
	for _, tt := range tests {
		if got := ParseBool(tt.in, tt.def); got != tt.want {
			t.Errorf("ParseBool(%q, %v) = %v, want %v", tt.in, tt.def, got, tt.want)
		}
	}
}

func TestParseDuration(t *testing.T) {
	def := time.Second
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"300ms", 300 * time.Millisecond},
		{"1.5s", 1500 * time.Millisecond},
		{"250", 250 * time.Millisecond},
		{"-5ms", def},
		{"-5", def},
		{"soon", def},
		{"", def},
	}
	for _, tt := range tests {
		if got := ParseDuration(tt.in, def); got != tt.want {
			t.Errorf("ParseDuration(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
