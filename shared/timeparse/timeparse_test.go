package timeparse

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected float64
		ok       bool
	}{
		{"hours minutes seconds", "1:02:03", 3723, true},
		{"minutes seconds", "5:30", 330, true},
		{"compact minutes seconds", "5m30s", 330, true},
		{"bare minutes", "5m", 300, true},
		{"bare seconds", "45s", 45, true},
		{"bare float", "12.5", 12.5, true},
		{"embedded in prose", "starts at 2:15 roughly", 135, true},
		{"colon form wins over compact", "1:02:03 or 5m", 3723, true},
		{"no timestamp", "not-a-time", 0, false},
		{"empty", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.input)
			if ok != tt.ok {
				t.Fatalf("Parse(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if got != tt.expected {
				t.Errorf("Parse(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseISODuration(t *testing.T) {
	tests := []struct {
		name     string
		duration string
		expected int
	}{
		{"minutes and seconds", "PT21M53S", 1313},
		{"seconds only", "PT45S", 45},
		{"hours minutes seconds", "PT2H15M30S", 8130},
		{"hours only", "PT1H", 3600},
		{"empty string", "", 0},
		{"malformed", "invalid", 0},
		{"zero components", "PT", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseISODuration(tt.duration); got != tt.expected {
				t.Errorf("ParseISODuration(%q) = %d, want %d", tt.duration, got, tt.expected)
			}
		})
	}
}

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		seconds  float64
		expected string
	}{
		{0, "0:00"},
		{45, "0:45"},
		{330, "5:30"},
		{3723, "1:02:03"},
		{7265, "2:01:05"},
		{12.9, "0:12"},
	}

	for _, tt := range tests {
		if got := FormatTimestamp(tt.seconds); got != tt.expected {
			t.Errorf("FormatTimestamp(%v) = %q, want %q", tt.seconds, got, tt.expected)
		}
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	for _, seconds := range []float64{0, 59, 60, 330, 3600, 3723} {
		formatted := FormatTimestamp(seconds)
		parsed, ok := Parse(formatted)
		if !ok {
			t.Fatalf("Parse(%q) did not match", formatted)
		}
		if parsed != seconds {
			t.Errorf("round trip of %v via %q = %v", seconds, formatted, parsed)
		}
	}
}
