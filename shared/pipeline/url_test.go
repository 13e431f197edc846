package pipeline

import "testing"

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"watch url", "https://www.youtube.com/watch?v=abc123def45", "abc123def45"},
		{"watch url without www", "https://youtube.com/watch?v=abc123def45", "abc123def45"},
		{"mobile url", "https://m.youtube.com/watch?v=abc123def45", "abc123def45"},
		{"short url", "https://youtu.be/abc123def45", "abc123def45"},
		{"embed url", "https://www.youtube.com/embed/abc123def45", "abc123def45"},
		{"legacy v url", "https://www.youtube.com/v/abc123def45", "abc123def45"},
		{"shorts url", "https://www.youtube.com/shorts/abc123def45", "abc123def45"},
		{"watch url with extra params", "https://www.youtube.com/watch?v=abc123def45&t=120s", "abc123def45"},
		{"bare id", "abc123def45", "abc123def45"},
		{"unrelated host", "https://example.com/watch?v=abc123def45", ""},
		{"watch path without v", "https://www.youtube.com/watch", ""},
		{"empty", "", ""},
		{"whitespace", "   ", ""},
		{"garbage", "not a url at all", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractVideoID(tt.input); got != tt.expected {
				t.Errorf("ExtractVideoID(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
