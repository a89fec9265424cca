package suggest

import "testing"

func TestNewClient(t *testing.T) {
	c, err := NewClient("http://localhost:11434", "llava")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if c == nil {
		t.Fatal("NewClient returned nil")
	}
}

func TestParseReply(t *testing.T) {
	tests := []struct {
		reply string
		want  string
	}{
		{"10", "10"},
		{"The jersey number is 7.", "7"},
		{"07", "7"},
		{"0", "0"},
		{"unsuitable", "unsuitable"},
		{"No number is visible on this player.", "unsuitable"},
		{"", "unsuitable"},
	}

	for _, tt := range tests {
		if got := parseReply(tt.reply); got != tt.want {
			t.Errorf("parseReply(%q) = %q, want %q", tt.reply, got, tt.want)
		}
	}
}
