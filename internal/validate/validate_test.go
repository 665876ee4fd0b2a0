package validate

import (
	"strings"
	"testing"
)

func TestTitle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"valid", "My Video", ""},
		{"empty", "", ""},
		{"at limit", strings.Repeat("a", MaxTitleLength), ""},
		{"over limit", strings.Repeat("a", MaxTitleLength+1), "title must be 200 characters or fewer"},
	}
	for _, tt := range tests {
		if got := Title(tt.input); got != tt.want {
			t.Errorf("Title(%s) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestDescription(t *testing.T) {
	if got := Description(strings.Repeat("d", MaxDescriptionLength+1)); got == "" {
		t.Error("expected over-limit description to fail")
	}
	if got := Description("short"); got != "" {
		t.Errorf("unexpected error %q", got)
	}
}

func TestChannelName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"valid", "alice", ""},
		{"blank", "   ", "name is required"},
		{"over limit", strings.Repeat("n", MaxChannelNameLength+1), "name must be 50 characters or fewer"},
	}
	for _, tt := range tests {
		if got := ChannelName(tt.input); got != tt.want {
			t.Errorf("ChannelName(%s) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestTags(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		ok    bool
	}{
		{"nil", nil, true},
		{"some", []string{"go", "backend"}, true},
		{"too many", make([]string, MaxTags+1), false},
		{"tag too long", []string{strings.Repeat("t", MaxTagLength+1)}, false},
	}
	for _, tt := range tests {
		got := Tags(tt.input)
		if (got == "") != tt.ok {
			t.Errorf("Tags(%s) = %q, want ok=%v", tt.name, got, tt.ok)
		}
	}
}

func TestURL(t *testing.T) {
	if got := URL(strings.Repeat("u", MaxURLLength+1)); got != "url must be 2048 characters or fewer" {
		t.Errorf("unexpected result %q", got)
	}
}
