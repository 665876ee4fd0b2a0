package geoip

import "testing"

func TestNew_EmptyPathDisablesLookups(t *testing.T) {
	r := New("")
	if r.Enabled() {
		t.Fatal("expected resolver to be disabled")
	}
	if loc := r.Locate("8.8.8.8"); loc != (Location{}) {
		t.Errorf("expected zero location, got %+v", loc)
	}
}

func TestNew_MissingFileFallsBack(t *testing.T) {
	r := New("/nonexistent/GeoLite2-City.mmdb")
	if r.Enabled() {
		t.Fatal("expected resolver to be disabled for missing file")
	}
	if err := r.Close(); err != nil {
		t.Errorf("expected no error closing disabled resolver, got %v", err)
	}
}

func TestNilResolverIsSafe(t *testing.T) {
	var r *Resolver
	if loc := r.Locate("8.8.8.8"); loc != (Location{}) {
		t.Errorf("expected zero location, got %+v", loc)
	}
}

func TestParseIP(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"203.0.113.9", "203.0.113.9"},
		{"203.0.113.9:4312", "203.0.113.9"},
		{"[2001:db8::1]:443", "2001:db8::1"},
		{" 2001:db8::2 ", "2001:db8::2"},
		{"not-an-ip", ""},
	}
	for _, tt := range tests {
		got := parseIP(tt.in)
		if tt.want == "" {
			if got != nil {
				t.Errorf("parseIP(%q) = %v, want nil", tt.in, got)
			}
			continue
		}
		if got == nil || got.String() != tt.want {
			t.Errorf("parseIP(%q) = %v, want %s", tt.in, got, tt.want)
		}
	}
}
