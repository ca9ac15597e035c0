package clients

import "testing"

func TestCountryResolverAlpha2(t *testing.T) {
	r := NewCountryResolver()
	tests := map[string]string{
		"Germany":  "DE",
		" france ": "FR",
		"ESP":      "ES",
		"Atlantis": "",
		"":         "",
	}
	for in, want := range tests {
		if got := r.Alpha2(in); got != want {
			t.Fatalf("Alpha2(%q) = %q, want %q", in, got, want)
		}
		if got := r.Alpha2(in); got != want {
			t.Fatalf("cached Alpha2(%q) = %q, want %q", in, got, want)
		}
	}
}
