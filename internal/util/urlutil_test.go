package util

import "testing"

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "bare host and port", raw: "127.0.0.1:5000", want: "http://127.0.0.1:5000"},
		{name: "trailing slash trimmed", raw: "http://speed.local/", want: "http://speed.local"},
		{name: "path prefix kept", raw: "https://example.com/netmon/", want: "https://example.com/netmon"},
		{name: "query dropped", raw: "http://example.com?x=1", want: "http://example.com"},
		{name: "upper-case scheme", raw: "HTTP://example.com", want: "http://example.com"},
		{name: "empty", raw: "  ", wantErr: true},
		{name: "ftp rejected", raw: "ftp://example.com", wantErr: true},
		{name: "missing host", raw: "http://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := NormalizeBaseURL(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Errorf("NormalizeBaseURL(%q) expected error, got %v", tt.raw, u)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeBaseURL(%q) unexpected error: %v", tt.raw, err)
			}
			if got := u.String(); got != tt.want {
				t.Errorf("NormalizeBaseURL(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}
