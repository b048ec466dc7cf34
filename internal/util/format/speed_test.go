package format

import "testing"

func TestMbps(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want string
	}{
		{name: "zero", in: 0, want: "0.00 Mbps"},
		{name: "rounds", in: 42.306, want: "42.31 Mbps"},
		{name: "large", in: 940.1, want: "940.10 Mbps"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Mbps(tt.in); got != tt.want {
				t.Errorf("Mbps(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestOptionalFormatters(t *testing.T) {
	v := 12.4
	if got := OptMs(&v); got != "12 ms" {
		t.Errorf("OptMs = %q", got)
	}
	if got := OptMs(nil); got != "—" {
		t.Errorf("OptMs(nil) = %q", got)
	}
	if got := OptMbps(nil); got != "—" {
		t.Errorf("OptMbps(nil) = %q", got)
	}
	if got := OptMbps(&v); got != "12.40 Mbps" {
		t.Errorf("OptMbps = %q", got)
	}
}
