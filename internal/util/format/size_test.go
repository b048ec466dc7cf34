package format

import "testing"

func TestSize(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{50 << 20, "50.0 MB"},
		{3 << 30, "3.0 GB"},
		{1 << 40, "1.0 TB"},
		{2048 << 40, "2.0 PB"},
	}
	for _, tt := range tests {
		if got := Size(tt.in); got != tt.want {
			t.Errorf("Size(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
