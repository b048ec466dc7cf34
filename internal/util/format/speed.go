package format

import "strconv"

// Mbps renders a throughput figure with two decimals, e.g. "42.30 Mbps".
func Mbps(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64) + " Mbps"
}

// Ms renders a latency in whole milliseconds, e.g. "12 ms".
func Ms(v float64) string {
	return strconv.FormatFloat(v, 'f', 0, 64) + " ms"
}

// OptMbps renders a possibly unknown throughput, "—" when nil.
func OptMbps(v *float64) string {
	if v == nil {
		return "—"
	}
	return Mbps(*v)
}

// OptMs renders a possibly unknown latency, "—" when nil.
func OptMs(v *float64) string {
	if v == nil {
		return "—"
	}
	return Ms(*v)
}

// Count renders an integer.
func Count(n int) string {
	return strconv.Itoa(n)
}
