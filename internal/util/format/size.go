package format

import "strconv"

var sizeUnits = [...]string{"KB", "MB", "GB", "TB", "PB"}

// Size renders a byte count for humans, e.g. "1.5 MB". Units are powers of 1024.
func Size(n int64) string {
	if n < 1024 {
		return strconv.FormatInt(n, 10) + " B"
	}
	v := float64(n) / 1024
	i := 0
	for v >= 1024 && i < len(sizeUnits)-1 {
		v /= 1024
		i++
	}
	return strconv.FormatFloat(v, 'f', 1, 64) + " " + sizeUnits[i]
}
