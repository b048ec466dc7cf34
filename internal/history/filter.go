// Package history holds the filters, summaries and table output for stored
// speed measurements.
package history

import (
	"fmt"
	"strings"

	"speedwatch/internal/model"
)

// Range selects how much history the server returns.
type Range string

const (
	RangeRecent  Range = "recent"   // server default: the 10 newest records
	RangeHour    Range = "1hour"    // records from the last hour
	RangeAllData Range = "all_data" // everything
)

// TypeAll disables filtering by record type.
const TypeAll = "all"

// Filter selects a slice of history.
type Filter struct {
	Range Range
	Type  string // TypeAll, model.RecordLive or model.RecordSpeedTest
}

// DefaultFilter matches the dashboard's initial view.
func DefaultFilter() Filter {
	return Filter{Range: RangeRecent, Type: TypeAll}
}

// TypeParam returns the value sent as the "type" query parameter.
func (f Filter) TypeParam() string {
	if f.Type == "" {
		return TypeAll
	}
	return f.Type
}

// ParseFilter validates user input. Type accepts short aliases
// (live, speedtest) besides the server's record type names.
func ParseFilter(rangeRaw, typeRaw string) (Filter, error) {
	f := DefaultFilter()

	switch strings.ToLower(strings.TrimSpace(rangeRaw)) {
	case "", "recent", "latest":
		f.Range = RangeRecent
	case "1hour", "hour", "1h":
		f.Range = RangeHour
	case "all_data", "all":
		f.Range = RangeAllData
	default:
		return Filter{}, fmt.Errorf("invalid --range: %q (valid: recent|1hour|all)", rangeRaw)
	}

	switch strings.ToLower(strings.TrimSpace(typeRaw)) {
	case "", "all":
		f.Type = TypeAll
	case "live", "live monitoring", "live-monitoring":
		f.Type = model.RecordLive
	case "speedtest", "speed test", "speed-test", "test":
		f.Type = model.RecordSpeedTest
	default:
		return Filter{}, fmt.Errorf("invalid --type: %q (valid: all|live|speedtest)", typeRaw)
	}
	return f, nil
}
