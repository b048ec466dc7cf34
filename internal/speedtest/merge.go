package speedtest

import "speedwatch/internal/model"

// mergePartial folds reported fields into dst. A reported nil never clears a
// value that is already set; a reported value replaces the previous one.
// It returns true when dst changed.
func mergePartial(dst *model.Measurements, src model.Measurements) bool {
	changed := false
	if src.PingMs != nil && !floatEq(dst.PingMs, src.PingMs) {
		v := *src.PingMs
		dst.PingMs = &v
		changed = true
	}
	if src.DownloadMbps != nil && !floatEq(dst.DownloadMbps, src.DownloadMbps) {
		v := *src.DownloadMbps
		dst.DownloadMbps = &v
		changed = true
	}
	if src.UploadMbps != nil && !floatEq(dst.UploadMbps, src.UploadMbps) {
		v := *src.UploadMbps
		dst.UploadMbps = &v
		changed = true
	}
	if src.ServerName != nil && (dst.ServerName == nil || *dst.ServerName != *src.ServerName) {
		v := *src.ServerName
		dst.ServerName = &v
		changed = true
	}
	return changed
}

// finalResult builds the completed result from the complete payload, falling
// back to previously merged partial values for anything the payload omits.
func finalResult(reported, partial model.Measurements) model.Result {
	m := partial.Clone()
	mergePartial(&m, reported)
	var r model.Result
	if m.PingMs != nil {
		r.PingMs = *m.PingMs
	}
	if m.DownloadMbps != nil {
		r.DownloadMbps = *m.DownloadMbps
	}
	if m.UploadMbps != nil {
		r.UploadMbps = *m.UploadMbps
	}
	if m.ServerName != nil {
		r.ServerName = *m.ServerName
	}
	return r
}

func floatEq(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
