package history

import (
	"bytes"
	"strings"
	"testing"

	"speedwatch/internal/model"
)

func TestParseFilter(t *testing.T) {
	tests := []struct {
		name    string
		rng     string
		typ     string
		want    Filter
		wantErr bool
	}{
		{name: "defaults", want: Filter{Range: RangeRecent, Type: TypeAll}},
		{name: "hour alias", rng: "1h", want: Filter{Range: RangeHour, Type: TypeAll}},
		{name: "all data", rng: "all", typ: "speedtest", want: Filter{Range: RangeAllData, Type: model.RecordSpeedTest}},
		{name: "server type name", typ: "Live Monitoring", want: Filter{Range: RangeRecent, Type: model.RecordLive}},
		{name: "bad range", rng: "week", wantErr: true},
		{name: "bad type", typ: "upload", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFilter(tt.rng, tt.typ)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseFilter(%q, %q) expected error", tt.rng, tt.typ)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFilter(%q, %q) unexpected error: %v", tt.rng, tt.typ, err)
			}
			if got != tt.want {
				t.Errorf("ParseFilter(%q, %q) = %+v, want %+v", tt.rng, tt.typ, got, tt.want)
			}
		})
	}
}

func TestTypeParam(t *testing.T) {
	if got := (Filter{}).TypeParam(); got != TypeAll {
		t.Errorf("TypeParam() = %q, want %q", got, TypeAll)
	}
	if got := (Filter{Type: model.RecordLive}).TypeParam(); got != model.RecordLive {
		t.Errorf("TypeParam() = %q", got)
	}
}

func sampleRecords() []model.HistoryRecord {
	return []model.HistoryRecord{
		{Timestamp: "2025-01-02 10:00:05", DownloadMbps: 40, UploadMbps: 10, Type: model.RecordSpeedTest},
		{Timestamp: "2025-01-02 10:00:00", DownloadMbps: 2, UploadMbps: 0.5, Type: model.RecordLive},
		{Timestamp: "2025-01-02 09:59:55", DownloadMbps: 6, UploadMbps: 1.5, Type: model.RecordLive},
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleRecords())
	if s.Count != 3 {
		t.Errorf("Count = %d, want 3", s.Count)
	}
	if s.AvgDownload != 16 {
		t.Errorf("AvgDownload = %v, want 16", s.AvgDownload)
	}
	if s.MaxUpload != 10 {
		t.Errorf("MaxUpload = %v, want 10", s.MaxUpload)
	}
	if s.Newest != "2025-01-02 10:00:05" || s.Oldest != "2025-01-02 09:59:55" {
		t.Errorf("Newest/Oldest = %q/%q", s.Newest, s.Oldest)
	}

	if empty := Summarize(nil); empty != (Summary{}) {
		t.Errorf("Summarize(nil) = %+v, want zero", empty)
	}
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, sampleRecords()); err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"2025-01-02 10:00:05", "Speed Test", "40.00 Mbps", "0.50 Mbps"} {
		if !strings.Contains(out, want) {
			t.Errorf("Render() output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderSummary(&buf, Summarize(sampleRecords())); err != nil {
		t.Fatalf("RenderSummary() error: %v", err)
	}
	if !strings.Contains(buf.String(), "16.00 Mbps") {
		t.Errorf("summary missing average download:\n%s", buf.String())
	}
}
