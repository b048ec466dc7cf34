package speedtest

import (
	"errors"
	"strconv"
	"testing"

	"speedwatch/internal/model"
)

func TestMergePartial(t *testing.T) {
	tests := []struct {
		name        string
		dst         model.Measurements
		src         model.Measurements
		wantChanged bool
		wantDL      *float64
		wantPing    *float64
		wantServer  *string
	}{
		{
			name:        "fills empty fields",
			src:         model.Measurements{DownloadMbps: fptr(12), ServerName: sptr("A")},
			wantChanged: true,
			wantDL:      fptr(12),
			wantServer:  sptr("A"),
		},
		{
			name:        "nil never clears",
			dst:         model.Measurements{DownloadMbps: fptr(12), PingMs: fptr(8)},
			src:         model.Measurements{},
			wantChanged: false,
			wantDL:      fptr(12),
			wantPing:    fptr(8),
		},
		{
			name:        "later value replaces",
			dst:         model.Measurements{DownloadMbps: fptr(12)},
			src:         model.Measurements{DownloadMbps: fptr(40.5)},
			wantChanged: true,
			wantDL:      fptr(40.5),
		},
		{
			name:        "same value is not a change",
			dst:         model.Measurements{DownloadMbps: fptr(12), ServerName: sptr("A")},
			src:         model.Measurements{DownloadMbps: fptr(12), ServerName: sptr("A")},
			wantChanged: false,
			wantDL:      fptr(12),
			wantServer:  sptr("A"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := tt.dst.Clone()
			got := mergePartial(&dst, tt.src)
			if got != tt.wantChanged {
				t.Errorf("mergePartial() changed = %v, want %v", got, tt.wantChanged)
			}
			if !floatEq(dst.DownloadMbps, tt.wantDL) {
				t.Errorf("DownloadMbps = %v, want %v", ptrF(dst.DownloadMbps), ptrF(tt.wantDL))
			}
			if !floatEq(dst.PingMs, tt.wantPing) {
				t.Errorf("PingMs = %v, want %v", ptrF(dst.PingMs), ptrF(tt.wantPing))
			}
			if (dst.ServerName == nil) != (tt.wantServer == nil) ||
				(dst.ServerName != nil && *dst.ServerName != *tt.wantServer) {
				t.Errorf("ServerName = %v, want %v", dst.ServerName, tt.wantServer)
			}
		})
	}
}

func TestMergePartial_DoesNotAliasSource(t *testing.T) {
	src := model.Measurements{DownloadMbps: fptr(1)}
	var dst model.Measurements
	mergePartial(&dst, src)
	*src.DownloadMbps = 2
	if *dst.DownloadMbps != 1 {
		t.Errorf("dst aliased src: got %v", *dst.DownloadMbps)
	}
}

func TestFinalResult_FallsBackToPartial(t *testing.T) {
	partial := model.Measurements{PingMs: fptr(9), ServerName: sptr("Old")}
	reported := model.Measurements{DownloadMbps: fptr(50), UploadMbps: fptr(10), ServerName: sptr("New")}

	got := finalResult(reported, partial)
	want := model.Result{PingMs: 9, DownloadMbps: 50, UploadMbps: 10, ServerName: "New"}
	if got != want {
		t.Errorf("finalResult() = %+v, want %+v", got, want)
	}
	if *partial.ServerName != "Old" {
		t.Errorf("finalResult mutated partial")
	}
}

func TestParseStage(t *testing.T) {
	tests := []struct {
		in     string
		want   model.Stage
		wantOK bool
	}{
		{"ping", model.StagePing, true},
		{"Download", model.StageDownload, true},
		{" upload ", model.StageUpload, true},
		{"done", model.StageUpload, true},
		{"", model.StageNone, false},
		{"warmup", model.StageNone, false},
	}
	for _, tt := range tests {
		got, ok := ParseStage(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseStage(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestStateErr(t *testing.T) {
	if err := StateErr(model.JobState{Phase: model.PhaseComplete}); err != nil {
		t.Errorf("StateErr(complete) = %v, want nil", err)
	}
	if err := StateErr(model.JobState{Phase: model.PhaseError, ErrKind: model.ErrorBusy}); err != ErrServerBusy {
		t.Errorf("StateErr(busy, no message) = %v, want ErrServerBusy", err)
	}

	transport := model.JobState{Phase: model.PhaseError, ErrKind: model.ErrorTransport,
		ErrorMessage: ErrTransport.Error() + ": GET /speedtest_status: EOF"}
	err := StateErr(transport)
	if !errors.Is(err, ErrTransport) || err.Error() != transport.ErrorMessage {
		t.Errorf("StateErr(transport) = %q, want %q wrapping ErrTransport", err, transport.ErrorMessage)
	}

	job := model.JobState{Phase: model.PhaseError, ErrKind: model.ErrorJob, ErrorMessage: "No servers available"}
	err = StateErr(job)
	if !errors.Is(err, ErrJobFailed) || err.Error() != "speed test failed: No servers available" {
		t.Errorf("StateErr(job) = %q", err)
	}
}

func ptrF(p *float64) string {
	if p == nil {
		return "<nil>"
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}
