package backend_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"speedwatch/internal/backend"
	"speedwatch/internal/backend/backendtest"
	"speedwatch/internal/history"
	"speedwatch/internal/model"
	"speedwatch/internal/progress"
	"speedwatch/internal/speedtest"
)

func newClient(t *testing.T) (*backend.Client, *backendtest.Server) {
	t.Helper()
	srv := backendtest.New()
	t.Cleanup(srv.Close)
	c, err := backend.New(srv.URL, backend.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)
	return c, srv
}

func fptr(v float64) *float64 { return &v }
func sptr(v string) *string   { return &v }

func TestNew_NormalizesAddress(t *testing.T) {
	c, err := backend.New("127.0.0.1:5000/")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:5000", c.BaseURL())

	_, err = backend.New("ftp://example.com")
	assert.Error(t, err)
}

func TestStartJob(t *testing.T) {
	c, srv := newClient(t)

	require.NoError(t, c.StartJob(context.Background()))
	assert.Equal(t, 1, srv.Calls("/run_speedtest"))

	hdr := srv.LastHeader()
	assert.Equal(t, "speedwatch", hdr.Get("User-Agent"))
	assert.NotEmpty(t, hdr.Get("X-Request-ID"))
}

func TestStartJob_ConflictMapsToServerBusy(t *testing.T) {
	c, srv := newClient(t)
	srv.SetBusy(true)

	err := c.StartJob(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, speedtest.ErrConflict)

	var se *backend.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusConflict, se.Code)
	assert.Equal(t, "A speed test is already running.", se.Message)
}

func TestPollStatus(t *testing.T) {
	c, srv := newClient(t)
	srv.QueueStatus(
		backendtest.Status{Status: "running", Progress: "download", Data: &model.Measurements{PingMs: fptr(12)}},
		backendtest.Status{Status: "Complete", Data: &model.Measurements{
			PingMs: fptr(12), DownloadMbps: fptr(95.5), UploadMbps: fptr(20.1), ServerName: sptr("Example ISP"),
		}},
		backendtest.Status{Status: "error", Error: sptr("No servers available")},
	)
	ctx := context.Background()

	rep, err := c.PollStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, speedtest.StatusRunning, rep.Status)
	assert.Equal(t, "download", rep.Progress)
	require.NotNil(t, rep.Data.PingMs)
	assert.Equal(t, 12.0, *rep.Data.PingMs)
	assert.Nil(t, rep.Data.DownloadMbps)

	rep, err = c.PollStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, speedtest.StatusComplete, rep.Status, "status is case-insensitive")
	require.NotNil(t, rep.Data.ServerName)
	assert.Equal(t, "Example ISP", *rep.Data.ServerName)

	rep, err = c.PollStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, speedtest.StatusError, rep.Status)
	assert.Equal(t, "No servers available", rep.Error)

	// The last answer repeats.
	rep, err = c.PollStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, speedtest.StatusError, rep.Status)
}

func TestPollStatus_ServerError(t *testing.T) {
	c, srv := newClient(t)
	srv.FailWith(http.StatusInternalServerError)

	_, err := c.PollStatus(context.Background())
	require.Error(t, err)
	var se *backend.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusInternalServerError, se.Code)
	assert.NotErrorIs(t, err, speedtest.ErrConflict)
}

func TestLiveSpeed(t *testing.T) {
	c, srv := newClient(t)
	srv.SetLive(model.LiveSpeed{DownloadMbps: 3.25, UploadMbps: 0.5})

	got, err := c.LiveSpeed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.LiveSpeed{DownloadMbps: 3.25, UploadMbps: 0.5}, got)
	require.NoError(t, c.Ping(context.Background()))
}

func TestHistory(t *testing.T) {
	c, srv := newClient(t)
	recs := []model.HistoryRecord{
		{Timestamp: "2025-01-02 10:00:00", DownloadMbps: 50, UploadMbps: 10, Type: model.RecordSpeedTest},
	}
	srv.SetHistory(recs)

	got, err := c.History(context.Background(), history.Filter{Range: history.RangeHour, Type: model.RecordSpeedTest})
	require.NoError(t, err)
	assert.Equal(t, recs, got)

	q, err := url.ParseQuery(srv.LastQuery())
	require.NoError(t, err)
	assert.Equal(t, "1hour", q.Get("time_range"))
	assert.Equal(t, "Speed Test", q.Get("type"))

	msg, err := c.ClearHistory(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "History cleared successfully.", msg)

	got, err = c.History(context.Background(), history.DefaultFilter())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestExportCSV(t *testing.T) {
	c, srv := newClient(t)
	const body = "Timestamp,Download (Mbps),Upload (Mbps),Type\n2025-01-02 10:00:00,50.0,10.0,Speed Test\n"
	srv.SetCSV(body)

	var buf bytes.Buffer
	n, err := c.ExportCSV(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, int64(len(body)), n)
	assert.Equal(t, body, buf.String())
}

func TestMyIP(t *testing.T) {
	c, srv := newClient(t)
	srv.SetIP(model.IPInfo{IP: "203.0.113.7", ISP: "Example Net", City: "Springfield", Latitude: fptr(1.5)}, "")

	info, err := c.MyIP(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.7", info.IP)
	assert.Equal(t, "Example Net", info.ISP)
	require.NotNil(t, info.Latitude)
	assert.Equal(t, 1.5, *info.Latitude)

	srv.SetIP(model.IPInfo{}, "rate limited")
	_, err = c.MyIP(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestClient_DrivesController(t *testing.T) {
	c, srv := newClient(t)
	srv.QueueStatus(
		backendtest.Status{Status: "running", Progress: "ping"},
		backendtest.Status{Status: "running", Progress: "upload", Data: &model.Measurements{PingMs: fptr(8), DownloadMbps: fptr(80)}},
		backendtest.Status{Status: "complete", Data: &model.Measurements{PingMs: fptr(8), DownloadMbps: fptr(80), UploadMbps: fptr(15)}},
	)

	var events atomic.Int32
	ctrl := speedtest.NewController(c,
		speedtest.WithInterval(speedtest.MinInterval),
		speedtest.WithReporter(progress.ReporterFunc(func(progress.Event) { events.Add(1) })),
	)
	require.NoError(t, ctrl.Start(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	st, err := ctrl.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.PhaseComplete, st.Phase)
	require.NotNil(t, st.Final)
	assert.Equal(t, 80.0, st.Final.DownloadMbps)
	assert.Equal(t, 15.0, st.Final.UploadMbps)
	assert.GreaterOrEqual(t, srv.Calls("/speedtest_status"), 3)
	assert.Positive(t, events.Load())
}
