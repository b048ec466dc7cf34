// Package backendtest provides a scripted in-process network monitor server
// for tests.
package backendtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"speedwatch/internal/model"
)

// Status is one scripted /speedtest_status answer.
type Status struct {
	Status   string              `json:"status"`
	Progress string              `json:"progress,omitempty"`
	Data     *model.Measurements `json:"data,omitempty"`
	Error    *string             `json:"error,omitempty"`
}

// Server answers the monitor API from scripted values.
//
// Status answers are consumed in order; the last one repeats once the queue
// is drained, and "idle" is answered before anything is queued. Start
// answers 409 while busy.
type Server struct {
	*httptest.Server

	mu         sync.Mutex
	busy       bool
	statuses   []Status
	last       Status
	live       model.LiveSpeed
	history    []model.HistoryRecord
	csv        string
	ip         model.IPInfo
	ipErr      string
	failStatus int
	calls      map[string]int
	queries    []string
	headers    []http.Header
}

// New starts a server. Close it with t.Cleanup(s.Close).
func New() *Server {
	s := &Server{
		last:  Status{Status: "idle"},
		calls: make(map[string]int),
	}
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.record)
	r.Post("/run_speedtest", s.runSpeedtest)
	r.Get("/speedtest_status", s.speedtestStatus)
	r.Get("/get_speed", s.getSpeed)
	r.Get("/get_history", s.getHistory)
	r.Post("/clear_history", s.clearHistory)
	r.Get("/export_csv", s.exportCSV)
	r.Get("/get_my_ip", s.getMyIP)
	s.Server = httptest.NewServer(r)
	return s
}

// SetBusy makes /run_speedtest answer 409.
func (s *Server) SetBusy(b bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = b
}

// QueueStatus appends status answers.
func (s *Server) QueueStatus(st ...Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses = append(s.statuses, st...)
}

// SetLive sets the /get_speed answer.
func (s *Server) SetLive(v model.LiveSpeed) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live = v
}

// SetHistory sets the /get_history answer.
func (s *Server) SetHistory(recs []model.HistoryRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = recs
}

// SetCSV sets the /export_csv body.
func (s *Server) SetCSV(body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.csv = body
}

// SetIP sets the /get_my_ip answer. A non-empty errMsg answers success=false.
func (s *Server) SetIP(info model.IPInfo, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ip = info
	s.ipErr = errMsg
}

// FailWith makes every endpoint answer code until reset with 0.
func (s *Server) FailWith(code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failStatus = code
}

// Calls reports how many requests hit path.
func (s *Server) Calls(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[path]
}

// LastQuery returns the raw query string of the most recent request.
func (s *Server) LastQuery() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queries) == 0 {
		return ""
	}
	return s.queries[len(s.queries)-1]
}

// LastHeader returns the headers of the most recent request.
func (s *Server) LastHeader() http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.headers) == 0 {
		return nil
	}
	return s.headers[len(s.headers)-1]
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls[r.URL.Path]++
		s.queries = append(s.queries, r.URL.RawQuery)
		s.headers = append(s.headers, r.Header.Clone())
		code := s.failStatus
		s.mu.Unlock()
		if code != 0 {
			writeJSON(w, code, map[string]string{"error": http.StatusText(code)})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) runSpeedtest(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	busy := s.busy
	s.mu.Unlock()
	if busy {
		writeJSON(w, http.StatusConflict, map[string]any{"success": false, "message": "A speed test is already running."})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"success": true, "message": "Speed test started."})
}

func (s *Server) speedtestStatus(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	if len(s.statuses) > 0 {
		s.last = s.statuses[0]
		s.statuses = s.statuses[1:]
	}
	st := s.last
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) getSpeed(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	v := s.live
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) getHistory(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	recs := s.history
	s.mu.Unlock()
	if recs == nil {
		recs = []model.HistoryRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) clearHistory(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	s.history = nil
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"message": "History cleared successfully."})
}

func (s *Server) exportCSV(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	body := s.csv
	s.mu.Unlock()
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=network_data.csv")
	_, _ = w.Write([]byte(body))
}

func (s *Server) getMyIP(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	info, errMsg := s.ip, s.ipErr
	s.mu.Unlock()
	if errMsg != "" {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "error": errMsg})
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		model.IPInfo
	}{Success: true, IPInfo: info})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
