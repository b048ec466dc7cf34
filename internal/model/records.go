package model

// LiveSpeed is one instantaneous throughput sample reported by the backend.
type LiveSpeed struct {
	DownloadMbps float64 `json:"download"`
	UploadMbps   float64 `json:"upload"`
}

// Record types stored by the backend.
const (
	RecordLive      = "Live Monitoring"
	RecordSpeedTest = "Speed Test"
)

// HistoryRecord is a persisted measurement as returned by the history endpoint.
type HistoryRecord struct {
	Timestamp    string  `json:"timestamp"` // "2006-01-02 15:04:05", server local time
	DownloadMbps float64 `json:"download"`
	UploadMbps   float64 `json:"upload"`
	Type         string  `json:"type"`
}

// IPInfo describes the public address of the machine running the backend.
type IPInfo struct {
	IP           string   `json:"ip_address"`
	ISP          string   `json:"isp"`
	Organization string   `json:"organization"`
	City         string   `json:"city"`
	Region       string   `json:"region"`
	Country      string   `json:"country"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	Timezone     string   `json:"timezone"`

	// Filled locally from a GeoLite2 ASN database when available.
	ASN    uint   `json:"asn,omitempty"`
	ASNOrg string `json:"asn_org,omitempty"`
}
