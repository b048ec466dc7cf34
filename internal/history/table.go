package history

import (
	"io"

	"github.com/olekukonko/tablewriter"

	"speedwatch/internal/model"
	"speedwatch/internal/util/format"
)

// Summary aggregates a list of records the way the dashboard cards do.
type Summary struct {
	Count       int
	AvgDownload float64
	AvgUpload   float64
	MaxDownload float64
	MaxUpload   float64
	Newest      string
	Oldest      string
}

// Summarize computes averages and peaks. Records are expected newest first.
func Summarize(recs []model.HistoryRecord) Summary {
	var s Summary
	if len(recs) == 0 {
		return s
	}
	s.Count = len(recs)
	s.Newest = recs[0].Timestamp
	s.Oldest = recs[len(recs)-1].Timestamp
	var sumDL, sumUL float64
	for _, r := range recs {
		sumDL += r.DownloadMbps
		sumUL += r.UploadMbps
		if r.DownloadMbps > s.MaxDownload {
			s.MaxDownload = r.DownloadMbps
		}
		if r.UploadMbps > s.MaxUpload {
			s.MaxUpload = r.UploadMbps
		}
	}
	s.AvgDownload = sumDL / float64(s.Count)
	s.AvgUpload = sumUL / float64(s.Count)
	return s
}

// Render writes records as a table.
func Render(w io.Writer, recs []model.HistoryRecord) error {
	table := tablewriter.NewWriter(w)
	table.Header("Timestamp", "Type", "Download", "Upload")
	for _, r := range recs {
		if err := table.Append(
			r.Timestamp,
			r.Type,
			format.Mbps(r.DownloadMbps),
			format.Mbps(r.UploadMbps),
		); err != nil {
			return err
		}
	}
	return table.Render()
}

// RenderSummary writes the aggregate figures as a two-column table.
func RenderSummary(w io.Writer, s Summary) error {
	table := tablewriter.NewWriter(w)
	table.Header("Metric", "Value")
	rows := [][]string{
		{"Records", format.Count(s.Count)},
		{"Avg download", format.Mbps(s.AvgDownload)},
		{"Avg upload", format.Mbps(s.AvgUpload)},
		{"Peak download", format.Mbps(s.MaxDownload)},
		{"Peak upload", format.Mbps(s.MaxUpload)},
	}
	if s.Count > 0 {
		rows = append(rows, []string{"Newest", s.Newest}, []string{"Oldest", s.Oldest})
	}
	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}
