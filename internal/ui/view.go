package ui

import (
	"fmt"
	"strings"

	"speedwatch/internal/model"
	"speedwatch/internal/util/format"
)

func (m Model) viewHeader() string {
	title := m.styles.Title.Render("speedwatch · network speed test")
	sub := m.styles.Subtitle.Render(m.opts.Server)
	return title + "\n" + sub
}

func (m Model) viewBody() string {
	st := m.state
	var b strings.Builder

	switch st.Phase {
	case model.PhaseIdle:
		b.WriteString(m.styles.Faint.Render("Ready. Press s to start a speed test."))
		b.WriteString("\n")
	case model.PhaseStarting:
		b.WriteString(m.styles.Spinner.Render(m.spinner.View()) + " Starting speed test…\n")
	case model.PhaseRunning:
		b.WriteString(m.viewStage(st.Stage))
		b.WriteString("\n")
		b.WriteString(m.viewMeasurements(st.Partial))
	case model.PhaseComplete:
		b.WriteString(m.styles.Success.Render("✓ Speed test complete"))
		b.WriteString("\n")
		b.WriteString(m.bar.ViewAs(1))
		b.WriteString("\n")
		if st.Final != nil {
			b.WriteString(m.viewResult(*st.Final))
		}
	case model.PhaseError:
		b.WriteString(m.styles.Error.Render("✗ " + st.ErrorMessage))
		b.WriteString("\n")
		if hasAny(st.Partial) {
			b.WriteString(m.viewMeasurements(st.Partial))
		}
	}
	return m.styles.Box.Render(b.String())
}

func (m Model) viewStage(s model.Stage) string {
	label, style := "Waiting for server", m.styles.Faint
	switch s {
	case model.StagePing:
		label, style = "Testing ping", m.styles.Ping
	case model.StageDownload:
		label, style = "Testing download", m.styles.Download
	case model.StageUpload:
		label, style = "Testing upload", m.styles.Upload
	}
	pct := s.Percent()
	line1 := m.styles.Spinner.Render(m.spinner.View()) + " " + style.Render(label)
	line2 := fmt.Sprintf("%s %3.0f%%", m.bar.ViewAs(pct), pct*100)
	return line1 + "\n" + line2
}

func (m Model) viewMeasurements(p model.Measurements) string {
	server := "—"
	if p.ServerName != nil && *p.ServerName != "" {
		server = *p.ServerName
	}
	rows := []string{
		m.row("Ping", format.OptMs(p.PingMs)),
		m.row("Download", format.OptMbps(p.DownloadMbps)),
		m.row("Upload", format.OptMbps(p.UploadMbps)),
		m.row("Server", server),
	}
	return strings.Join(rows, "\n") + "\n"
}

func (m Model) viewResult(r model.Result) string {
	server := r.ServerName
	if server == "" {
		server = "—"
	}
	rows := []string{
		m.row("Ping", format.Ms(r.PingMs)),
		m.row("Download", format.Mbps(r.DownloadMbps)),
		m.row("Upload", format.Mbps(r.UploadMbps)),
		m.row("Server", server),
	}
	return strings.Join(rows, "\n") + "\n"
}

func (m Model) row(label, value string) string {
	return m.styles.Label.Render(label) + " " + m.styles.Value.Render(value)
}

func (m Model) viewFooter() string {
	var keys string
	if m.state.Phase.Active() {
		keys = "x: stop • q: quit"
	} else if m.state.Phase.Terminal() {
		keys = "s: run again • q: quit"
	} else {
		keys = "s: start • q: quit"
	}
	out := m.styles.Subtitle.Render(keys)
	if m.notice != "" {
		out = m.styles.Warning.Render(m.notice) + "\n" + out
	}
	return out
}

func hasAny(p model.Measurements) bool {
	return p.PingMs != nil || p.DownloadMbps != nil || p.UploadMbps != nil || p.ServerName != nil
}
