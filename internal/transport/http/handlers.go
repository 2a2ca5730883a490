package http

import (
	"fmt"
	"html/template"
	stdhttp "net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

var dashboardTmpl = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta http-equiv="refresh" content="10">
<title>MortalNet Status</title>
<style>
  body { font-family: monospace; background: #111; color: #ccc; padding: 2em; }
  h1 { color: #f80; }
  table { border-collapse: collapse; width: 100%; margin-bottom: 2em; }
  th, td { border: 1px solid #444; padding: 0.4em 0.8em; text-align: left; }
  th { color: #f80; background: #222; }
  tr:nth-child(even) { background: #1a1a1a; }
  .meta { color: #888; margin-bottom: 1em; }
  .status-chat  { color: #8f8; }
  .status-away  { color: #fa0; }
  .status-game  { color: #88f; }
  .status-queue { color: #f88; }
</style>
</head>
<body>
<h1>MortalNet Status</h1>
<p class="meta">Uptime: {{.UptimeSeconds}}s &mdash; Players online: {{.PlayerCount}}</p>
<table>
<tr><th>Nick</th><th>IP</th><th>Status</th><th>Idle (s)</th></tr>
{{if not .Players}}<tr><td colspan="4">No players online</td></tr>{{end}}
{{range .Players}}<tr><td>{{.Nick}}</td><td>{{.IP}}</td><td class="status-{{.Status}}">{{.Status}}</td><td>{{.IdleSeconds}}</td></tr>
{{end}}</table>
</body>
</html>`))

type handlers struct {
	hub Hub
	log *zerolog.Logger
}

// GET /healthz
func (h *handlers) health(c *gin.Context) {
	c.String(stdhttp.StatusOK, "OK\n")
}

// GET /api/status
func (h *handlers) status(c *gin.Context) {
	c.IndentedJSON(stdhttp.StatusOK, h.hub.GetSnapshot())
}

// GET /api/stats
func (h *handlers) stats(c *gin.Context) {
	c.Data(stdhttp.StatusOK, "application/json", h.hub.GetRawStats())
}

// GET /
func (h *handlers) index(c *gin.Context) {
	c.HTML(stdhttp.StatusOK, "dashboard", h.hub.GetSnapshot())
}

// GET /metrics
func (h *handlers) metrics(c *gin.Context) {
	snap := h.hub.GetSnapshot()
	m := snap.Metrics

	var b strings.Builder
	writeMetric(&b, "mortalnet_connections_total", "counter", "Total TCP connections accepted", m.ConnectionsTotal)
	writeMetric(&b, "mortalnet_active_players", "gauge", "Currently registered players", int64(snap.PlayerCount))
	writeMetric(&b, "mortalnet_messages_total", "counter", "Total chat messages processed", m.MessagesTotal)
	writeMetric(&b, "mortalnet_challenges_total", "counter", "Total challenges sent", m.ChallengesTotal)
	writeMetric(&b, "mortalnet_kicks_total", "counter", "Total admin kicks", m.KicksTotal)
	writeMetric(&b, "mortalnet_bans_total", "counter", "Total admin bans", m.BansTotal)
	writeMetric(&b, "mortalnet_uptime_seconds", "gauge", "Server uptime in seconds", snap.UptimeSeconds)

	c.Data(stdhttp.StatusOK, "text/plain; version=0.0.4", []byte(b.String()))
}

func writeMetric(b *strings.Builder, name, kind, help string, value int64) {
	fmt.Fprintf(b, "# HELP %s %s\n", name, help)
	fmt.Fprintf(b, "# TYPE %s %s\n", name, kind)
	fmt.Fprintf(b, "%s %d\n", name, value)
}
