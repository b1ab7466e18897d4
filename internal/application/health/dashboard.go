package health

import (
	"bytes"
	"html/template"
	"sort"
)

var dashboard = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <meta http-equiv="refresh" content="15">
  <title>Wardrobe API status</title>
  <style>
    body { font-family: system-ui, sans-serif; background: #faf7f5; color: #2b2024; max-width: 880px; margin: 40px auto; padding: 0 20px; }
    h1 { font-size: 40px; margin: 0 0 6px; }
    h1.issue { color: #b42318; }
    .muted { color: #7a6b70; }
    section { background: #fff; border-radius: 16px; padding: 20px 28px; margin-top: 20px; box-shadow: 0 8px 30px rgba(43,32,36,.06); }
    table { width: 100%; border-collapse: collapse; }
    td { padding: 6px 0; border-bottom: 1px solid #f1eaec; }
    td:last-child { text-align: right; font-weight: 600; }
    .ok { color: #1a7f5a; } .err { color: #b42318; }
    code { font-size: 13px; }
  </style>
</head>
<body>
  {{if eq .Report.Status "ok"}}<h1>All systems operational</h1>{{else}}<h1 class="issue">System issues detected</h1>{{end}}
  <p class="muted">Up {{.Report.Runtime.UptimeSeconds}}s · {{.Report.Runtime.Platform}} · {{.Report.Runtime.GoVersion}}</p>
  <section>
    <h3>Traffic</h3>
    <table>
      <tr><td>Requests</td><td>{{.Report.Traffic.TotalRequests}}</td></tr>
      <tr><td>Failed (5xx)</td><td>{{.Report.Traffic.FailedCount}}</td></tr>
      <tr><td>Success rate</td><td>{{.Report.Traffic.SuccessRate}}%</td></tr>
      <tr><td>Avg latency</td><td>{{.Report.Traffic.AvgResponseTime}} ms</td></tr>
      {{with .Report.Traffic.LastRequest}}<tr><td>Last request</td><td><code>{{index . "method"}} {{index . "path"}}</code></td></tr>{{end}}
    </table>
  </section>
  <section>
    <h3>Dependencies</h3>
    <table>
      {{range .Deps}}<tr><td>{{.Name}}</td><td class="{{if .Status.OK}}ok{{else}}err{{end}}">{{.Status.Status}}{{with .Status.PingMs}} · {{.}} ms{{end}}</td></tr>{{end}}
    </table>
  </section>
  <section>
    <h3>Runtime</h3>
    <table>
      <tr><td>Heap in use</td><td>{{.Report.Runtime.HeapMB}} MB</td></tr>
      <tr><td>Goroutines</td><td>{{.Report.Runtime.Goroutines}}</td></tr>
    </table>
    <p class="muted"><a href="/health/json">json</a> · <a href="/health/errors">recent errors</a></p>
  </section>
</body>
</html>`))

type namedDep struct {
	Name   string
	Status DepStatus
}

// RenderDashboard renders the status page for a report.
func RenderDashboard(r Report) (string, error) {
	deps := make([]namedDep, 0, len(r.Dependencies))
	for name, d := range r.Dependencies {
		deps = append(deps, namedDep{Name: name, Status: d})
	}
	sort.Slice(deps, func(i, j int) bool { return deps[i].Name < deps[j].Name })

	var buf bytes.Buffer
	if err := dashboard.Execute(&buf, struct {
		Report Report
		Deps   []namedDep
	}{r, deps}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
