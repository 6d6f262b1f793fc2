package web

import (
	"html/template"
	"math"
	"strings"

	"github.com/runnerr0/quix/internal/api"
	"github.com/runnerr0/quix/internal/view"
)

var templateFuncs = template.FuncMap{
	"highlight": highlight,
	"pct":       pct,
	"upper":     strings.ToUpper,
	"title": func(s view.Section) string {
		return strings.ToUpper(strings.ReplaceAll(string(s), "-", " "))
	},
	"add":   func(a, b int) int { return a + b },
	"band":  func(score float64) string { return string(view.BandFor(score)) },
	"deref": deref,
	"count": func(counts map[view.Tab]int, tab string) int {
		return counts[view.Tab(tab)]
	},
	"maxCount": func(entities []api.EntityCount) int {
		top := 0
		for _, e := range entities {
			if e.Count > top {
				top = e.Count
			}
		}
		return top
	},
}

// highlight escapes s and turns "**bold**" spans into <strong>.
func highlight(s string) template.HTML {
	var sb strings.Builder
	for _, sp := range view.Highlight(s) {
		text := template.HTMLEscapeString(sp.Text)
		if sp.Bold {
			sb.WriteString("<strong>" + text + "</strong>")
		} else {
			sb.WriteString(text)
		}
	}
	return template.HTML(sb.String())
}

func deref(v interface{}) interface{} {
	switch p := v.(type) {
	case *float64:
		if p != nil {
			return *p
		}
	case *int:
		if p != nil {
			return *p
		}
	}
	return v
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	}
	return 0
}

// pct clamps v/full to a 0..100 integer for bar widths.
func pct(value, of interface{}) int {
	v, full := toFloat(value), toFloat(of)
	if full <= 0 {
		return 0
	}
	p := int(math.Round(v / full * 100))
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

const dashboardHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  {{- if .Reload}}
  <meta http-equiv="refresh" content="{{.Reload}}" />
  {{- end}}
  <title>QUIX Threat Monitor</title>
  <style>
    :root {
      --bg: #0b0f14;
      --ink: #d7dde4;
      --muted: #7a8591;
      --card: #121922;
      --border: #1f2a36;
      --critical: #e5484d;
      --caution: #f5a524;
      --informational: #30a46c;
    }
    * { box-sizing: border-box; }
    body { margin: 0; font-family: "JetBrains Mono", Menlo, Consolas, monospace; color: var(--ink); background: var(--bg); }
    header { padding: 16px 24px; border-bottom: 1px solid var(--border); position: sticky; top: 0; background: var(--bg); z-index: 10; }
    header h1 { margin: 0; font-size: 18px; letter-spacing: 2px; }
    .sync { color: var(--muted); font-size: 12px; }
    .clocks { display: flex; flex-wrap: wrap; gap: 16px; margin-top: 8px; font-size: 12px; }
    .clocks b { color: #fff; }
    nav { margin-top: 8px; font-size: 12px; }
    nav a { color: var(--muted); margin-right: 12px; text-decoration: none; }
    main { padding: 24px; display: grid; gap: 16px; max-width: 1200px; margin: 0 auto; }
    section { background: var(--card); border: 1px solid var(--border); border-radius: 8px; padding: 16px 20px; }
    h2 { margin: 0 0 12px; font-size: 13px; letter-spacing: 1.5px; color: var(--muted); }
    .score { font-size: 48px; font-weight: 700; }
    .critical { color: var(--critical); }
    .caution { color: var(--caution); }
    .informational { color: var(--informational); }
    .bar { height: 8px; background: var(--border); border-radius: 4px; overflow: hidden; }
    .bar > span { display: block; height: 100%; }
    .bar > span.critical { background: var(--critical); }
    .bar > span.caution { background: var(--caution); }
    .bar > span.informational { background: var(--informational); }
    .muted { color: var(--muted); font-size: 12px; }
    table { width: 100%; border-collapse: collapse; font-size: 12px; }
    td { padding: 4px 6px; vertical-align: middle; }
    .tabs a { color: var(--muted); margin-right: 16px; text-decoration: none; }
    .tabs a.active { color: #fff; border-bottom: 2px solid #fff; }
    .event { border-top: 1px solid var(--border); padding: 12px 0; }
    .event h3 { margin: 0 0 4px; font-size: 14px; }
    .chip { display: inline-block; padding: 1px 6px; margin: 2px; border: 1px solid var(--border); border-radius: 10px; font-size: 11px; }
    button { background: none; color: var(--ink); border: 1px solid var(--border); padding: 4px 10px; font-family: inherit; cursor: pointer; }
    .empty { text-align: center; padding: 24px; }
  </style>
</head>
<body>
<header>
  <h1>QUIX THREAT MONITOR</h1>
  <div class="sync">LAST SYNC {{if .Page.LastSync}}{{.Page.LastSync}}{{else}}--:--:--{{end}}</div>
  <div class="clocks">
    {{- range .Page.Clocks}}
    <span>{{.Flag}} {{.City}} <b>{{.Time}}</b></span>
    {{- end}}
  </div>
  <nav>
    {{- range $i, $s := .Sections}}
    <a href="#{{$s}}">{{add $i 1}} {{title $s}}</a>
    {{- end}}
    <form method="post" action="/collect?redirect=1" style="display:inline"><button type="submit">COLLECT</button></form>
    <form method="post" action="/refresh?redirect=1" style="display:inline"><button type="submit">REFRESH</button></form>
  </nav>
</header>
<main>
{{- if not .Initialized}}
  <section class="empty"><h2>{{.InitMessage}}</h2></section>
{{- else}}
  <section id="threat-level">
    <h2>CURRENT THREAT LEVEL</h2>
    {{- with .Page.Threat}}
    <div class="score {{.Band}}">{{.Display}} <span class="muted">{{.Scale}}</span></div>
    <div class="{{.Band}}">{{.Label}}</div>
    <div class="bar"><span class="{{.Band}}" style="width: {{pct .Score 100}}%"></span></div>
    <div class="muted">{{.Window}}</div>
    {{- else}}
    <div class="muted">{{.Page.TrendEmpty}}</div>
    {{- end}}
  </section>

  <section id="summary">
    <h2>DAILY INTELLIGENCE SUMMARY</h2>
    {{- with .Page.Summary}}
    {{- if .Available}}
    <div class="muted">EVENTS {{.EventCount}} · AVG THREAT {{.AvgThreatScore}} · KEY ENTITIES {{.KeyEntityCount}}</div>
    <div>{{range .KeyEntities}}<span class="chip">{{.}}</span>{{end}}</div>
    {{- range .Lines}}
    <p>{{highlight .}}</p>
    {{- end}}
    {{- if .HasMore}}
    <a href="{{$.ToggleURL}}">{{if .Expanded}}SHOW LESS{{else}}SHOW FULL REPORT{{end}}</a>
    {{- end}}
    {{- else}}
    <p class="muted">{{.EmptyMessage}}</p>
    {{- end}}
    {{- end}}
  </section>

  <section id="charts">
    <h2>THREAT TREND</h2>
    {{- if .Page.Trend}}
    <table>
      {{- range .Page.Trend}}
      <tr>
        <td>{{.Date}}</td>
        <td style="width:50%"><div class="bar"><span class="{{band .ThreatScore}}" style="width: {{pct .ThreatScore 100}}%"></span></div></td>
        <td>{{printf "%.1f" .ThreatScore}}</td>
        <td class="critical">{{if .HasActual}}actual {{printf "%.1f" (deref .ActualScore)}}{{with .Casualties}} · {{deref .}} casualties{{end}}{{with .EventTitle}} · {{.}}{{end}}{{end}}</td>
      </tr>
      {{- end}}
    </table>
    {{- else}}
    <p class="muted">{{.Page.TrendEmpty}}</p>
    {{- end}}

    <h2 style="margin-top:16px">TOP ENTITIES</h2>
    {{- if .Page.Entities}}
    {{- $top := maxCount .Page.Entities}}
    <table>
      {{- range .Page.Entities}}
      <tr><td>{{.Name}}</td><td style="width:60%"><div class="bar"><span class="caution" style="width: {{pct .Count $top}}%"></span></div></td><td>{{.Count}}</td></tr>
      {{- end}}
    </table>
    {{- else}}
    <p class="muted">{{.Page.EntitiesEmpty}}</p>
    {{- end}}
  </section>

  <section id="events">
    <div class="tabs">
      <a href="{{.NewsURL}}" {{if eq (print .Page.Tab) "news"}}class="active"{{end}}>NEWS ({{count .Page.TabCounts "news"}})</a>
      <a href="{{.ChatterURL}}" {{if eq (print .Page.Tab) "chatter"}}class="active"{{end}}>CHATTER ({{count .Page.TabCounts "chatter"}})</a>
    </div>
    {{- range .Page.Events}}
    <div class="event">
      <h3><span class="{{.Band}}">[{{printf "%.1f" .ThreatScore}}]</span> {{if .URL}}<a href="{{.URL}}">{{.Title}}</a>{{else}}{{.Title}}{{end}}</h3>
      <div class="muted">{{upper .Platform}} · {{.Source}} · {{.When}}</div>
      {{- if .Content}}<p>{{.Content}}</p>{{end}}
      <div>{{range .Entities}}<span class="chip">{{.}}</span>{{end}}</div>
    </div>
    {{- else}}
    <div class="empty">
      <h2>{{.Page.EventsEmpty}}</h2>
      <p class="muted">{{.Hint}}</p>
    </div>
    {{- end}}
  </section>
{{- end}}
</main>
</body>
</html>
`
