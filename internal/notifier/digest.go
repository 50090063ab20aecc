package notifier

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"
	"sort"
	"time"

	"StockSentinel/internal/model"
	"StockSentinel/internal/strategy"

	"github.com/shopspring/decimal"
)

// DigestOptions controls the framing of the digest document.
type DigestOptions struct {
	Title       string
	SiteURL     string // linked from the heading when set
	GeneratedAt time.Time
	Rule        strategy.Rule // RSI bounds used for colouring
}

const (
	colorUp        = "green"
	colorDown      = "red"
	colorAmber     = "orange"
	yahooQuoteBase = "https://finance.yahoo.com/quote/"
)

type digestMA struct {
	Window int
	Value  string
	Up     bool
	Diff   string
}

type digestRecord struct {
	Company   string
	Price     string
	MAs       []digestMA
	MACD      string
	Signal    string
	MACDColor string
	RSI       string
	RSIColor  string
	ADX       string
	PlusDI    string
	MinusDI   string
}

type digestGroup struct {
	Symbol  string
	Link    string
	Records []digestRecord
}

type digestView struct {
	Title     string
	SiteURL   string
	Generated string
	Groups    []digestGroup
}

var digestTmpl = template.Must(template.New("digest").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body style="font-family:Arial,sans-serif">
<h2>{{if .SiteURL}}<a href="{{.SiteURL}}">{{.Title}}</a>{{else}}{{.Title}}{{end}}</h2>
<p>Generated {{.Generated}}</p>
<ul>
{{- range .Groups}}
<li>
{{- $g := .}}
{{- range .Records}}
<p><strong><a href="{{$g.Link}}" style="text-decoration:none">{{$g.Symbol}}</a></strong>{{with .Company}} {{.}}{{end}} <strong>${{.Price}}</strong></p>
{{- range .MAs}}
<p>MA{{.Window}}: ${{.Value}} ({{if .Up}}+{{end}}{{.Diff}}%)</p>
{{- end}}
<p>MACD: <span style="color:{{.MACDColor}};font-weight:bold">{{.MACD}}</span> Signal: {{.Signal}}</p>
<p>RSI: <span style="color:{{.RSIColor}};font-weight:bold">{{.RSI}}</span></p>
<p>ADX: {{.ADX}} +DI: {{.PlusDI}} -DI: {{.MinusDI}}</p>
{{- end}}
</li>
{{- end}}
</ul>
</body>
</html>
`))

// RenderDigest renders the highlighted records of snap as one HTML document,
// one list item per symbol in ascending symbol order. With nothing highlighted
// the list is empty.
func RenderDigest(snap *model.Snapshot, opts DigestOptions) (string, error) {
	if opts.Title == "" {
		opts.Title = "Stock Price Alerts"
	}
	if opts.Rule.RSIUpper == 0 {
		opts.Rule = strategy.DefaultRule
	}
	if opts.GeneratedAt.IsZero() {
		opts.GeneratedAt = time.Now()
	}

	bySymbol := make(map[string][]model.AlertRecord)
	for _, r := range snap.Highlighted() {
		bySymbol[r.Symbol] = append(bySymbol[r.Symbol], r)
	}
	symbols := make([]string, 0, len(bySymbol))
	for s := range bySymbol {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	view := digestView{
		Title:     opts.Title,
		SiteURL:   opts.SiteURL,
		Generated: opts.GeneratedAt.Format("2006-01-02 15:04:05"),
		Groups:    make([]digestGroup, 0, len(symbols)),
	}
	for _, s := range symbols {
		g := digestGroup{Symbol: s, Link: yahooQuoteBase + url.PathEscape(s)}
		for _, r := range bySymbol[s] {
			g.Records = append(g.Records, newDigestRecord(r, opts.Rule))
		}
		view.Groups = append(view.Groups, g)
	}

	var buf bytes.Buffer
	if err := digestTmpl.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("render digest: %w", err)
	}
	return buf.String(), nil
}

func newDigestRecord(r model.AlertRecord, rule strategy.Rule) digestRecord {
	windows := make([]int, 0, len(r.MovingAverages))
	for w := range r.MovingAverages {
		windows = append(windows, w)
	}
	sort.Ints(windows)

	mas := make([]digestMA, len(windows))
	for i, w := range windows {
		mas[i] = digestMA{
			Window: w,
			Value:  money(r.MovingAverages[w]),
			Up:     r.PercentDifferences[w] > 0,
			Diff:   fixed(r.PercentDifferences[w], 2),
		}
	}

	macdColor := colorDown
	if r.MACD > r.Signal {
		macdColor = colorUp
	}

	return digestRecord{
		Company:   r.CompanyName,
		Price:     money(r.CurrentPrice),
		MAs:       mas,
		MACD:      fixed(r.MACD, 4),
		Signal:    fixed(r.Signal, 4),
		MACDColor: macdColor,
		RSI:       fixed(r.RSI, 2),
		RSIColor:  rsiColor(strategy.TierRSI(r.RSI, rule)),
		ADX:       fixed(r.ADX, 2),
		PlusDI:    fixed(r.PlusDI, 2),
		MinusDI:   fixed(r.MinusDI, 2),
	}
}

func rsiColor(tier strategy.RSITier) string {
	switch tier {
	case strategy.RSIOverbought:
		return colorAmber
	case strategy.RSIBullish:
		return colorUp
	default:
		return colorDown
	}
}

func money(v float64) string { return fixed(v, 2) }

func fixed(v float64, places int32) string {
	return decimal.NewFromFloat(v).StringFixed(places)
}
