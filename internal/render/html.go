package render

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"weekgrid/internal/calnav"
	"weekgrid/internal/model"
	"weekgrid/internal/timeunit"
)

// WeekView is everything needed to draw one week.
type WeekView struct {
	Grid  Grid        `json:"-"`
	Days  []time.Time `json:"days"`
	Boxes []Box       `json:"boxes"`
	Label string      `json:"label"`
}

// NewWeekView positions events for days.
func (g Grid) NewWeekView(events []model.CalendarEvent, days []time.Time) WeekView {
	return WeekView{
		Grid:  g,
		Days:  days,
		Boxes: g.Boxes(events, days),
		Label: weekLabel(days),
	}
}

func weekLabel(days []time.Time) string {
	if len(days) == 0 {
		return ""
	}
	return calnav.ISOWeekLabel(days[0])
}

var weekTmpl = template.Must(template.New("week").Funcs(template.FuncMap{
	"px":   func(f float64) string { return fmt.Sprintf("%.1fpx", f) },
	"hhmm": timeunit.FormatMinute,
	"dayLeft": func(g Grid, i int) float64 {
		return g.GutterWidthPx + float64(i)*g.DayWidthPx
	},
	"slotTop": func(g Grid, m int) float64 {
		return g.HeaderHeightPx + float64(m-g.WindowStart)*g.PixelsPerMinute()
	},
	"boxTop": func(g Grid, b Box) float64 {
		return g.HeaderHeightPx + b.Top
	},
	"boxLeft": func(g Grid, b Box) float64 {
		return g.GutterWidthPx + float64(b.DayIndex)*g.DayWidthPx + b.LeftPct*g.DayWidthPx/100
	},
	"boxWidth": func(g Grid, b Box) float64 {
		return b.WidthPct * g.DayWidthPx / 100
	},
	"color": func(c string) string {
		if c == "" {
			return "#4a78c2"
		}
		return c
	},
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Label}}</title>
<style>
body { margin: 0; font-family: sans-serif; font-size: 12px; }
.grid { position: relative; }
.head { position: absolute; top: 0; text-align: center; font-weight: bold; }
.slot { position: absolute; left: 0; right: 0; border-top: 1px solid #ddd; }
.slot span { position: absolute; left: 2px; top: -7px; color: #777; }
.day { position: absolute; border-left: 1px solid #ccc; }
.ev { position: absolute; box-sizing: border-box; overflow: hidden; color: #fff; border-radius: 3px; padding: 2px 4px; border: 1px solid #fff; }
</style>
</head>
<body>
{{- $g := .Grid}}
<div class="grid" data-ready="true" data-week="{{.Label}}" style="height: {{px (slotTop $g $g.WindowEnd)}};">
{{- range $i, $d := .Days}}
  <div class="head" style="left: {{px (dayLeft $g $i)}}; width: {{px $g.DayWidthPx}}; height: {{px $g.HeaderHeightPx}};">{{$d.Format "Mon 01/02"}}</div>
  <div class="day" style="left: {{px (dayLeft $g $i)}}; width: {{px $g.DayWidthPx}}; top: {{px $g.HeaderHeightPx}}; height: {{px $g.BodyHeight}};"></div>
{{- end}}
{{- range $g.Slots}}
  <div class="slot" style="top: {{px (slotTop $g .)}};"><span>{{hhmm .}}</span></div>
{{- end}}
{{- range .Boxes}}
  <div class="ev" data-id="{{.Event.ID}}" data-day="{{.DayIndex}}" data-column="{{.Column}}" data-columns="{{.ColumnCount}}"
    style="top: {{px (boxTop $g .)}}; height: {{px .Height}}; left: {{px (boxLeft $g .)}}; width: {{px (boxWidth $g .)}}; background: {{color .Event.Color}};">
    {{hhmm .StartMinute}} {{.Event.Title}}
  </div>
{{- end}}
</div>
</body>
</html>
`))

// WriteHTML renders v as a standalone HTML page. The root element carries
// data-ready="true" for headless capture.
func WriteHTML(w io.Writer, v WeekView) error {
	return weekTmpl.Execute(w, v)
}
