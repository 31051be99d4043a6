package reports

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"time"
)

//go:embed templates/report.html.tmpl
var reportSource string

var reportTmpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"fmtDate":      func(t time.Time) string { return formatTime(t, "02 January 2006") },
	"fmtShortDate": func(t time.Time) string { return formatTime(t, "02/01/2006") },
	"fmtDateTime":  func(t time.Time) string { return formatTime(t, "02/01/2006 15:04") },
}).Parse(reportSource))

// RenderHTML renders the printable report page.
func RenderHTML(r Report) ([]byte, error) {
	var buf bytes.Buffer
	if err := reportTmpl.Execute(&buf, r); err != nil {
		return nil, fmt.Errorf("render report html: %w", err)
	}
	return buf.Bytes(), nil
}

func formatTime(t time.Time, layout string) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(layout)
}
