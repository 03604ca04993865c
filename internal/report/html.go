package report

import (
	"PcapSpectra/internal/engine/summary"
	"PcapSpectra/internal/model"
	"embed"
	"fmt"
	"html/template"
	"io"
	"os"
)

// seriesLimit caps how many keys per dimension are charted; the table lists all of them.
const seriesLimit = 10

//go:embed templates/report.html
var templateFS embed.FS

var pageTemplate = template.Must(
	template.New("report.html").
		Funcs(template.FuncMap{"percent": summary.FormatPercent}).
		ParseFS(templateFS, "templates/report.html"),
)

type page struct {
	Report      *model.Report
	Unit        string
	Data        template.JS
	SeriesLimit int
}

// RenderHTML writes the self-contained interactive report page for rep.
// A report without matched packets renders an explicit notice instead of charts.
func RenderHTML(w io.Writer, rep *model.Report) error {
	// The compatible encoder escapes <, > and &, so the document is safe inside <script>.
	data, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("failed to encode report data: %w", err)
	}
	p := page{
		Report:      rep,
		Unit:        rep.Mode.Unit(),
		Data:        template.JS(data),
		SeriesLimit: seriesLimit,
	}
	if err := pageTemplate.Execute(w, p); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}

// WriteHTMLFile renders rep into the file at path.
func WriteHTMLFile(path string, rep *model.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	if err := RenderHTML(f, rep); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
