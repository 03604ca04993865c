package sink

import (
	"PcapSpectra/internal/config"
	"PcapSpectra/internal/factory"
	"PcapSpectra/internal/model"
	"PcapSpectra/internal/report"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

func init() {
	factory.RegisterWriter("html", func(def config.WriterDef, _ log.FieldLogger) (model.Writer, error) {
		return NewHTMLWriter(def.HTML.Path), nil
	})
}

// HTMLWriter renders the interactive report page to a file.
type HTMLWriter struct {
	path string
}

// NewHTMLWriter creates a writer targeting path.
func NewHTMLWriter(path string) *HTMLWriter {
	return &HTMLWriter{path: path}
}

func (w *HTMLWriter) Name() string {
	return "html:" + w.path
}

// Path is the file the report is rendered to.
func (w *HTMLWriter) Path() string {
	return w.path
}

func (w *HTMLWriter) Write(rep *model.Report) error {
	if dir := filepath.Dir(w.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	return report.WriteHTMLFile(w.path, rep)
}

func (w *HTMLWriter) Close() error {
	return nil
}
