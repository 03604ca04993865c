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
	factory.RegisterWriter("json", func(def config.WriterDef, _ log.FieldLogger) (model.Writer, error) {
		return NewJSONWriter(def.JSON.Path), nil
	})
}

// JSONWriter writes the report document to a file as indented JSON.
type JSONWriter struct {
	path string
}

// NewJSONWriter creates a writer targeting path.
func NewJSONWriter(path string) *JSONWriter {
	return &JSONWriter{path: path}
}

func (w *JSONWriter) Name() string {
	return "json:" + w.path
}

// Write serializes rep to the configured path, creating parent directories.
func (w *JSONWriter) Write(rep *model.Report) error {
	if dir := filepath.Dir(w.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	f, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("failed to create report file '%s': %w", w.path, err)
	}
	if err := report.EncodeJSON(f, rep); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (w *JSONWriter) Close() error {
	return nil
}
