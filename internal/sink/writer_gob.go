package sink

import (
	"PcapSpectra/internal/config"
	"PcapSpectra/internal/factory"
	"PcapSpectra/internal/model"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

func init() {
	factory.RegisterWriter("gob", func(def config.WriterDef, _ log.FieldLogger) (model.Writer, error) {
		return NewGobWriter(def.Gob.Path), nil
	})
}

// GobWriter handles writing report snapshots to disk in gob format.
type GobWriter struct {
	path string
}

// NewGobWriter creates a new writer for report snapshots.
func NewGobWriter(path string) *GobWriter {
	return &GobWriter{path: path}
}

func (w *GobWriter) Name() string {
	return "gob:" + w.path
}

// Write encodes rep into the configured file.
func (w *GobWriter) Write(rep *model.Report) error {
	if dir := filepath.Dir(w.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create snapshot directory: %w", err)
		}
	}
	file, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("failed to create snapshot file '%s': %w", w.path, err)
	}
	if err := gob.NewEncoder(file).Encode(rep); err != nil {
		file.Close()
		return fmt.Errorf("failed to encode report to gob for file '%s': %w", w.path, err)
	}
	return file.Close()
}

func (w *GobWriter) Close() error {
	return nil
}

// ReadGob loads a report snapshot written by GobWriter.
func ReadGob(path string) (*model.Report, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var rep model.Report
	if err := gob.NewDecoder(file).Decode(&rep); err != nil {
		return nil, fmt.Errorf("failed to decode gob snapshot '%s': %w", path, err)
	}
	if rep.Version != model.ReportVersion {
		return nil, fmt.Errorf("unsupported report version %d in '%s'", rep.Version, path)
	}
	return &rep, nil
}
