package factory

import (
	"PcapSpectra/internal/config"
	"PcapSpectra/internal/model"
	"fmt"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"
)

// WriterFactory builds a writer from its config definition.
type WriterFactory func(def config.WriterDef, logger log.FieldLogger) (model.Writer, error)

// registry holds the mapping of writer types to their factory functions.
var registry = make(map[string]WriterFactory)

// RegisterWriter registers a new writer type with its factory function.
func RegisterWriter(name string, factory WriterFactory) {
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("writer type '%s' already registered", name))
	}
	registry[name] = factory
}

// Types lists the registered writer types.
func Types() []string {
	types := make([]string, 0, len(registry))
	for name := range registry {
		types = append(types, name)
	}
	sort.Strings(types)
	return types
}

// CreateWriters builds every enabled writer in defs. Already created writers
// are closed if a later one fails.
func CreateWriters(defs []config.WriterDef, logger log.FieldLogger) ([]model.Writer, error) {
	var writers []model.Writer
	for _, def := range defs {
		if !def.Enabled {
			continue
		}
		factory, ok := registry[def.Type]
		if !ok {
			closeAll(writers, logger)
			return nil, fmt.Errorf("unknown writer type: '%s' (known: %s)", def.Type, strings.Join(Types(), ", "))
		}

		logger.WithField("writer", def.Type).Debug("Creating writer")
		w, err := factory(def, logger)
		if err != nil {
			closeAll(writers, logger)
			return nil, fmt.Errorf("error creating writer type '%s': %w", def.Type, err)
		}
		writers = append(writers, w)
	}
	return writers, nil
}

// WriteAll hands rep to every writer, logging failures, and reports whether all succeeded.
func WriteAll(writers []model.Writer, rep *model.Report, logger log.FieldLogger) bool {
	ok := true
	for _, w := range writers {
		if err := w.Write(rep); err != nil {
			logger.WithField("writer", w.Name()).WithError(err).Error("Failed to write report")
			ok = false
			continue
		}
		logger.WithField("writer", w.Name()).Info("Report written")
	}
	return ok
}

// CloseAll closes every writer, logging failures.
func CloseAll(writers []model.Writer, logger log.FieldLogger) {
	closeAll(writers, logger)
}

func closeAll(writers []model.Writer, logger log.FieldLogger) {
	for _, w := range writers {
		if err := w.Close(); err != nil {
			logger.WithField("writer", w.Name()).WithError(err).Warn("Failed to close writer")
		}
	}
}
