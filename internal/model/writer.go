package model

// Writer defines a generic interface for persisting or publishing a finished report.
type Writer interface {
	// Name identifies the writer in logs.
	Name() string

	// Write takes a completed report and persists it.
	Write(report *Report) error

	// Close releases any connection held by the writer.
	Close() error
}
