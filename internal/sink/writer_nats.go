package sink

import (
	"PcapSpectra/internal/config"
	"PcapSpectra/internal/factory"
	"PcapSpectra/internal/model"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

func init() {
	factory.RegisterWriter("nats", func(def config.WriterDef, logger log.FieldLogger) (model.Writer, error) {
		return NewNATSWriter(def.NATS, logger)
	})
}

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// NATSWriter is responsible for publishing finished reports to a NATS subject.
type NATSWriter struct {
	nc      *nats.Conn
	subject string
	log     log.FieldLogger
}

// NewNATSWriter creates a new NATS publisher.
func NewNATSWriter(cfg config.NATSConfig, logger log.FieldLogger) (*NATSWriter, error) {
	nc, err := nats.Connect(cfg.URL, nats.Name("pcap-analyzer"))
	if err != nil {
		return nil, err
	}
	logger.WithField("url", cfg.URL).Info("Connected to NATS server")
	return &NATSWriter{nc: nc, subject: cfg.Subject, log: logger}, nil
}

func (w *NATSWriter) Name() string {
	return "nats:" + w.subject
}

// Write serializes rep to JSON and publishes it. Reports larger than the
// server's payload limit are published without their series.
func (w *NATSWriter) Write(rep *model.Report) error {
	data, trimmed, err := natsPayload(rep, w.nc.MaxPayload())
	if err != nil {
		return err
	}
	if trimmed {
		w.log.WithField("subject", w.subject).Warn("Report exceeds NATS max payload, publishing summaries only")
	}
	if err := w.nc.Publish(w.subject, data); err != nil {
		return fmt.Errorf("failed to publish report: %w", err)
	}
	return w.nc.Flush()
}

// Close drains and closes the NATS connection.
func (w *NATSWriter) Close() error {
	if w.nc == nil {
		return nil
	}
	return w.nc.Drain()
}

func natsPayload(rep *model.Report, maxPayload int64) ([]byte, bool, error) {
	data, err := json.Marshal(rep)
	if err != nil {
		return nil, false, fmt.Errorf("failed to encode report: %w", err)
	}
	if maxPayload <= 0 || int64(len(data)) <= maxPayload {
		return data, false, nil
	}

	slim := *rep
	slim.Dimensions = make([]model.DimensionReport, len(rep.Dimensions))
	for i, d := range rep.Dimensions {
		d.Series = nil
		slim.Dimensions[i] = d
	}
	data, err = json.Marshal(&slim)
	if err != nil {
		return nil, false, fmt.Errorf("failed to encode report: %w", err)
	}
	if int64(len(data)) > maxPayload {
		return nil, true, fmt.Errorf("report summary of %d bytes exceeds NATS max payload %d", len(data), maxPayload)
	}
	return data, true, nil
}
