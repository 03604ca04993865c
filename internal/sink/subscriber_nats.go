package sink

import (
	"PcapSpectra/internal/config"
	"PcapSpectra/internal/model"
	"fmt"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

// ReportHandler is a function that processes a received report.
type ReportHandler func(rep *model.Report)

// NATSSubscriber receives the reports published by NATSWriter.
type NATSSubscriber struct {
	nc      *nats.Conn
	sub     *nats.Subscription
	subject string
	log     log.FieldLogger
}

// NewNATSSubscriber creates a new NATS subscriber.
func NewNATSSubscriber(cfg config.NATSConfig, logger log.FieldLogger) (*NATSSubscriber, error) {
	nc, err := nats.Connect(cfg.URL, nats.Name("pcap-report-watcher"))
	if err != nil {
		return nil, err
	}
	logger.WithField("url", cfg.URL).Info("Connected to NATS server")
	return &NATSSubscriber{nc: nc, subject: cfg.Subject, log: logger}, nil
}

// Start subscribes to the configured subject and hands every decodable report to handler.
func (s *NATSSubscriber) Start(handler ReportHandler) error {
	sub, err := s.nc.Subscribe(s.subject, func(msg *nats.Msg) {
		rep, err := decodeReport(msg.Data)
		if err != nil {
			s.log.WithError(err).Warn("Dropping undecodable report message")
			return
		}
		handler(rep)
	})
	if err != nil {
		return err
	}
	s.sub = sub
	s.log.WithField("subject", s.subject).Info("Subscribed, waiting for reports")
	return nil
}

// Close unsubscribes and closes the NATS connection.
func (s *NATSSubscriber) Close() {
	if s.sub != nil {
		s.sub.Unsubscribe()
	}
	if s.nc != nil {
		s.nc.Close()
	}
}

func decodeReport(data []byte) (*model.Report, error) {
	var rep model.Report
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	if rep.Version != model.ReportVersion {
		return nil, fmt.Errorf("unsupported report version %d", rep.Version)
	}
	return &rep, nil
}
