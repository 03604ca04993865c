package sink

import (
	"PcapSpectra/internal/config"
	"PcapSpectra/internal/factory"
	"PcapSpectra/internal/model"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

func init() {
	factory.RegisterWriter("clickhouse", func(def config.WriterDef, logger log.FieldLogger) (model.Writer, error) {
		return NewClickHouseWriter(def.ClickHouse, logger)
	})
}

const createTableStatement = `
CREATE TABLE IF NOT EXISTS %s (
    RunID       String,
    Source      String,
    Mode        LowCardinality(String),
    Dimension   LowCardinality(String),
    Key         String,
    Seq         UInt32,
    Timestamp   DateTime64(3),
    Value       UInt64
) ENGINE = MergeTree()
PARTITION BY toYYYYMM(Timestamp)
ORDER BY (RunID, Dimension, Key, Seq);
`

// observationRow is one stored observation. Seq keeps the arrival order of a
// series, which timestamps alone cannot restore.
type observationRow struct {
	RunID     string
	Source    string
	Mode      string
	Dimension string
	Key       string
	Seq       uint32
	Timestamp time.Time
	Value     uint64
}

// ClickHouseWriter stores every observation of a report as a row.
type ClickHouseWriter struct {
	conn  driver.Conn
	table string
	log   log.FieldLogger
}

// NewClickHouseWriter connects to ClickHouse and ensures the table exists.
func NewClickHouseWriter(cfg config.ClickHouseConfig, logger log.FieldLogger) (*ClickHouseWriter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	conn, err := connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}

	if err := conn.Exec(context.Background(), fmt.Sprintf(createTableStatement, cfg.Table)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	logger.WithField("table", cfg.Table).Info("Connected to ClickHouse")

	return &ClickHouseWriter{conn: conn, table: cfg.Table, log: logger}, nil
}

func connect(cfg config.ClickHouseConfig) (driver.Conn, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr()},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}
	return conn, nil
}

func (w *ClickHouseWriter) Name() string {
	return "clickhouse:" + w.table
}

// Write inserts all observations of rep in one batch under a fresh run ID.
func (w *ClickHouseWriter) Write(rep *model.Report) error {
	rows := observationRows(rep, uuid.NewString())
	if len(rows) == 0 {
		return nil
	}

	ctx := context.Background()
	batch, err := w.conn.PrepareBatch(ctx, "INSERT INTO "+w.table)
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}
	for _, r := range rows {
		if err := batch.Append(r.RunID, r.Source, r.Mode, r.Dimension, r.Key, r.Seq, r.Timestamp, r.Value); err != nil {
			batch.Abort()
			return fmt.Errorf("failed to append observation to batch: %w", err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}

	w.log.WithFields(log.Fields{"rows": len(rows), "run_id": rows[0].RunID}).Info("Wrote observations to ClickHouse")
	return nil
}

func (w *ClickHouseWriter) Close() error {
	return w.conn.Close()
}

// observationRows flattens rep into rows ordered by dimension, key and arrival.
func observationRows(rep *model.Report, runID string) []observationRow {
	var rows []observationRow
	for _, dim := range rep.Dimensions {
		keys := make([]string, 0, len(dim.Series))
		for k := range dim.Series {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, key := range keys {
			for i, obs := range dim.Series[key] {
				rows = append(rows, observationRow{
					RunID:     runID,
					Source:    rep.Source,
					Mode:      string(rep.Mode),
					Dimension: dim.Name,
					Key:       key,
					Seq:       uint32(i),
					Timestamp: time.UnixMilli(obs.Timestamp).UTC(),
					Value:     obs.Value,
				})
			}
		}
	}
	return rows
}
