package query

import (
	"PcapSpectra/internal/config"
	"PcapSpectra/internal/engine/summary"
	"PcapSpectra/internal/model"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// ErrUnknownRun is returned when a run ID has no stored observations.
var ErrUnknownRun = errors.New("unknown run")

// RunInfo describes one report stored by the ClickHouse writer.
type RunInfo struct {
	RunID     string
	Source    string
	Mode      string
	FirstSeen time.Time
	LastSeen  time.Time
	Packets   uint64
}

// Querier defines the interface for reading stored reports back.
type Querier interface {
	Runs(ctx context.Context, limit int) ([]RunInfo, error)
	Summary(ctx context.Context, runID, dimension string) ([]model.SummaryEntry, error)
	Series(ctx context.Context, runID, dimension, key string) ([]model.Observation, error)
	Close() error
}

// clickhouseQuerier implements the Querier interface for ClickHouse.
type clickhouseQuerier struct {
	conn  driver.Conn
	table string
}

// NewClickHouseQuerier creates a new querier for ClickHouse.
func NewClickHouseQuerier(cfg config.ClickHouseConfig) (Querier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	conn, err := connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}
	return &clickhouseQuerier{conn: conn, table: cfg.Table}, nil
}

func connect(cfg config.ClickHouseConfig) (driver.Conn, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr()},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
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

func (q *clickhouseQuerier) Close() error {
	return q.conn.Close()
}

// Runs lists the most recent runs first. The packet count is taken from the
// flow dimension, which holds one observation per accepted packet.
func (q *clickhouseQuerier) Runs(ctx context.Context, limit int) ([]RunInfo, error) {
	rows, err := q.conn.Query(ctx, runsQuery(q.table, limit))
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	var runs []RunInfo
	for rows.Next() {
		var run RunInfo
		if err := rows.Scan(&run.RunID, &run.Source, &run.Mode, &run.FirstSeen, &run.LastSeen, &run.Packets); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Summary recomputes the summary of one dimension of a stored run.
func (q *clickhouseQuerier) Summary(ctx context.Context, runID, dimension string) ([]model.SummaryEntry, error) {
	stmt, args := summaryQuery(q.table, runID, dimension)
	rows, err := q.conn.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	var entries []model.SummaryEntry
	for rows.Next() {
		var e model.SummaryEntry
		if err := rows.Scan(&e.Key, &e.Total); err != nil {
			return nil, fmt.Errorf("failed to scan summary row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	entries, err = summary.FromTotals(entries)
	if errors.Is(err, summary.ErrNoData) {
		return nil, fmt.Errorf("%w %q for %s", ErrUnknownRun, runID, dimension)
	}
	return entries, err
}

// Series returns the observations of one key in arrival order.
func (q *clickhouseQuerier) Series(ctx context.Context, runID, dimension, key string) ([]model.Observation, error) {
	stmt, args := seriesQuery(q.table, runID, dimension, key)
	rows, err := q.conn.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	var series []model.Observation
	for rows.Next() {
		var (
			ts    time.Time
			value uint64
		)
		if err := rows.Scan(&ts, &value); err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		series = append(series, model.Observation{Timestamp: ts.UnixMilli(), Value: value})
	}
	return series, rows.Err()
}

func runsQuery(table string, limit int) string {
	var b strings.Builder
	fmt.Fprintf(&b, `
		SELECT
			RunID,
			any(Source),
			any(Mode),
			min(Timestamp) AS FirstSeen,
			max(Timestamp) AS LastSeen,
			countIf(Dimension = 'by_flow') AS Packets
		FROM %s
		GROUP BY RunID
		ORDER BY LastSeen DESC`, table)
	if limit > 0 {
		fmt.Fprintf(&b, "\n\t\tLIMIT %d", limit)
	}
	return b.String()
}

func summaryQuery(table, runID, dimension string) (string, []interface{}) {
	stmt := fmt.Sprintf(`
		SELECT Key, sum(Value) AS Total
		FROM %s
		WHERE RunID = ? AND Dimension = ?
		GROUP BY Key`, table)
	return stmt, []interface{}{runID, dimension}
}

func seriesQuery(table, runID, dimension, key string) (string, []interface{}) {
	stmt := fmt.Sprintf(`
		SELECT Timestamp, Value
		FROM %s
		WHERE RunID = ? AND Dimension = ? AND Key = ?
		ORDER BY Seq`, table)
	return stmt, []interface{}{runID, dimension, key}
}
