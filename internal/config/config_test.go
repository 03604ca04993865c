package config

import (
	"PcapSpectra/internal/model"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "bytes", cfg.Mode)
	assert.Equal(t, 1, cfg.Workers)
	assert.Equal(t, 10, cfg.Top)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.Blacklist.TCPPorts)
	assert.Empty(t, cfg.Writers)
}

func TestLoadConfig(t *testing.T) {
	const doc = `
mode: packets
workers: 4
blacklist:
  tcp_ports: [22, 443]
  ips: ["10.0.0.1"]
report:
  html: out.html
writers:
  - type: clickhouse
    enabled: true
    clickhouse:
      host: ch.internal
  - type: gob
    enabled: false
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "packets", cfg.Mode)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 10, cfg.Top, "absent keys keep defaults")
	assert.Equal(t, []uint16{22, 443}, cfg.Blacklist.TCPPorts)
	assert.Equal(t, []string{"10.0.0.1"}, cfg.Blacklist.IPs)
	assert.Equal(t, "out.html", cfg.Report.HTML)

	require.Len(t, cfg.Writers, 2)
	ch := cfg.Writers[0].ClickHouse
	assert.Equal(t, "ch.internal", ch.Host)
	assert.Equal(t, 9000, ch.Port)
	assert.Equal(t, "traffic_observations", ch.Table)
	assert.Equal(t, "snapshot.gob", cfg.Writers[1].Gob.Path)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workers: [not, a, number"), 0644))
	_, err = LoadConfig(path)
	assert.Error(t, err)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("packets")
	require.NoError(t, err)
	assert.Equal(t, model.ModePackets, m)

	m, err = ParseMode(" BYTES ")
	require.NoError(t, err)
	assert.Equal(t, model.ModeBytes, m)

	m, err = ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, model.ModeBytes, m)

	m, err = ParseMode("frames")
	assert.ErrorIs(t, err, ErrUnknownMode)
	assert.Equal(t, model.ModeBytes, m)
}

func TestParsePortList(t *testing.T) {
	ports, err := ParsePortList("80, 443,,22 ")
	require.NoError(t, err)
	assert.Equal(t, []uint16{80, 443, 22}, ports)

	ports, err = ParsePortList("")
	require.NoError(t, err)
	assert.Empty(t, ports)

	_, err = ParsePortList("80,65536")
	assert.Error(t, err)
	_, err = ParsePortList("http")
	assert.Error(t, err)
}

func TestParseStringList(t *testing.T) {
	assert.Equal(t, []string{"10.0.0.1", "fe80:0:0:0:0:0:0:1"}, ParseStringList(" 10.0.0.1 ,fe80:0:0:0:0:0:0:1,"))
	assert.Empty(t, ParseStringList(""))
}

func TestWriterDefs(t *testing.T) {
	cfg := Default()
	assert.Empty(t, cfg.WriterDefs())

	cfg.Report.HTML = "out/report.html"
	cfg.Report.JSON = "out/report.json"
	cfg.Writers = []WriterDef{
		{Type: "nats", Enabled: true},
		{Type: "clickhouse", Enabled: false},
	}

	defs := cfg.WriterDefs()
	require.Len(t, defs, 3)
	assert.Equal(t, "html", defs[0].Type)
	assert.Equal(t, "out/report.html", defs[0].HTML.Path)
	assert.Equal(t, "json", defs[1].Type)
	assert.Equal(t, "out/report.json", defs[1].JSON.Path)
	assert.Equal(t, "nats", defs[2].Type)
}

func TestClickHouseConfig(t *testing.T) {
	cfg := ClickHouseConfig{Host: "ch.internal", Port: 9000, Table: "analytics.traffic_observations"}
	assert.Equal(t, "ch.internal:9000", cfg.Addr())
	assert.NoError(t, cfg.Validate())

	for _, table := range []string{"", "1table", "obs; DROP TABLE x", "a.b.c"} {
		cfg.Table = table
		assert.Error(t, cfg.Validate(), table)
	}
}

func TestLoadConfig_Example(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("..", "..", "configs", "config.example.yaml"))
	require.NoError(t, err)
	assert.Equal(t, []uint16{5353}, cfg.Blacklist.UDPPorts)
	assert.Len(t, cfg.Writers, 3)

	defs := cfg.WriterDefs()
	require.Len(t, defs, 1, "only the html report is enabled")
	assert.Equal(t, "html", defs[0].Type)
}
