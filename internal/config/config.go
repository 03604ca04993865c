package config

import (
	"PcapSpectra/internal/model"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

// ErrUnknownMode is reported when a mode other than bytes or packets is requested.
var ErrUnknownMode = errors.New("unknown mode")

// BlacklistConfig lists traffic excluded from every dimension.
type BlacklistConfig struct {
	TCPPorts []uint16 `yaml:"tcp_ports"`
	UDPPorts []uint16 `yaml:"udp_ports"`
	IPs      []string `yaml:"ips"`
}

// ReportConfig selects the report files produced after the pass. Each
// non-empty path adds the matching writer.
type ReportConfig struct {
	HTML string `yaml:"html"`
	JSON string `yaml:"json"`
	Open bool   `yaml:"open"`
}

// APIConfig configures the report browser.
type APIConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// GobConfig holds the settings for the gob snapshot writer.
type GobConfig struct {
	Path string `yaml:"path" default:"snapshot.gob"`
}

// HTMLConfig holds the settings for the HTML report writer.
type HTMLConfig struct {
	Path string `yaml:"path" default:"report.html"`
}

// JSONConfig holds the settings for the JSON report writer.
type JSONConfig struct {
	Path string `yaml:"path" default:"report.json"`
}

// ClickHouseConfig holds the connection settings for ClickHouse.
type ClickHouseConfig struct {
	Host     string `yaml:"host" default:"localhost"`
	Port     int    `yaml:"port" default:"9000"`
	Database string `yaml:"database" default:"default"`
	Username string `yaml:"username" default:"default"`
	Password string `yaml:"password"`
	Table    string `yaml:"table" default:"traffic_observations"`
}

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// DefaultClickHouse returns the ClickHouse settings used when none are configured.
func DefaultClickHouse() ClickHouseConfig {
	var cfg ClickHouseConfig
	if err := defaults.Set(&cfg); err != nil {
		panic(fmt.Sprintf("config: invalid clickhouse defaults: %v", err))
	}
	return cfg
}

// Addr is the host:port of the native protocol endpoint.
func (c ClickHouseConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate rejects table names that cannot be spliced into a statement.
func (c ClickHouseConfig) Validate() error {
	if !tableNamePattern.MatchString(c.Table) {
		return fmt.Errorf("invalid clickhouse table name %q", c.Table)
	}
	return nil
}

// NATSConfig holds the settings for publishing reports over NATS.
type NATSConfig struct {
	URL     string `yaml:"url" default:"nats://127.0.0.1:4222"`
	Subject string `yaml:"subject" default:"pcapspectra.report"`
}

// WriterDef defines a single report writer from the config file.
type WriterDef struct {
	Type       string           `yaml:"type"`
	Enabled    bool             `yaml:"enabled"`
	Gob        GobConfig        `yaml:"gob"`
	HTML       HTMLConfig       `yaml:"html"`
	JSON       JSONConfig       `yaml:"json"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
	NATS       NATSConfig       `yaml:"nats"`
}

// Config is the top-level configuration struct for the entire application.
type Config struct {
	Mode      string          `yaml:"mode" default:"bytes"`
	Workers   int             `yaml:"workers" default:"1"`
	Top       int             `yaml:"top" default:"10"`
	LogLevel  string          `yaml:"log_level" default:"info"`
	Blacklist BlacklistConfig `yaml:"blacklist"`
	Report    ReportConfig    `yaml:"report"`
	API       APIConfig       `yaml:"api"`
	Writers   []WriterDef     `yaml:"writers"`
}

// Default returns a Config with every default applied.
func Default() *Config {
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		panic(fmt.Sprintf("config: invalid defaults: %v", err))
	}
	return &cfg
}

// LoadConfig reads the configuration from a YAML file and returns a Config struct.
// Fields absent from the file keep their defaults.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}
	for i := range cfg.Writers {
		if err := defaults.Set(&cfg.Writers[i]); err != nil {
			return nil, fmt.Errorf("failed to apply writer defaults: %w", err)
		}
	}
	return cfg, nil
}

// WriterDefs returns the enabled writer definitions, including those implied
// by the report section.
func (c *Config) WriterDefs() []WriterDef {
	defs := make([]WriterDef, 0, len(c.Writers)+2)
	if c.Report.HTML != "" {
		defs = append(defs, WriterDef{Type: "html", Enabled: true, HTML: HTMLConfig{Path: c.Report.HTML}})
	}
	if c.Report.JSON != "" {
		defs = append(defs, WriterDef{Type: "json", Enabled: true, JSON: JSONConfig{Path: c.Report.JSON}})
	}
	for _, def := range c.Writers {
		if def.Enabled {
			defs = append(defs, def)
		}
	}
	return defs
}

// ParseMode resolves a mode name. Unknown names yield bytes together with
// ErrUnknownMode so that callers can warn and carry on.
func ParseMode(s string) (model.Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(model.ModeBytes):
		return model.ModeBytes, nil
	case string(model.ModePackets):
		return model.ModePackets, nil
	default:
		return model.ModeBytes, fmt.Errorf("%w %q, falling back to %s", ErrUnknownMode, s, model.ModeBytes)
	}
}

// ParsePortList parses a comma separated list of port numbers.
// Blank entries are skipped.
func ParsePortList(csv string) ([]uint16, error) {
	var ports []uint16
	for _, field := range splitCSV(csv) {
		p, err := strconv.ParseUint(field, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid port %q: %w", field, err)
		}
		ports = append(ports, uint16(p))
	}
	return ports, nil
}

// ParseStringList parses a comma separated list of strings, trimming blanks.
func ParseStringList(csv string) []string {
	return splitCSV(csv)
}

func splitCSV(csv string) []string {
	var out []string
	for _, field := range strings.Split(csv, ",") {
		field = strings.TrimSpace(field)
		if field != "" {
			out = append(out, field)
		}
	}
	return out
}
