package main

import (
	"PcapSpectra/internal/api"
	"PcapSpectra/internal/config"
	"PcapSpectra/internal/console"
	"PcapSpectra/internal/engine/filter"
	"PcapSpectra/internal/engine/manager"
	"PcapSpectra/internal/factory"
	"PcapSpectra/internal/logger"
	"PcapSpectra/internal/model"
	"PcapSpectra/internal/report"
	"PcapSpectra/internal/sink"
	"PcapSpectra/pkg/pcap"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/gopacket/layers"
	"github.com/skratchdot/open-golang/open"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

const (
	exitOK        = 0
	exitFailure   = 1
	exitUsage     = 2
	exitCancelled = 130
)

var (
	errMissingCapture = errors.New("capture file not found")
	errWritersFailed  = errors.New("one or more report writers failed")
)

type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

// boolFlags take no separate value when hoisted in front of the capture path.
var boolFlags = map[string]bool{"open": true, "help": true, "h": true}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	app := newApp(stdout, stderr, func(c *cli.Context) error {
		return analyze(ctx, c, stdout, stderr)
	})

	hoisted, err := hoistFlags(args)
	if err == nil {
		err = app.Run(hoisted)
	}
	code := exitCode(err)
	if err != nil && code != exitCancelled {
		fmt.Fprintf(stderr, "%s: %v\n", app.Name, err)
	}
	return code
}

func newApp(stdout, stderr io.Writer, action func(c *cli.Context) error) *cli.App {
	defaults := config.Default()

	app := cli.NewApp()
	app.Name = "pcap-analyzer"
	app.Usage = "summarize TCP/UDP traffic of a capture file per port, address and flow"
	app.ArgsUsage = "<capture-file>"
	app.HideVersion = true
	app.Writer = stdout
	app.ErrWriter = stderr
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "mode",
			Usage: "measure `MODE`: bytes or packets",
			Value: defaults.Mode,
		},
		cli.StringFlag{
			Name:  "html",
			Usage: "write the interactive report to `PATH`",
		},
		cli.StringFlag{
			Name:  "json",
			Usage: "write the report document to `PATH`",
		},
		cli.StringFlag{
			Name:  "blacklist-tcp-ports",
			Usage: "comma separated TCP ports to exclude",
		},
		cli.StringFlag{
			Name:  "blacklist-udp-ports",
			Usage: "comma separated UDP ports to exclude",
		},
		cli.StringFlag{
			Name:  "blacklist-ips",
			Usage: "comma separated source addresses to exclude",
		},
		cli.StringFlag{
			Name:  "config",
			Usage: "load settings from YAML `FILE`; flags take precedence",
		},
		cli.IntFlag{
			Name:  "workers",
			Usage: "number of decode workers",
			Value: defaults.Workers,
		},
		cli.IntFlag{
			Name:  "top",
			Usage: "keys printed per dimension, 0 for all",
			Value: defaults.Top,
		},
		cli.BoolFlag{
			Name:  "open",
			Usage: "open the HTML report in a browser when done",
		},
		cli.StringFlag{
			Name:  "serve",
			Usage: "serve the report API on `ADDR` until interrupted",
		},
		cli.StringFlag{
			Name:  "log-level",
			Usage: "debug, info, warn or error",
			Value: defaults.LogLevel,
		},
	}
	app.OnUsageError = func(c *cli.Context, err error, isSubcommand bool) error {
		return usageError{err: err}
	}
	app.Action = action
	return app
}

func analyze(ctx context.Context, c *cli.Context, stdout, stderr io.Writer) error {
	if c.NArg() != 1 {
		return usageError{err: fmt.Errorf("expected exactly one capture file, got %d arguments", c.NArg())}
	}
	capturePath := c.Args().First()

	// 1. Load configuration
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logs := logger.New(cfg.LogLevel, stderr)

	// Written directly so that no log level can hide the fallback.
	mode, err := config.ParseMode(cfg.Mode)
	if err != nil {
		fmt.Fprintf(stderr, "warning: %v\n", err)
	}

	if _, err := os.Stat(capturePath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", errMissingCapture, capturePath)
		}
		return err
	}

	// 2. Initialize modules
	writers, err := factory.CreateWriters(cfg.WriterDefs(), logs)
	if err != nil {
		return err
	}
	defer factory.CloseAll(writers, logs)

	blacklist := filter.NewBlacklist(cfg.Blacklist.TCPPorts, cfg.Blacklist.UDPPorts, cfg.Blacklist.IPs)
	mgr := manager.NewManager(mode, blacklist, cfg.Workers, logs)

	reader, err := pcap.NewReader(capturePath)
	if err != nil {
		return fmt.Errorf("failed to open capture: %w", err)
	}
	defer reader.Close()
	if lt := reader.LinkType(); lt != layers.LinkTypeEthernet {
		logs.WithField("link_type", lt.String()).Warn("Capture is not Ethernet, decoding frames as Ethernet anyway")
	}

	logs.WithFields(log.Fields{"file": capturePath, "mode": mode}).Info("Reading capture")

	// 3. Run the pass
	runErr := mgr.Run(ctx, reader)
	cancelled := errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded)
	if runErr != nil && !cancelled {
		return runErr
	}

	rep, err := report.Build(mgr.Snapshot(), mgr.Stats(), capturePath)
	if err != nil {
		return err
	}
	console.PrintSummary(stdout, rep, cfg.Top)
	if cancelled {
		return runErr
	}

	// 4. Hand the report to the writers
	if !factory.WriteAll(writers, rep, logs) {
		return errWritersFailed
	}

	if cfg.Report.Open {
		openReport(writers, logs)
	}

	if cfg.API.ListenAddr != "" {
		return api.Serve(ctx, cfg.API.ListenAddr, rep, logs)
	}
	return nil
}

// loadConfig reads the optional config file and applies command line overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = config.LoadConfig(path); err != nil {
			return nil, err
		}
	}

	if c.IsSet("mode") {
		cfg.Mode = c.String("mode")
	}
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}
	if c.IsSet("top") {
		cfg.Top = c.Int("top")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("html") {
		cfg.Report.HTML = c.String("html")
	}
	if c.IsSet("json") {
		cfg.Report.JSON = c.String("json")
	}
	if c.IsSet("open") {
		cfg.Report.Open = c.Bool("open")
	}
	if c.IsSet("serve") {
		cfg.API.ListenAddr = c.String("serve")
	}

	if c.IsSet("blacklist-tcp-ports") {
		ports, err := config.ParsePortList(c.String("blacklist-tcp-ports"))
		if err != nil {
			return nil, fmt.Errorf("--blacklist-tcp-ports: %w", err)
		}
		cfg.Blacklist.TCPPorts = ports
	}
	if c.IsSet("blacklist-udp-ports") {
		ports, err := config.ParsePortList(c.String("blacklist-udp-ports"))
		if err != nil {
			return nil, fmt.Errorf("--blacklist-udp-ports: %w", err)
		}
		cfg.Blacklist.UDPPorts = ports
	}
	if c.IsSet("blacklist-ips") {
		cfg.Blacklist.IPs = config.ParseStringList(c.String("blacklist-ips"))
	}
	return cfg, nil
}

// openReport opens the file of the first HTML writer.
func openReport(writers []model.Writer, logs log.FieldLogger) {
	for _, w := range writers {
		hw, ok := w.(*sink.HTMLWriter)
		if !ok {
			continue
		}
		if err := open.Run(hw.Path()); err != nil {
			logs.WithError(err).WithField("path", hw.Path()).Warn("Could not open report")
		}
		return
	}
	logs.Warn("--open needs an HTML report, nothing to open")
}

func exitCode(err error) int {
	var uerr usageError
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &uerr), errors.Is(err, errMissingCapture):
		return exitUsage
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return exitCancelled
	default:
		return exitFailure
	}
}

// hoistFlags moves flags given after the capture path in front of it, since
// flag parsing stops at the first positional argument. A value flag left
// without its value is a usage error.
func hoistFlags(args []string) ([]string, error) {
	if len(args) < 2 {
		return args, nil
	}
	out := []string{args[0]}
	var positional []string
	rest := args[1:]
	for i := 0; i < len(rest); i++ {
		arg := rest[i]
		if arg == "--" {
			positional = append(positional, rest[i+1:]...)
			break
		}
		if len(arg) < 2 || arg[0] != '-' {
			positional = append(positional, arg)
			continue
		}
		out = append(out, arg)
		name := strings.TrimLeft(arg, "-")
		if strings.Contains(name, "=") || boolFlags[name] {
			continue
		}
		if i+1 >= len(rest) {
			return nil, usageError{err: fmt.Errorf("flag needs an argument: %s", arg)}
		}
		out = append(out, rest[i+1])
		i++
	}
	if len(positional) > 0 {
		out = append(out, "--")
		out = append(out, positional...)
	}
	return out, nil
}
