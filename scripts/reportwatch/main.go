package main

import (
	"PcapSpectra/internal/config"
	"PcapSpectra/internal/console"
	"PcapSpectra/internal/logger"
	"PcapSpectra/internal/model"
	"PcapSpectra/internal/sink"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli"
)

// main prints the summary of every report pcap-analyzer publishes over NATS.
func main() {
	defaults := config.Default()
	nats := config.NATSConfig{}

	app := cli.NewApp()
	app.Name = "reportwatch"
	app.Usage = "print reports published by the nats writer"
	app.HideVersion = true
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "url", Value: "nats://127.0.0.1:4222", Usage: "NATS server URL", Destination: &nats.URL},
		cli.StringFlag{Name: "subject", Value: "pcapspectra.report", Usage: "subject the reports are published on", Destination: &nats.Subject},
		cli.IntFlag{Name: "top", Value: defaults.Top, Usage: "keys printed per dimension, 0 for all"},
	}
	app.Action = func(c *cli.Context) error {
		logs := logger.New("info", os.Stderr)

		sub, err := sink.NewNATSSubscriber(nats, logs)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		defer sub.Close()

		top := c.Int("top")
		err = sub.Start(func(rep *model.Report) {
			fmt.Printf("=== %s (%s) ===\n", rep.Source, rep.Mode)
			console.PrintSummary(os.Stdout, rep, top)
			fmt.Println()
		})
		if err != nil {
			return err
		}

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		logs.Info("Shutting down")
		return nil
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
