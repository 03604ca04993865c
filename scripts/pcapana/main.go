package main

import (
	"PcapSpectra/internal/engine/protocol"
	"PcapSpectra/pkg/pcap"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

// main prints how the decoder sees the first frames of a capture.
func main() {
	app := cli.NewApp()
	app.Name = "pcapana"
	app.Usage = "dump the decoded header fields of the first frames of a capture"
	app.ArgsUsage = "<capture-file>"
	app.HideVersion = true
	app.Flags = []cli.Flag{
		cli.IntFlag{Name: "n", Value: 5, Usage: "number of frames to print, 0 for all"},
	}
	app.Action = func(c *cli.Context) error {
		if c.NArg() != 1 {
			return cli.ShowAppHelp(c)
		}
		return dump(c.Args().First(), c.Int("n"))
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func dump(path string, limit int) error {
	reader, err := pcap.NewReader(path)
	if err != nil {
		return err
	}
	defer reader.Close()

	ctx := context.Background()
	for i := 1; limit <= 0 || i <= limit; i++ {
		frame, err := reader.Next(ctx)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		info, ok := protocol.ParseFrame(frame.Data, frame.Seconds, frame.Micros)
		if !ok {
			fmt.Printf("#%d len=%d rejected\n", i, len(frame.Data))
			continue
		}
		fmt.Printf("#%d [%s] %s %s:%d -> %d transport_len=%d\n",
			i,
			time.UnixMilli(info.Timestamp).UTC().Format("15:04:05.000"),
			info.Protocol, info.SrcIP, info.SrcPort, info.DstPort, info.TransportLength,
		)
	}
	return nil
}
