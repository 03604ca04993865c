package main

import (
	"PcapSpectra/internal/console"
	"PcapSpectra/internal/sink"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run ./scripts/gobana/main.go <gob_file> [top]")
		os.Exit(1)
	}
	gobFile := os.Args[1]

	top := 10
	if len(os.Args) > 2 {
		if _, err := fmt.Sscanf(os.Args[2], "%d", &top); err != nil {
			log.Fatalf("Invalid top value %q: %v", os.Args[2], err)
		}
	}

	rep, err := sink.ReadGob(gobFile)
	if err != nil {
		log.Fatalf("Unable to read snapshot: %v", err)
	}

	log.WithFields(log.Fields{"source": rep.Source, "mode": rep.Mode}).Info("Decoded report snapshot")
	console.PrintSummary(os.Stdout, rep, top)
}
