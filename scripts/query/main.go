package main

import (
	"PcapSpectra/internal/config"
	"PcapSpectra/internal/console"
	"PcapSpectra/internal/engine/summary"
	"PcapSpectra/internal/model"
	"PcapSpectra/internal/query"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func main() {
	app := cli.NewApp()
	app.Name = "query"
	app.Usage = "read summaries back from a running report server or from ClickHouse"
	app.HideVersion = true
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "mode", Value: "api", Usage: "'api' to query the report server, 'direct' to query ClickHouse"},
		cli.StringFlag{Name: "dim", Value: "by_flow", Usage: "dimension to summarize"},
		cli.StringFlag{Name: "key", Usage: "print the series of this key instead of the summary"},
		cli.StringFlag{Name: "addr", Value: "http://localhost:8080", Usage: "report server base URL (api mode)"},
		cli.StringFlag{Name: "run", Usage: "run ID; lists recent runs when empty (direct mode)"},
		cli.StringFlag{Name: "config", Usage: "YAML config holding the clickhouse writer settings (direct mode)"},
	}
	app.Action = func(c *cli.Context) error {
		log.WithField("mode", c.String("mode")).Info("Running query")
		switch c.String("mode") {
		case "api":
			return queryViaAPI(c.String("addr"), c.String("dim"), c.String("key"))
		case "direct":
			return directQueryClickHouse(c)
		default:
			return fmt.Errorf("invalid mode: %s. Use 'api' or 'direct'", c.String("mode"))
		}
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// --- API Query Logic ---
func queryViaAPI(addr, dim, key string) error {
	apiURL := fmt.Sprintf("%s/api/v1/dimensions/%s/summary", addr, url.PathEscape(dim))
	if key != "" {
		apiURL = fmt.Sprintf("%s/api/v1/dimensions/%s/series?key=%s", addr, url.PathEscape(dim), url.QueryEscape(key))
	}
	log.WithField("url", apiURL).Info("Sending request")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(apiURL)
	if err != nil {
		return fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API returned status %d: %s", resp.StatusCode, bytes.TrimSpace(respBody))
	}

	if key != "" {
		var series struct {
			Observations []model.Observation `json:"observations"`
		}
		if err := json.Unmarshal(respBody, &series); err != nil {
			return fmt.Errorf("could not decode series: %w", err)
		}
		printSeries(series.Observations)
		return nil
	}

	var result struct {
		Dimension string               `json:"dimension"`
		Mode      model.Mode           `json:"mode"`
		NoData    bool                 `json:"no_data"`
		Entries   []model.SummaryEntry `json:"entries"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return fmt.Errorf("could not decode summary: %w", err)
	}
	if result.NoData {
		fmt.Println(console.NoPacketsMatched)
		return nil
	}
	printSummary(result.Entries, result.Mode.Unit())
	return nil
}

// --- Direct ClickHouse Query Logic ---
func directQueryClickHouse(c *cli.Context) error {
	chCfg := config.DefaultClickHouse()
	if path := c.String("config"); path != "" {
		cfg, err := config.LoadConfig(path)
		if err != nil {
			return err
		}
		for _, def := range cfg.Writers {
			if def.Type == "clickhouse" {
				chCfg = def.ClickHouse
				break
			}
		}
	}
	querier, err := query.NewClickHouseQuerier(chCfg)
	if err != nil {
		return err
	}
	defer querier.Close()
	log.WithField("addr", chCfg.Addr()).Info("Successfully connected to ClickHouse")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	runID := c.String("run")
	if runID == "" {
		runs, err := querier.Runs(ctx, 20)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			log.Info("No runs stored yet")
			return nil
		}
		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Run", "Source", "Mode", "First", "Last", "Packets"})
		for _, r := range runs {
			table.Append([]string{
				r.RunID, r.Source, r.Mode,
				r.FirstSeen.Format(time.RFC3339), r.LastSeen.Format(time.RFC3339),
				fmt.Sprint(r.Packets),
			})
		}
		table.Render()
		return nil
	}

	if key := c.String("key"); key != "" {
		series, err := querier.Series(ctx, runID, c.String("dim"), key)
		if err != nil {
			return err
		}
		printSeries(series)
		return nil
	}

	entries, err := querier.Summary(ctx, runID, c.String("dim"))
	if err != nil {
		return err
	}
	printSummary(entries, "")
	return nil
}

func printSummary(entries []model.SummaryEntry, unit string) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", strings.TrimSpace("Total " + unit), "Share"})
	table.SetAutoWrapText(false)
	for _, e := range entries {
		table.Append([]string{e.Key, fmt.Sprint(e.Total), summary.FormatPercent(e.Percent)})
	}
	table.Render()
}

func printSeries(series []model.Observation) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Time", "Value"})
	for _, obs := range series {
		table.Append([]string{time.UnixMilli(obs.Timestamp).UTC().Format("2006-01-02 15:04:05.000"), fmt.Sprint(obs.Value)})
	}
	table.Render()
}
