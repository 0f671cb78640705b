package main

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/googlestaging/lpmatch/pkg/scan"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
)

var cmdScan = &cli.Command{
	Name:      "scan",
	Usage:     "list the repeated runs of a file",
	ArgsUsage: "<file>",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:    "block-size",
			Usage:   "positions answered by each suffix tree",
			Value:   scan.DefaultBlockSize,
			EnvVars: []string{"LPMATCH_BLOCK_SIZE"},
		},
		&cli.IntFlag{
			Name:    "history",
			Usage:   "how far before its block a match may start",
			Value:   scan.DefaultHistory,
			EnvVars: []string{"LPMATCH_HISTORY"},
		},
		&cli.UintFlag{
			Name:    "workers",
			Usage:   "blocks built concurrently (0 for one per CPU)",
			EnvVars: []string{"LPMATCH_WORKERS"},
		},
		&cli.IntFlag{
			Name:    "cache-size",
			Usage:   "identical blocks remembered (0 disables)",
			Value:   scan.DefaultCacheSize,
			EnvVars: []string{"LPMATCH_CACHE_SIZE"},
		},
		&cli.IntFlag{
			Name:    "min-length",
			Usage:   "shortest run reported",
			Value:   3,
			EnvVars: []string{"LPMATCH_MIN_LENGTH"},
		},
		&cli.StringFlag{
			Name:  "format",
			Usage: "output format: text or json",
			Value: "text",
		},
		&cli.BoolFlag{
			Name:  "sequential",
			Usage: "scan on a single goroutine",
		},
		&cli.BoolFlag{
			Name:  "measure",
			Usage: "print a per-stage timing report to stderr",
		},
		&cli.StringFlag{
			Name:    "metrics-file",
			Usage:   "write prometheus metrics to this file when done",
			EnvVars: []string{"LPMATCH_METRICS_FILE"},
		},
	},
	Action: runScan,
}

// segmentJSON is the json output line for one run.
type segmentJSON struct {
	Offset   int `json:"offset"`
	Start    int `json:"start"`
	Length   int `json:"length"`
	Distance int `json:"distance"`
}

func runScan(cctx *cli.Context) error {
	ctx := cctx.Context
	format := cctx.String("format")
	if format != "text" && format != "json" {
		return fmt.Errorf("unsupported format %q", format)
	}
	path, data, err := readInput(cctx, 0)
	if err != nil {
		return err
	}
	logger := slog.Default().With("file", path)

	opts := []scan.Option{
		scan.BlockSize(cctx.Int("block-size")),
		scan.History(cctx.Int("history")),
		scan.CacheSize(cctx.Int("cache-size")),
		scan.Logger(logger),
	}
	if workers := cctx.Uint("workers"); workers > 0 {
		opts = append(opts, scan.Concurrency(workers))
	}
	scanner, err := scan.New(opts...)
	if err != nil {
		return err
	}

	logger.Info("scanning", "size", len(data))
	var result *scan.Result
	switch {
	case cctx.Bool("sequential"):
		result, err = scanner.ScanSequential(ctx, data)
	case cctx.Bool("measure"):
		var m *scan.Metrics
		result, m, err = scanner.Measure(ctx, data)
		if m != nil {
			fmt.Fprintln(cctx.App.ErrWriter, m.String())
		}
	default:
		result, err = scanner.Scan(ctx, data)
	}
	if err != nil {
		return fmt.Errorf("scanning %s: %w", path, err)
	}

	out := cctx.App.Writer
	segments := result.Segments(cctx.Int("min-length"))
	covered := 0
	enc := json.NewEncoder(out)
	for _, seg := range segments {
		covered += seg.Match.Length
		if format == "json" {
			if err := enc.Encode(segmentJSON{
				Offset:   seg.Offset,
				Start:    seg.Match.Start,
				Length:   seg.Match.Length,
				Distance: seg.Match.Distance(seg.Offset),
			}); err != nil {
				return err
			}
			continue
		}
		fmt.Fprintf(out, "%08x  %6d bytes from %08x (back %d)\n",
			seg.Offset, seg.Match.Length, seg.Match.Start, seg.Match.Distance(seg.Offset))
	}

	summary := result.Summary()
	logger.Info("scan complete",
		"blocks", result.Blocks,
		"cache_hits", result.CacheHits,
		"matched", summary.Matched,
		"mean_length", summary.MeanLength,
		"longest", summary.Longest.Match.Length,
		"longest_at", summary.Longest.Offset,
		"runs", len(segments),
		"covered", covered)

	if metricsFile := cctx.String("metrics-file"); metricsFile != "" {
		if err := prometheus.WriteToTextfile(metricsFile, prometheus.DefaultGatherer); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
	}
	return nil
}
