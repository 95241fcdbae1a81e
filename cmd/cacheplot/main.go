// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Cacheplot plots cache measurements against vector size, one line per
// access pattern.
//
// Usage:
//
//	cacheplot [options] file.csv
//
// The input is a CSV file with the columns vector_size, access_pattern
// and one column per counter, as written by cachebench. Cacheplot
// loads it into a SQL database, selects the chosen metric ordered by
// access pattern and vector size, and saves the chart to plot.png.
// Unless -show=false is given, it then serves an interactive view of
// the chart and opens it in a browser until interrupted.
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/aclements/go-gg/table"
	_ "github.com/go-sql-driver/mysql"
	"github.com/perf-lib/cacheplot/chart"
	"github.com/perf-lib/cacheplot/frame"
	"github.com/perf-lib/cacheplot/sample"
	"github.com/perf-lib/cacheplot/storage/db"
	_ "github.com/perf-lib/cacheplot/storage/db/sqlite3"
	"github.com/perf-lib/cacheplot/view"
	"gonum.org/v1/plot"
)

var errUsage = errors.New("usage error")

func main() {
	log.SetPrefix("cacheplot: ")
	log.SetFlags(0)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	err := cacheplot(ctx, os.Stdout, os.Stderr, os.Args[1:])
	stop()
	if err != nil {
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		log.Fatal(err)
	}
}

type config struct {
	file     string
	out      string
	metric   string
	patterns []string
	minSize  int64
	maxSize  int64
	logX     bool
	logY     bool
	title    string
	driver   string
	dsn      string
	summary  bool
	show     bool
	httpAddr string
}

func parseFlags(stderr io.Writer, args []string) (*config, error) {
	fs := flag.NewFlagSet("cacheplot", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: cacheplot [options] file.csv\noptions:\n")
		fs.PrintDefaults()
	}
	var cfg config
	var patterns string
	fs.StringVar(&cfg.out, "o", "plot.png", "save the chart to `file` (.png or .svg)")
	fs.StringVar(&cfg.metric, "metric", "l1d_cache_accesses", "plot counter `name`")
	fs.StringVar(&patterns, "patterns", "", "plot only these comma-separated access `patterns`")
	fs.Int64Var(&cfg.minSize, "min-size", 0, "omit vector sizes below `n`")
	fs.Int64Var(&cfg.maxSize, "max-size", 0, "omit vector sizes above `n` (0 for no limit)")
	fs.BoolVar(&cfg.logX, "logx", true, "use a logarithmic vector size axis")
	fs.BoolVar(&cfg.logY, "logy", false, "use a logarithmic value axis")
	fs.StringVar(&cfg.title, "title", "", "chart `title` (default derived from -metric)")
	fs.StringVar(&cfg.driver, "driver", "sqlite3", "database `driver`: sqlite3 or mysql")
	fs.StringVar(&cfg.dsn, "dsn", ":memory:", "database data source `name`")
	fs.BoolVar(&cfg.summary, "summary", false, "print per-pattern summary statistics")
	fs.BoolVar(&cfg.show, "show", true, "serve an interactive view and open it in a browser")
	fs.StringVar(&cfg.httpAddr, "http", "localhost:0", "serve the interactive view on `address`")
	if err := fs.Parse(args); err != nil {
		return nil, errUsage
	}

	bad := func(format string, args ...interface{}) (*config, error) {
		fmt.Fprintf(stderr, "cacheplot: "+format+"\n", args...)
		fs.Usage()
		return nil, errUsage
	}
	if fs.NArg() != 1 {
		return bad("expected one input file, got %d", fs.NArg())
	}
	cfg.file = fs.Arg(0)
	cfg.metric = sample.CanonicalName(cfg.metric)
	if cfg.metric == "" {
		return bad("empty -metric")
	}
	if cfg.minSize < 0 || cfg.maxSize < 0 || cfg.maxSize != 0 && cfg.maxSize < cfg.minSize {
		return bad("bad size range [%d, %d]", cfg.minSize, cfg.maxSize)
	}
	for _, p := range strings.Split(patterns, ",") {
		if p = strings.TrimSpace(p); p != "" {
			cfg.patterns = append(cfg.patterns, p)
		}
	}
	return &cfg, nil
}

func cacheplot(ctx context.Context, stdout, stderr io.Writer, args []string) error {
	cfg, err := parseFlags(stderr, args)
	if err != nil {
		return err
	}

	store, err := db.OpenSQL(cfg.driver, cfg.dsn)
	if err != nil {
		return fmt.Errorf("opening %s database: %w", cfg.driver, err)
	}
	defer store.Close()

	f, err := sample.Open(cfg.file)
	if err != nil {
		return err
	}
	ds, err := store.Load(ctx, cfg.file, f.Reader)
	f.Close()
	if err != nil {
		return err
	}

	rows, err := store.Query(ctx, db.Query{
		Dataset:  ds.ID,
		Metric:   cfg.metric,
		Patterns: cfg.patterns,
		MinSize:  cfg.minSize,
		MaxSize:  cfg.maxSize,
	})
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("%s: no rows for metric %q", cfg.file, cfg.metric)
	}
	t := frame.FromRows(cfg.metric, rows)

	opts := chart.DefaultOptions(cfg.metric)
	opts.LogX, opts.LogY = cfg.logX, cfg.logY
	if cfg.title != "" {
		opts.Title = cfg.title
	}
	pl, err := chart.New(frame.SeriesOf(t, cfg.metric), opts)
	if err != nil {
		return err
	}
	if err := chart.SaveFile(cfg.out, pl, opts); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Plot saved to %s\n", cfg.out)

	if cfg.summary {
		fmt.Fprintln(stdout)
		if err := frame.Fprint(stdout, frame.Summarize(t, cfg.metric)); err != nil {
			return err
		}
	}

	if !cfg.show {
		return nil
	}
	app, err := newApp(cfg, t, pl, opts)
	if err != nil {
		return err
	}
	return view.Serve(ctx, cfg.httpAddr, app, view.OpenBrowser)
}

// newApp renders pl for the interactive view.
func newApp(cfg *config, t *table.Table, pl *plot.Plot, opts chart.Options) (*view.App, error) {
	var png, svg bytes.Buffer
	if err := chart.WritePNG(&png, pl, opts); err != nil {
		return nil, err
	}
	if err := chart.WriteSVG(&svg, pl, opts); err != nil {
		return nil, err
	}
	return &view.App{
		Title:  opts.Title,
		Metric: cfg.metric,
		Table:  t,
		PNG:    png.Bytes(),
		SVG:    svg.Bytes(),
		LogX:   opts.LogX,
		LogY:   opts.LogY,
	}, nil
}
