// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Cachebench measures hardware cache counters while summing vectors of
// increasing size with each access pattern, and writes one CSV row per
// measurement.
//
// Usage:
//
//	cachebench [-v] [-o out.csv] [-max-log2 n] [-patterns list] [-amd mode]
//
// Vector sizes run from 1 to 1<<(n-1). The output can be plotted with
// cacheplot.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"sort"
	"strings"

	"github.com/perf-lib/cacheplot/internal/perfevent"
	"github.com/perf-lib/cacheplot/internal/workload"
	"github.com/perf-lib/cacheplot/sample"
)

var errUsage = errors.New("usage error")

func main() {
	log.SetPrefix("cachebench: ")
	log.SetFlags(0)
	if err := cachebench(os.Stderr, os.Args[1:]); err != nil {
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		log.Fatal(err)
	}
}

type config struct {
	out      string
	maxLog2  int
	patterns []string
	amd      string
	verbose  bool
}

func parseFlags(stderr io.Writer, args []string) (*config, error) {
	fs := flag.NewFlagSet("cachebench", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: cachebench [options]\noptions:\n")
		fs.PrintDefaults()
	}
	var cfg config
	var patterns string
	fs.StringVar(&cfg.out, "o", "out.csv", "write measurements to `file`")
	fs.IntVar(&cfg.maxLog2, "max-log2", 24, "measure vector sizes up to 1<<(`n`-1)")
	fs.StringVar(&patterns, "patterns", "sequential,random", "comma-separated access `patterns` to measure, in order")
	fs.StringVar(&cfg.amd, "amd", "auto", "add AMD family 1Ah model 44h events: auto, on or off")
	fs.BoolVar(&cfg.verbose, "v", false, "log each measurement")
	if err := fs.Parse(args); err != nil {
		return nil, errUsage
	}

	bad := func(format string, args ...interface{}) (*config, error) {
		fmt.Fprintf(stderr, "cachebench: "+format+"\n", args...)
		fs.Usage()
		return nil, errUsage
	}
	if fs.NArg() != 0 {
		return bad("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	if cfg.maxLog2 < 1 || cfg.maxLog2 > 40 {
		return bad("-max-log2 must be between 1 and 40")
	}
	switch cfg.amd {
	case "auto", "on", "off":
	default:
		return bad("unknown -amd mode %q", cfg.amd)
	}
	for _, p := range strings.Split(patterns, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, ok := workload.Patterns[p]; !ok {
			return bad("unknown access pattern %q (have %s)", p, strings.Join(workload.Names(), ", "))
		}
		cfg.patterns = append(cfg.patterns, p)
	}
	if len(cfg.patterns) == 0 {
		return bad("no access patterns")
	}
	return &cfg, nil
}

func cachebench(stderr io.Writer, args []string) (err error) {
	cfg, err := parseFlags(stderr, args)
	if err != nil {
		return err
	}

	events := perfevent.DefaultEvents()
	if useAMD(cfg.amd) {
		events = append(events, perfevent.AMDEvents()...)
	}
	events, err = usable(events)
	if err != nil {
		return err
	}
	columns := []string{perfevent.WallClock}
	for _, e := range events {
		columns = append(columns, e.Name)
	}
	sort.Strings(columns)

	f, err := os.Create(cfg.out)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	w := sample.NewWriter(f)
	w.SetColumns(columns)

	for i := 0; i < cfg.maxLog2; i++ {
		n := 1 << i
		for _, pattern := range cfg.patterns {
			xs := workload.Fill(n)
			r, sum, err := measure(events, workload.Patterns[pattern], xs)
			if err != nil {
				return fmt.Errorf("size %d, %s: %w", n, pattern, err)
			}
			if cfg.verbose {
				log.Printf("size %d, %s: sum %d, %.3f ms", n, pattern, sum, r[perfevent.WallClock])
			}
			s := &sample.Sample{VectorSize: int64(n), AccessPattern: pattern, Counters: r}
			if err := w.Write(s); err != nil {
				return err
			}
		}
	}
	return w.Flush()
}

// useAMD reports whether to add the AMD-specific events.
func useAMD(mode string) bool {
	switch mode {
	case "on":
		return true
	case "off":
		return false
	}
	f, err := os.Open("/proc/cpuinfo")
	if err != nil {
		return false
	}
	defer f.Close()
	ok, err := perfevent.IsAMDFamily1AhModel44h(f)
	if err != nil {
		log.Printf("reading /proc/cpuinfo: %v", err)
		return false
	}
	return ok
}

// usable returns the events that can be opened on this system, logging
// the rest.
func usable(events []perfevent.Event) ([]perfevent.Event, error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	var ok []perfevent.Event
	for _, e := range events {
		g, err := perfevent.NewGroup()
		if err != nil {
			return nil, err
		}
		if err := g.AddEvent(e.Name, e.Type, e.Config); err != nil {
			log.Printf("skipping event: %v", err)
		} else {
			ok = append(ok, e)
		}
		g.Close()
	}
	if len(ok) == 0 && len(events) > 0 {
		log.Printf("no counters available; recording %s only", perfevent.WallClock)
	}
	return ok, nil
}

// measure runs k over xs with events counting and returns the reading
// and the kernel's result.
func measure(events []perfevent.Event, k workload.Kernel, xs []uint64) (perfevent.Reading, uint64, error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	g, err := perfevent.NewGroup()
	if err != nil {
		return nil, 0, err
	}
	defer g.Close()
	for _, e := range events {
		if err := g.AddEvent(e.Name, e.Type, e.Config); err != nil {
			return nil, 0, err
		}
	}

	if err := g.Enable(); err != nil {
		return nil, 0, err
	}
	sum := k(xs)
	if err := g.Disable(); err != nil {
		return nil, 0, err
	}
	r, err := g.Read()
	return r, sum, err
}
