// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/perf-lib/cacheplot/sample"
	"github.com/perf-lib/cacheplot/storage/db"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	t.Logf("cacheplot %s", strings.Join(args, " "))
	err := cacheplot(context.Background(), &stdout, &stderr, args)
	return stdout.String(), stderr.String(), err
}

// TestPlot checks that the chart image is written and is a valid PNG.
func TestPlot(t *testing.T) {
	out := filepath.Join(t.TempDir(), "plot.png")
	stdout, _, err := run(t, "-show=false", "-o", out, "testdata/cache.csv")
	if err != nil {
		t.Fatal(err)
	}
	if want := "Plot saved to " + out + "\n"; stdout != want {
		t.Errorf("stdout = %q, want %q", stdout, want)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := png.Decode(f); err != nil {
		t.Errorf("%s is not a PNG: %v", out, err)
	}
}

// TestPlotSingleSize plots only the smallest vector size, so every
// point sits at x = 1 on the log axis.
func TestPlotSingleSize(t *testing.T) {
	out := filepath.Join(t.TempDir(), "plot.png")
	if _, _, err := run(t, "-show=false", "-max-size", "1", "-o", out, "testdata/cache.csv"); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := png.Decode(f); err != nil {
		t.Errorf("%s is not a PNG: %v", out, err)
	}
}

func TestNaNCell(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "nan.csv")
	data := "vector_size,access_pattern,l1d-cache-accesses\n1,sequential,10\n2,sequential,nan\n"
	if err := os.WriteFile(in, []byte(data), 0666); err != nil {
		t.Fatal(err)
	}
	_, _, err := run(t, "-show=false", "-o", filepath.Join(dir, "plot.png"), in)
	var serr *sample.SyntaxError
	if !errors.As(err, &serr) || serr.Line != 3 {
		t.Errorf("got %v, want syntax error on line 3", err)
	}
}

func TestPlotSVG(t *testing.T) {
	out := filepath.Join(t.TempDir(), "plot.svg")
	if _, _, err := run(t, "-show=false", "-o", out, "-metric", "l1d-cache-misses", "-logy", "testdata/cache.csv"); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte("L1D Cache Misses by Access Pattern")) {
		t.Errorf("%s lacks the derived title", out)
	}
}

func TestSummary(t *testing.T) {
	out := filepath.Join(t.TempDir(), "plot.png")
	stdout, _, err := run(t, "-show=false", "-summary", "-o", out, "-patterns", "random", "testdata/cache.csv")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"access_pattern", "count", "random", "980"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("summary lacks %q:\n%s", want, stdout)
		}
	}
	if strings.Contains(stdout, "sequential") {
		t.Errorf("summary includes a filtered-out pattern:\n%s", stdout)
	}
}

func TestErrors(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "plot.png")

	if _, _, err := run(t, "-show=false", "-o", out, "-metric", "branch_misses", "testdata/cache.csv"); !errors.Is(err, db.ErrUnknownMetric) {
		t.Errorf("unknown metric: got %v, want ErrUnknownMetric", err)
	}
	if _, _, err := run(t, "-show=false", "-o", out, "-min-size", "1000", "testdata/cache.csv"); err == nil || !strings.Contains(err.Error(), "no rows") {
		t.Errorf("empty result: got %v, want no rows error", err)
	}
	if _, _, err := run(t, "-show=false", "-o", out, filepath.Join(dir, "missing.csv")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing input: got %v, want not exist", err)
	}
	if _, err := os.Stat(out); err == nil {
		t.Errorf("failed runs wrote %s", out)
	}
}

func TestUsage(t *testing.T) {
	for _, args := range [][]string{
		nil,
		{"a.csv", "b.csv"},
		{"-max-size", "2", "-min-size", "4", "a.csv"},
		{"-metric", "", "a.csv"},
		{"-nosuchflag", "a.csv"},
	} {
		_, stderr, err := run(t, args...)
		if !errors.Is(err, errUsage) {
			t.Errorf("cacheplot %q: got %v, want usage error", args, err)
		}
		if !strings.Contains(stderr, "usage: cacheplot") {
			t.Errorf("cacheplot %q: stderr lacks usage:\n%s", args, stderr)
		}
	}
}

func TestFlagDefaults(t *testing.T) {
	cfg, err := parseFlags(new(bytes.Buffer), []string{"-metric", "L1D-Cache-Accesses", "-patterns", "random, sequential,", "x.csv"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.out != "plot.png" || cfg.driver != "sqlite3" || cfg.dsn != ":memory:" || !cfg.show || !cfg.logX {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.metric != "l1d_cache_accesses" {
		t.Errorf("metric = %q, want canonical name", cfg.metric)
	}
	if len(cfg.patterns) != 2 || cfg.patterns[0] != "random" || cfg.patterns[1] != "sequential" {
		t.Errorf("patterns = %q", cfg.patterns)
	}
}
