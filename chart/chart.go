// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package chart renders cache measurements as line charts, one line
// per access pattern.
package chart

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/perf-lib/cacheplot/frame"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
	"gonum.org/v1/plot/vg/vgsvg"
)

// ErrNoData is returned when there is nothing to draw.
var ErrNoData = errors.New("chart: no data to plot")

// Options control the look and size of a chart.
type Options struct {
	Title  string
	XLabel string
	YLabel string

	// LogX and LogY select logarithmic axes. Points with a
	// non-positive coordinate on a logarithmic axis are not drawn.
	LogX, LogY bool

	Width, Height vg.Length
	DPI           int
}

// DefaultOptions returns the options for plotting metric against
// vector size: a log-scale x axis, since sizes are usually powers of
// two, and a title such as "L1D Cache Accesses by Access Pattern".
func DefaultOptions(metric string) Options {
	label := Label(metric)
	return Options{
		Title:  label + " by Access Pattern",
		XLabel: "Vector Size",
		YLabel: label,
		LogX:   true,
		Width:  20 * vg.Centimeter,
		Height: 12 * vg.Centimeter,
		DPI:    150,
	}
}

// acronyms are words of a metric name that are printed in upper case.
var acronyms = map[string]bool{"l1d": true, "l1i": true, "l2": true, "l3": true, "llc": true, "tlb": true, "dtlb": true, "itlb": true, "amd": true}

// Label turns a canonical metric name into an axis label, for example
// "l1d_cache_accesses" into "L1D Cache Accesses".
func Label(metric string) string {
	words := strings.Split(metric, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		if acronyms[w] {
			words[i] = strings.ToUpper(w)
		} else if w == "ms" {
			words[i] = "(ms)"
		} else {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// New builds a line chart with one line, with point markers, per
// series.
func New(series []frame.Series, opts Options) (*plot.Plot, error) {
	pl := plot.New()
	pl.Title.Text = opts.Title
	pl.X.Label.Text = opts.XLabel
	pl.Y.Label.Text = opts.YLabel
	pl.Legend.Top = true
	pl.Legend.Left = true

	if opts.LogX {
		pl.X.Scale = plot.LogScale{}
		pl.X.Tick.Marker = siTicks{plot.LogTicks{}}
	} else {
		pl.X.Tick.Marker = siTicks{plot.DefaultTicks{}}
	}
	if opts.LogY {
		pl.Y.Scale = plot.LogScale{}
		pl.Y.Tick.Marker = siTicks{plot.LogTicks{}}
	} else {
		pl.Y.Tick.Marker = siTicks{plot.DefaultTicks{}}
	}

	pl.Add(plotter.NewGrid())

	var lines []interface{}
	for _, s := range series {
		pts := visible(s, opts)
		if len(pts) == 0 {
			continue
		}
		lines = append(lines, s.Pattern, pts)
	}
	if len(lines) == 0 {
		return nil, ErrNoData
	}
	if err := plotutil.AddLinePoints(pl, lines...); err != nil {
		return nil, fmt.Errorf("chart: %v", err)
	}
	if opts.LogX {
		padLog(&pl.X)
	}
	if opts.LogY {
		padLog(&pl.Y)
	}
	return pl, nil
}

// padLog widens a zero-width range on a logarithmic axis to a factor
// of two either side. The range must stay positive.
func padLog(a *plot.Axis) {
	if a.Min == a.Max {
		a.Min, a.Max = a.Min/2, a.Max*2
	}
}

// visible returns the points of s that can be drawn on the axes
// selected by opts.
func visible(s frame.Series, opts Options) plotter.XYs {
	pts := make(plotter.XYs, 0, len(s.Points))
	for _, p := range s.Points {
		if opts.LogX && p.X <= 0 || opts.LogY && p.Y <= 0 {
			continue
		}
		pts = append(pts, plotter.XY{X: p.X, Y: p.Y})
	}
	return pts
}

// siTicks relabels the ticks of a Ticker with SI suffixes.
type siTicks struct {
	plot.Ticker
}

func (t siTicks) Ticks(min, max float64) []plot.Tick {
	ticks := t.Ticker.Ticks(min, max)
	for i := range ticks {
		if ticks[i].Label != "" {
			ticks[i].Label = frame.SI(ticks[i].Value)
		}
	}
	return ticks
}

func (o Options) size() (w, h vg.Length, dpi int) {
	w, h, dpi = o.Width, o.Height, o.DPI
	if w <= 0 {
		w = 20 * vg.Centimeter
	}
	if h <= 0 {
		h = 12 * vg.Centimeter
	}
	if dpi <= 0 {
		dpi = 150
	}
	return
}

// WritePNG draws pl as a PNG image on a white background.
func WritePNG(w io.Writer, pl *plot.Plot, opts Options) error {
	width, height, dpi := opts.size()
	can := vgimg.PngCanvas{Canvas: vgimg.NewWith(vgimg.UseWH(width, height),
		vgimg.UseDPI(dpi), vgimg.UseBackgroundColor(color.White))}
	pl.Draw(draw.New(can))
	_, err := can.WriteTo(w)
	return err
}

// WriteSVG draws pl as an SVG document.
func WriteSVG(w io.Writer, pl *plot.Plot, opts Options) error {
	width, height, _ := opts.size()
	can := vgsvg.New(width, height)
	pl.Draw(draw.New(can))
	_, err := can.WriteTo(w)
	return err
}

// SaveFile writes pl to path in the format named by its extension,
// .png or .svg, replacing any existing file.
func SaveFile(path string, pl *plot.Plot, opts Options) (err error) {
	var write func(io.Writer, *plot.Plot, Options) error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png":
		write = WritePNG
	case ".svg":
		write = WriteSVG
	default:
		return fmt.Errorf("chart: unsupported image format %q", ext)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return write(f, pl, opts)
}
