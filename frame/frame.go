// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package frame holds a query result as a table and derives the
// per-pattern series and summaries used for plotting.
package frame

import (
	"fmt"
	"io"
	"math"

	"github.com/aclements/go-gg/generic/slice"
	"github.com/aclements/go-gg/ggstat"
	"github.com/aclements/go-gg/table"
	"github.com/aclements/go-moremath/stats"
	"github.com/dustin/go-humanize"
	"github.com/perf-lib/cacheplot/storage/db"
)

// Column names of a result table. The value column is named after the
// metric.
const (
	PatternCol = "access_pattern"
	SizeCol    = "vector_size"
)

// FromRows converts query rows into a table with the columns
// access_pattern, vector_size and metric, in row order.
func FromRows(metric string, rows []db.Row) *table.Table {
	patterns := make([]string, len(rows))
	sizes := make([]int64, len(rows))
	values := make([]float64, len(rows))
	for i, r := range rows {
		patterns[i] = r.AccessPattern
		sizes[i] = r.VectorSize
		values[i] = r.Value
	}
	return new(table.Builder).
		Add(PatternCol, patterns).
		Add(SizeCol, sizes).
		Add(metric, values).
		Done()
}

// A Point is one (vector size, value) pair.
type Point struct {
	X, Y float64
}

// A Series is the points of one access pattern, in table order.
type Series struct {
	Pattern string
	Points  []Point
}

// Len and XY implement gonum's plotter.XYer.
func (s Series) Len() int                { return len(s.Points) }
func (s Series) XY(i int) (x, y float64) { return s.Points[i].X, s.Points[i].Y }

// SeriesOf splits t into one series per access pattern. Series appear
// in the order their pattern first appears in t, so a table sorted by
// pattern yields series sorted by pattern.
func SeriesOf(t *table.Table, metric string) []Series {
	g := table.GroupBy(t, PatternCol)
	var out []Series
	for _, gid := range g.Tables() {
		sub := g.Table(gid)
		var xs, ys []float64
		slice.Convert(&xs, sub.MustColumn(SizeCol))
		slice.Convert(&ys, sub.MustColumn(metric))
		s := Series{Pattern: gid.Label().(string), Points: make([]Point, len(xs))}
		for i := range xs {
			s.Points[i] = Point{xs[i], ys[i]}
		}
		out = append(out, s)
	}
	return out
}

// Summarize aggregates t per access pattern. The result has the
// columns access_pattern, count, "min <metric>", "max <metric>",
// "geomean <metric>" and "per element", the geometric mean of
// metric/vector_size over rows where both are positive.
func Summarize(t *table.Table, metric string) table.Grouping {
	return ggstat.Agg(PatternCol)(
		ggstat.AggCount("count"),
		ggstat.AggMin(metric),
		ggstat.AggMax(metric),
		ggstat.AggGeoMean(metric),
		perElement(metric),
	).F(t)
}

// perElement returns an aggregator computing the geometric mean of
// metric per vector element.
func perElement(metric string) ggstat.Aggregator {
	return func(input table.Grouping, b *table.Builder) {
		out := make([]float64, 0, len(input.Tables()))
		for _, gid := range input.Tables() {
			var sizes, values []float64
			slice.Convert(&sizes, input.Table(gid).MustColumn(SizeCol))
			slice.Convert(&values, input.Table(gid).MustColumn(metric))
			var ratios []float64
			for i := range sizes {
				if sizes[i] > 0 && values[i] > 0 {
					ratios = append(ratios, values[i]/sizes[i])
				}
			}
			if len(ratios) == 0 {
				out = append(out, math.NaN())
				continue
			}
			out = append(out, stats.GeoMean(ratios))
		}
		b.Add("per element", out)
	}
}

// Fprint writes g to w as an aligned text table. Float columns are
// printed with SI suffixes.
func Fprint(w io.Writer, g table.Grouping) error {
	g = table.MapTables(g, func(_ table.GroupID, t *table.Table) *table.Table {
		b := table.NewBuilder(t)
		for _, col := range t.Columns() {
			if _, ok := t.Const(col); ok {
				continue
			}
			if fs, ok := t.Column(col).([]float64); ok {
				b.Add(col, siStrings(fs))
			}
		}
		return b.Done()
	})
	return table.Fprint(w, g)
}

func siStrings(fs []float64) []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = SI(f)
	}
	return out
}

// SI formats v with an SI magnitude suffix, for example 1.5k or 2M.
func SI(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Sprint(v)
	}
	if math.Abs(v) < 1000 {
		return humanize.FtoaWithDigits(v, 3)
	}
	n, prefix := humanize.ComputeSI(v)
	return humanize.FtoaWithDigits(n, 2) + prefix
}
