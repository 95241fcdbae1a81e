// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package view serves a rendered chart and its data over HTTP, with an
// interactive line chart drawn by Google Charts in the browser.
package view

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"html/template"
	"log"
	"math"
	"net/http"
	"sort"

	"github.com/aclements/go-gg/generic/slice"
	"github.com/aclements/go-gg/table"
	"github.com/perf-lib/cacheplot/chart"
	"github.com/perf-lib/cacheplot/frame"
	"github.com/perf-lib/cacheplot/sample"
)

// App serves one chart.
type App struct {
	Title  string
	Metric string

	// Table is the query result, as built by frame.FromRows.
	Table *table.Table

	// PNG and SVG are the rendered chart. Either may be nil, in
	// which case the corresponding handler returns 404.
	PNG, SVG []byte

	LogX, LogY bool
}

// RegisterOnMux registers the app's handlers on mux.
func (a *App) RegisterOnMux(mux *http.ServeMux) {
	mux.HandleFunc("/", a.index)
	mux.HandleFunc("/plot.png", a.image("image/png", func() []byte { return a.PNG }))
	mux.HandleFunc("/plot.svg", a.image("image/svg+xml", func() []byte { return a.SVG }))
	mux.HandleFunc("/data.csv", a.data)
}

//go:embed template/plot.html
var plotHTML string

var plotTmpl = template.Must(template.New("plot").Parse(plotHTML))

// plotData is the struct passed to the plot.html template.
type plotData struct {
	Title          string
	YLabel         string
	LogX, LogY     bool
	HasPNG, HasSVG bool
	PlotData       template.JS
}

func (a *App) index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	wide, columns := pivot(a.Table, a.Metric)
	d := plotData{
		Title:    a.Title,
		YLabel:   chart.Label(a.Metric),
		LogX:     a.LogX,
		LogY:     a.LogY,
		HasPNG:   a.PNG != nil,
		HasSVG:   a.SVG != nil,
		PlotData: tableToJS(wide, columns),
	}

	var buf bytes.Buffer
	if err := plotTmpl.Execute(&buf, d); err != nil {
		log.Printf("view: executing template: %v", err)
		http.Error(w, err.Error(), 500)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func (a *App) image(contentType string, data func() []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b := data()
		if b == nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", contentType)
		w.Write(b)
	}
}

// data writes the query result back out in the input CSV format.
func (a *App) data(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	if a.Table == nil || a.Table.Len() == 0 {
		return
	}
	var patterns []string
	var sizes []int64
	var values []float64
	slice.Convert(&patterns, a.Table.MustColumn(frame.PatternCol))
	slice.Convert(&sizes, a.Table.MustColumn(frame.SizeCol))
	slice.Convert(&values, a.Table.MustColumn(a.Metric))

	cw := sample.NewWriter(w)
	cw.SetColumns([]string{a.Metric})
	s := &sample.Sample{Counters: make(map[string]float64)}
	for i := range patterns {
		s.AccessPattern, s.VectorSize = patterns[i], sizes[i]
		s.Counters[a.Metric] = values[i]
		if err := cw.Write(s); err != nil {
			log.Printf("view: writing data.csv: %v", err)
			return
		}
	}
	if err := cw.Flush(); err != nil {
		log.Printf("view: writing data.csv: %v", err)
	}
}

// pivot turns the long result table into one row per vector size and
// one column per access pattern, as google.visualization.LineChart
// expects. Sizes a pattern was not measured at hold NaN.
func pivot(t *table.Table, metric string) (*table.Table, []column) {
	var series []frame.Series
	if t != nil && t.Len() > 0 {
		series = frame.SeriesOf(t, metric)
	}

	index := make(map[float64]int)
	var xs []float64
	for _, s := range series {
		for _, p := range s.Points {
			if _, ok := index[p.X]; !ok {
				index[p.X] = 0
				xs = append(xs, p.X)
			}
		}
	}
	sort.Float64s(xs)
	for i, x := range xs {
		index[x] = i
	}

	b := new(table.Builder).Add(frame.SizeCol, xs)
	columns := []column{{ID: frame.SizeCol, Label: "Vector Size"}}
	for _, s := range series {
		ys := make([]float64, len(xs))
		for i := range ys {
			ys[i] = math.NaN()
		}
		for _, p := range s.Points {
			ys[index[p.X]] = p.Y
		}
		b.Add(s.Pattern, ys)
		columns = append(columns, column{ID: s.Pattern})
	}
	return b.Done(), columns
}

// dataTable is the JSON form accepted by the
// google.visualization.DataTable constructor.
type dataTable struct {
	Cols []column `json:"cols"`
	Rows []row    `json:"rows"`
}

// column describes one DataTable column. ID names the table column
// it is read from; Type and Label default to the column's kind and ID.
type column struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Label string `json:"label"`
}

type row struct {
	C []cell `json:"c"`
}

// cell holds one value. A nil V is an empty cell, which LineChart
// leaves as a gap.
type cell struct {
	V interface{} `json:"v"`
}

// kind returns the DataTable type of a table column.
func kind(s table.Slice) string {
	switch s.(type) {
	case []string:
		return "string"
	case []int, []int64, []float64:
		return "number"
	}
	return ""
}

// value returns element i of a table column as a cell value. NaN and
// infinities have no JSON form and become empty cells.
func value(s table.Slice, i int) interface{} {
	switch s := s.(type) {
	case []string:
		return s[i]
	case []int:
		return s[i]
	case []int64:
		return s[i]
	case []float64:
		if math.IsNaN(s[i]) || math.IsInf(s[i], 0) {
			return nil
		}
		return s[i]
	}
	return nil
}

// tableToJS converts the named columns of t to a literal that can be
// passed to "new google.visualization.DataTable".
func tableToJS(t *table.Table, columns []column) template.JS {
	dt := dataTable{Cols: make([]column, len(columns)), Rows: make([]row, t.Len())}
	slices := make([]table.Slice, len(columns))
	for j, c := range columns {
		slices[j] = t.MustColumn(c.ID)
		if c.Type == "" {
			c.Type = kind(slices[j])
		}
		if c.Label == "" {
			c.Label = c.ID
		}
		dt.Cols[j] = c
	}
	for i := range dt.Rows {
		cells := make([]cell, len(columns))
		for j, s := range slices {
			cells[j] = cell{value(s, i)}
		}
		dt.Rows[i] = row{cells}
	}
	data, err := json.Marshal(dt)
	if err != nil {
		// Every cell is a string, an integer or a finite float.
		panic(err)
	}
	return template.JS(data)
}
