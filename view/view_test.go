// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package view

import (
	"context"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aclements/go-gg/table"
	"github.com/google/go-cmp/cmp"
	"github.com/perf-lib/cacheplot/frame"
	"github.com/perf-lib/cacheplot/storage/db"
)

const metric = "l1d_cache_accesses"

func testApp() *App {
	rows := []db.Row{
		{AccessPattern: "random", Value: 12, VectorSize: 1},
		{AccessPattern: "sequential", Value: 10, VectorSize: 1},
		{AccessPattern: "sequential", Value: 21, VectorSize: 2},
	}
	return &App{
		Title:  "L1D Cache Accesses by Access Pattern",
		Metric: metric,
		Table:  frame.FromRows(metric, rows),
		PNG:    []byte("\x89PNG fake"),
		LogX:   true,
	}
}

func get(t *testing.T, srv *httptest.Server, path string) (int, string, string) {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode, resp.Header.Get("Content-Type"), string(body)
}

func TestHandlers(t *testing.T) {
	mux := http.NewServeMux()
	testApp().RegisterOnMux(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	code, ctype, body := get(t, srv, "/")
	if code != 200 || !strings.HasPrefix(ctype, "text/html") {
		t.Fatalf("GET / = %d %s", code, ctype)
	}
	for _, want := range []string{
		"<title>L1D Cache Accesses by Access Pattern</title>",
		`new google.visualization.DataTable({"cols":[`,
		`{"c":[{"v":2},{"v":null},{"v":21}]}`,
		"logScale: true",
		`<img src="plot.png"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("GET / missing %q:\n%s", want, body)
		}
	}
	if strings.Contains(body, `href="plot.svg"`) {
		t.Errorf("GET / links to plot.svg, which was not rendered")
	}

	code, ctype, body = get(t, srv, "/plot.png")
	if code != 200 || ctype != "image/png" || body != "\x89PNG fake" {
		t.Errorf("GET /plot.png = %d %s %q", code, ctype, body)
	}
	if code, _, _ := get(t, srv, "/plot.svg"); code != 404 {
		t.Errorf("GET /plot.svg = %d, want 404", code)
	}
	if code, _, _ := get(t, srv, "/nonexistent"); code != 404 {
		t.Errorf("GET /nonexistent = %d, want 404", code)
	}

	code, _, body = get(t, srv, "/data.csv")
	want := "vector_size,access_pattern,l1d_cache_accesses\n1,random,12\n1,sequential,10\n2,sequential,21\n"
	if code != 200 {
		t.Errorf("GET /data.csv = %d", code)
	}
	if diff := cmp.Diff(want, body); diff != "" {
		t.Errorf("GET /data.csv mismatch (-want +got):\n%s", diff)
	}
}

func TestTableToJS(t *testing.T) {
	a := testApp()
	wide, columns := pivot(a.Table, a.Metric)
	got := string(tableToJS(wide, columns))
	want := `{"cols":[{"id":"vector_size","type":"number","label":"Vector Size"},` +
		`{"id":"random","type":"number","label":"random"},` +
		`{"id":"sequential","type":"number","label":"sequential"}],` +
		`"rows":[{"c":[{"v":1},{"v":12},{"v":10}]},{"c":[{"v":2},{"v":null},{"v":21}]}]}`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tableToJS mismatch (-want +got):\n%s", diff)
	}
}

func TestTableToJSKinds(t *testing.T) {
	tab := new(table.Builder).
		Add("name", []string{"a", "b"}).
		Add("n", []int64{3, 4}).
		Add("x", []float64{math.Inf(1), 0.5}).
		Done()
	got := string(tableToJS(tab, []column{{ID: "name"}, {ID: "n", Label: "Count"}, {ID: "x"}}))
	want := `{"cols":[{"id":"name","type":"string","label":"name"},` +
		`{"id":"n","type":"number","label":"Count"},` +
		`{"id":"x","type":"number","label":"x"}],` +
		`"rows":[{"c":[{"v":"a"},{"v":3},{"v":null}]},{"c":[{"v":"b"},{"v":4},{"v":0.5}]}]}`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tableToJS mismatch (-want +got):\n%s", diff)
	}
}

func TestPivotEmpty(t *testing.T) {
	wide, columns := pivot(frame.FromRows(metric, nil), metric)
	if wide.Len() != 0 || len(columns) != 1 {
		t.Errorf("pivot(empty) = %d rows, %d columns; want 0, 1", wide.Len(), len(columns))
	}
}

func TestServe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var status int
	open := func(url string) error {
		defer cancel()
		resp, err := http.Get(url + "plot.png")
		if err != nil {
			return err
		}
		resp.Body.Close()
		status = resp.StatusCode
		return nil
	}
	if err := Serve(ctx, "localhost:0", testApp(), open); err != nil {
		t.Fatalf("Serve: %v", err)
	}
	if status != 200 {
		t.Errorf("GET /plot.png = %d, want 200", status)
	}
}

func TestServeBadAddr(t *testing.T) {
	if err := Serve(context.Background(), "localhost:-1", testApp(), nil); err == nil {
		t.Errorf("Serve(bad address) succeeded")
	}
}
