// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/perf-lib/cacheplot/internal/perfevent"
	"github.com/perf-lib/cacheplot/sample"
)

func TestFlags(t *testing.T) {
	for _, test := range []struct {
		args []string
		ok   bool
	}{
		{nil, true},
		{[]string{"-patterns", "random", "-amd", "off", "-max-log2", "4"}, true},
		{[]string{"-patterns", "backwards"}, false},
		{[]string{"-patterns", ","}, false},
		{[]string{"-amd", "maybe"}, false},
		{[]string{"-max-log2", "0"}, false},
		{[]string{"extra"}, false},
		{[]string{"-nosuchflag"}, false},
	} {
		var stderr bytes.Buffer
		_, err := parseFlags(&stderr, test.args)
		if test.ok && err != nil {
			t.Errorf("parseFlags(%q): %v\n%s", test.args, err, &stderr)
		}
		if !test.ok {
			if !errors.Is(err, errUsage) {
				t.Errorf("parseFlags(%q) error = %v, want usage error", test.args, err)
			}
			if stderr.Len() == 0 {
				t.Errorf("parseFlags(%q) printed no usage", test.args)
			}
		}
	}
}

func TestDefaultPatterns(t *testing.T) {
	cfg, err := parseFlags(new(bytes.Buffer), nil)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"sequential", "random"}; !reflect.DeepEqual(cfg.patterns, want) {
		t.Errorf("default patterns = %v, want %v", cfg.patterns, want)
	}
}

func TestPatternOrder(t *testing.T) {
	cfg, err := parseFlags(new(bytes.Buffer), []string{"-patterns", "random, sequential"})
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"random", "sequential"}; !reflect.DeepEqual(cfg.patterns, want) {
		t.Errorf("patterns = %v, want %v", cfg.patterns, want)
	}
}

func TestCachebench(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.csv")
	err := cachebench(new(bytes.Buffer), []string{"-o", out, "-max-log2", "3", "-amd", "off"})
	if errors.Is(err, perfevent.ErrUnsupported) {
		t.Skip(err)
	}
	if err != nil {
		t.Fatal(err)
	}

	f, err := sample.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	samples, err := sample.ReadAll(f.Reader)
	if err != nil {
		t.Fatal(err)
	}
	type key struct {
		size    int64
		pattern string
	}
	var got []key
	for _, s := range samples {
		got = append(got, key{s.VectorSize, s.AccessPattern})
		if _, ok := s.Counters[perfevent.WallClock]; !ok {
			t.Errorf("size %d, %s: no %s", s.VectorSize, s.AccessPattern, perfevent.WallClock)
		}
	}
	want := []key{{1, "sequential"}, {1, "random"}, {2, "sequential"}, {2, "random"}, {4, "sequential"}, {4, "random"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("measured %v, want %v", got, want)
	}
}
