// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sample

import (
	"encoding/csv"
	"io"
	"sort"
	"strconv"
)

// A Writer writes samples in CSV form.
//
// The header is written with the first sample: vector_size,
// access_pattern, then the names of that sample's counters in sorted
// order. Later samples are written against the same columns; counters
// they lack are written as empty cells and counters not in the header
// are dropped.
type Writer struct {
	w       *csv.Writer
	columns []string
	row     []string
}

// NewWriter returns a Writer that writes samples to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: csv.NewWriter(w)}
}

// SetColumns fixes the counter columns instead of taking them from
// the first sample. It has no effect once a sample has been written.
func (w *Writer) SetColumns(names []string) {
	if w.row != nil {
		return
	}
	w.columns = append([]string(nil), names...)
}

// Write writes s, preceded by the header if this is the first sample.
func (w *Writer) Write(s *Sample) error {
	if w.row == nil {
		if w.columns == nil {
			for name := range s.Counters {
				w.columns = append(w.columns, name)
			}
			sort.Strings(w.columns)
		}
		hdr := append([]string{VectorSize, AccessPattern}, w.columns...)
		if err := w.w.Write(hdr); err != nil {
			return err
		}
		w.row = make([]string, len(hdr))
	}

	w.row[0] = strconv.FormatInt(s.VectorSize, 10)
	w.row[1] = s.AccessPattern
	for i, name := range w.columns {
		if v, ok := s.Counters[name]; ok {
			w.row[i+2] = strconv.FormatFloat(v, 'g', -1, 64)
		} else {
			w.row[i+2] = ""
		}
	}
	return w.w.Write(w.row)
}

// Flush writes any buffered data and reports any error that occurred
// during a previous Write or Flush.
func (w *Writer) Flush() error {
	w.w.Flush()
	return w.w.Error()
}
