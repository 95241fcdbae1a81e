// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sample reads and writes CSV files of cache measurements.
//
// A sample file has a header row naming its columns followed by one
// row per measurement. Two columns are required: vector_size, the
// number of elements in the buffer under test, and access_pattern,
// the traversal strategy used on it. Every other column is a counter
// value, such as l1d-cache-accesses or wall_clock_ms. An empty counter
// cell means the counter was not measured for that row.
//
// Column names are matched in canonical form (see CanonicalName), so
// "l1d-cache-accesses" and "l1d_cache_accesses" name the same column.
package sample

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// Column names of the two required columns.
const (
	VectorSize    = "vector_size"
	AccessPattern = "access_pattern"
)

// A Sample is a single measurement: the counters recorded while
// traversing a buffer of VectorSize elements using AccessPattern.
type Sample struct {
	VectorSize    int64
	AccessPattern string

	// Counters maps canonical counter names to their values.
	// Counters that were not measured are absent.
	Counters map[string]float64
}

// Clone returns a deep copy of s.
func (s *Sample) Clone() *Sample {
	c := &Sample{VectorSize: s.VectorSize, AccessPattern: s.AccessPattern}
	c.Counters = make(map[string]float64, len(s.Counters))
	for k, v := range s.Counters {
		c.Counters[k] = v
	}
	return c
}

// A SyntaxError represents a syntax error on a particular line of a
// sample file.
type SyntaxError struct {
	FileName string
	Line     int
	Msg      string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.FileName, e.Line, e.Msg)
}

// A Reader reads samples from a CSV file.
//
// Its API is modeled on bufio.Scanner. The Sample returned by the
// Sample method is overwritten by the next call to Scan; callers that
// retain samples should Clone them.
type Reader struct {
	csv      *csv.Reader
	fileName string
	line     int
	err      error

	// header state, filled from the first row.
	header   bool
	sizeCol  int
	patCol   int
	counters []string // canonical name per column, "" for the required columns
	names    []string // counter names in column order

	sample Sample
}

// NewReader returns a Reader that parses samples from r. fileName is
// used in error messages only.
func NewReader(r io.Reader, fileName string) *Reader {
	if fileName == "" {
		fileName = "<unknown>"
	}
	c := csv.NewReader(r)
	c.FieldsPerRecord = -1
	c.TrimLeadingSpace = true
	c.ReuseRecord = true
	return &Reader{csv: c, fileName: fileName}
}

func (r *Reader) syntaxError(format string, args ...interface{}) *SyntaxError {
	return &SyntaxError{r.fileName, r.line, fmt.Sprintf(format, args...)}
}

// Scan advances the reader to the next sample and reports whether one
// was read. When Scan returns false, the caller should consult Err.
func (r *Reader) Scan() bool {
	if r.err != nil {
		return false
	}
	for {
		rec, err := r.csv.Read()
		if err == io.EOF {
			if !r.header {
				r.line++
				r.err = r.syntaxError("missing header row")
			}
			return false
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				r.line = perr.Line
				r.err = r.syntaxError("%v", perr.Err)
			} else {
				r.err = fmt.Errorf("%s: %w", r.fileName, err)
			}
			return false
		}
		r.line, _ = r.csv.FieldPos(0)
		if isBlank(rec) {
			continue
		}
		if !r.header {
			if err := r.parseHeader(rec); err != nil {
				r.err = err
				return false
			}
			continue
		}
		if err := r.parseRow(rec); err != nil {
			r.err = err
			return false
		}
		return true
	}
}

func isBlank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func (r *Reader) parseHeader(rec []string) error {
	r.header = true
	r.sizeCol, r.patCol = -1, -1
	r.counters = make([]string, len(rec))
	seen := make(map[string]bool)
	for i, h := range rec {
		name := CanonicalName(h)
		if name == "" {
			return r.syntaxError("column %d has an empty name", i+1)
		}
		if seen[name] {
			return r.syntaxError("duplicate column %q", name)
		}
		seen[name] = true
		switch name {
		case VectorSize:
			r.sizeCol = i
		case AccessPattern:
			r.patCol = i
		default:
			r.counters[i] = name
			r.names = append(r.names, name)
		}
	}
	if r.sizeCol < 0 {
		return r.syntaxError("missing %s column", VectorSize)
	}
	if r.patCol < 0 {
		return r.syntaxError("missing %s column", AccessPattern)
	}
	return nil
}

func (r *Reader) parseRow(rec []string) error {
	if len(rec) != len(r.counters) {
		return r.syntaxError("have %d fields, header has %d", len(rec), len(r.counters))
	}
	size, err := strconv.ParseInt(strings.TrimSpace(rec[r.sizeCol]), 10, 64)
	if err != nil || size < 0 {
		return r.syntaxError("bad %s %q", VectorSize, rec[r.sizeCol])
	}
	pattern := strings.TrimSpace(rec[r.patCol])
	if pattern == "" {
		return r.syntaxError("empty %s", AccessPattern)
	}

	r.sample.VectorSize = size
	r.sample.AccessPattern = pattern
	if r.sample.Counters == nil {
		r.sample.Counters = make(map[string]float64, len(r.names))
	}
	for k := range r.sample.Counters {
		delete(r.sample.Counters, k)
	}
	for i, name := range r.counters {
		if name == "" {
			continue
		}
		field := strings.TrimSpace(rec[i])
		if field == "" {
			continue
		}
		v, err := strconv.ParseFloat(field, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return r.syntaxError("bad value %q for %s", field, name)
		}
		r.sample.Counters[name] = v
	}
	return nil
}

// Sample returns the sample read by the last call to Scan.
func (r *Reader) Sample() *Sample {
	return &r.sample
}

// Counters returns the canonical names of the counter columns, in
// file order. It is empty until the header has been read.
func (r *Reader) Counters() []string {
	return r.names
}

// Err returns the first error encountered by Scan, or nil if Scan
// stopped at the end of the input.
func (r *Reader) Err() error {
	return r.err
}

// ReadAll reads every remaining sample from r.
func ReadAll(r *Reader) ([]*Sample, error) {
	var out []*Sample
	for r.Scan() {
		out = append(out, r.Sample().Clone())
	}
	return out, r.Err()
}

// A File is a Reader over an open file.
type File struct {
	*Reader
	f *os.File
}

// Open opens path for reading samples. The path "-" reads standard
// input.
func Open(path string) (*File, error) {
	if path == "-" {
		return &File{Reader: NewReader(os.Stdin, "<stdin>")}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &File{Reader: NewReader(f, path), f: f}, nil
}

// Close closes the underlying file. Standard input is left open.
func (f *File) Close() error {
	if f.f == nil {
		return nil
	}
	return f.f.Close()
}

// CanonicalName returns the canonical form of a column name: lower
// case, with every run of characters other than ASCII letters and
// digits replaced by a single underscore and no leading or trailing
// underscores.
func CanonicalName(name string) string {
	var b strings.Builder
	pending := false
	for _, c := range strings.ToLower(name) {
		if 'a' <= c && c <= 'z' || '0' <= c && c <= '9' {
			if pending && b.Len() > 0 {
				b.WriteByte('_')
			}
			pending = false
			b.WriteRune(c)
			continue
		}
		pending = true
	}
	return b.String()
}
