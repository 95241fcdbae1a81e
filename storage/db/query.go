// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package db

import (
	"fmt"
	"strings"

	"golang.org/x/net/context"
)

// A Query selects one metric from a dataset, optionally restricted to
// some access patterns and a range of vector sizes.
type Query struct {
	// Dataset is the ID of the dataset to read.
	Dataset int64
	// Metric is the canonical counter name to select.
	Metric string
	// Patterns, if non-empty, restricts the result to these access
	// patterns.
	Patterns []string
	// MinSize and MaxSize bound VectorSize, inclusive. A MaxSize of
	// zero means no upper bound.
	MinSize, MaxSize int64
}

// A Row is one row of a query result.
type Row struct {
	AccessPattern string
	Value         float64
	VectorSize    int64
}

// sql returns the SELECT statement for q and its arguments.
func (q *Query) sql() (string, []interface{}) {
	var buf strings.Builder
	buf.WriteString(`SELECT s.AccessPattern, c.Value, s.VectorSize
FROM Samples s
JOIN Counters c ON c.DatasetID = s.DatasetID AND c.SampleID = s.SampleID
WHERE s.DatasetID = ? AND c.Name = ?`)
	args := []interface{}{q.Dataset, q.Metric}
	if len(q.Patterns) > 0 {
		buf.WriteString(" AND s.AccessPattern IN (")
		buf.WriteString(strings.TrimSuffix(strings.Repeat("?, ", len(q.Patterns)), ", "))
		buf.WriteString(")")
		for _, p := range q.Patterns {
			args = append(args, p)
		}
	}
	if q.MinSize > 0 {
		buf.WriteString(" AND s.VectorSize >= ?")
		args = append(args, q.MinSize)
	}
	if q.MaxSize > 0 {
		buf.WriteString(" AND s.VectorSize <= ?")
		args = append(args, q.MaxSize)
	}
	buf.WriteString("\nORDER BY s.AccessPattern, s.VectorSize ASC")
	return buf.String(), args
}

// Query runs q and returns its rows ordered by access pattern, then
// vector size. If the dataset has no counter named q.Metric, the
// error wraps ErrUnknownMetric and lists the metrics it does have.
func (db *DB) Query(ctx context.Context, q Query) ([]Row, error) {
	metrics, err := db.Metrics(ctx, q.Dataset)
	if err != nil {
		return nil, err
	}
	if !contains(metrics, q.Metric) {
		return nil, fmt.Errorf("%w %q (have %s)", ErrUnknownMetric, q.Metric, strings.Join(metrics, ", "))
	}

	query, args := q.sql()
	rows, err := db.sql.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.AccessPattern, &r.Value, &r.VectorSize); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
