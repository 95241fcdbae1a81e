// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package db provides the query engine for cache measurements: samples
// are loaded from CSV into a SQL database and selected back out in
// plotting order.
package db

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/perf-lib/cacheplot/sample"
	"golang.org/x/net/context"
)

// ErrUnknownMetric is returned by Query when no counter of the
// requested name exists in the dataset.
var ErrUnknownMetric = errors.New("unknown metric")

// DB is a high-level interface to a database of samples. It's safe
// for concurrent use by multiple goroutines.
type DB struct {
	sql *sql.DB // underlying database connection
	// prepared statements
	insertDataset *sql.Stmt
	insertSample  *sql.Stmt
	insertCounter *sql.Stmt
}

// OpenSQL creates a DB backed by a SQL database. The parameters are
// the same as the parameters for sql.Open. Only mysql and sqlite3 are
// explicitly supported; other database engines will receive MySQL
// query syntax which may or may not be compatible.
func OpenSQL(driverName, dataSourceName string) (*DB, error) {
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, err
	}
	if hook := openHooks[driverName]; hook != nil {
		if err := hook(db); err != nil {
			db.Close()
			return nil, err
		}
	}
	d := &DB{sql: db}
	if err := d.createTables(driverName); err != nil {
		db.Close()
		return nil, err
	}
	if err := d.prepareStatements(driverName); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

var openHooks = make(map[string]func(*sql.DB) error)

// RegisterOpenHook registers a hook to be called after opening a connection to driverName.
// This is used by the sqlite3 package to configure the connection pool.
// It must be called from an init function.
func RegisterOpenHook(driverName string, hook func(*sql.DB) error) {
	openHooks[driverName] = hook
}

// createTmpl is the template used to prepare the CREATE statements
// for the database. It is evaluated with . as a map containing one
// entry whose key is the driver name.
var createTmpl = template.Must(template.New("create").Parse(`
CREATE TABLE IF NOT EXISTS Datasets (
	DatasetID {{if .sqlite3}}INTEGER PRIMARY KEY AUTOINCREMENT{{else}}SERIAL PRIMARY KEY AUTO_INCREMENT{{end}},
	Source VARCHAR(1024)
);
CREATE TABLE IF NOT EXISTS Samples (
	DatasetID BIGINT UNSIGNED,
	SampleID BIGINT UNSIGNED,
	AccessPattern VARCHAR(255),
	VectorSize BIGINT,
	PRIMARY KEY (DatasetID, SampleID),
{{if not .sqlite3}}
	Index (AccessPattern, VectorSize),
{{end}}
	FOREIGN KEY (DatasetID) REFERENCES Datasets(DatasetID) ON UPDATE CASCADE ON DELETE CASCADE
);
CREATE TABLE IF NOT EXISTS Counters (
	DatasetID BIGINT UNSIGNED,
	SampleID BIGINT UNSIGNED,
	Name VARCHAR(255),
	Value DOUBLE,
	PRIMARY KEY (DatasetID, SampleID, Name),
{{if not .sqlite3}}
	Index (Name),
{{end}}
	FOREIGN KEY (DatasetID, SampleID) REFERENCES Samples(DatasetID, SampleID) ON UPDATE CASCADE ON DELETE CASCADE
);
{{if .sqlite3}}
CREATE INDEX IF NOT EXISTS SamplesPatternSize ON Samples(AccessPattern, VectorSize);
CREATE INDEX IF NOT EXISTS CountersName ON Counters(Name);
{{end}}
`))

// createTables creates any missing tables on the connection in
// db.sql. driverName is the same driver name passed to sql.Open and
// is used to select the correct syntax.
func (db *DB) createTables(driverName string) error {
	var buf bytes.Buffer
	if err := createTmpl.Execute(&buf, map[string]bool{driverName: true}); err != nil {
		return err
	}
	for _, q := range strings.Split(buf.String(), ";") {
		if strings.TrimSpace(q) == "" {
			continue
		}
		if _, err := db.sql.Exec(q); err != nil {
			return fmt.Errorf("create table: %v", err)
		}
	}
	return nil
}

// prepareStatements calls db.sql.Prepare on reusable SQL statements.
func (db *DB) prepareStatements(driverName string) error {
	var err error
	db.insertDataset, err = db.sql.Prepare("INSERT INTO Datasets(Source) VALUES (?)")
	if err != nil {
		return err
	}
	db.insertSample, err = db.sql.Prepare("INSERT INTO Samples(DatasetID, SampleID, AccessPattern, VectorSize) VALUES (?, ?, ?, ?)")
	if err != nil {
		return err
	}
	db.insertCounter, err = db.sql.Prepare("INSERT INTO Counters(DatasetID, SampleID, Name, Value) VALUES (?, ?, ?, ?)")
	if err != nil {
		return err
	}
	return nil
}

// A Dataset is the set of samples loaded from one source file.
// Inserts into a Dataset happen in a single transaction, made visible
// by Commit.
type Dataset struct {
	// ID is the primary key of the dataset.
	ID int64
	// Source names the file the samples came from.
	Source string

	// sampleid is the index of the next sample to insert.
	sampleid int64
	db       *DB
	tx       *sql.Tx
	sample   *sql.Stmt
	counter  *sql.Stmt
}

// NewDataset returns a dataset for storing samples read from source.
func (db *DB) NewDataset(ctx context.Context, source string) (*Dataset, error) {
	tx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	res, err := tx.StmtContext(ctx, db.insertDataset).ExecContext(ctx, source)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	return &Dataset{
		ID:      id,
		Source:  source,
		db:      db,
		tx:      tx,
		sample:  tx.StmtContext(ctx, db.insertSample),
		counter: tx.StmtContext(ctx, db.insertCounter),
	}, nil
}

// Insert adds s to the dataset.
func (d *Dataset) Insert(s *sample.Sample) error {
	if _, err := d.sample.Exec(d.ID, d.sampleid, s.AccessPattern, s.VectorSize); err != nil {
		return err
	}
	for name, v := range s.Counters {
		if _, err := d.counter.Exec(d.ID, d.sampleid, name, v); err != nil {
			return err
		}
	}
	d.sampleid++
	return nil
}

// Len returns the number of samples inserted so far.
func (d *Dataset) Len() int {
	return int(d.sampleid)
}

// Commit makes the dataset visible to queries.
func (d *Dataset) Commit() error {
	return d.tx.Commit()
}

// Abort discards the dataset.
func (d *Dataset) Abort() error {
	return d.tx.Rollback()
}

// Load reads every sample from r into a new committed dataset.
func (db *DB) Load(ctx context.Context, source string, r *sample.Reader) (*Dataset, error) {
	d, err := db.NewDataset(ctx, source)
	if err != nil {
		return nil, err
	}
	for r.Scan() {
		if err := d.Insert(r.Sample()); err != nil {
			d.Abort()
			return nil, fmt.Errorf("insert sample: %w", err)
		}
	}
	if err := r.Err(); err != nil {
		d.Abort()
		return nil, err
	}
	if err := d.Commit(); err != nil {
		return nil, err
	}
	return d, nil
}

// Metrics returns the distinct counter names in a dataset, sorted.
func (db *DB) Metrics(ctx context.Context, dataset int64) ([]string, error) {
	rows, err := db.sql.QueryContext(ctx, "SELECT DISTINCT Name FROM Counters WHERE DatasetID = ? ORDER BY Name", dataset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// CountDatasets returns the number of datasets in the database.
func (db *DB) CountDatasets() (int, error) {
	var count int
	err := db.sql.QueryRow("SELECT COUNT(*) FROM Datasets").Scan(&count)
	return count, err
}

// DeleteDataset removes a dataset and all of its samples.
func (db *DB) DeleteDataset(ctx context.Context, dataset int64) error {
	tx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	// Delete children explicitly; SQLite ignores ON DELETE CASCADE
	// unless foreign keys are enabled on the connection.
	for _, q := range []string{
		"DELETE FROM Counters WHERE DatasetID = ?",
		"DELETE FROM Samples WHERE DatasetID = ?",
		"DELETE FROM Datasets WHERE DatasetID = ?",
	} {
		if _, err := tx.ExecContext(ctx, q, dataset); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// Close closes the database connections, releasing any open resources.
func (db *DB) Close() error {
	for _, stmt := range []*sql.Stmt{db.insertDataset, db.insertSample, db.insertCounter} {
		if err := stmt.Close(); err != nil {
			return err
		}
	}
	return db.sql.Close()
}
