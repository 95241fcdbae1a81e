// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dbtest opens throwaway databases for tests.
package dbtest

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"flag"
	"fmt"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/perf-lib/cacheplot/storage/db"
	_ "github.com/perf-lib/cacheplot/storage/db/sqlite3"
)

var mysqlDSN = flag.String("mysql", "", "run database tests against the MySQL server at `dsn` (user:pass@tcp(host)/) instead of in-memory SQLite")

// createEmptyMySQLDB makes a new, empty database for the test.
func createEmptyMySQLDB(t *testing.T) (dsn string, cleanup func()) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		t.Fatal(err)
	}
	name := "cacheplot_test_" + hex.EncodeToString(buf)

	db, err := sql.Open("mysql", *mysqlDSN)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(fmt.Sprintf("CREATE DATABASE `%s`", name)); err != nil {
		db.Close()
		t.Fatal(err)
	}
	t.Logf("Using database %q", name)

	return *mysqlDSN + name, func() {
		if _, err := db.Exec(fmt.Sprintf("DROP DATABASE `%s`", name)); err != nil {
			t.Error(err)
		}
		db.Close()
	}
}

// NewDB makes a connection to a testing database, either in-memory
// SQLite or MySQL depending on the -mysql flag. cleanup must be
// called when done with the testing database, instead of calling
// db.Close().
func NewDB(t *testing.T) (*db.DB, func()) {
	t.Helper()
	driverName, dataSourceName := "sqlite3", ":memory:"
	var mysqlCleanup func()
	if *mysqlDSN != "" {
		driverName = "mysql"
		dataSourceName, mysqlCleanup = createEmptyMySQLDB(t)
	}
	d, err := db.OpenSQL(driverName, dataSourceName)
	if err != nil {
		if mysqlCleanup != nil {
			mysqlCleanup()
		}
		t.Fatalf("open database: %v", err)
	}

	cleanup := func() {
		d.Close()
		if mysqlCleanup != nil {
			mysqlCleanup()
		}
	}
	// Make sure the database really is empty.
	n, err := d.CountDatasets()
	if err != nil {
		cleanup()
		t.Fatal(err)
	}
	if n != 0 {
		cleanup()
		t.Fatalf("found %d row(s) in Datasets, want 0", n)
	}
	return d, cleanup
}
