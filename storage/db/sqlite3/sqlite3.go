// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sqlite3 registers the SQLite driver with package db.
// Import it for its side effects.
package sqlite3

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	"github.com/perf-lib/cacheplot/storage/db"
)

func init() {
	db.RegisterOpenHook("sqlite3", func(db *sql.DB) error {
		// Each connection to ":memory:" is a separate database, so
		// the pool must hold exactly one.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
		_, err := db.Exec("PRAGMA foreign_keys = ON")
		return err
	})
}
