// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package db

import "database/sql"

func QuerySQL(q Query) (string, []interface{}) {
	return q.sql()
}

func DBSQL(db *DB) *sql.DB {
	return db.sql
}
