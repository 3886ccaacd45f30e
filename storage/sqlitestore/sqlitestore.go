/*
 * GraphMap
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

/*
Package sqlitestore contains a store implementation which keeps all keys in a
single table of an SQLite database.
*/
package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"devt.de/krotik/graphmap/graph/util"
	"devt.de/krotik/graphmap/storage"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

const driverName = "sqlite"

const schema = `
CREATE TABLE IF NOT EXISTS kv (
  key   TEXT PRIMARY KEY,
  value BLOB NOT NULL
) WITHOUT ROWID;
`

/*
SQLiteStore data structure
*/
type SQLiteStore struct {
	name string  // Name of the store
	db   *sql.DB // Database handle
}

/*
NewSQLiteStore opens or creates an SQLite database file.
*/
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, storage.NewStoreError(util.ErrOpening, "Path must not be empty", "sqlite")
	}

	if dir := filepath.Dir(cleanPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, storage.NewStoreError(util.ErrOpening, err.Error(), cleanPath)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", cleanPath)

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, storage.NewStoreError(util.ErrOpening, err.Error(), cleanPath)
	}
	db.SetMaxOpenConns(1)

	if err = db.Ping(); err == nil {
		_, err = db.Exec(schema)
	}

	if err != nil {
		db.Close()
		return nil, storage.NewStoreError(util.ErrOpening, err.Error(), cleanPath)
	}

	return &SQLiteStore{cleanPath, db}, nil
}

/*
Name returns the name of the store.
*/
func (ss *SQLiteStore) Name() string {
	return ss.name
}

/*
Get returns the value of a key or nil if the key does not exist.
*/
func (ss *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte

	err := ss.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)

	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, ss.wrapError(ctx, err)
	}

	if value == nil {
		value = []byte{}
	}

	return value, nil
}

/*
Set writes a value.
*/
func (ss *SQLiteStore) Set(ctx context.Context, key string, value []byte) error {
	_, err := ss.db.ExecContext(ctx, `INSERT INTO kv (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value=excluded.value`, key, nonNil(value))

	return ss.wrapError(ctx, err)
}

/*
Insert writes a value for a new key.
*/
func (ss *SQLiteStore) Insert(ctx context.Context, key string, value []byte) error {
	res, err := ss.db.ExecContext(ctx,
		"INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO NOTHING", key, nonNil(value))

	if err != nil {
		return ss.wrapError(ctx, err)
	}

	if n, err := res.RowsAffected(); err != nil {
		return ss.wrapError(ctx, err)
	} else if n == 0 {
		return storage.ErrKeyExists(ss.name, key)
	}

	return nil
}

/*
Delete removes a key.
*/
func (ss *SQLiteStore) Delete(ctx context.Context, key string) error {
	res, err := ss.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key)

	if err != nil {
		return ss.wrapError(ctx, err)
	}

	if n, err := res.RowsAffected(); err != nil {
		return ss.wrapError(ctx, err)
	} else if n == 0 {
		return storage.ErrKeyNotFound(ss.name, key)
	}

	return nil
}

/*
Keys returns all keys with a given prefix in byte order.
*/
func (ss *SQLiteStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	var ret []string

	rows, err := ss.db.QueryContext(ctx,
		"SELECT key FROM kv WHERE substr(key, 1, length(?)) = ? ORDER BY key", prefix, prefix)

	if err != nil {
		return nil, ss.wrapError(ctx, err)
	}
	defer rows.Close()

	for rows.Next() {
		var k string

		if err := rows.Scan(&k); err != nil {
			return nil, ss.wrapError(ctx, err)
		}

		ret = append(ret, k)
	}

	return ret, ss.wrapError(ctx, rows.Err())
}

/*
Close closes the database.
*/
func (ss *SQLiteStore) Close() error {
	if err := ss.db.Close(); err != nil {
		return storage.NewStoreError(util.ErrClosing, err.Error(), ss.name)
	}
	return nil
}

/*
wrapError translates a database error into a store error.
*/
func (ss *SQLiteStore) wrapError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	if cerr := storage.CheckContext(ctx, ss.name); cerr != nil {
		return cerr
	}

	if strings.Contains(err.Error(), "database is closed") {
		return storage.ErrStoreClosed(ss.name)
	}

	return storage.NewStoreError(util.ErrAccessComponent, err.Error(), ss.name)
}

func nonNil(v []byte) []byte {
	if v == nil {
		return []byte{}
	}
	return v
}
