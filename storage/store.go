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
Package storage contains the key/value store interface which is used for
durable data: change log entries, checkpoints and opaque data payloads.

The graph itself is held in memory. A store is only consulted by the
transaction layer and by the data branch of the change applier.

Implementations:

	MemoryStore - keeps everything in memory; provides error simulation
	facilities for tests.

	boltstore - a store based on a bolt database file.

	sqlitestore - a store based on a single SQLite table.
*/
package storage

import (
	"context"
)

/*
Store is a byte oriented key/value store. Keys are returned in byte order.
*/
type Store interface {

	/*
		Name returns the name of the store.
	*/
	Name() string

	/*
		Get returns the value of a key or nil if the key does not exist.
	*/
	Get(ctx context.Context, key string) ([]byte, error)

	/*
		Set writes a value. An existing value is overwritten.
	*/
	Set(ctx context.Context, key string, value []byte) error

	/*
		Insert writes a value for a new key. Fails with a conflict error if the
		key exists already.
	*/
	Insert(ctx context.Context, key string, value []byte) error

	/*
		Delete removes a key. Fails with a not found error if the key does not
		exist.
	*/
	Delete(ctx context.Context, key string) error

	/*
		Keys returns all keys with a given prefix in byte order.
	*/
	Keys(ctx context.Context, prefix string) ([]string, error)

	/*
		Close closes the store.
	*/
	Close() error
}
