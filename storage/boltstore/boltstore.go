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
Package boltstore contains a store implementation which keeps all keys in a
single bucket of a bolt database file.
*/
package boltstore

import (
	"bytes"
	"context"
	"errors"

	"devt.de/krotik/graphmap/graph/util"
	"devt.de/krotik/graphmap/storage"
	"github.com/boltdb/bolt"
)

/*
DefaultBucket is the bucket which is used if no bucket name is given.
*/
const DefaultBucket = "graphmap"

/*
Bolt specific errors which are translated into store errors
*/
var (
	errExists   = errors.New("exists")
	errNotFound = errors.New("not found")
)

/*
BoltStore data structure
*/
type BoltStore struct {
	name   string   // Name of the store
	bucket []byte   // Bucket which holds all keys
	db     *bolt.DB // Bolt database
}

/*
NewBoltStore opens or creates a bolt database file.
*/
func NewBoltStore(path string, bucket string, noSync bool) (*BoltStore, error) {
	if bucket == "" {
		bucket = DefaultBucket
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{})
	if err != nil {
		return nil, storage.NewStoreError(util.ErrOpening, err.Error(), path)
	}
	db.NoSync = noSync

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucket))
		return err
	})

	if err != nil {
		db.Close()
		return nil, storage.NewStoreError(util.ErrOpening, err.Error(), path)
	}

	return &BoltStore{path, []byte(bucket), db}, nil
}

/*
Name returns the name of the store.
*/
func (bs *BoltStore) Name() string {
	return bs.name
}

/*
Get returns the value of a key or nil if the key does not exist.
*/
func (bs *BoltStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte

	if err := storage.CheckContext(ctx, bs.name); err != nil {
		return nil, err
	}

	err := bs.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bs.bucket).Get([]byte(key)); v != nil {
			value = cloneBytes(v)
		}
		return nil
	})

	return value, bs.wrapError(err, key)
}

/*
Set writes a value.
*/
func (bs *BoltStore) Set(ctx context.Context, key string, value []byte) error {
	if err := storage.CheckContext(ctx, bs.name); err != nil {
		return err
	}

	return bs.wrapError(bs.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bs.bucket).Put([]byte(key), value)
	}), key)
}

/*
Insert writes a value for a new key.
*/
func (bs *BoltStore) Insert(ctx context.Context, key string, value []byte) error {
	if err := storage.CheckContext(ctx, bs.name); err != nil {
		return err
	}

	return bs.wrapError(bs.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bs.bucket)

		if b.Get([]byte(key)) != nil {
			return errExists
		}

		return b.Put([]byte(key), value)
	}), key)
}

/*
Delete removes a key.
*/
func (bs *BoltStore) Delete(ctx context.Context, key string) error {
	if err := storage.CheckContext(ctx, bs.name); err != nil {
		return err
	}

	return bs.wrapError(bs.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bs.bucket)

		if b.Get([]byte(key)) == nil {
			return errNotFound
		}

		return b.Delete([]byte(key))
	}), key)
}

/*
Keys returns all keys with a given prefix in byte order.
*/
func (bs *BoltStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	var ret []string

	if err := storage.CheckContext(ctx, bs.name); err != nil {
		return nil, err
	}

	err := bs.db.View(func(tx *bolt.Tx) error {
		p := []byte(prefix)
		c := tx.Bucket(bs.bucket).Cursor()

		for k, _ := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, _ = c.Next() {
			ret = append(ret, string(k))
		}

		return nil
	})

	return ret, bs.wrapError(err, prefix)
}

/*
Close closes the bolt database.
*/
func (bs *BoltStore) Close() error {
	if err := bs.db.Close(); err != nil {
		return storage.NewStoreError(util.ErrClosing, err.Error(), bs.name)
	}
	return nil
}

/*
wrapError translates a bolt error into a store error.
*/
func (bs *BoltStore) wrapError(err error, key string) error {
	switch {
	case err == nil:
		return nil
	case err == errExists:
		return storage.ErrKeyExists(bs.name, key)
	case err == errNotFound:
		return storage.ErrKeyNotFound(bs.name, key)
	case err == bolt.ErrDatabaseNotOpen:
		return storage.ErrStoreClosed(bs.name)
	}

	return storage.NewStoreError(util.ErrAccessComponent, err.Error(), bs.name)
}

func cloneBytes(v []byte) []byte {
	ret := make([]byte, len(v))
	copy(ret, v)
	return ret
}
