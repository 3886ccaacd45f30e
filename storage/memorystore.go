/*
 * GraphMap
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package storage

import (
	"context"
	"sort"
	"strings"
	"sync"

	"devt.de/krotik/graphmap/graph/util"
)

/*
AccessGetError - the key will not be accessible via Get
*/
const AccessGetError = 1

/*
AccessSetError - the key will not be accessible via Set
*/
const AccessSetError = 2

/*
AccessInsertError - the key will not be accessible via Insert
*/
const AccessInsertError = 3

/*
AccessDeleteError - the key will not be accessible via Delete
*/
const AccessDeleteError = 4

/*
AccessWriteError - the key will not be accessible via Set, Insert or Delete
*/
const AccessWriteError = 5

/*
MemoryStore data structure
*/
type MemoryStore struct {
	name   string            // Name of the store
	data   map[string][]byte // Map of data
	mutex  *sync.Mutex       // Mutex to protect map operations
	closed bool              // Flag if the store was closed

	AccessMap    map[string]int // Special map to simulate access issues for keys
	AccessPrefix map[string]int // Special map to simulate access issues for key prefixes
}

/*
NewMemoryStore creates a new MemoryStore instance.
*/
func NewMemoryStore(name string) *MemoryStore {
	return &MemoryStore{name, make(map[string][]byte), &sync.Mutex{}, false,
		make(map[string]int), make(map[string]int)}
}

/*
Name returns the name of the store.
*/
func (ms *MemoryStore) Name() string {
	return ms.name
}

/*
access returns the simulated access mode of a key.
*/
func (ms *MemoryStore) access(key string) int {
	if a, ok := ms.AccessMap[key]; ok {
		return a
	}
	for p, a := range ms.AccessPrefix {
		if strings.HasPrefix(key, p) {
			return a
		}
	}
	return 0
}

/*
check checks the context, the store state and the simulated access mode.
*/
func (ms *MemoryStore) check(ctx context.Context, key string, modes ...int) error {
	if err := CheckContext(ctx, ms.name); err != nil {
		return err
	}

	if ms.closed {
		return ErrStoreClosed(ms.name)
	}

	a := ms.access(key)

	for _, m := range modes {
		if a == m {
			return NewStoreError(util.ErrAccessComponent, "Simulated error for key "+key, ms.name)
		}
	}

	return nil
}

/*
Get returns the value of a key or nil if the key does not exist.
*/
func (ms *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	ms.mutex.Lock()
	defer ms.mutex.Unlock()

	if err := ms.check(ctx, key, AccessGetError); err != nil {
		return nil, err
	}

	if v, ok := ms.data[key]; ok {
		return append([]byte(nil), v...), nil
	}

	return nil, nil
}

/*
Set writes a value.
*/
func (ms *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	ms.mutex.Lock()
	defer ms.mutex.Unlock()

	if err := ms.check(ctx, key, AccessSetError, AccessWriteError); err != nil {
		return err
	}

	ms.data[key] = append([]byte(nil), value...)

	return nil
}

/*
Insert writes a value for a new key.
*/
func (ms *MemoryStore) Insert(ctx context.Context, key string, value []byte) error {
	ms.mutex.Lock()
	defer ms.mutex.Unlock()

	if err := ms.check(ctx, key, AccessInsertError, AccessWriteError); err != nil {
		return err
	}

	if _, ok := ms.data[key]; ok {
		return ErrKeyExists(ms.name, key)
	}

	ms.data[key] = append([]byte(nil), value...)

	return nil
}

/*
Delete removes a key.
*/
func (ms *MemoryStore) Delete(ctx context.Context, key string) error {
	ms.mutex.Lock()
	defer ms.mutex.Unlock()

	if err := ms.check(ctx, key, AccessDeleteError, AccessWriteError); err != nil {
		return err
	}

	if _, ok := ms.data[key]; !ok {
		return ErrKeyNotFound(ms.name, key)
	}

	delete(ms.data, key)

	return nil
}

/*
Keys returns all keys with a given prefix in byte order.
*/
func (ms *MemoryStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	ms.mutex.Lock()
	defer ms.mutex.Unlock()

	if err := ms.check(ctx, prefix); err != nil {
		return nil, err
	}

	var ret []string

	for k := range ms.data {
		if strings.HasPrefix(k, prefix) {
			ret = append(ret, k)
		}
	}

	sort.Strings(ret)

	return ret, nil
}

/*
Size returns the number of stored keys.
*/
func (ms *MemoryStore) Size() int {
	ms.mutex.Lock()
	defer ms.mutex.Unlock()

	return len(ms.data)
}

/*
Close closes the store.
*/
func (ms *MemoryStore) Close() error {
	ms.mutex.Lock()
	defer ms.mutex.Unlock()

	ms.closed = true

	return nil
}
