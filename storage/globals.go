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
	"fmt"

	"devt.de/krotik/graphmap/graph/util"
	"github.com/krotik/common/pools"
)

/*
BufferPool is a pool of byte buffers.
*/
var BufferPool = pools.NewByteBufferPool()

/*
ManagerError is a store related error.
*/
type ManagerError struct {
	Type      error
	Detail    string
	StoreName string
}

/*
NewStoreError returns a new store specific error.
*/
func NewStoreError(t error, detail string, storeName string) *ManagerError {
	return &ManagerError{t, detail, storeName}
}

/*
Error returns a string representation of the error.
*/
func (e *ManagerError) Error() string {
	return fmt.Sprintf("%s (%s - %s)", e.Type.Error(), e.StoreName, e.Detail)
}

/*
Unwrap returns the type of the error.
*/
func (e *ManagerError) Unwrap() error {
	return e.Type
}

/*
ErrKeyExists returns an error for an Insert of an existing key.
*/
func ErrKeyExists(storeName string, key string) error {
	return NewStoreError(util.ErrConflict, "Key exists: "+key, storeName)
}

/*
ErrKeyNotFound returns an error for a Delete of a missing key.
*/
func ErrKeyNotFound(storeName string, key string) error {
	return NewStoreError(util.ErrNotFound, "Key not found: "+key, storeName)
}

/*
ErrStoreClosed returns an error for an access to a closed store.
*/
func ErrStoreClosed(storeName string) error {
	return NewStoreError(util.ErrServiceUnavailable, "Store is closed", storeName)
}

/*
CheckContext returns an error if a given context has been cancelled.
*/
func CheckContext(ctx context.Context, storeName string) error {
	if err := ctx.Err(); err != nil {
		return NewStoreError(util.ErrServiceUnavailable, err.Error(), storeName)
	}
	return nil
}
