/*
 * GraphMap
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package dbfunc

import (
	"testing"

	"devt.de/krotik/graphmap/graph"
	"devt.de/krotik/graphmap/storage"
	"devt.de/krotik/graphmap/trans"
)

func TestData(t *testing.T) {
	gm := graph.NewGraphMap()
	lm := trans.NewLogManager(gm, storage.NewMemoryStore("test"), "", false)

	sd := &StoreDataFunc{lm}
	fd := &FetchDataFunc{lm}

	if _, err := sd.DocString(); err != nil {
		t.Error(err)
		return
	}

	if _, err := fd.DocString(); err != nil {
		t.Error(err)
		return
	}

	if _, err := sd.Run("", nil, nil, 0, []interface{}{"a"}); err == nil {
		t.Error("Unexpected result:", err)
		return
	}

	if _, err := sd.Run("", nil, nil, 0, []interface{}{"a", "hello"}); err != nil {
		t.Error(err)
		return
	}

	if res, err := fd.Run("", nil, nil, 0, []interface{}{"a"}); err != nil || res != "hello" {
		t.Error("Unexpected result:", res, err)
		return
	}

	if _, err := sd.Run("", nil, nil, 0, []interface{}{"a", nil}); err != nil {
		t.Error(err)
		return
	}

	if res, err := fd.Run("", nil, nil, 0, []interface{}{"a"}); err != nil || res != nil {
		t.Error("Unexpected result:", res, err)
		return
	}

	if stats := lm.Stats(); stats.Committed != 2 {
		t.Error("Unexpected result:", stats)
		return
	}

	// Without a store there are no data values

	sd = &StoreDataFunc{trans.NewLogManager(gm, nil, "", false)}

	if _, err := sd.Run("", nil, nil, 0, []interface{}{"a", "hello"}); err == nil ||
		err.Error() != "GraphError: Service unavailable (Data values require a store)" {
		t.Error(err)
		return
	}
}
