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
	"fmt"
	"testing"
)

func TestExecute(t *testing.T) {
	gm, e := newTestGraph()

	ef := &ExecuteFunc{e}

	if _, err := ef.DocString(); err != nil {
		t.Error(err)
		return
	}

	if _, err := ef.Run("", nil, nil, 0, []interface{}{"a", "b"}); err == nil ||
		err.Error() != "Function requires 1 parameter: command text" {
		t.Error(err)
		return
	}

	res, err := ef.Run("", nil, nil, 0, []interface{}{
		"add node key=c set name=Carol; select (name) return key, name"})

	if err != nil {
		t.Error(err)
		return
	}

	m := res.(map[interface{}]interface{})

	if fmt.Sprint(m["rows"]) != "[[a Alice] [b Bob] [c Carol]]" ||
		fmt.Sprint(m["columns"]) != "[key name]" ||
		m["stats"].(map[interface{}]interface{})["nodes_created"] != float64(1) ||
		m["lsn"] != float64(gm.LastLSN()) {
		t.Error("Unexpected result:", m)
		return
	}

	if _, err := ef.Run("", nil, nil, 0, []interface{}{"add node key=a"}); err == nil ||
		err.Error() != "GraphError: Conflict (Node a exists already)" {
		t.Error(err)
		return
	}
}
