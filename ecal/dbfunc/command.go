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
	"context"
	"fmt"

	"devt.de/krotik/graphmap/command"
	"devt.de/krotik/graphmap/graph/util"
	"github.com/krotik/ecal/parser"
)

/*
ExecuteFunc runs a command text.
*/
type ExecuteFunc struct {
	Engine *command.Engine
}

/*
Run executes the ECAL function.
*/
func (f *ExecuteFunc) Run(instanceID string, vs parser.Scope, is map[string]interface{}, tid uint64, args []interface{}) (interface{}, error) {
	if arglen := len(args); arglen != 1 {
		return nil, fmt.Errorf("Function requires 1 parameter: command text")
	}

	res := f.Engine.Execute(context.Background(), fmt.Sprint(args[0]))

	if res.Status != util.StatusOK {
		return nil, fmt.Errorf("%v", res.Message)
	}

	// ECAL lists and maps are untyped

	rows := make([]interface{}, 0, len(res.Rows))
	for _, r := range res.Rows {
		row := make([]interface{}, 0, len(r))
		for _, v := range r {
			row = append(row, v)
		}
		rows = append(rows, row)
	}

	cols := make([]interface{}, 0, len(res.Columns))
	for _, c := range res.Columns {
		cols = append(cols, c)
	}

	return map[interface{}]interface{}{
		"trans":   res.TransID,
		"lsn":     float64(res.LSN),
		"columns": cols,
		"rows":    rows,
		"stats": map[interface{}]interface{}{
			"nodes_created": float64(res.Stats.NodesCreated),
			"nodes_updated": float64(res.Stats.NodesUpdated),
			"nodes_deleted": float64(res.Stats.NodesDeleted),
			"edges_created": float64(res.Stats.EdgesCreated),
			"edges_updated": float64(res.Stats.EdgesUpdated),
			"edges_deleted": float64(res.Stats.EdgesDeleted),
		},
	}, nil
}

/*
DocString returns a descriptive string.
*/
func (f *ExecuteFunc) DocString() (string, error) {
	return "Runs a GraphMap command text in a single transaction.", nil
}
