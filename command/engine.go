/*
 * GraphMap
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package command

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"devt.de/krotik/graphmap/changelog"
	"devt.de/krotik/graphmap/graph"
	"devt.de/krotik/graphmap/graph/util"
	"devt.de/krotik/graphmap/trans"
	"github.com/krotik/common/logutil"
)

var logger = logutil.GetLogger("graphmap.command")

/*
Stats counts the changes of an executed command text.
*/
type Stats struct {
	NodesCreated int `json:"nodes_created"`
	NodesUpdated int `json:"nodes_updated"`
	NodesDeleted int `json:"nodes_deleted"`
	EdgesCreated int `json:"edges_created"`
	EdgesUpdated int `json:"edges_updated"`
	EdgesDeleted int `json:"edges_deleted"`
}

/*
count adds a change log entry to the statistics.
*/
func (st *Stats) count(e *changelog.Entry) {
	var counter *int

	switch {
	case e.Source == changelog.SourceNode && e.Action == changelog.ActionAdd:
		counter = &st.NodesCreated
	case e.Source == changelog.SourceNode && e.Action == changelog.ActionUpdate:
		counter = &st.NodesUpdated
	case e.Source == changelog.SourceNode && e.Action == changelog.ActionDelete:
		counter = &st.NodesDeleted
	case e.Source == changelog.SourceEdge && e.Action == changelog.ActionAdd:
		counter = &st.EdgesCreated
	case e.Source == changelog.SourceEdge && e.Action == changelog.ActionUpdate:
		counter = &st.EdgesUpdated
	case e.Source == changelog.SourceEdge && e.Action == changelog.ActionDelete:
		counter = &st.EdgesDeleted
	default:
		return
	}

	*counter++
}

/*
Result is the result of an executed command text. Rows and columns hold the
result of the last select statement.
*/
type Result struct {
	Status  util.Status `json:"-"`
	Message string      `json:"message,omitempty"`
	TransID string      `json:"trans,omitempty"`
	LSN     uint64      `json:"lsn"`
	Columns []string    `json:"columns,omitempty"`
	Rows    [][]string  `json:"rows,omitempty"`
	Stats   Stats       `json:"stats"`
}

/*
String returns a string representation of this result.
*/
func (r *Result) String() string {
	var buf bytes.Buffer

	if r.Status != util.StatusOK {
		return fmt.Sprintf("%v: %v", r.Status, r.Message)
	}

	if r.Columns != nil {
		buf.WriteString(strings.Join(r.Columns, " | "))
		buf.WriteString("\n")

		for _, row := range r.Rows {
			buf.WriteString(strings.Join(row, " | "))
			buf.WriteString("\n")
		}
	}

	st := r.Stats
	buf.WriteString(fmt.Sprintf("Nodes: +%v ~%v -%v Edges: +%v ~%v -%v",
		st.NodesCreated, st.NodesUpdated, st.NodesDeleted,
		st.EdgesCreated, st.EdgesUpdated, st.EdgesDeleted))

	return buf.String()
}

/*
Engine executes command texts.
*/
type Engine struct {
	gm       *graph.GraphMap
	provider trans.Provider
}

/*
NewEngine creates a new command engine which runs every command text in a
transaction of a given provider.
*/
func NewEngine(gm *graph.GraphMap, provider trans.Provider) *Engine {
	return &Engine{gm, provider}
}

/*
Execute parses and runs a command text. All statements of the text are run
in a single transaction; if one statement fails no change is kept. Nodes
and edges which were deleted by earlier statements are restored.
*/
func (e *Engine) Execute(ctx context.Context, text string) *Result {
	res := &Result{Status: util.StatusOK}

	ins, err := Parse(text)

	if err == nil {
		err = e.run(ctx, ins, res)
	}

	if err != nil {
		logger.Debug(fmt.Sprintf("Command failed: %v", err))

		res.Status = util.StatusOf(err)
		res.Message = err.Error()
		res.Columns = nil
		res.Rows = nil
		res.Stats = Stats{}
	}

	return res
}

func (e *Engine) run(ctx context.Context, ins []Instruction, res *Result) error {
	t, err := e.provider.Start(ctx)
	if err != nil {
		return err
	}

	if err = t.Validated(); err != nil {
		return err
	}

	err = t.Update(ctx, func(s *graph.Section) error {
		for _, i := range ins {
			if err := i.Execute(s, res); err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {

		// All changes are already undone; this only closes the transaction

		e.provider.RollbackTrans(ctx, t)

		return err
	}

	if err = e.provider.Commit(ctx, t); err != nil {
		return err
	}

	res.TransID = t.ID()
	res.LSN = e.gm.LastLSN()

	for _, entry := range t.Entries() {
		res.Stats.count(entry)
	}

	return nil
}
