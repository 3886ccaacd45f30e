/*
 * GraphMap
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package changelog

import (
	"context"
	"errors"
	"fmt"

	"devt.de/krotik/graphmap/graph"
	"devt.de/krotik/graphmap/graph/data"
	"devt.de/krotik/graphmap/graph/util"
	"devt.de/krotik/graphmap/storage"
	"github.com/krotik/common/errorutil"
	"github.com/krotik/common/logutil"
)

var logger = logutil.GetLogger("graphmap.changelog")

/*
DataManager applies change log entries to a GraphMap and to a key/value store
for opaque data values.
*/
type DataManager struct {
	store storage.Store // Store for data values (may be nil)
}

/*
NewDataManager creates a new DataManager. The store is only needed for
entries of opaque data values.
*/
func NewDataManager(store storage.Store) *DataManager {
	return &DataManager{store}
}

/*
Build applies an entry to a GraphMap.
*/
func (dm *DataManager) Build(ctx context.Context, gm *graph.GraphMap, e *Entry) error {
	return dm.run(ctx, gm, e, false)
}

/*
Compensate reverses an entry which was applied to a GraphMap.
*/
func (dm *DataManager) Compensate(ctx context.Context, gm *graph.GraphMap, e *Entry) error {
	return dm.run(ctx, gm, e, true)
}

/*
BuildSection applies an entry inside an existing critical section.
*/
func (dm *DataManager) BuildSection(ctx context.Context, s *graph.Section, e *Entry) error {
	return dm.runSection(ctx, s, e, false)
}

/*
CompensateSection reverses an entry inside an existing critical section.
*/
func (dm *DataManager) CompensateSection(ctx context.Context, s *graph.Section, e *Entry) error {
	return dm.runSection(ctx, s, e, true)
}

/*
run executes an entry. Store access of data entries happens outside of the
critical section of the GraphMap.
*/
func (dm *DataManager) run(ctx context.Context, gm *graph.GraphMap, e *Entry, undo bool) error {
	op, err := decodeOp(e)
	if err != nil {
		return err
	}

	env := &opEnv{ctx: ctx, store: dm.store}

	if _, ok := op.(*dataOp); ok {

		if err = exec(op, env, undo); err == nil {
			gm.Update(nil, func(s *graph.Section) error {
				s.AdvanceLSN(e.LSN)
				return nil
			})
		}

		return err
	}

	return gm.Update(nil, func(s *graph.Section) error {
		env.s = s
		return dm.finish(s, e, exec(op, env, undo))
	})
}

/*
runSection executes an entry inside an existing critical section.
*/
func (dm *DataManager) runSection(ctx context.Context, s *graph.Section, e *Entry, undo bool) error {
	op, err := decodeOp(e)
	if err != nil {
		return err
	}

	return dm.finish(s, e, exec(op, &opEnv{ctx, s, dm.store}, undo))
}

func (dm *DataManager) finish(s *graph.Section, e *Entry, err error) error {
	if err == nil {
		s.AdvanceLSN(e.LSN)
	}
	return err
}

func exec(op changeOp, env *opEnv, undo bool) error {
	if undo {
		return op.undo(env)
	}
	return op.apply(env)
}

// Change operations
// =================

/*
opEnv is the environment of a change operation.
*/
type opEnv struct {
	ctx   context.Context
	s     *graph.Section
	store storage.Store
}

/*
changeOp is a decoded change log entry. Every kind of change provides a
forward and a backward operation.
*/
type changeOp interface {
	apply(env *opEnv) error
	undo(env *opEnv) error
}

/*
decodeOp decodes the snapshots of an entry into a change operation. A missing
snapshot which is required for an entry is a fatal error as the log is
corrupted.
*/
func decodeOp(e *Entry) (changeOp, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}

	required := func(name string, b []byte) {
		errorutil.AssertTrue(b != nil, fmt.Sprintf("%v: Missing %v snapshot in %v",
			util.ErrCorruptedLog, name, e))
	}

	switch e.Source {

	case SourceNode:
		op := &nodeOp{action: e.Action}

		switch e.Action {
		case ActionAdd:
			required("after", e.After)
		case ActionUpdate:
			required("before", e.Before)
		case ActionDelete:
			required("before", e.Before)
		}

		op.before = unmarshalSnapshot(e, e.Before, data.UnmarshalNode)
		op.after = unmarshalSnapshot(e, e.After, data.UnmarshalNode)

		return op, nil

	case SourceEdge:
		op := &edgeOp{action: e.Action}

		switch e.Action {
		case ActionAdd:
			required("after", e.After)
		case ActionUpdate:
			required("before", e.Before)
		case ActionDelete:
			required("before", e.Before)
		}

		op.before = unmarshalSnapshot(e, e.Before, data.UnmarshalEdge)
		op.after = unmarshalSnapshot(e, e.After, data.UnmarshalEdge)

		return op, nil
	}

	if e.Action != ActionDelete {
		required("after", e.After)
	}

	return &dataOp{action: e.Action, key: e.ObjectID, value: e.After}, nil
}

/*
unmarshalSnapshot decodes a snapshot. A snapshot which cannot be decoded is a
fatal error.
*/
func unmarshalSnapshot[T any](e *Entry, b []byte, f func([]byte) (*T, error)) *T {
	if b == nil {
		return nil
	}

	ret, err := f(b)
	errorutil.AssertTrue(err == nil, fmt.Sprintf("%v: Invalid snapshot in %v - %v",
		util.ErrCorruptedLog, e, err))

	return ret
}

/*
isStatus checks if an error has a given status.
*/
func isStatus(err error, status util.Status) bool {
	return err != nil && util.StatusOf(err) == status
}

/*
nodeOp is a change of a node.
*/
type nodeOp struct {
	action Action
	before *data.GraphNode
	after  *data.GraphNode
}

func (op *nodeOp) apply(env *opEnv) error {
	switch op.action {

	case ActionAdd:
		err := env.s.AddNode(op.after)

		// Accept nodes which are already there in the same version

		if isStatus(err, util.StatusConflict) {
			if n := env.s.Node(op.after.Key); n != nil && n.Equal(op.after.Normalize()) {
				return nil
			}
		}

		return err

	case ActionUpdate:

		// Rollback style entries carry only the version to restore

		n := op.after
		if n == nil {
			n = op.before
		}

		return env.s.ReplaceNode(n)
	}

	if _, err := env.s.RemoveNode(op.before.Key); err != nil && !isStatus(err, util.StatusNotFound) {
		return err
	}

	return nil
}

func (op *nodeOp) undo(env *opEnv) error {
	switch op.action {

	case ActionAdd:
		_, err := env.s.RemoveNode(op.after.Key)
		if isStatus(err, util.StatusNotFound) {
			return nil
		}
		return err

	case ActionUpdate:
		return env.s.ReplaceNode(op.before)
	}

	// Edges of a deleted node are recorded before the node and are restored
	// after it

	err := env.s.AddNode(op.before)

	if isStatus(err, util.StatusConflict) {
		if n := env.s.Node(op.before.Key); n != nil && n.Equal(op.before.Normalize()) {
			return nil
		}
	}

	return err
}

/*
edgeOp is a change of an edge.
*/
type edgeOp struct {
	action Action
	before *data.GraphEdge
	after  *data.GraphEdge
}

func (op *edgeOp) apply(env *opEnv) error {
	switch op.action {

	case ActionAdd:
		err := env.s.AddEdge(op.after)

		if isStatus(err, util.StatusConflict) {
			if e := env.s.Edge(op.after.Key()); e != nil && e.Equal(op.after.Normalize()) {
				return nil
			}
		}

		return err

	case ActionUpdate:
		e := op.after
		if e == nil {
			e = op.before
		}

		return env.s.ReplaceEdge(e)
	}

	if _, err := env.s.RemoveEdge(op.before.Key()); err != nil && !isStatus(err, util.StatusNotFound) {
		return err
	}

	return nil
}

func (op *edgeOp) undo(env *opEnv) error {
	switch op.action {

	case ActionAdd:
		_, err := env.s.RemoveEdge(op.after.Key())
		if isStatus(err, util.StatusNotFound) {
			return nil
		}
		return err

	case ActionUpdate:
		return env.s.ReplaceEdge(op.before)
	}

	err := env.s.AddEdge(op.before)

	if isStatus(err, util.StatusConflict) {
		if e := env.s.Edge(op.before.Key()); e != nil && e.Equal(op.before.Normalize()) {
			return nil
		}
	}

	return err
}

/*
dataOp is a change of an opaque data value.
*/
type dataOp struct {
	action Action
	key    string
	value  []byte
}

func (op *dataOp) apply(env *opEnv) error {
	if env.store == nil {
		return &util.GraphError{Type: util.ErrServiceUnavailable,
			Detail: "No store for data value " + op.key}
	}

	if op.action == ActionDelete {
		err := env.store.Delete(env.ctx, op.key)
		if errors.Is(err, util.ErrNotFound) {
			return nil
		}
		return err
	}

	return env.store.Set(env.ctx, op.key, op.value)
}

func (op *dataOp) undo(env *opEnv) error {
	logger.Warning(fmt.Sprintf("Cannot compensate %v of data value %v", op.action, op.key))
	return nil
}
