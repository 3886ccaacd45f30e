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
Package trans contains the transaction layer of a GraphMap.

A transaction groups changes of nodes, edges and data values. Graph changes
are applied immediately inside a critical section of the GraphMap and are
recorded as change log entries. On commit all entries are written to a
key/value store. If a change or the commit fails all recorded entries are
compensated in reverse order.

The written log can be replayed on startup (Recovery). Checkpoints store a
snapshot of the whole GraphMap and remove the log entries which are covered
by the snapshot. Checkpoints are refused while transactions with applied but
uncommitted graph changes are open.
*/
package trans

import (
	"context"
	"fmt"

	"devt.de/krotik/graphmap/changelog"
	"devt.de/krotik/graphmap/graph"
	"devt.de/krotik/graphmap/graph/util"
)

/*
State is the state of a transaction.
*/
type State int

/*
Transaction states
*/
const (
	StateParsed State = iota
	StateValidated
	StateApplied
	StateCommitted
	StateRolledBack
)

/*
String returns a string representation of a state.
*/
func (s State) String() string {
	switch s {
	case StateParsed:
		return "Parsed"
	case StateValidated:
		return "Validated"
	case StateApplied:
		return "Applied"
	case StateCommitted:
		return "Committed"
	}
	return "RolledBack"
}

/*
Provider is a transaction provider.
*/
type Provider interface {

	/*
		Start starts a new transaction.
	*/
	Start(ctx context.Context) (*Trans, error)

	/*
		Commit writes all changes of a transaction to the log. All changes are
		compensated if the commit fails.
	*/
	Commit(ctx context.Context, t *Trans) error

	/*
		Rollback compensates a single change log entry.
	*/
	Rollback(ctx context.Context, e *changelog.Entry) error

	/*
		RollbackTrans compensates all changes of a transaction.
	*/
	RollbackTrans(ctx context.Context, t *Trans) error

	/*
		Recovery replays all log entries of a scope which are not yet part of
		the GraphMap.
	*/
	Recovery(ctx context.Context, scope string) error
}

/*
Trans is a transaction. A transaction must not be used concurrently.
*/
type Trans struct {
	id      string             // Unique transaction id
	lm      *LogManager        // Log manager which created the transaction
	state   State              // Current state
	entries []*changelog.Entry // Recorded changes
}

/*
ID returns the id of the transaction.
*/
func (t *Trans) ID() string {
	return t.id
}

/*
State returns the state of the transaction.
*/
func (t *Trans) State() State {
	return t.state
}

/*
Entries returns all recorded changes.
*/
func (t *Trans) Entries() []*changelog.Entry {
	return append([]*changelog.Entry(nil), t.entries...)
}

/*
IsEmpty returns if this transaction has no changes.
*/
func (t *Trans) IsEmpty() bool {
	return len(t.entries) == 0
}

/*
Counts returns the number of recorded node, edge and data changes.
*/
func (t *Trans) Counts() (int, int, int) {
	var n, e, d int

	for _, entry := range t.entries {
		switch entry.Source {
		case changelog.SourceNode:
			n++
		case changelog.SourceEdge:
			e++
		default:
			d++
		}
	}

	return n, e, d
}

/*
String returns a string representation of this transaction.
*/
func (t *Trans) String() string {
	n, e, d := t.Counts()

	return fmt.Sprintf("Transaction %v (%v) - Nodes: %v Edges: %v Data: %v",
		t.id, t.state, n, e, d)
}

/*
Validated marks the transaction as validated. Changes can only be applied to
a validated transaction.
*/
func (t *Trans) Validated() error {
	if t.state != StateParsed && t.state != StateValidated {
		return t.stateError("validated")
	}

	t.state = StateValidated

	return nil
}

/*
Record records a graph event. It is called by the GraphMap while the
critical section is held so the assigned log sequence numbers follow the
order of the changes.
*/
func (t *Trans) Record(event int, ed ...interface{}) {
	e, err := changelog.EntryFromEvent(event, ed...)

	// Nodes and edges of a GraphMap can always be serialized

	if err != nil {
		panic(fmt.Sprintf("Cannot record graph event %v: %v", graph.EventName(event), err))
	}

	if e != nil {
		t.add(e)
	}
}

func (t *Trans) add(e *changelog.Entry) {
	e.LSN = t.lm.nextLSN()
	e.TransID = t.id
	t.entries = append(t.entries, e)
}

/*
Update applies changes to the GraphMap. All changes of the given function are
compensated inside the same critical section if the function returns an
error. Deleted nodes and edges are restored from their recorded versions.
*/
func (t *Trans) Update(ctx context.Context, fn func(s *graph.Section) error) error {
	if t.state == StateParsed {
		t.Validated()
	}

	if t.state != StateValidated && t.state != StateApplied {
		return t.stateError("updated")
	}

	start := len(t.entries)

	t.lm.setOpen(t, true)

	err := t.lm.gm.Update(t, func(s *graph.Section) error {
		err := fn(s)

		if err != nil {
			undo := s.WithJournal(nil)

			for i := len(t.entries) - 1; i >= start; i-- {
				if cerr := t.lm.dm.CompensateSection(ctx, undo, t.entries[i]); cerr != nil {
					logger.Error(fmt.Sprintf("Could not compensate %v: %v", t.entries[i], cerr))
				}
			}
		}

		return err
	})

	if err != nil {
		t.entries = t.entries[:start]

		if !t.hasGraphChanges() {
			t.lm.setOpen(t, false)
		}

		return err
	}

	t.state = StateApplied

	return nil
}

/*
hasGraphChanges returns if the transaction holds applied node or edge changes.
*/
func (t *Trans) hasGraphChanges() bool {
	for _, e := range t.entries {
		if e.Source != changelog.SourceData {
			return true
		}
	}
	return false
}

/*
PutData records a new value for an opaque data key. The value is written to
the store when the transaction is committed.
*/
func (t *Trans) PutData(ctx context.Context, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	return t.recordData(ctx, key, value)
}

/*
DeleteData records the deletion of an opaque data key.
*/
func (t *Trans) DeleteData(ctx context.Context, key string) error {
	return t.recordData(ctx, key, nil)
}

func (t *Trans) recordData(ctx context.Context, key string, value []byte) error {
	if t.state == StateParsed {
		t.Validated()
	}

	if t.state != StateValidated && t.state != StateApplied {
		return t.stateError("updated")
	}

	before, err := t.lm.GetData(ctx, key)
	if err != nil {
		return err
	}

	e := changelog.NewDataEntry(key, before, value)

	// The sequence number is assigned while the map is locked

	t.lm.gm.Update(nil, func(s *graph.Section) error {
		t.add(e)
		return nil
	})

	t.state = StateApplied

	return nil
}

func (t *Trans) stateError(op string) error {
	return util.NewGraphError(util.ErrBadRequest, "Transaction %v in state %v cannot be %v",
		t.id, t.state, op)
}
