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
Package changelog contains the change log of a GraphMap.

Entry

A change log entry describes a single change of a node, an edge or an opaque
data value. It carries the serialized version of the object before and after
the change and a log sequence number (LSN) which orders all entries.

Codec

Entries are stored as JSON. The codec can compress entries and protects every
stored entry with a checksum.

DataManager

The DataManager applies entries to a GraphMap (Build) or reverses them
(Compensate). Build is used for recovery replay; Compensate is used for
transaction rollback.
*/
package changelog

import (
	"fmt"
	"sort"
	"strings"

	"devt.de/krotik/graphmap/graph"
	"devt.de/krotik/graphmap/graph/data"
	"devt.de/krotik/graphmap/graph/util"
)

/*
Source is the kind of object which was changed.
*/
type Source int

/*
Known sources
*/
const (
	SourceNode Source = iota + 1
	SourceEdge
	SourceData
)

var sourceNames = map[Source]string{
	SourceNode: "node",
	SourceEdge: "edge",
	SourceData: "data",
}

/*
String returns a string representation of a source.
*/
func (s Source) String() string {
	if n, ok := sourceNames[s]; ok {
		return n
	}
	return fmt.Sprintf("unknown(%d)", int(s))
}

/*
MarshalText returns the name of a source.
*/
func (s Source) MarshalText() ([]byte, error) {
	if _, ok := sourceNames[s]; !ok {
		return nil, &util.GraphError{Type: util.ErrInvalidData, Detail: "Unknown source " + s.String()}
	}
	return []byte(s.String()), nil
}

/*
UnmarshalText parses the name of a source.
*/
func (s *Source) UnmarshalText(b []byte) error {
	for k, v := range sourceNames {
		if v == strings.ToLower(string(b)) {
			*s = k
			return nil
		}
	}
	return &util.GraphError{Type: util.ErrInvalidData, Detail: "Unknown source " + string(b)}
}

/*
Action is the kind of change.
*/
type Action int

/*
Known actions
*/
const (
	ActionAdd Action = iota + 1
	ActionUpdate
	ActionDelete
)

var actionNames = map[Action]string{
	ActionAdd:    "add",
	ActionUpdate: "update",
	ActionDelete: "delete",
}

/*
String returns a string representation of an action.
*/
func (a Action) String() string {
	if n, ok := actionNames[a]; ok {
		return n
	}
	return fmt.Sprintf("unknown(%d)", int(a))
}

/*
MarshalText returns the name of an action.
*/
func (a Action) MarshalText() ([]byte, error) {
	if _, ok := actionNames[a]; !ok {
		return nil, &util.GraphError{Type: util.ErrInvalidData, Detail: "Unknown action " + a.String()}
	}
	return []byte(a.String()), nil
}

/*
UnmarshalText parses the name of an action.
*/
func (a *Action) UnmarshalText(b []byte) error {
	for k, v := range actionNames {
		if v == strings.ToLower(string(b)) {
			*a = k
			return nil
		}
	}
	return &util.GraphError{Type: util.ErrInvalidData, Detail: "Unknown action " + string(b)}
}

/*
Entry is a single change log entry.
*/
type Entry struct {
	Source   Source `json:"source"`          // Kind of changed object
	Action   Action `json:"action"`          // Kind of change
	ObjectID string `json:"id"`              // Key of the changed object
	Before   []byte `json:"before"`          // Serialized object before the change
	After    []byte `json:"after"`           // Serialized object after the change
	LSN      uint64 `json:"lsn"`             // Log sequence number
	TransID  string `json:"trans,omitempty"` // Transaction which produced the entry
}

/*
Validate checks that an entry has a known source and action and that it
carries an object id.
*/
func (e *Entry) Validate() error {
	if _, ok := sourceNames[e.Source]; !ok {
		return &util.GraphError{Type: util.ErrInvalidData, Detail: "Unknown source " + e.Source.String()}
	}
	if _, ok := actionNames[e.Action]; !ok {
		return &util.GraphError{Type: util.ErrInvalidData, Detail: "Unknown action " + e.Action.String()}
	}
	if e.ObjectID == "" {
		return &util.GraphError{Type: util.ErrInvalidData, Detail: "Entry has no object id"}
	}
	return nil
}

/*
String returns a string representation of an entry.
*/
func (e *Entry) String() string {
	return fmt.Sprintf("Entry %v: %v %v %v (before: %v bytes, after: %v bytes)",
		e.LSN, e.Action, e.Source, e.ObjectID, len(e.Before), len(e.After))
}

/*
SortEntries sorts a list of entries by ascending LSN.
*/
func SortEntries(entries []*Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].LSN < entries[j].LSN
	})
}

/*
NewDataEntry creates an entry for a change of an opaque data value. A nil
value means the value is deleted.
*/
func NewDataEntry(key string, before []byte, value []byte) *Entry {
	e := &Entry{Source: SourceData, Action: ActionUpdate, ObjectID: key,
		Before: before, After: value}

	if value == nil {
		e.Action = ActionDelete
	} else if before == nil {
		e.Action = ActionAdd
	}

	return e
}

/*
EntryFromEvent creates an entry from a graph event. Returns nil if the event
does not describe a change.
*/
func EntryFromEvent(event int, ed ...interface{}) (*Entry, error) {
	var err error
	var e *Entry

	switch event {

	case graph.EventNodeCreated, graph.EventNodeUpdated, graph.EventNodeDeleted:
		node := ed[0].(*data.GraphNode)
		e = &Entry{Source: SourceNode, ObjectID: node.Key}

		switch event {
		case graph.EventNodeCreated:
			e.Action = ActionAdd
			e.After, err = data.MarshalNode(node)
		case graph.EventNodeUpdated:
			e.Action = ActionUpdate
			if e.After, err = data.MarshalNode(node); err == nil {
				e.Before, err = data.MarshalNode(ed[1].(*data.GraphNode))
			}
		default:
			e.Action = ActionDelete
			e.Before, err = data.MarshalNode(node)
		}

	case graph.EventEdgeCreated, graph.EventEdgeUpdated, graph.EventEdgeDeleted:
		edge := ed[0].(*data.GraphEdge)
		e = &Entry{Source: SourceEdge, ObjectID: edge.Key().String()}

		switch event {
		case graph.EventEdgeCreated:
			e.Action = ActionAdd
			e.After, err = data.MarshalEdge(edge)
		case graph.EventEdgeUpdated:
			e.Action = ActionUpdate
			if e.After, err = data.MarshalEdge(edge); err == nil {
				e.Before, err = data.MarshalEdge(ed[1].(*data.GraphEdge))
			}
		default:
			e.Action = ActionDelete
			e.Before, err = data.MarshalEdge(edge)
		}
	}

	if err != nil {
		return nil, err
	}

	return e, nil
}
