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
Package graph contains the in-memory graph store.

GraphMap

The main API is provided by a GraphMap object which can be created with the
NewGraphMap() constructor function. A GraphMap holds all nodes and edges and
three secondary structures:

	Tag index - maps a tag (tag or tag=value) to the keys of all nodes which
	carry it.

	Unique index - maps a (index name, value) pair to exactly one node key.
	Nodes declare which of their tags are unique by listing the tag name in
	their index declarations.

	Referential integrity index - maps a node key to all incident edges so
	edges can be found (and removed) when a node is deleted.

Critical sections

All data of a GraphMap is guarded by one mutex. Every operation holds the
mutex for its full duration. Several operations can be grouped into one
critical section with the Update() function. All changes of a critical
section are reported to a Journal (e.g. a transaction log) in the order in
which they were applied.

Mutations verify all constraints before any structure is modified. A failed
operation never leaves partial state behind.

Rules

Graph rules provide automatic operations which help to keep the graph
consistent. Rules trigger on graph events and run inside the critical
section of the operation which raised the event. The system rule
SystemRuleDeleteNodeEdges is automatically loaded when a new GraphMap is
created; it removes all edges of a node before the node is deleted (unless
the edge policy is PolicyRestrict).

Log sequence number

A GraphMap records the LSN of the last change log entry which was applied to
it. The number can only increase.
*/
package graph

// Edge policies
// =============

/*
EdgePolicy decides what happens to the edges of a node which is deleted.
*/
type EdgePolicy int

/*
Available edge policies
*/
const (
	PolicyDetach   EdgePolicy = iota // Incident edges are removed with the node
	PolicyRestrict                   // Nodes with edges cannot be removed
)

/*
String returns a string representation of an edge policy.
*/
func (p EdgePolicy) String() string {
	if p == PolicyRestrict {
		return "restrict"
	}
	return "detach"
}

/*
ParseEdgePolicy parses an edge policy name. Unknown names produce PolicyDetach.
*/
func ParseEdgePolicy(s string) EdgePolicy {
	if s == "restrict" {
		return PolicyRestrict
	}
	return PolicyDetach
}

// Edge directions
// ===============

/*
Direction is the direction of an edge lookup between two nodes.
*/
type Direction int

/*
Available directions
*/
const (
	Directed   Direction = iota // Only edges from the first to the second node
	Undirected                  // Edges in either direction
)

// Graph events
//=============

/*
EventNodeCreated is thrown when a node gets created.

Parameters: created node
*/
const EventNodeCreated = 0x01

/*
EventNodeUpdated is thrown when a node gets updated.

Parameters: updated node, old node
*/
const EventNodeUpdated = 0x02

/*
EventNodeDeleted is thrown when a node gets deleted.

Parameters: deleted node
*/
const EventNodeDeleted = 0x03

/*
EventEdgeCreated is thrown when an edge gets created.

Parameters: created edge
*/
const EventEdgeCreated = 0x04

/*
EventEdgeUpdated is thrown when an edge gets updated.

Parameters: updated edge, old edge
*/
const EventEdgeUpdated = 0x05

/*
EventEdgeDeleted is thrown when an edge gets deleted.

Parameters: deleted edge
*/
const EventEdgeDeleted = 0x06

/*
EventNodeDeleting is thrown before a node gets deleted. This event is only
seen by rules; it is not recorded in a journal.

Parameters: node which is about to be deleted
*/
const EventNodeDeleting = 0x07

/*
EventName returns a readable name of a graph event.
*/
func EventName(event int) string {
	switch event {
	case EventNodeCreated:
		return "node.created"
	case EventNodeUpdated:
		return "node.updated"
	case EventNodeDeleted:
		return "node.deleted"
	case EventEdgeCreated:
		return "edge.created"
	case EventEdgeUpdated:
		return "edge.updated"
	case EventEdgeDeleted:
		return "edge.deleted"
	case EventNodeDeleting:
		return "node.deleting"
	}
	return "unknown"
}
