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
	"fmt"
	"sort"
	"strings"
	"time"

	"devt.de/krotik/graphmap/graph"
	"devt.de/krotik/graphmap/graph/data"
	"devt.de/krotik/graphmap/graph/util"
)

/*
Instruction is a single executable statement of a command text.
*/
type Instruction interface {

	/*
		Execute runs the instruction inside a critical section of a GraphMap.
	*/
	Execute(s *graph.Section, res *Result) error

	/*
		String returns a string representation of the instruction.
	*/
	String() string
}

// Node instructions
// =================

/*
NodeInstruction adds a node or updates an existing node.
*/
type NodeInstruction struct {
	Set     bool              // Flag if an existing node should be updated
	Key     string            // Node key
	Tags    []string          // Tags (a leading - removes a tag)
	Indexes []string          // Index declarations (a leading - removes a declaration)
	Data    map[string][]byte // Named data payloads
}

/*
Execute runs the instruction.
*/
func (ins *NodeInstruction) Execute(s *graph.Section, res *Result) error {
	n := data.NewGraphNode(ins.Key, ins.Tags...)
	n.Indexes = ins.Indexes
	n.Data = ins.Data

	if ins.Set {
		return s.SetNode(n)
	}

	return s.AddNode(n)
}

/*
String returns a string representation of the instruction.
*/
func (ins *NodeInstruction) String() string {
	var buf strings.Builder

	if ins.Set {
		buf.WriteString("set node ")
	} else {
		buf.WriteString("add node ")
	}

	buf.WriteString(ins.Key)

	if len(ins.Tags) > 0 {
		buf.WriteString(fmt.Sprintf(" tags: %v", strings.Join(ins.Tags, ", ")))
	}
	if len(ins.Indexes) > 0 {
		buf.WriteString(fmt.Sprintf(" indexes: %v", strings.Join(ins.Indexes, ", ")))
	}
	if len(ins.Data) > 0 {
		names := make([]string, 0, len(ins.Data))
		for name := range ins.Data {
			names = append(names, name)
		}
		sort.Strings(names)
		buf.WriteString(fmt.Sprintf(" data: %v", strings.Join(names, ", ")))
	}

	return buf.String()
}

/*
DeleteNodeInstruction removes a node and all its edges.
*/
type DeleteNodeInstruction struct {
	Key      string
	IfExists bool // Flag if a missing node should be ignored
}

/*
Execute runs the instruction.
*/
func (ins *DeleteNodeInstruction) Execute(s *graph.Section, res *Result) error {
	_, err := s.RemoveNode(ins.Key)

	if ins.IfExists && util.StatusOf(err) == util.StatusNotFound {
		return nil
	}

	return err
}

/*
String returns a string representation of the instruction.
*/
func (ins *DeleteNodeInstruction) String() string {
	if ins.IfExists {
		return fmt.Sprintf("delete node %v if it exists", ins.Key)
	}
	return fmt.Sprintf("delete node %v", ins.Key)
}

// Edge instructions
// =================

/*
EdgeInstruction adds an edge or updates an existing edge.
*/
type EdgeInstruction struct {
	Set  bool
	From string
	To   string
	Type string
	Tags []string
}

/*
Execute runs the instruction.
*/
func (ins *EdgeInstruction) Execute(s *graph.Section, res *Result) error {
	e := data.NewGraphEdge(ins.From, ins.To, ins.Type, ins.Tags...)

	if ins.Set {
		return s.SetEdge(e)
	}

	return s.AddEdge(e)
}

/*
String returns a string representation of the instruction.
*/
func (ins *EdgeInstruction) String() string {
	op := "add"
	if ins.Set {
		op = "set"
	}

	ret := fmt.Sprintf("%v edge %v", op, data.NewEdgeKey(ins.From, ins.To, ins.Type))

	if len(ins.Tags) > 0 {
		ret += fmt.Sprintf(" tags: %v", strings.Join(ins.Tags, ", "))
	}

	return ret
}

/*
DeleteEdgeInstruction removes a single edge.
*/
type DeleteEdgeInstruction struct {
	From     string
	To       string
	Type     string
	IfExists bool
}

/*
Execute runs the instruction.
*/
func (ins *DeleteEdgeInstruction) Execute(s *graph.Section, res *Result) error {
	_, err := s.RemoveEdge(data.NewEdgeKey(ins.From, ins.To, ins.Type))

	if ins.IfExists && util.StatusOf(err) == util.StatusNotFound {
		return nil
	}

	return err
}

/*
String returns a string representation of the instruction.
*/
func (ins *DeleteEdgeInstruction) String() string {
	ret := fmt.Sprintf("delete edge %v", data.NewEdgeKey(ins.From, ins.To, ins.Type))
	if ins.IfExists {
		ret += " if it exists"
	}
	return ret
}

// Query instructions
// ==================

/*
SelectInstruction returns values of all nodes at the end of matching paths.
The returned names are key, created or the name of a tag. A tag without a
value is returned as true.
*/
type SelectInstruction struct {
	Path    *Path
	Returns []string
}

/*
Execute runs the instruction. The rows of the result are replaced.
*/
func (ins *SelectInstruction) Execute(s *graph.Section, res *Result) error {
	cols := ins.Returns
	if len(cols) == 0 {
		cols = []string{"key"}
	}

	res.Columns = cols
	res.Rows = [][]string{}

	for _, m := range ins.Path.Match(s) {
		last := m.Nodes[len(m.Nodes)-1]

		row := make([]string, len(cols))
		for i, c := range cols {
			row[i] = project(last, c)
		}

		res.Rows = append(res.Rows, row)
	}

	return nil
}

/*
project returns a single value of a node.
*/
func project(n *data.GraphNode, name string) string {
	switch strings.ToLower(name) {
	case "key":
		return n.Key
	case "created":
		return n.CreatedDate.Format(time.RFC3339)
	}

	if tag, ok := n.Tags.Get(name); ok {
		if tag.HasValue {
			return tag.Value
		}
		return "true"
	}

	return ""
}

/*
String returns a string representation of the instruction.
*/
func (ins *SelectInstruction) String() string {
	ret := "select " + ins.Path.String()
	if len(ins.Returns) > 0 {
		ret += " return " + strings.Join(ins.Returns, ", ")
	}
	return ret
}

/*
DeleteMatchInstruction removes all nodes which match a pattern. If a join
and an edge pattern are given only the matching edges of the matching nodes
are removed.
*/
type DeleteMatchInstruction struct {
	Start *Pattern // Pattern of the nodes
	Join  Join     // Join to the edges (JoinNone removes the nodes)
	Edge  *Pattern // Pattern of the edges
	End   *Pattern // Optional pattern of the nodes at the other end of the edges
}

/*
Execute runs the instruction.
*/
func (ins *DeleteMatchInstruction) Execute(s *graph.Section, res *Result) error {
	nodes := ins.Start.Nodes(s)

	if ins.Join == JoinNone {
		for _, n := range nodes {

			// Nodes may be removed by graph rules of a previous removal

			if _, err := s.RemoveNode(n.Key); err != nil && util.StatusOf(err) != util.StatusNotFound {
				return err
			}
		}

		return nil
	}

	step := &Step{Join: ins.Join, Edge: ins.Edge, Node: ins.End}
	if step.Node == nil {
		step.Node = &Pattern{}
	}

	seen := make(map[data.EdgeKey]bool)
	var keys []data.EdgeKey

	for _, n := range nodes {
		for _, e := range step.follow(s, n) {
			if k := e.edge.Key(); !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}

	for _, k := range keys {
		if _, err := s.RemoveEdge(k); err != nil {
			return err
		}
	}

	return nil
}

/*
String returns a string representation of the instruction.
*/
func (ins *DeleteMatchInstruction) String() string {
	ret := "delete " + ins.Start.nodeString()

	if ins.Join != JoinNone {
		ret += fmt.Sprintf(" %v %v", ins.Join, ins.Edge.edgeString())

		if ins.End != nil {
			ret += fmt.Sprintf(" %v %v", ins.Join, ins.End.nodeString())
		}
	}

	return ret
}
