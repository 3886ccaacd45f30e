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
	"strings"

	"devt.de/krotik/graphmap/graph"
	"devt.de/krotik/graphmap/graph/data"
	"devt.de/krotik/graphmap/graph/util"
)

/*
Join is the direction in which edges are followed from a node.
*/
type Join int

/*
Known joins
*/
const (
	JoinNone Join = iota
	JoinOut       // ->
	JoinIn        // <-
	JoinBoth      // <->
)

/*
ParseJoin parses the symbol of a join.
*/
func ParseJoin(s string) Join {
	switch s {
	case "->":
		return JoinOut
	case "<-":
		return JoinIn
	case "<->":
		return JoinBoth
	}
	return JoinNone
}

/*
String returns the symbol of a join.
*/
func (j Join) String() string {
	switch j {
	case JoinOut:
		return "->"
	case JoinIn:
		return "<-"
	case JoinBoth:
		return "<->"
	}
	return ""
}

/*
Cond is a tag condition of a pattern.
*/
type Cond struct {
	Name     string
	Value    string
	HasValue bool
}

/*
String returns a string representation of this condition.
*/
func (c Cond) String() string {
	if c.HasValue {
		return c.Name + "=" + c.Value
	}
	return c.Name
}

/*
matches checks if a list of tags fulfills this condition.
*/
func (c Cond) matches(tags data.Tags) bool {
	tag, ok := tags.Get(c.Name)
	return ok && (!c.HasValue || (tag.HasValue && tag.Value == c.Value))
}

/*
Pattern describes nodes or edges. Empty fields match anything.
*/
type Pattern struct {
	Key   string // Node key
	Type  string // Edge type
	Conds []Cond // Tag conditions
}

/*
MatchNode checks if a node matches this pattern.
*/
func (p *Pattern) MatchNode(n *data.GraphNode) bool {
	if n == nil || (p.Key != "" && !util.EqualKeys(p.Key, n.Key)) {
		return false
	}

	for _, c := range p.Conds {
		if !c.matches(n.Tags) {
			return false
		}
	}

	return true
}

/*
MatchEdge checks if an edge matches this pattern.
*/
func (p *Pattern) MatchEdge(e *data.GraphEdge) bool {
	if p.Type != "" && !util.EqualKeys(p.Type, e.EdgeType) {
		return false
	}

	for _, c := range p.Conds {
		if !c.matches(e.Tags) {
			return false
		}
	}

	return true
}

/*
Nodes returns all nodes which match this pattern. The candidates are taken
from the node key or the tag index if possible.
*/
func (p *Pattern) Nodes(s *graph.Section) []*data.GraphNode {
	var candidates []*data.GraphNode

	switch {
	case p.Key != "":
		if n := s.Node(p.Key); n != nil {
			candidates = append(candidates, n)
		}
	case len(p.Conds) > 0:
		candidates = s.NodesByTag(p.Conds[0].String())
	default:
		candidates = s.Nodes()
	}

	ret := candidates[:0]

	for _, n := range candidates {
		if p.MatchNode(n) {
			ret = append(ret, n)
		}
	}

	return ret
}

func (p *Pattern) items() []string {
	var ret []string

	if p == nil {
		return nil
	}
	if p.Key != "" {
		ret = append(ret, "key="+p.Key)
	}
	if p.Type != "" {
		ret = append(ret, "type="+p.Type)
	}
	for _, c := range p.Conds {
		ret = append(ret, c.String())
	}

	return ret
}

func (p *Pattern) nodeString() string {
	if items := p.items(); len(items) > 0 {
		return "(" + strings.Join(items, ", ") + ")"
	}
	return "(*)"
}

func (p *Pattern) edgeString() string {
	if items := p.items(); len(items) > 0 {
		return "[" + strings.Join(items, ", ") + "]"
	}
	return "[*]"
}

/*
Step is a single traversal step of a path: a join, an edge pattern and the
pattern of the node at the other end of the edge.
*/
type Step struct {
	Join Join
	Edge *Pattern
	Node *Pattern
}

/*
hop is an edge which was followed and the node it leads to.
*/
type hop struct {
	edge *data.GraphEdge
	node *data.GraphNode
}

/*
follow returns all edges of a node which match this step.
*/
func (st *Step) follow(s *graph.Section, n *data.GraphNode) []hop {
	var ret []hop

	for _, e := range s.Edges(n.Key) {
		out := util.EqualKeys(e.FromKey, n.Key)

		if (st.Join == JoinOut && !out) || (st.Join == JoinIn && out) {
			continue
		}

		if !st.Edge.MatchEdge(e) {
			continue
		}

		if other := s.Node(e.Other(n.Key)); st.Node.MatchNode(other) {
			ret = append(ret, hop{e, other})
		}
	}

	return ret
}

/*
Path is a start pattern followed by a number of traversal steps.
*/
type Path struct {
	Start *Pattern
	Steps []*Step
}

/*
Match is a matched path.
*/
type Match struct {
	Nodes []*data.GraphNode
	Edges []*data.GraphEdge
}

/*
Match returns all matching paths. Paths are ordered by the keys of their
nodes.
*/
func (p *Path) Match(s *graph.Section) []*Match {
	var ret []*Match

	for _, n := range p.Start.Nodes(s) {
		ret = append(ret, &Match{Nodes: []*data.GraphNode{n}})
	}

	for _, st := range p.Steps {
		var next []*Match

		for _, m := range ret {
			for _, h := range st.follow(s, m.Nodes[len(m.Nodes)-1]) {
				next = append(next, &Match{
					Nodes: append(append([]*data.GraphNode(nil), m.Nodes...), h.node),
					Edges: append(append([]*data.GraphEdge(nil), m.Edges...), h.edge),
				})
			}
		}

		ret = next
	}

	return ret
}

/*
String returns a string representation of this path.
*/
func (p *Path) String() string {
	var buf strings.Builder

	buf.WriteString(p.Start.nodeString())

	for _, st := range p.Steps {
		buf.WriteString(fmt.Sprintf(" %v %v %v %v", st.Join, st.Edge.edgeString(),
			st.Join, st.Node.nodeString()))
	}

	return buf.String()
}
