/*
 * GraphMap
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package graph

import (
	"fmt"

	"devt.de/krotik/graphmap/graph/data"
	"devt.de/krotik/graphmap/graph/util"
)

/*
checkEdge checks that an edge is valid and that both of its ends exist.
*/
func (s *Section) checkEdge(e *data.GraphEdge) error {
	if err := e.Validate(); err != nil {
		return err
	}

	for _, end := range []string{e.FromKey, e.ToKey} {
		if _, ok := s.gm.nodes[util.FoldKey(end)]; !ok {
			return &util.GraphError{Type: util.ErrNotFound,
				Detail: fmt.Sprintf("Node %v of edge %v does not exist", end, e.Key())}
		}
	}

	return nil
}

/*
AddEdge adds a new edge. Fails with a conflict if an edge with the same key
exists already. Both ends of the edge must exist and must be different nodes.
*/
func (s *Section) AddEdge(edge *data.GraphEdge) error {
	e := edge.Normalize()

	if err := s.checkEdge(e); err != nil {
		return err
	}

	key := e.Key()

	if _, ok := s.gm.edges[key]; ok {
		return &util.GraphError{Type: util.ErrConflict,
			Detail: fmt.Sprintf("Edge %v exists already", key)}
	}

	s.gm.edges[key] = e
	s.gm.ri.add(key)

	return s.event(EventEdgeCreated, e.Clone())
}

/*
SetEdge updates the tags of an edge. An edge which does not exist is added.
*/
func (s *Section) SetEdge(edge *data.GraphEdge) error {
	e := edge.Normalize()

	old, ok := s.gm.edges[e.Key()]
	if !ok {
		return s.AddEdge(edge)
	}

	return s.replaceEdge(old, old.Merge(edge))
}

/*
ReplaceEdge replaces an edge with the given version. An edge which does not
exist is added.
*/
func (s *Section) ReplaceEdge(edge *data.GraphEdge) error {
	e := edge.Normalize()

	old, ok := s.gm.edges[e.Key()]
	if !ok {
		return s.AddEdge(edge)
	}

	return s.replaceEdge(old, e)
}

func (s *Section) replaceEdge(old *data.GraphEdge, e *data.GraphEdge) error {
	e.FromKey, e.ToKey, e.EdgeType = old.FromKey, old.ToKey, old.EdgeType

	s.gm.edges[old.Key()] = e

	return s.event(EventEdgeUpdated, e.Clone(), old)
}

/*
RemoveEdge removes an edge and returns the removed edge.
*/
func (s *Section) RemoveEdge(key data.EdgeKey) (*data.GraphEdge, error) {
	e, ok := s.gm.edges[key]
	if !ok {
		return nil, &util.GraphError{Type: util.ErrNotFound,
			Detail: fmt.Sprintf("Edge %v does not exist", key)}
	}

	delete(s.gm.edges, key)
	s.gm.ri.remove(key)

	return e, s.event(EventEdgeDeleted, e.Clone())
}

/*
Edge returns a copy of an edge or nil if the edge does not exist.
*/
func (s *Section) Edge(key data.EdgeKey) *data.GraphEdge {
	if e, ok := s.gm.edges[key]; ok {
		return e.Clone()
	}
	return nil
}

/*
EdgeCount returns the number of edges.
*/
func (s *Section) EdgeCount() int {
	return len(s.gm.edges)
}

/*
Edges returns copies of all edges of a node.
*/
func (s *Section) Edges(nodeKey string) []*data.GraphEdge {
	return s.edgesByKeys(s.gm.ri.incident(util.FoldKey(nodeKey)))
}

/*
EdgesBetween returns copies of all edges between two nodes. Directed lookups
only return edges which start at the first node.
*/
func (s *Section) EdgesBetween(from string, to string, dir Direction) []*data.GraphEdge {
	var keys []data.EdgeKey

	f, t := util.FoldKey(from), util.FoldKey(to)

	for _, k := range s.gm.ri.incident(f) {
		if (k.From == f && k.To == t) || (dir == Undirected && k.From == t && k.To == f) {
			keys = append(keys, k)
		}
	}

	return s.edgesByKeys(keys)
}

/*
EdgesByType returns copies of all edges of a given type.
*/
func (s *Section) EdgesByType(edgeType string) []*data.GraphEdge {
	var keys []data.EdgeKey

	t := util.FoldKey(edgeType)

	for k := range s.gm.edges {
		if k.Type == t {
			keys = append(keys, k)
		}
	}

	sortEdgeKeys(keys)

	return s.edgesByKeys(keys)
}

func (s *Section) edgesByKeys(keys []data.EdgeKey) []*data.GraphEdge {
	ret := make([]*data.GraphEdge, 0, len(keys))
	for _, k := range keys {
		ret = append(ret, s.gm.edges[k].Clone())
	}
	return ret
}

// Locking convenience functions
// =============================

/*
AddEdge adds a new edge.
*/
func (gm *GraphMap) AddEdge(edge *data.GraphEdge) error {
	return gm.Update(nil, func(s *Section) error {
		return s.AddEdge(edge)
	})
}

/*
SetEdge adds or updates an edge.
*/
func (gm *GraphMap) SetEdge(edge *data.GraphEdge) error {
	return gm.Update(nil, func(s *Section) error {
		return s.SetEdge(edge)
	})
}

/*
RemoveEdge removes an edge.
*/
func (gm *GraphMap) RemoveEdge(key data.EdgeKey) (*data.GraphEdge, error) {
	var ret *data.GraphEdge

	err := gm.Update(nil, func(s *Section) error {
		var err error
		ret, err = s.RemoveEdge(key)
		return err
	})

	return ret, err
}

/*
EdgeCount returns the number of edges.
*/
func (gm *GraphMap) EdgeCount() int {
	gm.mutex.Lock()
	defer gm.mutex.Unlock()

	return len(gm.edges)
}

/*
Edges returns copies of all edges of a node.
*/
func (gm *GraphMap) Edges(nodeKey string) []*data.GraphEdge {
	gm.mutex.Lock()
	defer gm.mutex.Unlock()

	return (&Section{gm: gm}).Edges(nodeKey)
}

/*
EdgesBetween returns copies of all edges between two nodes.
*/
func (gm *GraphMap) EdgesBetween(from string, to string, dir Direction) []*data.GraphEdge {
	gm.mutex.Lock()
	defer gm.mutex.Unlock()

	return (&Section{gm: gm}).EdgesBetween(from, to, dir)
}
