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
AddNode adds a new node. Fails with a conflict if the key exists already or
if one of the unique index values of the node is owned by another node.
*/
func (s *Section) AddNode(node *data.GraphNode) error {
	if err := node.Validate(); err != nil {
		return err
	}

	n := node.Normalize()
	k := util.FoldKey(n.Key)

	if _, ok := s.gm.nodes[k]; ok {
		return &util.GraphError{Type: util.ErrConflict,
			Detail: fmt.Sprintf("Node %v exists already", n.Key)}
	}

	pairs := n.UniquePairs()

	if err := s.gm.unique.verify(k, pairs); err != nil {
		return err
	}

	// All checks passed - update node and indexes

	s.gm.nodes[k] = n
	s.gm.tags.add(k, n.Tags)
	s.gm.unique.set(k, pairs)

	return s.event(EventNodeCreated, n.Clone())
}

/*
SetNode updates a node. A node which does not exist is added. The tags, index
declarations and data of an existing node are merged with the given node. The
creation date of an existing node is preserved. Fails with a conflict (and no
change) if the updated node would violate a unique index.
*/
func (s *Section) SetNode(node *data.GraphNode) error {
	if err := node.Validate(); err != nil {
		return err
	}

	old, ok := s.gm.nodes[util.FoldKey(node.Key)]
	if !ok {
		return s.AddNode(node)
	}

	return s.replaceNode(old, old.Merge(node))
}

/*
ReplaceNode replaces a node with the given version. The node is stored exactly
as given (including its creation date). A node which does not exist is added.
*/
func (s *Section) ReplaceNode(node *data.GraphNode) error {
	if err := node.Validate(); err != nil {
		return err
	}

	old, ok := s.gm.nodes[util.FoldKey(node.Key)]
	if !ok {
		return s.AddNode(node)
	}

	return s.replaceNode(old, node.Normalize())
}

/*
replaceNode replaces an existing node with a new version.
*/
func (s *Section) replaceNode(old *data.GraphNode, n *data.GraphNode) error {
	k := util.FoldKey(old.Key)
	pairs := n.UniquePairs()

	if err := s.gm.unique.verify(k, pairs); err != nil {
		return err
	}

	// Keep the key spelling of the stored node

	n.Key = old.Key

	s.gm.tags.remove(k, old.Tags)
	s.gm.tags.add(k, n.Tags)
	s.gm.unique.set(k, pairs)
	s.gm.nodes[k] = n

	return s.event(EventNodeUpdated, n.Clone(), old)
}

/*
RemoveNode removes a node. All incident edges are removed by the graph rules
before the node is removed. Fails with a conflict if the node still has edges
afterwards (see PolicyRestrict).
*/
func (s *Section) RemoveNode(key string) (*data.GraphNode, error) {
	k := util.FoldKey(key)

	n, ok := s.gm.nodes[k]
	if !ok {
		return nil, &util.GraphError{Type: util.ErrNotFound,
			Detail: fmt.Sprintf("Node %v does not exist", key)}
	}

	if err := s.event(EventNodeDeleting, n.Clone()); err != nil {
		return nil, err
	}

	// No dangling edge may reference a removed node

	if edges := s.gm.ri.incident(k); len(edges) > 0 {
		return nil, &util.GraphError{Type: util.ErrConflict,
			Detail: fmt.Sprintf("Node %v has %v edges", n.Key, len(edges))}
	}

	s.gm.tags.remove(k, n.Tags)
	s.gm.unique.remove(k)
	delete(s.gm.nodes, k)

	return n, s.event(EventNodeDeleted, n.Clone())
}

/*
Node returns a copy of a node or nil if the node does not exist.
*/
func (s *Section) Node(key string) *data.GraphNode {
	if n, ok := s.gm.nodes[util.FoldKey(key)]; ok {
		return n.Clone()
	}
	return nil
}

/*
NodeCount returns the number of nodes.
*/
func (s *Section) NodeCount() int {
	return len(s.gm.nodes)
}

/*
Nodes returns copies of all nodes ordered by key.
*/
func (s *Section) Nodes() []*data.GraphNode {
	ret := make([]*data.GraphNode, 0, len(s.gm.nodes))
	for _, k := range s.nodeKeys() {
		ret = append(ret, s.gm.nodes[k].Clone())
	}
	return ret
}

/*
NodesByTag returns copies of all nodes which carry a given tag. The tag can
be given as tag or tag=value.
*/
func (s *Section) NodesByTag(tag string) []*data.GraphNode {
	keys := s.gm.tags.lookup(tag)

	ret := make([]*data.GraphNode, 0, len(keys))
	for _, k := range keys {
		ret = append(ret, s.gm.nodes[k].Clone())
	}

	return ret
}

/*
NodeByIndex returns a copy of the node which owns a unique index value or nil.
*/
func (s *Section) NodeByIndex(index string, value string) *data.GraphNode {
	if k, ok := s.gm.unique.lookup(index, value); ok {
		return s.gm.nodes[k].Clone()
	}
	return nil
}

// Locking convenience functions
// =============================

/*
AddNode adds a new node.
*/
func (gm *GraphMap) AddNode(node *data.GraphNode) error {
	return gm.Update(nil, func(s *Section) error {
		return s.AddNode(node)
	})
}

/*
SetNode adds or updates a node.
*/
func (gm *GraphMap) SetNode(node *data.GraphNode) error {
	return gm.Update(nil, func(s *Section) error {
		return s.SetNode(node)
	})
}

/*
RemoveNode removes a node and returns the removed node.
*/
func (gm *GraphMap) RemoveNode(key string) (*data.GraphNode, error) {
	var ret *data.GraphNode

	err := gm.Update(nil, func(s *Section) error {
		var err error
		ret, err = s.RemoveNode(key)
		return err
	})

	return ret, err
}

/*
Node returns a copy of a node or nil if the node does not exist.
*/
func (gm *GraphMap) Node(key string) *data.GraphNode {
	gm.mutex.Lock()
	defer gm.mutex.Unlock()

	return (&Section{gm: gm}).Node(key)
}

/*
NodeCount returns the number of nodes.
*/
func (gm *GraphMap) NodeCount() int {
	gm.mutex.Lock()
	defer gm.mutex.Unlock()

	return len(gm.nodes)
}

/*
NodesByTag returns copies of all nodes which carry a given tag.
*/
func (gm *GraphMap) NodesByTag(tag string) []*data.GraphNode {
	gm.mutex.Lock()
	defer gm.mutex.Unlock()

	return (&Section{gm: gm}).NodesByTag(tag)
}

/*
NodeByIndex returns a copy of the node which owns a unique index value or nil.
*/
func (gm *GraphMap) NodeByIndex(index string, value string) *data.GraphNode {
	gm.mutex.Lock()
	defer gm.mutex.Unlock()

	return (&Section{gm: gm}).NodeByIndex(index, value)
}
