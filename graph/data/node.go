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
Package data contains classes and functions to handle graph data.

Nodes

Nodes are the main objects in the graph. A node has a unique key which is
compared case-insensitively, an ordered list of tags, a set of declared index
names and a map of named data payloads. A declared index name turns the tag of
the same name into a uniqueness constraint: no two nodes may carry the same
value for it.

Edges

Edges connect two nodes. The primary key of an edge is the triple of its from
key, its to key and its type. Edges carry their own list of tags.

Tags

Tags are either plain names or name=value pairs. Updates to tags are expressed
as an ordered list of patch operations (see TagOp).
*/
package data

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"devt.de/krotik/graphmap/graph/util"
)

/*
GraphNode models a node in the graph.
*/
type GraphNode struct {
	Key         string            `json:"key"`
	Tags        Tags              `json:"tags,omitempty"`
	Indexes     []string          `json:"indexes,omitempty"`
	Data        map[string][]byte `json:"data,omitempty"`
	CreatedDate time.Time         `json:"created"`
}

/*
NewGraphNode creates a new node with a given key and tags.
*/
func NewGraphNode(key string, tags ...string) *GraphNode {
	return &GraphNode{
		Key:         key,
		Tags:        NewTags(tags...),
		CreatedDate: time.Now().UTC(),
	}
}

/*
IndexPair is a (index name, value) pair which is owned by exactly one node.
*/
type IndexPair struct {
	Index string
	Value string
}

/*
String returns a string representation of this index pair.
*/
func (p IndexPair) String() string {
	return fmt.Sprintf("%v=%v", p.Index, p.Value)
}

/*
Validate checks if the node can be stored.
*/
func (n *GraphNode) Validate() error {
	if strings.TrimSpace(n.Key) == "" {
		return &util.GraphError{Type: util.ErrBadRequest, Detail: "Node key is missing"}
	}
	return nil
}

/*
Normalize returns a copy of this node with all removal markers applied.
*/
func (n *GraphNode) Normalize() *GraphNode {
	ret := n.Clone()

	ret.Tags = Tags(nil).Apply(TagOpsFromTags(n.Tags))
	ret.Indexes = mergeIndexes(nil, n.Indexes)

	if ret.CreatedDate.IsZero() {
		ret.CreatedDate = time.Now().UTC()
	}

	return ret
}

/*
Merge returns a new node which is the result of merging an update into this
node. New tags win, removal markers delete tags or index declarations, data
payloads are overwritten (a nil payload removes an entry). The key and the
creation date of this node are preserved.
*/
func (n *GraphNode) Merge(update *GraphNode) *GraphNode {
	ret := n.Clone()

	ret.Tags = n.Tags.Apply(TagOpsFromTags(update.Tags))
	ret.Indexes = mergeIndexes(n.Indexes, update.Indexes)

	for name, val := range update.Data {
		if ret.Data == nil {
			ret.Data = make(map[string][]byte)
		}
		if val == nil {
			delete(ret.Data, name)
		} else {
			ret.Data[name] = append([]byte(nil), val...)
		}
	}

	if len(ret.Data) == 0 {
		ret.Data = nil
	}

	return ret
}

/*
mergeIndexes merges a list of index declarations into an existing list.
*/
func mergeIndexes(existing []string, update []string) []string {
	var ret []string

	add := func(name string) {
		for _, e := range ret {
			if util.EqualKeys(e, name) {
				return
			}
		}
		ret = append(ret, name)
	}

	for _, name := range existing {
		add(name)
	}

	for _, name := range update {
		name = strings.TrimSpace(name)

		if strings.HasPrefix(name, RemovalMarker) {
			rname := strings.TrimSpace(name[len(RemovalMarker):])

			for i, e := range ret {
				if util.EqualKeys(e, rname) {
					ret = append(ret[:i:i], ret[i+1:]...)
					break
				}
			}

		} else if name != "" {
			add(name)
		}
	}

	return ret
}

/*
UniquePairs returns all (index name, value) pairs which this node claims. Only
declared indexes whose tag carries a value produce a pair.
*/
func (n *GraphNode) UniquePairs() []IndexPair {
	var ret []IndexPair

	for _, name := range n.Indexes {
		if strings.HasPrefix(name, RemovalMarker) {
			continue
		}

		if tag, ok := n.Tags.Get(name); ok && tag.HasValue {
			ret = append(ret, IndexPair{util.FoldKey(name), tag.Value})
		}
	}

	return ret
}

/*
Clone returns a deep copy of this node.
*/
func (n *GraphNode) Clone() *GraphNode {
	ret := &GraphNode{
		Key:         n.Key,
		Tags:        n.Tags.Clone(),
		CreatedDate: n.CreatedDate,
	}

	if n.Indexes != nil {
		ret.Indexes = append([]string(nil), n.Indexes...)
	}

	if n.Data != nil {
		ret.Data = make(map[string][]byte, len(n.Data))
		for k, v := range n.Data {
			ret.Data[k] = append([]byte(nil), v...)
		}
	}

	return ret
}

/*
Equal checks if two nodes are equal.
*/
func (n *GraphNode) Equal(other *GraphNode) bool {
	if n == nil || other == nil {
		return n == other
	}

	if !util.EqualKeys(n.Key, other.Key) || !n.Tags.Equal(other.Tags) ||
		!n.CreatedDate.Equal(other.CreatedDate) || len(n.Indexes) != len(other.Indexes) ||
		len(n.Data) != len(other.Data) {
		return false
	}

	for i, idx := range n.Indexes {
		if !util.EqualKeys(idx, other.Indexes[i]) {
			return false
		}
	}

	for k, v := range n.Data {
		if ov, ok := other.Data[k]; !ok || string(ov) != string(v) {
			return false
		}
	}

	return true
}

/*
String returns a string representation of this node.
*/
func (n *GraphNode) String() string {
	var buf strings.Builder

	buf.WriteString(fmt.Sprintf("GraphNode: %v\n", n.Key))

	if len(n.Tags) > 0 {
		buf.WriteString(fmt.Sprintf("  tags    : %v\n", n.Tags))
	}
	if len(n.Indexes) > 0 {
		buf.WriteString(fmt.Sprintf("  indexes : %v\n", strings.Join(n.Indexes, ", ")))
	}

	names := make([]string, 0, len(n.Data))
	for name := range n.Data {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		buf.WriteString(fmt.Sprintf("  data    : %v (%v bytes)\n", name, len(n.Data[name])))
	}

	return buf.String()
}

/*
MarshalNode serializes a node.
*/
func MarshalNode(n *GraphNode) ([]byte, error) {
	return json.Marshal(n)
}

/*
UnmarshalNode deserializes a node.
*/
func UnmarshalNode(b []byte) (*GraphNode, error) {
	var n GraphNode

	if err := json.Unmarshal(b, &n); err != nil {
		return nil, &util.GraphError{Type: util.ErrInvalidData, Detail: err.Error()}
	}

	return &n, nil
}
