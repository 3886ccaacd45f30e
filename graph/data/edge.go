/*
 * GraphMap
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package data

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"devt.de/krotik/graphmap/graph/util"
)

/*
DefaultEdgeType is the type of an edge if no type was given
*/
const DefaultEdgeType = "default"

/*
EdgeKey is the primary key of an edge. All parts are stored in folded form.
*/
type EdgeKey struct {
	From string
	To   string
	Type string
}

/*
NewEdgeKey creates a new edge key.
*/
func NewEdgeKey(from, to, edgeType string) EdgeKey {
	if strings.TrimSpace(edgeType) == "" {
		edgeType = DefaultEdgeType
	}
	return EdgeKey{util.FoldKey(from), util.FoldKey(to), util.FoldKey(edgeType)}
}

/*
String returns a string representation of this key.
*/
func (k EdgeKey) String() string {
	return fmt.Sprintf("%v->%v[%v]", k.From, k.To, k.Type)
}

/*
GraphEdge models an edge in the graph.
*/
type GraphEdge struct {
	FromKey     string    `json:"from"`
	ToKey       string    `json:"to"`
	EdgeType    string    `json:"type"`
	Tags        Tags      `json:"tags,omitempty"`
	CreatedDate time.Time `json:"created"`
}

/*
NewGraphEdge creates a new edge.
*/
func NewGraphEdge(from, to, edgeType string, tags ...string) *GraphEdge {
	if edgeType == "" {
		edgeType = DefaultEdgeType
	}
	return &GraphEdge{
		FromKey:     from,
		ToKey:       to,
		EdgeType:    edgeType,
		Tags:        NewTags(tags...),
		CreatedDate: time.Now().UTC(),
	}
}

/*
Key returns the primary key of this edge.
*/
func (e *GraphEdge) Key() EdgeKey {
	return NewEdgeKey(e.FromKey, e.ToKey, e.EdgeType)
}

/*
Validate checks if the edge can be stored.
*/
func (e *GraphEdge) Validate() error {
	if strings.TrimSpace(e.FromKey) == "" || strings.TrimSpace(e.ToKey) == "" {
		return &util.GraphError{Type: util.ErrBadRequest,
			Detail: "Edge needs a from and a to key"}
	}

	if util.EqualKeys(e.FromKey, e.ToKey) {
		return &util.GraphError{Type: util.ErrBadRequest,
			Detail: fmt.Sprintf("Self referencing edge on node %v", e.FromKey)}
	}

	return nil
}

/*
Normalize returns a copy of this edge with the default type and all removal
markers applied.
*/
func (e *GraphEdge) Normalize() *GraphEdge {
	ret := e.Clone()

	if strings.TrimSpace(ret.EdgeType) == "" {
		ret.EdgeType = DefaultEdgeType
	}

	ret.Tags = Tags(nil).Apply(TagOpsFromTags(e.Tags))

	if ret.CreatedDate.IsZero() {
		ret.CreatedDate = time.Now().UTC()
	}

	return ret
}

/*
Merge returns a new edge which is the result of merging the tags of an update
into this edge.
*/
func (e *GraphEdge) Merge(update *GraphEdge) *GraphEdge {
	ret := e.Clone()
	ret.Tags = e.Tags.Apply(TagOpsFromTags(update.Tags))
	return ret
}

/*
Other returns the key of the other end of this edge.
*/
func (e *GraphEdge) Other(key string) string {
	if util.EqualKeys(e.FromKey, key) {
		return e.ToKey
	}
	return e.FromKey
}

/*
Clone returns a copy of this edge.
*/
func (e *GraphEdge) Clone() *GraphEdge {
	return &GraphEdge{
		FromKey:     e.FromKey,
		ToKey:       e.ToKey,
		EdgeType:    e.EdgeType,
		Tags:        e.Tags.Clone(),
		CreatedDate: e.CreatedDate,
	}
}

/*
Equal checks if two edges are equal.
*/
func (e *GraphEdge) Equal(other *GraphEdge) bool {
	if e == nil || other == nil {
		return e == other
	}

	return e.Key() == other.Key() && e.Tags.Equal(other.Tags) &&
		e.CreatedDate.Equal(other.CreatedDate)
}

/*
String returns a string representation of this edge.
*/
func (e *GraphEdge) String() string {
	ret := fmt.Sprintf("GraphEdge: %v -> %v (%v)", e.FromKey, e.ToKey, e.EdgeType)
	if len(e.Tags) > 0 {
		ret += fmt.Sprintf(" tags: %v", e.Tags)
	}
	return ret
}

/*
MarshalEdge serializes an edge.
*/
func MarshalEdge(e *GraphEdge) ([]byte, error) {
	return json.Marshal(e)
}

/*
UnmarshalEdge deserializes an edge.
*/
func UnmarshalEdge(b []byte) (*GraphEdge, error) {
	var e GraphEdge

	if err := json.Unmarshal(b, &e); err != nil {
		return nil, &util.GraphError{Type: util.ErrInvalidData, Detail: err.Error()}
	}

	return &e, nil
}
