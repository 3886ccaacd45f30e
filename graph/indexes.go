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
	"sort"
	"strings"

	"devt.de/krotik/graphmap/graph/data"
	"devt.de/krotik/graphmap/graph/util"
)

// Tag index
// =========

/*
tagIndex is an inverted index from tags to node keys. Every tag produces an
entry for its name and, if it has a value, an entry for name=value.
*/
type tagIndex struct {
	entries map[string]map[string]bool
}

func newTagIndex() *tagIndex {
	return &tagIndex{make(map[string]map[string]bool)}
}

/*
tagIndexKeys returns the index keys of a tag.
*/
func tagIndexKeys(tag data.Tag) []string {
	name := util.FoldKey(tag.Key)
	if tag.HasValue {
		return []string{name, name + "=" + tag.Value}
	}
	return []string{name}
}

/*
lookupKey returns the index key of a tag lookup string (tag or tag=value).
*/
func lookupKey(tag string) string {
	t := data.ParseTag(tag)
	if t.HasValue {
		return util.FoldKey(t.Key) + "=" + t.Value
	}
	return util.FoldKey(t.Key)
}

func (ti *tagIndex) add(nodeKey string, tags data.Tags) {
	for _, tag := range tags {
		for _, k := range tagIndexKeys(tag) {
			keys, ok := ti.entries[k]
			if !ok {
				keys = make(map[string]bool)
				ti.entries[k] = keys
			}
			keys[nodeKey] = true
		}
	}
}

func (ti *tagIndex) remove(nodeKey string, tags data.Tags) {
	for _, tag := range tags {
		for _, k := range tagIndexKeys(tag) {
			if keys, ok := ti.entries[k]; ok {
				delete(keys, nodeKey)
				if len(keys) == 0 {
					delete(ti.entries, k)
				}
			}
		}
	}
}

/*
lookup returns the sorted (folded) keys of all nodes which carry a tag.
*/
func (ti *tagIndex) lookup(tag string) []string {
	keys := ti.entries[lookupKey(tag)]

	ret := make([]string, 0, len(keys))
	for k := range keys {
		ret = append(ret, k)
	}
	sort.Strings(ret)

	return ret
}

// Unique index
// ============

/*
uniqueIndex maps (index name, value) pairs to exactly one node key.
*/
type uniqueIndex struct {
	owners map[data.IndexPair]string
	byNode map[string][]data.IndexPair
}

func newUniqueIndex() *uniqueIndex {
	return &uniqueIndex{make(map[data.IndexPair]string), make(map[string][]data.IndexPair)}
}

/*
verify checks that none of the given pairs is owned by another node.
*/
func (ui *uniqueIndex) verify(nodeKey string, pairs []data.IndexPair) error {
	var conflicts []string

	for _, p := range pairs {
		if owner, ok := ui.owners[p]; ok && owner != nodeKey {
			conflicts = append(conflicts, p.String()+" is owned by node "+owner)
		}
	}

	if len(conflicts) > 0 {
		return &util.GraphError{Type: util.ErrConflict,
			Detail: "Unique index violation: " + strings.Join(conflicts, ", ")}
	}

	return nil
}

/*
set replaces all pairs of a node. The pairs must have been verified.
*/
func (ui *uniqueIndex) set(nodeKey string, pairs []data.IndexPair) {
	ui.remove(nodeKey)

	if len(pairs) == 0 {
		return
	}

	for _, p := range pairs {
		ui.owners[p] = nodeKey
	}

	ui.byNode[nodeKey] = append([]data.IndexPair(nil), pairs...)
}

func (ui *uniqueIndex) remove(nodeKey string) {
	for _, p := range ui.byNode[nodeKey] {
		if ui.owners[p] == nodeKey {
			delete(ui.owners, p)
		}
	}
	delete(ui.byNode, nodeKey)
}

func (ui *uniqueIndex) lookup(index string, value string) (string, bool) {
	owner, ok := ui.owners[data.IndexPair{Index: util.FoldKey(index), Value: value}]
	return owner, ok
}

// Referential integrity index
// ===========================

/*
riIndex maps node keys to the keys of all incident edges.
*/
type riIndex struct {
	incidence map[string]map[data.EdgeKey]bool
}

func newRIIndex() *riIndex {
	return &riIndex{make(map[string]map[data.EdgeKey]bool)}
}

func (ri *riIndex) add(key data.EdgeKey) {
	for _, n := range []string{key.From, key.To} {
		edges, ok := ri.incidence[n]
		if !ok {
			edges = make(map[data.EdgeKey]bool)
			ri.incidence[n] = edges
		}
		edges[key] = true
	}
}

func (ri *riIndex) remove(key data.EdgeKey) {
	for _, n := range []string{key.From, key.To} {
		if edges, ok := ri.incidence[n]; ok {
			delete(edges, key)
			if len(edges) == 0 {
				delete(ri.incidence, n)
			}
		}
	}
}

/*
incident returns the sorted keys of all edges of a node.
*/
func (ri *riIndex) incident(nodeKey string) []data.EdgeKey {
	edges := ri.incidence[nodeKey]

	ret := make([]data.EdgeKey, 0, len(edges))
	for k := range edges {
		ret = append(ret, k)
	}

	sortEdgeKeys(ret)

	return ret
}

func sortEdgeKeys(keys []data.EdgeKey) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].From != keys[j].From {
			return keys[i].From < keys[j].From
		}
		if keys[i].To != keys[j].To {
			return keys[i].To < keys[j].To
		}
		return keys[i].Type < keys[j].Type
	})
}
