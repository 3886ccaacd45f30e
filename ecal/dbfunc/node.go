/*
 * GraphMap
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package dbfunc

import (
	"fmt"

	"devt.de/krotik/graphmap/graph"
	"devt.de/krotik/graphmap/graph/data"
	"devt.de/krotik/graphmap/graph/util"
	"github.com/krotik/ecal/parser"
)

/*
FetchNodeFunc fetches a node of a GraphMap.
*/
type FetchNodeFunc struct {
	GM *graph.GraphMap
}

/*
Run executes the ECAL function.
*/
func (f *FetchNodeFunc) Run(instanceID string, vs parser.Scope, is map[string]interface{}, tid uint64, args []interface{}) (interface{}, error) {
	var res interface{}
	var err error

	if arglen := len(args); arglen != 1 {
		err = fmt.Errorf("Function requires 1 parameter: node key")
	}

	if err == nil {
		if node := f.GM.Node(fmt.Sprint(args[0])); node != nil {
			res, err = toECALObject(node)
		}
	}

	return res, err
}

/*
DocString returns a descriptive string.
*/
func (f *FetchNodeFunc) DocString() (string, error) {
	return "Fetches a node of the GraphMap.", nil
}

/*
FetchEdgesFunc fetches all edges of a node.
*/
type FetchEdgesFunc struct {
	GM *graph.GraphMap
}

/*
Run executes the ECAL function.
*/
func (f *FetchEdgesFunc) Run(instanceID string, vs parser.Scope, is map[string]interface{}, tid uint64, args []interface{}) (interface{}, error) {
	var err error

	if arglen := len(args); arglen != 1 && arglen != 2 {
		return nil, fmt.Errorf("Function requires 1 or 2 parameters: node key" +
			" and optionally a direction (out, in, both)")
	}

	key := fmt.Sprint(args[0])
	dir := "both"

	if len(args) > 1 {
		if dir = fmt.Sprint(args[1]); dir != "out" && dir != "in" && dir != "both" {
			return nil, fmt.Errorf("Unknown direction: %v", dir)
		}
	}

	var edges []*data.GraphEdge

	for _, e := range f.GM.Edges(key) {
		if out := util.EqualKeys(e.FromKey, key); dir == "both" ||
			(dir == "out" && out) || (dir == "in" && !out) {
			edges = append(edges, e)
		}
	}

	res := make([]interface{}, 0, len(edges))

	for _, e := range edges {
		var obj interface{}

		if obj, err = toECALObject(e); err != nil {
			return nil, err
		}

		res = append(res, obj)
	}

	return res, nil
}

/*
DocString returns a descriptive string.
*/
func (f *FetchEdgesFunc) DocString() (string, error) {
	return "Fetches the edges of a node of the GraphMap.", nil
}

/*
nodeKeys returns the keys of a list of nodes.
*/
func nodeKeys(nodes []*data.GraphNode) []interface{} {
	res := make([]interface{}, 0, len(nodes))
	for _, n := range nodes {
		res = append(res, n.Key)
	}
	return res
}

/*
FindNodesFunc looks up nodes by tag.
*/
type FindNodesFunc struct {
	GM *graph.GraphMap
}

/*
Run executes the ECAL function.
*/
func (f *FindNodesFunc) Run(instanceID string, vs parser.Scope, is map[string]interface{}, tid uint64, args []interface{}) (interface{}, error) {
	if arglen := len(args); arglen != 1 {
		return nil, fmt.Errorf("Function requires 1 parameter: tag or tag=value")
	}

	return nodeKeys(f.GM.NodesByTag(fmt.Sprint(args[0]))), nil
}

/*
DocString returns a descriptive string.
*/
func (f *FindNodesFunc) DocString() (string, error) {
	return "Returns the keys of all nodes which carry a tag.", nil
}
