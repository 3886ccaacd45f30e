/*
 * GraphMap
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package v1

import (
	"fmt"
	"net/http"
	"strconv"

	"devt.de/krotik/graphmap/api"
	"devt.de/krotik/graphmap/graph"
	"devt.de/krotik/graphmap/graph/data"
)

/*
EndpointNode is the node endpoint URL (rooted). Handles everything under node/...
*/
const EndpointNode = api.APIRoot + APIv1 + "/node/"

/*
NodeEndpointInst creates a new endpoint handler.
*/
func NodeEndpointInst() api.RestEndpointHandler {
	return &nodeEndpoint{}
}

/*
Handler object for node queries.
*/
type nodeEndpoint struct {
	*api.DefaultEndpointHandler
}

/*
HandleGET handles a node query REST call.
*/
func (ne *nodeEndpoint) HandleGET(w http.ResponseWriter, r *http.Request, resources []string) {

	if !checkResources(w, resources, 0, 2, "") {
		return
	}

	gm := api.LM.GraphMap()

	if len(resources) == 0 {
		ne.handleList(w, r, gm)
		return
	}

	node := gm.Node(resources[0])

	if node == nil {
		http.Error(w, fmt.Sprintf("Unknown node: %v", resources[0]), http.StatusNotFound)
		return
	}

	if len(resources) == 1 {
		api.WriteJSON(w, node)
		return
	}

	if resources[1] != "edges" {
		http.Error(w, "Invalid resource specification: "+resources[1], http.StatusBadRequest)
		return
	}

	edges := gm.Edges(node.Key)
	if edges == nil {
		edges = []*data.GraphEdge{}
	}

	api.WriteJSON(w, edges)
}

/*
handleList writes a list of nodes. The list can be filtered by tag or by a
unique index value and is paged with offset and limit.
*/
func (ne *nodeEndpoint) handleList(w http.ResponseWriter, r *http.Request, gm *graph.GraphMap) {
	var nodes []*data.GraphNode

	offset, ok := queryParamPosNum(w, r, "offset")
	if !ok {
		return
	}

	limit, ok := queryParamPosNum(w, r, "limit")
	if !ok {
		return
	}

	query := r.URL.Query()

	if tag := query.Get("tag"); tag != "" {
		nodes = gm.NodesByTag(tag)

	} else if index := query.Get("index"); index != "" {

		gm.View(func(s *graph.Section) error {
			if n := s.NodeByIndex(index, query.Get("value")); n != nil {
				nodes = append(nodes, n)
			}
			return nil
		})

	} else {

		gm.View(func(s *graph.Section) error {
			nodes = s.Nodes()
			return nil
		})
	}

	w.Header().Add(HTTPHeaderTotalCount, strconv.Itoa(len(nodes)))

	if offset > 0 {
		if offset >= len(nodes) {
			http.Error(w, "Offset exceeds available nodes", http.StatusBadRequest)
			return
		}
		nodes = nodes[offset:]
	}

	if limit >= 0 && limit < len(nodes) {
		nodes = nodes[:limit]
	}

	if nodes == nil {
		nodes = []*data.GraphNode{}
	}

	api.WriteJSON(w, nodes)
}

/*
SwaggerDefs is used to describe the endpoint in swagger.
*/
func (ne *nodeEndpoint) SwaggerDefs(s map[string]interface{}) {

	keyParam := map[string]interface{}{
		"name":        "key",
		"in":          "path",
		"description": "Node key.",
		"required":    true,
		"type":        "string",
	}

	s["paths"].(map[string]interface{})["/v1/node"] = map[string]interface{}{
		"get": map[string]interface{}{
			"summary":     "Return a list of nodes.",
			"description": "The node endpoint returns nodes ordered by key. The total number of nodes is returned in the X-Total-Count header.",
			"produces": []string{
				"text/plain",
				"application/json",
			},
			"parameters": []map[string]interface{}{
				{
					"name":        "tag",
					"in":          "query",
					"description": "Only return nodes which carry this tag (tag or tag=value).",
					"required":    false,
					"type":        "string",
				},
				{
					"name":        "index",
					"in":          "query",
					"description": "Return the node which owns a value of this unique index.",
					"required":    false,
					"type":        "string",
				},
				{
					"name":        "value",
					"in":          "query",
					"description": "Unique index value.",
					"required":    false,
					"type":        "string",
				},
				{
					"name":        "offset",
					"in":          "query",
					"description": "Offset in the list of nodes.",
					"required":    false,
					"type":        "integer",
				},
				{
					"name":        "limit",
					"in":          "query",
					"description": "Maximum number of nodes to return.",
					"required":    false,
					"type":        "integer",
				},
			},
			"responses": swaggerResponses("A list of nodes.",
				map[string]interface{}{
					"type": "array",
					"items": map[string]interface{}{
						"$ref": "#/definitions/GraphNode",
					},
				}),
		},
	}

	s["paths"].(map[string]interface{})["/v1/node/{key}"] = map[string]interface{}{
		"get": map[string]interface{}{
			"summary":     "Return a single node.",
			"description": "Return a single node. Keys are compared case-insensitively.",
			"produces": []string{
				"text/plain",
				"application/json",
			},
			"parameters": []map[string]interface{}{keyParam},
			"responses": swaggerResponses("A single node.",
				map[string]interface{}{
					"$ref": "#/definitions/GraphNode",
				}),
		},
	}

	s["paths"].(map[string]interface{})["/v1/node/{key}/edges"] = map[string]interface{}{
		"get": map[string]interface{}{
			"summary":     "Return all edges of a node.",
			"description": "Return all edges which start or end at a node.",
			"produces": []string{
				"text/plain",
				"application/json",
			},
			"parameters": []map[string]interface{}{keyParam},
			"responses": swaggerResponses("A list of edges.",
				map[string]interface{}{
					"type": "array",
					"items": map[string]interface{}{
						"$ref": "#/definitions/GraphEdge",
					},
				}),
		},
	}

	s["definitions"].(map[string]interface{})["GraphNode"] = map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"key": map[string]interface{}{
				"type": "string",
			},
			"tags": map[string]interface{}{
				"description": "Tags of the form name or name=value.",
				"type":        "array",
				"items": map[string]interface{}{
					"type": "string",
				},
			},
			"indexes": map[string]interface{}{
				"description": "Unique index values of the form index=value.",
				"type":        "array",
				"items": map[string]interface{}{
					"type": "string",
				},
			},
			"created": map[string]interface{}{
				"type":   "string",
				"format": "date-time",
			},
		},
	}

	s["definitions"].(map[string]interface{})["GraphEdge"] = map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"from": map[string]interface{}{
				"type": "string",
			},
			"to": map[string]interface{}{
				"type": "string",
			},
			"type": map[string]interface{}{
				"type": "string",
			},
			"tags": map[string]interface{}{
				"type": "array",
				"items": map[string]interface{}{
					"type": "string",
				},
			},
			"created": map[string]interface{}{
				"type":   "string",
				"format": "date-time",
			},
		},
	}
}
