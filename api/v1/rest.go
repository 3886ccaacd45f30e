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
Package v1 contains GraphMap REST API Version 1.

Command endpoint

/command

The command endpoint runs a command text in a single transaction. The text
is sent in the body of a POST request, either as plain text or as a JSON
object of the form { "command" : <text> }. The response contains the ID of
the transaction, the LSN of the GraphMap after the commit, change counts and
the rows of the last select statement.

Node endpoint

/node

The node endpoint returns nodes of the GraphMap. A GET request to /node/
returns a list of nodes which can be filtered by tag (tag=<tag>[=<value>])
and paged with the offset and limit parameters. The total number of nodes is
returned in the X-Total-Count header. A GET request to /node/<key> returns a
single node; /node/<key>/edges returns all edges of the node.

Data endpoint

/data

The data endpoint manages opaque data values. GET /data/ lists all keys,
GET /data/<key> returns a value, PUT /data/<key> stores the request body as
value and DELETE /data/<key> removes a value. Each change runs in its own
transaction.

Info endpoint

/info

The info endpoint returns general information about the GraphMap.

Checkpoint endpoint

/checkpoint

A POST request writes a snapshot of the GraphMap and removes all log entries
which are part of it.

Changes endpoint

/changes

The changes endpoint is a websocket which sends every committed change log
entry to its clients.
*/
package v1

import (
	"net/http"
	"strconv"
	"strings"

	"devt.de/krotik/graphmap/api"
)

/*
APIv1 is the directory for version 1 of the API
*/
const APIv1 = "/v1"

/*
HTTPHeaderTotalCount is a special header value containing the total count of objects.
*/
const HTTPHeaderTotalCount = "X-Total-Count"

/*
V1EndpointMap is a map of urls to endpoints for version 1 of the API
*/
var V1EndpointMap = map[string]api.RestEndpointInst{
	EndpointChanges:    ChangesEndpointInst,
	EndpointCheckpoint: CheckpointEndpointInst,
	EndpointCommand:    CommandEndpointInst,
	EndpointData:       DataEndpointInst,
	EndpointInfoQuery:  InfoEndpointInst,
	EndpointNode:       NodeEndpointInst,
}

// Helper functions
// ================

/*
checkResources check given resources for a GET request.
*/
func checkResources(w http.ResponseWriter, resources []string, requiredMin int, requiredMax int, errorMsg string) bool {
	if len(resources) < requiredMin {
		http.Error(w, errorMsg, http.StatusBadRequest)
		return false
	} else if len(resources) > requiredMax {
		http.Error(w, "Invalid resource specification: "+strings.Join(resources, "/"), http.StatusBadRequest)
		return false
	}
	return true
}

/*
Extract a positive number from a query parameter. Returns -1 and true
if the parameter was not given.
*/
func queryParamPosNum(w http.ResponseWriter, r *http.Request, param string) (int, bool) {

	val := r.URL.Query().Get(param)

	if val == "" {
		return -1, true
	}

	num, err := strconv.Atoi(val)

	if err != nil || num < 0 {
		http.Error(w, "Invalid parameter value: "+param+" should be a positive integer number", http.StatusBadRequest)
		return -1, false
	}

	return num, true
}

/*
swaggerResponses returns the swagger definition of a JSON response with the
default error response.
*/
func swaggerResponses(description string, schema map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"200": map[string]interface{}{
			"description": description,
			"schema":      schema,
		},
		"default": map[string]interface{}{
			"description": "Error response",
			"schema": map[string]interface{}{
				"$ref": "#/definitions/Error",
			},
		},
	}
}
