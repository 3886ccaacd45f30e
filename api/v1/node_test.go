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
	"encoding/json"
	"fmt"
	"testing"
)

/*
nodeKeys returns the keys of a JSON list of nodes.
*/
func nodeKeys(res string) string {
	var nodes []map[string]interface{}
	var keys []interface{}

	json.Unmarshal([]byte(res), &nodes)

	for _, n := range nodes {
		keys = append(keys, n["key"])
	}

	return fmt.Sprint(keys)
}

func TestNode(t *testing.T) {
	queryURL := "http://localhost" + TESTPORT + EndpointNode

	st, header, res := sendTestRequest(queryURL, "GET", nil)

	if st != "200 OK" || nodeKeys(res) != "[a b c]" || header.Get(HTTPHeaderTotalCount) != "3" {
		t.Error("Unexpected response:", st, res)
		return
	}

	st, header, res = sendTestRequest(queryURL+"?offset=1&limit=1", "GET", nil)

	if st != "200 OK" || nodeKeys(res) != "[b]" || header.Get(HTTPHeaderTotalCount) != "3" {
		t.Error("Unexpected response:", st, res)
		return
	}

	st, _, res = sendTestRequest(queryURL+"?offset=3", "GET", nil)

	if st != "400 Bad Request" || res != "Offset exceeds available nodes" {
		t.Error("Unexpected response:", st, res)
		return
	}

	st, _, res = sendTestRequest(queryURL+"?limit=x", "GET", nil)

	if st != "400 Bad Request" || res != "Invalid parameter value: limit should be a positive integer number" {
		t.Error("Unexpected response:", st, res)
		return
	}

	// Filter by tag and by unique index

	st, header, res = sendTestRequest(queryURL+"?tag=color=red", "GET", nil)

	if st != "200 OK" || nodeKeys(res) != "[a c]" || header.Get(HTTPHeaderTotalCount) != "2" {
		t.Error("Unexpected response:", st, res)
		return
	}

	st, _, res = sendTestRequest(queryURL+"?tag=admin", "GET", nil)

	if st != "200 OK" || res != "[]" {
		t.Error("Unexpected response:", st, res)
		return
	}

	st, _, res = sendTestRequest(queryURL+"?index=name&value=Alice", "GET", nil)

	if st != "200 OK" || nodeKeys(res) != "[a]" {
		t.Error("Unexpected response:", st, res)
		return
	}

	st, _, res = sendTestRequest(queryURL+"?index=name&value=Bob", "GET", nil)

	if st != "200 OK" || res != "[]" {
		t.Error("Unexpected response:", st, res)
		return
	}

	// Single nodes

	st, _, res = sendTestRequest(queryURL+"A", "GET", nil)

	if data := decodeJSON(res); st != "200 OK" || data["key"] != "a" ||
		fmt.Sprint(data["tags"]) != "[name=Alice color=red]" ||
		fmt.Sprint(data["indexes"]) != "[name]" {
		t.Error("Unexpected response:", st, res)
		return
	}

	st, _, res = sendTestRequest(queryURL+"x", "GET", nil)

	if st != "404 Not Found" || res != "Unknown node: x" {
		t.Error("Unexpected response:", st, res)
		return
	}

	st, _, res = sendTestRequest(queryURL+"b/edges", "GET", nil)

	var edges []map[string]interface{}
	json.Unmarshal([]byte(res), &edges)

	if st != "200 OK" || len(edges) != 2 || edges[0]["type"] != "knows" {
		t.Error("Unexpected response:", st, res)
		return
	}

	st, _, res = sendTestRequest(queryURL+"b/foo", "GET", nil)

	if st != "400 Bad Request" || res != "Invalid resource specification: foo" {
		t.Error("Unexpected response:", st, res)
		return
	}

	st, _, res = sendTestRequest(queryURL+"b/edges/foo", "GET", nil)

	if st != "400 Bad Request" || res != "Invalid resource specification: b/edges/foo" {
		t.Error("Unexpected response:", st, res)
		return
	}

	st, _, res = sendTestRequest(queryURL+"b", "DELETE", nil)

	if st != "405 Method Not Allowed" {
		t.Error("Unexpected response:", st, res)
		return
	}
}
