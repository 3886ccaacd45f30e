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
	"net/http"

	"devt.de/krotik/graphmap/api"
)

/*
EndpointInfoQuery is the info endpoint URL (rooted). Handles everything under info/...
*/
const EndpointInfoQuery = api.APIRoot + APIv1 + "/info/"

/*
InfoEndpointInst creates a new endpoint handler.
*/
func InfoEndpointInst() api.RestEndpointHandler {
	return &infoEndpoint{}
}

/*
Handler object for info queries.
*/
type infoEndpoint struct {
	*api.DefaultEndpointHandler
}

/*
HandleGET handles a info query REST call.
*/
func (ie *infoEndpoint) HandleGET(w http.ResponseWriter, r *http.Request, resources []string) {

	if !checkResources(w, resources, 0, 0, "") {
		return
	}

	gm := api.LM.GraphMap()
	stats := api.LM.Stats()

	data := map[string]interface{}{
		"nodes":        gm.NodeCount(),
		"edges":        gm.EdgeCount(),
		"lsn":          api.LM.LastLSN(),
		"scope":        api.LM.Scope(),
		"graph_rules":  gm.GraphRules(),
		"scripting":    api.SI != nil,
		"feed_clients": 0,
		"transactions": map[string]interface{}{
			"committed":   stats.Committed,
			"rolled_back": stats.RolledBack,
			"recovered":   stats.Recovered,
		},
	}

	if Feed != nil {
		data["feed_clients"] = Feed.Count()
	}

	api.WriteJSON(w, data)
}

/*
SwaggerDefs is used to describe the endpoint in swagger.
*/
func (ie *infoEndpoint) SwaggerDefs(s map[string]interface{}) {

	s["paths"].(map[string]interface{})["/v1/info"] = map[string]interface{}{
		"get": map[string]interface{}{
			"summary":     "Return general GraphMap information.",
			"description": "The info endpoint returns general information such as the number of nodes and edges, the last LSN and transaction statistics.",
			"produces": []string{
				"text/plain",
				"application/json",
			},
			"responses": swaggerResponses("A key-value map.",
				map[string]interface{}{
					"type": "object",
				}),
		},
	}

	// Add generic error object to definition

	s["definitions"].(map[string]interface{})["Error"] = map[string]interface{}{
		"description": "A human readable error mesage.",
		"type":        "string",
	}
}
