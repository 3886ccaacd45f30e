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
	"io"
	"net/http"
	"strings"

	"devt.de/krotik/graphmap/api"
	"devt.de/krotik/graphmap/graph/util"
)

/*
EndpointCommand is the command endpoint URL (rooted). Handles everything under command/...
*/
const EndpointCommand = api.APIRoot + APIv1 + "/command/"

/*
CommandEndpointInst creates a new endpoint handler.
*/
func CommandEndpointInst() api.RestEndpointHandler {
	return &commandEndpoint{}
}

/*
Handler object for command texts.
*/
type commandEndpoint struct {
	*api.DefaultEndpointHandler
}

/*
HandlePOST handles a command REST call.
*/
func (ce *commandEndpoint) HandlePOST(w http.ResponseWriter, r *http.Request, resources []string) {

	if !checkResources(w, resources, 0, 0, "") {
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Could not read request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	text := string(body)

	// Accept a JSON object as well as plain text

	if strings.HasPrefix(strings.TrimSpace(text), "{") {
		var data map[string]interface{}

		if err := json.Unmarshal(body, &data); err != nil {
			http.Error(w, "Could not decode request body: "+err.Error(), http.StatusBadRequest)
			return
		}

		cmd, ok := data["command"].(string)
		if !ok {
			http.Error(w, "Request body must contain a command string", http.StatusBadRequest)
			return
		}

		text = cmd
	}

	res := api.CE.Execute(r.Context(), text)

	if res.Status != util.StatusOK {
		http.Error(w, res.Message, api.HTTPStatus(res.Status))
		return
	}

	api.WriteJSON(w, res)
}

/*
SwaggerDefs is used to describe the endpoint in swagger.
*/
func (ce *commandEndpoint) SwaggerDefs(s map[string]interface{}) {

	s["paths"].(map[string]interface{})["/v1/command"] = map[string]interface{}{
		"post": map[string]interface{}{
			"summary":     "Run a command text.",
			"description": "All statements of the command text run in a single transaction. The result contains the rows of the last select statement.",
			"consumes": []string{
				"text/plain",
				"application/json",
			},
			"produces": []string{
				"text/plain",
				"application/json",
			},
			"parameters": []map[string]interface{}{
				{
					"name":        "command",
					"in":          "body",
					"description": "Command text or an object with a command attribute.",
					"required":    true,
					"schema": map[string]interface{}{
						"type": "string",
					},
				},
			},
			"responses": swaggerResponses("The result of the command text.",
				map[string]interface{}{
					"$ref": "#/definitions/CommandResult",
				}),
		},
	}

	s["definitions"].(map[string]interface{})["CommandResult"] = map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"trans": map[string]interface{}{
				"description": "ID of the transaction.",
				"type":        "string",
			},
			"lsn": map[string]interface{}{
				"description": "Log sequence number after the commit.",
				"type":        "integer",
			},
			"columns": map[string]interface{}{
				"description": "Columns of the last select statement.",
				"type":        "array",
				"items": map[string]interface{}{
					"type": "string",
				},
			},
			"rows": map[string]interface{}{
				"description": "Rows of the last select statement.",
				"type":        "array",
				"items": map[string]interface{}{
					"type": "array",
					"items": map[string]interface{}{
						"type": "string",
					},
				},
			},
			"stats": map[string]interface{}{
				"description": "Number of created, updated and deleted nodes and edges.",
				"type":        "object",
			},
		},
	}

	// Add generic error object to definition

	s["definitions"].(map[string]interface{})["Error"] = map[string]interface{}{
		"description": "A human readable error mesage.",
		"type":        "string",
	}
}
