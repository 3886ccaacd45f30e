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
EndpointCheckpoint is the checkpoint endpoint URL (rooted). Handles everything under checkpoint/...
*/
const EndpointCheckpoint = api.APIRoot + APIv1 + "/checkpoint/"

/*
CheckpointEndpointInst creates a new endpoint handler.
*/
func CheckpointEndpointInst() api.RestEndpointHandler {
	return &checkpointEndpoint{}
}

/*
Handler object for checkpoints.
*/
type checkpointEndpoint struct {
	*api.DefaultEndpointHandler
}

/*
HandlePOST writes a checkpoint.
*/
func (ce *checkpointEndpoint) HandlePOST(w http.ResponseWriter, r *http.Request, resources []string) {

	if !checkResources(w, resources, 0, 0, "") {
		return
	}

	if err := api.LM.Checkpoint(r.Context()); err != nil {
		api.WriteError(w, err)
		return
	}

	api.WriteJSON(w, map[string]interface{}{
		"lsn": api.LM.GraphMap().LastLSN(),
	})
}

/*
SwaggerDefs is used to describe the endpoint in swagger.
*/
func (ce *checkpointEndpoint) SwaggerDefs(s map[string]interface{}) {

	s["paths"].(map[string]interface{})["/v1/checkpoint"] = map[string]interface{}{
		"post": map[string]interface{}{
			"summary":     "Write a checkpoint.",
			"description": "Write a snapshot of the GraphMap and remove all log entries which are part of it.",
			"produces": []string{
				"text/plain",
				"application/json",
			},
			"responses": swaggerResponses("LSN of the checkpoint.",
				map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"lsn": map[string]interface{}{
							"type": "integer",
						},
					},
				}),
		},
	}
}
