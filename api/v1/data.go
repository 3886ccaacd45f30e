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
	"context"
	"fmt"
	"io"
	"net/http"

	"devt.de/krotik/graphmap/api"
	"devt.de/krotik/graphmap/trans"
)

/*
EndpointData is the data endpoint URL (rooted). Handles everything under data/...
*/
const EndpointData = api.APIRoot + APIv1 + "/data/"

/*
DataEndpointInst creates a new endpoint handler.
*/
func DataEndpointInst() api.RestEndpointHandler {
	return &dataEndpoint{}
}

/*
Handler object for data values.
*/
type dataEndpoint struct {
	*api.DefaultEndpointHandler
}

/*
HandleGET handles a data value query REST call.
*/
func (de *dataEndpoint) HandleGET(w http.ResponseWriter, r *http.Request, resources []string) {

	if !checkResources(w, resources, 0, 1, "") {
		return
	}

	if len(resources) == 0 {
		keys, err := api.LM.DataKeys(r.Context())

		if err != nil {
			api.WriteError(w, err)
			return
		}

		if keys == nil {
			keys = []string{}
		}

		api.WriteJSON(w, keys)
		return
	}

	value, err := api.LM.GetData(r.Context(), resources[0])

	if err != nil {
		api.WriteError(w, err)
		return
	} else if value == nil {
		http.Error(w, fmt.Sprintf("Unknown data value: %v", resources[0]), http.StatusNotFound)
		return
	}

	w.Header().Set("content-type", "application/octet-stream")
	w.Write(value)
}

/*
HandlePUT handles a REST call to store a data value.
*/
func (de *dataEndpoint) HandlePUT(w http.ResponseWriter, r *http.Request, resources []string) {

	if !checkResources(w, resources, 1, 1, "Need a data key") {
		return
	}

	value, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Could not read request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	de.runTrans(w, r.Context(), func(t *trans.Trans) error {
		return t.PutData(r.Context(), resources[0], value)
	})
}

/*
HandleDELETE handles a REST call to remove a data value.
*/
func (de *dataEndpoint) HandleDELETE(w http.ResponseWriter, r *http.Request, resources []string) {

	if !checkResources(w, resources, 1, 1, "Need a data key") {
		return
	}

	value, err := api.LM.GetData(r.Context(), resources[0])

	if err != nil {
		api.WriteError(w, err)
		return
	} else if value == nil {
		http.Error(w, fmt.Sprintf("Unknown data value: %v", resources[0]), http.StatusNotFound)
		return
	}

	de.runTrans(w, r.Context(), func(t *trans.Trans) error {
		return t.DeleteData(r.Context(), resources[0])
	})
}

/*
runTrans runs a given function in a new transaction and writes the ID of the
transaction and the resulting LSN.
*/
func (de *dataEndpoint) runTrans(w http.ResponseWriter, ctx context.Context, fn func(t *trans.Trans) error) {

	t, err := api.LM.Start(ctx)

	if err == nil {
		if err = fn(t); err == nil {
			err = api.LM.Commit(ctx, t)
		} else {
			api.LM.RollbackTrans(ctx, t)
		}
	}

	if err != nil {
		api.WriteError(w, err)
		return
	}

	api.WriteJSON(w, map[string]interface{}{
		"trans": t.ID(),
		"lsn":   api.LM.LastLSN(),
	})
}

/*
SwaggerDefs is used to describe the endpoint in swagger.
*/
func (de *dataEndpoint) SwaggerDefs(s map[string]interface{}) {

	keyParam := map[string]interface{}{
		"name":        "key",
		"in":          "path",
		"description": "Data key.",
		"required":    true,
		"type":        "string",
	}

	transResult := map[string]interface{}{
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
		},
	}

	s["paths"].(map[string]interface{})["/v1/data"] = map[string]interface{}{
		"get": map[string]interface{}{
			"summary":     "Return all data keys.",
			"description": "Return the keys of all stored data values.",
			"produces": []string{
				"text/plain",
				"application/json",
			},
			"responses": swaggerResponses("A list of keys.",
				map[string]interface{}{
					"type": "array",
					"items": map[string]interface{}{
						"type": "string",
					},
				}),
		},
	}

	s["paths"].(map[string]interface{})["/v1/data/{key}"] = map[string]interface{}{
		"get": map[string]interface{}{
			"summary":     "Return a data value.",
			"description": "Return the raw bytes of a data value.",
			"produces": []string{
				"text/plain",
				"application/octet-stream",
			},
			"parameters": []map[string]interface{}{keyParam},
			"responses": swaggerResponses("The data value.",
				map[string]interface{}{
					"type":   "string",
					"format": "binary",
				}),
		},
		"put": map[string]interface{}{
			"summary":     "Store a data value.",
			"description": "Store the request body as data value. The value is written in its own transaction.",
			"consumes": []string{
				"application/octet-stream",
			},
			"produces": []string{
				"text/plain",
				"application/json",
			},
			"parameters": []map[string]interface{}{keyParam},
			"responses":  swaggerResponses("Transaction information.", transResult),
		},
		"delete": map[string]interface{}{
			"summary":     "Remove a data value.",
			"description": "Remove a data value. The value is removed in its own transaction.",
			"produces": []string{
				"text/plain",
				"application/json",
			},
			"parameters": []map[string]interface{}{keyParam},
			"responses":  swaggerResponses("Transaction information.", transResult),
		},
	}
}
