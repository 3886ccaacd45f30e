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
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"

	"devt.de/krotik/graphmap/api"
	"devt.de/krotik/graphmap/command"
	"devt.de/krotik/graphmap/graph"
	"devt.de/krotik/graphmap/graph/util"
	"devt.de/krotik/graphmap/storage"
	"devt.de/krotik/graphmap/trans"
	"github.com/krotik/common/httputil"
)

const TESTPORT = ":9091"

// Main function for all tests in this package

func TestMain(m *testing.M) {
	flag.Parse()

	gm := graph.NewGraphMap()
	api.LM = trans.NewLogManager(gm, storage.NewMemoryStore("test"), "", false)
	api.CE = command.NewEngine(gm, api.LM)

	if res := api.CE.Execute(context.Background(), `
add node key=a set name=Alice, color=red index name;
add node key=b set name=Bob, color=blue;
add node key=c set name=Carol, color=red;
add edge from=a to=b type=knows;
add edge from=b to=c type=knows;
`); res.Status != util.StatusOK {
		panic(res.String())
	}

	Feed = NewChangeFeed(api.LM, 2)

	hs, wg := startServer()
	if hs == nil {
		return
	}

	// Register endpoints for version 1

	api.RegisterRestEndpoints(V1EndpointMap)

	// Run the tests

	res := m.Run()

	// Teardown

	stopServer(hs, wg)

	Feed.Close()

	os.Exit(res)
}

func TestSwaggerDefs(t *testing.T) {

	// Test we can build swagger defs from the endpoint

	data := map[string]interface{}{
		"paths":       map[string]interface{}{},
		"definitions": map[string]interface{}{},
	}

	for _, inst := range V1EndpointMap {
		inst().SwaggerDefs(data)
	}

	paths := data["paths"].(map[string]interface{})

	for _, p := range []string{"/v1/command", "/v1/node", "/v1/node/{key}",
		"/v1/node/{key}/edges", "/v1/data", "/v1/data/{key}", "/v1/info",
		"/v1/checkpoint"} {

		if _, ok := paths[p]; !ok {
			t.Error("Missing swagger path:", p)
			return
		}
	}
}

/*
Send a request to a HTTP test server
*/
func sendTestRequest(url string, method string, content []byte) (string, http.Header, string) {
	var req *http.Request
	var err error

	if content != nil {
		req, err = http.NewRequest(method, url, bytes.NewBuffer(content))
	} else {
		req, err = http.NewRequest(method, url, nil)
	}
	if err != nil {
		panic(err)
	}

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		panic(err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	bodyStr := strings.Trim(string(body), " \n")

	// Try json decoding first

	out := bytes.Buffer{}
	err = json.Indent(&out, []byte(bodyStr), "", "  ")
	if err == nil {
		return resp.Status, resp.Header, out.String()
	}

	// Just return the body

	return resp.Status, resp.Header, bodyStr
}

/*
decodeJSON decodes a JSON response.
*/
func decodeJSON(res string) map[string]interface{} {
	var ret map[string]interface{}
	json.Unmarshal([]byte(res), &ret)
	return ret
}

/*
Start a HTTP test server.
*/
func startServer() (*httputil.HTTPServer, *sync.WaitGroup) {
	hs := &httputil.HTTPServer{}

	var wg sync.WaitGroup
	wg.Add(1)

	go hs.RunHTTPServer(TESTPORT, &wg)

	wg.Wait()

	// Server is started

	if hs.LastError != nil {
		panic(hs.LastError)
	}

	return hs, &wg
}

/*
Stop a started HTTP test server.
*/
func stopServer(hs *httputil.HTTPServer, wg *sync.WaitGroup) {

	if hs.Running == true {

		wg.Add(1)

		// Server is shut down

		hs.Shutdown()

		wg.Wait()

	} else {

		panic("Server was not running as expected")
	}
}
