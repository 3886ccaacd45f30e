/*
 * GraphMap
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"devt.de/krotik/graphmap/config"
	"devt.de/krotik/graphmap/graph/util"
	"github.com/krotik/common/httputil"
)

const TESTPORT = ":9090"

var lastRes []string

type testEndpoint struct {
	*DefaultEndpointHandler
}

/*
HandleGET records the resources of a request.
*/
func (te *testEndpoint) HandleGET(w http.ResponseWriter, r *http.Request, resources []string) {
	lastRes = resources
	te.DefaultEndpointHandler.HandleGET(w, r, resources)
}

func (te *testEndpoint) SwaggerDefs(s map[string]interface{}) {
}

var testEndpointMap = map[string]RestEndpointInst{
	"/": func() RestEndpointHandler {
		return &testEndpoint{}
	},
}

func TestEndpointHandling(t *testing.T) {

	hs, wg := startServer()
	if hs == nil {
		return
	}
	defer func() {
		stopServer(hs, wg)
	}()

	queryURL := "http://localhost" + TESTPORT

	RegisterRestEndpoints(testEndpointMap)
	RegisterRestEndpoints(GeneralEndpointMap)

	// Resources are split from the path

	for path, expected := range map[string]string{
		"":          "[]",
		"/foo/bar":  "[foo bar]",
		"/foo/bar/": "[foo bar]",
	} {
		lastRes = nil

		if res := sendTestRequest(queryURL+path, "GET", nil); res != "Method Not Allowed" ||
			fmt.Sprint(lastRes) != expected {
			t.Error("Unexpected response:", path, res, lastRes)
			return
		}
	}

	if res := sendTestRequest(queryURL, "UPDATE", nil); res != "Method Not Allowed" {
		t.Error("Unexpected response:", res)
		return
	}

	// Test about endpoints

	if res := sendTestRequest(queryURL+"/db/about", "GET", nil); res != fmt.Sprintf(`
{
  "api_versions": [
    "v1"
  ],
  "product": "GraphMap",
  "version": "%v"
}`[1:], config.ProductVersion) {
		t.Error("Unexpected response:", res)
		return
	}

	var swagger map[string]interface{}

	res := sendTestRequest(queryURL+"/db/swagger.json", "GET", nil)

	if err := json.Unmarshal([]byte(res), &swagger); err != nil {
		t.Error(err, res)
		return
	}

	info := swagger["info"].(map[string]interface{})
	paths := swagger["paths"].(map[string]interface{})
	defs := swagger["definitions"].(map[string]interface{})

	if swagger["basePath"] != APIRoot || swagger["host"] != "localhost:9090" ||
		info["title"] != "GraphMap API" || paths["/about"] == nil || defs["Error"] == nil {
		t.Error("Unexpected response:", res)
		return
	}
}

func TestResponseHelpers(t *testing.T) {

	for _, test := range []struct {
		err    error
		status int
	}{
		{util.NewGraphError(util.ErrNotFound, "Node a"), http.StatusNotFound},
		{util.NewGraphError(util.ErrIndexError, "Unique index"), http.StatusConflict},
		{util.NewGraphError(util.ErrInvalidData, "Node has no key"), http.StatusBadRequest},
		{util.NewGraphError(util.ErrCorruptedLog, "Bad checksum"), http.StatusServiceUnavailable},
		{fmt.Errorf("Something else"), http.StatusServiceUnavailable},
	} {
		w := httptest.NewRecorder()

		WriteError(w, test.err)

		if w.Code != test.status || strings.TrimSpace(w.Body.String()) != test.err.Error() {
			t.Error("Unexpected result:", w.Code, w.Body.String())
			return
		}
	}

	w := httptest.NewRecorder()

	WriteJSON(w, map[string]interface{}{"lsn": 5})

	if w.Header().Get("content-type") != "application/json; charset=utf-8" ||
		strings.TrimSpace(w.Body.String()) != `{"lsn":5}` {
		t.Error("Unexpected result:", w.Header(), w.Body.String())
		return
	}
}

/*
Send a request to a HTTP test server
*/
func sendTestRequest(url string, method string, content []byte) string {
	body, _ := sendTestRequestResponse(url, method, content)
	return body
}

/*
Send a request to a HTTP test server
*/
func sendTestRequestResponse(url string, method string, content []byte) (string, *http.Response) {
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

	req.Header.Set("Content-Type", "application/json")

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
		return out.String(), resp
	}

	// Just return the body

	return bodyStr, resp
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
