/*
 * GraphMap
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package console

import (
	"bytes"
	"context"
	"flag"
	"os"
	"strings"
	"sync"
	"testing"

	"devt.de/krotik/graphmap/api"
	v1 "devt.de/krotik/graphmap/api/v1"
	"devt.de/krotik/graphmap/command"
	"devt.de/krotik/graphmap/config"
	"devt.de/krotik/graphmap/graph"
	"devt.de/krotik/graphmap/graph/util"
	"devt.de/krotik/graphmap/storage"
	"devt.de/krotik/graphmap/trans"
	"github.com/krotik/common/httputil"
)

const TESTPORT = ":9092"

/*
ResetDB creates a new GraphMap with two nodes, one edge and one data value.
*/
func ResetDB() {
	gm := graph.NewGraphMap()

	api.LM = trans.NewLogManager(gm, storage.NewMemoryStore("test"), "main", false)
	api.CE = command.NewEngine(gm, api.LM)

	if res := api.CE.Execute(context.Background(), `
add node key=a set name=Alice;
add node key=b set name=Bob;
add edge from=a to=b type=knows;
`); res.Status != util.StatusOK {
		panic(res.String())
	}

	t, _ := api.LM.Start(context.Background())
	t.PutData(context.Background(), "greeting", []byte("hello"))

	if err := api.LM.Commit(context.Background(), t); err != nil {
		panic(err)
	}
}

func TestMain(m *testing.M) {
	flag.Parse()

	// Initialise config

	config.LoadDefaultConfig()

	// Initialise DB

	ResetDB()

	// Start the server

	hs, wg := startServer()
	if hs == nil {
		return
	}

	// Register endpoints

	api.RegisterRestEndpoints(api.GeneralEndpointMap)
	api.RegisterRestEndpoints(v1.V1EndpointMap)

	// Run the tests

	res := m.Run()

	// Stop the server

	stopServer(hs, wg)

	os.Exit(res)
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

func TestDescriptions(t *testing.T) {
	var out bytes.Buffer

	c := NewConsole("http://localhost"+TESTPORT, &out,
		func(args []string, e *bytes.Buffer) error {
			return nil
		})

	for _, cmd := range c.Commands() {
		if ok, err := c.Run("help " + cmd.Name()); !ok || err != nil {
			t.Error(ok, err)
			return
		}
	}

	if res := out.String(); res != `
Writes a snapshot of the GraphMap to the datastore and truncates the change log.
Lists all data keys if called without parameters. Shows the value of a data key if the key is given as parameter.
Exports the data which is currently in the export buffer. The export buffer is filled with the previous command output in a machine readable form.
Display descriptions for all available commands.
Returns general GraphMap information such as the number of nodes and edges, the last LSN and transaction statistics.
Shows the tags of a node and all its edges. Requires the node key as parameter.
Stores a data value under a given key. Requires the key and the value as parameters. The value is removed if only the key is given.
Displays server version information.
`[1:] {
		t.Error("Unexpected result:", res)
		return
	}

	out.Reset()

	if ok, err := c.Run("help foo"); ok || err == nil || err.Error() != "Unknown command: foo" {
		t.Error(ok, err)
		return
	}
}

func TestBaseCommands(t *testing.T) {
	var out bytes.Buffer
	var export bytes.Buffer

	ResetDB()

	c := NewConsole("http://localhost"+TESTPORT, &out,
		func(args []string, e *bytes.Buffer) error {
			export = *e
			return nil
		})

	if ok, err := c.Run("ver"); !ok || err != nil {
		t.Error(ok, err)
		return
	}

	if res := out.String(); res != `
Connected to: http://localhost`[1:]+TESTPORT+`
GraphMap `+config.ProductVersion+` (REST versions: [v1])
` {
		t.Error("Unexpected result:", res)
		return
	}

	out.Reset()

	if ok, err := c.Run("help"); !ok || err != nil {
		t.Error(ok, err)
		return
	}

	if res := out.String(); res != `
┌───────────┬─────────────────────────────────────────────────┐
│Command    │Description                                      │
├───────────┼─────────────────────────────────────────────────┤
│checkpoint │Writes a checkpoint of the GraphMap.             │
│data       │Lists data keys or shows a data value.           │
│export     │Exports the last output.                         │
│help       │Display descriptions for all available commands. │
│info       │Returns general GraphMap information.            │
│node       │Shows a node and its edges.                      │
│store      │Stores or removes a data value.                  │
│ver        │Displays server version information.             │
└───────────┴─────────────────────────────────────────────────┘
`[1:] {
		t.Error("Unexpected result:", res)
		return
	}

	out.Reset()

	if ok, err := c.Run("?; foo"); ok || err == nil || err.Error() != "Unknown command" {
		t.Error(ok, err)
		return
	}

	out.Reset()

	if ok, err := c.Run("info"); !ok || err != nil {
		t.Error(ok, err)
		return
	}

	if res := out.String(); res != `
┌─────────────┬──────┐
│Property     │Value │
├─────────────┼──────┤
│Nodes        │2     │
│Edges        │1     │
│LSN          │4     │
│Scope        │main  │
│Feed clients │0     │
│Committed    │2     │
│Rolled back  │0     │
│Recovered    │0     │
└─────────────┴──────┘
`[1:] {
		t.Error("Unexpected result:", res)
		return
	}

	if ok, err := c.Run("export"); !ok || err != nil {
		t.Error(ok, err)
		return
	}

	if res := export.String(); res != `
Property, Value
Nodes, 2
Edges, 1
LSN, 4
Scope, main
Feed clients, 0
Committed, 2
Rolled back, 0
Recovered, 0
`[1:] {
		t.Error("Unexpected result:", res)
		return
	}

	out.Reset()

	if ok, err := c.Run("checkpoint"); !ok || err != nil {
		t.Error(ok, err)
		return
	}

	if res := out.String(); res != "Checkpoint written (LSN: 4)\n" {
		t.Error("Unexpected result:", res)
		return
	}
}

func TestNodeAndDataCommands(t *testing.T) {
	var out bytes.Buffer

	ResetDB()

	c := NewConsole("http://localhost"+TESTPORT, &out, nil)

	// Export is not available without an export function

	if ok, err := c.Run("export"); ok || err == nil || err.Error() != "Unknown command" {
		t.Error(ok, err)
		return
	}

	if ok, err := c.Run("node a"); !ok || err != nil {
		t.Error(ok, err)
		return
	}

	if res := out.String(); res != `
┌────┬───────────┐
│Key │Tags       │
├────┼───────────┤
│a   │name=Alice │
└────┴───────────┘
┌─────┬───┬──────┬─────┐
│From │To │Type  │Tags │
├─────┼───┼──────┼─────┤
│a    │b  │knows │     │
└─────┴───┴──────┴─────┘
`[1:] {
		t.Error("Unexpected result:", res)
		return
	}

	if ok, err := c.Run("node"); !ok || err == nil || err.Error() != "Please specify a node key" {
		t.Error(ok, err)
		return
	}

	if ok, err := c.Run("node x"); !ok || err == nil ||
		err.Error() != "GET request to /db/v1/node/x failed: Unknown node: x" {
		t.Error(ok, err)
		return
	}

	out.Reset()

	if ok, err := c.Run("store color blue green"); !ok || err != nil {
		t.Error(ok, err)
		return
	}

	if res := out.String(); !strings.HasPrefix(res, "Transaction ") ||
		!strings.HasSuffix(res, " committed (LSN: 5)\n") {
		t.Error("Unexpected result:", res)
		return
	}

	out.Reset()

	if ok, err := c.Run("data"); !ok || err != nil {
		t.Error(ok, err)
		return
	}

	if res := out.String(); res != `
┌─────────┐
│Key      │
├─────────┤
│color    │
│greeting │
└─────────┘
`[1:] {
		t.Error("Unexpected result:", res)
		return
	}

	out.Reset()

	if ok, err := c.Run("data color"); !ok || err != nil {
		t.Error(ok, err)
		return
	}

	if res := out.String(); res != "blue green\n" {
		t.Error("Unexpected result:", res)
		return
	}

	out.Reset()

	if ok, err := c.Run("store color"); !ok || err != nil {
		t.Error(ok, err)
		return
	}

	if ok, err := c.Run("data color"); !ok || err == nil ||
		err.Error() != "GET request to /db/v1/data/color failed: Unknown data value: color" {
		t.Error(ok, err)
		return
	}

	if ok, err := c.Run("store"); !ok || err == nil || err.Error() != "Please specify a data key and a value" {
		t.Error(ok, err)
		return
	}
}

func TestCommandText(t *testing.T) {
	var out bytes.Buffer
	var export bytes.Buffer

	ResetDB()

	c := NewConsole("http://localhost"+TESTPORT, &out,
		func(args []string, e *bytes.Buffer) error {
			export = *e
			return nil
		})

	// Statement separators are part of the command text

	if ok, err := c.Run("add node key=c set name=Carol; add edge from=b to=c type=knows"); !ok || err != nil {
		t.Error(ok, err)
		return
	}

	if res := out.String(); res != "Nodes: +1 ~0 -0 Edges: +1 ~0 -0 (LSN: 6)\n" {
		t.Error("Unexpected result:", res)
		return
	}

	out.Reset()

	if ok, err := c.Run("select () return key, name"); !ok || err != nil {
		t.Error(ok, err)
		return
	}

	if res := out.String(); res != `
┌────┬──────┐
│key │name  │
├────┼──────┤
│a   │Alice │
│b   │Bob   │
│c   │Carol │
└────┴──────┘
Nodes: +0 ~0 -0 Edges: +0 ~0 -0 (LSN: 6)
`[1:] {
		t.Error("Unexpected result:", res)
		return
	}

	if ok, err := c.Run("export"); !ok || err != nil {
		t.Error(ok, err)
		return
	}

	if res := export.String(); res != `
key, name
a, Alice
b, Bob
c, Carol
`[1:] {
		t.Error("Unexpected result:", res)
		return
	}

	if ok, err := c.Run("add node key=a"); !ok || err == nil ||
		err.Error() != "POST request to /db/v1/command/ failed: GraphError: Conflict (Node a exists already)" {
		t.Error(ok, err)
		return
	}

	if !cmdStartsWithKeyword("select;", commandTextKeywords) ||
		cmdStartsWithKeyword("selection", commandTextKeywords) ||
		cmdStartsWithKeyword("", commandTextKeywords) {
		t.Error("Unexpected keyword detection")
		return
	}
}
