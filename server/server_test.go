/*
 * GraphMap
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package server

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"runtime"
	"strings"
	"testing"
	"time"

	"devt.de/krotik/graphmap/command"
	"devt.de/krotik/graphmap/config"
	"devt.de/krotik/graphmap/graph/util"
	"devt.de/krotik/graphmap/trans"
	"github.com/krotik/common/fileutil"
)

/*
Flag to enable / disable long running tests.
(Only used for test development - should never be false)
*/
const RunLongRunningTests = true

const testdb = "testdb"

const invalidFileName = "**" + string(rune(0x0))

var printLog = []string{}
var errorLog = []string{}

var printLogging = false

func TestMain(m *testing.M) {
	flag.Parse()

	basepath = testdb + "/"

	// Log all print and error messages

	print = func(v ...interface{}) {
		if printLogging {
			fmt.Println(v...)
		}
		printLog = append(printLog, fmt.Sprint(v...))
	}
	fatal = func(v ...interface{}) {
		if printLogging {
			fmt.Println(v...)
		}
		errorLog = append(errorLog, fmt.Sprint(v...))
	}

	defer func() {
		fatal = log.Fatal
		basepath = ""
	}()

	if res, _ := fileutil.PathExists(testdb); res {
		if err := os.RemoveAll(testdb); err != nil {
			fmt.Print("Could not remove test directory:", err.Error())
		}
	}

	ensurePath(testdb)

	// Run the tests

	res := m.Run()

	if res, _ := fileutil.PathExists(testdb); res {
		if err := os.RemoveAll(testdb); err != nil {
			fmt.Print("Could not remove test directory:", err.Error())
		}
	}

	os.Exit(res)
}

/*
resetTestDB removes all files of a test and resets the logs.
*/
func resetTestDB() {
	if err := os.RemoveAll(testdb); err != nil {
		fmt.Print("Could not remove test directory:", err.Error())
	}
	time.Sleep(time.Duration(100) * time.Millisecond)
	ensurePath(testdb)

	printLog = []string{}
	errorLog = []string{}
}

func TestMainNormalCase(t *testing.T) {

	if !RunLongRunningTests {
		return
	}

	// Make sure to reset the DefaultServeMux

	defer func() { http.DefaultServeMux = http.NewServeMux() }()

	defer resetTestDB()

	resetTestDB()

	errorChan := make(chan error)

	// Load default configuration

	config.LoadDefaultConfig()

	config.Config[config.LogLevel] = "error"

	// Kick off main function

	go func() {
		_, err := runServer()
		errorChan <- err
	}()

	// Wait until the server answers and run a command

	var resp *http.Response
	var err error

	for i := 0; i < 50; i++ {
		time.Sleep(time.Duration(100) * time.Millisecond)

		resp, err = http.Post("http://localhost:9090/db/v1/command/", "text/plain",
			bytes.NewBufferString("add node key=a set name=Alice; add node key=b; add edge from=a to=b type=knows"))

		if err == nil {
			break
		}
	}

	if err != nil {
		t.Error("Server did not answer:", err)
		return
	}

	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"nodes_created":2`) {
		t.Error("Unexpected response:", resp.Status, string(body))
		return
	}

	// Metrics are available

	resp, err = http.Get("http://localhost:9090/metrics")
	if err != nil {
		t.Error("Unexpected result:", err)
		return
	}

	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()

	if !strings.Contains(string(body), "graphmap_nodes 2") {
		t.Error("Unexpected response:", string(body))
		return
	}

	// To exit the main function the lock watcher thread
	// has to recognise that the lockfile was modified

	shutdown := false

	go func() {
		filename := basepath + config.Str(config.LockFile)

		for !shutdown {

			// Do a normal shutdown with a log file - don't check for errors

			shutdownWithLogFile(filename)

			time.Sleep(time.Duration(200) * time.Millisecond)
		}
	}()

	// Wait for the main function to end

	if err := <-errorChan; err != nil || len(errorLog) != 0 {
		t.Error("Unexpected ending of main thread:", err, errorLog)
		return
	}

	shutdown = true

	// Check the print log

	logString := strings.Join(printLog, "\n")

	if runtime.GOOS == "windows" {

		// Very primitive but good enough

		logString = strings.Replace(logString, "\\", "/", -1)
	}

	if logString != `
GraphMap `[1:]+config.ProductVersion+`
Starting datastore (bolt) in testdb/db
Creating GraphMap instance
Recovered 0 nodes and 0 edges (LSN: 0)
Ensuring web folder: testdb/web
Ensuring web terminal: testdb/web/db/term.html
Starting server on: localhost:9090
Waiting for shutdown
Lockfile was modified
Shutting down
Writing checkpoint
Closing datastore` {
		t.Error("Unexpected log:", logString)
		return
	}

	if res, _ := fileutil.PathExists(testdb + "/web/db/term.html"); !res {
		t.Error("Web terminal was not written")
		return
	}

	// The GraphMap is recovered from the checkpoint

	printLog = []string{}

	var nodes, edges int

	StartServerWithSingleOp(func(lm *trans.LogManager, e *command.Engine) bool {
		nodes = lm.GraphMap().NodeCount()
		edges = lm.GraphMap().EdgeCount()
		return true
	})

	if nodes != 2 || edges != 1 || len(errorLog) != 0 ||
		!strings.Contains(strings.Join(printLog, "\n"), "Recovered 2 nodes and 1 edges (LSN: 3)") {
		t.Error("Unexpected result:", nodes, edges, printLog, errorLog)
		return
	}
}

func TestSingleOperation(t *testing.T) {

	defer resetTestDB()

	resetTestDB()

	config.LoadDefaultConfig()

	config.Config[config.LogLevel] = "error"
	config.Config[config.StorageBackend] = config.BackendSQLite
	config.Config[config.CheckpointOnShutdown] = false

	// Changes of a single operation are kept in the log

	StartServerWithSingleOp(func(lm *trans.LogManager, e *command.Engine) bool {
		if res := e.Execute(context.Background(), "add node key=a; add node key=b"); res.Status != util.StatusOK {
			t.Error("Unexpected result:", res)
		}
		return true
	})

	var keys string

	StartServerWithSingleOp(func(lm *trans.LogManager, e *command.Engine) bool {
		keys = fmt.Sprint(e.Execute(context.Background(), "select ()").Rows)
		return true
	})

	if keys != "[[a] [b]]" || len(errorLog) != 0 {
		t.Error("Unexpected result:", keys, errorLog)
		return
	}

	if !strings.Contains(strings.Join(printLog, "\n"), "Starting datastore (sqlite) in testdb/db") {
		t.Error("Unexpected log:", printLog)
		return
	}

	// Memory only datastores start empty

	config.Config[config.StorageBackend] = config.BackendMemory

	var count = -1

	StartServerWithSingleOp(func(lm *trans.LogManager, e *command.Engine) bool {
		count = lm.GraphMap().NodeCount()
		return true
	})

	if count != 0 || len(errorLog) != 0 {
		t.Error("Unexpected result:", count, errorLog)
		return
	}

	config.Config = nil
}

func TestMainErrorCases(t *testing.T) {

	// Make sure to reset the DefaultServeMux

	defer func() { http.DefaultServeMux = http.NewServeMux() }()

	defer resetTestDB()

	resetTestDB()

	config.LoadDefaultConfig()

	config.Config[config.LogLevel] = "error"

	// Unknown backend

	config.Config[config.StorageBackend] = "foo"

	StartServer()

	if len(errorLog) != 1 || errorLog[0] != "Failed to open datastore:Unknown storage backend: foo" {
		t.Error("Unexpected error:", errorLog)
		return
	}

	errorLog = []string{}

	// Test db access error

	config.Config[config.StorageBackend] = config.BackendBolt
	config.Config[config.LocationDatastore] = invalidFileName

	StartServer()

	if len(errorLog) != 2 ||
		!strings.Contains(errorLog[0], "Could not create directory") ||
		!strings.Contains(errorLog[1], "Failed to open datastore") {
		t.Error("Unexpected error:", errorLog)
		return
	}

	errorLog = []string{}

	// Invalid log file

	config.Config[config.LocationDatastore] = "db"
	config.Config[config.LogFile] = invalidFileName

	StartServer()

	if len(errorLog) != 1 || !strings.Contains(errorLog[0], "Failed to open log file") {
		t.Error("Unexpected error:", errorLog)
		return
	}

	config.Config = nil
}

func shutdownWithLogFile(filename string) error {

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0660)
	defer file.Close()
	if err != nil {
		fmt.Println(errorLog)
		return err
	}

	_, err = file.Write([]byte("a"))
	if err != nil {
		return err
	}

	return nil
}

/*
Run the server and capture the output.
*/
func runServer() (string, error) {

	defer func() {
		if r := recover(); r != nil {
			fmt.Println("Server execution caused a panic.")
			out, err := os.ReadFile("out.txt")
			if err != nil {
				fmt.Println(err)
			}
			fmt.Println(out)
		}
	}()

	// Exchange stderr to a file

	origStdErr := os.Stderr

	outFile, err := os.Create("out.txt")
	if err != nil {
		return "", err
	}
	defer func() {
		outFile.Close()
		os.RemoveAll("out.txt")

		// Put Stderr back

		os.Stderr = origStdErr
		log.SetOutput(os.Stderr)
	}()

	os.Stderr = outFile
	log.SetOutput(outFile)

	StartServer()

	// Reset flags

	outFile.Sync()

	out, err := os.ReadFile("out.txt")
	if err != nil {
		return "", err
	}

	return string(out), nil
}
