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
Package server contains the code for the GraphMap server.
*/
package server

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"devt.de/krotik/graphmap/api"
	v1 "devt.de/krotik/graphmap/api/v1"
	"devt.de/krotik/graphmap/command"
	"devt.de/krotik/graphmap/config"
	"devt.de/krotik/graphmap/ecal"
	"devt.de/krotik/graphmap/graph"
	"devt.de/krotik/graphmap/storage"
	"devt.de/krotik/graphmap/storage/boltstore"
	"devt.de/krotik/graphmap/storage/sqlitestore"
	"devt.de/krotik/graphmap/trans"
	"github.com/krotik/common/errorutil"
	"github.com/krotik/common/fileutil"
	"github.com/krotik/common/httputil"
	"github.com/krotik/common/lockutil"
	"github.com/krotik/common/logutil"
)

/*
Using custom consolelogger type so we can test log.Fatal calls with unit tests. Overwrite
these if the server should not call os.Exit on a fatal error.
*/
type consolelogger func(v ...interface{})

var fatal = consolelogger(log.Fatal)
var print = consolelogger(log.Print)

/*
Base path for all file (used by unit tests)
*/
var basepath = ""

/*
Names of the datastore files
*/
const (
	boltFile   = "graphmap.db"
	sqliteFile = "graphmap.sqlite"
)

/*
StartServer runs the GraphMap server. The server uses config.Config for all its configuration
parameters.
*/
func StartServer() {
	StartServerWithSingleOp(nil)
}

/*
StartServerWithSingleOp runs the GraphMap server. If the singleOperation function is
not nil then the server executes the function after recovery and exits if the
function returns true.
*/
func StartServerWithSingleOp(singleOperation func(*trans.LogManager, *command.Engine) bool) {
	var err error
	var store storage.Store

	print(fmt.Sprintf("GraphMap %v", config.ProductVersion))

	// Ensure we have a configuration - use the default configuration if nothing was set

	if config.Config == nil {
		config.LoadDefaultConfig()
	}

	if err = setupLogging(); err != nil {
		fatal("Failed to open log file:", err)
		return
	}

	// Create the store

	backend := config.Str(config.StorageBackend)

	if backend == config.BackendMemory {

		print("Starting memory only datastore")

		store = storage.NewMemoryStore(config.BackendMemory)

	} else {

		loc := filepath.Join(basepath, config.Str(config.LocationDatastore))

		print(fmt.Sprintf("Starting datastore (%v) in %v", backend, loc))

		// Ensure path for database exists

		ensurePath(loc)

		switch backend {
		case config.BackendBolt:
			store, err = boltstore.NewBoltStore(filepath.Join(loc, boltFile), config.Str(config.LogScope), false)
		case config.BackendSQLite:
			store, err = sqlitestore.NewSQLiteStore(filepath.Join(loc, sqliteFile))
		default:
			err = fmt.Errorf("Unknown storage backend: %v", backend)
		}

		if err != nil {
			fatal("Failed to open datastore:", err)
			return
		}
	}

	// Create GraphMap and recover its state from the change log

	print("Creating GraphMap instance")

	gm := graph.NewGraphMap()
	gm.SetEdgePolicy(graph.ParseEdgePolicy(config.Str(config.EdgePolicy)))

	lm := trans.NewLogManager(gm, store, config.Str(config.LogScope), config.Bool(config.CompressLog))

	if err = lm.Recovery(context.Background(), ""); err != nil {
		fatal("Failed to recover GraphMap:", err)
		store.Close()
		return
	}

	print(fmt.Sprintf("Recovered %v nodes and %v edges (LSN: %v)",
		gm.NodeCount(), gm.EdgeCount(), gm.LastLSN()))

	api.LM = lm
	api.CE = command.NewEngine(gm, lm)

	defer func() {

		if backend != config.BackendMemory && config.Bool(config.CheckpointOnShutdown) {

			print("Writing checkpoint")

			if err := lm.Checkpoint(context.Background()); err != nil {
				fatal(err)
			}
		}

		print("Closing datastore")

		if err := store.Close(); err != nil {
			fatal(err)
			return
		}

		os.RemoveAll(filepath.Join(basepath, config.Str(config.LockFile)))
	}()

	// Handle single operation - these are operations which work on the GraphMap
	// and then exit.

	if singleOperation != nil && singleOperation(api.LM, api.CE) {
		return
	}

	// Start the ECAL scripting interpreter

	if config.Bool(config.EnableECALScripts) {
		scriptFolder := filepath.Join(basepath, config.Str(config.ECALScriptFolder))

		ensurePath(scriptFolder)

		print("Loading ECAL scripts in ", scriptFolder)

		api.SI = ecal.NewScriptingInterpreter(scriptFolder, api.LM, api.CE)

		if err = api.SI.Run(); err != nil {
			fatal("Failed to start ECAL scripting interpreter:", err)
			return
		}
	}

	api.APIHost = config.Str(config.HTTPHost) + ":" + config.Str(config.HTTPPort)

	// Register REST endpoints

	api.RegisterRestEndpoints(api.GeneralEndpointMap)

	if config.Bool(config.EnableChangeFeed) {
		v1.Feed = v1.NewChangeFeed(api.LM, int(config.Int(config.ChangeFeedMaxClients)))

		defer func() {
			v1.Feed.Close()
			v1.Feed = nil
		}()
	}

	api.RegisterRestEndpoints(v1.V1EndpointMap)

	if config.Bool(config.EnableMetrics) {
		api.HandleFunc(api.EndpointMetrics, api.NewMetrics(api.LM).Handler().ServeHTTP)
	}

	// Register normal web server

	if config.Bool(config.EnableWebFolder) {
		webFolder := filepath.Join(basepath, config.Str(config.LocationWebFolder))

		print("Ensuring web folder: ", webFolder)

		ensurePath(webFolder)

		fs := http.FileServer(http.Dir(webFolder))

		api.HandleFunc("/", fs.ServeHTTP)

		// Write terminal

		if config.Bool(config.EnableWebTerminal) {

			ensurePath(filepath.Join(webFolder, api.APIRoot))

			termFile := filepath.Join(webFolder, api.APIRoot, "term.html")

			print("Ensuring web terminal: ", termFile)

			if res, _ := fileutil.PathExists(termFile); !res {
				errorutil.AssertOk(os.WriteFile(termFile, []byte(TermSRC[1:]), 0644))
			}
		}
	}

	// Start HTTP server and enable REST API

	hs := &httputil.HTTPServer{}

	var wg sync.WaitGroup
	wg.Add(1)

	port := config.Str(config.HTTPPort)

	print("Starting server on: ", api.APIHost)

	go hs.RunHTTPServer(":"+port, &wg)

	// Wait until the server has started

	wg.Wait()

	// HTTP Server has started

	if hs.LastError != nil {
		fatal(hs.LastError)
		return
	}

	// Create a lockfile so the server can be shut down

	lf := lockutil.NewLockFile(filepath.Join(basepath, config.Str(config.LockFile)), time.Duration(2)*time.Second)

	lf.Start()

	go func() {

		// Check if the lockfile watcher is running and
		// call shutdown once it has finished

		for lf.WatcherRunning() {
			time.Sleep(time.Duration(1) * time.Second)
		}

		print("Lockfile was modified")

		hs.Shutdown()
	}()

	// Add to the wait group so we can wait for the shutdown

	wg.Add(1)

	print("Waiting for shutdown")
	wg.Wait()

	print("Shutting down")
}

/*
setupLogging adds a log sink for all GraphMap loggers.
*/
func setupLogging() error {
	var out io.Writer = os.Stderr

	if logFile := config.Str(config.LogFile); logFile != "" {
		f, err := os.OpenFile(filepath.Join(basepath, logFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0660)
		if err != nil {
			return err
		}
		out = f
	}

	level := logutil.StringToLoglevel(config.Str(config.LogLevel))
	if level == "" {
		level = logutil.Info
	}

	logutil.ClearLogSinks()
	logutil.GetLogger("graphmap").AddLogSink(level, logutil.SimpleFormatter(), out)

	return nil
}

/*
ensurePath ensures that a given relative path exists.
*/
func ensurePath(path string) {
	if res, _ := fileutil.PathExists(path); !res {
		if err := os.MkdirAll(path, 0770); err != nil {
			fatal("Could not create directory:", err.Error())
			return
		}
	}
}
