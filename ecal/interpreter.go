/*
 * GraphMap
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package ecal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"devt.de/krotik/graphmap/command"
	"devt.de/krotik/graphmap/config"
	"devt.de/krotik/graphmap/ecal/dbfunc"
	"devt.de/krotik/graphmap/trans"
	"github.com/krotik/common/datautil"
	"github.com/krotik/common/fileutil"
	"github.com/krotik/common/stringutil"
	"github.com/krotik/ecal/cli/tool"
	ecalconfig "github.com/krotik/ecal/config"
	"github.com/krotik/ecal/engine"
	"github.com/krotik/ecal/scope"
	"github.com/krotik/ecal/stdlib"
	"github.com/krotik/ecal/util"
)

/*
ScriptingInterpreter models a ECAL script interpreter instance.
*/
type ScriptingInterpreter struct {
	LM          *trans.LogManager    // Transaction provider of the GraphMap
	Engine      *command.Engine      // Command engine for the GraphMap
	Interpreter *tool.CLIInterpreter // ECAL Interpreter object

	Dir       string // Root dir for interpreter
	EntryFile string // Entry file for the program
	LogLevel  string // Log level string (Debug, Info, Error)
	LogFile   string // Logfile (blank for stdout)

	RunDebugServer  bool   // Run a debug server
	DebugServerHost string // Debug server host
	DebugServerPort string // Debug server port

	WebsocketConnections *datautil.MapCache // Connected change feed websockets

	bridge *EventBridge // Bridge for committed change log entries
}

/*
NewScriptingInterpreter returns a new ECAL scripting interpreter.
*/
func NewScriptingInterpreter(scriptFolder string, lm *trans.LogManager, e *command.Engine) *ScriptingInterpreter {
	return &ScriptingInterpreter{
		LM:                   lm,
		Engine:               e,
		Dir:                  scriptFolder,
		EntryFile:            filepath.Join(scriptFolder, config.Str(config.ECALEntryScript)),
		LogLevel:             config.Str(config.ECALLogLevel),
		LogFile:              config.Str(config.ECALLogFile),
		RunDebugServer:       config.Bool(config.EnableECALDebugServer),
		DebugServerHost:      config.Str(config.ECALDebugServerHost),
		DebugServerPort:      config.Str(config.ECALDebugServerPort),
		WebsocketConnections: datautil.NewMapCache(uint64(config.Int(config.ChangeFeedMaxClients)), 0),
	}
}

/*
dummyEntryFile is a small valid ECAL which does not do anything. It is used
as the default entry file if no entry file exists.
*/
const dummyEntryFile = `0 # Write your ECAL code here
`

/*
Run runs the ECAL scripting interpreter.

After this function completes:
- EntryScript in config and all related scripts in the interpreter root dir have been executed
- ECAL Interpreter object is fully initialized
- A debug server might be running which can reload the entry script
- ECAL's event processor has been started
- Committed change log entries are being forwarded to ECAL
*/
func (si *ScriptingInterpreter) Run() error {
	var err error

	// Ensure we have a dummy entry point

	if ok, _ := fileutil.PathExists(si.EntryFile); !ok {
		err = os.WriteFile(si.EntryFile, []byte(dummyEntryFile), 0600)
	}

	if err == nil {
		i := tool.NewCLIInterpreter()
		si.Interpreter = i

		// Set worker count in ecal config

		ecalconfig.Config[ecalconfig.WorkerCount] = config.Config[config.ECALWorkerCount]

		i.Dir = &si.Dir
		i.LogFile = &si.LogFile
		i.LogLevel = &si.LogLevel

		i.EntryFile = si.EntryFile

		i.CreateRuntimeProvider("graphmap-runtime")

		AddGraphMapStdlibFunctions(si.LM, si.Engine)

		sockRule := &engine.Rule{
			Name:            "GraphMap-websocket-communication-rule",      // Name
			Desc:            "Sends a message to a change feed websocket", // Description
			KindMatch:       []string{"db.web.sock.msg"},                  // Kind match
			ScopeMatch:      []string{},
			StateMatch:      nil,
			Priority:        0,
			SuppressionList: nil,
			Action:          si.HandleECALSockEvent,
		}

		si.Interpreter.CustomRules = append(si.Interpreter.CustomRules, sockRule)

		if si.RunDebugServer {
			di := tool.NewCLIDebugInterpreter(i)

			addr := fmt.Sprintf("%v:%v", si.DebugServerHost, si.DebugServerPort)
			di.DebugServerAddr = &addr
			di.RunDebugServer = &si.RunDebugServer
			falseFlag := false
			di.EchoDebugServer = &falseFlag
			di.Interactive = &falseFlag
			di.BreakOnStart = &falseFlag
			di.BreakOnError = &falseFlag

			err = di.Interpret()

		} else {

			err = i.Interpret(false)
		}

		// Committed change log entries are now forwarded to ECAL

		if si.LM != nil {
			if si.bridge == nil {
				si.bridge = NewEventBridge(i.RuntimeProvider.Processor, i.RuntimeProvider.Logger)
				si.LM.AddObserver(si.bridge.Handle)
			} else {
				si.bridge.SetProcessor(i.RuntimeProvider.Processor, i.RuntimeProvider.Logger)
			}
		}
	}

	// Include a traceback if possible

	if ss, ok := err.(util.TraceableRuntimeError); ok {
		err = fmt.Errorf("%v\n  %v", err.Error(), strings.Join(ss.GetTraceString(), "\n  "))
	}

	return err
}

/*
RegisterECALSock registers a websocket which can receive messages from ECAL.
*/
func (si *ScriptingInterpreter) RegisterECALSock(conn *WebsocketConnection) {
	si.WebsocketConnections.Put(conn.CommID, conn)
}

/*
DeregisterECALSock removes a registered websocket.
*/
func (si *ScriptingInterpreter) DeregisterECALSock(conn *WebsocketConnection) {
	si.WebsocketConnections.Remove(conn.CommID)
}

/*
HandleECALSockEvent handles websocket events from the ECAL interpreter (db.web.sock.msg events).
*/
func (si *ScriptingInterpreter) HandleECALSockEvent(p engine.Processor, m engine.Monitor, e *engine.Event, tid uint64) error {
	state := e.State()
	payload := scope.ConvertECALToJSONObject(state["payload"])
	shouldClose := stringutil.IsTrueValue(fmt.Sprint(state["close"]))

	id := "null"
	if commID, ok := state["commID"]; ok {
		id = fmt.Sprint(commID)
	}

	err := fmt.Errorf("Could not send data to unknown websocket - commID: %v", id)

	if conn, ok := si.WebsocketConnections.Get(id); ok {
		err = nil
		wconn := conn.(*WebsocketConnection)
		wconn.WriteData(MsgScript, map[string]interface{}{
			"payload": payload,
			"close":   shouldClose,
		})

		if shouldClose {
			wconn.Close("")
		}
	}

	return err
}

/*
AddGraphMapStdlibFunctions adds GraphMap related ECAL stdlib functions.
*/
func AddGraphMapStdlibFunctions(lm *trans.LogManager, e *command.Engine) {
	stdlib.AddStdlibPkg("db", "GraphMap related functions")

	if lm != nil {
		gm := lm.GraphMap()

		stdlib.AddStdlibFunc("db", "fetchNode", &dbfunc.FetchNodeFunc{GM: gm})
		stdlib.AddStdlibFunc("db", "fetchEdges", &dbfunc.FetchEdgesFunc{GM: gm})
		stdlib.AddStdlibFunc("db", "findNodes", &dbfunc.FindNodesFunc{GM: gm})
		stdlib.AddStdlibFunc("db", "fetchData", &dbfunc.FetchDataFunc{LM: lm})
		stdlib.AddStdlibFunc("db", "storeData", &dbfunc.StoreDataFunc{LM: lm})
	}

	if e != nil {
		stdlib.AddStdlibFunc("db", "execute", &dbfunc.ExecuteFunc{Engine: e})
	}
}
