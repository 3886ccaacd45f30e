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
GraphMap is an in-memory graph database which keeps nodes, edges and opaque
data values in memory and makes all changes durable through a change log.

Features:

- Nodes carry tags (plain names or name=value pairs) which are indexed.

- Tags can be declared as unique indexes.

- Edges are typed and connect two existing nodes. Removing a node either
removes its edges or is refused (edge policy).

- All changes run in transactions which are written to a change log before
they become visible. The log is replayed on startup.

- A small command language adds, updates, deletes and selects nodes and edges.

- When used as a standalone application it comes with a REST API, a change
feed over websockets, ECAL scripting and a basic web terminal.
*/
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"devt.de/krotik/graphmap/command"
	"devt.de/krotik/graphmap/config"
	"devt.de/krotik/graphmap/console"
	"devt.de/krotik/graphmap/graph/util"
	"devt.de/krotik/graphmap/server"
	"devt.de/krotik/graphmap/trans"
	"github.com/krotik/common/fileutil"
	"github.com/krotik/common/termutil"
)

func main() {

	// Initialize the default command line parser

	flag.CommandLine.Init(os.Args[0], flag.ContinueOnError)

	// Define default usage message

	flag.Usage = func() {

		// Print usage for tool selection

		fmt.Println(fmt.Sprintf("Usage of %s <tool>", os.Args[0]))
		fmt.Println()
		fmt.Println("GraphMap in-memory graph database")
		fmt.Println()
		fmt.Println("Available commands:")
		fmt.Println()
		fmt.Println("    console   GraphMap server console")
		fmt.Println("    exec      Run a command file against the datastore and exit")
		fmt.Println("    server    Start GraphMap server")
		fmt.Println()
		fmt.Println(fmt.Sprintf("Use %s <command> -help for more information about a given command.", os.Args[0]))
		fmt.Println()
	}

	// Parse the command bit

	err := flag.CommandLine.Parse(os.Args[1:])

	if len(flag.Args()) > 0 {

		arg := flag.Args()[0]

		if arg == "server" {
			config.LoadConfigFile(config.DefaultConfigFile)
			server.StartServerWithSingleOp(handleServerCommandLine)
		} else if arg == "console" {
			config.LoadConfigFile(config.DefaultConfigFile)
			RunCliConsole()
		} else if arg == "exec" {
			config.LoadConfigFile(config.DefaultConfigFile)
			server.StartServerWithSingleOp(handleExecCommandLine)
		} else {
			flag.Usage()
		}

	} else if err == nil {

		flag.Usage()
	}
}

/*
RunCliConsole runs the server console on the commandline.
*/
func RunCliConsole() {
	var err error

	// Try to get the server host and port from the config file

	chost, cport := getHostPortFromConfig()

	host := flag.String("host", chost, "Host of the GraphMap server")
	port := flag.String("port", cport, "Port of the GraphMap server")

	cmdfile := flag.String("file", "", "Read commands from a file and exit")
	cmdline := flag.String("exec", "", "Execute a single line and exit")

	showHelp := flag.Bool("help", false, "Show this help message")

	flag.Usage = func() {
		fmt.Println()
		fmt.Println(fmt.Sprintf("Usage of %s console [options]", os.Args[0]))
		fmt.Println()
		flag.PrintDefaults()
		fmt.Println()
	}

	flag.CommandLine.Parse(os.Args[2:])

	if *showHelp {
		flag.Usage()
		return
	}

	if *cmdfile == "" && *cmdline == "" {
		fmt.Println(fmt.Sprintf("GraphMap %v - Console", config.ProductVersion))
	}

	var clt termutil.ConsoleLineTerminal

	isExitLine := func(s string) bool {
		return s == "exit" || s == "q" || s == "quit" || s == "bye" || s == "\x04"
	}

	clt, err = termutil.NewConsoleLineTerminal(os.Stdout)

	if *cmdfile != "" {
		var file *os.File

		// Read commands from a file

		file, err = os.Open(*cmdfile)
		if err == nil {
			defer file.Close()

			clt, err = termutil.AddFileReadingWrapper(clt, file, true)
		}

	} else if *cmdline != "" {
		var buf bytes.Buffer

		buf.WriteString(fmt.Sprintln(*cmdline))

		// Read commands from a single line

		clt, err = termutil.AddFileReadingWrapper(clt, &buf, true)

	} else {

		// Add history functionality

		histfile := filepath.Join(filepath.Dir(os.Args[0]), ".graphmap_console_history")
		clt, err = termutil.AddHistoryMixin(clt, histfile,
			func(s string) bool {
				return isExitLine(s)
			})
	}

	if err == nil {

		// Create the console object

		con := console.NewConsole(fmt.Sprintf("http://%s:%s", *host, *port), os.Stdout,
			func(args []string, exportBuf *bytes.Buffer) error {

				// Export data to a chosen file

				filename := "export.out"

				if len(args) > 0 {
					filename = args[0]
				}

				return os.WriteFile(filename, exportBuf.Bytes(), 0666)
			})

		// Start the console

		if err = clt.StartTerm(); err == nil {
			var line string

			defer clt.StopTerm()

			if *cmdfile == "" && *cmdline == "" {
				fmt.Println("Type 'q' or 'quit' to exit the shell and '?' to get help")
			}

			line, err = clt.NextLine()
			for err == nil && !isExitLine(line) {

				if trimmed := trimLine(line); trimmed != "" {

					if _, cerr := con.Run(trimmed); cerr != nil {

						// Output any error

						fmt.Fprintln(clt, cerr.Error())
					}
				}

				line, err = clt.NextLine()
			}
		}
	}

	if err != nil {
		fmt.Println(err.Error())
	}
}

/*
trimLine removes surrounding whitespace and comment lines.
*/
func trimLine(line string) string {
	line = strings.TrimSpace(line)

	if len(line) > 0 && line[0] == '#' {
		return ""
	}

	return line
}

/*
getHostPortFromConfig gets the host and port from the config file or the
default config.
*/
func getHostPortFromConfig() (string, string) {
	host := fileutil.ConfStr(config.DefaultConfig, config.HTTPHost)
	port := fileutil.ConfStr(config.DefaultConfig, config.HTTPPort)

	configFile := filepath.Join(filepath.Dir(os.Args[0]), config.DefaultConfigFile)
	if ok, _ := fileutil.PathExists(configFile); ok {
		cfg, _ := fileutil.LoadConfig(configFile, config.DefaultConfig)
		if cfg != nil {

			host = fileutil.ConfStr(cfg, config.HTTPHost)
			port = fileutil.ConfStr(cfg, config.HTTPPort)
		}
	}

	return host, port
}

/*
handleServerCommandLine handles all command line options for the server
*/
func handleServerCommandLine(lm *trans.LogManager, e *command.Engine) bool {
	var err error

	importDb := flag.String("import", "", "Import a datastore from a zip file")
	exportDb := flag.String("export", "", "Export the current datastore to a zip file")

	noServ := flag.Bool("no-serv", false, "Do not start the server after initialization")

	showHelp := flag.Bool("help", false, "Show this help message")

	flag.Usage = func() {
		fmt.Println()
		fmt.Println(fmt.Sprintf("Usage of %s server [options]", os.Args[0]))
		fmt.Println()
		flag.PrintDefaults()
		fmt.Println()
	}

	flag.CommandLine.Parse(os.Args[2:])

	if *showHelp {
		flag.Usage()
		return true
	}

	ctx := context.Background()

	if *importDb != "" {
		var zipFile *os.File
		var info os.FileInfo

		fmt.Println("Importing from:", *importDb)

		if zipFile, err = os.Open(*importDb); err == nil {
			defer zipFile.Close()

			if info, err = zipFile.Stat(); err == nil {
				err = trans.ImportArchive(ctx, lm, zipFile, info.Size())
			}
		}
	}

	if err == nil && *exportDb != "" {
		var zipFile *os.File

		fmt.Println("Exporting to:", *exportDb)

		if zipFile, err = os.Create(*exportDb); err == nil {
			defer zipFile.Close()

			err = trans.ExportArchive(ctx, lm, zipFile)
		}
	}

	if err != nil {
		fmt.Println(err.Error())
		return true
	}

	return *noServ
}

/*
handleExecCommandLine runs a file with command texts against the datastore.
Each file is executed as a single command text.
*/
func handleExecCommandLine(lm *trans.LogManager, e *command.Engine) bool {

	showHelp := flag.Bool("help", false, "Show this help message")

	flag.Usage = func() {
		fmt.Println()
		fmt.Println(fmt.Sprintf("Usage of %s exec [options] <file> [<file> ...]", os.Args[0]))
		fmt.Println()
		flag.PrintDefaults()
		fmt.Println()
	}

	flag.CommandLine.Parse(os.Args[2:])

	if *showHelp || len(flag.Args()) == 0 {
		flag.Usage()
		return true
	}

	for _, file := range flag.Args() {

		text, err := os.ReadFile(file)
		if err != nil {
			fmt.Println(err.Error())
			return true
		}

		fmt.Println("Executing:", file)

		res := e.Execute(context.Background(), string(text))

		fmt.Println(res.String())

		if res.Status != util.StatusOK {
			break
		}
	}

	return true
}
