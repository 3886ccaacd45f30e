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
Package console contains the console command processor for GraphMap.

The console reads lines and sends them to a GraphMap server. Lines which start
with a keyword of the command language (add, set, delete, select) are run as
a single command text; all other lines are console commands which can be
separated by semicolons.
*/
package console

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
)

/*
NewConsole creates a new Console object which can parse and execute given
commands from the given Reader and outputs the result to the Writer. It
optionally exports data with the given export function via the save command.
Export is disabled if no export function is defined.
*/
func NewConsole(url string, out io.Writer, exportFunc func([]string, *bytes.Buffer) error) CommandConsole {

	cmdMap := make(map[string]Command)

	cmdMap[CommandHelp] = &CmdHelp{}
	cmdMap[CommandVer] = &CmdVer{}
	cmdMap[CommandInfo] = &CmdInfo{}
	cmdMap[CommandNode] = &CmdNode{}
	cmdMap[CommandData] = &CmdData{}
	cmdMap[CommandStore] = &CmdStore{}
	cmdMap[CommandCheckpoint] = &CmdCheckpoint{}

	// Add export if we got an export function

	if exportFunc != nil {
		cmdMap[CommandExport] = &CmdExport{exportFunc}
	}

	c := &GraphMapConsole{url, out, bytes.NewBuffer(nil), nil, cmdMap}

	c.childConsoles = []CommandConsole{&CommandTextConsole{c}}

	return c
}

/*
CommandConsole is the main interface for command processors.
*/
type CommandConsole interface {

	/*
		Run executes one or more commands. It returns an error if the command
		had an unexpected result and a flag if the command was handled.
	*/
	Run(cmd string) (bool, error)

	/*
	   Commands returns a sorted list of all available commands.
	*/
	Commands() []Command
}

/*
CommandConsoleAPI is the console interface which commands can use to send communicate to the server.
*/
type CommandConsoleAPI interface {
	CommandConsole

	/*
	   URL returns the current connection URL.
	*/
	URL() string

	/*
	   Req is a convenience function to send common requests.
	*/
	Req(endpoint string, method string, content []byte) (interface{}, error)

	/*
	   SendRequest sends a request to the connected server. The calling code of the
	   function can specify the contentType (e.g. application/json), the method
	   (e.g. GET) and the content (for POST, PUT and DELETE requests).
	*/
	SendRequest(endpoint string, contentType string, method string,
		content []byte) (string, *http.Response, error)

	/*
		Out returns a writer which can be used to write to the console.
	*/
	Out() io.Writer

	/*
	   ExportBuffer returns a buffer which can be used to write exportable data.
	*/
	ExportBuffer() *bytes.Buffer
}

/*
CommError is a communication error from the ConsoleAPI.
*/
type CommError struct {
	err  error          // Nice error message
	Resp *http.Response // Error response from the REST API
}

/*
Error returns a textual representation of this error.
*/
func (c *CommError) Error() string {
	return c.err.Error()
}

/*
Command describes an available command.
*/
type Command interface {
	/*
	   Name returns the command name (as it should be typed).
	*/
	Name() string

	/*
	   ShortDescription returns a short description of the command (single line).
	*/
	ShortDescription() string

	/*
	   LongDescription returns an extensive description of the command (can be multiple lines).
	*/
	LongDescription() string

	/*
		Run executes the command.
	*/
	Run(args []string, capi CommandConsoleAPI) error
}

// GraphMap Console
// ================

/*
GraphMapConsole implements the basic console functionality like help and version.
*/
type GraphMapConsole struct {
	url           string           // Current server url (e.g. http://localhost:9090)
	out           io.Writer        // Output for this console
	export        *bytes.Buffer    // Export buffer
	childConsoles []CommandConsole // List of child consoles

	CommandMap map[string]Command // Map of registered commands
}

/*
URL returns the current connected server URL.
*/
func (c *GraphMapConsole) URL() string {
	return c.url
}

/*
Out returns a writer which can be used to write to the console.
*/
func (c *GraphMapConsole) Out() io.Writer {
	return c.out
}

/*
ExportBuffer returns a buffer which can be used to write exportable data.
*/
func (c *GraphMapConsole) ExportBuffer() *bytes.Buffer {
	return c.export
}

/*
Run executes one or more commands. It returns an error if the command
had an unexpected result and a flag if the command was handled.
*/
func (c *GraphMapConsole) Run(cmd string) (bool, error) {

	// Command texts contain their own statement separators

	if cmdStartsWithKeyword(cmd, commandTextKeywords) {
		for _, cc := range c.childConsoles {
			if ok, err := cc.Run(cmd); err != nil || ok {
				return ok, err
			}
		}
	}

	// Split a line with multiple commands

	cmds := strings.Split(cmd, ";")

	for _, cmd := range cmds {

		// Run the command and return if there is an error

		if ok, err := c.RunCommand(cmd); err != nil {

			// Return if there was an unexpected error

			return false, err

		} else if !ok && strings.TrimSpace(cmd) != "" {

			return false, fmt.Errorf("Unknown command")
		}
	}

	// Everything was handled

	return true, nil
}

/*
RunCommand executes a single command. It returns an error for unexpected results and
a flag if the command was handled.
*/
func (c *GraphMapConsole) RunCommand(cmdString string) (bool, error) {
	cmdSplit := strings.Fields(cmdString)

	if len(cmdSplit) > 0 {
		cmd := cmdSplit[0]
		args := cmdSplit[1:]

		// Reset the export buffer if we are not exporting

		if cmd != CommandExport {
			c.export.Reset()
		}

		if cmdObj, ok := c.CommandMap[cmd]; ok {
			return true, cmdObj.Run(args, c)
		} else if cmd == "?" {
			return true, c.CommandMap["help"].Run(args, c)
		}
	}

	return false, nil
}

/*
Commands returns a sorted list of all available commands.
*/
func (c *GraphMapConsole) Commands() []Command {
	var res []Command

	for _, c := range c.CommandMap {
		res = append(res, c)
	}

	sort.Slice(res, func(i, j int) bool {
		return res[i].Name() < res[j].Name()
	})

	return res
}

/*
Req is a convenience function to send common requests.
*/
func (c *GraphMapConsole) Req(endpoint string, method string, content []byte) (interface{}, error) {
	var res interface{}

	bodyStr, resp, err := c.SendRequest(endpoint, "application/json", method, content)

	if err == nil {

		// Check if we got an error back

		if resp.StatusCode != http.StatusOK {
			return nil, &CommError{
				fmt.Errorf("%s request to %s failed: %s", method, endpoint, bodyStr),
				resp,
			}
		}

		// Try json decoding

		if jerr := json.Unmarshal([]byte(bodyStr), &res); jerr != nil {
			res = bodyStr
		}
	}

	return res, err
}

/*
SendRequest sends a request to the connected server. The calling code of the
function can specify the contentType (e.g. application/json), the method
(e.g. GET) and the content (for POST, PUT and DELETE requests).
*/
func (c *GraphMapConsole) SendRequest(endpoint string, contentType string, method string,
	content []byte) (string, *http.Response, error) {

	var bodyStr string
	var req *http.Request
	var resp *http.Response
	var err error

	if content != nil {
		req, err = http.NewRequest(method, c.url+endpoint, bytes.NewBuffer(content))
	} else {
		req, err = http.NewRequest(method, c.url+endpoint, nil)
	}

	if err == nil {

		req.Header.Set("Content-Type", contentType)

		resp, err = http.DefaultClient.Do(req)

		if err == nil {
			defer resp.Body.Close()

			body, _ := io.ReadAll(resp.Body)
			bodyStr = strings.Trim(string(body), " \n")
		}
	}

	// Just return the body

	return bodyStr, resp, err
}

// Util functions
// ==============

/*
cmdStartsWithKeyword checks if a given command line starts with a given list
of keywords.
*/
func cmdStartsWithKeyword(cmd string, keywords []string) bool {
	ss := strings.Fields(strings.ToLower(cmd))

	if len(ss) > 0 {
		firstCmd := ss[0]

		for _, k := range keywords {
			if k == firstCmd || strings.HasPrefix(firstCmd, k+";") || strings.HasPrefix(firstCmd, k+"(") {
				return true
			}
		}
	}

	return false
}
