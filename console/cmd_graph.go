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
	"fmt"
	"net/url"
	"sort"
	"strings"

	v1 "devt.de/krotik/graphmap/api/v1"
	"github.com/krotik/common/stringutil"
)

// Command: info
// =============

/*
CommandInfo is a command name.
*/
const CommandInfo = "info"

/*
CmdInfo returns general GraphMap information.
*/
type CmdInfo struct {
}

/*
Name returns the command name (as it should be typed)
*/
func (c *CmdInfo) Name() string {
	return CommandInfo
}

/*
ShortDescription returns a short description of the command (single line)
*/
func (c *CmdInfo) ShortDescription() string {
	return "Returns general GraphMap information."
}

/*
LongDescription returns an extensive description of the command (can be multiple lines)
*/
func (c *CmdInfo) LongDescription() string {
	return "Returns general GraphMap information such as the number of nodes " +
		"and edges, the last LSN and transaction statistics."
}

/*
Run executes the command.
*/
func (c *CmdInfo) Run(args []string, capi CommandConsoleAPI) error {

	res, err := capi.Req(v1.EndpointInfoQuery, "GET", nil)

	if err == nil {
		data := res.(map[string]interface{})
		trans, _ := data["transactions"].(map[string]interface{})

		tab := []string{
			"Property", "Value",
			"Nodes", fmt.Sprint(data["nodes"]),
			"Edges", fmt.Sprint(data["edges"]),
			"LSN", fmt.Sprint(data["lsn"]),
			"Scope", fmt.Sprint(data["scope"]),
			"Feed clients", fmt.Sprint(data["feed_clients"]),
			"Committed", fmt.Sprint(trans["committed"]),
			"Rolled back", fmt.Sprint(trans["rolled_back"]),
			"Recovered", fmt.Sprint(trans["recovered"]),
		}

		capi.ExportBuffer().WriteString(stringutil.PrintCSVTable(tab, 2))
		fmt.Fprint(capi.Out(), stringutil.PrintStringTable(tab, 2))
	}

	return err
}

// Command: checkpoint
// ===================

/*
CommandCheckpoint is a command name.
*/
const CommandCheckpoint = "checkpoint"

/*
CmdCheckpoint writes a checkpoint on the server.
*/
type CmdCheckpoint struct {
}

/*
Name returns the command name (as it should be typed)
*/
func (c *CmdCheckpoint) Name() string {
	return CommandCheckpoint
}

/*
ShortDescription returns a short description of the command (single line)
*/
func (c *CmdCheckpoint) ShortDescription() string {
	return "Writes a checkpoint of the GraphMap."
}

/*
LongDescription returns an extensive description of the command (can be multiple lines)
*/
func (c *CmdCheckpoint) LongDescription() string {
	return "Writes a snapshot of the GraphMap to the datastore and truncates " +
		"the change log."
}

/*
Run executes the command.
*/
func (c *CmdCheckpoint) Run(args []string, capi CommandConsoleAPI) error {

	res, err := capi.Req(v1.EndpointCheckpoint, "POST", nil)

	if err == nil {
		data := res.(map[string]interface{})
		fmt.Fprintln(capi.Out(), fmt.Sprintf("Checkpoint written (LSN: %v)", data["lsn"]))
	}

	return err
}

// Command: node
// =============

/*
CommandNode is a command name.
*/
const CommandNode = "node"

/*
CmdNode shows a node and its edges.
*/
type CmdNode struct {
}

/*
Name returns the command name (as it should be typed)
*/
func (c *CmdNode) Name() string {
	return CommandNode
}

/*
ShortDescription returns a short description of the command (single line)
*/
func (c *CmdNode) ShortDescription() string {
	return "Shows a node and its edges."
}

/*
LongDescription returns an extensive description of the command (can be multiple lines)
*/
func (c *CmdNode) LongDescription() string {
	return "Shows the tags of a node and all its edges. Requires the node key " +
		"as parameter."
}

/*
Run executes the command.
*/
func (c *CmdNode) Run(args []string, capi CommandConsoleAPI) error {

	if len(args) < 1 {
		return fmt.Errorf("Please specify a node key")
	}

	key := url.PathEscape(args[0])

	res, err := capi.Req(v1.EndpointNode+key, "GET", nil)

	if err == nil {
		var edges interface{}

		if edges, err = capi.Req(v1.EndpointNode+key+"/edges", "GET", nil); err == nil {
			node := res.(map[string]interface{})

			tab := []string{"Key", "Tags", fmt.Sprint(node["key"]), joinList(node["tags"])}

			capi.ExportBuffer().WriteString(stringutil.PrintCSVTable(tab, 2))
			fmt.Fprint(capi.Out(), stringutil.PrintStringTable(tab, 2))

			if el, _ := edges.([]interface{}); len(el) > 0 {

				tab = []string{"From", "To", "Type", "Tags"}

				for _, e := range el {
					edge := e.(map[string]interface{})
					tab = append(tab, fmt.Sprint(edge["from"]), fmt.Sprint(edge["to"]),
						fmt.Sprint(edge["type"]), joinList(edge["tags"]))
				}

				capi.ExportBuffer().WriteString(stringutil.PrintCSVTable(tab, 4))
				fmt.Fprint(capi.Out(), stringutil.PrintStringTable(tab, 4))
			}
		}
	}

	return err
}

// Command: data
// =============

/*
CommandData is a command name.
*/
const CommandData = "data"

/*
CmdData lists data keys or shows a data value.
*/
type CmdData struct {
}

/*
Name returns the command name (as it should be typed)
*/
func (c *CmdData) Name() string {
	return CommandData
}

/*
ShortDescription returns a short description of the command (single line)
*/
func (c *CmdData) ShortDescription() string {
	return "Lists data keys or shows a data value."
}

/*
LongDescription returns an extensive description of the command (can be multiple lines)
*/
func (c *CmdData) LongDescription() string {
	return "Lists all data keys if called without parameters. Shows the value " +
		"of a data key if the key is given as parameter."
}

/*
Run executes the command.
*/
func (c *CmdData) Run(args []string, capi CommandConsoleAPI) error {

	if len(args) > 0 {
		body, resp, err := capi.SendRequest(v1.EndpointData+url.PathEscape(args[0]),
			"application/octet-stream", "GET", nil)

		if err == nil {
			if resp.StatusCode != 200 {
				return &CommError{fmt.Errorf("GET request to %s failed: %s",
					v1.EndpointData+args[0], body), resp}
			}

			capi.ExportBuffer().WriteString(body)
			fmt.Fprintln(capi.Out(), body)
		}

		return err
	}

	res, err := capi.Req(v1.EndpointData, "GET", nil)

	if err == nil {
		var keys []string

		for _, k := range res.([]interface{}) {
			keys = append(keys, fmt.Sprint(k))
		}

		sort.Strings(keys)

		tab := append([]string{"Key"}, keys...)

		capi.ExportBuffer().WriteString(stringutil.PrintCSVTable(tab, 1))
		fmt.Fprint(capi.Out(), stringutil.PrintStringTable(tab, 1))
	}

	return err
}

// Command: store
// ==============

/*
CommandStore is a command name.
*/
const CommandStore = "store"

/*
CmdStore stores or removes a data value.
*/
type CmdStore struct {
}

/*
Name returns the command name (as it should be typed)
*/
func (c *CmdStore) Name() string {
	return CommandStore
}

/*
ShortDescription returns a short description of the command (single line)
*/
func (c *CmdStore) ShortDescription() string {
	return "Stores or removes a data value."
}

/*
LongDescription returns an extensive description of the command (can be multiple lines)
*/
func (c *CmdStore) LongDescription() string {
	return "Stores a data value under a given key. Requires the key and the " +
		"value as parameters. The value is removed if only the key is given."
}

/*
Run executes the command.
*/
func (c *CmdStore) Run(args []string, capi CommandConsoleAPI) error {
	var res interface{}
	var err error

	if len(args) < 1 {
		return fmt.Errorf("Please specify a data key and a value")
	}

	endpoint := v1.EndpointData + url.PathEscape(args[0])

	if len(args) == 1 {
		res, err = capi.Req(endpoint, "DELETE", nil)
	} else {
		res, err = capi.Req(endpoint, "PUT", []byte(strings.Join(args[1:], " ")))
	}

	if err == nil {
		data := res.(map[string]interface{})
		fmt.Fprintln(capi.Out(), fmt.Sprintf("Transaction %v committed (LSN: %v)",
			data["trans"], data["lsn"]))
	}

	return err
}

/*
joinList joins a decoded JSON list of strings.
*/
func joinList(l interface{}) string {
	var ret []string

	if sl, ok := l.([]interface{}); ok {
		for _, s := range sl {
			ret = append(ret, fmt.Sprint(s))
		}
	}

	return strings.Join(ret, ", ")
}
