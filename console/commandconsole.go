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
	"encoding/json"
	"fmt"

	v1 "devt.de/krotik/graphmap/api/v1"
	"github.com/krotik/common/stringutil"
)

/*
commandTextKeywords are the keywords which start a command text.
*/
var commandTextKeywords = []string{"add", "set", "delete", "select"}

/*
CommandTextConsole runs command texts of the GraphMap command language.
*/
type CommandTextConsole struct {
	parent CommandConsoleAPI // Parent console API
}

/*
Run executes one or more commands. It returns an error if the command
had an unexpected result and a flag if the command was handled.
*/
func (c *CommandTextConsole) Run(cmd string) (bool, error) {

	if !cmdStartsWithKeyword(cmd, commandTextKeywords) {
		return false, nil
	}

	content, err := json.Marshal(map[string]interface{}{
		"command": cmd,
	})

	if err == nil {
		var res interface{}

		if res, err = c.parent.Req(v1.EndpointCommand, "POST", content); err == nil {
			c.printResult(res.(map[string]interface{}))
		}
	}

	return true, err
}

/*
printResult prints the rows of a command result as a table followed by
the change statistics.
*/
func (c *CommandTextConsole) printResult(res map[string]interface{}) {
	var tab []string

	c.parent.ExportBuffer().Reset()

	cols, _ := res["columns"].([]interface{})

	if len(cols) > 0 {
		for _, col := range cols {
			tab = append(tab, fmt.Sprint(col))
		}

		rows, _ := res["rows"].([]interface{})

		for _, row := range rows {
			for _, val := range row.([]interface{}) {
				tab = append(tab, fmt.Sprint(val))
			}
		}

		c.parent.ExportBuffer().WriteString(stringutil.PrintCSVTable(tab, len(cols)))
		fmt.Fprint(c.parent.Out(), stringutil.PrintStringTable(tab, len(cols)))
	}

	stats, _ := res["stats"].(map[string]interface{})

	fmt.Fprintln(c.parent.Out(), fmt.Sprintf(
		"Nodes: +%v ~%v -%v Edges: +%v ~%v -%v (LSN: %v)",
		stats["nodes_created"], stats["nodes_updated"], stats["nodes_deleted"],
		stats["edges_created"], stats["edges_updated"], stats["edges_deleted"],
		res["lsn"]))
}

/*
Commands returns a sorted list of all available commands.
*/
func (c *CommandTextConsole) Commands() []Command {
	return []Command{}
}
