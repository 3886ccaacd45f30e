/*
 * GraphMap
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package graph

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"devt.de/krotik/graphmap/graph/data"
)

func TestImportExportError(t *testing.T) {
	var res bytes.Buffer

	gm := NewGraphMap()

	// Test incomplete import data

	err := gm.Update(nil, func(s *Section) error {
		return ImportGraph(bytes.NewBufferString(`
{
	"nodes" : [
	    {
	      "key": "1",
`), s)
	})

	if err == nil || err.Error() != "Could not decode file content as object with list of nodes and edges: unexpected EOF" {
		t.Error("Unexpected result:", err)
		return
	}

	// Export an empty graph

	if err = ExportGraph(&res, gm); err != nil || res.String() != `{
  "edges": [],
  "nodes": []
}
` {
		t.Error("Unexpected result:", res.String(), err)
		return
	}

	// Edges need existing nodes

	err = gm.Update(nil, func(s *Section) error {
		return ImportGraph(bytes.NewBufferString(`{
  "edges": [ { "from": "a", "to": "b", "type": "knows" } ]
}`), s)
	})

	if err == nil || err.Error() != "GraphError: Not found (Node a of edge a->b[knows] does not exist)" {
		t.Error("Unexpected result:", err)
		return
	}
}

func TestImportExport(t *testing.T) {
	var res bytes.Buffer

	gm := NewGraphMap()

	gm.AddNode(data.NewGraphNode("a", "name=Alice", "admin"))
	gm.AddNode(data.NewGraphNode("b", "name=Bob"))
	gm.AddEdge(data.NewGraphEdge("a", "b", "knows", "since=2010"))

	if err := ExportGraph(&res, gm); err != nil {
		t.Error(err)
		return
	}

	if out := res.String(); !strings.Contains(out, `"key": "a"`) ||
		!strings.Contains(out, `"name=Alice"`) || !strings.Contains(out, `"type": "knows"`) {
		t.Error("Unexpected result:", out)
		return
	}

	// Import into a new GraphMap

	gm2 := NewGraphMap()
	j := &testJournal{}

	if err := gm2.Update(j, func(s *Section) error {
		return ImportGraph(&res, s)
	}); err != nil {
		t.Error(err)
		return
	}

	if res := fmt.Sprint(j.events); res != "[node.created:a node.created:b edge.created:a->b[knows]]" {
		t.Error("Unexpected result:", res)
		return
	}

	for _, k := range []string{"a", "b"} {
		if !gm.Node(k).Equal(gm2.Node(k)) {
			t.Error("Unexpected result:", gm.Node(k), gm2.Node(k))
			return
		}
	}

	if e := gm2.Edges("a"); len(e) != 1 || !e[0].Equal(gm.Edges("a")[0]) {
		t.Error("Unexpected result:", e)
		return
	}
}
