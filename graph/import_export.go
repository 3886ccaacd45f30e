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
	"encoding/json"
	"fmt"
	"io"

	"devt.de/krotik/graphmap/graph/data"
)

/*
ExportGraph dumps the nodes and edges of a GraphMap as a JSON object.
*/
func ExportGraph(out io.Writer, gm *GraphMap) error {
	var snap *Snapshot

	gm.View(func(s *Section) error {
		snap = s.Snapshot()
		return nil
	})

	if snap.Nodes == nil {
		snap.Nodes = []*data.GraphNode{}
	}
	if snap.Edges == nil {
		snap.Edges = []*data.GraphEdge{}
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	return enc.Encode(map[string]interface{}{
		"nodes": snap.Nodes,
		"edges": snap.Edges,
	})
}

/*
ImportGraph imports the nodes and edges of an exported GraphMap into a
section. Existing nodes and edges are replaced with the imported version.
All nodes are imported before any edge.
*/
func ImportGraph(in io.Reader, s *Section) error {
	var snap Snapshot

	if err := json.NewDecoder(in).Decode(&snap); err != nil {
		return fmt.Errorf("Could not decode file content as object with list of nodes and edges: %s", err.Error())
	}

	for _, n := range snap.Nodes {
		if err := s.ReplaceNode(n); err != nil {
			return err
		}
	}

	for _, e := range snap.Edges {
		if err := s.ReplaceEdge(e); err != nil {
			return err
		}
	}

	return nil
}
