/*
 * GraphMap
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package trans

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"testing"

	"devt.de/krotik/graphmap/graph"
	"devt.de/krotik/graphmap/graph/data"
	"devt.de/krotik/graphmap/storage"
)

func TestArchive(t *testing.T) {
	var buf bytes.Buffer

	ctx := context.Background()
	lm := NewLogManager(graph.NewGraphMap(), storage.NewMemoryStore("test"), "", false)

	tr, _ := lm.Start(ctx)
	addNodes(ctx, tr, "a", "b")
	tr.Update(ctx, func(s *graph.Section) error {
		return s.AddEdge(data.NewGraphEdge("a", "b", "link"))
	})
	tr.PutData(ctx, "greeting", []byte("hello"))

	if err := lm.Commit(ctx, tr); err != nil {
		t.Error(err)
		return
	}

	if err := ExportArchive(ctx, lm, &buf); err != nil {
		t.Error(err)
		return
	}

	// Import into a new LogManager

	lm2 := NewLogManager(graph.NewGraphMap(), storage.NewMemoryStore("test2"), "", false)

	if err := ImportArchive(ctx, lm2, bytes.NewReader(buf.Bytes()), int64(buf.Len())); err != nil {
		t.Error(err)
		return
	}

	gm2 := lm2.GraphMap()

	if gm2.NodeCount() != 2 || gm2.EdgeCount() != 1 || lm2.LastLSN() != 4 {
		t.Error("Unexpected result:", gm2, lm2.LastLSN())
		return
	}

	if v, err := lm2.GetData(ctx, "greeting"); err != nil || string(v) != "hello" {
		t.Error("Unexpected result:", string(v), err)
		return
	}

	if stats := lm2.Stats(); stats.Committed != 1 {
		t.Error("Unexpected result:", stats)
		return
	}

	// Importing the same archive again replaces nodes and edges

	if err := ImportArchive(ctx, lm2, bytes.NewReader(buf.Bytes()), int64(buf.Len())); err != nil {
		t.Error(err)
		return
	}

	if gm2.NodeCount() != 2 || gm2.EdgeCount() != 1 {
		t.Error("Unexpected result:", gm2)
		return
	}
}

func TestArchiveErrors(t *testing.T) {
	var buf bytes.Buffer

	ctx := context.Background()
	lm := NewLogManager(graph.NewGraphMap(), storage.NewMemoryStore("test"), "", false)

	if err := ImportArchive(ctx, lm, bytes.NewReader([]byte("foo")), 3); err == nil ||
		err != zip.ErrFormat {
		t.Error("Unexpected result:", err)
		return
	}

	// Archives with unknown files are rolled back

	zw := zip.NewWriter(&buf)
	w, _ := zw.Create(ArchiveGraphFile)
	fmt.Fprint(w, `{"nodes": [{"key": "a"}], "edges": []}`)
	w, _ = zw.Create("foo.txt")
	fmt.Fprint(w, "bar")
	zw.Close()

	if err := ImportArchive(ctx, lm, bytes.NewReader(buf.Bytes()), int64(buf.Len())); err == nil ||
		err.Error() != "Unknown file in archive: foo.txt" {
		t.Error("Unexpected result:", err)
		return
	}

	if gm := lm.GraphMap(); gm.NodeCount() != 0 {
		t.Error("Unexpected result:", gm)
		return
	}

	if stats := lm.Stats(); stats.Committed != 0 || stats.RolledBack != 1 {
		t.Error("Unexpected result:", stats)
		return
	}
}
