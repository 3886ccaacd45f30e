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
	"context"
	"fmt"
	"strings"
	"testing"

	"devt.de/krotik/graphmap/changelog"
	"devt.de/krotik/graphmap/graph"
	"devt.de/krotik/graphmap/graph/data"
	"devt.de/krotik/graphmap/graph/util"
	"devt.de/krotik/graphmap/storage"
)

func addNodes(ctx context.Context, t *Trans, keys ...string) error {
	return t.Update(ctx, func(s *graph.Section) error {
		for _, k := range keys {
			if err := s.AddNode(data.NewGraphNode(k)); err != nil {
				return err
			}
		}
		return nil
	})
}

func TestTransCommit(t *testing.T) {
	ctx := context.Background()
	ms := storage.NewMemoryStore("test")
	gm := graph.NewGraphMap()
	lm := NewLogManager(gm, ms, "", false)

	var p Provider = lm

	var committed []string

	lm.AddObserver(func(e *changelog.Entry) {
		committed = append(committed, fmt.Sprint(e.LSN, ":", e.ObjectID))
	})

	tr, err := p.Start(ctx)
	if err != nil {
		t.Error(err)
		return
	}

	if tr.State() != StateParsed || len(tr.ID()) != 36 {
		t.Error("Unexpected result:", tr)
		return
	}

	if err := addNodes(ctx, tr, "a", "b"); err != nil {
		t.Error(err)
		return
	}

	err = tr.Update(ctx, func(s *graph.Section) error {
		return s.AddEdge(data.NewGraphEdge("a", "b", "link"))
	})

	if err != nil {
		t.Error(err)
		return
	}

	if tr.State() != StateApplied || !strings.HasSuffix(tr.String(), "(Applied) - Nodes: 2 Edges: 1 Data: 0") {
		t.Error("Unexpected result:", tr)
		return
	}

	// Changes are visible before the commit

	if gm.NodeCount() != 2 || gm.LastLSN() != 0 {
		t.Error("Unexpected result:", gm)
		return
	}

	if err := p.Commit(ctx, tr); err != nil {
		t.Error(err)
		return
	}

	if gm.LastLSN() != 3 || lm.LastLSN() != 3 {
		t.Error("Unexpected LSN:", gm.LastLSN(), lm.LastLSN())
		return
	}

	keys, _ := ms.Keys(ctx, "log/main/")

	if fmt.Sprint(keys) != "[log/main/00000000000000000001 log/main/00000000000000000002 "+
		"log/main/00000000000000000003]" {
		t.Error("Unexpected keys:", keys)
		return
	}

	if fmt.Sprint(committed) != "[1:a 2:b 3:a->b[link]]" {
		t.Error("Unexpected result:", committed)
		return
	}

	if err := p.Commit(ctx, tr); util.StatusOf(err) != util.StatusBadRequest {
		t.Error("Unexpected result:", err)
		return
	}

	if stats := lm.Stats(); stats.Committed != 1 {
		t.Error("Unexpected result:", stats)
		return
	}
}

func TestTransUpdateFailure(t *testing.T) {
	ctx := context.Background()
	gm := graph.NewGraphMap()
	lm := NewLogManager(gm, nil, "", false)

	tr, _ := lm.Start(ctx)

	addNodes(ctx, tr, "a")

	// A failing update is undone completely

	err := addNodes(ctx, tr, "b", "c", "a")

	if util.StatusOf(err) != util.StatusConflict || err.Error() != "GraphError: Conflict (Node a exists already)" {
		t.Error("Unexpected result:", err)
		return
	}

	if gm.NodeCount() != 1 || len(tr.Entries()) != 1 {
		t.Error("Unexpected result:", gm, tr.Entries())
		return
	}

	// Transactions without store are not durable but can be committed

	if err := lm.Commit(ctx, tr); err != nil {
		t.Error(err)
		return
	}

	if gm.LastLSN() != 1 || lm.LastLSN() != 3 {
		t.Error("Unexpected LSN:", gm.LastLSN(), lm.LastLSN())
		return
	}

	if err := tr.Update(ctx, nil); util.StatusOf(err) != util.StatusBadRequest {
		t.Error("Unexpected result:", err)
		return
	}

	// Data values and recovery need a store

	tr, _ = lm.Start(ctx)

	if err := tr.PutData(ctx, "x", []byte("x")); util.StatusOf(err) != util.StatusServiceUnavailable {
		t.Error("Unexpected result:", err)
		return
	}

	if err := lm.Recovery(ctx, ""); util.StatusOf(err) != util.StatusServiceUnavailable {
		t.Error("Unexpected result:", err)
		return
	}

	if err := lm.Checkpoint(ctx); util.StatusOf(err) != util.StatusServiceUnavailable {
		t.Error("Unexpected result:", err)
		return
	}

	cctx, cancel := context.WithCancel(ctx)
	cancel()

	if _, err := lm.Start(cctx); util.StatusOf(err) != util.StatusServiceUnavailable {
		t.Error("Unexpected result:", err)
		return
	}
}

func TestTransRollback(t *testing.T) {
	ctx := context.Background()
	ms := storage.NewMemoryStore("test")
	gm := graph.NewGraphMap()
	lm := NewLogManager(gm, ms, "", false)

	tr, _ := lm.Start(ctx)
	addNodes(ctx, tr, "a", "b")
	tr.Update(ctx, func(s *graph.Section) error {
		return s.SetNode(data.NewGraphNode("a", "color=red"))
	})

	// A failing commit compensates all changes and removes written entries

	ms.AccessMap[LogKey("main", 3)] = storage.AccessInsertError

	if err := lm.Commit(ctx, tr); err == nil {
		t.Error("Commit should fail")
		return
	}

	if gm.NodeCount() != 0 || ms.Size() != 0 || tr.State() != StateRolledBack {
		t.Error("Unexpected result:", gm, ms.Size(), tr)
		return
	}

	if stats := lm.Stats(); stats.RolledBack != 1 {
		t.Error("Unexpected result:", stats)
		return
	}

	// Explicit rollback

	tr, _ = lm.Start(ctx)
	addNodes(ctx, tr, "a")
	tr.Update(ctx, func(s *graph.Section) error {
		return s.SetNode(data.NewGraphNode("a", "color=red"))
	})

	if err := lm.RollbackTrans(ctx, tr); err != nil {
		t.Error(err)
		return
	}

	if gm.NodeCount() != 0 {
		t.Error("Unexpected result:", gm)
		return
	}

	if err := lm.RollbackTrans(ctx, tr); util.StatusOf(err) != util.StatusBadRequest {
		t.Error("Unexpected result:", err)
		return
	}

	// Single entries can be compensated

	tr, _ = lm.Start(ctx)
	addNodes(ctx, tr, "a")
	tr.Update(ctx, func(s *graph.Section) error {
		return s.SetNode(data.NewGraphNode("a", "color=red"))
	})
	lm.Commit(ctx, tr)

	if err := lm.Rollback(ctx, tr.Entries()[1]); err != nil {
		t.Error(err)
		return
	}

	if n := gm.Node("a"); n.Tags.Has("color") {
		t.Error("Unexpected result:", n)
		return
	}
}

func TestTransData(t *testing.T) {
	ctx := context.Background()
	ms := storage.NewMemoryStore("test")
	gm := graph.NewGraphMap()
	lm := NewLogManager(gm, ms, "data", true)

	tr, _ := lm.Start(ctx)

	if err := tr.PutData(ctx, "blob1", []byte("hello")); err != nil {
		t.Error(err)
		return
	}

	// Data values are written on commit

	if v, _ := lm.GetData(ctx, "blob1"); v != nil {
		t.Error("Unexpected result:", v)
		return
	}

	if err := lm.Commit(ctx, tr); err != nil {
		t.Error(err)
		return
	}

	if v, _ := lm.GetData(ctx, "blob1"); string(v) != "hello" {
		t.Error("Unexpected result:", v)
		return
	}

	tr, _ = lm.Start(ctx)
	tr.PutData(ctx, "blob2", nil)
	tr.DeleteData(ctx, "blob1")

	if res := fmt.Sprint(tr.Entries()); res != "[Entry 2: add data blob2 (before: 0 bytes, after: 0 bytes) "+
		"Entry 3: delete data blob1 (before: 5 bytes, after: 0 bytes)]" {
		t.Error("Unexpected result:", res)
		return
	}

	lm.Commit(ctx, tr)

	if keys, _ := lm.DataKeys(ctx); fmt.Sprint(keys) != "[blob2]" {
		t.Error("Unexpected result:", keys)
		return
	}

	if gm.LastLSN() != 3 {
		t.Error("Unexpected LSN:", gm.LastLSN())
		return
	}
}

func TestRecovery(t *testing.T) {
	ctx := context.Background()
	ms := storage.NewMemoryStore("test")
	gm := graph.NewGraphMap()
	lm := NewLogManager(gm, ms, "", true)

	tr, _ := lm.Start(ctx)
	addNodes(ctx, tr, "a", "b", "c")
	tr.Update(ctx, func(s *graph.Section) error {
		s.AddEdge(data.NewGraphEdge("a", "b", ""))
		s.AddEdge(data.NewGraphEdge("b", "c", ""))
		return s.SetNode(data.NewGraphNode("a", "color=red"))
	})
	tr.PutData(ctx, "blob", []byte("x"))
	lm.Commit(ctx, tr)

	// Replay the log into a new GraphMap

	gm2 := graph.NewGraphMap()
	lm2 := NewLogManager(gm2, ms, "", true)

	if err := lm2.Recovery(ctx, ""); err != nil {
		t.Error(err)
		return
	}

	if gm2.String() != "GraphMap: 3 nodes, 2 edges, LSN 7" || gm2.String() != gm.String() {
		t.Error("Unexpected result:", gm2, gm)
		return
	}

	if n := gm2.Node("A"); !n.Equal(gm.Node("a")) {
		t.Error("Unexpected result:", n)
		return
	}

	if stats := lm2.Stats(); stats.Recovered != 7 {
		t.Error("Unexpected result:", stats)
		return
	}

	// New sequence numbers continue after the log

	tr, _ = lm2.Start(ctx)
	tr.Update(ctx, func(s *graph.Section) error {
		_, err := s.RemoveNode("b")
		return err
	})
	lm2.Commit(ctx, tr)

	if gm2.String() != "GraphMap: 2 nodes, 0 edges, LSN 10" {
		t.Error("Unexpected result:", gm2)
		return
	}

	// Recovery is idempotent

	if err := lm2.Recovery(ctx, ""); err != nil || lm2.Stats().Recovered != 7 {
		t.Error("Unexpected result:", err, lm2.Stats())
		return
	}

	// Checkpoint and replay of the remaining log

	if err := lm2.Checkpoint(ctx); err != nil {
		t.Error(err)
		return
	}

	if keys, _ := ms.Keys(ctx, "log/"); len(keys) != 0 {
		t.Error("Unexpected keys:", keys)
		return
	}

	tr, _ = lm2.Start(ctx)
	addNodes(ctx, tr, "d")
	lm2.Commit(ctx, tr)

	gm3 := graph.NewGraphMap()
	lm3 := NewLogManager(gm3, ms, "", false)

	if err := lm3.Recovery(ctx, ""); err != nil {
		t.Error(err)
		return
	}

	if gm3.String() != "GraphMap: 3 nodes, 0 edges, LSN 11" || lm3.Stats().Recovered != 1 {
		t.Error("Unexpected result:", gm3, lm3.Stats())
		return
	}

	// Corrupted entries stop the recovery

	b, _ := ms.Get(ctx, LogKey("main", 11))
	b[len(b)-1]++
	ms.Set(ctx, LogKey("main", 11), b)

	gm4 := graph.NewGraphMap()

	err := NewLogManager(gm4, ms, "", false).Recovery(ctx, "")

	if err == nil || err.Error() != "GraphError: Corrupted change log (Checksum mismatch)" {
		t.Error("Unexpected result:", err)
		return
	}
}

func TestCheckpointOpenTrans(t *testing.T) {
	ctx := context.Background()
	ms := storage.NewMemoryStore("test")
	gm := graph.NewGraphMap()
	lm := NewLogManager(gm, ms, "", false)

	t1, _ := lm.Start(ctx)
	addNodes(ctx, t1, "pending")

	t2, _ := lm.Start(ctx)
	addNodes(ctx, t2, "done")
	lm.Commit(ctx, t2)

	if lm.OpenTrans() != 1 {
		t.Error("Unexpected open transactions:", lm.OpenTrans())
		return
	}

	// Uncommitted changes must not become part of a checkpoint

	if err := lm.Checkpoint(ctx); err == nil ||
		err.Error() != "GraphError: Service unavailable (Cannot write checkpoint while 1 transactions are open)" {
		t.Error("Unexpected result:", err)
		return
	}

	if b, _ := ms.Get(ctx, checkpointKey("main")); b != nil {
		t.Error("Unexpected checkpoint:", string(b))
		return
	}

	if err := lm.RollbackTrans(ctx, t1); err != nil {
		t.Error(err)
		return
	}

	if lm.OpenTrans() != 0 || gm.Node("pending") != nil {
		t.Error("Unexpected result:", lm.OpenTrans(), gm)
		return
	}

	if err := lm.Checkpoint(ctx); err != nil {
		t.Error(err)
		return
	}

	gm2 := graph.NewGraphMap()

	if err := NewLogManager(gm2, ms, "", false).Recovery(ctx, ""); err != nil {
		t.Error(err)
		return
	}

	if gm2.NodeCount() != 1 || gm2.Node("done") == nil || gm2.Node("pending") != nil {
		t.Error("Unexpected result:", gm2)
		return
	}

	// Transactions without graph changes do not block checkpoints

	t3, _ := lm.Start(ctx)
	t3.PutData(ctx, "x", []byte("x"))

	err := t3.Update(ctx, func(s *graph.Section) error {
		return s.AddNode(data.NewGraphNode("done"))
	})

	if util.StatusOf(err) != util.StatusConflict || lm.OpenTrans() != 0 {
		t.Error("Unexpected result:", err, lm.OpenTrans())
		return
	}

	if err := lm.Checkpoint(ctx); err != nil {
		t.Error(err)
		return
	}

	// Commit closes the transaction

	addNodes(ctx, t3, "later")

	if lm.OpenTrans() != 1 {
		t.Error("Unexpected open transactions:", lm.OpenTrans())
		return
	}

	if err := lm.Commit(ctx, t3); err != nil || lm.OpenTrans() != 0 {
		t.Error("Unexpected result:", err, lm.OpenTrans())
		return
	}
}

func TestUpdateRestoresDeletes(t *testing.T) {
	ctx := context.Background()
	ms := storage.NewMemoryStore("test")
	gm := graph.NewGraphMap()
	lm := NewLogManager(gm, ms, "", false)

	tr, _ := lm.Start(ctx)
	addNodes(ctx, tr, "a", "b")
	tr.Update(ctx, func(s *graph.Section) error {
		return s.AddEdge(data.NewGraphEdge("a", "b", "link", "weight=1"))
	})
	lm.Commit(ctx, tr)

	before := gm.String()

	// A failing update restores deleted nodes and their edges

	tr, _ = lm.Start(ctx)

	err := tr.Update(ctx, func(s *graph.Section) error {
		if _, err := s.RemoveNode("a"); err != nil {
			return err
		}
		return s.AddNode(data.NewGraphNode("b"))
	})

	if util.StatusOf(err) != util.StatusConflict || !tr.IsEmpty() {
		t.Error("Unexpected result:", err, tr)
		return
	}

	if gm.Node("a") == nil || gm.EdgeCount() != 1 {
		t.Error("Unexpected result:", gm)
		return
	}

	if e := gm.Edges("a"); len(e) != 1 || e[0].Tags.String() != "weight=1" {
		t.Error("Unexpected result:", e)
		return
	}

	lm.RollbackTrans(ctx, tr)

	// A rolled back transaction restores deletes of earlier updates

	tr, _ = lm.Start(ctx)
	tr.Update(ctx, func(s *graph.Section) error {
		_, err := s.RemoveNode("a")
		return err
	})

	if gm.Node("a") != nil || gm.EdgeCount() != 0 {
		t.Error("Unexpected result:", gm)
		return
	}

	if err := lm.RollbackTrans(ctx, tr); err != nil {
		t.Error(err)
		return
	}

	if gm.Node("a") == nil || gm.EdgeCount() != 1 {
		t.Error("Unexpected result:", gm)
		return
	}

	// Memory and log agree

	gm2 := graph.NewGraphMap()

	if err := NewLogManager(gm2, ms, "", false).Recovery(ctx, ""); err != nil {
		t.Error(err)
		return
	}

	if gm2.NodeCount() != gm.NodeCount() || gm2.EdgeCount() != gm.EdgeCount() ||
		!gm2.Node("a").Equal(gm.Node("a")) {
		t.Error("Unexpected result:", gm2, before)
		return
	}
}
