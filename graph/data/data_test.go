/*
 * GraphMap
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package data

import (
	"fmt"
	"testing"
	"time"
)

func TestTags(t *testing.T) {

	tags := NewTags("name=Alice", "admin", "Name=Bob", "age=42")

	if res := tags.String(); res != "name=Bob, admin, age=42" {
		t.Error("Unexpected result:", res)
		return
	}

	if tag, ok := tags.Get("NAME"); !ok || tag.Value != "Bob" {
		t.Error("Unexpected result:", tag, ok)
		return
	}

	if !tags.Has("Admin") || tags.Has("foo") {
		t.Error("Unexpected has result")
		return
	}

	removed := tags.Remove("admin")

	if res := removed.String(); res != "name=Bob, age=42" {
		t.Error("Unexpected result:", res)
		return
	}

	if res := tags.String(); res != "name=Bob, admin, age=42" {
		t.Error("Remove should not modify the original list:", res)
		return
	}

	if fmt.Sprint(tags.Keys()) != "[name admin age]" {
		t.Error("Unexpected result:", tags.Keys())
		return
	}

	if tags.Equal(removed) || !tags.Equal(tags.Clone()) {
		t.Error("Unexpected equal result")
		return
	}

	if tag := ParseTag(" a = b=c "); tag.Key != "a" || tag.Value != "b=c" || !tag.HasValue {
		t.Error("Unexpected result:", tag)
		return
	}
}

func TestTagOps(t *testing.T) {

	ops := ParseTagOps("a=1, -b, c, , a=2")

	if len(ops) != 4 {
		t.Error("Unexpected result:", ops)
		return
	}

	if !ops[1].Remove || ops[1].Key != "b" {
		t.Error("Unexpected result:", ops[1])
		return
	}

	tags := NewTags("b=5", "d")
	res := tags.Apply(ops)

	if res.String() != "d, a=2, c" {
		t.Error("Unexpected result:", res)
		return
	}

	if tags.String() != "b=5, d" {
		t.Error("Apply should not modify the original list:", tags)
		return
	}

	// Removal markers in tag lists

	res = tags.Apply(TagOpsFromTags(NewTags("-b", "e=1")))

	if res.String() != "d, e=1" {
		t.Error("Unexpected result:", res)
		return
	}
}

func TestNodeMerge(t *testing.T) {

	created := time.Date(2020, 1, 2, 3, 4, 5, 6, time.UTC)

	n := &GraphNode{
		Key:         "Node1",
		Tags:        NewTags("name=Alice", "email=a@b.c", "admin"),
		Indexes:     []string{"email"},
		Data:        map[string][]byte{"avatar": []byte("png")},
		CreatedDate: created,
	}

	update := &GraphNode{
		Key:         "node1",
		Tags:        NewTags("name=Alicia", "-admin", "team=red"),
		Indexes:     []string{"-email", "name"},
		Data:        map[string][]byte{"avatar": nil, "cv": []byte("pdf")},
		CreatedDate: time.Now(),
	}

	res := n.Merge(update)

	if res.Key != "Node1" || !res.CreatedDate.Equal(created) {
		t.Error("Unexpected result:", res)
		return
	}

	if res.Tags.String() != "name=Alicia, email=a@b.c, team=red" {
		t.Error("Unexpected result:", res.Tags)
		return
	}

	if fmt.Sprint(res.Indexes) != "[name]" {
		t.Error("Unexpected result:", res.Indexes)
		return
	}

	if len(res.Data) != 1 || string(res.Data["cv"]) != "pdf" {
		t.Error("Unexpected result:", res.Data)
		return
	}

	if fmt.Sprint(res.UniquePairs()) != "[name=Alicia]" {
		t.Error("Unexpected result:", res.UniquePairs())
		return
	}

	if fmt.Sprint(n.UniquePairs()) != "[email=a@b.c]" {
		t.Error("Original node should be unchanged:", n.UniquePairs())
		return
	}

	// Normalize removes markers

	nn := (&GraphNode{Key: "x", Tags: NewTags("-a", "b"), Indexes: []string{"-c", "d", "D"}}).Normalize()

	if nn.Tags.String() != "b" || fmt.Sprint(nn.Indexes) != "[d]" || nn.CreatedDate.IsZero() {
		t.Error("Unexpected result:", nn)
		return
	}

	// Declared index without a value produces no pair

	nn = &GraphNode{Key: "x", Tags: NewTags("flag"), Indexes: []string{"flag", "missing"}}

	if len(nn.UniquePairs()) != 0 {
		t.Error("Unexpected result:", nn.UniquePairs())
		return
	}

	if err := (&GraphNode{Key: " "}).Validate(); err == nil {
		t.Error("Empty key should not validate")
		return
	}
}

func TestNodeSerialization(t *testing.T) {

	n := NewGraphNode("Node1", "name=Alice", "admin")
	n.Indexes = []string{"name"}
	n.Data = map[string][]byte{"blob": {0, 1, 2, 255}}

	b, err := MarshalNode(n)
	if err != nil {
		t.Error(err)
		return
	}

	n2, err := UnmarshalNode(b)
	if err != nil {
		t.Error(err)
		return
	}

	if !n.Equal(n2) {
		t.Error("Unexpected result:", n, n2)
		return
	}

	if n.String() != "GraphNode: Node1\n  tags    : name=Alice, admin\n  indexes : name\n  data    : blob (4 bytes)\n" {
		t.Error("Unexpected result:", n.String())
		return
	}

	if _, err := UnmarshalNode([]byte("{")); err == nil {
		t.Error("Unexpected result")
		return
	}
}

func TestEdge(t *testing.T) {

	e := NewGraphEdge("Node1", "Node2", "", "weight=5")

	if e.EdgeType != DefaultEdgeType {
		t.Error("Unexpected type:", e.EdgeType)
		return
	}

	if e.Key() != NewEdgeKey("NODE1", "node2", "Default") {
		t.Error("Unexpected key:", e.Key())
		return
	}

	if e.Key().String() != "node1->node2[default]" {
		t.Error("Unexpected key:", e.Key())
		return
	}

	if e.Other("node1") != "Node2" || e.Other("Node2") != "Node1" {
		t.Error("Unexpected other end")
		return
	}

	if err := NewGraphEdge("Node1", "node1", "").Validate(); err == nil {
		t.Error("Self loop should not validate")
		return
	}

	if err := NewGraphEdge("", "node1", "").Validate(); err == nil {
		t.Error("Missing end should not validate")
		return
	}

	b, err := MarshalEdge(e)
	if err != nil {
		t.Error(err)
		return
	}

	e2, err := UnmarshalEdge(b)
	if err != nil {
		t.Error(err)
		return
	}

	if !e.Equal(e2) {
		t.Error("Unexpected result:", e, e2)
		return
	}

	m := e.Merge(&GraphEdge{Tags: NewTags("-weight", "color=red")})

	if m.Tags.String() != "color=red" || !m.CreatedDate.Equal(e.CreatedDate) {
		t.Error("Unexpected result:", m)
		return
	}

	if m.String() != "GraphEdge: Node1 -> Node2 (default) tags: color=red" {
		t.Error("Unexpected result:", m)
		return
	}
}
