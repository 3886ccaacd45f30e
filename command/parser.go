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
Package command contains the textual command language of a GraphMap.

A command text consists of statements which are separated by semicolons:

	add node key=<key> [set <tag>[=<value>], ...] [index <name>, ...] [data <name>=<value>, ...] ;
	set node key=<key> [set [-]<tag>[=<value>], ...] [index [-]<name>, ...] [data ...] ;
	delete node key=<key> [ifexist] ;
	add edge from=<key> to=<key> [type=<type>] [set <tag>=<value>, ...] ;
	set edge from=<key> to=<key> [type=<type>] [set ...] ;
	delete edge from=<key> to=<key> [type=<type>] [ifexist] ;
	select ( key=<key>, <tag> ) -> [ type=<type> ] -> ( <tag> ) [return <name>, ...] ;
	delete [ ( key=<key> ) ] [ -> [ <type> ] ] ;

Node patterns are written in round brackets, edge patterns in square brackets.
The joins ->, <- and <-> select outgoing, incoming or all edges. An empty
pattern or * matches anything. Values which contain symbols or spaces must be
quoted.

The text is parsed into a list of instructions which are executed by an
Engine inside a single transaction.
*/
package command

import (
	"fmt"
	"strings"

	"devt.de/krotik/graphmap/grammar"
	"devt.de/krotik/graphmap/graph/util"
	"devt.de/krotik/graphmap/tokenizer"
)

/*
commandTokenizer splits command text into tokens.
*/
var commandTokenizer = tokenizer.NewBuilder().
	UseDoubleQuotes().
	UseSingleQuotes().
	UseLineComments().
	AddSymbols("<->", "->", "<-", "(", ")", "[", "]", "=", ",", ";", "*", "-").
	AddWordChars("_.@:").
	Filter(tokenizer.SkipWhitespace).
	Build()

/*
commandGrammar is the grammar of the command language.
*/
var commandGrammar = grammar.MustCompile(`
commands    = { statement % ";" }+ [ ";" ] ;
statement   = addnode | setnode | deletenode | addedge | setedge | deleteedge |
              select | deletematch ;

// Nodes

addnode     = "add" "node" keyattr [ tags ] [ indexes ] [ datavals ] ;
setnode     = "set" "node" keyattr [ tags ] [ indexes ] [ datavals ] ;
deletenode  = "delete" "node" keyattr [ ifexist ] ;

// Edges

addedge     = "add" "edge" fromattr toattr [ typeattr ] [ tags ] ;
setedge     = "set" "edge" fromattr toattr [ typeattr ] [ tags ] ;
deleteedge  = "delete" "edge" fromattr toattr [ typeattr ] [ ifexist ] ;

// Queries

select      = "select" nodepattern { step } [ returns ] ;
deletematch = "delete" [ nodepattern ] [ join edgepattern [ join nodepattern ] ] ;
step        = join [ edgepattern join ] nodepattern ;
nodepattern = "(" { item % "," } ")" ;
edgepattern = "[" { item % "," } "]" ;
item        = any | name [ "=" value ] ;
any         = "*" ;
join        = "<->" | "->" | "<-" ;
returns     = "return" { name % "," }+ ;

// Attributes

keyattr     = "key" "=" value ;
fromattr    = "from" "=" value ;
toattr      = "to" "=" value ;
typeattr    = "type" "=" value ;
ifexist     = "ifexist" ;
tags        = "set" { tagop % "," }+ ;
tagop       = [ remove ] name [ "=" value ] ;
indexes     = "index" { indexop % "," }+ ;
indexop     = [ remove ] name ;
datavals    = "data" { dataval % "," }+ ;
dataval     = name "=" value ;
remove      = "-" ;
name        = ~".+" ;
value       = ~"(?s).*" ;
`)

/*
Parse parses a command text into a list of instructions.
*/
func Parse(text string) ([]Instruction, error) {
	tokens := commandTokenizer.Parse(text)

	if len(tokens) == 0 {
		return nil, &util.GraphError{Type: util.ErrBadRequest, Detail: "Empty command"}
	}

	st, err := commandGrammar.Parse("commands", tokens)
	if err != nil {
		return nil, &util.GraphError{Type: util.ErrBadRequest, Detail: err.Error()}
	}

	var ret []Instruction

	for _, s := range st.FindAll("statement") {
		ins, err := reduce(s.Children[0])
		if err != nil {
			return nil, err
		}
		ret = append(ret, ins)
	}

	return ret, nil
}

/*
reduce turns a statement syntax tree into an instruction.
*/
func reduce(st *grammar.SyntaxTree) (Instruction, error) {
	switch st.Name {

	case "addnode", "setnode":
		return &NodeInstruction{
			Set:     st.Name == "setnode",
			Key:     attr(st, "keyattr"),
			Tags:    tagOps(st.Child("tags")),
			Indexes: indexOps(st.Child("indexes")),
			Data:    dataValues(st.Child("datavals")),
		}, nil

	case "deletenode":
		return &DeleteNodeInstruction{
			Key:      attr(st, "keyattr"),
			IfExists: st.Child("ifexist") != nil,
		}, nil

	case "addedge", "setedge":
		return &EdgeInstruction{
			Set:  st.Name == "setedge",
			From: attr(st, "fromattr"),
			To:   attr(st, "toattr"),
			Type: attr(st, "typeattr"),
			Tags: tagOps(st.Child("tags")),
		}, nil

	case "deleteedge":
		return &DeleteEdgeInstruction{
			From:     attr(st, "fromattr"),
			To:       attr(st, "toattr"),
			Type:     attr(st, "typeattr"),
			IfExists: st.Child("ifexist") != nil,
		}, nil

	case "select":
		return reduceSelect(st)

	case "deletematch":
		return reduceDeleteMatch(st)
	}

	return nil, util.NewGraphError(util.ErrBadRequest, "Unknown statement %v", st.Name)
}

func reduceSelect(st *grammar.SyntaxTree) (Instruction, error) {
	p := &Path{Start: nodePattern(st.Child("nodepattern"))}

	for _, s := range st.FindAll("step") {
		joins := s.FindAll("join")

		step := &Step{
			Join: ParseJoin(joins[0].Value()),
			Edge: edgePattern(s.Child("edgepattern")),
			Node: nodePattern(s.Child("nodepattern")),
		}

		if len(joins) > 1 && ParseJoin(joins[1].Value()) != step.Join {
			return nil, util.NewGraphError(util.ErrBadRequest,
				"Joins around an edge pattern must have the same direction: %v", s.Value())
		}

		p.Steps = append(p.Steps, step)
	}

	ins := &SelectInstruction{Path: p}

	if r := st.Child("returns"); r != nil {
		for _, n := range r.FindAll("name") {
			ins.Returns = append(ins.Returns, n.Value())
		}
	}

	return ins, nil
}

func reduceDeleteMatch(st *grammar.SyntaxTree) (Instruction, error) {
	var joins []string

	ins := &DeleteMatchInstruction{Start: &Pattern{}}

	for _, c := range st.Children {
		switch c.Name {
		case "join":
			joins = append(joins, c.Value())
		case "edgepattern":
			ins.Edge = edgePattern(c)
		case "nodepattern":
			if len(joins) == 0 {
				ins.Start = nodePattern(c)
			} else {
				ins.End = nodePattern(c)
			}
		}
	}

	if len(joins) > 0 {
		ins.Join = ParseJoin(joins[0])

		if len(joins) > 1 && ParseJoin(joins[1]) != ins.Join {
			return nil, util.NewGraphError(util.ErrBadRequest,
				"Joins around an edge pattern must have the same direction: %v", st.Value())
		}
	}

	return ins, nil
}

// Syntax tree helpers
// ===================

/*
attr returns the value of an attribute rule or an empty string.
*/
func attr(st *grammar.SyntaxTree, name string) string {
	if a := st.Child(name); a != nil {
		return a.Child("value").Value()
	}
	return ""
}

func tagOps(st *grammar.SyntaxTree) []string {
	var ret []string

	if st == nil {
		return nil
	}

	for _, op := range st.FindAll("tagop") {
		tag := op.Child("name").Value()

		if v := op.Child("value"); v != nil {
			tag = fmt.Sprintf("%v=%v", tag, v.Value())
		}

		if op.Child("remove") != nil {
			tag = "-" + tag
		}

		ret = append(ret, tag)
	}

	return ret
}

func indexOps(st *grammar.SyntaxTree) []string {
	var ret []string

	if st == nil {
		return nil
	}

	for _, op := range st.FindAll("indexop") {
		name := op.Child("name").Value()

		if op.Child("remove") != nil {
			name = "-" + name
		}

		ret = append(ret, name)
	}

	return ret
}

func dataValues(st *grammar.SyntaxTree) map[string][]byte {
	if st == nil {
		return nil
	}

	ret := make(map[string][]byte)

	for _, dv := range st.FindAll("dataval") {
		ret[dv.Child("name").Value()] = []byte(dv.Child("value").Value())
	}

	return ret
}

func nodePattern(st *grammar.SyntaxTree) *Pattern {
	if st == nil {
		return &Pattern{}
	}
	return patternItems(st)
}

func edgePattern(st *grammar.SyntaxTree) *Pattern {
	if st == nil {
		return &Pattern{}
	}

	p := patternItems(st)

	// A plain name in an edge pattern is the edge type

	for i, c := range p.Conds {
		if !c.HasValue && p.Type == "" {
			p.Type = c.Name
			p.Conds = append(p.Conds[:i:i], p.Conds[i+1:]...)
			break
		}
	}

	return p
}

func patternItems(st *grammar.SyntaxTree) *Pattern {
	p := &Pattern{}

	for _, it := range st.FindAll("item") {
		if it.Child("any") != nil {
			continue
		}

		name := it.Child("name").Value()
		v := it.Child("value")

		switch {
		case v != nil && strings.EqualFold(name, "key"):
			p.Key = v.Value()
		case v != nil && strings.EqualFold(name, "type"):
			p.Type = v.Value()
		case v != nil:
			p.Conds = append(p.Conds, Cond{Name: name, Value: v.Value(), HasValue: true})
		default:
			p.Conds = append(p.Conds, Cond{Name: name})
		}
	}

	return p
}
