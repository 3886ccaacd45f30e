/*
 * GraphMap
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package grammar

import (
	"errors"
	"fmt"
	"testing"

	"devt.de/krotik/graphmap/tokenizer"
)

var testTokenizer = tokenizer.NewBuilder().
	UseDoubleQuotes().
	UseUnicodeEscapes().
	AddSymbols(",").
	Filter(tokenizer.SkipWhitespace).
	Build()

func parse(g *Grammar, root string, text string) (*SyntaxTree, error) {
	return g.Parse(root, testTokenizer.Parse(text))
}

func TestBacktracking(t *testing.T) {
	g := NewGrammar()

	g.Define("root", Or(And(Lit("a"), Lit("b")), And(Lit("a"), Lit("c"))))

	st, err := parse(g, "root", "a c")
	if err != nil {
		t.Error(err)
		return
	}

	if res := st.String(); res != `root
  "a": "a"
  "c": "c"
` {
		t.Error("Unexpected result:", res)
		return
	}

	if st.IsTerminal() || !st.Children[0].IsTerminal() || st.Value() != "a c" {
		t.Error("Unexpected tree")
		return
	}

	// The failed alternative must not leak tokens

	g = NewGrammar()
	g.Define("root", Or(And(Lit("a"), Lit("b")), Lit("a")), Lit("c"))

	if st, err = parse(g, "root", "a c"); err != nil || st.Value() != "a c" {
		t.Error("Unexpected result:", st, err)
		return
	}
}

func TestParseErrors(t *testing.T) {
	g := NewGrammar()

	g.Define("root", Lit("a"), Lit("b"))

	_, err := parse(g, "root", "a c")

	if err == nil || err.Error() != `Parse error in root: Unexpected term (Unexpected "c" - expected "b" in root) (Line:1 Pos:3)` {
		t.Error("Unexpected result:", err)
		return
	}

	_, err = parse(g, "root", "a")

	if err == nil || err.Error() != `Parse error in root: Unexpected end (Expected "b" in root)` {
		t.Error("Unexpected result:", err)
		return
	}

	_, err = parse(g, "root", "a b b")

	if err == nil || err.Error() != `Parse error in root: Input not completed (Unexpected "b") (Line:1 Pos:5)` {
		t.Error("Unexpected result:", err)
		return
	}

	if !errors.Is(err, ErrInputNotCompleted) {
		t.Error("Unexpected error type:", err)
		return
	}

	if _, err = parse(g, "foo", "a b"); !errors.Is(err, ErrMissingReference) {
		t.Error("Unexpected result:", err)
		return
	}

	// Missing references are hard errors even inside alternatives

	g = NewGrammar()
	g.Define("root", Or(Ref("missing"), Lit("x")))

	if _, err = parse(g, "root", "x"); !errors.Is(err, ErrMissingReference) {
		t.Error("Unexpected result:", err)
		return
	}

	if err = g.Validate(); err == nil || err.Error() != "Parse error in root: Missing rule reference (missing)" {
		t.Error("Unexpected result:", err)
		return
	}
}

func TestCardinality(t *testing.T) {
	g := NewGrammar()

	g.Define("many", Many(Lit("x")))
	g.Define("any", Any(Lit("x")))
	g.Define("opt", Opt(Lit("x")), Lit("y"))
	g.Define("list", List(Regex(`\d+`), Lit(","), false))

	if st, err := parse(g, "many", "x x x"); err != nil || len(st.Children) != 3 {
		t.Error("Unexpected result:", st, err)
		return
	}

	if _, err := parse(g, "many", ""); !errors.Is(err, ErrUnexpectedEnd) {
		t.Error("Unexpected result:", err)
		return
	}

	if st, err := parse(g, "any", ""); err != nil || len(st.Children) != 0 {
		t.Error("Unexpected result:", st, err)
		return
	}

	if st, err := parse(g, "opt", "y"); err != nil || st.Value() != "y" {
		t.Error("Unexpected result:", st, err)
		return
	}

	if st, err := parse(g, "opt", "x y"); err != nil || st.Value() != "x y" {
		t.Error("Unexpected result:", st, err)
		return
	}

	st, err := parse(g, "list", "1, 2 ,3")

	if err != nil || st.Value() != "1 2 3" {
		t.Error("Unexpected result:", st, err)
		return
	}

	// A trailing separator is given back

	if _, err := parse(g, "list", "1, 2,"); !errors.Is(err, ErrInputNotCompleted) {
		t.Error("Unexpected result:", err)
		return
	}
}

func TestVirtualTerminals(t *testing.T) {
	g := NewGrammar()

	g.Define("root", Virtual("a b"), Virtual("A"), Ref("lit"))
	g.Define("lit", Lit("q"))

	st, err := parse(g, "root", `"a b" A q`)
	if err != nil {
		t.Error(err)
		return
	}

	if res := st.String(); res != `root
  'a b': "a b"
  'A': "A"
  lit
    "q": "q"
` {
		t.Error("Unexpected result:", res)
		return
	}

	// Literals do not match quoted tokens

	if _, err := parse(g, "lit", `"q"`); err == nil {
		t.Error("Quoted token should not match literal")
		return
	}

	if st.Find("lit") == nil || st.Child("lit") == nil || st.Find("foo") != nil ||
		len(st.FindAll("\"q\"")) != 1 {
		t.Error("Unexpected find result")
		return
	}
}

func TestCompile(t *testing.T) {
	g, err := Compile(`
// simple list grammar
list = "list" { item % "," }+ [ "end" ] ;
item = ~"[0-9]+" | name ;
name = 'quoted' | ~"[a-z]+" ;
`)
	if err != nil {
		t.Error(err)
		return
	}

	if g.Root != "list" || fmt.Sprint(g.Rules()) != "[list item name]" {
		t.Error("Unexpected result:", g.Root, g.Rules())
		return
	}

	st, err := parse(g, g.Root, `list 1, abc, "quoted" end`)
	if err != nil {
		t.Error(err)
		return
	}

	if res := st.String(); res != `list
  "list": "list"
  item
    ~"[0-9]+": "1"
  item
    name
      ~"[a-z]+": "abc"
  item
    name
      'quoted': "quoted"
  "end": "end"
` {
		t.Error("Unexpected result:", res)
		return
	}

	// Grammars can be printed and compiled again

	g2, err := Compile(g.String())
	if err != nil {
		t.Error(err, g.String())
		return
	}

	if g2.String() != g.String() {
		t.Error("Unexpected result:", g2.String())
		return
	}

	st, err = parse(g2, g2.Root, `list 7`)
	if err != nil || st.Value() != "list 7" {
		t.Error("Unexpected result:", st, err)
		return
	}
}

func TestCompileErrors(t *testing.T) {

	if _, err := Compile(`a = b ;`); !errors.Is(err, ErrMissingReference) {
		t.Error("Unexpected result:", err)
		return
	}

	if _, err := Compile(`a = "x" ; a = "y" ;`); !errors.Is(err, ErrInvalidGrammar) {
		t.Error("Unexpected result:", err)
		return
	}

	if _, err := Compile(`a = ~"[" ;`); !errors.Is(err, ErrInvalidGrammar) {
		t.Error("Unexpected result:", err)
		return
	}

	if _, err := Compile(`a = `); !errors.Is(err, ErrUnexpectedEnd) {
		t.Error("Unexpected result:", err)
		return
	}

	defer func() {
		if r := recover(); r == nil {
			t.Error("Broken grammar should cause a panic")
		}
	}()

	MustCompile(`a = ( ;`)
}
