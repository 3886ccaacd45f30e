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
	"fmt"
	"strings"

	"devt.de/krotik/graphmap/tokenizer"
	"github.com/krotik/common/errorutil"
)

/*
Grammar notation:

	name = expression ;        Rule definition (the first rule is the root)
	a b                        Sequence
	a | b                      Alternation
	"text"                     Literal terminal
	'text'                     Virtual terminal
	~"regex"                   Regular expression terminal
	name                       Rule reference
	[ a ]                      Optional
	{ a }                      Zero or more
	{ a }+                     One or more
	{ a % sep }                Separated list
	( a )                      Grouping
	// comment                 Line comment
*/

/*
metaTokenizer splits grammar text into tokens.
*/
var metaTokenizer = tokenizer.NewBuilder().
	UseDoubleQuotes().
	UseSingleQuotes().
	UseLineComments().
	AddSymbols("=", ";", "|", "[", "]", "{", "}+", "}", "(", ")", "%", "~").
	Filter(tokenizer.SkipWhitespace).
	Build()

const (
	metaIdent   = `[A-Za-z_][A-Za-z0-9_]*`
	metaDString = `"(?:[^"\\]|\\.)*"`
	metaSString = `'(?:[^'\\]|\\.)*'`
)

/*
metaGrammar is the grammar of the grammar notation.
*/
var metaGrammar = func() *Grammar {
	g := NewGrammar()

	g.Define("grammar", Many(Ref("rule")))
	g.Define("rule", Ref("name"), Lit("="), Ref("expr"), Lit(";"))
	g.Define("expr", List(Ref("seq"), Lit("|"), false))
	g.Define("seq", Many(Ref("factor")))
	g.Define("factor", Or(Ref("regex"), Ref("literal"), Ref("virtual"), Ref("name"),
		Ref("optional"), Ref("repeat"), Ref("group")))
	g.Define("regex", Lit("~"), RawRegex(metaDString))
	g.Define("literal", RawRegex(metaDString))
	g.Define("virtual", RawRegex(metaSString))
	g.Define("name", RawRegex(metaIdent))
	g.Define("optional", Lit("["), Ref("expr"), Lit("]"))
	g.Define("repeat", Lit("{"), Ref("expr"), Opt(Lit("%"), Ref("factor")), Ref("close"))
	g.Define("close", Or(Lit("}+"), Lit("}")))
	g.Define("group", Lit("("), Ref("expr"), Lit(")"))

	errorutil.AssertOk(g.Validate())

	return g
}()

/*
Compile compiles a grammar from its textual notation.
*/
func Compile(text string) (*Grammar, error) {
	st, err := metaGrammar.Parse("grammar", metaTokenizer.Parse(text))
	if err != nil {
		return nil, err
	}

	g := NewGrammar()

	for _, rule := range st.Children {
		name := rule.Child("name").Value()

		if _, ok := g.rules[name]; ok {
			return nil, newError(name, ErrInvalidGrammar,
				fmt.Sprintf("Rule %v is defined more than once", name), rule.Child("name").Children[0].Token)
		}

		node, err := compileExpr(rule.Child("expr"))
		if err != nil {
			return nil, err
		}

		g.Define(name, node)
	}

	if err := g.Validate(); err != nil {
		return nil, err
	}

	return g, nil
}

/*
MustCompile compiles a grammar and panics if the grammar is invalid.
*/
func MustCompile(text string) *Grammar {
	g, err := Compile(text)
	errorutil.AssertOk(err)
	return g
}

func compileExpr(expr *SyntaxTree) (Node, error) {
	var alts []Node

	for _, seq := range expr.Children {
		var factors []Node

		for _, factor := range seq.Children {
			n, err := compileFactor(factor.Children[0])
			if err != nil {
				return nil, err
			}
			factors = append(factors, n)
		}

		if len(factors) == 1 {
			alts = append(alts, factors[0])
		} else {
			alts = append(alts, And(factors...))
		}
	}

	if len(alts) == 1 {
		return alts[0], nil
	}

	return Or(alts...), nil
}

func compileFactor(f *SyntaxTree) (Node, error) {
	switch f.Name {

	case "regex":
		raw := f.Children[1].Token.Raw
		expr := strings.Replace(raw[1:len(raw)-1], `\"`, `"`, -1)

		t, err := compileRegex(expr)
		if err != nil {
			return nil, newError(expr, ErrInvalidGrammar, err.Error(), f.Children[1].Token)
		}
		return t, nil

	case "literal":
		return Lit(f.Children[0].Token.Value), nil

	case "virtual":
		return Virtual(f.Children[0].Token.Value), nil

	case "name":
		return Ref(f.Value()), nil

	case "optional", "group":
		n, err := compileExpr(f.Child("expr"))
		if err != nil {
			return nil, err
		}

		r := And(n)
		if f.Name == "optional" {
			r.Cardinality = Optional
		}
		return r, nil

	case "repeat":
		n, err := compileExpr(f.Child("expr"))
		if err != nil {
			return nil, err
		}

		r := Any(n)

		if sep := f.Child("factor"); sep != nil {
			if r.Separator, err = compileFactor(sep.Children[0]); err != nil {
				return nil, err
			}
		}

		if f.Child("close").Value() == "}+" {
			r.Cardinality = Repeat
		}
		return r, nil
	}

	return nil, newError(f.Name, ErrInvalidGrammar, "Unknown grammar element", nil)
}

/*
compileRegex creates a regex terminal without panicking on an invalid expression.
*/
func compileRegex(expr string) (t *Terminal, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()

	return Regex(expr), nil
}
