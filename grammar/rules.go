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
Package grammar contains a backtracking production rule parser.

A grammar is a table of named rules. Rules are composed of nodes:

Terminal - matches a single token by literal text or by regular expression.

VirtualTerminal - matches a single token by its decoded value. Quoted strings
and unicode escapes can match a virtual terminal.

RuleReference - a reference to another named rule of the grammar. References
are resolved at parse time; an unknown reference is a hard error.

Rule - a composite of child nodes which are either all matched in sequence
(ModeAnd) or tried in order until one matches (ModeOr). The cardinality of a
rule decides how often it is matched: exactly once, optionally, one or more
times or zero or more times (optionally with a separator between items).

The parser keeps an explicit stack of saved token positions. Every attempt
pushes the current position and either commits on success or restores it on
failure. A failed alternative therefore never consumes input.

Grammars can be built with the constructor functions of this package or
compiled from a textual notation (see Compile).
*/
package grammar

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

/*
Node is a production rule node.
*/
type Node interface {

	/*
		String returns the grammar notation of this node.
	*/
	String() string
}

/*
Mode is the evaluation mode of a composite rule
*/
type Mode int

/*
Evaluation modes
*/
const (
	ModeAnd Mode = iota // All children in sequence
	ModeOr              // First matching child
)

/*
Cardinality is the number of times a composite rule is matched
*/
type Cardinality int

/*
Cardinalities
*/
const (
	Required       Cardinality = iota // Exactly once
	Optional                          // Zero or one time
	Repeat                            // One or more times
	OptionalRepeat                    // Zero or more times
)

// Terminals
// =========

/*
Terminal matches a single token either by literal text or by regular expression.
*/
type Terminal struct {
	Literal  string         // Literal text which must match an unquoted token
	Pattern  *regexp.Regexp // Regular expression which must match the whole token
	MatchRaw bool           // Flag if the pattern should be matched against the raw token text
}

/*
Lit creates a literal terminal.
*/
func Lit(literal string) *Terminal {
	return &Terminal{Literal: literal}
}

/*
Regex creates a terminal which matches the decoded value of a token. Blocks
and registered symbols are never matched by value.
*/
func Regex(expr string) *Terminal {
	return &Terminal{Pattern: regexp.MustCompile("^(?:" + expr + ")$")}
}

/*
RawRegex creates a terminal which matches the raw text of a token.
*/
func RawRegex(expr string) *Terminal {
	t := Regex(expr)
	t.MatchRaw = true
	return t
}

/*
String returns the grammar notation of this node.
*/
func (t *Terminal) String() string {
	if t.Pattern != nil {
		expr := strings.TrimSuffix(strings.TrimPrefix(t.Pattern.String(), "^(?:"), ")$")
		return `~"` + strings.Replace(expr, `"`, `\"`, -1) + `"`
	}
	return fmt.Sprintf("%q", t.Literal)
}

/*
VirtualTerminal matches a token by a fixed text which is compared with the
decoded token value.
*/
type VirtualTerminal struct {
	Text string
}

/*
Virtual creates a virtual terminal.
*/
func Virtual(text string) *VirtualTerminal {
	return &VirtualTerminal{text}
}

/*
String returns the grammar notation of this node.
*/
func (t *VirtualTerminal) String() string {
	return "'" + strings.Replace(t.Text, "'", "\\'", -1) + "'"
}

// Composites
// ==========

/*
RuleReference is a named reference to another rule.
*/
type RuleReference struct {
	Name string
}

/*
Ref creates a rule reference.
*/
func Ref(name string) *RuleReference {
	return &RuleReference{name}
}

/*
String returns the grammar notation of this node.
*/
func (r *RuleReference) String() string {
	return r.Name
}

/*
Rule is a composite rule.
*/
type Rule struct {
	Name        string      // Name of the rule (anonymous rules have no name)
	Mode        Mode        // Evaluation mode
	Cardinality Cardinality // Cardinality
	Children    []Node      // Child nodes
	Separator   Node        // Separator between repetitions (optional)
}

/*
And creates an anonymous sequence.
*/
func And(children ...Node) *Rule {
	return &Rule{Mode: ModeAnd, Children: children}
}

/*
Or creates an anonymous alternation.
*/
func Or(children ...Node) *Rule {
	return &Rule{Mode: ModeOr, Children: children}
}

/*
Opt creates an optional sequence.
*/
func Opt(children ...Node) *Rule {
	return &Rule{Mode: ModeAnd, Cardinality: Optional, Children: children}
}

/*
Many creates a sequence which must match one or more times.
*/
func Many(children ...Node) *Rule {
	return &Rule{Mode: ModeAnd, Cardinality: Repeat, Children: children}
}

/*
Any creates a sequence which may match zero or more times.
*/
func Any(children ...Node) *Rule {
	return &Rule{Mode: ModeAnd, Cardinality: OptionalRepeat, Children: children}
}

/*
List creates a separated list of items. The list may be empty if optional is set.
*/
func List(item Node, separator Node, optional bool) *Rule {
	card := Repeat
	if optional {
		card = OptionalRepeat
	}
	return &Rule{Mode: ModeAnd, Cardinality: card, Children: []Node{item}, Separator: separator}
}

/*
String returns the grammar notation of this node.
*/
func (r *Rule) String() string {
	return r.body(true)
}

/*
body returns the grammar notation of this rule. Named rules are written as
references unless top is set.
*/
func (r *Rule) body(top bool) string {
	if r.Name != "" && !top {
		return r.Name
	}

	children := make([]string, 0, len(r.Children))
	for _, c := range r.Children {
		if cr, ok := c.(*Rule); ok {
			children = append(children, cr.body(false))
		} else {
			children = append(children, c.String())
		}
	}

	sep := " "
	if r.Mode == ModeOr {
		sep = " | "
	}

	ret := strings.Join(children, sep)

	switch r.Cardinality {
	case Optional:
		ret = "[ " + ret + " ]"
	case Repeat, OptionalRepeat:
		if r.Separator != nil {
			ret += " % " + r.Separator.String()
		}
		ret = "{ " + ret + " }"
		if r.Cardinality == Repeat {
			ret += "+"
		}
	default:
		if !top && len(r.Children) > 1 {
			ret = "( " + ret + " )"
		}
	}

	return ret
}

// Grammar
// =======

/*
Grammar is a table of named rules.
*/
type Grammar struct {
	Root  string           // Default root rule (first defined rule)
	rules map[string]*Rule // Named rules
	order []string         // Definition order
}

/*
NewGrammar creates a new empty grammar.
*/
func NewGrammar() *Grammar {
	return &Grammar{rules: make(map[string]*Rule)}
}

/*
Define defines a named rule which matches the given nodes in sequence.
*/
func (g *Grammar) Define(name string, children ...Node) *Rule {
	r := &Rule{Name: name, Mode: ModeAnd, Children: children}

	if _, ok := g.rules[name]; !ok {
		g.order = append(g.order, name)
	}
	if g.Root == "" {
		g.Root = name
	}

	g.rules[name] = r

	return r
}

/*
Rule returns a named rule.
*/
func (g *Grammar) Rule(name string) (*Rule, bool) {
	r, ok := g.rules[name]
	return r, ok
}

/*
Rules returns the names of all defined rules in definition order.
*/
func (g *Grammar) Rules() []string {
	return append([]string(nil), g.order...)
}

/*
Validate checks that all rule references of the grammar can be resolved.
*/
func (g *Grammar) Validate() error {
	var missing []string

	seen := make(map[string]bool)

	var walk func(n Node)
	walk = func(n Node) {
		switch t := n.(type) {
		case *RuleReference:
			if _, ok := g.rules[t.Name]; !ok && !seen[t.Name] {
				seen[t.Name] = true
				missing = append(missing, t.Name)
			}
		case *Rule:
			for _, c := range t.Children {
				walk(c)
			}
			if t.Separator != nil {
				walk(t.Separator)
			}
		}
	}

	for _, name := range g.order {
		walk(g.rules[name])
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		return newError(g.Root, ErrMissingReference, strings.Join(missing, ", "), nil)
	}

	return nil
}

/*
String returns the grammar in textual notation.
*/
func (g *Grammar) String() string {
	var buf strings.Builder

	for _, name := range g.order {
		buf.WriteString(fmt.Sprintf("%v = %v ;\n", name, g.rules[name].body(true)))
	}

	return buf.String()
}
