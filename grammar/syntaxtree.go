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
	"bytes"
	"fmt"
	"strings"

	"devt.de/krotik/graphmap/tokenizer"
)

/*
SyntaxTree is the result of a successful parse. Interior nodes are produced by
named rules, terminal nodes pair a token with the grammar node which matched it.
*/
type SyntaxTree struct {
	Name     string           // Name of the rule or terminal
	Children []*SyntaxTree    // Child nodes (interior nodes only)
	Token    *tokenizer.Token // Matched token (terminal nodes only)
	Terminal Node             // Terminal which matched the token (terminal nodes only)
}

/*
IsTerminal checks if this is a terminal node.
*/
func (st *SyntaxTree) IsTerminal() bool {
	return st.Token != nil
}

/*
Value returns the value of this node. The value of a terminal node is the
decoded token value (or the text of a virtual terminal), the value of an
interior node is the concatenation of all terminal values separated by spaces.
*/
func (st *SyntaxTree) Value() string {
	if st.IsTerminal() {
		if vt, ok := st.Terminal.(*VirtualTerminal); ok {
			return vt.Text
		}
		return st.Token.Value
	}

	vals := make([]string, 0, len(st.Children))
	for _, c := range st.Children {
		vals = append(vals, c.Value())
	}

	return strings.Join(vals, " ")
}

/*
Child returns the first direct child with a given name.
*/
func (st *SyntaxTree) Child(name string) *SyntaxTree {
	for _, c := range st.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

/*
Find returns the first node with a given name (depth first). The node itself
is not considered.
*/
func (st *SyntaxTree) Find(name string) *SyntaxTree {
	for _, c := range st.Children {
		if c.Name == name {
			return c
		}
		if res := c.Find(name); res != nil {
			return res
		}
	}
	return nil
}

/*
FindAll returns all nodes with a given name. The search does not descend into
matching nodes.
*/
func (st *SyntaxTree) FindAll(name string) []*SyntaxTree {
	var ret []*SyntaxTree

	for _, c := range st.Children {
		if c.Name == name {
			ret = append(ret, c)
		} else {
			ret = append(ret, c.FindAll(name)...)
		}
	}

	return ret
}

/*
String returns a string representation of this syntax tree.
*/
func (st *SyntaxTree) String() string {
	var buf bytes.Buffer
	st.levelString(0, &buf)
	return buf.String()
}

func (st *SyntaxTree) levelString(indent int, buf *bytes.Buffer) {
	buf.WriteString(strings.Repeat("  ", indent))

	if st.IsTerminal() {
		buf.WriteString(fmt.Sprintf("%v: %q\n", st.Name, st.Value()))
		return
	}

	buf.WriteString(st.Name)
	buf.WriteString("\n")

	for _, c := range st.Children {
		c.levelString(indent+1, buf)
	}
}
