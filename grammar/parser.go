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
)

/*
parser data structure
*/
type parser struct {
	g      *Grammar          // Grammar which is used
	root   string            // Root rule name
	tokens []tokenizer.Token // Token buffer
	pos    int               // Current token position
	stack  []int             // Saved token positions
	rules  []string          // Stack of named rules which are evaluated

	furthest int      // Furthest token position where a terminal failed
	expected []string // Expected terminals at the furthest position
	inRule   string   // Rule which was evaluated at the furthest position
}

/*
Parse parses a list of tokens starting with a given root rule. All tokens
must be consumed by the root rule.
*/
func (g *Grammar) Parse(root string, tokens []tokenizer.Token) (*SyntaxTree, error) {
	p := &parser{g: g, root: root, tokens: tokens, furthest: -1}

	rule, ok := g.rules[root]
	if !ok {
		return nil, newError(root, ErrMissingReference, root, nil)
	}

	res, err := p.matchRule(rule)

	if err == errNoMatch {
		return nil, p.failure(ErrNotFound)
	} else if err != nil {
		return nil, err
	}

	if p.pos < len(p.tokens) {
		if p.furthest > p.pos {
			return nil, p.failure(ErrInputNotCompleted)
		}

		tok := p.tokens[p.pos]

		return nil, newError(root, ErrInputNotCompleted,
			fmt.Sprintf("Unexpected %v", tok.String()), &tok)
	}

	return res[0], nil
}

/*
failure produces an error which describes the furthest position the parser reached.
*/
func (p *parser) failure(t error) error {
	expected := strings.Join(p.expected, " or ")

	if p.furthest < 0 || p.furthest >= len(p.tokens) {
		if t == ErrNotFound {
			t = ErrUnexpectedEnd
		}
		if expected != "" {
			return newError(p.root, t, fmt.Sprintf("Expected %v in %v", expected, p.inRule), nil)
		}
		return newError(p.root, t, "", nil)
	}

	tok := p.tokens[p.furthest]

	return newError(p.root, t, fmt.Sprintf("Unexpected %v - expected %v in %v",
		tok.String(), expected, p.inRule), &tok)
}

// Cursor stack
// ============

func (p *parser) push() {
	p.stack = append(p.stack, p.pos)
}

func (p *parser) commit() {
	p.stack = p.stack[:len(p.stack)-1]
}

func (p *parser) restore() {
	p.pos = p.stack[len(p.stack)-1]
	p.stack = p.stack[:len(p.stack)-1]
}

/*
attempt runs a match function. The token position is restored if the match fails.
*/
func (p *parser) attempt(f func() ([]*SyntaxTree, error)) ([]*SyntaxTree, error) {
	p.push()

	res, err := f()

	if err != nil {
		p.restore()
	} else {
		p.commit()
	}

	return res, err
}

// Matching
// ========

/*
match matches a single node. Returns errNoMatch if the node does not match.
*/
func (p *parser) match(n Node) ([]*SyntaxTree, error) {
	switch t := n.(type) {

	case *Terminal:
		return p.matchToken(t, func(tok *tokenizer.Token) bool {
			if t.Pattern != nil {
				if t.MatchRaw {
					return t.Pattern.MatchString(tok.Raw)
				}
				return tok.Type != tokenizer.TypeBlock && !tok.Syntax && t.Pattern.MatchString(tok.Value)
			}
			return tok.Type == tokenizer.TypeToken && !tok.Quoted && tok.Value == t.Literal
		})

	case *VirtualTerminal:
		return p.matchToken(t, func(tok *tokenizer.Token) bool {
			return tok.Value == t.Text
		})

	case *RuleReference:
		rule, ok := p.g.rules[t.Name]
		if !ok {
			var tok *tokenizer.Token
			if p.pos < len(p.tokens) {
				tok = &p.tokens[p.pos]
			}
			return nil, newError(p.root, ErrMissingReference,
				fmt.Sprintf("%v in %v", t.Name, p.currentRule()), tok)
		}
		return p.matchRule(rule)

	case *Rule:
		return p.matchRule(t)
	}

	return nil, newError(p.root, ErrInvalidGrammar, fmt.Sprintf("Unknown node %v", n), nil)
}

/*
matchToken matches the current token with a given predicate.
*/
func (p *parser) matchToken(n Node, pred func(*tokenizer.Token) bool) ([]*SyntaxTree, error) {
	if p.pos < len(p.tokens) {
		tok := &p.tokens[p.pos]

		if pred(tok) {
			p.pos++
			return []*SyntaxTree{{Name: n.String(), Token: tok, Terminal: n}}, nil
		}
	}

	// Remember what was expected at the furthest position

	if p.pos > p.furthest {
		p.furthest = p.pos
		p.expected = nil
		p.inRule = p.currentRule()
	}

	if p.pos == p.furthest {
		exp := n.String()
		for _, e := range p.expected {
			if e == exp {
				return nil, errNoMatch
			}
		}
		p.expected = append(p.expected, exp)
	}

	return nil, errNoMatch
}

func (p *parser) currentRule() string {
	if len(p.rules) == 0 {
		return p.root
	}
	return p.rules[len(p.rules)-1]
}

/*
matchRule matches a composite rule according to its cardinality.
*/
func (p *parser) matchRule(r *Rule) ([]*SyntaxTree, error) {
	var res []*SyntaxTree
	var err error

	if r.Name != "" {
		p.rules = append(p.rules, r.Name)
		defer func() {
			p.rules = p.rules[:len(p.rules)-1]
		}()
	}

	once := func() ([]*SyntaxTree, error) {
		return p.matchOnce(r)
	}

	switch r.Cardinality {

	case Required:
		res, err = p.attempt(once)

	case Optional:
		if res, err = p.attempt(once); err == errNoMatch {
			res, err = nil, nil
		}

	default:
		res, err = p.matchRepeat(r, once)
	}

	if err != nil {
		return nil, err
	}

	if r.Name != "" {
		return []*SyntaxTree{{Name: r.Name, Children: res}}, nil
	}

	return res, nil
}

/*
matchOnce evaluates the children of a rule once according to its mode.
*/
func (p *parser) matchOnce(r *Rule) ([]*SyntaxTree, error) {
	var ret []*SyntaxTree

	if r.Mode == ModeOr {
		for _, c := range r.Children {
			res, err := p.attempt(func() ([]*SyntaxTree, error) {
				return p.match(c)
			})

			if err != errNoMatch {
				return res, err
			}
		}

		return nil, errNoMatch
	}

	for _, c := range r.Children {
		res, err := p.match(c)
		if err != nil {
			return nil, err
		}
		ret = append(ret, res...)
	}

	return ret, nil
}

/*
matchRepeat matches a rule repeatedly until it fails or the input is exhausted.
*/
func (p *parser) matchRepeat(r *Rule, once func() ([]*SyntaxTree, error)) ([]*SyntaxTree, error) {
	var ret []*SyntaxTree

	count := 0

	for {
		start := p.pos

		res, err := p.attempt(func() ([]*SyntaxTree, error) {
			if count > 0 && r.Separator != nil {

				// Separators are not part of the result

				if _, err := p.match(r.Separator); err != nil {
					return nil, err
				}
			}
			return once()
		})

		if err == errNoMatch {
			break
		} else if err != nil {
			return nil, err
		}

		ret = append(ret, res...)
		count++

		// Stop if nothing was consumed to avoid an endless loop

		if p.pos == start || p.pos >= len(p.tokens) {
			break
		}
	}

	if count == 0 && r.Cardinality == Repeat {
		return nil, errNoMatch
	}

	return ret, nil
}
