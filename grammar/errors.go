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

	"devt.de/krotik/graphmap/tokenizer"
)

/*
Error models a parser related error
*/
type Error struct {
	Source string // Name of the rule which was given to the parser
	Type   error  // Error type (to be used for equal checks)
	Detail string // Details of this error
	Line   int    // Line of the error
	Pos    int    // Position of the error
}

/*
newError creates a new Error object. The token is optional.
*/
func newError(source string, t error, d string, token *tokenizer.Token) *Error {
	if token == nil {
		return &Error{source, t, d, 0, 0}
	}
	return &Error{source, t, d, token.Line, token.Pos}
}

/*
Error returns a human-readable string representation of this error.
*/
func (pe *Error) Error() string {
	var ret string

	if pe.Detail != "" {
		ret = fmt.Sprintf("Parse error in %s: %v (%v)", pe.Source, pe.Type, pe.Detail)
	} else {
		ret = fmt.Sprintf("Parse error in %s: %v", pe.Source, pe.Type)
	}

	if pe.Line != 0 {
		return fmt.Sprintf("%s (Line:%d Pos:%d)", ret, pe.Line, pe.Pos)
	}

	return ret
}

/*
Unwrap returns the type of this error.
*/
func (pe *Error) Unwrap() error {
	return pe.Type
}

/*
Parser related error types
*/
var (
	ErrNotFound          = errors.New("Unexpected term")
	ErrUnexpectedEnd     = errors.New("Unexpected end")
	ErrMissingReference  = errors.New("Missing rule reference")
	ErrInputNotCompleted = errors.New("Input not completed")
	ErrInvalidGrammar    = errors.New("Invalid grammar")
)

/*
errNoMatch is the internal signal for a failed (backtrackable) match.
*/
var errNoMatch = errors.New("No match")
