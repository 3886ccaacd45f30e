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
Package util contains utility classes for the graph store.

GraphError

Models a graph related error. Low-level errors should be wrapped in a GraphError
before they are returned to a client. Every GraphError has a type which maps
onto a small status taxonomy (see StatusOf) so that outer layers (REST API,
console, command engine) can report results in a uniform way.

KeyFolder

Keys of nodes, edges, tags and indexes are compared case-insensitively. FoldKey
produces the canonical form which is used for all map lookups.
*/
package util

import (
	"errors"
	"fmt"
)

/*
GraphError is a graph related error
*/
type GraphError struct {
	Type   error  // Error type (to be used for equal checks)
	Detail string // Details of this error
}

/*
Error returns a human-readable string representation of this error.
*/
func (ge *GraphError) Error() string {
	if ge.Detail != "" {
		return fmt.Sprintf("GraphError: %v (%v)", ge.Type, ge.Detail)
	}

	return fmt.Sprintf("GraphError: %v", ge.Type)
}

/*
Unwrap returns the type of this error so errors.Is can be used on it.
*/
func (ge *GraphError) Unwrap() error {
	return ge.Type
}

/*
NewGraphError creates a new GraphError with a formatted detail message.
*/
func NewGraphError(t error, format string, args ...interface{}) *GraphError {
	return &GraphError{t, fmt.Sprintf(format, args...)}
}

/*
Result related error types
*/
var (
	ErrNotFound           = errors.New("Not found")
	ErrConflict           = errors.New("Conflict")
	ErrBadRequest         = errors.New("Bad request")
	ErrServiceUnavailable = errors.New("Service unavailable")
)

/*
Storage related error types
*/
var (
	ErrOpening         = errors.New("Failed to open store")
	ErrClosing         = errors.New("Failed to close store")
	ErrAccessComponent = errors.New("Failed to access store component")
	ErrCorruptedLog    = errors.New("Corrupted change log")
)

/*
Graph related error types
*/
var (
	ErrInvalidData = errors.New("Invalid data")
	ErrIndexError  = errors.New("Index error")
	ErrRule        = errors.New("Graph rule error")
)

/*
Status is the outcome of an operation as reported to a client.
*/
type Status int

/*
Known status values
*/
const (
	StatusOK Status = iota
	StatusNotFound
	StatusConflict
	StatusBadRequest
	StatusServiceUnavailable
)

/*
String returns a string representation of a status.
*/
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusNotFound:
		return "NotFound"
	case StatusConflict:
		return "Conflict"
	case StatusBadRequest:
		return "BadRequest"
	}
	return "ServiceUnavailable"
}

/*
StatusOf maps an error to a status. Errors which do not carry one of the
result error types are reported as StatusServiceUnavailable.
*/
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, ErrNotFound):
		return StatusNotFound
	case errors.Is(err, ErrConflict), errors.Is(err, ErrIndexError):
		return StatusConflict
	case errors.Is(err, ErrBadRequest), errors.Is(err, ErrInvalidData):
		return StatusBadRequest
	}

	return StatusServiceUnavailable
}
