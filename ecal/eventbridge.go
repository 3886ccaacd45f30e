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
Package ecal connects GraphMap to the event condition action language (ECAL).

Every committed change log entry raises an ECAL event. The event kind is
db.<source>.<action>, e.g. db.node.add, db.edge.delete or db.data.update.
The event state contains:

	lsn       - Log sequence number of the entry
	trans     - ID of the transaction which produced the entry
	key       - Key of the changed object
	node      - Node after the change (node events)
	old_node  - Node before the change (node events)
	edge      - Edge after the change (edge events)
	old_edge  - Edge before the change (edge events)
	value     - Value after the change (data events)
	old_value - Value before the change (data events)

Missing objects (e.g. old_node of an add) are NULL.
*/
package ecal

import (
	"fmt"
	"strings"
	"sync"

	"devt.de/krotik/graphmap/changelog"
	"devt.de/krotik/graphmap/ecal/dbfunc"
	"github.com/krotik/ecal/engine"
	"github.com/krotik/ecal/util"
)

/*
EventKind returns the ECAL event kind of a change log entry.
*/
func EventKind(e *changelog.Entry) []string {
	return []string{"db", e.Source.String(), e.Action.String()}
}

/*
EventBridge forwards committed change log entries to an ECAL processor.
*/
type EventBridge struct {
	processor engine.Processor
	logger    util.Logger
	lock      *sync.RWMutex
}

/*
NewEventBridge creates a new event bridge.
*/
func NewEventBridge(processor engine.Processor, logger util.Logger) *EventBridge {
	return &EventBridge{processor, logger, &sync.RWMutex{}}
}

/*
SetProcessor replaces the processor which receives events.
*/
func (eb *EventBridge) SetProcessor(processor engine.Processor, logger util.Logger) {
	eb.lock.Lock()
	defer eb.lock.Unlock()

	eb.processor = processor
	eb.logger = logger
}

/*
Handle handles a committed change log entry. Events are added without
waiting for their rules to finish; rules may run new transactions.
*/
func (eb *EventBridge) Handle(e *changelog.Entry) {
	eb.lock.RLock()
	defer eb.lock.RUnlock()

	if eb.processor == nil {
		return
	}

	kind := EventKind(e)
	name := fmt.Sprintf("GraphMap: %v", strings.Join(kind, "."))

	// Construct an event which can be used to check if any rule will trigger.
	// This avoids the state construction below for events which would not
	// trigger any rules.

	if !eb.processor.IsTriggering(engine.NewEvent(name, kind, nil)) {
		return
	}

	state := map[interface{}]interface{}{
		"lsn":   float64(e.LSN),
		"trans": e.TransID,
		"key":   e.ObjectID,
	}

	switch e.Source {
	case changelog.SourceNode:
		state["node"] = dbfunc.JSONToECALObject(e.After)
		state["old_node"] = dbfunc.JSONToECALObject(e.Before)

	case changelog.SourceEdge:
		state["edge"] = dbfunc.JSONToECALObject(e.After)
		state["old_edge"] = dbfunc.JSONToECALObject(e.Before)

	case changelog.SourceData:
		state["value"] = nil
		state["old_value"] = nil

		if e.After != nil {
			state["value"] = string(e.After)
		}
		if e.Before != nil {
			state["old_value"] = string(e.Before)
		}
	}

	if _, err := eb.processor.AddEvent(engine.NewEvent(name, kind, state), nil); err != nil {
		eb.logger.LogError(fmt.Sprintf("Could not add event for %v: %v", e, err))
	}
}
