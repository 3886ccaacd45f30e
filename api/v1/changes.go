/*
 * GraphMap
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package v1

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"devt.de/krotik/graphmap/api"
	"devt.de/krotik/graphmap/changelog"
	"devt.de/krotik/graphmap/ecal"
	"devt.de/krotik/graphmap/graph/util"
	"devt.de/krotik/graphmap/trans"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/krotik/common/logutil"
	"github.com/krotik/common/stringutil"
	"github.com/krotik/ecal/engine"
	"github.com/krotik/ecal/scope"
)

var logger = logutil.GetLogger("graphmap.api")

/*
EndpointChanges is the change feed endpoint URL (rooted). Handles everything under changes/...
*/
const EndpointChanges = api.APIRoot + APIv1 + "/changes/"

/*
changeFeedBuffer is the number of committed entries which can be queued
for the change feed.
*/
const changeFeedBuffer = 1024

/*
Feed is the change feed which is used by the changes endpoint (may be nil).
*/
var Feed *ChangeFeed

/*
upgrader can upgrade normal requests to websocket communications
*/
var changesUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

/*
ChangeFeed sends committed change log entries to connected websockets.
*/
type ChangeFeed struct {
	clients map[string]*ecal.WebsocketConnection
	max     int
	events  chan *changelog.Entry
	closed  bool
	lock    *sync.Mutex
}

/*
NewChangeFeed creates a new change feed for a transaction provider which
accepts up to max clients.
*/
func NewChangeFeed(lm *trans.LogManager, max int) *ChangeFeed {
	cf := &ChangeFeed{
		clients: make(map[string]*ecal.WebsocketConnection),
		max:     max,
		events:  make(chan *changelog.Entry, changeFeedBuffer),
		lock:    &sync.Mutex{},
	}

	go cf.run()

	lm.AddObserver(cf.publish)

	return cf
}

/*
publish queues a committed entry. Entries are dropped if the queue is full.
*/
func (cf *ChangeFeed) publish(e *changelog.Entry) {
	cf.lock.Lock()
	defer cf.lock.Unlock()

	if cf.closed {
		return
	}

	select {
	case cf.events <- e:
	default:
		logger.Warning(fmt.Sprintf("Change feed queue is full - dropping %v", e))
	}
}

func (cf *ChangeFeed) run() {
	for e := range cf.events {
		cf.Broadcast(e)
	}
}

/*
Broadcast sends an entry to all clients. Clients which cannot be written to
are removed.
*/
func (cf *ChangeFeed) Broadcast(e *changelog.Entry) {
	payload := ChangePayload(e)

	cf.lock.Lock()
	clients := make([]*ecal.WebsocketConnection, 0, len(cf.clients))
	for _, c := range cf.clients {
		clients = append(clients, c)
	}
	cf.lock.Unlock()

	for _, c := range clients {
		if err := c.WriteData(ecal.MsgChange, payload); err != nil {
			logger.Debug(fmt.Sprintf("Removing change feed client %v: %v", c.CommID, err))
			cf.Remove(c)
			c.Close("")
		}
	}
}

/*
Add adds a client to the feed.
*/
func (cf *ChangeFeed) Add(wc *ecal.WebsocketConnection) error {
	cf.lock.Lock()
	defer cf.lock.Unlock()

	if cf.closed {
		return &util.GraphError{Type: util.ErrServiceUnavailable, Detail: "Change feed is closed"}
	} else if len(cf.clients) >= cf.max {
		return &util.GraphError{Type: util.ErrServiceUnavailable,
			Detail: fmt.Sprintf("Too many change feed clients (maximum is %v)", cf.max)}
	}

	cf.clients[wc.CommID] = wc

	return nil
}

/*
Remove removes a client from the feed.
*/
func (cf *ChangeFeed) Remove(wc *ecal.WebsocketConnection) {
	cf.lock.Lock()
	defer cf.lock.Unlock()

	delete(cf.clients, wc.CommID)
}

/*
Count returns the number of connected clients.
*/
func (cf *ChangeFeed) Count() int {
	cf.lock.Lock()
	defer cf.lock.Unlock()

	return len(cf.clients)
}

/*
Close stops the feed and closes all client connections.
*/
func (cf *ChangeFeed) Close() {
	cf.lock.Lock()
	defer cf.lock.Unlock()

	if cf.closed {
		return
	}

	cf.closed = true
	close(cf.events)

	for id, c := range cf.clients {
		c.Close("Change feed closed")
		delete(cf.clients, id)
	}
}

/*
ChangePayload returns the websocket payload of a change log entry. Nodes and
edges are embedded as objects, data values as strings.
*/
func ChangePayload(e *changelog.Entry) map[string]interface{} {

	convert := func(b []byte) interface{} {
		if b == nil {
			return nil
		} else if e.Source != changelog.SourceData && json.Valid(b) {
			return json.RawMessage(b)
		}
		return string(b)
	}

	return map[string]interface{}{
		"source": e.Source.String(),
		"action": e.Action.String(),
		"key":    e.ObjectID,
		"lsn":    e.LSN,
		"trans":  e.TransID,
		"before": convert(e.Before),
		"after":  convert(e.After),
	}
}

/*
ChangesEndpointInst creates a new endpoint handler.
*/
func ChangesEndpointInst() api.RestEndpointHandler {
	return &changesEndpoint{}
}

/*
Handler object for change feed websockets.
*/
type changesEndpoint struct {
	*api.DefaultEndpointHandler
}

/*
HandleGET upgrades a request to a change feed websocket.
*/
func (ce *changesEndpoint) HandleGET(w http.ResponseWriter, r *http.Request, resources []string) {

	if Feed == nil {
		http.Error(w, "Change feed is not enabled", http.StatusNotFound)
		return
	}

	// If the upgrade fails then the client gets an HTTP error response.

	conn, err := changesUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	wc := ecal.NewWebsocketConnection(uuid.NewString(), conn)

	if err = wc.Init(); err == nil {
		err = Feed.Add(wc)
	}

	if err != nil {
		wc.WriteData(ecal.MsgError, map[string]interface{}{
			"error": err.Error(),
		})
		wc.Close(err.Error())
		return
	}

	defer Feed.Remove(wc)

	// Scripts can write to the websocket with db.web.sock.msg events

	if api.SI != nil {
		api.SI.RegisterECALSock(wc)
		defer api.SI.DeregisterECALSock(wc)
	}

	for {
		data, fatal, err := wc.ReadData()

		if err != nil {
			if fatal {
				break
			}

			wc.WriteData(ecal.MsgError, map[string]interface{}{
				"error": err.Error(),
			})

			continue
		}

		if val, ok := data["close"]; ok && stringutil.IsTrueValue(fmt.Sprint(val)) {
			break
		}

		if api.SI == nil || api.SI.Interpreter == nil {
			wc.WriteData(ecal.MsgError, map[string]interface{}{
				"error": "Messages require ECAL scripting",
			})
			continue
		}

		event := engine.NewEvent("WebSocketRequest", []string{"db", "web", "sock", "data"},
			map[interface{}]interface{}{
				"commID": wc.CommID,
				"data":   scope.ConvertJSONToECALObject(data),
			})

		if _, err := api.SI.Interpreter.RuntimeProvider.Processor.AddEvent(event, nil); err != nil {
			logger.Error(fmt.Sprintf("Could not add websocket event: %v", err))
		}
	}

	wc.Close("")
}

/*
SwaggerDefs is used to describe the endpoint in swagger.
*/
func (ce *changesEndpoint) SwaggerDefs(s map[string]interface{}) {
	// No swagger definitions for this endpoint as it only handles websocket requests
}
