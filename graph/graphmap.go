/*
 * GraphMap
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package graph

import (
	"fmt"
	"sort"
	"sync"

	"devt.de/krotik/graphmap/graph/data"
	"devt.de/krotik/graphmap/graph/util"
	"github.com/krotik/common/logutil"
)

var logger = logutil.GetLogger("graphmap.graph")

/*
Journal receives all changes of a critical section in the order in which they
were applied. Record is called while the GraphMap lock is held.
*/
type Journal interface {

	/*
		Record records a graph event (see EventNodeCreated etc.).
	*/
	Record(event int, data ...interface{})
}

/*
GraphMap data structure
*/
type GraphMap struct {
	mutex   *sync.Mutex                      // Mutex which guards all data
	nodes   map[string]*data.GraphNode       // Nodes by folded key
	edges   map[data.EdgeKey]*data.GraphEdge // Edges by key
	tags    *tagIndex                        // Tag index
	unique  *uniqueIndex                     // Unique index
	ri      *riIndex                         // Referential integrity index
	policy  EdgePolicy                       // Edge policy on node deletion
	lastLSN uint64                           // Last applied log sequence number
	gr      *graphRulesManager               // Manager for graph rules
}

/*
NewGraphMap creates a new empty GraphMap.
*/
func NewGraphMap() *GraphMap {
	gm := &GraphMap{
		mutex:  &sync.Mutex{},
		nodes:  make(map[string]*data.GraphNode),
		edges:  make(map[data.EdgeKey]*data.GraphEdge),
		tags:   newTagIndex(),
		unique: newUniqueIndex(),
		ri:     newRIIndex(),
	}

	gm.gr = &graphRulesManager{gm, make(map[string]Rule), make(map[int]map[string]Rule)}

	gm.SetGraphRule(&SystemRuleDeleteNodeEdges{})

	return gm
}

/*
SetEdgePolicy sets the policy for incident edges of deleted nodes.
*/
func (gm *GraphMap) SetEdgePolicy(policy EdgePolicy) {
	gm.mutex.Lock()
	defer gm.mutex.Unlock()

	gm.policy = policy
}

/*
SetGraphRule sets a graph rule.
*/
func (gm *GraphMap) SetGraphRule(rule Rule) {
	gm.mutex.Lock()
	defer gm.mutex.Unlock()

	gm.gr.SetGraphRule(rule)
}

/*
GraphRules returns a list of all available graph rules.
*/
func (gm *GraphMap) GraphRules() []string {
	gm.mutex.Lock()
	defer gm.mutex.Unlock()

	return gm.gr.GraphRules()
}

/*
Update runs a function inside a critical section. All changes are reported
to the given journal (which may be nil). Changes which were applied before
the function returned an error are not undone.
*/
func (gm *GraphMap) Update(j Journal, fn func(s *Section) error) error {
	gm.mutex.Lock()
	defer gm.mutex.Unlock()

	return fn(&Section{gm, j})
}

/*
View runs a read-only function inside a critical section.
*/
func (gm *GraphMap) View(fn func(s *Section) error) error {
	return gm.Update(nil, fn)
}

/*
LastLSN returns the log sequence number of the last applied change.
*/
func (gm *GraphMap) LastLSN() uint64 {
	gm.mutex.Lock()
	defer gm.mutex.Unlock()

	return gm.lastLSN
}

/*
String returns a string representation of this GraphMap.
*/
func (gm *GraphMap) String() string {
	gm.mutex.Lock()
	defer gm.mutex.Unlock()

	return fmt.Sprintf("GraphMap: %v nodes, %v edges, LSN %v",
		len(gm.nodes), len(gm.edges), gm.lastLSN)
}

/*
Section is a critical section of a GraphMap. A Section must not be used
outside of the function it was given to.
*/
type Section struct {
	gm      *GraphMap
	journal Journal
}

/*
event reports a graph event to the journal and to all graph rules.
*/
func (s *Section) event(event int, ed ...interface{}) error {
	if s.journal != nil && event != EventNodeDeleting {
		s.journal.Record(event, ed...)
	}

	return s.gm.gr.graphEvent(s, event, ed...)
}

/*
WithJournal returns a view of this section which reports to another journal.
*/
func (s *Section) WithJournal(j Journal) *Section {
	return &Section{s.gm, j}
}

/*
Policy returns the current edge policy.
*/
func (s *Section) Policy() EdgePolicy {
	return s.gm.policy
}

/*
LastLSN returns the log sequence number of the last applied change.
*/
func (s *Section) LastLSN() uint64 {
	return s.gm.lastLSN
}

/*
AdvanceLSN records a new log sequence number. The number is only changed if
the given number is greater than the current one.
*/
func (s *Section) AdvanceLSN(lsn uint64) {
	if lsn > s.gm.lastLSN {
		s.gm.lastLSN = lsn
	}
}

// Snapshots
// =========

/*
Snapshot is a consistent copy of all nodes and edges of a GraphMap.
*/
type Snapshot struct {
	LSN   uint64            `json:"lsn"`
	Nodes []*data.GraphNode `json:"nodes"`
	Edges []*data.GraphEdge `json:"edges"`
}

/*
Snapshot creates a snapshot of the GraphMap.
*/
func (s *Section) Snapshot() *Snapshot {
	snap := &Snapshot{LSN: s.gm.lastLSN}

	for _, k := range s.nodeKeys() {
		snap.Nodes = append(snap.Nodes, s.gm.nodes[k].Clone())
	}

	keys := make([]data.EdgeKey, 0, len(s.gm.edges))
	for k := range s.gm.edges {
		keys = append(keys, k)
	}
	sortEdgeKeys(keys)

	for _, k := range keys {
		snap.Edges = append(snap.Edges, s.gm.edges[k].Clone())
	}

	return snap
}

/*
Restore replaces all data of the GraphMap with the contents of a snapshot.
No events are raised. The GraphMap is left empty if the snapshot is not
consistent.
*/
func (s *Section) Restore(snap *Snapshot) error {
	gm := s.gm

	reset := func() {
		gm.nodes = make(map[string]*data.GraphNode)
		gm.edges = make(map[data.EdgeKey]*data.GraphEdge)
		gm.tags = newTagIndex()
		gm.unique = newUniqueIndex()
		gm.ri = newRIIndex()
	}

	reset()

	err := func() error {
		for _, n := range snap.Nodes {
			if err := n.Validate(); err != nil {
				return err
			}

			n = n.Normalize()
			k := util.FoldKey(n.Key)
			pairs := n.UniquePairs()

			if _, ok := gm.nodes[k]; ok {
				return &util.GraphError{Type: util.ErrConflict,
					Detail: fmt.Sprintf("Node %v exists more than once", n.Key)}
			}
			if err := gm.unique.verify(k, pairs); err != nil {
				return err
			}

			gm.nodes[k] = n
			gm.tags.add(k, n.Tags)
			gm.unique.set(k, pairs)
		}

		for _, e := range snap.Edges {
			e = e.Normalize()

			if err := s.checkEdge(e); err != nil {
				return err
			}

			gm.edges[e.Key()] = e
			gm.ri.add(e.Key())
		}

		return nil
	}()

	if err != nil {
		reset()
		return err
	}

	s.AdvanceLSN(snap.LSN)

	logger.Debug(fmt.Sprintf("Restored %v nodes and %v edges (LSN %v)",
		len(gm.nodes), len(gm.edges), snap.LSN))

	return nil
}

func (s *Section) nodeKeys() []string {
	keys := make([]string, 0, len(s.gm.nodes))
	for k := range s.gm.nodes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
