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
	"sort"
	"strings"

	"devt.de/krotik/graphmap/graph/data"
	"devt.de/krotik/graphmap/graph/util"
)

/*
GraphRulesManager data structure
*/
type graphRulesManager struct {
	gm       *GraphMap               // GraphMap which provides events
	rules    map[string]Rule         // Map of graph rules
	eventMap map[int]map[string]Rule // Map of events to graph rules
}

/*
Rule models a graph rule.
*/
type Rule interface {

	/*
	   Name returns the name of the rule.
	*/
	Name() string

	/*
		Handles returns a list of events which are handled by this rule.
	*/
	Handles() []int

	/*
		Handle handles an event. The function runs inside the critical section
		of the operation which raised the event. All changes should be written
		to the given section.
	*/
	Handle(s *Section, event int, data ...interface{}) error
}

/*
graphEvent main event handler which receives all graph related events.
Rules are called in name order.
*/
func (gr *graphRulesManager) graphEvent(s *Section, event int, ed ...interface{}) error {
	var errors []string

	rules, ok := gr.eventMap[event]
	if !ok {
		return nil
	}

	names := make([]string, 0, len(rules))
	for name := range rules {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {

		if err := rules[name].Handle(s, event, ed...); err != nil {

			// Graph errors are passed on so their type is preserved

			if _, ok := err.(*util.GraphError); ok && len(rules) == 1 {
				return err
			}

			errors = append(errors, err.Error())
		}
	}

	if errors != nil {
		return &util.GraphError{Type: util.ErrRule, Detail: strings.Join(errors, ";")}
	}

	return nil
}

/*
SetGraphRule sets a GraphRule.
*/
func (gr *graphRulesManager) SetGraphRule(rule Rule) {
	gr.rules[rule.Name()] = rule

	for _, handledEvent := range rule.Handles() {

		rules, ok := gr.eventMap[handledEvent]
		if !ok {
			rules = make(map[string]Rule)
			gr.eventMap[handledEvent] = rules
		}

		rules[rule.Name()] = rule
	}
}

/*
GraphRules returns a list of all available graph rules.
*/
func (gr *graphRulesManager) GraphRules() []string {
	ret := make([]string, 0, len(gr.rules))

	for rule := range gr.rules {
		ret = append(ret, rule)
	}

	sort.StringSlice(ret).Sort()

	return ret
}

// System rule SystemRuleDeleteNodeEdges
// =====================================

/*
SystemRuleDeleteNodeEdges is a system rule to delete all edges of a node
before the node is deleted. The rule does nothing if the edge policy of the
GraphMap is PolicyRestrict.
*/
type SystemRuleDeleteNodeEdges struct {
}

/*
Name returns the name of the rule.
*/
func (r *SystemRuleDeleteNodeEdges) Name() string {
	return "system.deletenodeedges"
}

/*
Handles returns a list of events which are handled by this rule.
*/
func (r *SystemRuleDeleteNodeEdges) Handles() []int {
	return []int{EventNodeDeleting}
}

/*
Handle handles an event.
*/
func (r *SystemRuleDeleteNodeEdges) Handle(s *Section, event int, ed ...interface{}) error {
	if s.Policy() == PolicyRestrict {
		return nil
	}

	node := ed[0].(*data.GraphNode)

	for _, edge := range s.Edges(node.Key) {
		if _, err := s.RemoveEdge(edge.Key()); err != nil {
			return err
		}
	}

	return nil
}
