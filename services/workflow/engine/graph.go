// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engine

import (
	"sort"

	"github.com/AleutianAI/AleutianFlow/services/workflow/components"
	"github.com/AleutianAI/AleutianFlow/services/workflow/datatypes"
)

// graphNode is one node of the in-memory execution graph. result holds the
// node's output data after it has run, for downstream introspection.
type graphNode struct {
	id            string
	componentType string
	config        map[string]any
	result        map[string]any
}

// executionGraph is the adjacency view the executor walks. Predecessor
// lists preserve edge insertion order, which fixes the (documented)
// last-writer-wins behavior when two predecessors emit the same field.
type executionGraph struct {
	nodes map[string]*graphNode
	preds map[string][]string
	succs map[string][]string
}

// buildExecutionGraph constructs the in-memory graph from the submitted
// node and edge lists. An edge endpoint that does not appear in the node
// list becomes an implicit node with an empty component type; the executor
// skips such nodes rather than failing, matching the permissive behavior
// the editor relies on while a graph is being drawn.
func buildExecutionGraph(nodes []datatypes.Node, edges []datatypes.Edge) *executionGraph {
	g := &executionGraph{
		nodes: make(map[string]*graphNode, len(nodes)),
		preds: make(map[string][]string),
		succs: make(map[string][]string),
	}
	for _, n := range nodes {
		g.nodes[n.ID] = &graphNode{
			id:            n.ID,
			componentType: n.Data.Type,
			config:        n.Data.Config,
		}
	}
	for _, e := range edges {
		for _, id := range []string{e.Source, e.Target} {
			if _, ok := g.nodes[id]; !ok {
				g.nodes[id] = &graphNode{id: id}
			}
		}
		g.preds[e.Target] = append(g.preds[e.Target], e.Source)
		g.succs[e.Source] = append(g.succs[e.Source], e.Target)
	}
	return g
}

// validateWorkflow checks the structural invariants, in order, and
// short-circuits on the first failure. It is pure and is re-run on every
// execution; callers may mutate and resubmit a graph between runs.
func validateWorkflow(nodes []datatypes.Node, edges []datatypes.Edge) error {
	if len(nodes) == 0 {
		return &ValidationError{Reason: "no nodes present"}
	}
	if len(edges) == 0 {
		return &ValidationError{Reason: "no connections present"}
	}

	hasType := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		hasType[n.Data.Type] = true
	}
	if !hasType[components.TypeUserQuery] {
		return &ValidationError{Reason: "missing required node: user_query"}
	}
	if !hasType[components.TypeOutput] {
		return &ValidationError{Reason: "missing required node: output"}
	}

	for _, e := range edges {
		if e.Source == "" || e.Target == "" {
			return &ValidationError{Reason: "invalid edges"}
		}
	}
	if hasCycle(edges) {
		return &ValidationError{Reason: "workflow contains cycles"}
	}
	return nil
}

// hasCycle runs Kahn's algorithm over the edge relation alone: if some node
// never reaches in-degree zero, the relation contains a cycle.
func hasCycle(edges []datatypes.Edge) bool {
	indegree := make(map[string]int)
	succs := make(map[string][]string)
	for _, e := range edges {
		if _, ok := indegree[e.Source]; !ok {
			indegree[e.Source] = 0
		}
		indegree[e.Target]++
		succs[e.Source] = append(succs[e.Source], e.Target)
	}

	var ready []string
	for id, d := range indegree {
		if d == 0 {
			ready = append(ready, id)
		}
	}

	processed := 0
	for len(ready) > 0 {
		id := ready[len(ready)-1]
		ready = ready[:len(ready)-1]
		processed++
		for _, succ := range succs[id] {
			indegree[succ]--
			if indegree[succ] == 0 {
				ready = append(ready, succ)
			}
		}
	}
	return processed != len(indegree)
}

// topologicalOrder returns an execution order in which every node appears
// after all of its predecessors. Ties among simultaneously ready nodes are
// broken by lexicographic node id, so the order is deterministic for a
// fixed graph.
func (g *executionGraph) topologicalOrder() ([]string, error) {
	indegree := make(map[string]int, len(g.nodes))
	for id := range g.nodes {
		indegree[id] = len(g.preds[id])
	}

	var ready []string
	for id, d := range indegree {
		if d == 0 {
			ready = append(ready, id)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, len(g.nodes))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)

		released := false
		for _, succ := range g.succs[id] {
			indegree[succ]--
			if indegree[succ] == 0 {
				ready = append(ready, succ)
				released = true
			}
		}
		if released {
			sort.Strings(ready)
		}
	}

	if len(order) != len(g.nodes) {
		// Unreachable after validateWorkflow, kept as a guard.
		return nil, &ValidationError{Reason: "workflow contains cycles"}
	}
	return order, nil
}
