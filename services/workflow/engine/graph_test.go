// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianFlow/services/workflow/datatypes"
)

func node(id, componentType string) datatypes.Node {
	return datatypes.Node{ID: id, Data: datatypes.NodeData{Type: componentType}}
}

func edge(source, target string) datatypes.Edge {
	return datatypes.Edge{Source: source, Target: target}
}

// validNodes returns the minimal structurally valid node set.
func validNodes() []datatypes.Node {
	return []datatypes.Node{
		node("q1", "user_query"),
		node("o1", "output"),
	}
}

func TestValidateWorkflow_Reasons(t *testing.T) {
	tests := []struct {
		name   string
		nodes  []datatypes.Node
		edges  []datatypes.Edge
		reason string
	}{
		{
			name:   "no nodes",
			nodes:  nil,
			edges:  []datatypes.Edge{edge("a", "b")},
			reason: "no nodes present",
		},
		{
			name:   "no edges",
			nodes:  validNodes(),
			edges:  nil,
			reason: "no connections present",
		},
		{
			name:   "missing user_query",
			nodes:  []datatypes.Node{node("l1", "llm_engine"), node("o1", "output")},
			edges:  []datatypes.Edge{edge("l1", "o1")},
			reason: "missing required node: user_query",
		},
		{
			name:   "missing output",
			nodes:  []datatypes.Node{node("q1", "user_query"), node("l1", "llm_engine")},
			edges:  []datatypes.Edge{edge("q1", "l1")},
			reason: "missing required node: output",
		},
		{
			name:   "edge with empty source",
			nodes:  validNodes(),
			edges:  []datatypes.Edge{edge("", "o1")},
			reason: "invalid edges",
		},
		{
			name:   "edge with empty target",
			nodes:  validNodes(),
			edges:  []datatypes.Edge{edge("q1", "")},
			reason: "invalid edges",
		},
		{
			name:   "two node cycle",
			nodes:  validNodes(),
			edges:  []datatypes.Edge{edge("q1", "o1"), edge("o1", "q1")},
			reason: "workflow contains cycles",
		},
		{
			name:   "self loop",
			nodes:  validNodes(),
			edges:  []datatypes.Edge{edge("q1", "o1"), edge("o1", "o1")},
			reason: "workflow contains cycles",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateWorkflow(tt.nodes, tt.edges)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidWorkflow))

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.reason, verr.Reason)
		})
	}
}

func TestValidateWorkflow_MinimalValid(t *testing.T) {
	err := validateWorkflow(validNodes(), []datatypes.Edge{edge("q1", "o1")})
	assert.NoError(t, err)
}

// The first failing check wins: an empty graph reports missing nodes, not
// missing edges.
func TestValidateWorkflow_CheckOrder(t *testing.T) {
	err := validateWorkflow(nil, nil)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "no nodes present", verr.Reason)
}

func TestTopologicalOrder_RespectsDependencies(t *testing.T) {
	nodes := []datatypes.Node{
		node("q1", "user_query"),
		node("kb1", "knowledge_base"),
		node("llm1", "llm_engine"),
		node("o1", "output"),
	}
	edges := []datatypes.Edge{
		edge("q1", "kb1"),
		edge("kb1", "llm1"),
		edge("llm1", "o1"),
	}

	g := buildExecutionGraph(nodes, edges)
	order, err := g.topologicalOrder()
	require.NoError(t, err)
	assert.Equal(t, []string{"q1", "kb1", "llm1", "o1"}, order)
}

func TestTopologicalOrder_DeterministicTieBreak(t *testing.T) {
	// Two independent branches join on the output node. The only valid
	// orders differ in branch interleaving; ties are broken by node id.
	nodes := []datatypes.Node{
		node("q1", "user_query"),
		node("b", "llm_engine"),
		node("a", "knowledge_base"),
		node("o1", "output"),
	}
	edges := []datatypes.Edge{
		edge("q1", "a"),
		edge("q1", "b"),
		edge("a", "o1"),
		edge("b", "o1"),
	}

	g := buildExecutionGraph(nodes, edges)
	first, err := g.topologicalOrder()
	require.NoError(t, err)
	assert.Equal(t, []string{"q1", "a", "b", "o1"}, first)

	// Repeated runs over fresh graphs must agree despite map iteration.
	for i := 0; i < 20; i++ {
		again, err := buildExecutionGraph(nodes, edges).topologicalOrder()
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestBuildExecutionGraph_ImplicitNodes(t *testing.T) {
	// An edge endpoint missing from the node list becomes an implicit
	// typeless node rather than an error.
	g := buildExecutionGraph(validNodes(), []datatypes.Edge{
		edge("q1", "ghost"),
		edge("ghost", "o1"),
	})

	require.Contains(t, g.nodes, "ghost")
	assert.Equal(t, "", g.nodes["ghost"].componentType)

	order, err := g.topologicalOrder()
	require.NoError(t, err)
	assert.Equal(t, []string{"q1", "ghost", "o1"}, order)
}

func TestBuildExecutionGraph_PredOrderFollowsEdgeOrder(t *testing.T) {
	nodes := []datatypes.Node{
		node("q1", "user_query"),
		node("x", "llm_engine"),
		node("y", "llm_engine"),
		node("o1", "output"),
	}
	edges := []datatypes.Edge{
		edge("q1", "x"),
		edge("q1", "y"),
		edge("y", "o1"),
		edge("x", "o1"),
	}

	g := buildExecutionGraph(nodes, edges)
	assert.Equal(t, []string{"y", "x"}, g.preds["o1"])
}

func TestHasCycle(t *testing.T) {
	assert.False(t, hasCycle([]datatypes.Edge{edge("a", "b"), edge("b", "c")}))
	assert.True(t, hasCycle([]datatypes.Edge{edge("a", "b"), edge("b", "a")}))
	assert.True(t, hasCycle([]datatypes.Edge{edge("a", "a")}))
	assert.True(t, hasCycle([]datatypes.Edge{
		edge("a", "b"), edge("b", "c"), edge("c", "b"),
	}))
}
