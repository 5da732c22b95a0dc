package graph

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDOT_ClustersNestByParent(t *testing.T) {
	files := []SourceFile{
		{System: &SystemDecl{ID: "platform", Name: "Platform"}},
		{
			System:         &SystemDecl{ID: "payments", Name: "Payments"},
			StoredInSystem: "platform",
			Subsystems:     []SubsystemDecl{{ID: "checkout"}},
		},
	}

	out := Build(files).DOT()

	assert.Contains(t, out, "  subgraph \"cluster_platform\" {")
	assert.Contains(t, out, "    subgraph \"cluster_payments\" {")
	assert.Contains(t, out, "      \"checkout\" [label=\"checkout\"];")

	// The inner cluster opens after the outer one
	outer := strings.Index(out, "cluster_platform")
	inner := strings.Index(out, "cluster_payments")
	node := strings.Index(out, "\"checkout\"")
	require.NotEqual(t, -1, outer)
	require.NotEqual(t, -1, inner)
	require.NotEqual(t, -1, node)
	assert.Less(t, outer, inner)
	assert.Less(t, inner, node)
}

func TestDOT_EdgesEmittedAtRootScope(t *testing.T) {
	files := []SourceFile{
		{
			System: &SystemDecl{ID: "core"},
			Subsystems: []SubsystemDecl{
				{ID: "billing", Dependencies: []DependencyDecl{{ID: "ledger"}}},
				{ID: "ledger"},
			},
		},
	}

	out := Build(files).DOT()

	// Nodes sit inside the cluster, the edge at the top level.
	assert.Contains(t, out, "    \"billing\" [label=\"billing\"];")
	assert.Contains(t, out, "\n  \"billing\" -> \"ledger\";\n")
}

func TestDOT_UnresolvedDependencyDrawsNoEdge(t *testing.T) {
	files := []SourceFile{
		{Subsystems: []SubsystemDecl{{ID: "svc", Dependencies: []DependencyDecl{{ID: "ghost"}}}}},
	}

	out := Build(files).DOT()

	assert.Contains(t, out, "\"svc\"")
	assert.NotContains(t, out, "->")
}

func TestDOT_UnresolvedParentRendersAtRoot(t *testing.T) {
	files := []SourceFile{
		{Subsystems: []SubsystemDecl{{ID: "svc"}}, StoredInSystem: "missing"},
	}

	out := Build(files).DOT()

	assert.Contains(t, out, "  \"svc\" [label=\"svc\"];")
	assert.NotContains(t, out, "cluster_")
}

func TestDOT_ParentCycleTerminates(t *testing.T) {
	// Two systems declaring each other as parent leave neither at the
	// root scope. The walk must terminate and render no cluster.
	files := []SourceFile{
		{System: &SystemDecl{ID: "a"}, StoredInSystem: "b"},
		{System: &SystemDecl{ID: "b"}, StoredInSystem: "a"},
	}

	out := Build(files).DOT()

	assert.NotContains(t, out, "cluster_")
	assert.True(t, strings.HasPrefix(out, "digraph {"))
	assert.True(t, strings.HasSuffix(out, "}\n"))
}

func TestDOT_EscapesQuotesAndBackslashes(t *testing.T) {
	files := []SourceFile{
		{Subsystems: []SubsystemDecl{{ID: `path\to"svc`}}},
	}

	out := Build(files).DOT()

	assert.Contains(t, out, `"path\\to\"svc"`)
}

func TestDOT_EmptyGraph(t *testing.T) {
	out := Build(nil).DOT()

	assert.Contains(t, out, "digraph {")
	assert.Contains(t, out, "overlap=false;")
	assert.NotContains(t, out, "subgraph")
}
