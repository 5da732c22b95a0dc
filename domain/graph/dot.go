package graph

import (
	"fmt"
	"strings"
)

var dotEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// DOT renders the graph in the graphviz dot language: one cluster per
// System, nested by parent links, one node per Subsystem, one edge per
// resolved dependency. Edges are emitted at the outermost scope only,
// because an edge cannot cross into a cluster. An entity whose parent
// reference is unresolved sits at the root, and an unresolved
// dependency draws no edge.
func (g *Graph) DOT() string {
	var b strings.Builder

	b.WriteString("digraph {\n")
	b.WriteString("  overlap=false;\n")
	b.WriteString("  splines=true;\n")
	b.WriteString("  node [shape=box, style=filled, fillcolor=\"#eef2f7\"];\n\n")

	// rootScope: systems and subsystems without a resolved parent
	g.writeScope(&b, rootScope, "  ")
	b.WriteString("\n")
	g.writeDependencies(&b, "  ")

	b.WriteString("}\n")
	return b.String()
}

// rootScope marks the outermost scope of the walk; parent references
// that resolved to an index always compare different from it.
const rootScope = -1

func parentScope(ref *Ref[System]) int {
	if index, ok := ref.Resolved(); ok {
		return index
	}
	return rootScope
}

// writeScope emits the clusters and nodes whose parent is the given
// scope, recursing into each cluster for its children.
func (g *Graph) writeScope(b *strings.Builder, scope int, indent string) {
	for i := range g.Systems {
		system := &g.Systems[i]
		if parentScope(system.Parent) != scope {
			continue
		}

		fmt.Fprintf(b, "%ssubgraph \"cluster_%s\" {\n", indent, dotEscaper.Replace(system.ID))
		fmt.Fprintf(b, "%s  label=\"%s\";\n", indent, dotEscaper.Replace(system.Name))
		g.writeScope(b, i, indent+"  ")
		fmt.Fprintf(b, "%s}\n", indent)
	}

	for i := range g.Subsystems {
		subsystem := &g.Subsystems[i]
		if parentScope(subsystem.Parent) != scope {
			continue
		}

		fmt.Fprintf(b, "%s\"%s\" [label=\"%s\"];\n",
			indent, dotEscaper.Replace(subsystem.ID), dotEscaper.Replace(subsystem.Name))
	}
}

func (g *Graph) writeDependencies(b *strings.Builder, indent string) {
	for i := range g.Subsystems {
		from := &g.Subsystems[i]
		for j := range from.Dependencies {
			index, ok := from.Dependencies[j].Subsystem.Resolved()
			if !ok {
				continue
			}

			fmt.Fprintf(b, "%s\"%s\" -> \"%s\";\n",
				indent, dotEscaper.Replace(from.ID), dotEscaper.Replace(g.Subsystems[index].ID))
		}
	}
}
