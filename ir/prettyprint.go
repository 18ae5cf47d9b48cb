package ir

import (
	"bytes"
	"fmt"
	"maps"
	"slices"

	"github.com/gomlx/gomlx/pkg/support/sets"
)

// String implements fmt.Stringer, and pretty prints the graph nodes and edges.
func (g *Graph) String() string {
	var buf bytes.Buffer
	// w writes formatted text to buf.
	w := func(format string, args ...any) {
		if len(args) == 0 {
			buf.WriteString(format)
		} else {
			buf.WriteString(fmt.Sprintf(format, args...))
		}
	}
	w("IR Graph:\n")
	w("\t# nodes:\t%d\n", g.NumNodes())
	w("\t# edges:\t%d\n", g.NumEdges())
	opTypesSet := sets.Make[OpType]()
	for _, n := range g.nodes {
		if op, ok := n.(*OpNode); ok {
			opTypesSet.Insert(op.Type)
		}
	}
	w("\tOp types:\t%q\n", slices.Sorted(maps.Keys(opTypesSet)))

	w("\tNodes:\n")
	for _, name := range g.order {
		w("\t\t%s\n", describeNode(g.nodes[name]))
	}
	w("\tEdges:\n")
	for _, e := range g.edges {
		w("\t\t%s\n", describeEdge(e))
	}
	return buf.String()
}

func describeNode(n Node) string {
	switch node := n.(type) {
	case *OpNode:
		s := fmt.Sprintf("%q: op %s", node.Name, node.Type)
		if !IsAbsentPrecision(node.ForcePrecision) {
			s += fmt.Sprintf(", force_precision=%s", PrecisionName(node.ForcePrecision))
		}
		return s
	case *DataNode:
		s := fmt.Sprintf("%q: data", node.Name)
		if node.HasShape() {
			s += fmt.Sprintf(", shape=%v", node.Shape)
		}
		if node.HasValue() {
			s += fmt.Sprintf(", value=%s", node.Value.Shape())
		}
		if !IsAbsentPrecision(node.ForcePrecision) {
			s += fmt.Sprintf(", force_precision=%s", PrecisionName(node.ForcePrecision))
		}
		return s
	default:
		return fmt.Sprintf("%q: %T", n.NodeName(), n)
	}
}

func describeEdge(e *Edge) string {
	s := fmt.Sprintf("%q -> %q #%d", e.Src, e.Dst, e.Key)
	if e.External {
		s += fmt.Sprintf(" [bin=%q]", e.Bin)
	}
	return s
}
