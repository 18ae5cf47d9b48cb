package ir

import (
	"bytes"
	"fmt"
	"maps"
	"slices"
)

// Diff compares two graphs structurally and returns a description of every difference found, sorted.
// An empty result means the graphs are identical.
//
// Nodes are matched by name, and compared by kind, op type, shape, value (dtype, dimensions and bytes)
// and force precision. Edges are compared as a multiset of (src, dst, key, marker, bin).
func Diff(a, b *Graph) []string {
	var diffs []string
	for _, name := range a.order {
		nb, found := b.nodes[name]
		if !found {
			diffs = append(diffs, fmt.Sprintf("node %q only in first graph", name))
			continue
		}
		diffs = append(diffs, diffNodes(a.nodes[name], nb)...)
	}
	for _, name := range b.order {
		if _, found := a.nodes[name]; !found {
			diffs = append(diffs, fmt.Sprintf("node %q only in second graph", name))
		}
	}

	edgesA, edgesB := edgeCounts(a), edgeCounts(b)
	for _, desc := range slices.Sorted(maps.Keys(edgesA)) {
		if edgesA[desc] != edgesB[desc] {
			diffs = append(diffs, fmt.Sprintf("edge %s: %d in first graph, %d in second", desc, edgesA[desc], edgesB[desc]))
		}
	}
	for _, desc := range slices.Sorted(maps.Keys(edgesB)) {
		if _, found := edgesA[desc]; !found {
			diffs = append(diffs, fmt.Sprintf("edge %s only in second graph", desc))
		}
	}
	slices.Sort(diffs)
	return diffs
}

func edgeCounts(g *Graph) map[string]int {
	counts := make(map[string]int, len(g.edges))
	for _, e := range g.edges {
		counts[describeEdge(e)]++
	}
	return counts
}

func diffNodes(a, b Node) []string {
	name := a.NodeName()
	if a.Kind() != b.Kind() {
		return []string{fmt.Sprintf("node %q: kind %s != %s", name, a.Kind(), b.Kind())}
	}
	var diffs []string
	report := func(format string, args ...any) {
		diffs = append(diffs, fmt.Sprintf("node %q: ", name)+fmt.Sprintf(format, args...))
	}
	if pa, pb := forcePrecisionOf(a), forcePrecisionOf(b); pa != pb {
		report("force_precision %q != %q", PrecisionName(pa), PrecisionName(pb))
	}
	switch na := a.(type) {
	case *OpNode:
		nb := b.(*OpNode)
		if na.Type != nb.Type {
			report("op type %q != %q", na.Type, nb.Type)
		}
	case *DataNode:
		nb := b.(*DataNode)
		if na.HasShape() != nb.HasShape() || !slices.Equal(na.Shape, nb.Shape) {
			report("shape %v != %v", na.Shape, nb.Shape)
		}
		switch {
		case na.HasValue() != nb.HasValue():
			report("value present %v != %v", na.HasValue(), nb.HasValue())
		case na.HasValue() && !na.Value.Shape().Equal(nb.Value.Shape()):
			report("value shaped %s != %s", na.Value.Shape(), nb.Value.Shape())
		case na.HasValue() && !bytes.Equal(ValueBytes(na.Value), ValueBytes(nb.Value)):
			report("value contents differ")
		}
	}
	return diffs
}
