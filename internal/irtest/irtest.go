// Package irtest contains helpers to build ir.Graph objects for tests.
package irtest

import (
	"github.com/gomlx/constnodes-ir/ir"
	"github.com/gomlx/exceptions"
	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/janpfeifer/must"
)

// Edge describes an edge to be created by Build.
type Edge struct {
	Src, Dst string

	// Bin, if not nil, marks the edge as externally-sourced with the given blob key.
	Bin *string
}

// Connect returns an unmarked Edge.
func Connect(src, dst string) Edge {
	return Edge{Src: src, Dst: dst}
}

// ConnectBin returns an Edge marked as externally-sourced from the blob bin.
func ConnectBin(src, dst, bin string) Edge {
	return Edge{Src: src, Dst: dst, Bin: &bin}
}

// Op returns an op node.
func Op(name string, opType ir.OpType) *ir.OpNode {
	return &ir.OpNode{Name: name, Type: opType}
}

// Data returns a data node without shape or value.
func Data(name string) *ir.DataNode {
	return &ir.DataNode{Name: name}
}

// Update modifies a node of the list given to Build, before it is added to the graph.
type Update struct {
	Name string
	Fn   func(n ir.Node)
}

// WithValue returns an Update that sets the shape and value of a data node.
func WithValue(name string, shape []int, value *tensors.Tensor) Update {
	return Update{Name: name, Fn: func(n ir.Node) {
		d := mustData(n)
		d.Shape = shape
		d.Value = value
	}}
}

// WithPrecision returns an Update that sets the force precision (e.g. "FP16") of a node of any kind.
func WithPrecision(name, tag string) Update {
	precision := must.M1(ir.ParsePrecision(tag))
	return Update{Name: name, Fn: func(n ir.Node) {
		switch node := n.(type) {
		case *ir.OpNode:
			node.ForcePrecision = precision
		case *ir.DataNode:
			node.ForcePrecision = precision
		}
	}}
}

func mustData(n ir.Node) *ir.DataNode {
	d, ok := n.(*ir.DataNode)
	if !ok {
		exceptions.Panicf("irtest: node %q is not a data node", n.NodeName())
	}
	return d
}

// Build creates a graph with copies of the given nodes, the updates applied to them, and the edges.
//
// Nodes are copied (see ir.CloneNode), so the same node list can be used to build more than one graph.
// It panics if the graph is invalid.
func Build(nodes []ir.Node, edges []Edge, updates ...Update) *ir.Graph {
	byName := make(map[string]ir.Node, len(nodes))
	copies := make([]ir.Node, len(nodes))
	for ii, n := range nodes {
		copies[ii] = ir.CloneNode(n)
		byName[n.NodeName()] = copies[ii]
	}
	for _, u := range updates {
		n, found := byName[u.Name]
		if !found {
			exceptions.Panicf("irtest: update for unknown node %q", u.Name)
		}
		u.Fn(n)
	}

	g := ir.NewGraph()
	for _, n := range copies {
		must.M(g.AddNode(n))
	}
	for _, e := range edges {
		if e.Bin != nil {
			must.M1(g.AddExternalEdge(e.Src, e.Dst, *e.Bin))
		} else {
			must.M1(g.AddEdge(e.Src, e.Dst))
		}
	}
	return g
}

// Zeros returns a float32 tensor of the given dimensions filled with zeros.
func Zeros(dims ...int) *tensors.Tensor {
	size := 1
	for _, dim := range dims {
		size *= dim
	}
	return tensors.FromFlatDataAndDimensions(make([]float32, size), dims...)
}

// Iota returns a float32 tensor of the given dimensions with values 0, 1, 2, ... in row-major order.
func Iota(dims ...int) *tensors.Tensor {
	size := 1
	for _, dim := range dims {
		size *= dim
	}
	data := make([]float32, size)
	for ii := range data {
		data[ii] = float32(ii)
	}
	return tensors.FromFlatDataAndDimensions(data, dims...)
}
