// Package ir holds the dataflow intermediate representation operated on by the graph passes.
//
//   - Graph: arena of nodes addressed by name, with adjacency lists of edges in both directions.
//   - OpNode: a computation that produces data nodes from other data nodes.
//   - DataNode: a tensor value at some point of the dataflow, optionally holding a materialized value.
//   - Edge: directed producer→consumer link, optionally marked as externally-sourced.
//   - Pass: a transformation applied in place to a Graph, see RunPasses.
//
// Operation and data nodes alternate along any producer→consumer chain, and Graph enforces it.
package ir

import (
	"slices"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gomlx/pkg/core/dtypes"
	"github.com/gomlx/gomlx/pkg/core/tensors"
)

// Kind of a node: either an operation or a data node.
type Kind int

const (
	KindOp Kind = iota
	KindData
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindOp:
		return "op"
	case KindData:
		return "data"
	default:
		return "invalid"
	}
}

// OpType tags the computation of an OpNode.
//
// Only OpConst has a meaning to the passes in this module, any other value is carried opaquely.
type OpType string

// OpConst is the constant-producer operation: it outputs the materialized value of its source data node.
const OpConst OpType = "Const"

// Node is either an *OpNode or a *DataNode. No other implementations exist.
type Node interface {
	// NodeName returns the unique name of the node in its graph.
	NodeName() string
	// Kind returns KindOp or KindData.
	Kind() Kind

	clone() Node
}

// OpNode represents an operation in the graph.
type OpNode struct {
	Name string
	Type OpType

	// ForcePrecision requests a numeric precision for the materialization of the op output.
	// dtypes.InvalidDType means absent.
	ForcePrecision dtypes.DType
}

// NodeName implements Node.
func (n *OpNode) NodeName() string { return n.Name }

// Kind implements Node.
func (n *OpNode) Kind() Kind { return KindOp }

func (n *OpNode) clone() Node {
	c := *n
	return &c
}

// DataNode represents a tensor flowing through the graph.
//
// All attributes have present/absent semantics:
//
//   - Shape: nil is absent. A scalar has an empty, non-nil, Shape.
//   - Value: nil is absent. When present, it is the materialized value of the tensor.
//   - ForcePrecision: dtypes.InvalidDType is absent.
type DataNode struct {
	Name           string
	Shape          []int
	Value          *tensors.Tensor
	ForcePrecision dtypes.DType
}

// NodeName implements Node.
func (n *DataNode) NodeName() string { return n.Name }

// Kind implements Node.
func (n *DataNode) Kind() Kind { return KindData }

func (n *DataNode) clone() Node {
	return &DataNode{
		Name:           n.Name,
		Shape:          slices.Clone(n.Shape),
		Value:          CloneValue(n.Value),
		ForcePrecision: n.ForcePrecision,
	}
}

// HasValue returns whether the data node holds a materialized value.
func (n *DataNode) HasValue() bool { return n.Value != nil }

// HasShape returns whether the data node shape is known.
func (n *DataNode) HasShape() bool { return n.Shape != nil }

// CloneNode returns a deep copy of the node, including a copy of any materialized value.
func CloneNode(n Node) Node {
	return n.clone()
}

// forcePrecisionOf returns the precision tag of any node kind.
func forcePrecisionOf(n Node) dtypes.DType {
	switch node := n.(type) {
	case *OpNode:
		return node.ForcePrecision
	case *DataNode:
		return node.ForcePrecision
	default:
		exceptions.Panicf("unknown ir.Node implementation %T", n)
		panic(nil) // lint.
	}
}
