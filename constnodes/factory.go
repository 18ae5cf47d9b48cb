package constnodes

import (
	"slices"

	"github.com/gomlx/constnodes-ir/ir"
)

// NewConstProducer builds, without adding them to any graph, the constant-producer op for d and its source
// data node, holding duplicates of the shape and value of d.
//
// Names are derived from d.Name (see ConstSuffix and CopySuffix), so they are reproducible across runs.
func NewConstProducer(d *ir.DataNode) (op *ir.OpNode, source *ir.DataNode) {
	op = &ir.OpNode{
		Name: d.Name + ConstSuffix,
		Type: ir.OpConst,
	}
	source = &ir.DataNode{
		Name:  d.Name + CopySuffix,
		Shape: slices.Clone(d.Shape),
		Value: ir.CloneValue(d.Value),
	}
	return op, source
}

// MigrateAttributes copies the force precision of d, if present, to both the op and its source.
// d itself is not modified.
func MigrateAttributes(d *ir.DataNode, op *ir.OpNode, source *ir.DataNode) {
	if ir.IsAbsentPrecision(d.ForcePrecision) {
		return
	}
	op.ForcePrecision = d.ForcePrecision
	source.ForcePrecision = d.ForcePrecision
}
