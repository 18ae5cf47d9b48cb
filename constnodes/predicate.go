package constnodes

import (
	"github.com/gomlx/constnodes-ir/ir"
	"github.com/gomlx/exceptions"
)

// Decision of the pass for a data node holding a value.
type Decision int

const (
	// Rewrite means the data node needs a constant-producer.
	Rewrite Decision = iota
	// Skip means the data node already satisfies the invariant.
	Skip
)

// String returns a human-readable name for the decision.
func (d Decision) String() string {
	switch d {
	case Rewrite:
		return "rewrite"
	case Skip:
		return "skip"
	default:
		return "invalid"
	}
}

type reason int

const (
	reasonMissingProducer reason = iota
	reasonProduced
	reasonExternal
)

// Decide returns whether the data node d, which must hold a value, needs a constant-producer.
//
// It skips d if it already has a producer op, or if it has consumers and every edge to them is
// externally-sourced. In any other case -- no consumers at all, or at least one unmarked edge -- it is
// rewritten: once added, the producer serves all consumers.
//
// It panics if d holds no value.
func Decide(g *ir.Graph, d *ir.DataNode) Decision {
	if !d.HasValue() {
		exceptions.Panicf("constnodes.Decide called on data node %q without value", d.Name)
	}
	if classify(g, d) == reasonMissingProducer {
		return Rewrite
	}
	return Skip
}

func classify(g *ir.Graph, d *ir.DataNode) reason {
	for _, producer := range g.Producers(d.Name) {
		if producer.Kind() == ir.KindOp {
			return reasonProduced
		}
	}
	outEdges := g.OutEdges(d.Name)
	if len(outEdges) == 0 {
		return reasonMissingProducer
	}
	for _, e := range outEdges {
		if !e.External {
			return reasonMissingProducer
		}
	}
	return reasonExternal
}
