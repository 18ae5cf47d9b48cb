// Package constnodes implements the pass that gives every materialized data node an explicit producer.
//
// After the pass, every data node holding a value is either the output of an operation node, or
// consumed only through externally-sourced edges, or fed by a synthetic constant-producer:
//
//	<d>_copy_  --(external, bin="custom")-->  <d>_const (Const)  -->  <d>  --> original consumers
//
// The copy node holds a duplicate of the shape and value of <d>, and both synthetic nodes inherit the
// force precision of <d>. Existing nodes and edges are never changed or removed.
package constnodes

import (
	"github.com/gomlx/constnodes-ir/ir"
	"github.com/gomlx/gomlx/pkg/support/sets"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

const (
	// ConstSuffix is appended to the data node name to name its constant-producer op.
	ConstSuffix = "_const"
	// CopySuffix is appended to the data node name to name the source copy of its value.
	CopySuffix = "_copy_"
	// CopyBin is the blob key of the edge from the source copy to the constant-producer.
	CopyBin = "custom"
)

var (
	// ErrDuplicateID is returned when a synthetic node name is already taken. The pass makes no changes then.
	ErrDuplicateID = errors.New("duplicate synthetic identifier")
	// ErrIncompleteDataNode is returned, in strict mode, for a data node without producer that holds a value but
	// no shape, or a shape but no value.
	ErrIncompleteDataNode = errors.New("incomplete data node")
)

// Options configures the pass.
type Options struct {
	// Strict makes incomplete data nodes fail the pass with ErrIncompleteDataNode.
	// If false (default) they are skipped and a warning is logged.
	Strict bool
}

// Stats counts what the last run of a Pass did with the data nodes it inspected.
type Stats struct {
	Rewritten         int
	SkippedProduced   int
	SkippedExternal   int
	SkippedIncomplete int
}

// Pass inserts constant-producers. It implements ir.Pass.
type Pass struct {
	opts  Options
	stats Stats
}

// New returns a new Pass configured with opts.
func New(opts Options) *Pass {
	return &Pass{opts: opts}
}

// Name implements ir.Pass.
func (p *Pass) Name() string { return "CreateConstNodes" }

// Stats returns the counts of the last successful Run.
func (p *Pass) Stats() Stats { return p.stats }

// Run is a shortcut for New(opts).Run(g).
func Run(g *ir.Graph, opts Options) error {
	return New(opts).Run(g)
}

// rewrite is a planned insertion of a constant-producer.
type rewrite struct {
	data   *ir.DataNode
	op     *ir.OpNode
	source *ir.DataNode
}

// Run implements ir.Pass.
//
// All rewrites are planned over the nodes present when Run is called, and all synthetic names are checked
// before the graph is touched: if any of them collides, it returns ErrDuplicateID and g is unchanged.
func (p *Pass) Run(g *ir.Graph) error {
	var stats Stats
	var plan []rewrite
	plannedNames := sets.Make[string]()
	for _, n := range g.Nodes() {
		d, ok := n.(*ir.DataNode)
		if !ok {
			continue
		}
		if isIncomplete(g, d) {
			if p.opts.Strict {
				return errors.Wrapf(ErrIncompleteDataNode, "data node %q has no producer, shape present=%v, value present=%v",
					d.Name, d.HasShape(), d.HasValue())
			}
			klog.Warningf("%s: skipping data node %q: no producer, shape present=%v, value present=%v",
				p.Name(), d.Name, d.HasShape(), d.HasValue())
			stats.SkippedIncomplete++
			continue
		}
		if !d.HasValue() {
			continue
		}

		switch classify(g, d) {
		case reasonProduced:
			stats.SkippedProduced++
			continue
		case reasonExternal:
			stats.SkippedExternal++
			continue
		}

		op, source := NewConstProducer(d)
		MigrateAttributes(d, op, source)
		for _, name := range []string{op.Name, source.Name} {
			if g.HasNode(name) || plannedNames.Has(name) {
				return errors.Wrapf(ErrDuplicateID, "name %q, synthesized for data node %q, is already taken", name, d.Name)
			}
			plannedNames.Insert(name)
		}
		plan = append(plan, rewrite{data: d, op: op, source: source})
	}

	for _, r := range plan {
		_, err := g.Splice([]ir.Node{r.op, r.source}, []ir.Edge{
			{Src: r.op.Name, Dst: r.data.Name},
			{Src: r.source.Name, Dst: r.op.Name, External: true, Bin: CopyBin},
		})
		if err != nil {
			return errors.WithMessagef(err, "while inserting constant-producer for data node %q", r.data.Name)
		}
		klog.V(2).Infof("%s: data node %q now produced by %q", p.Name(), r.data.Name, r.op.Name)
	}
	stats.Rewritten = len(plan)
	p.stats = stats
	klog.V(1).Infof("%s: %d rewritten, skipped %d already produced, %d externally-sourced, %d incomplete",
		p.Name(), stats.Rewritten, stats.SkippedProduced, stats.SkippedExternal, stats.SkippedIncomplete)
	return nil
}

// isIncomplete returns whether d has no producer and exactly one of shape and value.
func isIncomplete(g *ir.Graph, d *ir.DataNode) bool {
	return len(g.InEdges(d.Name)) == 0 && d.HasShape() != d.HasValue()
}
