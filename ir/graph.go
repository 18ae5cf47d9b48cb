package ir

import (
	"github.com/gomlx/gomlx/pkg/support/sets"
	"github.com/pkg/errors"
)

var (
	// ErrDuplicateNode is returned when a node name is already in use in the graph.
	ErrDuplicateNode = errors.New("duplicate node name")
	// ErrUnknownNode is returned when an edge references a node that is not in the graph.
	ErrUnknownNode = errors.New("unknown node")
	// ErrInvalidEdge is returned for edges that don't alternate between op and data nodes.
	ErrInvalidEdge = errors.New("invalid edge")
)

// Edge is a directed producer→consumer link.
type Edge struct {
	Src, Dst string

	// Key distinguishes multiple edges between the same (Src, Dst) pair. It is assigned by the Graph,
	// starting from 0, in insertion order.
	Key int

	// External marks the edge as externally-sourced: the consumer loads the tensor from a binary blob
	// outside the graph, instead of from the graph producer.
	External bool

	// Bin optionally names the blob of an External edge.
	Bin string
}

// Graph is an arena of nodes addressed by name, with edges stored as adjacency lists keyed by name.
//
// It is not safe for concurrent use: callers sharing a Graph must serialize access.
type Graph struct {
	nodes map[string]Node
	order []string // Insertion order of the nodes.

	edges    []*Edge // Insertion order of the edges.
	outEdges map[string][]*Edge
	inEdges  map[string][]*Edge
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:    make(map[string]Node),
		outEdges: make(map[string][]*Edge),
		inEdges:  make(map[string][]*Edge),
	}
}

// NumNodes returns the number of nodes in the graph.
func (g *Graph) NumNodes() int { return len(g.order) }

// NumEdges returns the number of edges in the graph.
func (g *Graph) NumEdges() int { return len(g.edges) }

// Node returns the node with the given name, if present.
func (g *Graph) Node(name string) (Node, bool) {
	n, found := g.nodes[name]
	return n, found
}

// HasNode returns whether a node with the given name exists.
func (g *Graph) HasNode(name string) bool {
	_, found := g.nodes[name]
	return found
}

// Nodes returns the nodes in insertion order.
//
// The returned slice is a snapshot: nodes added afterwards are not included.
func (g *Graph) Nodes() []Node {
	nodes := make([]Node, len(g.order))
	for ii, name := range g.order {
		nodes[ii] = g.nodes[name]
	}
	return nodes
}

// Edges returns all edges in insertion order.
func (g *Graph) Edges() []*Edge {
	return append([]*Edge(nil), g.edges...)
}

// OutEdges returns the edges leaving the named node, in insertion order.
func (g *Graph) OutEdges(name string) []*Edge {
	return append([]*Edge(nil), g.outEdges[name]...)
}

// InEdges returns the edges arriving at the named node, in insertion order.
func (g *Graph) InEdges(name string) []*Edge {
	return append([]*Edge(nil), g.inEdges[name]...)
}

// Producers returns the distinct source nodes of the edges arriving at the named node.
func (g *Graph) Producers(name string) []Node {
	return g.distinctEndpoints(g.inEdges[name], func(e *Edge) string { return e.Src })
}

// Consumers returns the distinct destination nodes of the edges leaving the named node.
func (g *Graph) Consumers(name string) []Node {
	return g.distinctEndpoints(g.outEdges[name], func(e *Edge) string { return e.Dst })
}

func (g *Graph) distinctEndpoints(edges []*Edge, endpoint func(e *Edge) string) []Node {
	var nodes []Node
	seen := sets.Make[string]()
	for _, e := range edges {
		name := endpoint(e)
		if seen.Has(name) {
			continue
		}
		seen.Insert(name)
		nodes = append(nodes, g.nodes[name])
	}
	return nodes
}

// AddNode inserts a new node in the graph.
func (g *Graph) AddNode(n Node) error {
	_, err := g.Splice([]Node{n}, nil)
	return err
}

// AddEdge connects src to dst with an unmarked edge.
func (g *Graph) AddEdge(src, dst string) (*Edge, error) {
	added, err := g.Splice(nil, []Edge{{Src: src, Dst: dst}})
	if err != nil {
		return nil, err
	}
	return added[0], nil
}

// AddExternalEdge connects src to dst with an edge marked as externally-sourced from the blob bin.
func (g *Graph) AddExternalEdge(src, dst, bin string) (*Edge, error) {
	added, err := g.Splice(nil, []Edge{{Src: src, Dst: dst, External: true, Bin: bin}})
	if err != nil {
		return nil, err
	}
	return added[0], nil
}

// Splice inserts the new nodes and then the new edges, all or nothing: everything is validated
// before the graph is changed, so on error the graph is left untouched.
//
// Edges may reference both pre-existing nodes and the new ones. The Key of the given edges is ignored
// and assigned by the graph. It returns the edges as stored in the graph.
func (g *Graph) Splice(nodes []Node, edges []Edge) ([]*Edge, error) {
	newNodes := make(map[string]Node, len(nodes))
	for _, n := range nodes {
		if err := validateNode(n); err != nil {
			return nil, err
		}
		name := n.NodeName()
		if _, found := g.nodes[name]; found {
			return nil, errors.Wrapf(ErrDuplicateNode, "node %q already in graph", name)
		}
		if _, found := newNodes[name]; found {
			return nil, errors.Wrapf(ErrDuplicateNode, "node %q given twice", name)
		}
		newNodes[name] = n
	}
	lookup := func(name string) Node {
		if n, found := g.nodes[name]; found {
			return n
		}
		return newNodes[name]
	}
	for _, e := range edges {
		src, dst := lookup(e.Src), lookup(e.Dst)
		if src == nil {
			return nil, errors.Wrapf(ErrUnknownNode, "edge %q->%q: source", e.Src, e.Dst)
		}
		if dst == nil {
			return nil, errors.Wrapf(ErrUnknownNode, "edge %q->%q: destination", e.Src, e.Dst)
		}
		if src.Kind() == dst.Kind() {
			return nil, errors.Wrapf(ErrInvalidEdge, "edge %q->%q connects two %s nodes", e.Src, e.Dst, src.Kind())
		}
	}

	// Validated: from here on nothing fails.
	for _, n := range nodes {
		name := n.NodeName()
		g.nodes[name] = n
		g.order = append(g.order, name)
	}
	added := make([]*Edge, 0, len(edges))
	for _, e := range edges {
		stored := e
		stored.Key = g.countEdges(e.Src, e.Dst)
		g.edges = append(g.edges, &stored)
		g.outEdges[e.Src] = append(g.outEdges[e.Src], &stored)
		g.inEdges[e.Dst] = append(g.inEdges[e.Dst], &stored)
		added = append(added, &stored)
	}
	return added, nil
}

// countEdges returns how many edges already connect src to dst.
func (g *Graph) countEdges(src, dst string) int {
	count := 0
	for _, e := range g.outEdges[src] {
		if e.Dst == dst {
			count++
		}
	}
	return count
}

func validateNode(n Node) error {
	if n == nil {
		return errors.New("nil node")
	}
	if n.NodeName() == "" {
		return errors.Errorf("%s node without a name", n.Kind())
	}
	if precision := forcePrecisionOf(n); !IsAbsentPrecision(precision) && !IsSupportedPrecision(precision) {
		return errors.Errorf("node %q: unsupported force precision %s", n.NodeName(), precision)
	}
	return nil
}

// Clone returns a deep copy of the graph: nodes (including their values) and edges are all duplicated.
func (g *Graph) Clone() *Graph {
	c := NewGraph()
	for _, name := range g.order {
		c.nodes[name] = g.nodes[name].clone()
		c.order = append(c.order, name)
	}
	for _, e := range g.edges {
		stored := *e
		c.edges = append(c.edges, &stored)
		c.outEdges[e.Src] = append(c.outEdges[e.Src], &stored)
		c.inEdges[e.Dst] = append(c.inEdges[e.Dst], &stored)
	}
	return c
}
