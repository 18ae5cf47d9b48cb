package ir

import (
	"testing"

	"github.com/gomlx/gomlx/pkg/core/dtypes"
	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeChain builds the graph: in -> relu -> out, where "in" holds a value.
func makeChain(t *testing.T) *Graph {
	t.Helper()
	g := NewGraph()
	require.NoError(t, g.AddNode(&DataNode{
		Name:  "in",
		Shape: []int{3},
		Value: tensors.FromFlatDataAndDimensions([]float32{1, 2, 3}, 3),
	}))
	require.NoError(t, g.AddNode(&OpNode{Name: "relu", Type: "Relu"}))
	require.NoError(t, g.AddNode(&DataNode{Name: "out", Shape: []int{3}}))
	_, err := g.AddEdge("in", "relu")
	require.NoError(t, err)
	_, err = g.AddEdge("relu", "out")
	require.NoError(t, err)
	return g
}

func TestAddNode(t *testing.T) {
	g := makeChain(t)
	require.Equal(t, 3, g.NumNodes())
	require.Equal(t, 2, g.NumEdges())

	t.Run("Duplicate", func(t *testing.T) {
		err := g.AddNode(&OpNode{Name: "in", Type: "Identity"})
		require.ErrorIs(t, err, ErrDuplicateNode)
	})

	t.Run("NoName", func(t *testing.T) {
		require.Error(t, g.AddNode(&DataNode{}))
	})

	t.Run("UnsupportedPrecision", func(t *testing.T) {
		err := g.AddNode(&DataNode{Name: "x", ForcePrecision: dtypes.Int8})
		require.Error(t, err)
		require.Contains(t, err.Error(), "unsupported force precision")
		require.False(t, g.HasNode("x"))
	})

	t.Run("InsertionOrder", func(t *testing.T) {
		var names []string
		for _, n := range g.Nodes() {
			names = append(names, n.NodeName())
		}
		require.Equal(t, []string{"in", "relu", "out"}, names)
	})
}

func TestAddEdge(t *testing.T) {
	g := makeChain(t)

	t.Run("UnknownNode", func(t *testing.T) {
		_, err := g.AddEdge("in", "missing")
		require.ErrorIs(t, err, ErrUnknownNode)
	})

	t.Run("SameKind", func(t *testing.T) {
		_, err := g.AddEdge("in", "out")
		require.ErrorIs(t, err, ErrInvalidEdge)
	})

	t.Run("ParallelEdgeKeys", func(t *testing.T) {
		e, err := g.AddExternalEdge("in", "relu", "weights.bin")
		require.NoError(t, err)
		require.Equal(t, 1, e.Key)
		require.True(t, e.External)
		require.Equal(t, "weights.bin", e.Bin)

		require.Len(t, g.OutEdges("in"), 2)
		require.Len(t, g.InEdges("relu"), 2)
		// Consumers and producers are distinct nodes, not edges.
		require.Len(t, g.Consumers("in"), 1)
		require.Len(t, g.Producers("relu"), 1)
		require.Equal(t, "relu", g.Producers("out")[0].NodeName())
	})
}

func TestSplice(t *testing.T) {
	t.Run("AllOrNothing", func(t *testing.T) {
		g := makeChain(t)
		before := g.Clone()
		_, err := g.Splice(
			[]Node{&OpNode{Name: "c", Type: OpConst}, &DataNode{Name: "s"}},
			[]Edge{{Src: "s", Dst: "c"}, {Src: "c", Dst: "nowhere"}})
		require.ErrorIs(t, err, ErrUnknownNode)
		require.Empty(t, Diff(before, g))
		require.False(t, g.HasNode("c"))
	})

	t.Run("DuplicateInBatch", func(t *testing.T) {
		g := makeChain(t)
		_, err := g.Splice([]Node{&DataNode{Name: "s"}, &DataNode{Name: "s"}}, nil)
		require.ErrorIs(t, err, ErrDuplicateNode)
		require.Equal(t, 3, g.NumNodes())
	})

	t.Run("NewAndExistingNodes", func(t *testing.T) {
		g := makeChain(t)
		added, err := g.Splice(
			[]Node{&OpNode{Name: "c", Type: OpConst}, &DataNode{Name: "s"}},
			[]Edge{{Src: "c", Dst: "in", Key: 42}, {Src: "s", Dst: "c", External: true}})
		require.NoError(t, err)
		require.Len(t, added, 2)
		require.Equal(t, 0, added[0].Key)
		require.Equal(t, 5, g.NumNodes())
		require.Equal(t, 4, g.NumEdges())
		require.Equal(t, "c", g.Producers("in")[0].NodeName())
	})
}

func TestClone(t *testing.T) {
	g := makeChain(t)
	c := g.Clone()
	require.Empty(t, Diff(g, c))

	// Changes to the clone don't affect the original.
	n, _ := c.Node("in")
	d := n.(*DataNode)
	d.Shape[0] = 5
	d.Value.MutableBytes(func(data []byte) { data[0] = 0xFF })
	_, err := c.AddEdge("in", "relu")
	require.NoError(t, err)

	diffs := Diff(g, c)
	assert.Len(t, diffs, 3, "diffs: %q", diffs)
	orig, _ := g.Node("in")
	require.Equal(t, []int{3}, orig.(*DataNode).Shape)
	require.Equal(t, 2, g.NumEdges())
}

func TestDiff(t *testing.T) {
	g := makeChain(t)
	other := makeChain(t)
	require.Empty(t, Diff(g, other))

	n, _ := other.Node("relu")
	n.(*OpNode).ForcePrecision = dtypes.Float16
	require.NoError(t, other.AddNode(&DataNode{Name: "extra"}))
	diffs := Diff(g, other)
	require.Equal(t, []string{
		`node "extra" only in second graph`,
		`node "relu": force_precision "" != "FP16"`,
	}, diffs)

	// Absent vs. scalar shape.
	a, b := NewGraph(), NewGraph()
	require.NoError(t, a.AddNode(&DataNode{Name: "x"}))
	require.NoError(t, b.AddNode(&DataNode{Name: "x", Shape: []int{}}))
	require.Len(t, Diff(a, b), 1)
}

func TestString(t *testing.T) {
	g := makeChain(t)
	_, err := g.AddExternalEdge("in", "relu", "custom")
	require.NoError(t, err)
	s := g.String()
	has := func(sub string) { require.Contains(t, s, sub) }
	has("# nodes:\t3")
	has(`"in": data, shape=[3], value=`)
	has(`"relu": op Relu`)
	has(`"in" -> "relu" #1 [bin="custom"]`)
}
