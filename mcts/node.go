// Package mcts implements the game-independent part of the Monte-Carlo
// tree search: a preallocated node arena, UCT selection, parallel
// simulation workers and the last-good-reply tables.
package mcts

import (
	"errors"
	"math"
	"sync/atomic"

	"github.com/maxwellpirtle/pentobi/board"
)

// Expansion states of a node. Transitions are monotonic per search:
// unexpanded -> expanding -> expanded.
const (
	unexpanded uint32 = iota
	expanding
	expanded
)

// atomicFloat64 is a float64 with atomic add, stored as raw bits.
type atomicFloat64 struct {
	bits atomic.Uint64
}

func (f *atomicFloat64) Load() float64 {
	return math.Float64frombits(f.bits.Load())
}

func (f *atomicFloat64) Store(v float64) {
	f.bits.Store(math.Float64bits(v))
}

func (f *atomicFloat64) Add(v float64) {
	for {
		old := f.bits.Load()
		val := math.Float64frombits(old) + v
		if f.bits.CompareAndSwap(old, math.Float64bits(val)) {
			return
		}
	}
}

// Node is one tree node. Nodes live in the tree arena and reference
// their children as a contiguous index range. Counters are atomic; the
// UCT read side is lock-free and tolerates races.
type Node struct {
	mv         board.Move
	expState   atomic.Uint32
	visits     atomic.Uint32
	valueSum   atomicFloat64
	valueCount atomicFloat64
	firstChild atomic.Int32
	nuChildren atomic.Int32
}

// nodeSize approximates the arena footprint of one node in bytes, used
// to convert a memory budget into a node capacity.
const nodeSize = 64

func (n *Node) Move() board.Move { return n.mv }

func (n *Node) Visits() uint32 { return n.visits.Load() }

func (n *Node) NuChildren() int { return int(n.nuChildren.Load()) }

func (n *Node) IsExpanded() bool { return n.expState.Load() == expanded }

// Mean is the running value mean including the prior weight.
func (n *Node) Mean() float64 {
	count := n.valueCount.Load()
	if count == 0 {
		return 0
	}
	return n.valueSum.Load() / count
}

func (n *Node) ValueCount() float64 { return n.valueCount.Load() }

// AddResult accumulates one playout result.
func (n *Node) AddResult(value float64) {
	n.visits.Add(1)
	n.valueSum.Add(value)
	n.valueCount.Add(1)
}

// initNode prepares a freshly allocated node before it is published.
func (n *Node) initNode(mv board.Move, priorValue, priorCount float64) {
	n.mv = mv
	n.expState.Store(unexpanded)
	n.visits.Store(0)
	n.valueSum.Store(priorValue * priorCount)
	n.valueCount.Store(priorCount)
	n.firstChild.Store(0)
	n.nuChildren.Store(0)
}

// Tree is the preallocated node arena. Node 0 is the root.
type Tree struct {
	nodes []Node
	used  atomic.Int32
}

var ErrMemoryTooSmall = errors.New("mcts: memory too small to hold the tree root")

// NewTree allocates an arena for the given memory budget in bytes.
func NewTree(memory int64) (*Tree, error) {
	maxNodes := memory / nodeSize
	if maxNodes < 1 {
		return nil, ErrMemoryTooSmall
	}
	if maxNodes > math.MaxInt32 {
		maxNodes = math.MaxInt32
	}
	t := &Tree{nodes: make([]Node, maxNodes)}
	t.Clear()
	return t, nil
}

func (t *Tree) Capacity() int { return len(t.nodes) }

func (t *Tree) NuNodes() int { return int(t.used.Load()) }

func (t *Tree) Root() *Node { return &t.nodes[0] }

// Clear discards all nodes and resets the root.
func (t *Tree) Clear() {
	t.nodes[0].initNode(board.NullMove, 0, 0)
	t.used.Store(1)
}

// allocChildren reserves a contiguous range of n nodes, returning the
// first index, or false when the arena is exhausted.
func (t *Tree) allocChildren(n int) (int32, bool) {
	first := t.used.Add(int32(n)) - int32(n)
	if int(first)+n > len(t.nodes) {
		t.used.Add(-int32(n))
		return 0, false
	}
	return first, true
}

func (t *Tree) node(i int32) *Node { return &t.nodes[i] }

// child returns the i-th child of a node.
func (t *Tree) child(n *Node, i int) *Node {
	return &t.nodes[n.firstChild.Load()+int32(i)]
}

// findChild returns the child playing mv, or nil.
func (t *Tree) findChild(n *Node, mv board.Move) *Node {
	if !n.IsExpanded() {
		return nil
	}
	for i := 0; i < n.NuChildren(); i++ {
		if c := t.child(n, i); c.mv == mv {
			return c
		}
	}
	return nil
}

// copyNodeValues copies the statistics of src into dst. Only used while
// the tree is quiescent (rerooting between searches).
func copyNodeValues(dst, src *Node) {
	dst.mv = src.mv
	dst.expState.Store(src.expState.Load())
	dst.visits.Store(src.visits.Load())
	dst.valueSum.Store(src.valueSum.Load())
	dst.valueCount.Store(src.valueCount.Load())
	dst.firstChild.Store(src.firstChild.Load())
	dst.nuChildren.Store(src.nuChildren.Load())
}

// reroot makes the given node the new root, compacting its subtree to
// the front of the arena while preserving statistics.
func (t *Tree) reroot(newRoot *Node) {
	type slot struct {
		src *Node
		dst int32
	}
	scratch := make([]Node, t.NuNodes())
	used := int32(1)
	copyNodeValues(&scratch[0], newRoot)
	queue := []slot{{src: newRoot, dst: 0}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if !cur.src.IsExpanded() {
			continue
		}
		first := used
		nu := cur.src.NuChildren()
		used += int32(nu)
		for i := 0; i < nu; i++ {
			copyNodeValues(&scratch[first+int32(i)], t.child(cur.src, i))
		}
		scratch[cur.dst].firstChild.Store(first)
		for i := 0; i < nu; i++ {
			queue = append(queue, slot{src: t.child(cur.src, i), dst: first + int32(i)})
		}
	}
	for i := int32(0); i < used; i++ {
		copyNodeValues(&t.nodes[i], &scratch[i])
	}
	t.used.Store(used)
}
