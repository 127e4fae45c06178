package mcts

import (
	"math"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/maxwellpirtle/pentobi/board"
)

// SearchState is the game-specific per-worker simulation state driven by
// the search. One instance exists per worker; the search serializes all
// calls on a given instance.
type SearchState interface {
	// NuPlayers is the number of players; NuColorsOnBoard the number of
	// colors, which exceeds NuPlayers in team variants.
	NuPlayers() int
	NuColorsOnBoard() int
	// MoveRange is the exclusive upper bound of regular move
	// identifiers, used to size reply tables.
	MoveRange() int
	// ToPlay is the color to move in the worker's current position.
	ToPlay() int
	// StartSearch recomputes per-search tables from the shared root
	// position.
	StartSearch()
	// StartSimulation resets the worker to the root position.
	StartSimulation(n uint64)
	// GenChildren enumerates the children of the current position with
	// their prior value and count.
	GenChildren(add func(mv board.Move, value, count float64))
	// GenPlayoutMove produces the next playout move, or false when the
	// playout is over.
	GenPlayoutMove(lgr1, lgr2 board.Move) (board.Move, bool)
	PlayPlayout(mv board.Move)
	PlayExpandedChild(mv board.Move)
	// EvaluatePlayout returns the result per color.
	EvaluatePlayout() []float64
}

// Search drives parallel MCTS simulations over a shared tree.
type Search struct {
	// Exploration is the UCT exploration constant.
	Exploration float64

	tree   *Tree
	states []SearchState
	lgr    *LGRTable
	abort  *AbortFlag

	rootPlayer    int
	nuSimulations atomic.Uint64
	noExpansion   atomic.Bool
	lastAborted   atomic.Bool

	scratch []workerScratch
}

type pathEntry struct {
	node   *Node
	player int
}

type moveRec struct {
	player int
	mv     board.Move
}

type workerScratch struct {
	path     []pathEntry
	seq      []moveRec
	children []childSpec
	// pad out to a cache line so scratches do not false-share.
	_ [64]byte
}

type childSpec struct {
	mv    board.Move
	value float64
	count float64
}

// NewSearch creates a search over the given per-worker states, with a
// tree arena of the given memory budget in bytes. The abort flag may be
// shared with other searches; nil uses the process-wide flag.
func NewSearch(states []SearchState, memory int64, abort *AbortFlag) (*Search, error) {
	tree, err := NewTree(memory)
	if err != nil {
		return nil, err
	}
	if abort == nil {
		abort = GlobalAbort()
	}
	s := &Search{
		Exploration: 0.5,
		tree:        tree,
		states:      states,
		abort:       abort,
		scratch:     make([]workerScratch, len(states)),
	}
	st := states[0]
	s.lgr = NewLGRTable(st.NuColorsOnBoard(), st.MoveRange())
	return s, nil
}

func (s *Search) Tree() *Tree { return s.tree }

func (s *Search) LGR() *LGRTable { return s.lgr }

// NuSimulations is the number of simulations started in the last search.
func (s *Search) NuSimulations() uint64 { return s.nuSimulations.Load() }

// Reroot tries to reuse the tree of the previous search: if sequence
// leads from the old root to a descendant, that node becomes the new
// root, keeping its statistics. Otherwise the tree is discarded.
func (s *Search) Reroot(sequence []board.Move) bool {
	node := s.tree.Root()
	for _, mv := range sequence {
		node = s.tree.findChild(node, mv)
		if node == nil {
			s.tree.Clear()
			return false
		}
	}
	s.tree.reroot(node)
	log.Debug().
		Uint32("visits", s.tree.Root().Visits()).
		Int("nodes", s.tree.NuNodes()).
		Msg("reusing followup subtree")
	return true
}

// ClearTree discards the previous search tree.
func (s *Search) ClearTree() { s.tree.Clear() }

// Run searches until one of the termination criteria holds and returns
// the best root move. ok is false when the root has no moves, or when an
// abort struck before minSimulations completed.
func (s *Search) Run(maxCount, minSimulations uint64, maxTime float64, ts TimeSource) (mv board.Move, ok bool) {
	s.nuSimulations.Store(0)
	s.noExpansion.Store(false)
	s.lastAborted.Store(false)
	for _, st := range s.states {
		st.StartSearch()
	}
	s.rootPlayer = s.states[0].ToPlay()

	if !s.prepareRoot() {
		return board.NullMove, false
	}
	root := s.tree.Root()
	if root.NuChildren() == 1 {
		// No point searching a forced move.
		return s.tree.child(root, 0).Move(), true
	}

	timer := NewTimer(ts, maxTime)
	var g errgroup.Group
	for w := range s.states {
		w := w
		g.Go(func() error {
			s.runWorker(w, maxCount, minSimulations, timer)
			return nil
		})
	}
	g.Wait()

	count := s.nuSimulations.Load()
	if s.lastAborted.Load() && count < minSimulations {
		return board.NullMove, false
	}
	return s.bestRootMove()
}

// prepareRoot makes sure the root node is expanded, so forced moves and
// terminal positions are detected before any worker starts.
func (s *Search) prepareRoot() bool {
	st := s.states[0]
	root := s.tree.Root()
	if !root.IsExpanded() {
		st.StartSimulation(0)
		root.expState.Store(expanding)
		if !s.expandNode(st, root, &s.scratch[0]) {
			return false
		}
	}
	return root.NuChildren() > 0
}

func (s *Search) runWorker(w int, maxCount, minSimulations uint64, timer *Timer) {
	st := s.states[w]
	for {
		n := s.nuSimulations.Load()
		if n >= maxCount && n >= minSimulations {
			return
		}
		if n >= minSimulations && (timer.Expired() || s.noExpansion.Load()) {
			return
		}
		if s.abort.Aborted() {
			s.lastAborted.Store(true)
			return
		}
		n = s.nuSimulations.Add(1) - 1
		s.simulate(st, n, &s.scratch[w])
	}
}

// simulate runs one simulation: in-tree descent with expansion, a biased
// playout and backpropagation.
func (s *Search) simulate(st SearchState, n uint64, w *workerScratch) {
	st.StartSimulation(n)
	w.path = w.path[:0]
	w.seq = w.seq[:0]
	node := s.tree.Root()

	inTree := true
	for inTree {
		switch node.expState.Load() {
		case expanded:
			if node.NuChildren() == 0 {
				// Terminal position.
				inTree = false
				break
			}
			node = s.descend(st, node, w)
		case unexpanded:
			if s.noExpansion.Load() {
				inTree = false
				break
			}
			if !node.expState.CompareAndSwap(unexpanded, expanding) {
				// Another worker is expanding; play out from here.
				inTree = false
				break
			}
			if s.expandNode(st, node, w) && node.NuChildren() > 0 {
				node = s.descend(st, node, w)
			}
			inTree = false
		default: // expanding
			inTree = false
		}
	}

	for {
		prev, prev2 := s.lastMoves(w)
		lgr1, lgr2 := s.lgr.Lookup(st.ToPlay(), prev, prev2)
		mv, ok := st.GenPlayoutMove(lgr1, lgr2)
		if !ok {
			break
		}
		player := st.ToPlay()
		st.PlayPlayout(mv)
		w.seq = append(w.seq, moveRec{player: player, mv: mv})
	}

	eval := st.EvaluatePlayout()
	s.backup(w, eval)
	s.updateReplies(w, eval)
}

// descend selects the best child by UCT, plays its move on the state and
// records it on the path.
func (s *Search) descend(st SearchState, node *Node, w *workerScratch) *Node {
	child := s.selectChild(node)
	player := st.ToPlay()
	st.PlayExpandedChild(child.Move())
	w.path = append(w.path, pathEntry{node: child, player: player})
	w.seq = append(w.seq, moveRec{player: player, mv: child.Move()})
	return child
}

func (s *Search) selectChild(node *Node) *Node {
	parentCount := float64(node.Visits())
	logParent := math.Log(parentCount + 1)
	var best *Node
	bestScore := math.Inf(-1)
	for i := 0; i < node.NuChildren(); i++ {
		child := s.tree.child(node, i)
		count := child.ValueCount()
		var score float64
		if count == 0 {
			score = math.Inf(1)
		} else {
			score = child.Mean() + s.Exploration*math.Sqrt(logParent/count)
		}
		if score > bestScore {
			bestScore = score
			best = child
		}
	}
	return best
}

// expandNode enumerates children for the node's position and publishes
// them. Returns false when the arena is exhausted; the node reverts to
// unexpanded and the search enters no-expansion mode.
func (s *Search) expandNode(st SearchState, node *Node, w *workerScratch) bool {
	w.children = w.children[:0]
	st.GenChildren(func(mv board.Move, value, count float64) {
		w.children = append(w.children, childSpec{mv: mv, value: value, count: count})
	})
	nu := len(w.children)
	if nu == 0 {
		node.nuChildren.Store(0)
		node.expState.Store(expanded)
		return true
	}
	first, ok := s.tree.allocChildren(nu)
	if !ok {
		node.expState.Store(unexpanded)
		if !s.noExpansion.Swap(true) {
			log.Debug().Int("nodes", s.tree.NuNodes()).Msg("tree memory exhausted")
		}
		return false
	}
	for i, c := range w.children {
		s.tree.node(first + int32(i)).initNode(c.mv, c.value, c.count)
	}
	node.firstChild.Store(first)
	node.nuChildren.Store(int32(nu))
	node.expState.Store(expanded)
	return true
}

func (s *Search) lastMoves(w *workerScratch) (prev, prev2 board.Move) {
	prev, prev2 = board.NullMove, board.NullMove
	if len(w.seq) > 0 {
		prev = w.seq[len(w.seq)-1].mv
	}
	if len(w.seq) > 1 {
		prev2 = w.seq[len(w.seq)-2].mv
	}
	return
}

func (s *Search) backup(w *workerScratch, eval []float64) {
	root := s.tree.Root()
	root.AddResult(eval[s.rootPlayer])
	for _, e := range w.path {
		e.node.AddResult(eval[e.player])
	}
}

// updateReplies reinforces the replies of colors that won the playout
// and forgets those of colors that lost.
func (s *Search) updateReplies(w *workerScratch, eval []float64) {
	for i := 1; i < len(w.seq); i++ {
		rec := w.seq[i]
		prev := w.seq[i-1].mv
		prev2 := board.NullMove
		if i > 1 {
			prev2 = w.seq[i-2].mv
		}
		switch {
		case eval[rec.player] > 0.5:
			s.lgr.Store(rec.player, prev, prev2, rec.mv)
		case eval[rec.player] < 0.5:
			s.lgr.Forget(rec.player, prev, prev2, rec.mv)
		}
	}
}

// bestRootMove picks the root child with the most visits, breaking ties
// by higher mean value.
func (s *Search) bestRootMove() (board.Move, bool) {
	root := s.tree.Root()
	if root.NuChildren() == 0 {
		return board.NullMove, false
	}
	best := s.tree.child(root, 0)
	for i := 1; i < root.NuChildren(); i++ {
		child := s.tree.child(root, i)
		if child.Visits() > best.Visits() ||
			(child.Visits() == best.Visits() && child.Mean() > best.Mean()) {
			best = child
		}
	}
	return best.Move(), true
}

// BestChildValue returns the value statistics of the returned move, for
// reporting.
func (s *Search) BestChildValue() (mean float64, visits uint32) {
	mv, ok := s.bestRootMove()
	if !ok {
		return 0, 0
	}
	child := s.tree.findChild(s.tree.Root(), mv)
	if child == nil {
		return 0, 0
	}
	return child.Mean(), child.Visits()
}
