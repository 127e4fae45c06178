package mcts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxwellpirtle/pentobi/board"
)

// fakeState is a two-player toy game: the root offers rootMoves, every
// child position is terminal, and the first player wins exactly when the
// winning move was played.
type fakeState struct {
	rootMoves []board.Move
	winning   board.Move
	played    []board.Move
}

func (f *fakeState) NuPlayers() int       { return 2 }
func (f *fakeState) NuColorsOnBoard() int { return 2 }
func (f *fakeState) MoveRange() int       { return 16 }
func (f *fakeState) ToPlay() int          { return len(f.played) % 2 }
func (f *fakeState) StartSearch()         {}

func (f *fakeState) StartSimulation(uint64) { f.played = f.played[:0] }

func (f *fakeState) GenChildren(add func(mv board.Move, value, count float64)) {
	if len(f.played) > 0 {
		return
	}
	for _, mv := range f.rootMoves {
		add(mv, 0.5, 1)
	}
}

func (f *fakeState) GenPlayoutMove(lgr1, lgr2 board.Move) (board.Move, bool) {
	return board.NullMove, false
}

func (f *fakeState) PlayPlayout(mv board.Move)       { f.played = append(f.played, mv) }
func (f *fakeState) PlayExpandedChild(mv board.Move) { f.played = append(f.played, mv) }

func (f *fakeState) EvaluatePlayout() []float64 {
	if len(f.played) > 0 && f.played[0] == f.winning {
		return []float64{1, 0}
	}
	return []float64{0, 1}
}

func newFakeSearch(t *testing.T, moves []board.Move, winning board.Move) *Search {
	t.Helper()
	st := &fakeState{rootMoves: moves, winning: winning}
	s, err := NewSearch([]SearchState{st}, 1<<16, &AbortFlag{})
	require.NoError(t, err)
	return s
}

func TestSearchFindsWinningMove(t *testing.T) {
	s := newFakeSearch(t, []board.Move{3, 5, 7}, 5)
	mv, ok := s.Run(100, 1, 0, WallTimeSource{})
	require.True(t, ok)
	assert.Equal(t, board.Move(5), mv)
	assert.Equal(t, uint64(100), s.NuSimulations())
	// Root plus three children.
	assert.Equal(t, 4, s.Tree().NuNodes())
}

func TestSingleLegalMoveReturnsImmediately(t *testing.T) {
	s := newFakeSearch(t, []board.Move{9}, 9)
	mv, ok := s.Run(1000, 10, 0, WallTimeSource{})
	require.True(t, ok)
	assert.Equal(t, board.Move(9), mv)
	assert.Equal(t, uint64(0), s.NuSimulations())
}

func TestNoMovesAtRoot(t *testing.T) {
	s := newFakeSearch(t, nil, 0)
	mv, ok := s.Run(10, 1, 0, WallTimeSource{})
	assert.False(t, ok)
	assert.Equal(t, board.NullMove, mv)
}

func TestAbortBeforeMinSimulations(t *testing.T) {
	st := &fakeState{rootMoves: []board.Move{3, 5}, winning: 5}
	var abort AbortFlag
	s, err := NewSearch([]SearchState{st}, 1<<16, &abort)
	require.NoError(t, err)
	abort.Set()
	mv, ok := s.Run(100, 1, 0, WallTimeSource{})
	assert.False(t, ok)
	assert.Equal(t, board.NullMove, mv)
}

func TestRerootKeepsStatistics(t *testing.T) {
	s := newFakeSearch(t, []board.Move{3, 5, 7}, 5)
	_, ok := s.Run(60, 1, 0, WallTimeSource{})
	require.True(t, ok)
	winner := s.Tree().findChild(s.Tree().Root(), 5)
	require.NotNil(t, winner)
	visits := winner.Visits()
	require.NotZero(t, visits)

	require.True(t, s.Reroot([]board.Move{5}))
	assert.Equal(t, visits, s.Tree().Root().Visits())

	// An unknown continuation discards the tree.
	assert.False(t, s.Reroot([]board.Move{11}))
	assert.Equal(t, 1, s.Tree().NuNodes())
}

func TestMemoryTooSmall(t *testing.T) {
	_, err := NewTree(1)
	assert.ErrorIs(t, err, ErrMemoryTooSmall)

	tree, err := NewTree(10 * nodeSize)
	require.NoError(t, err)
	assert.Equal(t, 10, tree.Capacity())
}

func TestTreeExhaustionStopsExpansion(t *testing.T) {
	// Arena of two nodes cannot hold the root's three children.
	st := &fakeState{rootMoves: []board.Move{3, 5, 7}, winning: 5}
	s, err := NewSearch([]SearchState{st}, 2*nodeSize, &AbortFlag{})
	require.NoError(t, err)
	mv, ok := s.Run(10, 1, 0, WallTimeSource{})
	assert.False(t, ok)
	assert.Equal(t, board.NullMove, mv)
}

type fakeTime struct{ now float64 }

func (f *fakeTime) Now() float64 { return f.now }

func TestTimer(t *testing.T) {
	ft := &fakeTime{}
	timer := NewTimer(ft, 2.5)
	assert.False(t, timer.Expired())
	ft.now = 2.4
	assert.False(t, timer.Expired())
	ft.now = 2.5
	assert.True(t, timer.Expired())
	assert.InDelta(t, 2.5, timer.Elapsed(), 1e-9)
}

func TestLGRTable(t *testing.T) {
	lgr := NewLGRTable(2, 16)
	prev, prev2 := board.Move(4), board.Move(9)
	lgr.Store(1, prev, prev2, 12)

	l1, l2 := lgr.Lookup(1, prev, prev2)
	assert.Equal(t, board.Move(12), l1)
	assert.Equal(t, board.Move(12), l2)

	// Other color and other previous move miss.
	l1, _ = lgr.Lookup(0, prev, prev2)
	assert.Equal(t, board.NullMove, l1)
	l1, _ = lgr.Lookup(1, board.Move(5), prev2)
	assert.Equal(t, board.NullMove, l1)

	// Forgetting removes only a matching reply.
	lgr.Forget(1, prev, prev2, 13)
	l1, _ = lgr.Lookup(1, prev, prev2)
	assert.Equal(t, board.Move(12), l1)
	lgr.Forget(1, prev, prev2, 12)
	l1, l2 = lgr.Lookup(1, prev, prev2)
	assert.Equal(t, board.NullMove, l1)
	assert.Equal(t, board.NullMove, l2)

	lgr.Store(0, prev, board.NullMove, 3)
	l1, l2 = lgr.Lookup(0, prev, board.NullMove)
	assert.Equal(t, board.Move(3), l1)
	assert.Equal(t, board.NullMove, l2)
}

func TestAbortFlagGlobal(t *testing.T) {
	ClearAbort()
	assert.False(t, CheckAbort())
	SetAbort()
	assert.True(t, CheckAbort())
	ClearAbort()
}
