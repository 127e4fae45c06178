package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxwellpirtle/pentobi/board"
)

func duoPoint(x, y int) board.Point { return board.Point(y*14 + x) }

func mustMove(t *testing.T, bc *board.BoardConst, points []board.Point) board.Move {
	t.Helper()
	mv, ok := bc.FindMove(points)
	require.True(t, ok, "no move occupies %v", points)
	return mv
}

// newTestState builds a worker state searching for toPlay on bd.
func newTestState(t *testing.T, bd *board.Board, toPlay board.Color, seed uint64) *State {
	t.Helper()
	sc := NewSharedConst(bd.GetBoardConst())
	sc.Board = bd
	sc.ToPlay = toPlay
	st, err := NewState(bd.GetVariant(), sc, newRNG(seed, 0))
	require.NoError(t, err)
	st.StartSearch()
	st.StartSimulation(0)
	return st
}

func newDuoState(t *testing.T, seed uint64) *State {
	t.Helper()
	bd, err := board.New(board.VariantDuo)
	require.NoError(t, err)
	return newTestState(t, bd, 0, seed)
}

// checkMoveListInvariants verifies the candidate list of c: no
// duplicates, every move marked, non-forbidden and of an available
// piece.
func checkMoveListInvariants(t *testing.T, st *State, c board.Color) {
	t.Helper()
	seen := make(map[board.Move]bool, len(st.moves[c]))
	for _, mv := range st.moves[c] {
		require.False(t, seen[mv], "duplicate move %v", mv)
		seen[mv] = true
		require.True(t, st.marker[c].has(mv), "move %v not marked", mv)
		info := st.bc.MoveInfo(mv)
		require.True(t, st.bd.IsPieceLeft(c, info.Piece))
		for _, p := range info.Points {
			require.False(t, st.bd.IsForbidden(p, c))
		}
	}
}

func TestInitMovesConsideredPieces(t *testing.T) {
	st := newDuoState(t, 1)
	st.initMovesWithGamma(0)
	moves := st.moves[0]
	require.NotEmpty(t, moves)
	checkMoveListInvariants(t, st, 0)
	// At move number 0 only the largest pieces are considered, and all
	// starting moves share the single chosen starting point.
	for _, mv := range moves {
		info := st.bc.MoveInfo(mv)
		assert.Equal(t, 5, st.bc.PieceInfo(info.Piece).Size)
		covers := false
		for _, p := range info.Points {
			if p == duoPoint(4, 4) {
				covers = true
			}
		}
		assert.True(t, covers, "starting move misses the starting point")
	}
}

func TestCumulativeGamma(t *testing.T) {
	st := newDuoState(t, 1)
	st.initMovesWithGamma(0)
	n := len(st.moves[0])
	require.NotZero(t, n)
	prev := 0.0
	for i := 0; i < n; i++ {
		assert.GreaterOrEqual(t, st.cumulativeGamma[i], prev)
		prev = st.cumulativeGamma[i]
	}
	assert.Equal(t, st.totalGamma, st.cumulativeGamma[n-1])
}

func TestPlayoutRunsToTermination(t *testing.T) {
	st := newDuoState(t, 7)
	steps := 0
	for {
		mv, ok := st.GenPlayoutMove(board.NullMove, board.NullMove)
		if !ok {
			break
		}
		c := st.bd.GetToPlay()
		checkMoveListInvariants(t, st, c)
		require.True(t, st.bd.IsLegalNonpass(mv))
		st.PlayPlayout(mv)
		steps++
		require.Less(t, steps, 500, "playout does not terminate")
	}
	require.NotZero(t, steps)
	eval := st.EvaluatePlayout()
	require.Len(t, eval, 2)
	// In two-player variants the results mirror around one.
	assert.InDelta(t, 1.0, eval[0]+eval[1], 1e-9)
}

func TestStartSimulationResets(t *testing.T) {
	st := newDuoState(t, 3)
	grid := st.bd.String()
	for i := 0; i < 5; i++ {
		mv, ok := st.GenPlayoutMove(board.NullMove, board.NullMove)
		require.True(t, ok)
		st.PlayPlayout(mv)
	}
	require.NotEqual(t, grid, st.bd.String())

	st.StartSimulation(1)
	assert.Equal(t, grid, st.bd.String())
	assert.Zero(t, st.nuPasses)
	for c := 0; c < st.nuColors; c++ {
		assert.Empty(t, st.newMoves[c])
		assert.False(t, st.isMoveListInit[c])
		assert.True(t, st.hasMoves[c])
	}

	// Repeating without moves is idempotent.
	st.StartSimulation(2)
	assert.Equal(t, grid, st.bd.String())
}

func TestPlayoutDeterminism(t *testing.T) {
	run := func() []board.Move {
		st := newDuoState(t, 42)
		var seq []board.Move
		for {
			mv, ok := st.GenPlayoutMove(board.NullMove, board.NullMove)
			if !ok {
				return seq
			}
			st.PlayPlayout(mv)
			seq = append(seq, mv)
		}
	}
	assert.Equal(t, run(), run())
}

func TestLastGoodReplyShortCircuits(t *testing.T) {
	st := newDuoState(t, 1)
	reply := mustMove(t, st.bc, []board.Point{duoPoint(4, 4)})
	require.True(t, st.bd.IsLegalNonpass(reply))

	mv, ok := st.GenPlayoutMove(board.NullMove, reply)
	require.True(t, ok)
	assert.Equal(t, reply, mv)
	assert.Equal(t, 1, st.nuLGRMoves)
	assert.Equal(t, 1, st.nuPlayoutMoves)

	// An illegal reply falls through to sampling.
	st.PlayPlayout(mv)
	st.bd.SetToPlay(0)
	mv2, ok := st.GenPlayoutMove(reply, board.NullMove)
	require.True(t, ok)
	assert.NotEqual(t, reply, mv2)
	assert.Equal(t, 1, st.nuLGRMoves)
}

func mirrorDuoPosition(t *testing.T) *board.Board {
	t.Helper()
	bd, err := board.New(board.VariantDuo)
	require.NoError(t, err)
	bc := bd.GetBoardConst()
	// Two mirrored move pairs; the position stays point symmetric.
	bd.PlayNonpass(mustMove(t, bc, []board.Point{duoPoint(4, 4), duoPoint(5, 4)}))
	bd.PlayNonpass(mustMove(t, bc, []board.Point{duoPoint(8, 9), duoPoint(9, 9)}))
	bd.PlayNonpass(mustMove(t, bc, []board.Point{duoPoint(6, 5), duoPoint(6, 6), duoPoint(6, 7)}))
	bd.PlayNonpass(mustMove(t, bc, []board.Point{duoPoint(7, 6), duoPoint(7, 7), duoPoint(7, 8)}))
	return bd
}

func TestSymmetryDraw(t *testing.T) {
	bd := mirrorDuoPosition(t)
	st := newTestState(t, bd, 0, 1)
	require.True(t, st.checkSymmetricDraw)
	require.False(t, st.isSymmetryBroken)

	_, ok := st.GenPlayoutMove(board.NullMove, board.NullMove)
	assert.False(t, ok)

	eval := st.EvaluatePlayout()
	assert.Equal(t, []float64{0.5, 0.5}, eval)
}

func TestAvoidSymmetricDraw(t *testing.T) {
	bd := mirrorDuoPosition(t)
	// With the second player to move the heuristic is disabled, so the
	// playout is not cut short.
	st := newTestState(t, bd, 1, 1)
	require.False(t, st.checkSymmetricDraw)
	require.True(t, st.isSymmetryBroken)

	_, ok := st.GenPlayoutMove(board.NullMove, board.NullMove)
	assert.True(t, ok)
}

func TestSymmetryBrokenByAsymmetricMove(t *testing.T) {
	bd, err := board.New(board.VariantDuo)
	require.NoError(t, err)
	st := newTestState(t, bd, 0, 1)
	require.True(t, st.checkSymmetricDraw)
	require.False(t, st.isSymmetryBroken)

	// A first-player move onto empty mirror points keeps the symmetry
	// attainable.
	st.PlayPlayout(mustMove(t, st.bc, []board.Point{duoPoint(4, 4), duoPoint(5, 4)}))
	assert.False(t, st.isSymmetryBroken)

	// A second-player reply that does not mirror it breaks it.
	st.PlayPlayout(mustMove(t, st.bc, []board.Point{duoPoint(9, 8), duoPoint(9, 9)}))
	assert.True(t, st.isSymmetryBroken)
}

func TestSymmetryPreservedByMirrorMove(t *testing.T) {
	bd, err := board.New(board.VariantDuo)
	require.NoError(t, err)
	bc := bd.GetBoardConst()
	bd.PlayNonpass(mustMove(t, bc, []board.Point{duoPoint(4, 4), duoPoint(5, 4)}))
	st := newTestState(t, bd, 1, 1)
	// Root check tolerates the yet-unmirrored first-player move.
	require.False(t, st.checkSymmetricDraw) // avoidSymmetricDraw: second player to move
	st.sc.AvoidSymmetricDraw = false
	st.StartSearch()
	st.StartSimulation(0)
	require.True(t, st.checkSymmetricDraw)
	require.False(t, st.isSymmetryBroken)

	// Mirroring the first player's move preserves symmetry.
	st.PlayPlayout(mustMove(t, st.bc, []board.Point{duoPoint(8, 9), duoPoint(9, 9)}))
	assert.False(t, st.isSymmetryBroken)
}

func TestEvaluateTeamMirror(t *testing.T) {
	bd, err := board.New(board.VariantClassic2)
	require.NoError(t, err)
	st := newTestState(t, bd, 0, 5)
	for {
		mv, ok := st.GenPlayoutMove(board.NullMove, board.NullMove)
		if !ok {
			break
		}
		st.PlayPlayout(mv)
	}
	eval := st.EvaluatePlayout()
	require.Len(t, eval, 4)
	assert.Equal(t, eval[0], eval[2])
	assert.Equal(t, eval[1], eval[3])
}

func TestScoreDeviationBonus(t *testing.T) {
	bd, err := board.New(board.VariantDuo)
	require.NoError(t, err)
	bc := bd.GetBoardConst()
	// Color 0 leads by five points.
	i5 := []board.Point{
		duoPoint(4, 4), duoPoint(5, 4), duoPoint(6, 4),
		duoPoint(7, 4), duoPoint(8, 4),
	}
	bd.PlayNonpass(mustMove(t, bc, i5))
	st := newTestState(t, bd, 0, 1)
	st.isSymmetryBroken = true
	// Preload the running score statistic to mean 0, deviation 1.
	for i := 0; i < 50; i++ {
		st.statScore[0].Push(1)
		st.statScore[0].Push(-1)
	}

	eval := st.EvaluatePlayout()
	// A win with a score far above the mean approaches the 0.2 bonus
	// cap; the length statistic has no deviation yet, so no length
	// bonus applies.
	assert.Greater(t, eval[0], 1.15)
	assert.LessOrEqual(t, eval[0], 1.2)
	assert.InDelta(t, 1.0, eval[0]+eval[1], 1e-9)
}

func TestGenChildrenTerminal(t *testing.T) {
	st := newDuoState(t, 1)
	st.nuPasses = st.nuColors
	count := 0
	st.GenChildren(func(board.Move, float64, float64) { count++ })
	assert.Zero(t, count)
}

func TestGenChildrenPriors(t *testing.T) {
	st := newDuoState(t, 1)
	count := 0
	st.GenChildren(func(mv board.Move, value, weight float64) {
		count++
		assert.True(t, mv.IsRegular())
		assert.GreaterOrEqual(t, value, 0.0)
		assert.LessOrEqual(t, value, 1.0)
		assert.Greater(t, weight, 0.0)
	})
	assert.NotZero(t, count)
}

func TestForceConsiderAllPieces(t *testing.T) {
	st := newDuoState(t, 1)
	// Pretend no piece is considered at move number zero; the fallback
	// must widen to all pieces instead of yielding an empty list.
	empty := make(pieceSet, st.bc.NuPieces())
	st.sc.isPieceConsidered[0] = &empty
	st.initMovesWithGamma(0)
	assert.True(t, st.forceConsiderAll)
	assert.NotEmpty(t, st.moves[0])
}
