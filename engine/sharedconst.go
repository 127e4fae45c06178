// Package engine implements the Blokus-specific Monte-Carlo search: the
// per-worker simulation state with its incrementally maintained candidate
// move lists and gamma-biased playout policy, prior knowledge for node
// expansion, the symmetry heuristic of the two-player mirror variants and
// the search wrapper tying them to the generic tree search.
package engine

import "github.com/maxwellpirtle/pentobi/board"

// pieceSet flags which pieces are considered for move generation.
type pieceSet []bool

// SharedConst bundles the parameters and tables shared by all worker
// states of one search. It is immutable while a search runs.
type SharedConst struct {
	// Board is the root position; ToPlay the color searched for.
	Board  *board.Board
	ToPlay board.Color

	// ScoreModification weights a piece-size term added to prior values.
	ScoreModification float64
	// AvoidSymmetricDraw disables the symmetry heuristic when the
	// second player is to move at the root, so it is not steered into
	// accepting a draw.
	AvoidSymmetricDraw bool
	// DetectSymmetry enables the symmetry heuristic at all.
	DetectSymmetry bool

	// MinMoveAllConsidered is the move number from which all pieces are
	// considered for move generation.
	MinMoveAllConsidered int
	// isPieceConsidered prunes the branching factor in the opening: it
	// holds the consideration set per move number below
	// MinMoveAllConsidered.
	isPieceConsidered    []*pieceSet
	isPieceConsideredAll *pieceSet

	// SymmetricPoints maps each point to its mirror in the variants
	// with the symmetry draw rule.
	SymmetricPoints []board.Point
}

// NewSharedConst builds the piece-consideration tables and the symmetry
// permutation for the variant.
func NewSharedConst(bc *board.BoardConst) *SharedConst {
	sc := &SharedConst{
		AvoidSymmetricDraw: true,
		DetectSymmetry:     true,
	}
	sc.buildPieceConsidered(bc)
	sc.buildSymmetricPoints(bc)
	return sc
}

// buildPieceConsidered prefers large pieces in the opening: the earliest
// moves consider only the largest pieces, then the threshold relaxes
// until every piece is considered.
func (sc *SharedConst) buildPieceConsidered(bc *board.BoardConst) {
	variant := bc.Variant()
	if variant.BoardType() == board.BoardTypeDuo {
		sc.MinMoveAllConsidered = 10
	} else {
		sc.MinMoveAllConsidered = 12
	}
	all := make(pieceSet, bc.NuPieces())
	for i := range all {
		all[i] = true
	}
	sc.isPieceConsideredAll = &all
	sc.isPieceConsidered = make([]*pieceSet, sc.MinMoveAllConsidered)
	for m := 0; m < sc.MinMoveAllConsidered; m++ {
		minSize := 3
		switch {
		case m < sc.MinMoveAllConsidered/2:
			minSize = 5
		case m < (3*sc.MinMoveAllConsidered)/4:
			minSize = 4
		}
		set := make(pieceSet, bc.NuPieces())
		for i := range set {
			set[i] = bc.PieceInfo(board.Piece(i)).Size >= minSize
		}
		sc.isPieceConsidered[m] = &set
	}
}

func (sc *SharedConst) buildSymmetricPoints(bc *board.BoardConst) {
	geo := bc.Geometry()
	width, height := geo.GetWidth(), geo.GetHeight()
	sc.SymmetricPoints = make([]board.Point, geo.NuPoints())
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			sc.SymmetricPoints[y*width+x] =
				board.Point((height-1-y)*width + (width - 1 - x))
		}
	}
}

// consideredFor returns the consideration set for a move number.
func (sc *SharedConst) consideredFor(moveNumber int, forceAll bool) *pieceSet {
	if forceAll || moveNumber >= sc.MinMoveAllConsidered {
		return sc.isPieceConsideredAll
	}
	return sc.isPieceConsidered[moveNumber]
}
