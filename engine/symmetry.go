package engine

import "github.com/maxwellpirtle/pentobi/board"

// CheckSymmetryBroken reports whether the mirror symmetry of a
// two-player mirror variant is already broken in the given position.
// When the second player is to move, the first player's last move may
// still be unmirrored; such half-open pairs do not break symmetry.
func CheckSymmetryBroken(bd *board.Board, symmetricPoints []board.Point) bool {
	toPlay := bd.GetToPlay()
	secondToMove := toPlay == 1 || toPlay == 3
	np := bd.GetGeometry().NuPoints()
	for p := board.Point(0); int(p) < np; p++ {
		sp := symmetricPoints[p]
		if sp < p {
			continue
		}
		s1 := bd.GetPointState(p)
		s2 := bd.GetPointState(sp)
		switch {
		case s1.IsEmpty() && s2.IsEmpty():
		case !s1.IsEmpty() && !s2.IsEmpty() && s1 != s2:
			// Opposite colors mirror each other.
			if firstPlayerColor(s1) == firstPlayerColor(s2) {
				return true
			}
		case secondToMove && s2.IsEmpty() && firstPlayerColor(s1):
		case secondToMove && s1.IsEmpty() && firstPlayerColor(s2):
		default:
			return true
		}
	}
	return false
}

// firstPlayerColor reports whether a non-empty point belongs to the
// first player's pair of colors.
func firstPlayerColor(s board.PointState) bool {
	return s == 0 || s == 2
}

// updateSymmetryBroken re-checks the symmetry flag after mover played
// mv. A first-player move keeps the symmetry attainable only when every
// mirror point is still empty, so the second player can answer with the
// mirrored placement. A second-player move re-establishes symmetry only
// when it mirrors its partner color's previous move, i.e. every mirror
// point is already occupied by that color.
func (s *State) updateSymmetryBroken(mv board.Move, mover board.Color) {
	info := s.bd.GetMoveInfo(mv)
	sym := s.sc.SymmetricPoints
	if mover == 0 || mover == 2 {
		for _, p := range info.Points {
			if !s.bd.GetPointState(sym[p]).IsEmpty() {
				s.isSymmetryBroken = true
				return
			}
		}
	} else {
		partner := s.bd.GetSecondColor(s.bd.GetNext(mover))
		for _, p := range info.Points {
			if !s.bd.GetPointState(sym[p]).IsColor(partner) {
				s.isSymmetryBroken = true
				return
			}
		}
	}
}
