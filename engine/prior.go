package engine

import (
	"github.com/maxwellpirtle/pentobi/board"
)

// priorCount is the weight of the prior value relative to real playout
// results.
const priorCount = 8.0

// GenChildren enumerates the children of the current position for node
// expansion, assigning each a deterministic prior from its move
// features. An empty candidate list yields a single pass child; a
// finished game yields none.
func (s *State) GenChildren(add func(mv board.Move, value, count float64)) {
	if s.nuPasses == s.nuColors {
		return
	}
	if !s.isSymmetryBroken &&
		s.bd.GetNuOnboardPieces() >= s.symmetryMinNuPieces {
		// Certain draw; treat like a finished game.
		return
	}
	c := s.bd.GetToPlay()
	s.initMovesWithoutGamma(c)
	moves := s.moves[c]
	if len(moves) == 0 {
		add(board.PassMove, 0.25, priorCount)
		return
	}
	s.localValue.init(s.bd)
	for _, mv := range moves {
		add(mv, s.priorValue(mv), priorCount)
	}
}

// priorValue estimates a move's worth in [0,1] from piece size, piece
// attach points and local response, shifted by the score modification
// parameter.
func (s *State) priorValue(mv board.Move) float64 {
	info := s.bc.MoveInfo(mv)
	pieceInfo := s.bc.PieceInfo(info.Piece)
	v := 0.3 + 0.06*float64(pieceInfo.Size-1) + 0.02*float64(pieceInfo.NuAttach-1)
	nuAttach := 0
	hasAdjAttach := false
	for _, p := range info.Points {
		m := s.localValue.marks[p]
		if m&localAttach != 0 {
			nuAttach++
		}
		if m&localAdjAttach != 0 {
			hasAdjAttach = true
		}
	}
	if nuAttach > 0 {
		if nuAttach > 3 {
			nuAttach = 3
		}
		v += 0.08 + 0.02*float64(nuAttach)
	} else if hasAdjAttach {
		v += 0.04
	}
	v += s.sc.ScoreModification * float64(pieceInfo.Size) / board.MaxPieceSize
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	return v
}
