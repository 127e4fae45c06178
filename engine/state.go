package engine

import (
	"math"
	"sort"

	"lukechampine.com/frand"

	"github.com/maxwellpirtle/pentobi/board"
	"github.com/maxwellpirtle/pentobi/stats"
)

// State is the per-worker simulation state: a private board copy, the
// incrementally maintained candidate move list of each color, the gamma
// tables biasing the playout policy and the running result statistics.
type State struct {
	sc  *SharedConst
	bd  *board.Board
	bc  *board.BoardConst
	rng *frand.RNG

	nuColors  int
	nuPlayers int

	moves             [][]board.Move
	marker            []moveMarker
	newMoves          [][]board.Move
	movesAddedAt      []pointMarker
	isMoveListInit    []bool
	hasMoves          []bool
	isPieceConsidered []*pieceSet

	cumulativeGamma []float64
	totalGamma      float64
	localValue      localValue
	gammaPiece      []float64
	gammaNuAttach   []float64

	forceConsiderAll    bool
	isSymmetryBroken    bool
	checkSymmetricDraw  bool
	symmetryMinNuPieces int
	checkTerminateEarly bool
	nuPasses            int
	nuMovesInitial      int

	nuSimulations  uint64
	nuPlayoutMoves int
	nuLGRMoves     int

	statScore []stats.Statistic
	statLen   stats.Statistic

	// reusable buffers
	piecesBuf []board.Piece
	moveBuf   []board.Move
	evalBuf   []float64
}

// NewState creates a worker state for the variant. Each worker owns its
// own random generator so runs are reproducible per seed.
func NewState(variant board.Variant, sc *SharedConst, rng *frand.RNG) (*State, error) {
	bd, err := board.New(variant)
	if err != nil {
		return nil, err
	}
	bc := bd.GetBoardConst()
	nuColors := variant.NuColors()
	nuPoints := bc.Geometry().NuPoints()
	s := &State{
		sc:                sc,
		bd:                bd,
		bc:                bc,
		rng:               rng,
		nuColors:          nuColors,
		nuPlayers:         variant.NuPlayers(),
		moves:             make([][]board.Move, nuColors),
		marker:            make([]moveMarker, nuColors),
		newMoves:          make([][]board.Move, nuColors),
		movesAddedAt:      make([]pointMarker, nuColors),
		isMoveListInit:    make([]bool, nuColors),
		hasMoves:          make([]bool, nuColors),
		isPieceConsidered: make([]*pieceSet, nuColors),
		cumulativeGamma:   make([]float64, bc.NuMoves()),
		localValue:        newLocalValue(nuPoints),
		gammaPiece:        make([]float64, bc.NuPieces()),
		gammaNuAttach:     make([]float64, board.MaxPieceSize+1),
		statScore:         make([]stats.Statistic, nuColors),
		evalBuf:           make([]float64, nuColors),
	}
	for c := 0; c < nuColors; c++ {
		s.moves[c] = make([]board.Move, 0, 1024)
		s.marker[c] = newMoveMarker(bc.NuMoves())
		s.newMoves[c] = make([]board.Move, 0, bc.NuPieces())
		s.movesAddedAt[c] = newPointMarker(nuPoints)
	}
	return s, nil
}

func (s *State) NuPlayers() int       { return s.nuPlayers }
func (s *State) NuColorsOnBoard() int { return s.nuColors }
func (s *State) MoveRange() int       { return s.bc.NuMoves() }
func (s *State) ToPlay() int          { return int(s.bd.GetToPlay()) }

// Board exposes the worker's private board for tests.
func (s *State) Board() *board.Board { return s.bd }

// StartSearch copies the shared root position and recomputes the
// per-search tables: gamma values per piece, the symmetry precondition
// and the early-termination shortcut.
func (s *State) StartSearch() {
	root := s.sc.Board
	s.bd.CopyFrom(root)
	s.bd.SetToPlay(s.sc.ToPlay)
	s.bd.TakeSnapshot()
	s.nuMovesInitial = s.bd.GetNuMoves()
	s.checkTerminateEarly =
		s.nuMovesInitial < 10*s.nuColors && s.nuPlayers == 2
	s.nuSimulations = 0
	s.nuPlayoutMoves = 0
	s.nuLGRMoves = 0

	variant := s.bd.GetVariant()
	s.checkSymmetricDraw = s.sc.DetectSymmetry &&
		variant.HasSymmetryDraw() &&
		!(s.sc.AvoidSymmetricDraw && (s.sc.ToPlay == 1 || s.sc.ToPlay == 3)) &&
		!CheckSymmetryBroken(s.bd, s.sc.SymmetricPoints)
	if variant == board.VariantTrigon2 {
		s.symmetryMinNuPieces = 5
	} else {
		s.symmetryMinNuPieces = 3
	}

	for c := range s.statScore {
		s.statScore[c].Clear()
	}
	s.statLen.Clear()

	gammaSizeFactor := 5.0
	gammaNuAttachFactor := 1.0
	if s.bd.GetBoardType() == board.BoardTypeDuo {
		gammaSizeFactor = 3.0
		gammaNuAttachFactor = 1.8
	}
	for i := 0; i < s.bc.NuPieces(); i++ {
		info := s.bc.PieceInfo(board.Piece(i))
		s.gammaPiece[i] = math.Pow(gammaSizeFactor, float64(info.Size-1)) *
			math.Pow(gammaNuAttachFactor, float64(info.NuAttach-1))
	}
	for i := range s.gammaNuAttach {
		s.gammaNuAttach[i] = math.Pow(1e10, float64(i))
	}
}

// StartSimulation resets the worker to the root snapshot and clears the
// per-simulation bookkeeping.
func (s *State) StartSimulation(_ uint64) {
	s.nuSimulations++
	s.bd.RestoreSnapshot()
	s.forceConsiderAll = false
	for c := 0; c < s.nuColors; c++ {
		s.hasMoves[c] = true
		s.isMoveListInit[c] = false
		s.newMoves[c] = s.newMoves[c][:0]
		s.movesAddedAt[c].clearAll()
	}
	s.isSymmetryBroken = !s.checkSymmetricDraw
	// Count the trailing passes of the root history; the playout
	// terminates once every color has passed in a row.
	s.nuPasses = 0
	for i := s.bd.GetNuMoves(); i > 0; i-- {
		if !s.bd.GetMove(i - 1).Move.IsPass() {
			break
		}
		s.nuPasses++
	}
}

func (s *State) addMove(c board.Color, mv board.Move, gamma float64) {
	s.totalGamma += gamma
	s.cumulativeGamma[len(s.moves[c])] = s.totalGamma
	s.moves[c] = append(s.moves[c], mv)
}

// checkMove verifies no placement point is forbidden and computes the
// move's gamma from its piece and local response in the same pass.
func (s *State) checkMove(isForbidden []bool, info *board.MoveInfo) (float64, bool) {
	nuAttach := 0
	hasAdjAttach := false
	for _, p := range info.Points {
		if isForbidden[p] {
			return 0, false
		}
		m := s.localValue.marks[p]
		if m&localAttach != 0 {
			nuAttach++
		}
		if m&localAdjAttach != 0 {
			hasAdjAttach = true
		}
	}
	gamma := s.gammaPiece[info.Piece]
	if nuAttach > 0 || hasAdjAttach {
		gamma *= s.gammaNuAttach[nuAttach]
		if hasAdjAttach {
			gamma *= 1e5
		}
	}
	return gamma, true
}

func (s *State) checkMoveWithoutGamma(isForbidden []bool, mv board.Move) bool {
	for _, p := range s.bc.MoveInfo(mv).Points {
		if isForbidden[p] {
			return false
		}
	}
	return true
}

func (s *State) addMoves(p board.Point, c board.Color, pieces []board.Piece) {
	adjStatus := s.bd.GetAdjStatus(p, c)
	isForbidden := s.bd.GetForbidden(c)
	marker := &s.marker[c]
	for _, piece := range pieces {
		s.moveBuf = s.bc.GetMoves(piece, p, adjStatus, s.moveBuf[:0])
		for _, mv := range s.moveBuf {
			if marker.has(mv) {
				continue
			}
			if gamma, ok := s.checkMove(isForbidden, s.bc.MoveInfo(mv)); ok {
				marker.set(mv)
				s.addMove(c, mv, gamma)
			}
		}
	}
	s.movesAddedAt[c].set(p)
}

func (s *State) addMovesPiece(p board.Point, c board.Color, piece board.Piece, adjStatus uint8) {
	isForbidden := s.bd.GetForbidden(c)
	marker := &s.marker[c]
	s.moveBuf = s.bc.GetMoves(piece, p, adjStatus, s.moveBuf[:0])
	for _, mv := range s.moveBuf {
		if marker.has(mv) {
			continue
		}
		if gamma, ok := s.checkMove(isForbidden, s.bc.MoveInfo(mv)); ok {
			marker.set(mv)
			s.addMove(c, mv, gamma)
		}
	}
}

// addStartingMoves enumerates the considered pieces at a single best
// starting point. Using only one starting point keeps update_moves
// correct: a listed move stays legal as long as the forbidden status of
// its points does not change.
func (s *State) addStartingMoves(c board.Color, pieces []board.Piece, withGamma bool) {
	p := s.findBestStartingPoint(c)
	if p.IsNull() {
		return
	}
	isForbidden := s.bd.GetForbidden(c)
	marker := &s.marker[c]
	for _, piece := range pieces {
		s.moveBuf = s.bc.GetMoves(piece, p, 0, s.moveBuf[:0])
		for _, mv := range s.moveBuf {
			if !s.checkMoveWithoutGamma(isForbidden, mv) {
				continue
			}
			marker.set(mv)
			if withGamma {
				s.addMove(c, mv, s.gammaPiece[s.bc.MoveInfo(mv).Piece])
			} else {
				s.moves[c] = append(s.moves[c], mv)
			}
		}
	}
}

// findBestStartingPoint maximizes the weighted distance to the occupied
// starting points; distance to starting points occupied by c or its
// partner color weighs double. Trigon boards scale y by sqrt(3).
func (s *State) findBestStartingPoint(c board.Color) board.Point {
	best := board.NullPoint
	maxDistance := -1.0
	ratio := 1.0
	switch s.bd.GetBoardType() {
	case board.BoardTypeTrigon, board.BoardTypeTrigon3:
		ratio = 1.732
	}
	width := s.bd.GetGeometry().GetWidth()
	for _, p := range s.bd.GetStartingPoints(c) {
		if s.bd.IsForbidden(p, c) {
			continue
		}
		px, py := float64(p.X(width)), float64(p.Y(width))
		d := 0.0
		for cc := 0; cc < s.nuColors; cc++ {
			for _, pp := range s.bd.GetStartingPoints(board.Color(cc)) {
				st := s.bd.GetPointState(pp)
				if st.IsEmpty() {
					continue
				}
				dx := float64(pp.X(width)) - px
				dy := ratio * (float64(pp.Y(width)) - py)
				weight := 1.0
				if st.IsColor(c) || st.IsColor(s.bd.GetSecondColor(c)) {
					weight = 2.0
				}
				d += weight * math.Sqrt(dx*dx+dy*dy)
			}
		}
		if d > maxDistance {
			best = p
			maxDistance = d
		}
	}
	return best
}

func (s *State) consideredPieces(c board.Color, out []board.Piece) []board.Piece {
	considered := *s.isPieceConsidered[c]
	for _, piece := range s.bd.GetPiecesLeft(c) {
		if considered[piece] {
			out = append(out, piece)
		}
	}
	return out
}

func (s *State) initMovesWithGamma(c board.Color) {
	s.isPieceConsidered[c] = s.sc.consideredFor(s.bd.GetNuOnboardPieces(), s.forceConsiderAll)
	s.localValue.init(s.bd)
	s.totalGamma = 0
	s.marker[c].clearList(s.moves[c])
	s.moves[c] = s.moves[c][:0]
	s.piecesBuf = s.consideredPieces(c, s.piecesBuf[:0])
	if s.bd.IsFirstPiece(c) {
		s.addStartingMoves(c, s.piecesBuf, true)
	} else {
		for _, p := range s.bd.GetAttachPoints(c) {
			if !s.bd.IsForbidden(p, c) {
				s.addMoves(p, c, s.piecesBuf)
			}
		}
	}
	s.isMoveListInit[c] = true
	s.newMoves[c] = s.newMoves[c][:0]
	if len(s.moves[c]) == 0 && !s.forceConsiderAll {
		s.forceConsiderAll = true
		s.initMovesWithGamma(c)
	}
}

func (s *State) initMovesWithoutGamma(c board.Color) {
	s.isPieceConsidered[c] = s.sc.consideredFor(s.bd.GetNuOnboardPieces(), s.forceConsiderAll)
	s.marker[c].clearList(s.moves[c])
	s.moves[c] = s.moves[c][:0]
	s.piecesBuf = s.consideredPieces(c, s.piecesBuf[:0])
	isForbidden := s.bd.GetForbidden(c)
	marker := &s.marker[c]
	if s.bd.IsFirstPiece(c) {
		s.addStartingMoves(c, s.piecesBuf, false)
	} else {
		for _, p := range s.bd.GetAttachPoints(c) {
			if isForbidden[p] {
				continue
			}
			adjStatus := s.bd.GetAdjStatus(p, c)
			for _, piece := range s.piecesBuf {
				s.moveBuf = s.bc.GetMoves(piece, p, adjStatus, s.moveBuf[:0])
				for _, mv := range s.moveBuf {
					if !marker.has(mv) && s.checkMoveWithoutGamma(isForbidden, mv) {
						marker.set(mv)
						s.moves[c] = append(s.moves[c], mv)
					}
				}
			}
			s.movesAddedAt[c].set(p)
		}
	}
	s.isMoveListInit[c] = true
	s.newMoves[c] = s.newMoves[c][:0]
	if len(s.moves[c]) == 0 && !s.forceConsiderAll {
		s.forceConsiderAll = true
		s.initMovesWithoutGamma(c)
	}
}

// updateMoves incrementally maintains the candidate list of c: filter
// the previous list against the current board, enumerate the attach
// points created by c's own new pieces and widen the consideration set
// when more pieces become considered.
func (s *State) updateMoves(c board.Color) {
	s.localValue.init(s.bd)
	s.totalGamma = 0
	marker := &s.marker[c]
	isForbidden := s.bd.GetForbidden(c)

	old := s.moves[c]
	oldSize := len(old)
	s.moves[c] = s.moves[c][:0]
	for i := 0; i < oldSize; i++ {
		mv := old[i]
		info := s.bc.MoveInfo(mv)
		if s.bd.IsPieceLeft(c, info.Piece) {
			if gamma, ok := s.checkMove(isForbidden, info); ok {
				s.addMove(c, mv, gamma)
				continue
			}
		}
		marker.clear(mv)
	}

	s.piecesBuf = s.consideredPieces(c, s.piecesBuf[:0])
	for _, mv := range s.newMoves[c] {
		ext := s.bc.MoveInfoExt(mv)
		for _, ap := range ext.AttachPoints {
			if !isForbidden[ap] && !s.movesAddedAt[c].has(ap) {
				s.addMoves(ap, c, s.piecesBuf)
			}
		}
	}
	s.newMoves[c] = s.newMoves[c][:0]

	if s.isPieceConsidered[c] != s.sc.isPieceConsideredAll {
		if len(s.moves[c]) == 0 {
			s.forceConsiderAll = true
		}
		newConsidered := s.sc.consideredFor(s.bd.GetNuOnboardPieces(), s.forceConsiderAll)
		if s.isPieceConsidered[c] != newConsidered {
			oldSet := *s.isPieceConsidered[c]
			newSet := *newConsidered
			s.piecesBuf = s.piecesBuf[:0]
			for _, piece := range s.bd.GetPiecesLeft(c) {
				if !oldSet[piece] && newSet[piece] {
					s.piecesBuf = append(s.piecesBuf, piece)
				}
			}
			for _, p := range s.bd.GetAttachPoints(c) {
				if isForbidden[p] {
					continue
				}
				adjStatus := s.bd.GetAdjStatus(p, c)
				for _, piece := range s.piecesBuf {
					s.addMovesPiece(p, c, piece, adjStatus)
				}
			}
			s.isPieceConsidered[c] = newConsidered
		}
	}
}

// GenPlayoutMove produces the next playout move, or false when the
// playout terminates: all colors passed in a row, or an unbroken
// symmetry makes the outcome a certain draw.
func (s *State) GenPlayoutMove(lgr1, lgr2 board.Move) (board.Move, bool) {
	if s.nuPasses == s.nuColors {
		return board.NullMove, false
	}
	if !s.isSymmetryBroken &&
		s.bd.GetNuOnboardPieces() >= s.symmetryMinNuPieces {
		// The playout is scored as a draw; see EvaluatePlayout.
		return board.NullMove, false
	}

	s.nuPlayoutMoves++
	if lgr2.IsRegular() && s.bd.IsLegalNonpass(lgr2) {
		s.nuLGRMoves++
		return lgr2, true
	}
	if lgr1.IsRegular() && s.bd.IsLegalNonpass(lgr1) {
		s.nuLGRMoves++
		return lgr1, true
	}

	var toPlay board.Color
	for {
		toPlay = s.bd.GetToPlay()
		if !s.isMoveListInit[toPlay] {
			s.initMovesWithGamma(toPlay)
		} else if s.hasMoves[toPlay] {
			s.updateMoves(toPlay)
		}
		s.hasMoves[toPlay] = len(s.moves[toPlay]) > 0
		if s.hasMoves[toPlay] {
			break
		}
		if s.nuPasses+1 == s.nuColors {
			return board.NullMove, false
		}
		if s.checkTerminateEarly && s.bd.GetScore(toPlay) < 0 &&
			!s.hasMoves[s.bd.GetSecondColor(toPlay)] {
			return board.NullMove, false
		}
		s.nuPasses++
		s.bd.SetToPlay(s.bd.GetNext(toPlay))
		// Symmetry is not tracked across pass moves.
		s.isSymmetryBroken = true
	}

	moves := s.moves[toPlay]
	r := s.totalGamma * s.rng.Float64()
	idx := sort.SearchFloat64s(s.cumulativeGamma[:len(moves)], r)
	if idx >= len(moves) {
		idx = len(moves) - 1
	}
	return moves[idx], true
}

// PlayPlayout plays a regular move for the color to play.
func (s *State) PlayPlayout(mv board.Move) {
	mover := s.bd.GetToPlay()
	s.newMoves[mover] = append(s.newMoves[mover], mv)
	s.bd.PlayNonpass(mv)
	s.nuPasses = 0
	if !s.isSymmetryBroken {
		s.updateSymmetryBroken(mv, mover)
	}
}

// PlayExpandedChild plays a move selected in the tree, which unlike
// playout moves may be a pass.
func (s *State) PlayExpandedChild(mv board.Move) {
	if !mv.IsPass() {
		s.PlayPlayout(mv)
		return
	}
	s.bd.PlayPass()
	s.nuPasses++
	// A pass either breaks the symmetry or ends the game; the heuristic
	// is not needed beyond that.
	s.isSymmetryBroken = true
}

// EvaluatePlayout scores the terminal position for every color.
func (s *State) EvaluatePlayout() []float64 {
	result := s.evalBuf
	if !s.isSymmetryBroken &&
		s.bd.GetNuOnboardPieces() >= s.symmetryMinNuPieces {
		// Symmetric playouts count as a draw, encouraging the first
		// player to break the symmetry and the second to preserve it.
		for i := range result {
			result[i] = 0.5
		}
		return result
	}

	var points [4]float64
	var score [4]float64
	for c := 0; c < s.nuColors; c++ {
		points[c] = float64(s.bd.GetPointsWithBonus(board.Color(c)))
	}
	for i := 0; i < s.nuPlayers; i++ {
		score[i] = float64(s.bd.GetScore(board.Color(i)))
	}
	if s.nuColors > s.nuPlayers {
		score[2] = score[0]
		score[3] = score[1]
	}
	var sortedPoints [4]float64
	if s.nuPlayers > 2 {
		copy(sortedPoints[:s.nuColors], points[:s.nuColors])
		sort.Float64s(sortedPoints[:s.nuColors])
	}
	length := float64(s.bd.GetNuMoves())
	for i := 0; i < s.nuPlayers; i++ {
		if s.nuPlayers == 2 && i == 1 {
			result[1] = 1 - result[0]
			break
		}
		var gameResult float64
		if s.nuPlayers == 2 {
			switch {
			case score[i] > 0:
				gameResult = 1
			case score[i] < 0:
				gameResult = 0
			default:
				gameResult = 0.5
			}
		} else {
			n := 0.0
			for j := 0; j < s.nuColors; j++ {
				if sortedPoints[j] == points[i] {
					gameResult += float64(j) / float64(s.nuColors-1)
					n++
				}
			}
			gameResult /= n
		}

		res := gameResult
		stat := &s.statScore[i]
		stat.Push(score[i])
		if dev := stat.Deviation(); dev > 0 {
			res += 0.2 * stats.Sigmoid(2, (score[i]-stat.Mean())/dev)
		}
		s.statLen.Push(length)
		if dev := s.statLen.Deviation(); dev > 0 {
			// Winners prefer shorter playouts, losers longer ones.
			if gameResult == 1 {
				res -= 0.12 * stats.Sigmoid(2, (length-s.statLen.Mean())/dev)
			} else if gameResult == 0 {
				res += 0.12 * stats.Sigmoid(2, (length-s.statLen.Mean())/dev)
			}
		}
		result[i] = res
	}
	if s.nuColors > s.nuPlayers {
		result[2] = result[0]
		result[3] = result[1]
	}
	return result
}
