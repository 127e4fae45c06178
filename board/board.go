package board

import (
	"fmt"
	"strings"
)

// Board is the full mutable game state. It is not safe for concurrent
// use; each search worker owns its own copy.
type Board struct {
	bc        *BoardConst
	variant   Variant
	nuColors  int
	nuPlayers int

	pointState    []PointState
	toPlay        Color
	forbidden     [][]bool
	attach        [][]Point
	attachFlag    [][]bool
	piecesLeft    [][]Piece
	pieceAvail    [][]bool
	points        []int
	lastPiece     []Piece
	onboardPieces []int
	hist          []ColorMove
	starting      [][]Point

	snap *snapshot
}

type snapshot struct {
	pointState    []PointState
	toPlay        Color
	forbidden     [][]bool
	attach        [][]Point
	attachFlag    [][]bool
	piecesLeft    [][]Piece
	pieceAvail    [][]bool
	points        []int
	lastPiece     []Piece
	onboardPieces []int
	histLen       int
}

// New creates an empty board for the variant.
func New(variant Variant) (*Board, error) {
	bc, err := GetBoardConst(variant)
	if err != nil {
		return nil, err
	}
	bd := &Board{
		bc:        bc,
		variant:   variant,
		nuColors:  variant.NuColors(),
		nuPlayers: variant.NuPlayers(),
	}
	bd.init()
	return bd, nil
}

func (bd *Board) init() {
	np := bd.bc.Geometry().NuPoints()
	width := bd.bc.Geometry().GetWidth()
	bd.pointState = make([]PointState, np)
	for i := range bd.pointState {
		bd.pointState[i] = Empty
	}
	bd.toPlay = 0
	bd.forbidden = make([][]bool, bd.nuColors)
	bd.attach = make([][]Point, bd.nuColors)
	bd.attachFlag = make([][]bool, bd.nuColors)
	bd.piecesLeft = make([][]Piece, bd.nuColors)
	bd.pieceAvail = make([][]bool, bd.nuColors)
	bd.points = make([]int, bd.nuColors)
	bd.lastPiece = make([]Piece, bd.nuColors)
	bd.onboardPieces = make([]int, bd.nuColors)
	bd.hist = bd.hist[:0]
	bd.starting = make([][]Point, bd.nuColors)
	sps := bd.variant.startingPoints()
	for c := 0; c < bd.nuColors; c++ {
		bd.forbidden[c] = make([]bool, np)
		bd.attach[c] = make([]Point, 0, np)
		bd.attachFlag[c] = make([]bool, np)
		bd.piecesLeft[c] = make([]Piece, bd.bc.NuPieces())
		bd.pieceAvail[c] = make([]bool, bd.bc.NuPieces())
		for i := range bd.piecesLeft[c] {
			bd.piecesLeft[c][i] = Piece(i)
			bd.pieceAvail[c][i] = true
		}
		bd.lastPiece[c] = NullPiece
		sp := sps[c]
		bd.starting[c] = []Point{Point(sp[1]*width + sp[0])}
	}
}

// CopyFrom makes bd a deep copy of other. The boards must share the same
// variant.
func (bd *Board) CopyFrom(other *Board) {
	if bd.bc == nil || bd.variant != other.variant {
		bd.bc = other.bc
		bd.variant = other.variant
		bd.nuColors = other.nuColors
		bd.nuPlayers = other.nuPlayers
		bd.init()
	}
	copy(bd.pointState, other.pointState)
	bd.toPlay = other.toPlay
	for c := 0; c < bd.nuColors; c++ {
		copy(bd.forbidden[c], other.forbidden[c])
		bd.attach[c] = append(bd.attach[c][:0], other.attach[c]...)
		copy(bd.attachFlag[c], other.attachFlag[c])
		bd.piecesLeft[c] = append(bd.piecesLeft[c][:0], other.piecesLeft[c]...)
		copy(bd.pieceAvail[c], other.pieceAvail[c])
	}
	copy(bd.points, other.points)
	copy(bd.lastPiece, other.lastPiece)
	copy(bd.onboardPieces, other.onboardPieces)
	bd.hist = append(bd.hist[:0], other.hist...)
}

// Copy returns a new deep copy of the board.
func (bd *Board) Copy() *Board {
	out := &Board{
		bc:        bd.bc,
		variant:   bd.variant,
		nuColors:  bd.nuColors,
		nuPlayers: bd.nuPlayers,
	}
	out.init()
	out.CopyFrom(bd)
	return out
}

// TakeSnapshot records the current state so RestoreSnapshot can reset to
// it without reallocation.
func (bd *Board) TakeSnapshot() {
	np := bd.bc.Geometry().NuPoints()
	if bd.snap == nil {
		s := &snapshot{
			pointState:    make([]PointState, np),
			forbidden:     make([][]bool, bd.nuColors),
			attach:        make([][]Point, bd.nuColors),
			attachFlag:    make([][]bool, bd.nuColors),
			piecesLeft:    make([][]Piece, bd.nuColors),
			pieceAvail:    make([][]bool, bd.nuColors),
			points:        make([]int, bd.nuColors),
			lastPiece:     make([]Piece, bd.nuColors),
			onboardPieces: make([]int, bd.nuColors),
		}
		for c := 0; c < bd.nuColors; c++ {
			s.forbidden[c] = make([]bool, np)
			s.attach[c] = make([]Point, 0, np)
			s.attachFlag[c] = make([]bool, np)
			s.piecesLeft[c] = make([]Piece, 0, bd.bc.NuPieces())
			s.pieceAvail[c] = make([]bool, bd.bc.NuPieces())
		}
		bd.snap = s
	}
	s := bd.snap
	copy(s.pointState, bd.pointState)
	s.toPlay = bd.toPlay
	for c := 0; c < bd.nuColors; c++ {
		copy(s.forbidden[c], bd.forbidden[c])
		s.attach[c] = append(s.attach[c][:0], bd.attach[c]...)
		copy(s.attachFlag[c], bd.attachFlag[c])
		s.piecesLeft[c] = append(s.piecesLeft[c][:0], bd.piecesLeft[c]...)
		copy(s.pieceAvail[c], bd.pieceAvail[c])
	}
	copy(s.points, bd.points)
	copy(s.lastPiece, bd.lastPiece)
	copy(s.onboardPieces, bd.onboardPieces)
	s.histLen = len(bd.hist)
}

// RestoreSnapshot resets the board to the last snapshot.
func (bd *Board) RestoreSnapshot() {
	s := bd.snap
	if s == nil {
		panic("board: restore without snapshot")
	}
	copy(bd.pointState, s.pointState)
	bd.toPlay = s.toPlay
	for c := 0; c < bd.nuColors; c++ {
		copy(bd.forbidden[c], s.forbidden[c])
		bd.attach[c] = append(bd.attach[c][:0], s.attach[c]...)
		copy(bd.attachFlag[c], s.attachFlag[c])
		bd.piecesLeft[c] = append(bd.piecesLeft[c][:0], s.piecesLeft[c]...)
		copy(bd.pieceAvail[c], s.pieceAvail[c])
	}
	copy(bd.points, s.points)
	copy(bd.lastPiece, s.lastPiece)
	copy(bd.onboardPieces, s.onboardPieces)
	bd.hist = bd.hist[:s.histLen]
}

func (bd *Board) GetVariant() Variant      { return bd.variant }
func (bd *Board) GetBoardType() BoardType  { return bd.variant.BoardType() }
func (bd *Board) GetNuColors() int         { return bd.nuColors }
func (bd *Board) GetNuPlayers() int        { return bd.nuPlayers }
func (bd *Board) GetGeometry() *Geometry   { return bd.bc.Geometry() }
func (bd *Board) GetBoardConst() *BoardConst { return bd.bc }

func (bd *Board) GetToPlay() Color     { return bd.toPlay }
func (bd *Board) SetToPlay(c Color)    { bd.toPlay = c }
func (bd *Board) GetNuMoves() int      { return len(bd.hist) }
func (bd *Board) GetMove(i int) ColorMove { return bd.hist[i] }

// GetNuOnboardPieces returns the total number of pieces on the board.
func (bd *Board) GetNuOnboardPieces() int {
	n := 0
	for c := 0; c < bd.nuColors; c++ {
		n += bd.onboardPieces[c]
	}
	return n
}

func (bd *Board) GetNuOnboardPiecesColor(c Color) int { return bd.onboardPieces[c] }

func (bd *Board) GetPointState(p Point) PointState { return bd.pointState[p] }

func (bd *Board) IsForbidden(p Point, c Color) bool { return bd.forbidden[c][p] }

// GetForbidden returns the forbidden mask of a color, indexed by point.
func (bd *Board) GetForbidden(c Color) []bool { return bd.forbidden[c] }

// GetAttachPoints returns the recorded attach points of a color. Entries
// may have become forbidden since they were recorded; callers filter.
func (bd *Board) GetAttachPoints(c Color) []Point { return bd.attach[c] }

func (bd *Board) GetStartingPoints(c Color) []Point { return bd.starting[c] }

func (bd *Board) GetPiecesLeft(c Color) []Piece { return bd.piecesLeft[c] }

func (bd *Board) IsPieceLeft(c Color, piece Piece) bool { return bd.pieceAvail[c][piece] }

func (bd *Board) IsFirstPiece(c Color) bool { return bd.onboardPieces[c] == 0 }

// GetSecondColor returns the partner color of c in team variants and c
// itself otherwise.
func (bd *Board) GetSecondColor(c Color) Color {
	if bd.variant.HasTeams() {
		return Color((int(c) + 2) % bd.nuColors)
	}
	return c
}

func (bd *Board) GetNext(c Color) Color { return Color((int(c) + 1) % bd.nuColors) }

// GetAdjStatus summarizes which status points of p are forbidden for c,
// as a bitmask aligned with BoardConst.GetMoves.
func (bd *Board) GetAdjStatus(p Point, c Color) uint8 {
	var status uint8
	forbidden := bd.forbidden[c]
	for i, sp := range bd.bc.statusPoints[p] {
		if forbidden[sp] {
			status |= 1 << uint(i)
		}
	}
	return status
}

func (bd *Board) GetMoveInfo(mv Move) *MoveInfo { return bd.bc.MoveInfo(mv) }

func (bd *Board) GetMoveInfoExt(mv Move) *MoveInfoExt { return bd.bc.MoveInfoExt(mv) }

// IsLegalNonpass checks full legality of a placement for the color to
// play: piece available, no forbidden point, and correct first-piece or
// diagonal contact.
func (bd *Board) IsLegalNonpass(mv Move) bool {
	if !mv.IsRegular() {
		return false
	}
	c := bd.toPlay
	info := bd.bc.MoveInfo(mv)
	if !bd.pieceAvail[c][info.Piece] {
		return false
	}
	for _, p := range info.Points {
		if bd.forbidden[c][p] {
			return false
		}
	}
	if bd.IsFirstPiece(c) {
		for _, p := range info.Points {
			for _, sp := range bd.starting[c] {
				if p == sp {
					return true
				}
			}
		}
		return false
	}
	for _, p := range info.Points {
		for _, q := range bd.bc.Geometry().Diagonal(p) {
			if bd.pointState[q].IsColor(c) {
				return true
			}
		}
	}
	return false
}

// PlayNonpass places the move for the color to play and advances the
// turn. The move must place an available piece on non-forbidden points;
// violating that is a programmer error.
func (bd *Board) PlayNonpass(mv Move) {
	c := bd.toPlay
	info := bd.bc.MoveInfo(mv)
	if !bd.pieceAvail[c][info.Piece] {
		panic(fmt.Sprintf("board: piece %s already played for color %d",
			bd.bc.PieceInfo(info.Piece).Name, c))
	}
	for _, p := range info.Points {
		if bd.forbidden[c][p] {
			panic(fmt.Sprintf("board: point %s forbidden for color %d",
				p.String(bd.bc.Geometry().GetWidth()), c))
		}
	}
	for _, p := range info.Points {
		bd.pointState[p] = PointState(c)
		for cc := 0; cc < bd.nuColors; cc++ {
			bd.forbidden[cc][p] = true
		}
	}
	ext := bd.bc.MoveInfoExt(mv)
	for _, p := range ext.AdjPoints {
		bd.forbidden[c][p] = true
	}
	for _, p := range ext.AttachPoints {
		if !bd.attachFlag[c][p] {
			bd.attachFlag[c][p] = true
			bd.attach[c] = append(bd.attach[c], p)
		}
	}
	bd.pieceAvail[c][info.Piece] = false
	for i, pc := range bd.piecesLeft[c] {
		if pc == info.Piece {
			bd.piecesLeft[c] = append(bd.piecesLeft[c][:i], bd.piecesLeft[c][i+1:]...)
			break
		}
	}
	bd.points[c] += bd.bc.PieceInfo(info.Piece).Size
	bd.lastPiece[c] = info.Piece
	bd.onboardPieces[c]++
	bd.hist = append(bd.hist, ColorMove{Color: c, Move: mv})
	bd.toPlay = bd.GetNext(c)
}

// PlayPass records a pass for the color to play and advances the turn.
func (bd *Board) PlayPass() {
	c := bd.toPlay
	bd.hist = append(bd.hist, ColorMove{Color: c, Move: PassMove})
	bd.toPlay = bd.GetNext(c)
}

// GetPointsWithBonus returns the points of a color including the
// all-pieces and monomino-last bonuses.
func (bd *Board) GetPointsWithBonus(c Color) int {
	points := bd.points[c]
	if len(bd.piecesLeft[c]) == 0 {
		points += 15
		if bd.lastPiece[c] == monomino {
			points += 5
		}
	}
	return points
}

// GetScore returns the signed score of player color c: the point
// difference to the opponent in two-player variants (team points
// combined), or the difference to the best other color otherwise.
func (bd *Board) GetScore(c Color) int {
	if bd.nuPlayers == 2 {
		second := bd.GetSecondColor(c)
		opp := bd.GetNext(c)
		oppSecond := bd.GetSecondColor(opp)
		own := bd.GetPointsWithBonus(c)
		if second != c {
			own += bd.GetPointsWithBonus(second)
		}
		other := bd.GetPointsWithBonus(opp)
		if oppSecond != opp {
			other += bd.GetPointsWithBonus(oppSecond)
		}
		return own - other
	}
	own := bd.GetPointsWithBonus(c)
	best := 0
	for cc := 0; cc < bd.nuColors; cc++ {
		if Color(cc) == c {
			continue
		}
		if p := bd.GetPointsWithBonus(Color(cc)); p > best {
			best = p
		}
	}
	return own - best
}

// String renders the grid for debugging.
func (bd *Board) String() string {
	var sb strings.Builder
	width := bd.bc.Geometry().GetWidth()
	height := bd.bc.Geometry().GetHeight()
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			s := bd.pointState[y*width+x]
			if s.IsEmpty() {
				sb.WriteByte('.')
			} else {
				sb.WriteByte('0' + byte(s))
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
