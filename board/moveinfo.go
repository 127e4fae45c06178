package board

// Move is a compact identifier for a (piece, orientation, placement)
// triple. Values below the sentinels index into the BoardConst move
// tables.
type Move uint32

const (
	NullMove Move = 0xffffffff
	PassMove Move = 0xfffffffe
)

// IsRegular reports whether the move places a piece (neither null nor
// pass).
func (m Move) IsRegular() bool { return m < PassMove }

func (m Move) IsNull() bool { return m == NullMove }

func (m Move) IsPass() bool { return m == PassMove }

// MoveInfo lists the points a move occupies, plus the piece it places.
type MoveInfo struct {
	Piece  Piece
	Points []Point
}

// MoveInfoExt carries the derived geometry of a placement: its outer
// attach points (diagonal corners not orthogonally adjacent to the
// placement) and the orthogonally adjacent points.
type MoveInfoExt struct {
	AttachPoints []Point
	AdjPoints    []Point
}

// ColorMove is one entry of the board's move history.
type ColorMove struct {
	Color Color
	Move  Move
}
