package board

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
)

// anchoredMove is one entry of the per-point move lists. The mask has bit
// i set when the move also covers status point i of the anchor, so whole
// groups of moves can be skipped for occupied neighborhoods.
type anchoredMove struct {
	mv   Move
	mask uint8
}

// BoardConst holds the immutable per-variant tables: geometry, piece
// set, move infos and the per-point anchored move lists.
type BoardConst struct {
	variant  Variant
	geo      *Geometry
	pieces   []PieceInfo
	moveInfo []MoveInfo
	moveExt  []MoveInfoExt

	// movesAt[piece][point] lists all moves of the piece covering point.
	movesAt [][][]anchoredMove
	// statusPoints[point] are the first orthogonal and diagonal
	// neighbors of the point, the domain of adjacency-status masks.
	statusPoints [][]Point

	byPoints     map[string]Move
	byPointsOnce sync.Once
}

var (
	constCache   = map[Variant]*BoardConst{}
	constCacheMu sync.Mutex
)

// GetBoardConst returns the shared immutable tables for the variant,
// building them on first use.
func GetBoardConst(variant Variant) (*BoardConst, error) {
	constCacheMu.Lock()
	defer constCacheMu.Unlock()
	if bc, ok := constCache[variant]; ok {
		return bc, nil
	}
	bc, err := newBoardConst(variant)
	if err != nil {
		return nil, err
	}
	constCache[variant] = bc
	return bc, nil
}

func newBoardConst(variant Variant) (*BoardConst, error) {
	switch variant.BoardType() {
	case BoardTypeTrigon, BoardTypeTrigon3:
		return nil, fmt.Errorf("%s: trigon geometry not supported by this board implementation", variant)
	}
	width, height := variant.size()
	bc := &BoardConst{
		variant: variant,
		geo:     newGeometry(width, height),
	}
	bc.buildPieces()
	bc.buildStatusPoints()
	bc.buildMoves()
	log.Debug().
		Str("variant", variant.String()).
		Int("moves", len(bc.moveInfo)).
		Msg("built board const")
	return bc, nil
}

func (bc *BoardConst) buildPieces() {
	bc.pieces = make([]PieceInfo, len(pieceDefs))
	for i, def := range pieceDefs {
		bc.pieces[i] = PieceInfo{
			Name:     def.name,
			Size:     len(def.cells),
			NuAttach: nuAttachPoints(def.cells),
			cells:    def.cells,
		}
	}
}

func (bc *BoardConst) buildStatusPoints() {
	np := bc.geo.NuPoints()
	bc.statusPoints = make([][]Point, np)
	for p := Point(0); int(p) < np; p++ {
		pts := make([]Point, 0, 8)
		pts = append(pts, bc.geo.Adjacent(p)...)
		pts = append(pts, bc.geo.Diagonal(p)...)
		if len(pts) > 8 {
			pts = pts[:8]
		}
		bc.statusPoints[p] = pts
	}
}

func (bc *BoardConst) buildMoves() {
	np := bc.geo.NuPoints()
	width := bc.geo.GetWidth()
	height := bc.geo.GetHeight()
	bc.movesAt = make([][][]anchoredMove, len(bc.pieces))
	for i := range bc.movesAt {
		bc.movesAt[i] = make([][]anchoredMove, np)
	}
	for pi := range bc.pieces {
		piece := Piece(pi)
		for _, orient := range orientations(bc.pieces[pi].cells) {
			maxX, maxY := 0, 0
			for _, c := range orient {
				if int(c.x) > maxX {
					maxX = int(c.x)
				}
				if int(c.y) > maxY {
					maxY = int(c.y)
				}
			}
			for oy := 0; oy+maxY < height; oy++ {
				for ox := 0; ox+maxX < width; ox++ {
					points := make([]Point, len(orient))
					for k, c := range orient {
						points[k] = Point((oy+int(c.y))*width + ox + int(c.x))
					}
					bc.addMove(piece, points)
				}
			}
		}
	}
}

func (bc *BoardConst) addMove(piece Piece, points []Point) {
	mv := Move(len(bc.moveInfo))
	bc.moveInfo = append(bc.moveInfo, MoveInfo{Piece: piece, Points: points})
	bc.moveExt = append(bc.moveExt, bc.buildExt(points))
	for _, p := range points {
		bc.movesAt[piece][p] = append(bc.movesAt[piece][p], anchoredMove{
			mv:   mv,
			mask: bc.coverMask(p, points),
		})
	}
}

// coverMask computes which status points of anchor are covered by the
// placement.
func (bc *BoardConst) coverMask(anchor Point, points []Point) uint8 {
	var mask uint8
	for i, sp := range bc.statusPoints[anchor] {
		for _, p := range points {
			if p == sp {
				mask |= 1 << uint(i)
				break
			}
		}
	}
	return mask
}

func (bc *BoardConst) buildExt(points []Point) MoveInfoExt {
	occ := map[Point]bool{}
	adj := map[Point]bool{}
	for _, p := range points {
		occ[p] = true
	}
	var adjPoints []Point
	for _, p := range points {
		for _, q := range bc.geo.Adjacent(p) {
			if !occ[q] && !adj[q] {
				adj[q] = true
				adjPoints = append(adjPoints, q)
			}
		}
	}
	seen := map[Point]bool{}
	var attach []Point
	for _, p := range points {
		for _, q := range bc.geo.Diagonal(p) {
			if !occ[q] && !adj[q] && !seen[q] {
				seen[q] = true
				attach = append(attach, q)
			}
		}
	}
	return MoveInfoExt{AttachPoints: attach, AdjPoints: adjPoints}
}

func (bc *BoardConst) Variant() Variant        { return bc.variant }
func (bc *BoardConst) Geometry() *Geometry     { return bc.geo }
func (bc *BoardConst) NuPieces() int           { return len(bc.pieces) }
func (bc *BoardConst) NuMoves() int            { return len(bc.moveInfo) }
func (bc *BoardConst) PieceInfo(p Piece) *PieceInfo {
	return &bc.pieces[p]
}

func (bc *BoardConst) MoveInfo(mv Move) *MoveInfo { return &bc.moveInfo[mv] }

func (bc *BoardConst) MoveInfoExt(mv Move) *MoveInfoExt { return &bc.moveExt[mv] }

// GetMoves returns the moves of piece covering p whose placements avoid
// the status points flagged in adjStatus.
func (bc *BoardConst) GetMoves(piece Piece, p Point, adjStatus uint8, out []Move) []Move {
	for _, am := range bc.movesAt[piece][p] {
		if am.mask&adjStatus == 0 {
			out = append(out, am.mv)
		}
	}
	return out
}

// FindMove looks up the move occupying exactly the given points.
func (bc *BoardConst) FindMove(points []Point) (Move, bool) {
	bc.byPointsOnce.Do(func() {
		bc.byPoints = make(map[string]Move, len(bc.moveInfo))
		for i := range bc.moveInfo {
			bc.byPoints[pointsKey(bc.moveInfo[i].Points)] = Move(i)
		}
	})
	mv, ok := bc.byPoints[pointsKey(points)]
	return mv, ok
}

func pointsKey(points []Point) string {
	sorted := append([]Point(nil), points...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	b := make([]byte, 0, len(sorted)*2)
	for _, p := range sorted {
		b = append(b, byte(p), byte(p>>8))
	}
	return string(b)
}

// MoveString formats a move as its comma-joined point list.
func (bc *BoardConst) MoveString(mv Move) string {
	switch {
	case mv.IsNull():
		return "null"
	case mv.IsPass():
		return "pass"
	}
	width := bc.geo.GetWidth()
	info := bc.MoveInfo(mv)
	s := ""
	for i, p := range info.Points {
		if i > 0 {
			s += ","
		}
		s += p.String(width)
	}
	return s
}

// ParseMove parses the comma-joined point list format of MoveString.
func (bc *BoardConst) ParseMove(s string) (Move, error) {
	if s == "pass" {
		return PassMove, nil
	}
	var points []Point
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			p, err := ParsePoint(s[start:i], bc.geo.GetWidth(), bc.geo.GetHeight())
			if err != nil {
				return NullMove, err
			}
			points = append(points, p)
			start = i + 1
		}
	}
	mv, ok := bc.FindMove(points)
	if !ok {
		return NullMove, fmt.Errorf("no move occupies %q", s)
	}
	return mv, nil
}
