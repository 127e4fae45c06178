package board

// Piece identifies a piece shape within the variant's piece set.
type Piece int16

const NullPiece Piece = -1

// MaxPieceSize is the largest number of squares in any piece.
const MaxPieceSize = 5

type cell struct{ x, y int8 }

// PieceInfo describes one piece shape.
type PieceInfo struct {
	Name string
	// Size is the number of squares the piece occupies.
	Size int
	// NuAttach is the number of attach points of the piece placed on an
	// otherwise empty board.
	NuAttach int

	cells []cell
}

// pieceDefs are the 21 shapes of the classic game, one-sided sets. The
// engine uses the same list for junior.
var pieceDefs = []struct {
	name  string
	cells []cell
}{
	{"1", []cell{{0, 0}}},
	{"2", []cell{{0, 0}, {1, 0}}},
	{"I3", []cell{{0, 0}, {1, 0}, {2, 0}}},
	{"V3", []cell{{0, 0}, {1, 0}, {0, 1}}},
	{"I4", []cell{{0, 0}, {1, 0}, {2, 0}, {3, 0}}},
	{"L4", []cell{{0, 0}, {0, 1}, {0, 2}, {1, 2}}},
	{"O", []cell{{0, 0}, {1, 0}, {0, 1}, {1, 1}}},
	{"S", []cell{{1, 0}, {2, 0}, {0, 1}, {1, 1}}},
	{"T4", []cell{{0, 0}, {1, 0}, {2, 0}, {1, 1}}},
	{"F", []cell{{1, 0}, {2, 0}, {0, 1}, {1, 1}, {1, 2}}},
	{"I5", []cell{{0, 0}, {1, 0}, {2, 0}, {3, 0}, {4, 0}}},
	{"L5", []cell{{0, 0}, {0, 1}, {0, 2}, {0, 3}, {1, 3}}},
	{"N", []cell{{0, 0}, {0, 1}, {1, 1}, {1, 2}, {1, 3}}},
	{"P", []cell{{0, 0}, {1, 0}, {0, 1}, {1, 1}, {0, 2}}},
	{"T5", []cell{{0, 0}, {1, 0}, {2, 0}, {1, 1}, {1, 2}}},
	{"U", []cell{{0, 0}, {2, 0}, {0, 1}, {1, 1}, {2, 1}}},
	{"V5", []cell{{0, 0}, {0, 1}, {0, 2}, {1, 2}, {2, 2}}},
	{"W", []cell{{0, 0}, {0, 1}, {1, 1}, {1, 2}, {2, 2}}},
	{"X", []cell{{1, 0}, {0, 1}, {1, 1}, {2, 1}, {1, 2}}},
	{"Y", []cell{{1, 0}, {0, 1}, {1, 1}, {1, 2}, {1, 3}}},
	{"Z", []cell{{0, 0}, {1, 0}, {1, 1}, {1, 2}, {2, 2}}},
}

// monomino is the piece index of the single-square piece; placing it last
// earns the extra bonus.
const monomino Piece = 0

func normalize(cells []cell) []cell {
	minX, minY := cells[0].x, cells[0].y
	for _, c := range cells[1:] {
		if c.x < minX {
			minX = c.x
		}
		if c.y < minY {
			minY = c.y
		}
	}
	out := make([]cell, len(cells))
	for i, c := range cells {
		out[i] = cell{c.x - minX, c.y - minY}
	}
	sortCells(out)
	return out
}

func sortCells(cells []cell) {
	for i := 1; i < len(cells); i++ {
		for j := i; j > 0; j-- {
			a, b := cells[j-1], cells[j]
			if b.y < a.y || (b.y == a.y && b.x < a.x) {
				cells[j-1], cells[j] = b, a
			} else {
				break
			}
		}
	}
}

func cellsKey(cells []cell) string {
	b := make([]byte, 0, len(cells)*2)
	for _, c := range cells {
		b = append(b, byte(c.x), byte(c.y))
	}
	return string(b)
}

// orientations returns the distinct rotations and reflections of a shape,
// each normalized to the origin. The identity orientation comes first.
func orientations(cells []cell) [][]cell {
	var out [][]cell
	seen := map[string]bool{}
	cur := normalize(cells)
	for mirror := 0; mirror < 2; mirror++ {
		for rot := 0; rot < 4; rot++ {
			key := cellsKey(cur)
			if !seen[key] {
				seen[key] = true
				out = append(out, cur)
			}
			cur = normalize(rotate90(cur))
		}
		cur = normalize(mirrorX(cur))
	}
	return out
}

func rotate90(cells []cell) []cell {
	out := make([]cell, len(cells))
	for i, c := range cells {
		out[i] = cell{-c.y, c.x}
	}
	return out
}

func mirrorX(cells []cell) []cell {
	out := make([]cell, len(cells))
	for i, c := range cells {
		out[i] = cell{-c.x, c.y}
	}
	return out
}

// nuAttachPoints counts the diagonal-corner points of a shape that are
// not orthogonally adjacent to it.
func nuAttachPoints(cells []cell) int {
	occ := map[cell]bool{}
	adj := map[cell]bool{}
	for _, c := range cells {
		occ[c] = true
	}
	for _, c := range cells {
		for _, d := range [][2]int8{{0, -1}, {-1, 0}, {1, 0}, {0, 1}} {
			adj[cell{c.x + d[0], c.y + d[1]}] = true
		}
	}
	attach := map[cell]bool{}
	for _, c := range cells {
		for _, d := range [][2]int8{{-1, -1}, {1, -1}, {-1, 1}, {1, 1}} {
			q := cell{c.x + d[0], c.y + d[1]}
			if !occ[q] && !adj[q] {
				attach[q] = true
			}
		}
	}
	return len(attach)
}
