package board

import "fmt"

// Point is an index into the board grid, row-major. NullPoint marks
// off-board or "no point".
type Point int32

const NullPoint Point = -1

func (p Point) IsNull() bool { return p < 0 }

// X returns the column of the point on a board of the given width.
func (p Point) X(width int) int { return int(p) % width }

// Y returns the row of the point on a board of the given width.
func (p Point) Y(width int) int { return int(p) / width }

// String formats a point in the usual "a1" style, with "a1" the top-left
// corner of the grid.
func (p Point) String(width int) string {
	if p.IsNull() {
		return "null"
	}
	return fmt.Sprintf("%c%d", 'a'+p.X(width), p.Y(width)+1)
}

// ParsePoint parses the "a1" style produced by Point.String.
func ParsePoint(s string, width, height int) (Point, error) {
	if len(s) < 2 {
		return NullPoint, fmt.Errorf("point %q too short", s)
	}
	x := int(s[0] - 'a')
	var y int
	if _, err := fmt.Sscanf(s[1:], "%d", &y); err != nil {
		return NullPoint, fmt.Errorf("point %q: %w", s, err)
	}
	y--
	if x < 0 || x >= width || y < 0 || y >= height {
		return NullPoint, fmt.Errorf("point %q off board", s)
	}
	return Point(y*width + x), nil
}

// Geometry holds the grid dimensions and precomputed neighbor lists for
// every on-board point.
type Geometry struct {
	width  int
	height int
	// adj are the orthogonal neighbors, diag the diagonal ones. Only
	// on-board points appear in the lists.
	adj  [][]Point
	diag [][]Point
}

func newGeometry(width, height int) *Geometry {
	g := &Geometry{
		width:  width,
		height: height,
		adj:    make([][]Point, width*height),
		diag:   make([][]Point, width*height),
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			p := Point(y*width + x)
			for _, d := range [][2]int{{0, -1}, {-1, 0}, {1, 0}, {0, 1}} {
				if q, ok := g.offset(x+d[0], y+d[1]); ok {
					g.adj[p] = append(g.adj[p], q)
				}
			}
			for _, d := range [][2]int{{-1, -1}, {1, -1}, {-1, 1}, {1, 1}} {
				if q, ok := g.offset(x+d[0], y+d[1]); ok {
					g.diag[p] = append(g.diag[p], q)
				}
			}
		}
	}
	return g
}

func (g *Geometry) offset(x, y int) (Point, bool) {
	if x < 0 || x >= g.width || y < 0 || y >= g.height {
		return NullPoint, false
	}
	return Point(y*g.width + x), true
}

func (g *Geometry) GetWidth() int  { return g.width }
func (g *Geometry) GetHeight() int { return g.height }
func (g *Geometry) NuPoints() int  { return g.width * g.height }

// Adjacent returns the on-board orthogonal neighbors of p.
func (g *Geometry) Adjacent(p Point) []Point { return g.adj[p] }

// Diagonal returns the on-board diagonal neighbors of p.
func (g *Geometry) Diagonal(p Point) []Point { return g.diag[p] }
