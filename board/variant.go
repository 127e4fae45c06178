package board

import "fmt"

// Color identifies one of the on-board colors, 0..NuColors-1.
type Color uint8

// PointState is the contents of a grid point: empty or a color.
type PointState int8

const Empty PointState = -1

func (s PointState) IsEmpty() bool { return s == Empty }

func (s PointState) IsColor(c Color) bool { return s == PointState(c) }

// Variant is the Blokus rule set being played.
type Variant uint8

const (
	VariantClassic Variant = iota
	// VariantClassic2 is the two-player game on the classic board; each
	// player owns two colors.
	VariantClassic2
	VariantDuo
	VariantJunior
	VariantTrigon
	VariantTrigon2
	VariantTrigon3
)

func (v Variant) String() string {
	switch v {
	case VariantClassic:
		return "classic"
	case VariantClassic2:
		return "classic_2"
	case VariantDuo:
		return "duo"
	case VariantJunior:
		return "junior"
	case VariantTrigon:
		return "trigon"
	case VariantTrigon2:
		return "trigon_2"
	case VariantTrigon3:
		return "trigon_3"
	}
	return "unknown"
}

// ParseVariant maps the names produced by Variant.String back to a
// variant.
func ParseVariant(s string) (Variant, error) {
	for v := VariantClassic; v <= VariantTrigon3; v++ {
		if v.String() == s {
			return v, nil
		}
	}
	return 0, fmt.Errorf("unknown game variant %q", s)
}

// BoardType is the board geometry family. It selects the playout gamma
// factors and the distance metric for starting-point selection.
type BoardType uint8

const (
	BoardTypeClassic BoardType = iota
	BoardTypeDuo
	BoardTypeTrigon
	BoardTypeTrigon3
)

func (v Variant) BoardType() BoardType {
	switch v {
	case VariantDuo, VariantJunior:
		return BoardTypeDuo
	case VariantTrigon, VariantTrigon2:
		return BoardTypeTrigon
	case VariantTrigon3:
		return BoardTypeTrigon3
	default:
		return BoardTypeClassic
	}
}

func (v Variant) NuColors() int {
	switch v {
	case VariantDuo, VariantJunior:
		return 2
	case VariantTrigon3:
		return 3
	default:
		return 4
	}
}

func (v Variant) NuPlayers() int {
	switch v {
	case VariantClassic, VariantTrigon:
		return 4
	case VariantTrigon3:
		return 3
	default:
		return 2
	}
}

// HasTeams reports whether more colors than players are on the board, in
// which case colors c and c+2 belong to the same player.
func (v Variant) HasTeams() bool { return v.NuColors() > v.NuPlayers() }

// HasSymmetryDraw reports whether the mirror-type symmetry heuristic
// applies to this variant.
func (v Variant) HasSymmetryDraw() bool {
	return v == VariantDuo || v == VariantJunior || v == VariantTrigon2
}

func (v Variant) size() (width, height int) {
	switch v.BoardType() {
	case BoardTypeDuo:
		return 14, 14
	default:
		return 20, 20
	}
}

// startingPoints returns the starting point of each color, indexed by
// color, in grid coordinates.
func (v Variant) startingPoints() [][2]int {
	switch v {
	case VariantDuo, VariantJunior:
		return [][2]int{{4, 4}, {9, 9}}
	default:
		// Classic board corners, clockwise from the top-left.
		return [][2]int{{0, 0}, {19, 0}, {19, 19}, {0, 19}}
	}
}
