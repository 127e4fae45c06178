package engine

import "github.com/maxwellpirtle/pentobi/board"

const (
	localAttach    = 1 << 0
	localAdjAttach = 1 << 1
)

// localValue marks the neighborhood of the most recent moves by the
// other colors: their attach points and the points adjacent to those.
// Candidate moves covering marked points are "locally responsive" and
// get their gamma boosted.
type localValue struct {
	marks []uint8
	dirty []board.Point
}

func newLocalValue(nuPoints int) localValue {
	return localValue{
		marks: make([]uint8, nuPoints),
		dirty: make([]board.Point, 0, nuPoints),
	}
}

func (lv *localValue) init(bd *board.Board) {
	for _, p := range lv.dirty {
		lv.marks[p] = 0
	}
	lv.dirty = lv.dirty[:0]
	geo := bd.GetGeometry()
	// The last moves of the other colors are the last nuColors-1
	// history entries.
	n := bd.GetNuMoves()
	recent := bd.GetNuColors() - 1
	for i := n - 1; i >= 0 && i >= n-recent; i-- {
		cm := bd.GetMove(i)
		if !cm.Move.IsRegular() {
			continue
		}
		ext := bd.GetMoveInfoExt(cm.Move)
		for _, ap := range ext.AttachPoints {
			if lv.marks[ap]&localAttach == 0 {
				if lv.marks[ap] == 0 {
					lv.dirty = append(lv.dirty, ap)
				}
				lv.marks[ap] |= localAttach
			}
			for _, q := range geo.Adjacent(ap) {
				if lv.marks[q]&localAdjAttach == 0 {
					if lv.marks[q] == 0 {
						lv.dirty = append(lv.dirty, q)
					}
					lv.marks[q] |= localAdjAttach
				}
			}
		}
	}
}
