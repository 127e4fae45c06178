package mcts

import (
	"sync/atomic"

	"github.com/maxwellpirtle/pentobi/board"
)

// lgr2Bits sizes the hashed level-2 reply table per color.
const lgr2Bits = 18

// LGRTable stores last good replies on two levels: by the previous move,
// and by the two previous moves (hashed; collisions are tolerated since
// replies are legality-checked before being played). Updates race
// benignly across workers.
type LGRTable struct {
	nuColors  int
	moveRange int
	// lgr1[c*stride + prev] and lgr2[c<<lgr2Bits | hash] hold the reply
	// move + 1, 0 meaning none.
	lgr1 []atomic.Uint32
	lgr2 []atomic.Uint32
}

// NewLGRTable creates a table for the given number of colors and regular
// move identifiers.
func NewLGRTable(nuColors, moveRange int) *LGRTable {
	t := &LGRTable{
		nuColors:  nuColors,
		moveRange: moveRange,
	}
	t.lgr1 = make([]atomic.Uint32, nuColors*t.stride())
	t.lgr2 = make([]atomic.Uint32, nuColors<<lgr2Bits)
	return t
}

// stride is the number of level-1 slots per color: every regular move
// plus the pass and null sentinels.
func (t *LGRTable) stride() int { return t.moveRange + 2 }

func (t *LGRTable) moveIndex(mv board.Move) int {
	switch {
	case mv.IsPass():
		return t.moveRange
	case mv.IsNull():
		return t.moveRange + 1
	default:
		return int(mv)
	}
}

func (t *LGRTable) hash2(prev2, prev board.Move) int {
	h := uint64(t.moveIndex(prev2))*0x9e3779b97f4a7c15 ^ uint64(t.moveIndex(prev))*0xc2b2ae3d27d4eb4f
	h ^= h >> 29
	return int(h & (1<<lgr2Bits - 1))
}

// Clear forgets all stored replies.
func (t *LGRTable) Clear() {
	for i := range t.lgr1 {
		t.lgr1[i].Store(0)
	}
	for i := range t.lgr2 {
		t.lgr2[i].Store(0)
	}
}

// Lookup returns the level-1 and level-2 replies for the color to move
// given the last and second-to-last moves of the game. Missing entries
// are NullMove.
func (t *LGRTable) Lookup(color int, prev, prev2 board.Move) (lgr1, lgr2 board.Move) {
	lgr1, lgr2 = board.NullMove, board.NullMove
	if prev.IsNull() {
		return
	}
	if v := t.lgr1[color*t.stride()+t.moveIndex(prev)].Load(); v != 0 {
		lgr1 = board.Move(v - 1)
	}
	if !prev2.IsNull() {
		if v := t.lgr2[color<<lgr2Bits|t.hash2(prev2, prev)].Load(); v != 0 {
			lgr2 = board.Move(v - 1)
		}
	}
	return
}

// Store remembers reply as the winning answer of color to (prev2, prev).
func (t *LGRTable) Store(color int, prev, prev2, reply board.Move) {
	if !reply.IsRegular() || prev.IsNull() {
		return
	}
	t.lgr1[color*t.stride()+t.moveIndex(prev)].Store(uint32(reply) + 1)
	if !prev2.IsNull() {
		t.lgr2[color<<lgr2Bits|t.hash2(prev2, prev)].Store(uint32(reply) + 1)
	}
}

// Forget drops the stored replies if they still name the losing reply.
func (t *LGRTable) Forget(color int, prev, prev2, reply board.Move) {
	if !reply.IsRegular() || prev.IsNull() {
		return
	}
	slot1 := &t.lgr1[color*t.stride()+t.moveIndex(prev)]
	slot1.CompareAndSwap(uint32(reply)+1, 0)
	if !prev2.IsNull() {
		slot2 := &t.lgr2[color<<lgr2Bits|t.hash2(prev2, prev)]
		slot2.CompareAndSwap(uint32(reply)+1, 0)
	}
}
