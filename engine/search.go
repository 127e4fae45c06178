package engine

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"lukechampine.com/frand"

	"github.com/maxwellpirtle/pentobi/board"
	"github.com/maxwellpirtle/pentobi/mcts"
	"github.com/maxwellpirtle/pentobi/stats"
)

// Search is the Blokus search: per-worker states around the generic
// tree search, plus the followup bookkeeping that lets consecutive
// searches share a tree.
type Search struct {
	variant board.Variant
	bc      *board.BoardConst
	sc      *SharedConst
	ms      *mcts.Search
	states  []*State

	hadSearch   bool
	lastHistory []board.ColorMove
	lastToPlay  board.Color
}

// NewSearch creates a search with one worker state per thread. The
// memory budget sizes the tree arena; too small a budget is an invalid
// parameter.
func NewSearch(variant board.Variant, memory int64, threads int, seed uint64) (*Search, error) {
	if threads <= 0 {
		threads = 1
	}
	bc, err := board.GetBoardConst(variant)
	if err != nil {
		return nil, err
	}
	sc := NewSharedConst(bc)
	states := make([]*State, threads)
	ifaces := make([]mcts.SearchState, threads)
	for i := range states {
		st, err := NewState(variant, sc, newRNG(seed, i))
		if err != nil {
			return nil, err
		}
		states[i] = st
		ifaces[i] = st
	}
	ms, err := mcts.NewSearch(ifaces, memory, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid search parameter: %w", err)
	}
	return &Search{
		variant: variant,
		bc:      bc,
		sc:      sc,
		ms:      ms,
		states:  states,
	}, nil
}

// newRNG derives a per-worker generator. A zero seed gives a randomly
// seeded generator; any other seed makes runs reproducible.
func newRNG(seed uint64, worker int) *frand.RNG {
	if seed == 0 {
		return frand.New()
	}
	key := make([]byte, 32)
	binary.LittleEndian.PutUint64(key, seed)
	binary.LittleEndian.PutUint64(key[8:], uint64(worker)+1)
	return frand.NewCustom(key, 1024, 12)
}

func (s *Search) Variant() board.Variant { return s.variant }

func (s *Search) SetScoreModification(v float64) { s.sc.ScoreModification = v }
func (s *Search) ScoreModification() float64     { return s.sc.ScoreModification }

func (s *Search) SetDetectSymmetry(enable bool) { s.sc.DetectSymmetry = enable }
func (s *Search) DetectSymmetry() bool          { return s.sc.DetectSymmetry }

func (s *Search) SetAvoidSymmetricDraw(enable bool) { s.sc.AvoidSymmetricDraw = enable }
func (s *Search) AvoidSymmetricDraw() bool          { return s.sc.AvoidSymmetricDraw }

// SetExploration tunes the UCT exploration constant.
func (s *Search) SetExploration(v float64) { s.ms.Exploration = v }

// NuSimulations is the number of simulations of the last search.
func (s *Search) NuSimulations() uint64 { return s.ms.NuSimulations() }

// Tree exposes the search tree for inspection.
func (s *Search) Tree() *mcts.Tree { return s.ms.Tree() }

// Search runs a search for toPlay on bd. ok is false when toPlay has no
// move, or an abort struck before minSimulations completed.
func (s *Search) Search(bd *board.Board, toPlay board.Color,
	maxCount, minSimulations uint64, maxTime float64, ts mcts.TimeSource) (board.Move, bool) {
	if bd.GetVariant() != s.variant {
		panic("engine: board variant does not match search")
	}
	s.sc.Board = bd
	s.sc.ToPlay = toPlay

	if seq, ok := s.checkFollowup(bd, toPlay); ok {
		s.ms.Reroot(seq)
	} else {
		s.ms.ClearTree()
	}

	mv, ok := s.ms.Run(maxCount, minSimulations, maxTime, ts)

	s.hadSearch = true
	s.lastHistory = s.lastHistory[:0]
	for i := 0; i < bd.GetNuMoves(); i++ {
		s.lastHistory = append(s.lastHistory, bd.GetMove(i))
	}
	s.lastToPlay = toPlay
	log.Debug().
		Uint64("simulations", s.ms.NuSimulations()).
		Str("move", s.bc.MoveString(mv)).
		Bool("ok", ok).
		Msg("search finished")
	return mv, ok
}

// checkFollowup reports whether the current position extends the last
// search's root position, and by which move sequence.
func (s *Search) checkFollowup(bd *board.Board, toPlay board.Color) ([]board.Move, bool) {
	if !s.hadSearch || bd.GetNuMoves() < len(s.lastHistory) {
		return nil, false
	}
	for i, cm := range s.lastHistory {
		if bd.GetMove(i) != cm {
			return nil, false
		}
	}
	expected := s.lastToPlay
	var seq []board.Move
	for i := len(s.lastHistory); i < bd.GetNuMoves(); i++ {
		cm := bd.GetMove(i)
		if cm.Color != expected {
			return nil, false
		}
		seq = append(seq, cm.Move)
		expected = bd.GetNext(expected)
	}
	if expected != toPlay {
		return nil, false
	}
	return seq, true
}

// ScoreStatistic merges the running score statistic of color 0 across
// all workers.
func (s *Search) ScoreStatistic() stats.Statistic {
	var merged stats.Statistic
	for _, st := range s.states {
		merged.Merge(&st.statScore[0])
	}
	return merged
}

// WriteInfo emits the search statistics: last-good-reply hit rate and
// the running score mean/deviation of color 0.
func (s *Search) WriteInfo(w io.Writer) {
	playoutMoves, lgrMoves := 0, 0
	for _, st := range s.states {
		playoutMoves += st.nuPlayoutMoves
		lgrMoves += st.nuLGRMoves
	}
	if playoutMoves > 0 {
		fmt.Fprintf(w, "LGR: %.1f%%, ", 100*float64(lgrMoves)/float64(playoutMoves))
	}
	if s.variant.NuPlayers() == 2 {
		fmt.Fprint(w, "Sco: ")
		merged := s.ScoreStatistic()
		merged.Write(w, true, 1)
	}
	fmt.Fprintln(w)
}
