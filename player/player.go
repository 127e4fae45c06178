// Package player wraps the search into a level-based move generator
// with optional opening book.
package player

import (
	"math"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/maxwellpirtle/pentobi/board"
	"github.com/maxwellpirtle/pentobi/book"
	"github.com/maxwellpirtle/pentobi/engine"
	"github.com/maxwellpirtle/pentobi/mcts"
)

const (
	MinLevel = 1
	MaxLevel = 9
)

// Player generates moves for one game variant, mapping a playing level
// to search budgets.
type Player struct {
	variant board.Variant
	search  *engine.Search

	level            int
	fixedSimulations uint64
	fixedTime        float64

	useBook    bool
	book       *book.Book
	bookLoaded bool

	timeSource mcts.TimeSource
}

// New creates a player for the variant. Memory sizes the search tree in
// bytes, threads the number of workers, seed the reproducible random
// seed (zero for random).
func New(variant board.Variant, memory int64, threads int, seed uint64) (*Player, error) {
	search, err := engine.NewSearch(variant, memory, threads, seed)
	if err != nil {
		return nil, err
	}
	return &Player{
		variant:    variant,
		search:     search,
		level:      4,
		useBook:    true,
		timeSource: mcts.WallTimeSource{},
	}, nil
}

func (p *Player) Search() *engine.Search { return p.search }

func (p *Player) Level() int { return p.level }

func (p *Player) SetLevel(level int) {
	p.level = lo.Clamp(level, MinLevel, MaxLevel)
	p.fixedSimulations = 0
	p.fixedTime = 0
}

func (p *Player) FixedSimulations() uint64 { return p.fixedSimulations }

// SetFixedSimulations enforces a fixed number of simulations per search
// independent of the playing level.
func (p *Player) SetFixedSimulations(n uint64) {
	p.fixedSimulations = n
	p.fixedTime = 0
}

func (p *Player) FixedTime() float64 { return p.fixedTime }

// SetFixedTime enforces a maximum time per search independent of the
// playing level.
func (p *Player) SetFixedTime(seconds float64) {
	p.fixedTime = seconds
	p.fixedSimulations = 0
}

func (p *Player) UseBook() bool { return p.useBook }

func (p *Player) SetUseBook(enable bool) { p.useBook = enable }

func (p *Player) SetTimeSource(ts mcts.TimeSource) { p.timeSource = ts }

// LoadBook loads an opening book. A failure leaves the player without a
// book; it is reported to the caller and the player simply searches.
func (p *Player) LoadBook(path string) error {
	b, err := book.LoadFile(path)
	if err != nil {
		p.book = nil
		p.bookLoaded = false
		log.Warn().Err(err).Str("path", path).Msg("book disabled")
		return err
	}
	p.book = b
	p.bookLoaded = true
	return nil
}

// budgets maps the playing level to (maxCount, minSimulations) for the
// variant. Duo boards are smaller and get more simulations per level
// than the classic and trigon boards.
func (p *Player) budgets() (maxCount, minSimulations uint64) {
	base := map[board.BoardType]float64{
		board.BoardTypeDuo:     100,
		board.BoardTypeClassic: 60,
		board.BoardTypeTrigon:  40,
		board.BoardTypeTrigon3: 40,
	}[p.variant.BoardType()]
	maxCount = uint64(base * math.Pow(3, float64(p.level-1)))
	minSimulations = maxCount / 20
	if minSimulations < 8 {
		minSimulations = 8
	}
	return maxCount, minSimulations
}

// Genmove returns a move for color c on bd: the book reply when the
// book knows the position, otherwise the best move of a search with the
// level-derived budgets. NullMove means c has no move (or an abort
// struck too early).
func (p *Player) Genmove(bd *board.Board, c board.Color) board.Move {
	if p.useBook && p.bookLoaded {
		if mv, ok := p.book.Genmove(bd, c); ok {
			log.Debug().Str("move", bd.GetBoardConst().MoveString(mv)).Msg("book move")
			return mv
		}
	}
	maxCount, minSimulations := p.budgets()
	maxTime := 0.0
	if p.fixedSimulations > 0 {
		maxCount = p.fixedSimulations
		minSimulations = p.fixedSimulations
	} else if p.fixedTime > 0 {
		maxCount = math.MaxUint64 / 2
		minSimulations = 1
		maxTime = p.fixedTime
	}
	mv, ok := p.search.Search(bd, c, maxCount, minSimulations, maxTime, p.timeSource)
	if !ok {
		return board.NullMove
	}
	return mv
}
