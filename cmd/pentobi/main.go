// Command pentobi plays a self-play game with the Monte-Carlo engine
// and prints the moves and search statistics.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/maxwellpirtle/pentobi/board"
	"github.com/maxwellpirtle/pentobi/config"
	"github.com/maxwellpirtle/pentobi/player"
	"github.com/maxwellpirtle/pentobi/stats"
)

func main() {
	cfg := config.Default()
	variantName := flag.String("variant", cfg.Variant, "game variant")
	level := flag.Int("level", cfg.Level, "playing level 1..9")
	threads := flag.Int("threads", cfg.Threads, "search worker threads")
	seed := flag.Uint64("seed", cfg.Seed, "random seed, 0 for random")
	memory := flag.Int64("memory", cfg.Memory, "tree memory in bytes")
	bookPath := flag.String("book", cfg.BookPath, "opening book file")
	fixedSims := flag.Uint64("simulations", cfg.FixedSimulations,
		"fixed simulations per move, 0 for level-based")
	quiet := flag.Bool("quiet", false, "suppress all output: moves, statistics and final scores")
	debug := flag.Bool("debug", cfg.Debug, "debug logging")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	variant, err := board.ParseVariant(*variantName)
	if err != nil {
		log.Fatal().Err(err).Msg("bad variant")
	}
	bd, err := board.New(variant)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot create board")
	}
	p, err := player.New(variant, *memory, *threads, *seed)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot create player")
	}
	p.SetLevel(*level)
	if *fixedSims > 0 {
		p.SetFixedSimulations(*fixedSims)
	}
	if *bookPath != "" {
		if err := p.LoadBook(*bookPath); err != nil {
			log.Warn().Err(err).Msg("continuing without book")
		}
	}

	var info io.Writer = os.Stdout
	if *quiet {
		info = io.Discard
	}

	selfPlay(bd, p, info)
}

func selfPlay(bd *board.Board, p *player.Player, info io.Writer) {
	bc := bd.GetBoardConst()
	passes := 0
	for passes < bd.GetNuColors() {
		c := bd.GetToPlay()
		mv := p.Genmove(bd, c)
		if mv.IsNull() {
			bd.PlayPass()
			passes++
			fmt.Fprintf(info, "%d pass\n", c)
			continue
		}
		passes = 0
		fmt.Fprintf(info, "%d %s\n", c, bc.MoveString(mv))
		p.Search().WriteInfo(info)
		writeConfidence(info, p)
		bd.PlayNonpass(mv)
	}
	for c := 0; c < bd.GetNuColors(); c++ {
		fmt.Fprintf(info, "color %d: %d points, score %d\n",
			c, bd.GetPointsWithBonus(board.Color(c)), bd.GetScore(board.Color(c)))
	}
}

// writeConfidence prints a 95% confidence interval of the simulated
// score of color 0.
func writeConfidence(info io.Writer, p *player.Player) {
	stat := p.Search().ScoreStatistic()
	if stat.Count() < 2 {
		return
	}
	z := stats.ZVal(95)
	fmt.Fprintf(info, "score %.1f ± %.1f\n", stat.Mean(), z*stat.StandardError())
}
