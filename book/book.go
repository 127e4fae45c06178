// Package book implements a small opening book keyed by move history.
package book

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/maxwellpirtle/pentobi/board"
)

// Book maps positions, identified by their move history, to a reply.
type Book struct {
	variant board.Variant
	bc      *board.BoardConst
	entries map[string]string
}

type bookFile struct {
	Variant string      `yaml:"variant"`
	Entries []bookEntry `yaml:"entries"`
}

type bookEntry struct {
	// Position is the ";"-joined move history from the empty board;
	// the empty string is the empty board.
	Position string `yaml:"position"`
	Move     string `yaml:"move"`
}

// Load reads a YAML book.
func Load(r io.Reader) (*Book, error) {
	var f bookFile
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decoding book: %w", err)
	}
	variant, err := board.ParseVariant(f.Variant)
	if err != nil {
		return nil, err
	}
	bc, err := board.GetBoardConst(variant)
	if err != nil {
		return nil, err
	}
	b := &Book{
		variant: variant,
		bc:      bc,
		entries: make(map[string]string, len(f.Entries)),
	}
	for _, e := range f.Entries {
		b.entries[e.Position] = e.Move
	}
	log.Debug().Int("entries", len(b.entries)).
		Str("variant", variant.String()).Msg("loaded opening book")
	return b, nil
}

// LoadFile reads a YAML book from disk.
func LoadFile(path string) (*Book, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening book: %w", err)
	}
	defer f.Close()
	return Load(f)
}

func (b *Book) Variant() board.Variant { return b.variant }

// Genmove returns the book reply for the position, if the book has one
// and it is legal for c.
func (b *Book) Genmove(bd *board.Board, c board.Color) (board.Move, bool) {
	if bd.GetVariant() != b.variant || bd.GetToPlay() != c {
		return board.NullMove, false
	}
	key := positionKey(bd)
	moveStr, ok := b.entries[key]
	if !ok {
		return board.NullMove, false
	}
	mv, err := b.bc.ParseMove(moveStr)
	if err != nil {
		log.Warn().Err(err).Str("position", key).Msg("bad book move")
		return board.NullMove, false
	}
	if !bd.IsLegalNonpass(mv) {
		return board.NullMove, false
	}
	return mv, true
}

func positionKey(bd *board.Board) string {
	bc := bd.GetBoardConst()
	var sb strings.Builder
	for i := 0; i < bd.GetNuMoves(); i++ {
		if i > 0 {
			sb.WriteByte(';')
		}
		sb.WriteString(bc.MoveString(bd.GetMove(i).Move))
	}
	return sb.String()
}
