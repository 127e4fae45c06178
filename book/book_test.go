package book

import (
	"strings"
	"testing"

	"github.com/matryer/is"

	"github.com/maxwellpirtle/pentobi/board"
)

const testBook = `variant: duo
entries:
  - position: ""
    move: e5
  - position: "e5"
    move: j10
`

func TestLoadAndGenmove(t *testing.T) {
	is := is.New(t)
	b, err := Load(strings.NewReader(testBook))
	is.NoErr(err)
	is.Equal(b.Variant(), board.VariantDuo)

	bd, err := board.New(board.VariantDuo)
	is.NoErr(err)
	mv, ok := b.Genmove(bd, 0)
	is.True(ok)
	is.Equal(bd.GetBoardConst().MoveString(mv), "e5")

	// Follow the line: after e5 the book answers j10.
	bd.PlayNonpass(mv)
	mv, ok = b.Genmove(bd, 1)
	is.True(ok)
	is.Equal(bd.GetBoardConst().MoveString(mv), "j10")

	// Off book.
	bd.PlayNonpass(mv)
	_, ok = b.Genmove(bd, 0)
	is.True(!ok)
}

func TestGenmoveWrongColor(t *testing.T) {
	is := is.New(t)
	b, err := Load(strings.NewReader(testBook))
	is.NoErr(err)
	bd, err := board.New(board.VariantDuo)
	is.NoErr(err)
	_, ok := b.Genmove(bd, 1)
	is.True(!ok)
}

func TestLoadErrors(t *testing.T) {
	is := is.New(t)
	_, err := Load(strings.NewReader("variant: [broken"))
	is.True(err != nil)

	_, err = Load(strings.NewReader("variant: nosuch\nentries: []\n"))
	is.True(err != nil)
}
