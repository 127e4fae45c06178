package player

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxwellpirtle/pentobi/board"
)

func newDuoPlayer(t *testing.T) *Player {
	t.Helper()
	p, err := New(board.VariantDuo, 8<<20, 1, 7)
	require.NoError(t, err)
	return p
}

func TestLevelBudgets(t *testing.T) {
	p := newDuoPlayer(t)
	var prev uint64
	for level := MinLevel; level <= MaxLevel; level++ {
		p.SetLevel(level)
		maxCount, minSimulations := p.budgets()
		assert.Greater(t, maxCount, prev, "level %d", level)
		assert.LessOrEqual(t, minSimulations, maxCount)
		prev = maxCount
	}
	p.SetLevel(99)
	assert.Equal(t, MaxLevel, p.Level())
	p.SetLevel(-3)
	assert.Equal(t, MinLevel, p.Level())
}

func TestFixedSimulationsOverride(t *testing.T) {
	p := newDuoPlayer(t)
	p.SetFixedSimulations(24)
	bd, err := board.New(board.VariantDuo)
	require.NoError(t, err)

	mv := p.Genmove(bd, 0)
	require.True(t, mv.IsRegular())
	assert.True(t, bd.IsLegalNonpass(mv))
	assert.Equal(t, uint64(24), p.Search().NuSimulations())

	// Setting a level clears the override.
	p.SetLevel(2)
	assert.Zero(t, p.FixedSimulations())
}

func TestFixedTimeClearsSimulations(t *testing.T) {
	p := newDuoPlayer(t)
	p.SetFixedSimulations(10)
	p.SetFixedTime(1.5)
	assert.Zero(t, p.FixedSimulations())
	assert.Equal(t, 1.5, p.FixedTime())
}

func TestBookHit(t *testing.T) {
	bookYAML := `variant: duo
entries:
  - position: ""
    move: e5
`
	path := filepath.Join(t.TempDir(), "book.yaml")
	require.NoError(t, os.WriteFile(path, []byte(bookYAML), 0o644))

	p := newDuoPlayer(t)
	p.SetFixedSimulations(5)
	require.NoError(t, p.LoadBook(path))

	bd, err := board.New(board.VariantDuo)
	require.NoError(t, err)
	mv := p.Genmove(bd, 0)
	assert.Equal(t, "e5", bd.GetBoardConst().MoveString(mv))
	// The book answered; no search ran.
	assert.Zero(t, p.Search().NuSimulations())

	// With the book disabled the search takes over.
	p.SetUseBook(false)
	mv = p.Genmove(bd, 0)
	require.True(t, mv.IsRegular())
	assert.Equal(t, uint64(5), p.Search().NuSimulations())
}

func TestLoadBookFailure(t *testing.T) {
	p := newDuoPlayer(t)
	err := p.LoadBook(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	// The player still works without the book.
	p.SetFixedSimulations(5)
	bd, berr := board.New(board.VariantDuo)
	require.NoError(t, berr)
	mv := p.Genmove(bd, 0)
	assert.True(t, mv.IsRegular())
}
