package board

import (
	"testing"

	"github.com/matryer/is"
)

func duoPoint(x, y int) Point { return Point(y*14 + x) }

func mustFindMove(t *testing.T, bc *BoardConst, points []Point) Move {
	t.Helper()
	mv, ok := bc.FindMove(points)
	if !ok {
		t.Fatalf("no move occupies %v", points)
	}
	return mv
}

func TestPieceSet(t *testing.T) {
	is := is.New(t)
	bc, err := GetBoardConst(VariantDuo)
	is.NoErr(err)
	is.Equal(bc.NuPieces(), 21)
	total := 0
	for i := 0; i < bc.NuPieces(); i++ {
		total += bc.PieceInfo(Piece(i)).Size
	}
	is.Equal(total, 89)
	// The monomino placed alone has four diagonal attach points.
	is.Equal(bc.PieceInfo(monomino).Size, 1)
	is.Equal(bc.PieceInfo(monomino).NuAttach, 4)
}

func TestMoveTables(t *testing.T) {
	is := is.New(t)
	bc, err := GetBoardConst(VariantDuo)
	is.NoErr(err)
	// Exactly one monomino move covers a given point.
	moves := bc.GetMoves(monomino, duoPoint(4, 4), 0, nil)
	is.Equal(len(moves), 1)
	info := bc.MoveInfo(moves[0])
	is.Equal(len(info.Points), 1)
	is.Equal(info.Points[0], duoPoint(4, 4))
	ext := bc.MoveInfoExt(moves[0])
	is.Equal(len(ext.AttachPoints), 4)
	is.Equal(len(ext.AdjPoints), 4)
}

func TestMoveStringRoundTrip(t *testing.T) {
	is := is.New(t)
	bc, err := GetBoardConst(VariantDuo)
	is.NoErr(err)
	mv := mustFindMove(t, bc, []Point{duoPoint(4, 4)})
	s := bc.MoveString(mv)
	is.Equal(s, "e5")
	parsed, err := bc.ParseMove(s)
	is.NoErr(err)
	is.Equal(parsed, mv)
}

func TestFirstMoveLegality(t *testing.T) {
	is := is.New(t)
	bd, err := New(VariantDuo)
	is.NoErr(err)
	bc := bd.GetBoardConst()
	onStart := mustFindMove(t, bc, []Point{duoPoint(4, 4)})
	offStart := mustFindMove(t, bc, []Point{duoPoint(7, 7)})
	is.True(bd.IsLegalNonpass(onStart))
	is.True(!bd.IsLegalNonpass(offStart))
}

func TestPlayUpdatesState(t *testing.T) {
	is := is.New(t)
	bd, err := New(VariantDuo)
	is.NoErr(err)
	bc := bd.GetBoardConst()
	mv := mustFindMove(t, bc, []Point{duoPoint(4, 4)})
	bd.PlayNonpass(mv)

	is.Equal(bd.GetToPlay(), Color(1))
	is.Equal(bd.GetNuMoves(), 1)
	is.Equal(bd.GetMove(0), ColorMove{Color: 0, Move: mv})
	is.Equal(bd.GetNuOnboardPieces(), 1)
	is.True(!bd.IsPieceLeft(0, monomino))
	is.True(!bd.IsFirstPiece(0))
	is.True(bd.IsFirstPiece(1))

	// The placed point is forbidden for everyone, its orthogonal
	// neighbors only for the mover.
	is.True(bd.IsForbidden(duoPoint(4, 4), 0))
	is.True(bd.IsForbidden(duoPoint(4, 4), 1))
	is.True(bd.IsForbidden(duoPoint(4, 3), 0))
	is.True(!bd.IsForbidden(duoPoint(4, 3), 1))

	attach := bd.GetAttachPoints(0)
	is.Equal(len(attach), 4)
}

func TestPassAndHistory(t *testing.T) {
	is := is.New(t)
	bd, err := New(VariantDuo)
	is.NoErr(err)
	bd.PlayPass()
	is.Equal(bd.GetToPlay(), Color(1))
	is.Equal(bd.GetNuMoves(), 1)
	is.True(bd.GetMove(0).Move.IsPass())
}

func TestSnapshotRestore(t *testing.T) {
	is := is.New(t)
	bd, err := New(VariantDuo)
	is.NoErr(err)
	bc := bd.GetBoardConst()
	bd.PlayNonpass(mustFindMove(t, bc, []Point{duoPoint(4, 4)}))
	bd.TakeSnapshot()
	grid := bd.String()
	attachLen := len(bd.GetAttachPoints(0))

	bd.PlayNonpass(mustFindMove(t, bc, []Point{duoPoint(9, 9)}))
	bd.PlayNonpass(mustFindMove(t, bc, []Point{duoPoint(3, 5), duoPoint(3, 6)}))
	bd.RestoreSnapshot()

	is.Equal(bd.String(), grid)
	is.Equal(bd.GetNuMoves(), 1)
	is.Equal(bd.GetToPlay(), Color(1))
	is.Equal(len(bd.GetAttachPoints(0)), attachLen)
	is.True(bd.IsPieceLeft(1, monomino))
	is.Equal(bd.GetNuOnboardPieces(), 1)
}

func TestScore(t *testing.T) {
	is := is.New(t)
	bd, err := New(VariantDuo)
	is.NoErr(err)
	bc := bd.GetBoardConst()
	i5 := []Point{
		duoPoint(4, 4), duoPoint(5, 4), duoPoint(6, 4),
		duoPoint(7, 4), duoPoint(8, 4),
	}
	bd.PlayNonpass(mustFindMove(t, bc, i5))
	bd.PlayNonpass(mustFindMove(t, bc, []Point{duoPoint(9, 9)}))
	is.Equal(bd.GetPointsWithBonus(0), 5)
	is.Equal(bd.GetPointsWithBonus(1), 1)
	is.Equal(bd.GetScore(0), 4)
	is.Equal(bd.GetScore(1), -4)
}

func TestTeamVariant(t *testing.T) {
	is := is.New(t)
	is.True(VariantClassic2.HasTeams())
	is.True(!VariantDuo.HasTeams())
	bd, err := New(VariantClassic2)
	is.NoErr(err)
	is.Equal(bd.GetNuColors(), 4)
	is.Equal(bd.GetNuPlayers(), 2)
	is.Equal(bd.GetSecondColor(0), Color(2))
	is.Equal(bd.GetSecondColor(1), Color(3))
	is.Equal(bd.GetSecondColor(3), Color(1))

	duo, err := New(VariantDuo)
	is.NoErr(err)
	is.Equal(duo.GetSecondColor(0), Color(0))
}

func TestTrigonUnsupported(t *testing.T) {
	is := is.New(t)
	_, err := New(VariantTrigon)
	is.True(err != nil)
}

func TestCopyIndependence(t *testing.T) {
	is := is.New(t)
	bd, err := New(VariantDuo)
	is.NoErr(err)
	bc := bd.GetBoardConst()
	cp := bd.Copy()
	cp.PlayNonpass(mustFindMove(t, bc, []Point{duoPoint(4, 4)}))
	is.Equal(bd.GetNuMoves(), 0)
	is.Equal(cp.GetNuMoves(), 1)
	is.True(bd.GetPointState(duoPoint(4, 4)).IsEmpty())
}
