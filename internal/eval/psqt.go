package eval

import (
	"github.com/notnil/chess"

	"github.com/rooktree/chessmcts/internal/chessx"
)

// pieceSquareTables holds one 64-entry table per piece type, indexed by
// square from White's perspective; Black's bonus is read at 63 - square (the
// board rotated 180 degrees), which for these file-symmetric tables is the
// same as mirroring the rank.
type pieceSquareTables map[chess.PieceType][64]float64

type phaseWeights struct {
	pawnAdvance  float64
	knightCenter float64
	bishopCenter float64
	rookOpenFile float64
	queenCenter  float64
	kingCenter   float64
}

var earlyWeights = phaseWeights{
	pawnAdvance:  5,
	knightCenter: 8,
	bishopCenter: 6,
	rookOpenFile: 10,
	queenCenter:  2,
	kingCenter:   -15,
}

var endWeights = phaseWeights{
	pawnAdvance:  12,
	knightCenter: 6,
	bishopCenter: 4,
	rookOpenFile: 4,
	queenCenter:  4,
	kingCenter:   15,
}

var earlyTables = buildTables(earlyWeights)
var endTables = buildTables(endWeights)

func buildTables(w phaseWeights) pieceSquareTables {
	var pawn, knight, bishop, rook, queen, king [64]float64
	for sq := 0; sq < 64; sq++ {
		file := sq % 8
		rank := sq / 8
		center := centerBonus(file, rank)
		pawn[sq] = w.pawnAdvance * float64(rank)
		knight[sq] = w.knightCenter * center
		bishop[sq] = w.bishopCenter * center
		queen[sq] = w.queenCenter * center
		rook[sq] = w.rookOpenFile * centerFileBonus(file)
		king[sq] = w.kingCenter * center
	}
	return pieceSquareTables{
		chess.Pawn:   pawn,
		chess.Knight: knight,
		chess.Bishop: bishop,
		chess.Rook:   rook,
		chess.Queen:  queen,
		chess.King:   king,
	}
}

// centerBonus peaks at the four central squares and falls off toward the
// edge of the board.
func centerBonus(file, rank int) float64 {
	dist := absDiff(file, 3.5) + absDiff(rank, 3.5)
	return 3.0 - dist
}

func centerFileBonus(file int) float64 {
	if file == 3 || file == 4 {
		return 1.0
	}
	return 0.0
}

func absDiff(v int, c float64) float64 {
	d := float64(v) - c
	if d < 0 {
		return -d
	}
	return d
}

// materialAndPSQT sums material and piece-square bonuses for every piece
// of color on the board, returning the early-game and endgame components
// separately so the caller can blend them by taper.
func (e *StaticEvaluator) materialAndPSQT(pos chessx.Position, color chess.Color) (early, end float64) {
	for sq, piece := range pos.Board().SquareMap() {
		if piece.Color() != color {
			continue
		}
		pt := piece.Type()
		idx := int(sq)
		if color == chess.Black {
			idx = 63 - idx
		}
		early += e.material[pt] + e.early[pt][idx]
		end += e.material[pt] + e.end[pt][idx]
	}
	return early, end
}

func pieceCount(pos chessx.Position) int {
	return len(pos.Board().SquareMap())
}
