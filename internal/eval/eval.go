// Package eval provides the static leaf evaluator the search engine calls
// at every node it creates: a scalar value from the side-to-move's
// perspective, and a prior-probability distribution over legal moves.
package eval

import (
	"math"

	"github.com/chewxy/math32"
	"github.com/notnil/chess"

	"github.com/rooktree/chessmcts/internal/chessx"
)

// Evaluator is the leaf function the search tree calls instead of running
// a rollout. Priors must return exactly one entry per legal move in pos;
// returning more, fewer, or mismatched moves is a contract violation the
// caller is expected to detect.
type Evaluator interface {
	Evaluate(pos chessx.Position) float64
	Priors(pos chessx.Position) map[chessx.Move]float64
}

// checkmateValue dominates any reachable material/positional score at this
// evaluator's own scale, so a mated side-to-move always looks like the
// worst possible leaf regardless of material still on the board.
const checkmateValue = -100000.0

// sideToMoveBonus is folded into the evaluator's own scoring, matching the
// original Rust evaluator's flat bonus for the player on the move.
const sideToMoveBonus = 10.0

// StaticEvaluator scores a position from material, tapered piece-square
// tables, and a one-ply move-scoring pass for priors. It holds no mutable
// state after construction, so a single instance is safe to share across
// concurrent search workers.
type StaticEvaluator struct {
	material map[chess.PieceType]float64
	early    pieceSquareTables
	end      pieceSquareTables
}

// NewStaticEvaluator builds the default evaluator with hand-set material
// values and piece-square tables.
func NewStaticEvaluator() *StaticEvaluator {
	return &StaticEvaluator{
		material: map[chess.PieceType]float64{
			chess.Pawn:   100,
			chess.Knight: 305,
			chess.Bishop: 333,
			chess.Rook:   563,
			chess.Queen:  950,
			chess.King:   20000,
		},
		early: earlyTables,
		end:   endTables,
	}
}

// Evaluate scores pos from the perspective of the side to move.
func (e *StaticEvaluator) Evaluate(pos chessx.Position) float64 {
	if pos.Status() == chessx.Checkmate {
		return checkmateValue
	}

	taper := e.taper(pos)
	toMove := pos.Turn()

	earlyValue := sideToMoveBonus
	endValue := sideToMoveBonus

	for _, color := range []chess.Color{chess.White, chess.Black} {
		sign := 1.0
		if color != toMove {
			sign = -1.0
		}
		early, end := e.materialAndPSQT(pos, color)
		earlyValue += sign * early
		endValue += sign * end
	}

	value := taper*endValue + (1-taper)*earlyValue
	if !validScore(value) {
		return 0
	}
	return value
}

// Priors scores every legal move by a one-ply static evaluation of the
// resulting position (negated back to the parent's perspective), then
// shifts and normalizes those scores into a non-negative distribution that
// sums to 1. An empty legal-move set yields an empty map.
func (e *StaticEvaluator) Priors(pos chessx.Position) map[chessx.Move]float64 {
	moves := pos.LegalMoves()
	result := make(map[chessx.Move]float64, len(moves))
	if len(moves) == 0 {
		return result
	}

	scores := make([]float64, len(moves))
	minScore := math.Inf(1)
	for i, m := range moves {
		child, err := pos.Apply(m)
		if err != nil {
			scores[i] = 0
		} else {
			scores[i] = -e.Evaluate(child)
		}
		if scores[i] < minScore {
			minScore = scores[i]
		}
	}

	const epsilon = 1e-7
	sum := 0.0
	shifted := make([]float64, len(moves))
	for i, s := range scores {
		shifted[i] = s - minScore + epsilon
		sum += shifted[i]
	}
	for i, m := range moves {
		result[m] = shifted[i] / sum
	}
	return result
}

// taper blends early/endgame tables by remaining material, matching the
// original evaluator's piece-count buckets.
func (e *StaticEvaluator) taper(pos chessx.Position) float64 {
	count := pieceCount(pos)
	switch {
	case count >= 1 && count <= 6:
		return 1.0
	case count >= 7 && count <= 12:
		return 0.75
	case count >= 13 && count <= 22:
		return 0.5
	case count >= 23 && count <= 28:
		return 0.25
	case count >= 29 && count <= 32:
		return 0.0
	default:
		return 0.5
	}
}

func validScore(v float64) bool {
	f := float32(v)
	return !math32.IsNaN(f) && !math32.IsInf(f, 0)
}
