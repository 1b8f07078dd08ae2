// Package chessmcts selects a move for a chess position by running a
// parallel PUCT Monte Carlo tree search against a static evaluator.
package chessmcts

import (
	"github.com/pkg/errors"

	"github.com/rooktree/chessmcts/internal/aggregate"
	"github.com/rooktree/chessmcts/internal/chessx"
	"github.com/rooktree/chessmcts/internal/eval"
)

// SearchTree parses fen, searches it for timeSeconds per worker across
// workerCount parallel workers with exploration constant explorationC, and
// returns the chosen move in UCI notation.
func SearchTree(fen string, timeSeconds, explorationC float64, workerCount int) (string, error) {
	pos, err := chessx.ParseFEN(fen)
	if err != nil {
		return "", errors.Wrap(err, "chessmcts: parse fen")
	}

	evaluator := eval.NewStaticEvaluator()
	move, err := aggregate.Search(pos, evaluator, timeSeconds, explorationC, workerCount)
	if err != nil {
		return "", errors.Wrap(err, "chessmcts: search")
	}
	return move.UCI(), nil
}
