// Package aggregate fans a search out across independent workers and
// combines their per-move visit counts into a single chosen move.
package aggregate

import (
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/rooktree/chessmcts/internal/chessx"
	"github.com/rooktree/chessmcts/internal/eval"
	"github.com/rooktree/chessmcts/internal/search"
)

// ErrNoLegalMoves is returned when the position to search has no legal
// moves.
var ErrNoLegalMoves = errors.New("aggregate: position has no legal moves")

// ErrAllWorkersFailed is returned when every search worker failed and no
// result could be aggregated.
var ErrAllWorkersFailed = errors.New("aggregate: all search workers failed")

// ErrNoWorkers is returned when workerCount is not positive.
var ErrNoWorkers = errors.New("aggregate: workerCount must be positive")

type workerResult struct {
	moves []search.MoveVisit
	err   error
}

// Search runs workerCount independent PUCT searches over position in
// parallel, each with its own tree and RNG, and returns the move with the
// largest combined visit count across workers. A worker that panics or
// returns a contract-violation error is recovered and logged; it
// contributes nothing to the aggregate, and failure is only surfaced to
// the caller when every worker failed.
func Search(position chessx.Position, evaluator eval.Evaluator, timeSeconds, explorationC float64, workerCount int) (chessx.Move, error) {
	legal := position.LegalMoves()
	if len(legal) == 0 {
		return chessx.Move{}, ErrNoLegalMoves
	}
	if workerCount <= 0 {
		return chessx.Move{}, ErrNoWorkers
	}

	results := make(chan workerResult, workerCount)
	var wg sync.WaitGroup
	for w := 0; w < workerCount; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					results <- workerResult{err: errors.Errorf("worker %d panicked: %v", id, r)}
				}
			}()
			rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(id)))
			tree := search.NewTree(evaluator, explorationC, 0.3, rng)
			moves, err := tree.Search(position, search.Limit{Time: timeSeconds})
			results <- workerResult{moves: moves, err: err}
		}(w)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	var perWorker [][]search.MoveVisit
	var errs *multierror.Error
	for res := range results {
		if res.err != nil {
			errs = multierror.Append(errs, res.err)
			log.Printf("aggregate: search worker failed: %v", res.err)
			continue
		}
		perWorker = append(perWorker, res.moves)
	}
	if len(perWorker) == 0 {
		return chessx.Move{}, errors.WithMessage(ErrAllWorkersFailed, errs.Error())
	}

	totals := sumVisits(legal, perWorker)
	return bestMove(legal, totals), nil
}

// sumVisits adds up every worker's visit counts per move. Addition is
// commutative, so the result does not depend on the order workers finish
// in or the order their results are drained from the channel.
func sumVisits(legal []chessx.Move, perWorker [][]search.MoveVisit) map[chessx.Move]int64 {
	totals := make(map[chessx.Move]int64, len(legal))
	for _, m := range legal {
		totals[m] = 0
	}
	for _, moves := range perWorker {
		for _, mv := range moves {
			totals[mv.Move] += int64(mv.Visits)
		}
	}
	return totals
}

// bestMove picks the move with the highest total visit count, breaking
// ties by the chess collaborator's own deterministic legal-move order (the
// first-encountered move of equal rank wins).
func bestMove(legal []chessx.Move, totals map[chessx.Move]int64) chessx.Move {
	best := legal[0]
	bestCount := totals[best]
	for _, m := range legal[1:] {
		if c := totals[m]; c > bestCount {
			bestCount = c
			best = m
		}
	}
	return best
}
