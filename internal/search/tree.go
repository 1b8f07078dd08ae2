// Package search implements the PUCT tree search: node construction against
// a static evaluator, one-iteration descent/expansion/evaluation/backprop,
// root-only Dirichlet noise shaping, and the termination heuristics a
// worker uses to decide when to stop.
package search

import (
	"math"
	"math/rand"
	"time"

	distrand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distmv"

	"github.com/rooktree/chessmcts/internal/chessx"
	"github.com/rooktree/chessmcts/internal/eval"
)

// selectionEpsilon keeps PUCT's denominator finite for an unvisited branch,
// matching the original evaluator's 1e-7 fudge factor.
const selectionEpsilon = 1e-7

// dominanceFactor and dominanceMinimum are the thresholds for the
// visit-ratio termination heuristic: stop once the leading branch holds
// more than dominanceFactor of all visits, provided the root has
// accumulated at least dominanceMinimum visits total.
const (
	dominanceFactor  = 0.90
	dominanceMinimum = 50000.0
)

// Limit bounds a single worker's search. A zero value in either field
// disables that budget; Time and Nodes may both be set, in which case
// whichever fires first stops the worker.
type Limit struct {
	Time  float64
	Nodes int
}

// MoveVisit is one root move and the number of times a worker visited it.
type MoveVisit struct {
	Move   chessx.Move
	Visits float64
}

// Tree is one worker's PUCT search tree. It is built fresh for every
// Search call and discarded afterward; nothing about it is safe to share
// across goroutines.
type Tree struct {
	evaluator  eval.Evaluator
	c          float64
	noiseAlpha float64
	noiseSrc   distrand.Source

	nodes   []node
	rootIdx int
}

// NewTree builds a Tree over evaluator with exploration constant c and
// root Dirichlet noise concentration noiseAlpha (0 disables noise
// entirely, leaving the root's priors unchanged). rng seeds the tree's
// own Dirichlet noise source and should not be shared with other trees
// running concurrently.
func NewTree(evaluator eval.Evaluator, c, noiseAlpha float64, rng *rand.Rand) *Tree {
	return &Tree{
		evaluator:  evaluator,
		c:          c,
		noiseAlpha: noiseAlpha,
		noiseSrc:   distrand.NewSource(rng.Uint64()),
		nodes:      make([]node, 0, 1024),
	}
}

// Search runs iterations from position until a termination heuristic
// fires, then returns the root's per-move visit counts.
func (t *Tree) Search(position chessx.Position, limit Limit) ([]MoveVisit, error) {
	legal := position.LegalMoves()
	if len(legal) == 0 {
		return nil, ErrTerminalAtRoot
	}
	if len(legal) == 1 {
		return []MoveVisit{{Move: legal[0], Visits: 1.0}}, nil
	}

	rootIdx, err := t.createNode(position, -1, chessx.Move{}, false, true)
	if err != nil {
		return nil, err
	}
	t.rootIdx = rootIdx

	start := time.Now()
	i := 0
	for {
		if err := t.iterate(); err != nil {
			return nil, err
		}
		if t.checkVisitRatio(dominanceFactor, dominanceMinimum) {
			break
		}
		if limit.Nodes > 0 {
			if i >= limit.Nodes || t.checkVisitCounts(float64(limit.Nodes)) {
				break
			}
			i++
		}
		if limit.Time > 0 && time.Since(start).Seconds() >= limit.Time {
			break
		}
	}

	root := &t.nodes[t.rootIdx]
	result := make([]MoveVisit, len(root.moves))
	for i, m := range root.moves {
		result[i] = MoveVisit{Move: m, Visits: root.branches[m].visitCount}
	}
	return result, nil
}

// createNode evaluates state, builds its branches from the evaluator's
// priors (mixing in Dirichlet noise at the root), and appends the new node
// to the arena.
func (t *Tree) createNode(state chessx.Position, parent int, incoming chessx.Move, hasIncoming, isRoot bool) (int, error) {
	moves := state.LegalMoves()
	priors := t.evaluator.Priors(state)
	if err := validatePriors(moves, priors); err != nil {
		return -1, err
	}

	if isRoot && t.noiseAlpha > 0 && len(moves) >= 2 {
		priors = t.mixRootNoise(moves, priors)
	}

	branches := make(map[chessx.Move]*branch, len(moves))
	for _, m := range moves {
		branches[m] = newBranch(priors[m])
	}

	n := node{
		state:           state,
		value:           t.evaluator.Evaluate(state),
		moves:           moves,
		branches:        branches,
		children:        make(map[chessx.Move]int),
		parent:          parent,
		incomingMove:    incoming,
		hasIncomingMove: hasIncoming,
		totalVisitCount: 1,
	}
	t.nodes = append(t.nodes, n)
	return len(t.nodes) - 1, nil
}

func (t *Tree) mixRootNoise(moves []chessx.Move, priors map[chessx.Move]float64) map[chessx.Move]float64 {
	alpha := make([]float64, len(moves))
	for i := range alpha {
		alpha[i] = t.noiseAlpha
	}
	dist := distmv.NewDirichlet(alpha, t.noiseSrc)
	noise := dist.Rand(nil)

	mixed := make(map[chessx.Move]float64, len(moves))
	for i, m := range moves {
		mixed[m] = 0.5*priors[m] + 0.5*noise[i]
	}
	return mixed
}

func validatePriors(moves []chessx.Move, priors map[chessx.Move]float64) error {
	if len(priors) != len(moves) {
		return ErrContractViolation
	}
	for _, m := range moves {
		if _, ok := priors[m]; !ok {
			return ErrContractViolation
		}
	}
	return nil
}

// iterate runs one descent/expansion/evaluation/backpropagation pass from
// the root.
func (t *Tree) iterate() error {
	idx := t.rootIdx
	for {
		n := &t.nodes[idx]
		m := t.selectMove(n)
		childIdx, ok := n.children[m]
		if ok {
			idx = childIdx
			continue
		}

		childPos, err := n.state.Apply(m)
		if err != nil {
			return err
		}
		newIdx, err := t.createNode(childPos, idx, m, true, false)
		if err != nil {
			return err
		}
		if childPos.Status() == chessx.Ongoing {
			n.children[m] = newIdx
		}
		t.backprop(idx, m, newIdx)
		return nil
	}
}

// selectMove applies PUCT over n's branches, iterating in n.moves order so
// ties resolve identically across runs.
func (t *Tree) selectMove(n *node) chessx.Move {
	lnTotal := math.Log(n.totalVisitCount)
	best := n.moves[0]
	bestScore := math.Inf(-1)
	for _, m := range n.moves {
		b := n.branches[m]
		score := b.expectedValue() + t.c*b.prior*math.Sqrt(lnTotal/(b.visitCount+selectionEpsilon))
		if score > bestScore {
			bestScore = score
			best = m
		}
	}
	return best
}

// backprop walks from the selected node up to the root, recording the
// value (sign-flipped at every ply, since the evaluator always scores from
// the side-to-move's perspective) against the branch that led downward at
// each level.
func (t *Tree) backprop(selectedIdx int, selectedMove chessx.Move, childIdx int) {
	v := -t.nodes[childIdx].value
	idx := selectedIdx
	move := selectedMove
	for {
		n := &t.nodes[idx]
		n.branches[move].recordVisit(v)
		n.totalVisitCount++
		if !n.hasIncomingMove {
			return
		}
		move = n.incomingMove
		v = -v
		idx = n.parent
	}
}

func (t *Tree) checkVisitRatio(factor, minimum float64) bool {
	root := &t.nodes[t.rootIdx]
	if root.totalVisitCount < minimum {
		return false
	}
	leader, _ := topTwoVisits(root)
	return leader > root.totalVisitCount*factor
}

func (t *Tree) checkVisitCounts(nodesLimit float64) bool {
	root := &t.nodes[t.rootIdx]
	leader, runnerUp := topTwoVisits(root)
	remaining := nodesLimit - root.totalVisitCount
	return leader >= runnerUp+remaining
}

func topTwoVisits(n *node) (leader, runnerUp float64) {
	for _, m := range n.moves {
		v := n.branches[m].visitCount
		if v > leader {
			runnerUp = leader
			leader = v
		} else if v > runnerUp {
			runnerUp = v
		}
	}
	return leader, runnerUp
}
