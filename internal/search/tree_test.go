package search

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rooktree/chessmcts/internal/chessx"
	"github.com/rooktree/chessmcts/internal/eval"
)

func TestBackpropFlipsSignAtEveryPly(t *testing.T) {
	pos, err := chessx.ParseFEN("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	require.NoError(t, err)

	tr := NewTree(stubEvaluator{value: 0.3}, 1.0, 0.3, rand.New(rand.NewSource(2)))
	rootIdx, err := tr.createNode(pos, -1, chessx.Move{}, false, true)
	require.NoError(t, err)
	tr.rootIdx = rootIdx

	require.NoError(t, tr.iterate())

	root := &tr.nodes[tr.rootIdx]
	played := root.moves[0]
	b := root.branches[played]
	require.Equal(t, float64(1), b.visitCount)
	require.InDelta(t, -0.3, b.totalValue, 1e-9)
}

func TestNoiseAppliesOnlyAtRoot(t *testing.T) {
	pos, err := chessx.ParseFEN("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	require.NoError(t, err)

	tr := NewTree(stubEvaluator{value: 0.0}, 1.0, 0.3, rand.New(rand.NewSource(7)))
	rootIdx, err := tr.createNode(pos, -1, chessx.Move{}, false, true)
	require.NoError(t, err)
	root := &tr.nodes[rootIdx]

	uniform := 1.0 / float64(len(root.moves))
	var perturbed bool
	for _, m := range root.moves {
		if root.branches[m].prior != uniform {
			perturbed = true
		}
	}
	require.True(t, perturbed, "root priors should be mixed with dirichlet noise")

	childIdx, err := tr.createNode(pos, rootIdx, root.moves[0], true, false)
	require.NoError(t, err)
	child := &tr.nodes[childIdx]
	for _, m := range child.moves {
		require.InDelta(t, uniform, child.branches[m].prior, 1e-12)
	}
}

func TestZeroNoiseAlphaLeavesRootPriorsUnchanged(t *testing.T) {
	pos, err := chessx.ParseFEN("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	require.NoError(t, err)

	tr := NewTree(stubEvaluator{value: 0.0}, 1.0, 0, rand.New(rand.NewSource(7)))
	rootIdx, err := tr.createNode(pos, -1, chessx.Move{}, false, true)
	require.NoError(t, err)
	root := &tr.nodes[rootIdx]

	uniform := 1.0 / float64(len(root.moves))
	for _, m := range root.moves {
		require.InDelta(t, uniform, root.branches[m].prior, 1e-12)
	}
}

func TestZeroNoiseAlphaGivesIdenticalVisitsAcrossSeeds(t *testing.T) {
	pos, err := chessx.ParseFEN("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	require.NoError(t, err)
	evaluator := eval.NewStaticEvaluator()

	run := func(seed int64) []MoveVisit {
		tr := NewTree(evaluator, 1.4, 0, rand.New(rand.NewSource(seed)))
		res, err := tr.Search(pos, Limit{Nodes: 200})
		require.NoError(t, err)
		return res
	}

	require.Equal(t, run(1), run(2))
}

func TestDeterministicGivenFrozenRNG(t *testing.T) {
	pos, err := chessx.ParseFEN("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	require.NoError(t, err)
	evaluator := eval.NewStaticEvaluator()

	run := func(seed int64) []MoveVisit {
		tr := NewTree(evaluator, 1.4, 0.3, rand.New(rand.NewSource(seed)))
		res, err := tr.Search(pos, Limit{Nodes: 200})
		require.NoError(t, err)
		return res
	}

	require.Equal(t, run(42), run(42))
}

func TestForcedMateInOneChoosesCheckmate(t *testing.T) {
	pos, err := chessx.ParseFEN("6k1/5ppp/8/8/8/8/5PPP/R5K1 w - - 0 1")
	require.NoError(t, err)

	tr := NewTree(eval.NewStaticEvaluator(), 1.4, 0.3, rand.New(rand.NewSource(1)))
	res, err := tr.Search(pos, Limit{Nodes: 500})
	require.NoError(t, err)
	require.NotEmpty(t, res)

	best := res[0]
	for _, mv := range res[1:] {
		if mv.Visits > best.Visits {
			best = mv
		}
	}
	require.Equal(t, "a1a8", best.Move.UCI())
}

func TestSingleLegalMoveFastPath(t *testing.T) {
	pos, err := chessx.ParseFEN("7k/8/6K1/8/8/8/P7/8 b - - 0 1")
	require.NoError(t, err)

	tr := NewTree(eval.NewStaticEvaluator(), 1.4, 0.3, rand.New(rand.NewSource(1)))
	res, err := tr.Search(pos, Limit{Nodes: 10})
	require.NoError(t, err)
	require.Len(t, res, 1)
	require.Equal(t, "h8g8", res[0].Move.UCI())
	require.Equal(t, 1.0, res[0].Visits)
}

func TestStalemateAtRootReturnsError(t *testing.T) {
	pos, err := chessx.ParseFEN("7k/5Q2/5K2/8/8/8/8/8 b - - 0 1")
	require.NoError(t, err)

	tr := NewTree(eval.NewStaticEvaluator(), 1.4, 0.3, rand.New(rand.NewSource(1)))
	_, err = tr.Search(pos, Limit{Nodes: 10})
	require.ErrorIs(t, err, ErrTerminalAtRoot)
}

func TestCheckVisitRatioDominance(t *testing.T) {
	moves := []chessx.Move{{Dest: 1}, {Dest: 2}}
	n := node{
		moves: moves,
		branches: map[chessx.Move]*branch{
			moves[0]: {visitCount: 46000},
			moves[1]: {visitCount: 4000},
		},
		totalVisitCount: 50001,
	}
	tr := &Tree{nodes: []node{n}, rootIdx: 0}
	require.True(t, tr.checkVisitRatio(dominanceFactor, dominanceMinimum))
}

func TestCheckVisitRatioBelowMinimum(t *testing.T) {
	moves := []chessx.Move{{Dest: 1}, {Dest: 2}}
	n := node{
		moves: moves,
		branches: map[chessx.Move]*branch{
			moves[0]: {visitCount: 999},
			moves[1]: {visitCount: 1},
		},
		totalVisitCount: 1001,
	}
	tr := &Tree{nodes: []node{n}, rootIdx: 0}
	require.False(t, tr.checkVisitRatio(dominanceFactor, dominanceMinimum))
}
