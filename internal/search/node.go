package search

import "github.com/rooktree/chessmcts/internal/chessx"

// node is one position in the search tree. Nodes live in Tree.nodes, an
// arena indexed by plain int — no parent/child pointers, so the tree has
// no cycles to worry about and is released in one shot when the Tree goes
// out of scope.
type node struct {
	state chessx.Position
	value float64

	// moves is the legal-move list in the chess collaborator's own
	// deterministic order; it is the sole source of iteration order for
	// PUCT selection, so ties resolve the same way on every run.
	moves    []chessx.Move
	branches map[chessx.Move]*branch
	children map[chessx.Move]int

	parent          int
	incomingMove    chessx.Move
	hasIncomingMove bool

	totalVisitCount float64
}

func (n *node) isTerminal() bool {
	return len(n.moves) == 0
}
