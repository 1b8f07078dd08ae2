package search

import "github.com/pkg/errors"

var (
	// ErrTerminalAtRoot is returned when Search is asked to search a
	// position with no legal moves.
	ErrTerminalAtRoot = errors.New("search: root position has no legal moves")

	// ErrContractViolation is returned when an evaluator's Priors does not
	// return exactly one entry per legal move.
	ErrContractViolation = errors.New("search: evaluator priors do not match legal moves")
)
