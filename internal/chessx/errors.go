package chessx

import "github.com/pkg/errors"

// ErrUnknownMove is returned when a move does not match any legal move
// from the position it is being resolved or applied against.
var ErrUnknownMove = errors.New("chessx: move is not legal from this position")
