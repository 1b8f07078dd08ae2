// Package chessx wraps github.com/notnil/chess into the comparable,
// hashable value types the search engine needs: a Position that can be
// cloned and advanced, and a Move that can live as a map key across those
// clones.
package chessx

import (
	"fmt"

	"github.com/notnil/chess"
	"github.com/pkg/errors"
)

// Status is the terminal classification of a Position.
type Status int

const (
	Ongoing Status = iota
	Checkmate
	Stalemate
	Draw
	CanDeclareDraw
)

func (s Status) String() string {
	switch s {
	case Ongoing:
		return "ongoing"
	case Checkmate:
		return "checkmate"
	case Stalemate:
		return "stalemate"
	case Draw:
		return "draw"
	case CanDeclareDraw:
		return "can-declare-draw"
	default:
		return "unknown"
	}
}

// Position is a snapshot of a chess position, positioned at the current
// ply of its embedded game.
type Position struct {
	game *chess.Game
}

// ParseFEN builds a Position from Forsyth-Edwards Notation.
func ParseFEN(fen string) (Position, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return Position{}, errors.Wrap(err, "chessx: invalid fen")
	}
	g := chess.NewGame(opt, chess.UseNotation(chess.UCINotation{}))
	return Position{game: g}, nil
}

// Turn reports the color to move.
func (p Position) Turn() chess.Color {
	return p.game.Position().Turn()
}

// Hash identifies the position (board, turn, castling rights, en passant).
func (p Position) Hash() [16]byte {
	return p.game.Position().Hash()
}

// Equal reports whether two positions hash identically.
func (p Position) Equal(other Position) bool {
	return p.Hash() == other.Hash()
}

// LegalMoves lists every legal move from this position, in the chess
// collaborator's own deterministic order.
func (p Position) LegalMoves() []Move {
	valid := p.game.ValidMoves()
	out := make([]Move, len(valid))
	for i, m := range valid {
		out[i] = fromChessMove(m)
	}
	return out
}

// Apply plays m and returns the resulting Position. m must be legal from p;
// ErrUnknownMove is returned otherwise.
func (p Position) Apply(m Move) (Position, error) {
	clone := p.game.Clone()
	target, err := findMove(clone, m)
	if err != nil {
		return Position{}, err
	}
	if err := clone.Move(target); err != nil {
		return Position{}, errors.Wrap(err, "chessx: apply move")
	}
	return Position{game: clone}, nil
}

// Status classifies the position for termination purposes. CanDeclareDraw
// is part of the enum for API completeness but is never produced here: it
// would require detecting a draw a player could claim but has not yet
// claimed (threefold repetition, the fifty-move rule), and the chess
// collaborator's support for that query was never exercised anywhere in
// the corpus this package is grounded on, so nothing here depends on it.
func (p Position) Status() Status {
	if p.game.Outcome() == chess.NoOutcome {
		return Ongoing
	}
	switch p.game.Method() {
	case chess.Stalemate:
		return Stalemate
	case chess.Checkmate:
		return Checkmate
	default:
		return Draw
	}
}

// FEN renders the position back to Forsyth-Edwards Notation.
func (p Position) FEN() string {
	return p.game.FEN()
}

// Board exposes the underlying board for evaluators that need to walk
// pieces directly.
func (p Position) Board() *chess.Board {
	return p.game.Position().Board()
}

func findMove(g *chess.Game, m Move) (*chess.Move, error) {
	for _, candidate := range g.ValidMoves() {
		if fromChessMove(candidate) == m {
			return candidate, nil
		}
	}
	return nil, ErrUnknownMove
}

// Move is a comparable value identifying a single chess move: source
// square, destination square, and promotion piece (NoPieceType when none).
// It is deliberately a plain value type, not a wrapped *chess.Move pointer,
// so it stays valid as a map key across Position clones.
type Move struct {
	Source chess.Square
	Dest   chess.Square
	Promo  chess.PieceType
}

func fromChessMove(m *chess.Move) Move {
	return Move{Source: m.S1(), Dest: m.S2(), Promo: m.Promo()}
}

// UCI renders the move in lowercase UCI notation: <src><dst>[promo].
func (m Move) UCI() string {
	s := squareName(m.Source) + squareName(m.Dest)
	if m.Promo != chess.NoPieceType {
		s += promoLetter(m.Promo)
	}
	return s
}

// ParseUCI resolves a UCI move string against the legal moves available
// from pos.
func ParseUCI(pos Position, uci string) (Move, error) {
	for _, m := range pos.LegalMoves() {
		if m.UCI() == uci {
			return m, nil
		}
	}
	return Move{}, ErrUnknownMove
}

func squareName(sq chess.Square) string {
	file := int(sq) % 8
	rank := int(sq)/8 + 1
	return fmt.Sprintf("%c%d", 'a'+file, rank)
}

func promoLetter(pt chess.PieceType) string {
	switch pt {
	case chess.Queen:
		return "q"
	case chess.Rook:
		return "r"
	case chess.Bishop:
		return "b"
	case chess.Knight:
		return "n"
	default:
		return ""
	}
}
