package chess

import (
	"errors"
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"
)

var (
	ErrMalformedPosition = errors.New("malformed position")
	ErrIllegalMove       = errors.New("illegal move")
)

// Board tracks a single mutable chess position.
// It is not safe for concurrent use; the session delivers events one at a time.
type Board struct {
	game *nchess.Game
}

func NewBoard() *Board {
	return &Board{game: nchess.NewGame()}
}

// ResetFromFEN replaces the whole position. On error the previous position is kept.
func (b *Board) ResetFromFEN(fen string) error {
	fen = strings.TrimSpace(fen)
	if fen == "" {
		return fmt.Errorf("%w: empty fen", ErrMalformedPosition)
	}
	option, err := nchess.FEN(fen)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrMalformedPosition, fen, err)
	}
	b.game = nchess.NewGame(option)
	return nil
}

// Apply plays m if it is legal in the current position.
func (b *Board) Apply(m Move) error {
	legal, ok := b.lookup(m)
	if !ok {
		return fmt.Errorf("%w: %s in %s", ErrIllegalMove, m.UCI(), b.FEN())
	}
	if err := b.game.Move(&legal, nil); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrIllegalMove, m.UCI(), err)
	}
	return nil
}

func (b *Board) lookup(m Move) (nchess.Move, bool) {
	for _, mv := range b.game.ValidMoves() {
		if sameMove(mv, m) {
			return mv, true
		}
	}
	return nchess.Move{}, false
}

func (b *Board) LegalMoves() []Move {
	valid := b.game.ValidMoves()
	out := make([]Move, 0, len(valid))
	for _, mv := range valid {
		out = append(out, fromLibMove(mv))
	}
	return out
}

// IsTerminal reports checkmate, stalemate or any automatic draw.
func (b *Board) IsTerminal() bool {
	if b.game.Outcome() != nchess.NoOutcome {
		return true
	}
	return len(b.game.ValidMoves()) == 0
}

func (b *Board) SideToMove() Role {
	if b.game.Position().Turn() == nchess.White {
		return RoleWhite
	}
	return RoleBlack
}

func (b *Board) FEN() string { return b.game.FEN() }

// Outcome returns the result token ("1-0", "0-1", "1/2-1/2", "*") and how it was reached.
func (b *Board) Outcome() (result, method string) {
	return string(b.game.Outcome()), b.game.Method().String()
}
