package chess

import (
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"
)

// Move is a from/to square pair with an optional promotion piece letter ("q", "r", "b", "n").
type Move struct {
	From      string
	To        string
	Promotion string
}

func (m Move) UCI() string {
	return strings.ToLower(m.From + m.To + m.Promotion)
}

func (m Move) String() string { return m.UCI() }

// ParseUCI parses long algebraic notation such as "e2e4" or "e7e8q".
func ParseUCI(s string) (Move, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 4 && len(s) != 5 {
		return Move{}, fmt.Errorf("%w: bad uci %q", ErrIllegalMove, s)
	}
	m := Move{From: s[:2], To: s[2:4]}
	if len(s) == 5 {
		m.Promotion = s[4:]
	}
	if !validSquare(m.From) || !validSquare(m.To) {
		return Move{}, fmt.Errorf("%w: bad squares %q", ErrIllegalMove, s)
	}
	return m, nil
}

func validSquare(sq string) bool {
	if len(sq) != 2 {
		return false
	}
	return sq[0] >= 'a' && sq[0] <= 'h' && sq[1] >= '1' && sq[1] <= '8'
}

func fromLibMove(mv nchess.Move) Move {
	return Move{
		From:      mv.S1().String(),
		To:        mv.S2().String(),
		Promotion: promoLetter(mv.Promo()),
	}
}

func sameMove(mv nchess.Move, m Move) bool {
	return mv.S1().String() == strings.ToLower(m.From) &&
		mv.S2().String() == strings.ToLower(m.To) &&
		promoLetter(mv.Promo()) == strings.ToLower(m.Promotion)
}

func promoLetter(pt nchess.PieceType) string {
	switch pt {
	case nchess.Queen:
		return "q"
	case nchess.Rook:
		return "r"
	case nchess.Bishop:
		return "b"
	case nchess.Knight:
		return "n"
	default:
		return ""
	}
}
