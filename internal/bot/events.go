package bot

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/park285/cheese-random-bot/internal/chess"
	"github.com/park285/cheese-random-bot/internal/sockio"
	"github.com/park285/cheese-random-bot/pkg/chessdto"
)

// Wire event names spoken by the game server.
const (
	EventPlayerRole    = "playerRole"
	EventSpectatorRole = "spectatorRole"
	EventBoardState    = "boardState"
	EventMove          = "move"
)

var ErrUnknownEvent = errors.New("unknown event")

// Event is one inbound notification, already decoded from the wire.
type Event interface{ isEvent() }

type Connected struct{}

type ConnectFailed struct{ Reason string }

type Disconnected struct{ Reason string }

type RoleAssigned struct{ Role chess.Role }

type SpectatorAssigned struct{}

type BoardState struct{ FEN string }

type OpponentMove struct {
	From      string
	To        string
	Promotion string
}

func (Connected) isEvent()         {}
func (ConnectFailed) isEvent()     {}
func (Disconnected) isEvent()      {}
func (RoleAssigned) isEvent()      {}
func (SpectatorAssigned) isEvent() {}
func (BoardState) isEvent()        {}
func (OpponentMove) isEvent()      {}

// Move converts the opponent's move into the board's move type.
func (m OpponentMove) Move() chess.Move {
	return chess.Move{From: strings.ToLower(m.From), To: strings.ToLower(m.To)}
}

// DecodeEvent maps a wire event name and its raw arguments to an Event.
func DecodeEvent(name string, args []json.RawMessage) (Event, error) {
	switch name {
	case sockio.EventConnect:
		return Connected{}, nil
	case sockio.EventConnectError:
		return ConnectFailed{Reason: connectErrorReason(args)}, nil
	case sockio.EventDisconnect:
		reason, _ := firstString(args)
		return Disconnected{Reason: reason}, nil
	case EventPlayerRole:
		token, err := firstString(args)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		role, ok := chess.ParseRoleToken(token)
		if !ok {
			return nil, fmt.Errorf("%s: unknown role token %q", name, token)
		}
		return RoleAssigned{Role: role}, nil
	case EventSpectatorRole:
		return SpectatorAssigned{}, nil
	case EventBoardState:
		fen, err := firstString(args)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return BoardState{FEN: fen}, nil
	case EventMove:
		if len(args) == 0 {
			return nil, fmt.Errorf("%s: missing payload", name)
		}
		var p chessdto.MovePayload
		if err := json.Unmarshal(args[0], &p); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return OpponentMove{From: p.From, To: p.To, Promotion: p.Promotion}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, name)
	}
}

func firstString(args []json.RawMessage) (string, error) {
	if len(args) == 0 {
		return "", errors.New("missing argument")
	}
	var s string
	if err := json.Unmarshal(args[0], &s); err != nil {
		return "", fmt.Errorf("expected string argument: %w", err)
	}
	return s, nil
}

func connectErrorReason(args []json.RawMessage) string {
	if len(args) == 0 {
		return "unknown"
	}
	var ce chessdto.ConnectError
	if err := json.Unmarshal(args[0], &ce); err == nil && ce.Message != "" {
		return ce.Message
	}
	if s, err := firstString(args); err == nil && s != "" {
		return s
	}
	return string(args[0])
}
