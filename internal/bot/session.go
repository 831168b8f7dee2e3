package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/cheese-random-bot/internal/chess"
	"github.com/park285/cheese-random-bot/internal/msgcat"
	"github.com/park285/cheese-random-bot/internal/sockio"
	"github.com/park285/cheese-random-bot/pkg/chessdto"
)

// Emitter sends one outbound event.
type Emitter interface {
	Emit(ctx context.Context, event string, payload any) error
}

// Registrar accepts per-event handlers.
type Registrar interface {
	On(event string, h sockio.Handler)
}

// Selector picks one move out of the legal set.
type Selector interface {
	Select(moves []chess.Move) (chess.Move, error)
}

// Messages renders human-readable log lines.
type Messages interface {
	Text(key string, data any) string
}

// Session tracks one seat at one game and answers every turn with a random legal move.
type Session struct {
	mu       sync.Mutex
	id       string
	board    *chess.Board
	selector Selector
	emitter  Emitter
	role     chess.Role
	msgs     Messages
	log      *zap.Logger
}

type Option func(*Session)

func WithBoard(b *chess.Board) Option {
	return func(s *Session) {
		if b != nil {
			s.board = b
		}
	}
}

func WithSelector(sel Selector) Option {
	return func(s *Session) {
		if sel != nil {
			s.selector = sel
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

func WithMessages(m Messages) Option {
	return func(s *Session) {
		if m != nil {
			s.msgs = m
		}
	}
}

// NewSession builds a session that emits through e.
func NewSession(e Emitter, opts ...Option) *Session {
	s := &Session{
		id:      uuid.NewString(),
		emitter: e,
		role:    chess.RoleUnassigned,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.board == nil {
		s.board = chess.NewBoard()
	}
	if s.selector == nil {
		s.selector = chess.NewSelector()
	}
	if s.msgs == nil {
		cat, err := msgcat.New("")
		if err != nil {
			s.log.Warn("message catalog unavailable", zap.Error(err))
		}
		s.msgs = cat
	}
	s.log = s.log.With(zap.String("session_id", s.id))
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) Role() chess.Role {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.role
}

// FEN returns the tracked position.
func (s *Session) FEN() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board.FEN()
}

// Bind registers a handler for every event the session understands.
func (s *Session) Bind(r Registrar) {
	names := []string{
		sockio.EventConnect,
		sockio.EventConnectError,
		sockio.EventDisconnect,
		EventPlayerRole,
		EventSpectatorRole,
		EventBoardState,
		EventMove,
	}
	for _, name := range names {
		r.On(name, s.handlerFor(name))
	}
}

func (s *Session) handlerFor(name string) sockio.Handler {
	return func(ctx context.Context, args []json.RawMessage) {
		ev, err := DecodeEvent(name, args)
		if err != nil {
			s.log.Warn("drop undecodable event", zap.String("event", name), zap.Error(err))
			return
		}
		// failures are logged inside Handle
		_ = s.Handle(ctx, ev)
	}
}

// Handle applies one event. Every returned error has been logged; none is fatal.
func (s *Session) Handle(ctx context.Context, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch e := ev.(type) {
	case Connected:
		s.log.Info(s.msgs.Text("socket.connected", nil))
	case ConnectFailed:
		s.log.Warn(s.msgs.Text("socket.connect_failed", map[string]any{"Reason": e.Reason}),
			zap.String("reason", e.Reason))
	case Disconnected:
		s.log.Info(s.msgs.Text("socket.disconnected", map[string]any{"Reason": e.Reason}),
			zap.String("reason", e.Reason))
	case RoleAssigned:
		s.assignRole(e.Role)
	case SpectatorAssigned:
		s.log.Info(s.msgs.Text("role.spectator", nil))
		if s.role == chess.RoleUnassigned {
			s.role = chess.RoleSpectator
		}
	case BoardState:
		return s.onBoardState(ctx, e.FEN)
	case OpponentMove:
		return s.onOpponentMove(e)
	default:
		err := fmt.Errorf("%w: %T", ErrUnknownEvent, ev)
		s.log.Warn("drop unknown event", zap.Error(err))
		return err
	}
	return nil
}

func (s *Session) assignRole(role chess.Role) {
	if s.role != chess.RoleUnassigned {
		s.log.Info(s.msgs.Text("role.ignored", map[string]any{"Role": role.Title(), "Current": s.role.Title()}),
			zap.String("role", string(role)), zap.String("current", string(s.role)))
		return
	}
	s.role = role
	s.log.Info(s.msgs.Text("role.assigned", map[string]any{"Role": role.Title()}), zap.String("role", string(role)))
}

func (s *Session) onBoardState(ctx context.Context, fen string) error {
	if err := s.board.ResetFromFEN(fen); err != nil {
		s.log.Warn(s.msgs.Text("board.malformed", map[string]any{"FEN": fen, "Error": err.Error()}),
			zap.String("fen", fen), zap.Error(err))
		return err
	}
	s.log.Info(s.msgs.Text("board.updated", map[string]any{"FEN": fen}), zap.String("fen", fen))

	if !s.role.IsPlayer() || s.board.SideToMove() != s.role {
		return nil
	}
	return s.playTurn(ctx)
}

func (s *Session) onOpponentMove(e OpponentMove) error {
	mv := e.Move()
	if err := s.board.Apply(mv); err != nil {
		s.log.Warn(s.msgs.Text("move.invalid", map[string]any{"Move": mv.UCI(), "Error": err.Error()}),
			zap.String("move", mv.UCI()), zap.String("fen", s.board.FEN()), zap.Error(err))
		return err
	}
	s.log.Info(s.msgs.Text("move.opponent", map[string]any{"Move": mv.UCI()}),
		zap.String("move", mv.UCI()), zap.String("fen", s.board.FEN()))
	return nil
}

func (s *Session) playTurn(ctx context.Context) error {
	if s.board.IsTerminal() {
		result, method := s.board.Outcome()
		s.log.Info(s.msgs.Text("game.over", map[string]any{"Result": result, "Method": method}),
			zap.String("result", result), zap.String("method", method), zap.String("fen", s.board.FEN()))
		return nil
	}

	mv, err := s.selector.Select(s.board.LegalMoves())
	if err != nil {
		s.log.Warn(s.msgs.Text("move.select_failed", map[string]any{"Error": err.Error()}),
			zap.String("fen", s.board.FEN()), zap.Error(err))
		return err
	}
	if err := s.board.Apply(mv); err != nil {
		s.log.Warn(s.msgs.Text("move.apply_failed", map[string]any{"Move": mv.UCI(), "Error": err.Error()}),
			zap.String("move", mv.UCI()), zap.String("fen", s.board.FEN()), zap.Error(err))
		return err
	}

	payload := chessdto.MovePayload{From: mv.From, To: mv.To, Promotion: chessdto.DefaultPromotion}
	if err := s.emitter.Emit(ctx, EventMove, payload); err != nil {
		s.log.Warn(s.msgs.Text("move.emit_failed", map[string]any{"Move": mv.UCI(), "Error": err.Error()}),
			zap.String("move", mv.UCI()), zap.Error(err))
		return err
	}
	s.log.Info(s.msgs.Text("move.played", map[string]any{"Move": mv.UCI()}),
		zap.String("move", mv.UCI()), zap.String("fen", s.board.FEN()))
	return nil
}
