package sockio

import (
	"context"
	"encoding/json"
)

// Reserved event names fired by the client itself.
const (
	EventConnect      = "connect"
	EventConnectError = "connect_error"
	EventDisconnect   = "disconnect"
)

// Handler receives the raw arguments of an event, in order.
type Handler func(ctx context.Context, args []json.RawMessage)

type StateCallback func(state ConnState)

// EventClient is the surface the bot needs from a Socket.IO connection.
type EventClient interface {
	Connect(ctx context.Context) error
	On(event string, h Handler)
	Emit(ctx context.Context, event string, payload any) error
	OnStateChange(cb StateCallback) int
	RemoveStateCallback(id int)
	RunUntilClosed(ctx context.Context) error
	Close(ctx context.Context) error
}

// ConnState is the connection lifecycle.
//
//	disconnected -> connecting -> connected -> reconnecting -> connected ...
//	                                        \-> closed | failed
type ConnState string

const (
	StateDisconnected ConnState = "disconnected"
	StateConnecting   ConnState = "connecting"
	StateConnected    ConnState = "connected"
	StateReconnecting ConnState = "reconnecting"
	StateClosed       ConnState = "closed"
	StateFailed       ConnState = "failed"
)

func (s ConnState) String() string { return string(s) }

// Terminal reports whether no further transitions will happen.
func (s ConnState) Terminal() bool { return s == StateClosed || s == StateFailed }

var _ EventClient = (*Client)(nil)
