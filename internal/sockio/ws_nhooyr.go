package sockio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/park285/cheese-random-bot/pkg/chessdto"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

var (
	ErrNotConnected    = errors.New("socket not connected")
	ErrClosed          = errors.New("socket closed")
	ErrConnectRejected = errors.New("namespace connection rejected")
	ErrReconnectFailed = errors.New("reconnect attempts exhausted")
)

// HeaderProvider allows injecting handshake headers
type HeaderProvider func() map[string]string

type stateCallbackEntry struct {
	id       int
	callback StateCallback
}

// Client is a Socket.IO v4 client over a single WebSocket.
type Client struct {
	endpoint  string
	path      string
	namespace string

	conn      *websocket.Conn
	connDone  chan struct{}
	dropM     sync.Mutex
	dropCause string
	connM     sync.RWMutex
	state     ConnState
	stateM    sync.RWMutex
	handshake chessdto.Handshake
	nsAck     chessdto.NamespaceAck

	handlers map[string]Handler
	stateCbs []stateCallbackEntry
	nextCbID int
	cbM      sync.RWMutex

	maxReconnectAttempts int
	reconnectDelay       time.Duration
	dialTimeout          time.Duration

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	done     chan struct{}
	doneOnce sync.Once
	closeErr error

	rootCtx    context.Context
	rootCancel context.CancelFunc

	headerProvider HeaderProvider
	logger         *zap.Logger
}

type Option func(*Client)

func WithNamespace(ns string) Option {
	return func(c *Client) {
		ns = strings.TrimSpace(ns)
		if ns == "" {
			ns = defaultNamespace
		}
		if !strings.HasPrefix(ns, "/") {
			ns = "/" + ns
		}
		c.namespace = ns
	}
}

func WithPath(p string) Option {
	return func(c *Client) {
		if strings.TrimSpace(p) != "" {
			c.path = p
		}
	}
}

// WithReconnect enables reconnection; attempts <= 0 keeps the default of never retrying.
func WithReconnect(attempts int, delay time.Duration) Option {
	return func(c *Client) {
		c.maxReconnectAttempts = attempts
		if delay > 0 {
			c.reconnectDelay = delay
		}
	}
}

func WithDialTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.dialTimeout = d
		}
	}
}

func WithHeaderProvider(h HeaderProvider) Option {
	return func(c *Client) { c.headerProvider = h }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

func NewClient(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint:       strings.TrimRight(strings.TrimSpace(endpoint), "/"),
		path:           "/socket.io/",
		namespace:      defaultNamespace,
		state:          StateDisconnected,
		handlers:       make(map[string]Handler),
		stateCbs:       make([]stateCallbackEntry, 0),
		reconnectDelay: time.Second,
		dialTimeout:    10 * time.Second,
		stopCh:         make(chan struct{}),
		done:           make(chan struct{}),
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.rootCtx, c.rootCancel = context.WithCancel(context.Background())
	return c
}

// Connect dials the endpoint and joins the namespace. The connect or
// connect_error handler fires before Connect returns.
func (c *Client) Connect(ctx context.Context) error {
	switch c.State() {
	case StateConnected, StateConnecting, StateReconnecting:
		return nil
	case StateClosed, StateFailed:
		return ErrClosed
	}
	c.setState(StateConnecting)

	if err := c.dialAndJoin(ctx); err != nil {
		c.setState(StateDisconnected)
		c.fire(EventConnectError, connectErrorArgs(err))
		c.scheduleReconnect(err)
		return err
	}
	c.startConn()
	return nil
}

func (c *Client) dialAndJoin(ctx context.Context) error {
	wsURL, err := c.socketURL()
	if err != nil {
		return err
	}
	dialCtx, cancel := context.WithTimeout(ctx, c.dialTimeout)
	defer cancel()

	conn, _, err := websocket.Dial(dialCtx, wsURL, &websocket.DialOptions{
		HTTPHeader: c.buildHeaders(),
	})
	if err != nil {
		return fmt.Errorf("dial %s: %w", wsURL, err)
	}
	hs, ack, err := c.join(dialCtx, conn)
	if err != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "handshake failed")
		return err
	}

	c.connM.Lock()
	c.conn = conn
	c.connDone = make(chan struct{})
	c.handshake = hs
	c.nsAck = ack
	c.connM.Unlock()
	c.logger.Debug("socket_joined",
		zap.String("namespace", c.namespace),
		zap.String("engine_sid", hs.SID),
		zap.String("namespace_sid", ack.SID))
	c.dropM.Lock()
	c.dropCause = ""
	c.dropM.Unlock()
	return nil
}

// join reads the Engine.IO open packet and performs the namespace CONNECT.
func (c *Client) join(ctx context.Context, conn *websocket.Conn) (chessdto.Handshake, chessdto.NamespaceAck, error) {
	var (
		hs  chessdto.Handshake
		ack chessdto.NamespaceAck
	)
	t, body, err := readFrame(ctx, conn)
	if err != nil {
		return hs, ack, fmt.Errorf("read open packet: %w", err)
	}
	if t != EngineOpen {
		return hs, ack, fmt.Errorf("%w: expected open packet, got %q", ErrMalformedPacket, rune(t))
	}
	if err := json.Unmarshal(body, &hs); err != nil {
		return hs, ack, fmt.Errorf("decode open packet: %w", err)
	}
	if hs.MaxPayload > 0 {
		conn.SetReadLimit(int64(hs.MaxPayload))
	}

	connect := Packet{Type: PacketConnect, Namespace: c.namespace}
	if err := conn.Write(ctx, websocket.MessageText, []byte(connect.Encode())); err != nil {
		return hs, ack, fmt.Errorf("send namespace connect: %w", err)
	}

	for {
		t, body, err := readFrame(ctx, conn)
		if err != nil {
			return hs, ack, fmt.Errorf("await namespace ack: %w", err)
		}
		switch t {
		case EnginePing:
			if err := conn.Write(ctx, websocket.MessageText, []byte(EncodeEngine(EnginePong, ""))); err != nil {
				return hs, ack, fmt.Errorf("send pong: %w", err)
			}
			continue
		case EngineClose:
			return hs, ack, fmt.Errorf("%w: transport closed during handshake", ErrConnectRejected)
		case EngineMessage:
		default:
			continue
		}
		p, err := DecodePacket(body)
		if err != nil {
			return hs, ack, err
		}
		if p.Namespace != c.namespace {
			continue
		}
		switch p.Type {
		case PacketConnect:
			if len(p.Data) > 0 {
				if err := json.Unmarshal(p.Data, &ack); err != nil {
					return hs, ack, fmt.Errorf("decode namespace ack: %w", err)
				}
			}
			return hs, ack, nil
		case PacketConnectError:
			var ce chessdto.ConnectError
			if len(p.Data) > 0 {
				if jerr := json.Unmarshal(p.Data, &ce); jerr != nil {
					ce.Message = string(p.Data)
				}
			}
			return hs, ack, fmt.Errorf("%w: %w", ErrConnectRejected, ce)
		}
	}
}

func readFrame(ctx context.Context, conn *websocket.Conn) (EngineType, []byte, error) {
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return 0, nil, err
		}
		if typ != websocket.MessageText {
			continue
		}
		return DecodeEngine(data)
	}
}

func (c *Client) startConn() {
	c.setState(StateConnected)
	c.fire(EventConnect, nil)

	c.connM.RLock()
	conn, done := c.conn, c.connDone
	interval := time.Duration(c.handshake.PingInterval+c.handshake.PingTimeout) * time.Millisecond
	c.connM.RUnlock()

	beat := make(chan struct{}, 1)
	c.wg.Add(2)
	go c.listen(conn, done, beat)
	go c.watchHeartbeat(conn, done, beat, interval)
}

func (c *Client) listen(conn *websocket.Conn, done chan struct{}, beat chan<- struct{}) {
	defer c.wg.Done()
	defer close(done)
	for {
		t, body, err := readFrame(c.rootCtx, conn)
		if err != nil {
			if errors.Is(err, ErrMalformedPacket) {
				c.logger.Warn("socket_frame_malformed", zap.Error(err))
				continue
			}
			if c.isStopping() {
				return
			}
			c.handleDrop(conn, c.takeDropCause("transport error"))
			return
		}

		switch t {
		case EnginePing:
			select {
			case beat <- struct{}{}:
			default:
			}
			if err := conn.Write(c.rootCtx, websocket.MessageText, []byte(EncodeEngine(EnginePong, ""))); err != nil {
				c.logger.Warn("socket_pong_failed", zap.Error(err))
			}
		case EngineClose:
			c.handleDrop(conn, "transport close")
			return
		case EngineMessage:
			if c.handleMessage(body) {
				c.handleDrop(conn, "io server disconnect")
				return
			}
		}
	}
}

// handleMessage dispatches a Socket.IO packet. It returns true when the server
// disconnected the namespace.
func (c *Client) handleMessage(body []byte) bool {
	p, err := DecodePacket(body)
	if err != nil {
		c.logger.Warn("socket_packet_malformed", zap.Error(err))
		return false
	}
	if p.Namespace != c.namespace {
		return false
	}
	switch p.Type {
	case PacketEvent:
		name, args, err := p.EventArgs()
		if err != nil {
			c.logger.Warn("socket_event_malformed", zap.Error(err))
			return false
		}
		c.fire(name, args)
	case PacketDisconnect:
		return true
	case PacketConnectError:
		c.fire(EventConnectError, []json.RawMessage{p.Data})
	case PacketBinaryEvent, PacketBinaryAck:
		c.logger.Debug("socket_binary_ignored", zap.Int("attachments", p.Attachments))
	}
	return false
}

// watchHeartbeat closes the connection when the server stops pinging.
func (c *Client) watchHeartbeat(conn *websocket.Conn, done <-chan struct{}, beat <-chan struct{}, interval time.Duration) {
	defer c.wg.Done()
	if interval <= 0 {
		<-done
		return
	}
	t := time.NewTimer(interval)
	defer t.Stop()
	for {
		select {
		case <-done:
			return
		case <-beat:
			if !t.Stop() {
				select {
				case <-t.C:
				default:
				}
			}
			t.Reset(interval)
		case <-t.C:
			c.setDropCause("ping timeout")
			_ = conn.Close(websocket.StatusGoingAway, "ping timeout")
			return
		}
	}
}

func (c *Client) setDropCause(reason string) {
	c.dropM.Lock()
	if c.dropCause == "" {
		c.dropCause = reason
	}
	c.dropM.Unlock()
}

func (c *Client) takeDropCause(fallback string) string {
	c.dropM.Lock()
	defer c.dropM.Unlock()
	if c.dropCause != "" {
		return c.dropCause
	}
	return fallback
}

func (c *Client) handleDrop(conn *websocket.Conn, reason string) {
	c.setState(StateDisconnected)
	_ = conn.Close(websocket.StatusGoingAway, reason)
	c.connM.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	c.connM.Unlock()
	c.fire(EventDisconnect, stringArgs(reason))
	c.scheduleReconnect(fmt.Errorf("%w: %s", ErrNotConnected, reason))
}

// scheduleReconnect retries with exponential backoff, or finishes the client
// when reconnection is disabled.
func (c *Client) scheduleReconnect(cause error) {
	if c.isStopping() {
		return
	}
	if c.maxReconnectAttempts <= 0 {
		if errors.Is(cause, ErrNotConnected) {
			c.finish(StateClosed, nil)
			return
		}
		c.finish(StateFailed, cause)
		return
	}
	c.setState(StateReconnecting)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for attempt := 1; attempt <= c.maxReconnectAttempts; attempt++ {
			select {
			case <-c.stopCh:
				return
			case <-time.After(c.backoffDuration(attempt)):
			}

			err := c.dialAndJoin(c.rootCtx)
			if err != nil {
				c.logger.Warn("socket_reconnect_failed", zap.Int("attempt", attempt), zap.Error(err))
				c.fire(EventConnectError, connectErrorArgs(err))
				continue
			}
			if c.isStopping() {
				c.closeConn(websocket.StatusNormalClosure, "close")
				return
			}
			c.logger.Info("socket_reconnected", zap.Int("attempt", attempt))
			c.startConn()
			return
		}
		c.finish(StateFailed, ErrReconnectFailed)
	}()
}

func (c *Client) backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	return time.Duration(1<<uint(attempt-1)) * c.reconnectDelay
}

// On registers the handler for event, replacing any previous one.
func (c *Client) On(event string, h Handler) {
	c.cbM.Lock()
	defer c.cbM.Unlock()
	if h == nil {
		delete(c.handlers, event)
		return
	}
	c.handlers[event] = h
}

func (c *Client) fire(event string, args []json.RawMessage) {
	c.cbM.RLock()
	h := c.handlers[event]
	c.cbM.RUnlock()
	if h == nil {
		c.logger.Debug("socket_event_unhandled", zap.String("event", event))
		return
	}
	h(c.rootCtx, args)
}

func (c *Client) OnStateChange(cb StateCallback) int {
	c.cbM.Lock()
	defer c.cbM.Unlock()
	c.nextCbID++
	id := c.nextCbID
	c.stateCbs = append(c.stateCbs, stateCallbackEntry{id: id, callback: cb})
	return id
}

func (c *Client) RemoveStateCallback(id int) {
	c.cbM.Lock()
	defer c.cbM.Unlock()
	for i, cb := range c.stateCbs {
		if cb.id == id {
			c.stateCbs = append(c.stateCbs[:i], c.stateCbs[i+1:]...)
			break
		}
	}
}

func (c *Client) State() ConnState {
	c.stateM.RLock()
	defer c.stateM.RUnlock()
	return c.state
}

// NamespaceAck returns the namespace CONNECT reply of the current connection.
func (c *Client) NamespaceAck() chessdto.NamespaceAck {
	c.connM.RLock()
	defer c.connM.RUnlock()
	return c.nsAck
}

// Handshake returns the open packet of the current connection.
func (c *Client) Handshake() chessdto.Handshake {
	c.connM.RLock()
	defer c.connM.RUnlock()
	return c.handshake
}

func (c *Client) setState(state ConnState) {
	c.stateM.Lock()
	if c.state.Terminal() || c.state == state {
		c.stateM.Unlock()
		return
	}
	c.state = state
	c.stateM.Unlock()

	c.cbM.RLock()
	callbacks := make([]stateCallbackEntry, len(c.stateCbs))
	copy(callbacks, c.stateCbs)
	c.cbM.RUnlock()
	for _, entry := range callbacks {
		if entry.callback != nil {
			entry.callback(state)
		}
	}
}

func (c *Client) finish(state ConnState, err error) {
	c.doneOnce.Do(func() {
		c.closeErr = err
		c.setState(state)
		close(c.done)
	})
}

// RunUntilClosed blocks until the connection reaches a terminal state or ctx ends.
func (c *Client) RunUntilClosed(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return c.closeErr
	}
}

// Close leaves the namespace and closes the socket.
func (c *Client) Close(ctx context.Context) error {
	wasConnected := c.State() == StateConnected
	c.stopOnce.Do(func() { close(c.stopCh) })

	c.connM.RLock()
	conn := c.conn
	c.connM.RUnlock()
	if conn != nil {
		wctx, cancel := context.WithTimeout(ctx, time.Second)
		leave := Packet{Type: PacketDisconnect, Namespace: c.namespace}
		_ = conn.Write(wctx, websocket.MessageText, []byte(leave.Encode()))
		cancel()
	}
	c.closeConn(websocket.StatusNormalClosure, "close")
	c.rootCancel()

	waited := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(waited)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-waited:
	}
	if wasConnected {
		c.fire(EventDisconnect, stringArgs("io client disconnect"))
	}
	c.finish(StateClosed, nil)
	return nil
}

func (c *Client) closeConn(code websocket.StatusCode, reason string) {
	c.connM.Lock()
	conn := c.conn
	c.conn = nil
	c.connM.Unlock()
	if conn != nil {
		_ = conn.Close(code, reason)
	}
}

func (c *Client) isStopping() bool {
	select {
	case <-c.stopCh:
		return true
	default:
		return false
	}
}

func (c *Client) socketURL() (string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	u.Path = c.path
	q := url.Values{}
	q.Set("EIO", "4")
	q.Set("transport", "websocket")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Client) buildHeaders() http.Header {
	hdr := http.Header{}
	if c.headerProvider == nil {
		return hdr
	}
	for k, v := range c.headerProvider() {
		if strings.TrimSpace(k) == "" || strings.TrimSpace(v) == "" {
			continue
		}
		hdr.Set(k, v)
	}
	return hdr
}

func stringArgs(s string) []json.RawMessage {
	raw, _ := json.Marshal(s)
	return []json.RawMessage{raw}
}

func connectErrorArgs(err error) []json.RawMessage {
	var ce chessdto.ConnectError
	if !errors.As(err, &ce) {
		ce = chessdto.ConnectError{Message: err.Error()}
	}
	raw, _ := json.Marshal(ce)
	return []json.RawMessage{raw}
}
