package sockio

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/park285/cheese-random-bot/pkg/chessdto"
	"github.com/valyala/fasthttp"
)

// Prober performs an Engine.IO long-polling handshake to check that a
// Socket.IO server is reachable without opening a WebSocket.
type Prober struct {
	http           *fasthttp.Client
	path           string
	defaultTimeout time.Duration
}

type ProbeOption func(*Prober)

func WithProbeTimeout(d time.Duration) ProbeOption {
	return func(p *Prober) {
		if d > 0 {
			p.defaultTimeout = d
		}
	}
}

func WithProbePath(path string) ProbeOption {
	return func(p *Prober) {
		if strings.TrimSpace(path) != "" {
			p.path = path
		}
	}
}

func NewProber(opts ...ProbeOption) *Prober {
	p := &Prober{
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second},
		path:           "/socket.io/",
		defaultTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Probe returns the open packet advertised by the server at endpoint.
func (p *Prober) Probe(ctx context.Context, endpoint string) (*chessdto.Handshake, error) {
	pollURL, err := p.pollingURL(endpoint)
	if err != nil {
		return nil, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()
	req.Header.SetMethod(fasthttp.MethodGet)
	req.SetRequestURI(pollURL)

	if err := p.http.DoDeadline(req, resp, p.computeDeadline(ctx)); err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	status := resp.StatusCode()
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("handshake error: status=%d body=%s", status, truncate(string(resp.Body()), 512))
	}

	// A polling payload may batch several packets separated by 0x1e.
	first := strings.SplitN(string(resp.Body()), "\x1e", 2)[0]
	t, body, err := DecodeEngine([]byte(first))
	if err != nil {
		return nil, err
	}
	if t != EngineOpen {
		return nil, fmt.Errorf("%w: expected open packet, got %q", ErrMalformedPacket, rune(t))
	}
	var hs chessdto.Handshake
	if err := json.Unmarshal(body, &hs); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &hs, nil
}

func (p *Prober) pollingURL(endpoint string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(endpoint))
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "http"
	case "https", "wss":
		u.Scheme = "https"
	default:
		return "", fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	u.Path = p.path
	q := url.Values{}
	q.Set("EIO", "4")
	q.Set("transport", "polling")
	q.Set("t", fmt.Sprintf("%x", time.Now().UnixNano()))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (p *Prober) computeDeadline(ctx context.Context) time.Time {
	if dl, ok := ctx.Deadline(); ok {
		clientDL := time.Now().Add(p.defaultTimeout)
		if dl.Before(clientDL) {
			return dl
		}
		return clientDL
	}
	return time.Now().Add(p.defaultTimeout)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
