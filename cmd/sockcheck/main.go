package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/park285/cheese-random-bot/internal/sockio"
)

// sockcheck probes a game server with an Engine.IO polling handshake, then
// joins over WebSocket and prints every event for a short window.
func main() {
	serverURL := strings.TrimSpace(os.Getenv("CHESS_SERVER_URL"))
	path := strings.TrimSpace(os.Getenv("SOCKETIO_PATH"))
	namespace := strings.TrimSpace(os.Getenv("SOCKETIO_NAMESPACE"))

	if serverURL == "" {
		log.Fatal("CHESS_SERVER_URL is required")
	}

	prober := sockio.NewProber(sockio.WithProbeTimeout(5*time.Second), sockio.WithProbePath(path))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	hs, err := prober.Probe(ctx, serverURL)
	if err != nil {
		log.Printf("polling handshake error: %v", err)
	} else {
		log.Printf("polling handshake ok: sid=%s upgrades=%v pingInterval=%d pingTimeout=%d maxPayload=%d",
			hs.SID, hs.Upgrades, hs.PingInterval, hs.PingTimeout, hs.MaxPayload)
	}

	opts := []sockio.Option{}
	if path != "" {
		opts = append(opts, sockio.WithPath(path))
	}
	if namespace != "" {
		opts = append(opts, sockio.WithNamespace(namespace))
	}
	ws := sockio.NewClient(serverURL, opts...)
	ws.OnStateChange(func(state sockio.ConnState) {
		log.Printf("WS state: %s", state)
	})
	for _, name := range []string{"connect", "connect_error", "disconnect", "playerRole", "spectatorRole", "boardState", "move"} {
		name := name
		ws.On(name, func(_ context.Context, args []json.RawMessage) {
			parts := make([]string, 0, len(args))
			for _, a := range args {
				parts = append(parts, string(a))
			}
			fmt.Printf("WS event %s %s\n", name, strings.Join(parts, " "))
		})
	}

	cctx, ccancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer ccancel()
	if err := ws.Connect(cctx); err != nil {
		log.Printf("WS connect error: %v", err)
		return
	}

	// Observe for a short window
	octx, ocancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer ocancel()
	_ = ws.RunUntilClosed(octx)

	_ = ws.Close(context.Background())
}
