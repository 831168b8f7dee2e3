package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/park285/cheese-random-bot/internal/bot"
	appcfg "github.com/park285/cheese-random-bot/internal/config"
	"github.com/park285/cheese-random-bot/internal/msgcat"
	"github.com/park285/cheese-random-bot/internal/obslog"
	"github.com/park285/cheese-random-bot/internal/sockio"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer obslog.Sync()
	logger := obslog.L()

	msgs, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		log.Fatalf("message catalog error: %v", err)
	}

	var client sockio.EventClient = sockio.NewClient(cfg.ServerURL,
		sockio.WithPath(cfg.Path),
		sockio.WithNamespace(cfg.Namespace),
		sockio.WithReconnect(cfg.ReconnectAttempts, cfg.ReconnectDelay),
		sockio.WithDialTimeout(cfg.ConnectTimeout),
		sockio.WithLogger(logger),
	)
	stateCb := client.OnStateChange(func(state sockio.ConnState) {
		logger.Debug("socket state", zap.String("state", state.String()))
	})
	defer client.RemoveStateCallback(stateCb)

	session := bot.NewSession(client, bot.WithLogger(logger), bot.WithMessages(msgs))
	session.Bind(client)

	logger.Info(msgs.Text("socket.connecting", map[string]any{"Endpoint": cfg.ServerURL}),
		zap.String("session_id", session.ID()))

	cctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	if err := client.Connect(cctx); err != nil {
		// connect_error handler already reported it; a reconnect may still be pending
		logger.Debug("initial connect failed", zap.Error(err))
	}
	cancel()

	runCtx, stop := context.WithCancel(context.Background())
	defer stop()
	runDone := make(chan error, 1)
	go func() { runDone <- client.RunUntilClosed(runCtx) }()

	// Wait for termination signal or the connection to end
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-runDone:
		if err != nil {
			logger.Warn("session ended", zap.Error(err))
		}
	}

	closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCancel()
	_ = client.Close(closeCtx)
}
