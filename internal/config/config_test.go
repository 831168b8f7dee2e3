package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CHESS_BOT_CONFIG", "CHESS_SERVER_URL", "SOCKETIO_PATH", "SOCKETIO_NAMESPACE",
		"RECONNECT_ATTEMPTS", "RECONNECT_DELAY_MS", "CONNECT_TIMEOUT_SEC", "MESSAGES_DIR",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServerURL != "http://localhost:3000" || cfg.Path != "/socket.io/" || cfg.Namespace != "/" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.ReconnectAttempts != 0 || cfg.ReconnectDelay != time.Second || cfg.ConnectTimeout != 10*time.Second {
		t.Fatalf("unexpected timing defaults: %+v", cfg)
	}
}

func TestLoad_Env(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHESS_SERVER_URL", " wss://chess.example.com ")
	t.Setenv("SOCKETIO_NAMESPACE", "/game")
	t.Setenv("RECONNECT_ATTEMPTS", "3")
	t.Setenv("RECONNECT_DELAY_MS", "250")
	t.Setenv("CONNECT_TIMEOUT_SEC", "bogus")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServerURL != "wss://chess.example.com" || cfg.Namespace != "/game" {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if cfg.ReconnectAttempts != 3 || cfg.ReconnectDelay != 250*time.Millisecond {
		t.Fatalf("reconnect env not applied: %+v", cfg)
	}
	if cfg.ConnectTimeout != 10*time.Second {
		t.Fatalf("invalid timeout should keep default, got %v", cfg.ConnectTimeout)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bot.yaml")
	body := "server_url: http://files.example:8080\nnamespace: /from-file\nreconnect_attempts: 5\nconnect_timeout_sec: 2\nmessages_dir: /etc/bot/messages\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("CHESS_BOT_CONFIG", path)
	t.Setenv("SOCKETIO_NAMESPACE", "/from-env")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServerURL != "http://files.example:8080" || cfg.ReconnectAttempts != 5 || cfg.ConnectTimeout != 2*time.Second {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Namespace != "/from-env" {
		t.Fatalf("env should win over file, got %q", cfg.Namespace)
	}
	if cfg.MessagesDir != "/etc/bot/messages" {
		t.Fatalf("messages dir = %q", cfg.MessagesDir)
	}
}

func TestLoad_Errors(t *testing.T) {
	cases := map[string]map[string]string{
		"scheme":    {"CHESS_SERVER_URL": "ftp://localhost"},
		"host":      {"CHESS_SERVER_URL": "http://"},
		"namespace": {"SOCKETIO_NAMESPACE": "game"},
		"file":      {"CHESS_BOT_CONFIG": filepath.Join(t.TempDir(), "missing.yaml")},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoad_BadYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("server_url: [unterminated\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("CHESS_BOT_CONFIG", path)
	if _, err := Load(); err == nil {
		t.Fatalf("expected parse error")
	}
}
