package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

type AppConfig struct {
	ServerURL string
	Path      string
	Namespace string

	ReconnectAttempts int
	ReconnectDelay    time.Duration
	ConnectTimeout    time.Duration

	MessagesDir string
}

// fileConfig mirrors AppConfig in the optional YAML file named by CHESS_BOT_CONFIG.
type fileConfig struct {
	ServerURL         string `yaml:"server_url"`
	SocketIOPath      string `yaml:"socketio_path"`
	Namespace         string `yaml:"namespace"`
	ReconnectAttempts *int   `yaml:"reconnect_attempts"`
	ReconnectDelayMS  *int   `yaml:"reconnect_delay_ms"`
	ConnectTimeoutSec *int   `yaml:"connect_timeout_sec"`
	MessagesDir       string `yaml:"messages_dir"`
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		ServerURL:         "http://localhost:3000",
		Path:              "/socket.io/",
		Namespace:         "/",
		ReconnectAttempts: 0,
		ReconnectDelay:    time.Second,
		ConnectTimeout:    10 * time.Second,
	}

	if p := strings.TrimSpace(os.Getenv("CHESS_BOT_CONFIG")); p != "" {
		if err := cfg.applyFile(p); err != nil {
			return nil, err
		}
	}

	if v := strings.TrimSpace(os.Getenv("CHESS_SERVER_URL")); v != "" {
		cfg.ServerURL = v
	}
	if v := strings.TrimSpace(os.Getenv("SOCKETIO_PATH")); v != "" {
		cfg.Path = v
	}
	if v := strings.TrimSpace(os.Getenv("SOCKETIO_NAMESPACE")); v != "" {
		cfg.Namespace = v
	}
	if v := strings.TrimSpace(os.Getenv("RECONNECT_ATTEMPTS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.ReconnectAttempts = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("RECONNECT_DELAY_MS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ReconnectDelay = time.Duration(n) * time.Millisecond
		}
	}
	if v := strings.TrimSpace(os.Getenv("CONNECT_TIMEOUT_SEC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ConnectTimeout = time.Duration(n) * time.Second
		}
	}
	if v := strings.TrimSpace(os.Getenv("MESSAGES_DIR")); v != "" {
		cfg.MessagesDir = v
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) applyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if s := strings.TrimSpace(fc.ServerURL); s != "" {
		c.ServerURL = s
	}
	if s := strings.TrimSpace(fc.SocketIOPath); s != "" {
		c.Path = s
	}
	if s := strings.TrimSpace(fc.Namespace); s != "" {
		c.Namespace = s
	}
	if fc.ReconnectAttempts != nil && *fc.ReconnectAttempts >= 0 {
		c.ReconnectAttempts = *fc.ReconnectAttempts
	}
	if fc.ReconnectDelayMS != nil && *fc.ReconnectDelayMS > 0 {
		c.ReconnectDelay = time.Duration(*fc.ReconnectDelayMS) * time.Millisecond
	}
	if fc.ConnectTimeoutSec != nil && *fc.ConnectTimeoutSec > 0 {
		c.ConnectTimeout = time.Duration(*fc.ConnectTimeoutSec) * time.Second
	}
	if s := strings.TrimSpace(fc.MessagesDir); s != "" {
		c.MessagesDir = s
	}
	return nil
}

func (c *AppConfig) validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return fmt.Errorf("CHESS_SERVER_URL: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https", "ws", "wss":
	default:
		return fmt.Errorf("CHESS_SERVER_URL must be http(s) or ws(s), got %q", c.ServerURL)
	}
	if u.Host == "" {
		return errors.New("CHESS_SERVER_URL has no host")
	}
	if !strings.HasPrefix(c.Namespace, "/") {
		return fmt.Errorf("SOCKETIO_NAMESPACE must start with '/', got %q", c.Namespace)
	}
	return nil
}
