package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Token      string // gateway auth token (required)
	GatewayURL string // ex: "wss://gateway.juju.chat/v1"

	Prefix      string // command prefix, ex: ">>"
	AdminRoleID string // role allowed to mutate the game list ("" = nobody)

	DataDir    string // directory holding games.json / suggestions.json
	ListenPort string // ops HTTP listen address, ex: ":8080"

	SelectTimeout time.Duration // window for a selection reply (default 30s)
	SearchLimit   int           // storefront search result cap (default 5)

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	ShutdownTimeout time.Duration
}

// fileConfig mirrors the optional YAML config file. Env vars override any
// value set here; the token may only come from the environment.
type fileConfig struct {
	GatewayURL      string `yaml:"gateway_url"`
	Prefix          string `yaml:"prefix"`
	AdminRoleID     string `yaml:"admin_role_id"`
	DataDir         string `yaml:"data_dir"`
	ListenPort      string `yaml:"listen_port"`
	SelectTimeout   string `yaml:"select_timeout"`
	SearchLimit     int    `yaml:"search_limit"`
	LogLevel        string `yaml:"log_level"`
	PrettyLog       *bool  `yaml:"pretty_log"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// Load builds the configuration from the optional YAML file pointed to by
// JUBOT_CONFIG_FILE, then the environment on top. Panics when the token is
// missing so a misconfigured deploy fails at startup, not on first command.
func Load() *Config {
	cfg := &Config{
		GatewayURL:      "wss://gateway.juju.chat/v1",
		Prefix:          ">>",
		DataDir:         "./data",
		ListenPort:      ":8080",
		SelectTimeout:   30 * time.Second,
		SearchLimit:     5,
		LogLevel:        "info",
		ShutdownTimeout: 5 * time.Second,
	}

	if path := os.Getenv("JUBOT_CONFIG_FILE"); path != "" {
		if err := applyFile(cfg, path); err != nil {
			panic(fmt.Sprintf("config file %s: %v", path, err))
		}
	}

	cfg.Token = requireEnv("JUBOT_TOKEN")
	cfg.GatewayURL = getenv("JUBOT_GATEWAY_URL", cfg.GatewayURL)
	cfg.Prefix = getenv("JUBOT_PREFIX", cfg.Prefix)
	cfg.AdminRoleID = getenv("JUBOT_ADMIN_ROLE", cfg.AdminRoleID)
	cfg.DataDir = getenv("JUBOT_DATA_DIR", cfg.DataDir)
	cfg.ListenPort = getenv("JUBOT_LISTEN_PORT", cfg.ListenPort)
	cfg.SelectTimeout = mustDuration("JUBOT_SELECT_TIMEOUT", cfg.SelectTimeout)
	cfg.SearchLimit = mustInt("JUBOT_SEARCH_LIMIT", cfg.SearchLimit)
	cfg.LogLevel = getenv("JUBOT_LOG_LEVEL", cfg.LogLevel)
	cfg.PrettyLog = mustBool("JUBOT_PRETTY_LOG", cfg.PrettyLog)
	cfg.ShutdownTimeout = mustDuration("JUBOT_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)

	if cfg.SearchLimit < 1 {
		cfg.SearchLimit = 1
	}
	if !strings.HasPrefix(cfg.ListenPort, ":") && !strings.Contains(cfg.ListenPort, ":") {
		cfg.ListenPort = ":" + cfg.ListenPort
	}

	return cfg
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}

	if fc.GatewayURL != "" {
		cfg.GatewayURL = fc.GatewayURL
	}
	if fc.Prefix != "" {
		cfg.Prefix = fc.Prefix
	}
	if fc.AdminRoleID != "" {
		cfg.AdminRoleID = fc.AdminRoleID
	}
	if fc.DataDir != "" {
		cfg.DataDir = fc.DataDir
	}
	if fc.ListenPort != "" {
		cfg.ListenPort = fc.ListenPort
	}
	if fc.SelectTimeout != "" {
		d, err := time.ParseDuration(fc.SelectTimeout)
		if err != nil {
			return fmt.Errorf("select_timeout: %w", err)
		}
		cfg.SelectTimeout = d
	}
	if fc.SearchLimit > 0 {
		cfg.SearchLimit = fc.SearchLimit
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}
	if fc.PrettyLog != nil {
		cfg.PrettyLog = *fc.PrettyLog
	}
	if fc.ShutdownTimeout != "" {
		d, err := time.ParseDuration(fc.ShutdownTimeout)
		if err != nil {
			return fmt.Errorf("shutdown_timeout: %w", err)
		}
		cfg.ShutdownTimeout = d
	}

	return nil
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return v
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func mustInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
