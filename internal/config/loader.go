// internal/config/loader.go
//
// Configuration loader.
//
/*
Context
--------
`Load(path)` builds one immutable `Config` struct from three layers (highest
precedence last):

  1. Optional `.env` file in the same directory as the YAML document.
  2. The YAML document itself.
  3. Environment variables prefixed `KAPENTA_`, where `__` maps to “.” and
     every segment is camel-cased (e.g., `KAPENTA_LOGGING__LEVEL →
     logging.level`, `KAPENTA_API_ROOT → apiRoot`).

After merging, the tree is unmarshalled into strongly-typed structs,
defaulted, enriched with the directory of the YAML file, and validated.
Every failure here is fatal for boot; nothing is partially applied.

Instrumentation
---------------
  • DEBUG spans – YAML read, env overlay.
  • ERROR spans – YAML parse, env overlay, unmarshal, validation failures.
  • INFO  span  – final “config loaded” with key highlights.
  • Logs use the global *sugared* logger (`zap.S()`); before the file
    logger is installed these calls are no-ops.

Notes
-----
  • There is no package-level “current” config.  Callers pass the returned
    pointer to the components that need it.
  • Oxford commas, two spaces after periods.
*/
package config

import (
	"fmt"
	"net"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

const (
	envPrefix = "KAPENTA_"

	DefaultHost            = "0.0.0.0"
	DefaultShutdownTimeout = 10 * time.Second
	DefaultMetricsPath     = "/metrics"
	DefaultRenderCacheSize = 256
)

/*─────────────────────────────── loader ───────────────────────────────────*/

// Load reads .env, YAML, env overrides, applies defaults, and validates.
func Load(path string) (*Config, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path %q: %w", path, err)
	}
	baseDir := filepath.Dir(abs)

	// .env (optional, no error if missing)
	_ = godotenv.Load(filepath.Join(baseDir, ".env"))

	k := koanf.New(".")

	if err := k.Load(file.Provider(abs), yaml.Parser()); err != nil {
		zap.S().Errorw("config yaml load failed", "file", abs, "err", err)
		return nil, fmt.Errorf("failed to parse configuration from %s: %w", abs, err)
	}
	zap.S().Debugw("config yaml loaded", "file", abs)

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		zap.S().Errorw("config env overlay failed", "err", err)
		return nil, fmt.Errorf("config env overlay: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		zap.S().Errorw("config unmarshal failed", "err", err)
		return nil, fmt.Errorf("config unmarshal: %w", err)
	}

	cfg.BaseDir = baseDir
	applyDefaults(&cfg)

	if err := validateStruct(&cfg); err != nil {
		zap.S().Errorw("config validation failed", "err", err)
		return nil, fmt.Errorf("validate config: %w", err)
	}

	zap.S().Infow("config loaded",
		"api_root", cfg.ApiRoot,
		"addr", cfg.Addr(),
		"reports", len(cfg.Reports),
		"base_dir", cfg.BaseDir,
	)
	return &cfg, nil
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

// applyDefaults fills optional values.  ApiRoot is normalised to exactly one
// leading slash and no trailing slash, unless it is the bare root.
func applyDefaults(cfg *Config) {
	cfg.ApiRoot = NormalizeAPIRoot(cfg.ApiRoot)
	if strings.TrimSpace(cfg.Host) == "" {
		cfg.Host = DefaultHost
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Render.CacheSize == 0 {
		cfg.Render.CacheSize = DefaultRenderCacheSize
	}
	if cfg.Logging != nil {
		cfg.Logging.Level = strings.ToLower(strings.TrimSpace(cfg.Logging.Level))
	}
}

// NormalizeAPIRoot trims whitespace, adds a leading slash, and strips any
// trailing slash.  An empty input stays empty so validation can reject it.
func NormalizeAPIRoot(root string) string {
	root = strings.TrimSpace(root)
	if root == "" {
		return ""
	}
	if !strings.HasPrefix(root, "/") {
		root = "/" + root
	}
	if len(root) > 1 {
		root = strings.TrimRight(root, "/")
		if root == "" {
			root = "/"
		}
	}
	return root
}

// envKey maps KAPENTA_LOGGING__LEVEL → logging.level and
// KAPENTA_API_ROOT → apiRoot.
func envKey(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	parts := strings.Split(s, "__")
	for i, p := range parts {
		parts[i] = lowerCamel(p)
	}
	return strings.Join(parts, ".")
}

// lowerCamel converts SCREAMING_SNAKE to lowerCamel.
func lowerCamel(s string) string {
	words := strings.Split(strings.ToLower(s), "_")
	var b strings.Builder
	b.Grow(len(s))
	for i, w := range words {
		if w == "" {
			continue
		}
		if i > 0 && b.Len() > 0 {
			b.WriteString(strings.ToUpper(w[:1]))
			b.WriteString(w[1:])
			continue
		}
		b.WriteString(w)
	}
	return b.String()
}

func joinHostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
