// Package config loads the explicit configuration handed to the engine.
// Values come from an optional YAML file overlaid by environment variables.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/cartwise/internal/logging"
	"github.com/aretw0/cartwise/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// DefaultPath is the config file looked up when none is given.
const DefaultPath = "cartwise.yaml"

// Config is the complete runtime configuration.
type Config struct {
	LLM       LLM       `yaml:"llm"`
	Search    Search    `yaml:"search"`
	Cart      Cart      `yaml:"cart"`
	Store     Store     `yaml:"store"`
	Review    Review    `yaml:"review"`
	Discovery Discovery `yaml:"discovery"`
	Server    Server    `yaml:"server"`
	Log       Log       `yaml:"log"`
}

type LLM struct {
	Provider    string        `yaml:"provider"`
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	Timeout     time.Duration `yaml:"timeout"`
	Temperature *float64      `yaml:"temperature"`
}

type Search struct {
	Provider       string        `yaml:"provider"`
	APIKey         string        `yaml:"api_key"`
	BaseURL        string        `yaml:"base_url"`
	Depth          string        `yaml:"depth"`
	MaxResults     int           `yaml:"max_results"`
	IncludeDomains []string      `yaml:"include_domains"`
	QueryTemplate  string        `yaml:"query_template"`
	Timeout        time.Duration `yaml:"timeout"`
}

type Cart struct {
	BaseURL string `yaml:"base_url"`
}

type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type Store struct {
	Driver string        `yaml:"driver"`
	Path   string        `yaml:"path"`
	Prefix string        `yaml:"prefix"`
	TTL    time.Duration `yaml:"ttl"`
	Redis  Redis         `yaml:"redis"`
	// Lock enables the Redis distributed session lock.
	Lock bool `yaml:"lock"`
	// EncryptionKey is a base64 AES-256 key. When set, checkpoints are sealed at rest.
	EncryptionKey string `yaml:"encryption_key"`
	// FallbackKeys are older base64 keys still accepted for decryption.
	FallbackKeys []string `yaml:"fallback_keys"`
}

type Review struct {
	// Enabled lists review kinds. Nil means the defaults; empty disables all.
	Enabled []string `yaml:"enabled"`
}

type Discovery struct {
	Concurrency int `yaml:"concurrency"`
	MaxOptions  int `yaml:"max_options"`
}

type Server struct {
	Addr    string `yaml:"addr"`
	Metrics bool   `yaml:"metrics"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		LLM:    LLM{Provider: "gemini", Timeout: 60 * time.Second},
		Search: Search{Provider: "tavily", Depth: "basic", Timeout: 30 * time.Second},
		Store:  Store{Driver: StoreMemory, Path: ".cartwise/sessions", TTL: 24 * time.Hour},
		Server: Server{Addr: ":8000", Metrics: true},
		Log:    Log{Level: "info", Format: "text"},
	}
}

// Load reads path over the defaults and applies the process environment.
// A missing file is not an error when path is DefaultPath.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && path == DefaultPath:
	default:
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyEnv overlays environment variables read through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v, ok := lookup(k); ok && v != "" {
				*dst = v
				return
			}
		}
	}

	str(&c.LLM.APIKey, "GEMINI_API_KEY", "GOOGLE_API_KEY")
	str(&c.LLM.Model, "CARTWISE_LLM_MODEL")
	str(&c.LLM.BaseURL, "CARTWISE_LLM_BASE_URL")
	str(&c.Search.APIKey, "TAVILY_API_KEY")
	str(&c.Search.QueryTemplate, "CARTWISE_QUERY_TEMPLATE")
	str(&c.Cart.BaseURL, "CARTWISE_CART_URL")
	str(&c.Store.Driver, "CARTWISE_STORE")
	str(&c.Store.Path, "CARTWISE_STORE_PATH")
	str(&c.Store.Prefix, "CARTWISE_STORE_PREFIX")
	str(&c.Store.Redis.Addr, "CARTWISE_REDIS_ADDR", "REDIS_ADDR")
	str(&c.Store.Redis.Password, "CARTWISE_REDIS_PASSWORD")
	str(&c.Store.EncryptionKey, "CARTWISE_STORE_KEY")
	str(&c.Server.Addr, "CARTWISE_ADDR")
	str(&c.Log.Level, "CARTWISE_LOG_LEVEL")
	str(&c.Log.Format, "CARTWISE_LOG_FORMAT")

	if v, ok := lookup("CARTWISE_STORE_TTL"); ok && v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CARTWISE_STORE_TTL: %w", err)
		}
		c.Store.TTL = ttl
	}
	if v, ok := lookup("CARTWISE_REDIS_DB"); ok && v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CARTWISE_REDIS_DB: %w", err)
		}
		c.Store.Redis.DB = db
	}
	if v, ok := lookup("CARTWISE_REVIEWS"); ok {
		c.Review.Enabled = splitList(v)
	}
	return nil
}

// splitList parses a comma separated list; "none" yields an empty list.
func splitList(v string) []string {
	out := []string{}
	if strings.EqualFold(strings.TrimSpace(v), "none") {
		return out
	}
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Reviews resolves the enabled review kinds.
func (c Config) Reviews() (domain.ReviewSet, error) {
	if c.Review.Enabled == nil {
		return domain.DefaultReviews(), nil
	}
	kinds := make([]domain.ReviewKind, 0, len(c.Review.Enabled))
	for _, raw := range c.Review.Enabled {
		k, err := domain.ParseReviewKind(raw)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return domain.NewReviewSet(kinds...), nil
}

// Validate reports every structural problem at once.
// Credentials are checked separately by RequireCredentials.
func (c Config) Validate() error {
	var errs []error

	switch c.Store.Driver {
	case StoreMemory, StoreFile:
	case StoreRedis:
		if c.Store.Redis.Addr == "" {
			errs = append(errs, errors.New("store.redis.addr is required for the redis driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.Store.Driver))
	}
	if c.Store.Lock && c.Store.Driver != StoreRedis {
		errs = append(errs, errors.New("store.lock requires the redis driver"))
	}
	if c.Store.TTL < 0 {
		errs = append(errs, errors.New("store.ttl must not be negative"))
	}
	if _, _, err := c.StoreKeys(); err != nil {
		errs = append(errs, err)
	}
	if c.LLM.Provider != "gemini" {
		errs = append(errs, fmt.Errorf("unknown llm provider %q", c.LLM.Provider))
	}
	if c.Search.Provider != "tavily" {
		errs = append(errs, fmt.Errorf("unknown search provider %q", c.Search.Provider))
	}
	if c.Discovery.Concurrency < 0 || c.Discovery.MaxOptions < 0 || c.Search.MaxResults < 0 {
		errs = append(errs, errors.New("discovery and search limits must not be negative"))
	}
	if _, err := c.Reviews(); err != nil {
		errs = append(errs, err)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if f := strings.ToLower(c.Log.Format); f != "" && f != "text" && f != "json" {
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// StoreKeys decodes the checkpoint encryption keys. active is nil when
// encryption is off.
func (c Config) StoreKeys() (active []byte, fallback [][]byte, err error) {
	if c.Store.EncryptionKey == "" {
		if len(c.Store.FallbackKeys) > 0 {
			return nil, nil, errors.New("store.fallback_keys require store.encryption_key")
		}
		return nil, nil, nil
	}
	active, err = decodeKey(c.Store.EncryptionKey)
	if err != nil {
		return nil, nil, fmt.Errorf("store.encryption_key: %w", err)
	}
	for i, k := range c.Store.FallbackKeys {
		key, err := decodeKey(k)
		if err != nil {
			return nil, nil, fmt.Errorf("store.fallback_keys[%d]: %w", i, err)
		}
		fallback = append(fallback, key)
	}
	return active, fallback, nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("not base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("want 32 bytes, got %d", len(key))
	}
	return key, nil
}

// RequireCredentials reports missing collaborator API keys.
func (c Config) RequireCredentials() error {
	var errs []error
	if c.LLM.APIKey == "" {
		errs = append(errs, errors.New("GEMINI_API_KEY (or llm.api_key) is not set"))
	}
	if c.Search.APIKey == "" {
		errs = append(errs, errors.New("TAVILY_API_KEY (or search.api_key) is not set"))
	}
	return errors.Join(errs...)
}
