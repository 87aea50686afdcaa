// Package config loads the bartender process configuration.
//
// Values come, in increasing precedence, from the defaults, a YAML file and
// BARTENDER_* environment variables (a .env file in the working directory is
// loaded first when present). Environment names are the upper-cased key path
// joined by underscores: store.redis_addr is BARTENDER_STORE_REDIS_ADDR.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/aretw0/bartender/internal/logging"
	"github.com/aretw0/bartender/pkg/domain"
	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "BARTENDER"

// Config is the root of the process configuration.
type Config struct {
	LogLevel  string `yaml:"log_level" mapstructure:"log_level"`
	LogFormat string `yaml:"log_format" mapstructure:"log_format"`

	HTTP       HTTPConfig       `yaml:"http" mapstructure:"http"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Catalog    CatalogConfig    `yaml:"catalog" mapstructure:"catalog"`
	Classifier ClassifierConfig `yaml:"classifier" mapstructure:"classifier"`
	Images     ImagesConfig     `yaml:"images" mapstructure:"images"`
	Events     EventsConfig     `yaml:"events" mapstructure:"events"`
	Phrasebook PhrasebookConfig `yaml:"phrasebook" mapstructure:"phrasebook"`
	Engine     EngineConfig     `yaml:"engine" mapstructure:"engine"`
}

// HTTPConfig configures the conversation API.
type HTTPConfig struct {
	Addr              string        `yaml:"addr" mapstructure:"addr"`
	MetricsAddr       string        `yaml:"metrics_addr" mapstructure:"metrics_addr"` // empty: /metrics on Addr
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" mapstructure:"read_header_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// Store drivers.
const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StoreRedis    = "redis"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// StoreConfig selects where sessions and user facts live.
type StoreConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"`

	// Path is the directory of the file store.
	Path string `yaml:"path" mapstructure:"path"`

	// DSN is the data source of the SQL drivers.
	DSN string `yaml:"dsn" mapstructure:"dsn"`

	RedisAddr     string        `yaml:"redis_addr" mapstructure:"redis_addr"`
	RedisPassword string        `yaml:"redis_password" mapstructure:"redis_password"`
	RedisDB       int           `yaml:"redis_db" mapstructure:"redis_db"`
	Prefix        string        `yaml:"prefix" mapstructure:"prefix"`
	TTL           time.Duration `yaml:"ttl" mapstructure:"ttl"`

	// DistributedLock serializes turns across processes (redis only).
	DistributedLock bool `yaml:"distributed_lock" mapstructure:"distributed_lock"`
}

// CatalogConfig selects the beer catalog. With neither URL nor DataDir the
// embedded sample data is served.
type CatalogConfig struct {
	URL      string        `yaml:"url" mapstructure:"url"`
	DataDir  string        `yaml:"data_dir" mapstructure:"data_dir"`
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout"`
	RetryMax int           `yaml:"retry_max" mapstructure:"retry_max"`
}

// ClassifierConfig selects the intent classifier. Without an endpoint the
// keyword classifier is used; Rules replace its patterns.
type ClassifierConfig struct {
	Endpoint string            `yaml:"endpoint" mapstructure:"endpoint"`
	APIKey   string            `yaml:"api_key" mapstructure:"api_key"`
	MinScore float64           `yaml:"min_score" mapstructure:"min_score"`
	Timeout  time.Duration     `yaml:"timeout" mapstructure:"timeout"`
	Order    []string          `yaml:"order" mapstructure:"order"`
	Rules    map[string]string `yaml:"rules" mapstructure:"rules"`
}

// ImagesConfig enables pictures on recommendation cards.
type ImagesConfig struct {
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
	APIKey   string `yaml:"api_key" mapstructure:"api_key"`
}

// Events drivers.
const (
	EventsNone      = "none"
	EventsGoChannel = "gochannel"
	EventsRedis     = "redis"
)

// EventsConfig selects where placed orders are published.
type EventsConfig struct {
	Driver    string `yaml:"driver" mapstructure:"driver"`
	Topic     string `yaml:"topic" mapstructure:"topic"`
	RedisAddr string `yaml:"redis_addr" mapstructure:"redis_addr"`
}

// PhrasebookConfig overrides the bot's texts, first from a Loam document and
// then from inline Texts.
type PhrasebookConfig struct {
	Dir      string            `yaml:"dir" mapstructure:"dir"`
	Document string            `yaml:"document" mapstructure:"document"`
	Texts    domain.Phrasebook `yaml:"texts" mapstructure:"texts"`
}

// EngineConfig tunes the dialog engine.
type EngineConfig struct {
	Seed        uint64        `yaml:"seed" mapstructure:"seed"` // 0: time seeded
	TurnTimeout time.Duration `yaml:"turn_timeout" mapstructure:"turn_timeout"`
	MaxRetries  int           `yaml:"max_retries" mapstructure:"max_retries"`
	MaxAttempts int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	AutoRestart bool          `yaml:"auto_restart" mapstructure:"auto_restart"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		LogLevel:  "info",
		LogFormat: "text",
		HTTP: HTTPConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: 10 * time.Second,
			ShutdownTimeout:   5 * time.Second,
		},
		Store: StoreConfig{
			Driver:    StoreMemory,
			Path:      ".bartender",
			RedisAddr: "localhost:6379",
			Prefix:    "bartender:",
		},
		Catalog: CatalogConfig{
			Timeout:  5 * time.Second,
			RetryMax: 2,
		},
		Classifier: ClassifierConfig{
			MinScore: 0.3,
			Timeout:  5 * time.Second,
		},
		Events: EventsConfig{
			Driver:    EventsNone,
			Topic:     "bartender.orders",
			RedisAddr: "localhost:6379",
		},
		Phrasebook: PhrasebookConfig{
			Document: "phrasebook",
		},
		Engine: EngineConfig{
			TurnTimeout: 10 * time.Second,
			MaxRetries:  3,
			MaxAttempts: 3,
		},
	}
}

// Load reads the configuration. An empty path skips the YAML file; a path
// that does not exist is an error.
func Load(path string) (Config, error) {
	// A missing .env is the common case.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	raw := map[string]any{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if raw == nil {
			raw = map[string]any{}
		}
	}
	overlayEnv(raw, os.LookupEnv)

	cfg := Default()
	if err := Decode(raw, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Decode merges raw into cfg. Durations accept "10s" strings and strings are
// weakly converted to numbers and booleans.
func Decode(raw map[string]any, cfg *Config) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           cfg,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(raw); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Validate rejects unknown drivers and levels.
func (c Config) Validate() error {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.Store.Driver {
	case StoreMemory, StoreFile, StoreRedis, StoreSQLite, StorePostgres:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if (c.Store.Driver == StoreSQLite || c.Store.Driver == StorePostgres) && c.Store.DSN == "" {
		return fmt.Errorf("store driver %q needs a dsn", c.Store.Driver)
	}
	if c.Store.DistributedLock && c.Store.Driver != StoreRedis {
		return fmt.Errorf("distributed_lock needs the redis store driver")
	}
	switch c.Events.Driver {
	case "", EventsNone, EventsGoChannel, EventsRedis:
	default:
		return fmt.Errorf("unknown events driver %q", c.Events.Driver)
	}
	if c.Catalog.URL != "" && c.Catalog.DataDir != "" {
		return fmt.Errorf("catalog url and data_dir are exclusive")
	}
	return nil
}

// EnvKeys lists the environment variables Load reads, by key path.
func EnvKeys() map[string][]string {
	keys := map[string][]string{}
	walkKeys(reflect.TypeOf(Config{}), nil, func(path []string) {
		keys[envName(path)] = path
	})
	return keys
}

func envName(path []string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.Join(path, "_"))
}

// walkKeys calls fn with the mapstructure path of every scalar or slice
// field of t. Maps are not reachable from the environment.
func walkKeys(t reflect.Type, prefix []string, fn func([]string)) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "" || name == "-" {
			continue
		}
		path := append(append([]string{}, prefix...), name)
		switch f.Type.Kind() {
		case reflect.Struct:
			walkKeys(f.Type, path, fn)
		case reflect.Map:
		default:
			fn(path)
		}
	}
}

func overlayEnv(raw map[string]any, lookup func(string) (string, bool)) {
	for name, path := range EnvKeys() {
		value, ok := lookup(name)
		if !ok {
			continue
		}
		node := raw
		for _, key := range path[:len(path)-1] {
			child, ok := node[key].(map[string]any)
			if !ok {
				child = map[string]any{}
				node[key] = child
			}
			node = child
		}
		node[path[len(path)-1]] = value
	}
}
