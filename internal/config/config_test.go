package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bartender.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FileAndEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	path := writeConfig(t, `
log_level: debug
http:
  addr: ":9090"
store:
  driver: redis
  ttl: 24h
engine:
  seed: 42
  turn_timeout: 3s
classifier:
  order: [Bye, Greet]
  rules:
    Bye: "(?i)cheers"
    Greet: "(?i)ahoy"
phrasebook:
  texts:
    greeting: "Ahoy!"
`)

	t.Setenv("BARTENDER_STORE_REDIS_ADDR", "redis:6379")
	t.Setenv("BARTENDER_STORE_DISTRIBUTED_LOCK", "true")
	t.Setenv("BARTENDER_ENGINE_MAX_ATTEMPTS", "5")
	t.Setenv("BARTENDER_CLASSIFIER_MIN_SCORE", "0.5")
	t.Setenv("BARTENDER_PHRASEBOOK_TEXTS_FAREWELL", "Fair winds!")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, 10*time.Second, cfg.HTTP.ReadHeaderTimeout, "defaults survive")
	assert.Equal(t, StoreRedis, cfg.Store.Driver)
	assert.Equal(t, "redis:6379", cfg.Store.RedisAddr)
	assert.Equal(t, 24*time.Hour, cfg.Store.TTL)
	assert.True(t, cfg.Store.DistributedLock)
	assert.Equal(t, uint64(42), cfg.Engine.Seed)
	assert.Equal(t, 3*time.Second, cfg.Engine.TurnTimeout)
	assert.Equal(t, 5, cfg.Engine.MaxAttempts)
	assert.Equal(t, 0.5, cfg.Classifier.MinScore)
	assert.Equal(t, []string{"Bye", "Greet"}, cfg.Classifier.Order)
	assert.Equal(t, "(?i)cheers", cfg.Classifier.Rules["Bye"])
	assert.Equal(t, "Ahoy!", cfg.Phrasebook.Texts.Greeting)
	assert.Equal(t, "Fair winds!", cfg.Phrasebook.Texts.Farewell)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("BARTENDER_EVENTS_DRIVER=gochannel\nBARTENDER_EVENTS_TOPIC=tickets\n"), 0o644))
	t.Cleanup(func() {
		os.Unsetenv("BARTENDER_EVENTS_DRIVER")
		os.Unsetenv("BARTENDER_EVENTS_TOPIC")
	})

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, EventsGoChannel, cfg.Events.Driver)
	assert.Equal(t, "tickets", cfg.Events.Topic)
}

func TestLoad_Invalid(t *testing.T) {
	t.Chdir(t.TempDir())

	tests := map[string]string{
		"unknown key":        "colour: blue\n",
		"unknown driver":     "store:\n  driver: cassandra\n",
		"sql without dsn":    "store:\n  driver: sqlite\n",
		"lock without redis": "store:\n  distributed_lock: true\n",
		"bad duration":       "engine:\n  turn_timeout: soon\n",
		"bad level":          "log_level: loud\n",
		"catalog conflict":   "catalog:\n  url: http://x\n  data_dir: ./data\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestEnvKeys(t *testing.T) {
	keys := EnvKeys()
	assert.Equal(t, []string{"store", "redis_addr"}, keys["BARTENDER_STORE_REDIS_ADDR"])
	assert.Equal(t, []string{"phrasebook", "texts", "greeting"}, keys["BARTENDER_PHRASEBOOK_TEXTS_GREETING"])
	assert.Contains(t, keys, "BARTENDER_LOG_LEVEL")
	assert.NotContains(t, keys, "BARTENDER_CLASSIFIER_RULES")
}
