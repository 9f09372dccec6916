package cli

import (
	"context"
	"encoding/base64"
	"log/slog"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/cartwise/internal/config"
	"github.com/aretw0/cartwise/pkg/adapters/file"
	"github.com/aretw0/cartwise/pkg/adapters/memory"
	"github.com/aretw0/cartwise/pkg/adapters/redis"
	"github.com/aretw0/cartwise/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.LLM.APIKey = "gemini-key"
	cfg.Search.APIKey = "tavily-key"
	cfg.Log.Level = "error"
	return cfg
}

func TestNewApp(t *testing.T) {
	t.Run("Memory store by default", func(t *testing.T) {
		app, err := NewApp(testConfig(), false)
		require.NoError(t, err)
		defer app.Close()

		assert.IsType(t, &memory.Store{}, app.Engine.Store())
		assert.NotNil(t, app.Metrics)
	})

	t.Run("File store", func(t *testing.T) {
		cfg := testConfig()
		cfg.Store.Driver = config.StoreFile
		cfg.Store.Path = t.TempDir()

		app, err := NewApp(cfg, false)
		require.NoError(t, err)
		defer app.Close()

		fs, ok := app.Engine.Store().(*file.Store)
		require.True(t, ok)
		assert.Equal(t, cfg.Store.Path, fs.BasePath)
		assert.Equal(t, cfg.Store.TTL, fs.TTL)
	})

	t.Run("Redis store with lock", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := testConfig()
		cfg.Store.Driver = config.StoreRedis
		cfg.Store.Redis.Addr = mr.Addr()
		cfg.Store.Lock = true

		app, err := NewApp(cfg, false)
		require.NoError(t, err)

		assert.IsType(t, &redis.Store{}, app.Engine.Store())
		ids, err := app.Engine.Sessions(context.Background())
		require.NoError(t, err)
		assert.Empty(t, ids)
		assert.NoError(t, app.Close())
	})

	t.Run("Encrypted store", func(t *testing.T) {
		cfg := testConfig()
		cfg.Store.EncryptionKey = base64.StdEncoding.EncodeToString([]byte(strings.Repeat("k", 32)))

		app, err := NewApp(cfg, false)
		require.NoError(t, err)
		defer app.Close()

		store := app.Engine.Store()
		_, plain := store.(*memory.Store)
		assert.False(t, plain, "the store is wrapped")

		cp := domain.NewCheckpoint("t-1", "milk", domain.StageClassify)
		require.NoError(t, store.Save(context.Background(), cp))
		loaded, err := store.Load(context.Background(), "t-1")
		require.NoError(t, err)
		assert.Equal(t, "milk", loaded.State.UserInput)
	})

	t.Run("Missing credentials", func(t *testing.T) {
		cfg := testConfig()
		cfg.LLM.APIKey = ""

		_, err := NewApp(cfg, false)
		assert.ErrorContains(t, err, "GEMINI_API_KEY")
	})

	t.Run("Invalid configuration", func(t *testing.T) {
		cfg := testConfig()
		cfg.Store.Driver = "sqlite"

		_, err := NewApp(cfg, false)
		assert.ErrorContains(t, err, `unknown store driver "sqlite"`)
	})
}

func TestCreateLogger(t *testing.T) {
	logger, err := createLogger(config.Log{Level: "warn", Format: "json"}, true)
	require.NoError(t, err)
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug), "debug overrides the configured level")

	_, err = createLogger(config.Log{Level: "loud"}, false)
	assert.Error(t, err)
}
