package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_HappyPath(t *testing.T) {
	tempDir := t.TempDir()
	tempConfigsSubDir := filepath.Join(tempDir, "configs")
	require.NoError(t, os.Mkdir(tempConfigsSubDir, 0755))

	testAppName := "TestLedger"
	testPort := 9090
	testLogLevel := "debug"
	testKafkaBrokers := "kafka1:9092,kafka2:9092"

	envContent := fmt.Sprintf(
		"APP_NAME=%s\nSERVER_PORT=%d\nLOG_LEVEL=%s\nKAFKA_BROKERS=%s\nREDIS_ADDR=redis:6379\nCORS_ALLOWED_ORIGINS=https://a.example, https://b.example\n",
		testAppName, testPort, testLogLevel, testKafkaBrokers,
	)
	require.NoError(t, os.WriteFile(filepath.Join(tempConfigsSubDir, "test_happy.env"), []byte(envContent), 0644))

	originalWD, err := os.Getwd()
	require.NoError(t, err)
	defer func() {
		_ = os.Chdir(originalWD)
	}()
	require.NoError(t, os.Chdir(tempDir))

	cfg, err := LoadConfig("test_happy")
	require.NoError(t, err)

	assert.Equal(t, testAppName, cfg.Application.Name)
	assert.Equal(t, testPort, cfg.Server.Port)
	assert.Equal(t, testLogLevel, cfg.Logging.Level)
	assert.Equal(t, testKafkaBrokers, cfg.Kafka.Brokers)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSAllowedOrigins)
	assert.True(t, cfg.Redis.Enabled())

	assert.Equal(t, "development", cfg.Application.Env)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "posting_requests", cfg.Kafka.PostingTopic)
	assert.Equal(t, StorageDriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, 10, cfg.WorkerPool.Size)
	assert.True(t, cfg.Ledger.Epsilon.Equal(decimal.New(1, -9)))
	assert.False(t, cfg.Auth.Enabled())

	cfgWithName, err := LoadConfigWithName("configs/test_happy")
	require.NoError(t, err)
	assert.Equal(t, testAppName, cfgWithName.Application.Name)

	cfgWithNameAndType, err := LoadConfigWithNameAndType("configs/test_happy", "env")
	require.NoError(t, err)
	assert.Equal(t, testAppName, cfgWithNameAndType.Application.Name)
}

func TestLoadConfig_InvalidEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "0")
	t.Setenv("STORAGE_DRIVER", "sqlite")

	cfg, err := LoadConfig("does_not_exist")
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "SERVER_PORT must be greater than 0")
	assert.Contains(t, err.Error(), "STORAGE_DRIVER must be postgres or memory")
}

func TestLoadConfig_BadEpsilon(t *testing.T) {
	t.Setenv("LEDGER_EPSILON", "tiny")

	_, err := LoadConfig("does_not_exist")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LEDGER_EPSILON")
}

func TestConfig_Validate_HappyPath(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg, err := fromViper(v)
	require.NoError(t, err)
	assert.NoError(t, cfg.validate(), "Default config should be valid")
}

func TestConfig_Validate_MemoryDriverSkipsPostgres(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("STORAGE_DRIVER", "MEMORY")
	v.Set("POSTGRES_URL", "")

	cfg, err := fromViper(v)
	require.NoError(t, err)
	assert.NoError(t, cfg.validate())
}

func TestConfig_Validate_RedisNeedsTTL(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("REDIS_ADDR", "localhost:6379")
	v.Set("REPORT_CACHE_TTL", "0s")

	cfg, err := fromViper(v)
	require.NoError(t, err)
	err = cfg.validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REPORT_CACHE_TTL")
}
