package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MemoryDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", StoreDriverMemory)
	t.Setenv("API_KEYS", " key-a, ,key-b ")
	t.Setenv("PANIC_GRACE_PERIOD", "8s")
	t.Setenv("AUTO_REGISTER_SUBJECTS", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, []string{"key-a", "key-b"}, cfg.APIKeys)
	assert.Equal(t, 8*time.Second, cfg.PanicGracePeriod)
	assert.Equal(t, 5*time.Minute, cfg.LocationFreshness)
	assert.Equal(t, 85, cfg.InitialSafetyScore)
	assert.True(t, cfg.AutoRegisterSubjects)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, int32(10), cfg.DBMaxConns)
	assert.Equal(t, 30*time.Minute, cfg.DBConnTTL)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadConfig_PostgresRequiresURL(t *testing.T) {
	t.Setenv("STORE_DRIVER", StoreDriverPostgres)
	t.Setenv("DATABASE_URL", "")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestValidate(t *testing.T) {
	valid := Config{StoreDriver: StoreDriverMemory, PanicGracePeriod: time.Second, LocationFreshness: time.Minute, InitialSafetyScore: 85, TrailMaxSamples: 10}
	require.NoError(t, valid.Validate())

	bad := valid
	bad.StoreDriver = "cassandra"
	assert.Error(t, bad.Validate())

	bad = valid
	bad.PanicGracePeriod = 0
	assert.Error(t, bad.Validate())

	bad = valid
	bad.InitialSafetyScore = 101
	assert.Error(t, bad.Validate())

	bad = valid
	bad.TrailMaxSamples = 0
	assert.Error(t, bad.Validate())
}
