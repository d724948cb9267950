package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-pool-monitor/internal/domain"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultEndpoint, cfg.WSEndpoint)
	assert.Equal(t, DefaultPool, cfg.Pool)
	assert.Equal(t, DefaultPoolName, cfg.PoolName)
	assert.Equal(t, "confirmed", cfg.Commitment)
	assert.Equal(t, "pool_swaps", cfg.Tag)
	assert.Equal(t, 5*time.Second, cfg.RestartDelay)
	assert.Equal(t, []string{SinkLog}, cfg.Sinks)
	assert.Len(t, cfg.Programs, 3)
	assert.Equal(t, time.Minute, cfg.StatsInterval)
	require.NoError(t, cfg.Validate())
}

func TestLoad_EnvAndFlags(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("POOLMON_POOL_NAME", "from-env")
	t.Setenv("POOLMON_SINKS", "log, memory")
	t.Setenv("POOLMON_RESTART_DELAY", "2s")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("pool-name", "", "")
	flags.String("commitment", "", "")
	require.NoError(t, flags.Parse([]string{"--commitment=finalized"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.PoolName)
	assert.Equal(t, "finalized", cfg.Commitment)
	assert.Equal(t, []string{SinkLog, SinkMemory}, cfg.Sinks)
	assert.Equal(t, 2*time.Second, cfg.RestartDelay)
}

func TestLoad_DotEnvToken(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("GETBLOCK_TOKEN=secret-token\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("GETBLOCK_TOKEN") })

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "secret-token", cfg.Token)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	path := filepath.Join(dir, "monitor.yaml")
	content := `
pool-name: RAY/USDC
programs:
  - Jupiter=JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4
sinks: [log, redis]
redis-url: redis://localhost:6379/0
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "RAY/USDC", cfg.PoolName)
	assert.Equal(t, []string{"Jupiter=JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4"}, cfg.Programs)
	assert.True(t, cfg.HasSink(SinkRedis))
	require.NoError(t, cfg.Validate())

	_, err = Load(filepath.Join(dir, "missing.yaml"), nil)
	assert.Error(t, err)
}

func validConfig() Config {
	return Config{
		WSEndpoint:   "wss://example.com",
		Pool:         DefaultPool,
		Commitment:   "confirmed",
		Tag:          "pool_swaps",
		RestartDelay: time.Second,
		Sinks:        []string{SinkLog},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing endpoint", func(c *Config) { c.WSEndpoint = "" }},
		{"http endpoint", func(c *Config) { c.WSEndpoint = "https://example.com" }},
		{"missing pool", func(c *Config) { c.Pool = "" }},
		{"bad pool", func(c *Config) { c.Pool = "not-base58!" }},
		{"bad commitment", func(c *Config) { c.Commitment = "instant" }},
		{"bad program", func(c *Config) { c.Programs = []string{"Jupiter"} }},
		{"zero restart delay", func(c *Config) { c.RestartDelay = 0 }},
		{"no sinks", func(c *Config) { c.Sinks = nil }},
		{"unknown sink", func(c *Config) { c.Sinks = []string{"kafka"} }},
		{"postgres without dsn", func(c *Config) { c.Sinks = []string{SinkPostgres} }},
		{"clickhouse without dsn", func(c *Config) { c.Sinks = []string{SinkClickhouse} }},
		{"redis without url", func(c *Config) { c.Sinks = []string{SinkRedis} }},
		{"nats without url", func(c *Config) { c.Sinks = []string{SinkNATS} }},
	}

	require.NoError(t, validConfig().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestCriterionAndRegistry(t *testing.T) {
	cfg := validConfig()

	c, err := cfg.Criterion()
	require.NoError(t, err)
	assert.Equal(t, DefaultPool, c.Account.String())
	assert.Equal(t, domain.CommitmentConfirmed, c.Commitment)

	reg, err := cfg.Registry()
	require.NoError(t, err)
	assert.Equal(t, 3, reg.Len())

	cfg.Programs = []string{"Orca=whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc"}
	reg, err = cfg.Registry()
	require.NoError(t, err)
	assert.Equal(t, 1, reg.Len())
}

func TestWarnings(t *testing.T) {
	cfg := validConfig()
	assert.Empty(t, cfg.Warnings(), "default pool is a program-derived account")

	cfg.Pool = domain.JupiterV6 // on-curve key
	assert.Len(t, cfg.Warnings(), 1)

	cfg = validConfig()
	cfg.WSEndpoint = DefaultEndpoint
	assert.Len(t, cfg.Warnings(), 1)
	cfg.Token = "t"
	assert.Empty(t, cfg.Warnings())
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains: it changes
// the working directory and restores it when the test finishes.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatal(err)
		}
	})
}
