// Package config loads monitor settings from flags, environment, .env, and an
// optional config file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"solana-pool-monitor/internal/detection"
	"solana-pool-monitor/internal/domain"
)

// EnvPrefix is the prefix of every environment variable, e.g. POOLMON_POOL.
const EnvPrefix = "POOLMON"

// Defaults.
const (
	DefaultEndpoint     = "wss://atlas-mainnet.helius-rpc.com"
	DefaultPool         = "8sLbNZoA1cfnvMJLPfp98ZLAnFSYCFApfJKMbiXNLwxj"
	DefaultPoolName     = "SOL/USDC"
	DefaultRedisChannel = "pool-monitor:swaps"
	DefaultNATSSubject  = "pool.swaps"
)

// Sink names accepted in the sinks list.
const (
	SinkLog        = "log"
	SinkMemory     = "memory"
	SinkPostgres   = "postgres"
	SinkClickhouse = "clickhouse"
	SinkRedis      = "redis"
	SinkNATS       = "nats"
)

var knownSinks = map[string]bool{
	SinkLog: true, SinkMemory: true, SinkPostgres: true,
	SinkClickhouse: true, SinkRedis: true, SinkNATS: true,
}

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	WSEndpoint   string
	Token        string
	Pool         string
	PoolName     string
	Commitment   string
	Tag          string
	RestartDelay time.Duration
	PingInterval time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Programs     []string // label=programID

	Sinks         []string
	SinkBuffer    int
	PostgresDSN   string
	ClickhouseDSN string
	RedisURL      string
	RedisChannel  string
	NATSURL       string
	NATSSubject   string

	MetricsAddr   string
	LogLevel      string
	LogFormat     string
	StatsInterval time.Duration
}

// Load merges .env, config file, environment variables, and flags into Config.
// Flags win over environment, which wins over the config file.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	// The token historically lived in GETBLOCK_TOKEN.
	if err := v.BindEnv("token", EnvPrefix+"_TOKEN", "GETBLOCK_TOKEN"); err != nil {
		return Config{}, fmt.Errorf("bind token env: %w", err)
	}

	setDefaults(v)

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		WSEndpoint:    v.GetString("ws-endpoint"),
		Token:         v.GetString("token"),
		Pool:          v.GetString("pool"),
		PoolName:      v.GetString("pool-name"),
		Commitment:    v.GetString("commitment"),
		Tag:           v.GetString("tag"),
		RestartDelay:  v.GetDuration("restart-delay"),
		PingInterval:  v.GetDuration("ping-interval"),
		ReadTimeout:   v.GetDuration("read-timeout"),
		WriteTimeout:  v.GetDuration("write-timeout"),
		Programs:      getStringSlice(v, "programs"),
		Sinks:         getStringSlice(v, "sinks"),
		SinkBuffer:    v.GetInt("sink-buffer"),
		PostgresDSN:   v.GetString("postgres-dsn"),
		ClickhouseDSN: v.GetString("clickhouse-dsn"),
		RedisURL:      v.GetString("redis-url"),
		RedisChannel:  v.GetString("redis-channel"),
		NATSURL:       v.GetString("nats-url"),
		NATSSubject:   v.GetString("nats-subject"),
		MetricsAddr:   v.GetString("metrics-addr"),
		LogLevel:      v.GetString("log-level"),
		LogFormat:     v.GetString("log-format"),
		StatsInterval: v.GetDuration("stats-interval"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ws-endpoint", DefaultEndpoint)
	v.SetDefault("pool", DefaultPool)
	v.SetDefault("pool-name", DefaultPoolName)
	v.SetDefault("commitment", string(domain.CommitmentConfirmed))
	v.SetDefault("tag", domain.DefaultSubscriptionTag)
	v.SetDefault("restart-delay", 5*time.Second)
	v.SetDefault("ping-interval", 30*time.Second)
	v.SetDefault("read-timeout", 60*time.Second)
	v.SetDefault("write-timeout", 10*time.Second)
	v.SetDefault("programs", detection.DefaultRegistry().Entries())
	v.SetDefault("sinks", []string{SinkLog})
	v.SetDefault("sink-buffer", 1024)
	v.SetDefault("redis-channel", DefaultRedisChannel)
	v.SetDefault("nats-subject", DefaultNATSSubject)
	v.SetDefault("metrics-addr", ":9090")
	v.SetDefault("log-level", "info")
	v.SetDefault("log-format", "json")
	v.SetDefault("stats-interval", time.Minute)
}

// loadDotEnv loads a .env file if one exists. Variables already set in the
// environment are not overridden.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration can start a monitor.
func (c Config) Validate() error {
	if c.WSEndpoint == "" {
		return errors.New("ws-endpoint is required")
	}
	u, err := url.Parse(c.WSEndpoint)
	if err != nil {
		return fmt.Errorf("ws-endpoint: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("ws-endpoint must use ws or wss scheme, got %q", u.Scheme)
	}
	if _, err := c.Criterion(); err != nil {
		return err
	}
	if _, err := c.Registry(); err != nil {
		return err
	}
	if c.RestartDelay <= 0 {
		return errors.New("restart-delay must be positive")
	}
	if len(c.Sinks) == 0 {
		return errors.New("at least one sink is required")
	}
	for _, name := range c.Sinks {
		if !knownSinks[name] {
			return fmt.Errorf("unknown sink %q", name)
		}
	}
	if c.HasSink(SinkPostgres) && c.PostgresDSN == "" {
		return errors.New("postgres sink requires postgres-dsn")
	}
	if c.HasSink(SinkClickhouse) && c.ClickhouseDSN == "" {
		return errors.New("clickhouse sink requires clickhouse-dsn")
	}
	if c.HasSink(SinkRedis) && c.RedisURL == "" {
		return errors.New("redis sink requires redis-url")
	}
	if c.HasSink(SinkNATS) && c.NATSURL == "" {
		return errors.New("nats sink requires nats-url")
	}
	return nil
}

// Criterion builds the subscription criterion for the configured pool.
func (c Config) Criterion() (domain.SubscriptionCriterion, error) {
	if c.Pool == "" {
		return domain.SubscriptionCriterion{}, errors.New("pool is required")
	}
	pool, err := domain.ParsePublicKey(c.Pool)
	if err != nil {
		return domain.SubscriptionCriterion{}, fmt.Errorf("pool: %w", err)
	}
	commitment, err := domain.ParseCommitment(c.Commitment)
	if err != nil {
		return domain.SubscriptionCriterion{}, err
	}
	return domain.NewSubscriptionCriterion(pool, commitment, c.Tag)
}

// Registry builds the program registry used for classification.
func (c Config) Registry() (*detection.Registry, error) {
	if len(c.Programs) == 0 {
		return detection.DefaultRegistry(), nil
	}
	return detection.ParseRegistry(c.Programs)
}

// HasSink reports whether name is in the sinks list.
func (c Config) HasSink(name string) bool {
	for _, s := range c.Sinks {
		if s == name {
			return true
		}
	}
	return false
}

// Warnings returns non-fatal configuration problems.
func (c Config) Warnings() []string {
	var out []string
	if pool, err := domain.ParsePublicKey(c.Pool); err == nil && pool.IsOnCurve() {
		out = append(out, fmt.Sprintf("pool %s is an on-curve wallet key, not a program-derived pool account", c.Pool))
	}
	if c.Token == "" && strings.Contains(c.WSEndpoint, "helius") && !strings.Contains(c.WSEndpoint, "api-key=") {
		out = append(out, "no token configured for a provider that requires an api key")
	}
	return out
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	return cleanStrings(strings.Split(input, ","))
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
