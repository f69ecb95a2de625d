package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. GOBLIN_SERVER_PORT.
const EnvPrefix = "GOBLIN"

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Table    TableConfig    `mapstructure:"table"`
	Security SecurityConfig `mapstructure:"security"`
	Relay    RelayConfig    `mapstructure:"relay"`
}

type ServerConfig struct {
	Port      int    `mapstructure:"port"`
	Debug     bool   `mapstructure:"debug"`
	AdminKey  string `mapstructure:"admin_key"`
	StaticDir string `mapstructure:"static_dir"` // built web client (served at /)
}

type DatabaseConfig struct {
	Mode         string        `mapstructure:"mode"` // sqlite | memory | mysql
	SQLitePath   string        `mapstructure:"sqlite_path"`
	MySQLDSN     string        `mapstructure:"mysql_dsn"`
	MySQLMaxOpen int           `mapstructure:"mysql_max_open"`
	MySQLMaxIdle int           `mapstructure:"mysql_max_idle"`
	MySQLMaxLife time.Duration `mapstructure:"mysql_max_life"`
}

type CacheConfig struct {
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	LocalGCInterval time.Duration `mapstructure:"local_gc_interval"`
	LocalPubSubBuf  int           `mapstructure:"local_pubsub_buf"`
}

// TableConfig bounds what a single table may hold.
type TableConfig struct {
	MaxPlayers     int `mapstructure:"max_players"`
	MaxMessages    int `mapstructure:"max_messages"`
	MaxDiceRolls   int `mapstructure:"max_dice_rolls"`
	MaxMessageLen  int `mapstructure:"max_message_len"`
	MaxNicknameLen int `mapstructure:"max_nickname_len"`
	MaxSlugLen     int `mapstructure:"max_slug_len"`
	MaxSeedLen     int `mapstructure:"max_seed_len"`
	// IdleTTL > 0 enables the sweep that removes tables nobody touched for that long.
	IdleTTL       time.Duration `mapstructure:"idle_ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type SecurityConfig struct {
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
	// AllowedOrigins lists the WebSocket/SSE origins that are permitted.
	// An empty slice allows all origins (useful for local development only).
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AdminIPs       []string `mapstructure:"admin_ips"`
}

type RelayConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// DefaultTableConfig returns the limits the web client was built against.
func DefaultTableConfig() TableConfig {
	return TableConfig{
		MaxPlayers:     12,
		MaxMessages:    100,
		MaxDiceRolls:   50,
		MaxMessageLen:  400,
		MaxNicknameLen: 32,
		MaxSlugLen:     64,
		MaxSeedLen:     16384,
		SweepInterval:  10 * time.Minute,
	}
}

// Load reads config from the given YAML file path. A missing file is not an
// error: defaults plus GOBLIN_* environment variables are enough to boot.
// A .env file in the working directory is loaded first when present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	td := DefaultTableConfig()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.debug", false)
	v.SetDefault("server.admin_key", "")
	v.SetDefault("server.static_dir", "")
	v.SetDefault("database.mode", "sqlite")
	v.SetDefault("database.sqlite_path", "./data/goblintable.db")
	v.SetDefault("database.mysql_dsn", "")
	v.SetDefault("database.mysql_max_open", 50)
	v.SetDefault("database.mysql_max_idle", 10)
	v.SetDefault("database.mysql_max_life", "1h")
	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.local_gc_interval", "30s")
	v.SetDefault("cache.local_pubsub_buf", 256)
	v.SetDefault("table.max_players", td.MaxPlayers)
	v.SetDefault("table.max_messages", td.MaxMessages)
	v.SetDefault("table.max_dice_rolls", td.MaxDiceRolls)
	v.SetDefault("table.max_message_len", td.MaxMessageLen)
	v.SetDefault("table.max_nickname_len", td.MaxNicknameLen)
	v.SetDefault("table.max_slug_len", td.MaxSlugLen)
	v.SetDefault("table.max_seed_len", td.MaxSeedLen)
	v.SetDefault("table.idle_ttl", "0s")
	v.SetDefault("table.sweep_interval", td.SweepInterval.String())
	v.SetDefault("security.rate_limit_rps", 50)
	v.SetDefault("security.rate_limit_burst", 100)
	v.SetDefault("security.allowed_origins", []string{})
	v.SetDefault("security.admin_ips", []string{})
	v.SetDefault("relay.enabled", true)
}
