package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration (file + env overrides)
type Config struct {
	Server struct {
		Addr      string `mapstructure:"addr"`
		LogLevel  string `mapstructure:"log_level"`
		LogFormat string `mapstructure:"log_format"`
	} `mapstructure:"server"`

	Storage struct {
		Driver        string   `mapstructure:"driver"` // memory | redis | postgres
		KeyPrefix     string   `mapstructure:"key_prefix"`
		ResetPrefixes []string `mapstructure:"reset_prefixes"`
		SeedFile      string   `mapstructure:"seed_file"`
	} `mapstructure:"storage"`

	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`

	Postgres struct {
		Host         string `mapstructure:"host"`
		Port         int    `mapstructure:"port"`
		User         string `mapstructure:"user"`
		Password     string `mapstructure:"password"`
		DBName       string `mapstructure:"db_name"`
		SSLMode      string `mapstructure:"ssl_mode"`
		MaxOpenConns int    `mapstructure:"max_open_conns"`
		MaxIdleConns int    `mapstructure:"max_idle_conns"`
	} `mapstructure:"postgres"`

	Listener struct {
		Channel          string `mapstructure:"channel"`
		ReconnectSeconds int    `mapstructure:"reconnect_seconds"`
		RefreshSeconds   int    `mapstructure:"refresh_seconds"`
	} `mapstructure:"listener"`

	Monitor struct {
		Capacity  int  `mapstructure:"capacity"`
		AutoStart bool `mapstructure:"auto_start"`
	} `mapstructure:"monitor"`
}

// keys registered with viper so that APP_* env vars reach Unmarshal
var keys = []string{
	"server.addr", "server.log_level", "server.log_format",
	"storage.driver", "storage.key_prefix", "storage.reset_prefixes", "storage.seed_file",
	"redis.addr", "redis.password", "redis.db",
	"postgres.host", "postgres.port", "postgres.user", "postgres.password",
	"postgres.db_name", "postgres.ssl_mode", "postgres.max_open_conns", "postgres.max_idle_conns",
	"listener.channel", "listener.reconnect_seconds", "listener.refresh_seconds",
	"monitor.capacity", "monitor.auto_start",
}

func Load() Config {
	cfg, err := LoadFrom("configs")
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadFrom reads application.yaml from dir (optional) and applies APP_* env overrides.
func LoadFrom(dir string) (Config, error) {
	_ = godotenv.Load() // .env is optional

	v := viper.New()
	v.SetConfigName("application")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	_ = v.ReadInConfig() // optional; env can fully configure

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unable to decode config: %w", err)
	}
	validate(&cfg)
	return cfg, nil
}

func validate(c *Config) {
	if c.Server.Addr == "" { c.Server.Addr = ":8080" }
	if c.Server.LogFormat == "" { c.Server.LogFormat = "console" }
	if c.Storage.Driver == "" { c.Storage.Driver = "memory" }
	c.Storage.Driver = strings.ToLower(c.Storage.Driver)
	if c.Storage.KeyPrefix == "" { c.Storage.KeyPrefix = "survey-" }
	if len(c.Storage.ResetPrefixes) == 0 { c.Storage.ResetPrefixes = []string{"CXGAIA", "survey-"} }
	if c.Redis.Addr == "" { c.Redis.Addr = "localhost:6379" }
	if c.Postgres.Port == 0 { c.Postgres.Port = 5432 }
	if c.Postgres.SSLMode == "" { c.Postgres.SSLMode = "disable" }
	if c.Postgres.MaxOpenConns == 0 { c.Postgres.MaxOpenConns = 10 }
	if c.Postgres.MaxIdleConns == 0 { c.Postgres.MaxIdleConns = 10 }
	if c.Listener.Channel == "" { c.Listener.Channel = "survey_config_change" }
	if c.Listener.ReconnectSeconds <= 0 { c.Listener.ReconnectSeconds = 5 }
	if c.Listener.RefreshSeconds <= 0 { c.Listener.RefreshSeconds = 30 }
	if c.Monitor.Capacity <= 0 { c.Monitor.Capacity = 1000 }
}

func (c Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Postgres.User,
		c.Postgres.Password,
		c.Postgres.Host,
		c.Postgres.Port,
		c.Postgres.DBName,
		c.Postgres.SSLMode,
	)
}

func (c Config) Backoff() time.Duration { return time.Duration(c.Listener.ReconnectSeconds) * time.Second }

func (c Config) RefreshInterval() time.Duration {
	return time.Duration(c.Listener.RefreshSeconds) * time.Second
}
