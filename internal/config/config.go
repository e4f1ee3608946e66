package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultConfigPath      = "config.toml"
	DefaultHTTPAddr        = ":8080"
	DefaultJWTExpiresIn    = "24h"
	DefaultPGHost          = "127.0.0.1"
	DefaultPGPort          = 5432
	DefaultPGUser          = "postgres"
	DefaultPGDatabase      = "omnibox"
	DefaultPGSSLMode       = "disable"
	DefaultChatModel       = "gpt-4o-mini"
	DefaultClassifyModel   = "gpt-4o-mini"
	DefaultPollInterval    = 60
	DefaultFetchLimit      = 5
	DefaultPollWorkers     = 4
	DefaultFollowUpEvery   = 3600
	DefaultOpenAITimeoutSec = 60
)

type Config struct {
	Log      LogConfig      `toml:"log"`
	Server   ServerConfig   `toml:"server"`
	Auth     AuthConfig     `toml:"auth"`
	Postgres PostgresConfig `toml:"postgres"`
	OpenAI   OpenAIConfig   `toml:"openai"`
	Poll     PollConfig     `toml:"poll"`
	FollowUp FollowUpConfig `toml:"followup"`
	Mail     MailConfig     `toml:"mail"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type AuthConfig struct {
	JWTSecret    string `toml:"jwt_secret"`
	JWTExpiresIn string `toml:"jwt_expires_in"`
}

type PostgresConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	SSLMode  string `toml:"sslmode"`
}

// DSN renders a pgx-compatible connection string.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

type OpenAIConfig struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	ChatModel      string `toml:"chat_model"`
	ClassifyModel  string `toml:"classify_model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

func (c OpenAIConfig) Timeout() time.Duration {
	secs := c.TimeoutSeconds
	if secs <= 0 {
		secs = DefaultOpenAITimeoutSec
	}
	return time.Duration(secs) * time.Second
}

type PollConfig struct {
	IntervalSeconds int `toml:"interval_seconds"`
	FetchLimit      int `toml:"fetch_limit"`
	Workers         int `toml:"workers"`
}

func (c PollConfig) Interval() time.Duration {
	secs := c.IntervalSeconds
	if secs <= 0 {
		secs = DefaultPollInterval
	}
	return time.Duration(secs) * time.Second
}

type FollowUpConfig struct {
	IntervalSeconds int `toml:"interval_seconds"`
}

func (c FollowUpConfig) Interval() time.Duration {
	secs := c.IntervalSeconds
	if secs <= 0 {
		secs = DefaultFollowUpEvery
	}
	return time.Duration(secs) * time.Second
}

// MailConfig carries addresses the ingest filter must never reply to.
type MailConfig struct {
	SystemSender string `toml:"system_sender"`
}

func Load(path string) (Config, error) {
	cfg := Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: DefaultHTTPAddr,
		},
		Auth: AuthConfig{
			JWTExpiresIn: DefaultJWTExpiresIn,
		},
		Postgres: PostgresConfig{
			Host:     DefaultPGHost,
			Port:     DefaultPGPort,
			User:     DefaultPGUser,
			Database: DefaultPGDatabase,
			SSLMode:  DefaultPGSSLMode,
		},
		OpenAI: OpenAIConfig{
			ChatModel:      DefaultChatModel,
			ClassifyModel:  DefaultClassifyModel,
			TimeoutSeconds: DefaultOpenAITimeoutSec,
		},
		Poll: PollConfig{
			IntervalSeconds: DefaultPollInterval,
			FetchLimit:      DefaultFetchLimit,
			Workers:         DefaultPollWorkers,
		},
		FollowUp: FollowUpConfig{
			IntervalSeconds: DefaultFollowUpEvery,
		},
	}

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}
