package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Prefix   string         `json:"prefix"   env:"BOTFLEET_PREFIX"`
	DataDir  string         `json:"data_dir" env:"BOTFLEET_DATA_DIR"`
	Owner    OwnerConfig    `json:"owner"`
	Gateway  GatewayConfig  `json:"gateway"`
	Retry    RetryConfig    `json:"retry"`
	Dedup    DedupConfig    `json:"dedup"`
	Download DownloadConfig `json:"download"`
	Schedule ScheduleConfig `json:"schedule"`
	Logging  LoggingConfig  `json:"logging"`
}

// OwnerConfig identifies the operator conversation that receives one-time
// "bot online" notifications and scheduled greetings.
type OwnerConfig struct {
	ConversationID string `json:"conversation_id" env:"BOTFLEET_OWNER_CONVERSATION_ID"`
}

type GatewayConfig struct {
	Host string `json:"host" env:"BOTFLEET_GATEWAY_HOST"`
	Port int    `json:"port" env:"BOTFLEET_GATEWAY_PORT"`
}

// RetryConfig shapes the login retry loop. The delay grows exponentially
// from Initial to Max with jitter; the loop itself never gives up.
type RetryConfig struct {
	InitialSeconds int `json:"initial_seconds" env:"BOTFLEET_RETRY_INITIAL_SECONDS"`
	MaxSeconds     int `json:"max_seconds"     env:"BOTFLEET_RETRY_MAX_SECONDS"`
}

type DedupConfig struct {
	TTLMinutes   int `json:"ttl_minutes"   env:"BOTFLEET_DEDUP_TTL_MINUTES"`
	SweepSeconds int `json:"sweep_seconds" env:"BOTFLEET_DEDUP_SWEEP_SECONDS"`
}

type DownloadConfig struct {
	ResolverURL    string `json:"resolver_url"    env:"BOTFLEET_DOWNLOAD_RESOLVER_URL"`
	TimeoutSeconds int    `json:"timeout_seconds" env:"BOTFLEET_DOWNLOAD_TIMEOUT_SECONDS"`
}

// ScheduleConfig holds cron expressions for the background tasks. An empty
// expression disables the task.
type ScheduleConfig struct {
	AutoGreet   string `json:"auto_greet"   env:"BOTFLEET_SCHEDULE_AUTO_GREET"`
	AutoRestart string `json:"auto_restart" env:"BOTFLEET_SCHEDULE_AUTO_RESTART"`
}

type LoggingConfig struct {
	Level string `json:"level" env:"BOTFLEET_LOG_LEVEL"`
	File  string `json:"file"  env:"BOTFLEET_LOG_FILE"`
}

func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Prefix:  "/",
		DataDir: filepath.Join(home, ".botfleet"),
		Gateway: GatewayConfig{
			Host: "0.0.0.0",
			Port: 3000,
		},
		Retry: RetryConfig{
			InitialSeconds: 5,
			MaxSeconds:     300,
		},
		Dedup: DedupConfig{
			TTLMinutes:   60,
			SweepSeconds: 60,
		},
		Download: DownloadConfig{
			TimeoutSeconds: 60,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig reads the JSON config at path, then applies environment
// overrides. A missing or unreadable config file is an error; the caller
// treats that as fatal at startup.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("applying env overrides: %w", err)
	}

	return cfg, nil
}

// SaveConfig writes cfg as indented JSON, creating the directory if needed.
func SaveConfig(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

func (c *Config) AccountsPath() string {
	return filepath.Join(c.DataDir, "accounts.json")
}

func (c *Config) IdentitiesPath() string {
	return filepath.Join(c.DataDir, "identities.json")
}

func (c *Config) URLStatusPath() string {
	return filepath.Join(c.DataDir, "url_status.json")
}

func (c *Config) GatewayAddr() string {
	return fmt.Sprintf("%s:%d", c.Gateway.Host, c.Gateway.Port)
}

func (c *Config) RetryInitial() time.Duration {
	return time.Duration(c.Retry.InitialSeconds) * time.Second
}

func (c *Config) RetryMax() time.Duration {
	return time.Duration(c.Retry.MaxSeconds) * time.Second
}

func (c *Config) DedupTTL() time.Duration {
	return time.Duration(c.Dedup.TTLMinutes) * time.Minute
}

func (c *Config) DedupSweep() time.Duration {
	return time.Duration(c.Dedup.SweepSeconds) * time.Second
}

func (c *Config) DownloadTimeout() time.Duration {
	return time.Duration(c.Download.TimeoutSeconds) * time.Second
}
