// Package config holds the tunables of the server process.
// The animation itself (interval, geometry, colours) is fixed and not configurable here.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/MRamiBalles/sinewave/internal/platform/logger"
)

// Config holds tuned parameters for the server.
type Config struct {
	// HTTP listener
	Addr string `yaml:"addr"`

	// Logging
	LogLevel string `yaml:"log_level"`

	// Channel buffers
	BroadcastChannelBuffer int `yaml:"broadcast_channel_buffer"`
	ClientSendBuffer       int `yaml:"client_send_buffer"`

	// Viewers
	MaxClients int `yaml:"max_clients"`

	// Diagnostics journal. An empty JournalPath keeps it in memory only.
	JournalPath     string `yaml:"journal_path"`
	JournalCapacity int    `yaml:"journal_capacity"`
	JournalQueue    int    `yaml:"journal_queue"`
	DBMaxOpenConns  int    `yaml:"db_max_open_conns"`
}

// DefaultConfig returns sensible defaults for production.
func DefaultConfig() *Config {
	numCPU := runtime.NumCPU()

	return &Config{
		Addr:     ":8080",
		LogLevel: "info",

		BroadcastChannelBuffer: 16, // a frame every 500ms, bursts only on reconnect storms
		ClientSendBuffer:       8,  // per WebSocket

		MaxClients: 200,

		JournalCapacity: 1024,
		JournalQueue:    64,
		DBMaxOpenConns:  numCPU,
	}
}

// LowResourceConfig returns minimal settings for development.
func LowResourceConfig() *Config {
	return &Config{
		Addr:     "127.0.0.1:8080",
		LogLevel: "debug",

		BroadcastChannelBuffer: 4,
		ClientSendBuffer:       2,

		MaxClients: 10,

		JournalCapacity: 128,
		JournalQueue:    8,
		DBMaxOpenConns:  1,
	}
}

// Load reads a YAML file over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	return LoadOver(DefaultConfig(), path)
}

// LoadOver reads a YAML file over base, which it modifies and returns.
func LoadOver(cfg *Config, path string) (*Config, error) {
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every out-of-range field at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.BroadcastChannelBuffer < 1 {
		errs = append(errs, errors.New("broadcast_channel_buffer must be positive"))
	}
	if c.ClientSendBuffer < 1 {
		errs = append(errs, errors.New("client_send_buffer must be positive"))
	}
	if c.MaxClients < 1 {
		errs = append(errs, errors.New("max_clients must be positive"))
	}
	if c.JournalCapacity < 1 {
		errs = append(errs, errors.New("journal_capacity must be positive"))
	}
	if c.JournalQueue < 1 {
		errs = append(errs, errors.New("journal_queue must be positive"))
	}
	if c.DBMaxOpenConns < 1 {
		errs = append(errs, errors.New("db_max_open_conns must be positive"))
	}
	return errors.Join(errs...)
}
