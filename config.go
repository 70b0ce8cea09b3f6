package hellostatic

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"
)

type Mode string

const (
	// ModeParsed reads the whole request head and parses the request line.
	ModeParsed Mode = "parsed"
	// ModeLegacy does one fixed-size read and a literal prefix match.
	ModeLegacy Mode = "legacy"
)

const DefaultListen = "127.0.0.1:7878"

type Config struct {
	RootDir      string        `json:"rootdir,omitempty"`
	Listen       string        `json:"listen,omitempty"`
	Mode         Mode          `json:"mode,omitempty"`
	IndexFile    string        `json:"index,omitempty"`
	NotFoundFile string        `json:"notfound,omitempty"`
	ReadLimit    int           `json:"readlimit,omitempty"`
	ReadTimeout  time.Duration `json:"readtimeout,omitempty"`
	WriteTimeout time.Duration `json:"writetimeout,omitempty"`
	MaxConns     int           `json:"maxconns,omitempty"`
	Serial       bool          `json:"serial,omitempty"`
}

func CreateConfig() *Config {
	return &Config{
		RootDir:      ".",
		Listen:       DefaultListen,
		Mode:         ModeParsed,
		IndexFile:    "index.html",
		NotFoundFile: "404.html",
		ReadLimit:    8192,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

// LegacyConfig is the single-threaded server on 127.0.0.1:7878: fixed buffer,
// prefix match, one connection at a time and no deadlines.
func LegacyConfig() *Config {
	return &Config{
		RootDir:      ".",
		Listen:       DefaultListen,
		Mode:         ModeLegacy,
		IndexFile:    "index.html",
		NotFoundFile: "404.html",
		ReadLimit:    LegacyBufferSize,
		Serial:       true,
	}
}

func (c *Config) Validate() error {
	switch c.Mode {
	case ModeParsed, ModeLegacy:
	default:
		return fmt.Errorf("unknown mode %q", c.Mode)
	}
	if c.RootDir == "" {
		return fmt.Errorf("rootdir cannot be empty")
	}
	if c.IndexFile == "" || c.NotFoundFile == "" {
		return fmt.Errorf("index and notfound files cannot be empty")
	}
	if c.ReadLimit <= 0 {
		return fmt.Errorf("readlimit must be positive: %d", c.ReadLimit)
	}
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 {
		return fmt.Errorf("timeouts cannot be negative")
	}
	if c.MaxConns < 0 {
		return fmt.Errorf("maxconns cannot be negative: %d", c.MaxConns)
	}
	return nil
}

// New builds a server for config serving files from config.RootDir.
func New(ctx context.Context, config *Config) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(config.RootDir); err != nil {
		return nil, fmt.Errorf("rootdir: %w", err)
	}
	slog.InfoContext(ctx, "hellostatic initialized", "rootdir", config.RootDir, "mode", config.Mode)
	return NewServer(NewHandler(os.DirFS(config.RootDir), config), config), nil
}
