package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"
)

const (
	defaultConfigFile = "conf/config.json"
	defaultBaseUrl    = "https://api.unsplash.com"
	defaultDatabase   = "data/moodpic.db"
)

type Config struct {
	Unsplash struct {
		AccessKey string `json:"access"`
		BaseUrl   string `json:"baseUrl"`
		Timeout   string `json:"timeout"`
		Count     int    `json:"count"`
	} `json:"unsplash.com"`
	Server struct {
		Listen string `json:"listen"`
		Auth   bool   `json:"auth"`
	} `json:"server"`
	Database string `json:"database"`
	History  struct {
		Retention string `json:"retention"`
	} `json:"history"`
	Log struct {
		File       string `json:"file"`
		Debug      bool   `json:"debug"`
		MaxSizeMB  int    `json:"maxSizeMB"`
		MaxBackups int    `json:"maxBackups"`
		MaxAgeDays int    `json:"maxAgeDays"`
		Compress   bool   `json:"compress"`
	} `json:"log"`
	Debug struct {
		PrettyJson bool `json:"prettyJson"`
	} `json:"debug"`

	timeout   time.Duration
	retention time.Duration
}

func defaultConfig() *Config {
	cfg := &Config{}
	cfg.Unsplash.BaseUrl = defaultBaseUrl
	cfg.Unsplash.Timeout = "10s"
	cfg.Unsplash.Count = 3
	cfg.Server.Listen = ":8081"
	cfg.Database = defaultDatabase
	cfg.History.Retention = "720h"
	cfg.Log.MaxSizeMB = 10
	cfg.Log.MaxBackups = 3
	cfg.Log.MaxAgeDays = 28
	return cfg
}

// Timeout bounds a whole round-trip to the photo service.
func (cfg *Config) Timeout() time.Duration { return cfg.timeout }

func (cfg *Config) Retention() time.Duration { return cfg.retention }

func configPath() string {
	if p := os.Getenv("MOODPIC_CONFIG"); p != "" {
		return p
	}
	return defaultConfigFile
}

// loadConfigFile reads the config at path. A missing file is not an error on
// its own; the environment may still supply the access key.
func loadConfigFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return loadConfig(nil)
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return loadConfig(f)
}

func loadConfig(r io.ReadSeeker) (*Config, error) {
	cfg := defaultConfig()

	if r != nil {
		decoder := json.NewDecoder(r)
		switch err := decoder.Decode(cfg).(type) {
		case nil:
		case *json.SyntaxError:
			if _, serr := r.Seek(0, io.SeekStart); serr != nil {
				return nil, err
			}
			pos := findPos(bufio.NewReader(r), int(err.Offset))
			return nil, fmt.Errorf("unable to decode configuration file (Line: %d, Pos: %d): %w", pos.line, pos.pos, err)
		default:
			return nil, fmt.Errorf("unable to decode configuration file: %w", err)
		}
	}

	if key := os.Getenv("UNSPLASH_ACCESS_KEY"); key != "" {
		cfg.Unsplash.AccessKey = key
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) validate() error {
	// The access key is only required to serve; see NewUnsplashApi.
	cfg.Unsplash.AccessKey = strings.TrimSpace(cfg.Unsplash.AccessKey)
	if cfg.Unsplash.BaseUrl == "" {
		cfg.Unsplash.BaseUrl = defaultBaseUrl
	}
	cfg.Unsplash.BaseUrl = strings.TrimRight(cfg.Unsplash.BaseUrl, "/")
	if cfg.Unsplash.Count < 1 {
		return &ConfigError{Field: "unsplash.com.count", Reason: "must be at least 1"}
	}

	d, err := time.ParseDuration(cfg.Unsplash.Timeout)
	if err != nil {
		return &ConfigError{Field: "unsplash.com.timeout", Reason: fmt.Sprintf("invalid duration %q", cfg.Unsplash.Timeout)}
	}
	if d <= 0 {
		return &ConfigError{Field: "unsplash.com.timeout", Reason: "must be positive"}
	}
	cfg.timeout = d

	d, err = time.ParseDuration(cfg.History.Retention)
	if err != nil {
		return &ConfigError{Field: "history.retention", Reason: fmt.Sprintf("invalid duration %q", cfg.History.Retention)}
	}
	cfg.retention = d

	if cfg.Database == "" {
		cfg.Database = defaultDatabase
	}
	return nil
}

type FilePos struct {
	line int
	pos  int
}

func findPos(file *bufio.Reader, offset int) FilePos {
	p := FilePos{line: 1, pos: offset}
	var lineLen int
	for line, err := file.ReadBytes('\n'); len(line) > 0 && err == nil; line, err = file.ReadBytes('\n') {
		if p.pos < len(line) {
			return p
		}
		lineLen += len(line)
		if line[len(line)-1] == '\n' {
			p.line += 1
			p.pos -= lineLen
			lineLen = 0
		}
	}
	return p
}
