package main

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

type config struct {
	Addr        string `yaml:"addr"`
	DBPath      string `yaml:"db_path"`
	LexiconPath string `yaml:"lexicon_path"` // empty = embedded default
	LogLevel    string `yaml:"log_level"`
	CacheSize   int    `yaml:"cache_size"` // 0 = unbounded memo caches
	Workers     int    `yaml:"workers"`    // 0 = GOMAXPROCS
	FailureLog  string `yaml:"failure_log"`
	FormatPath  string `yaml:"format_path"` // CSV format for encode; empty = comma, UTF-8, header

	// QUIC serves HTTPS, HTTP/3 and MCP over QUIC on Addr instead of plain HTTP.
	QUIC    bool   `yaml:"quic"`
	TLSCert string `yaml:"tls_cert"` // both empty = self-signed
	TLSKey  string `yaml:"tls_key"`
}

func defaultConfig() config {
	return config{
		Addr:     ":8421",
		DBPath:   "templates.db",
		LogLevel: "info",
	}
}

// loadConfig reads path over the defaults. A missing file is not an error.
func loadConfig(path string, logger *slog.Logger) (config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug("no config file, using defaults", "path", path)
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if (cfg.TLSCert == "") != (cfg.TLSKey == "") {
		return cfg, fmt.Errorf("config %s: tls_cert and tls_key go together", path)
	}
	if cfg.CacheSize < 0 {
		return cfg, fmt.Errorf("config %s: cache_size must be >= 0", path)
	}
	return cfg, nil
}
