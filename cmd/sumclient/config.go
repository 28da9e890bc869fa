package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/sumctl/internal/config"
	"github.com/danmuck/sumctl/internal/exchange"
)

type fileConfig struct {
	Port           int    `toml:"port"`
	PrefixSums     bool   `toml:"prefix_sums"`
	ReplyTimeout   string `toml:"reply_timeout"`
	ReplyTimeoutMS int64  `toml:"reply_timeout_ms"`
}

type clientConfig struct {
	Port     int
	Exchange exchange.ClientConfig
}

func defaultClientConfig() clientConfig {
	return clientConfig{Port: config.DefaultPort}
}

func loadClientConfig(path string) (clientConfig, error) {
	cfg := defaultClientConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return clientConfig{}, fmt.Errorf("load client config: %w", err)
	}

	if meta.IsDefined("port") {
		if raw.Port < 1 || raw.Port > 65535 {
			return clientConfig{}, fmt.Errorf("port out of range: %d", raw.Port)
		}
		cfg.Port = raw.Port
	}

	if meta.IsDefined("prefix_sums") {
		cfg.Exchange.PrefixSums = raw.PrefixSums
	}

	if meta.IsDefined("reply_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.ReplyTimeout))
		if err != nil {
			return clientConfig{}, fmt.Errorf("parse reply_timeout: %w", err)
		}
		cfg.Exchange.ReplyTimeout = d
	}

	if meta.IsDefined("reply_timeout_ms") {
		cfg.Exchange.ReplyTimeout = time.Duration(raw.ReplyTimeoutMS) * time.Millisecond
	}

	if cfg.Exchange.ReplyTimeout < 0 {
		return clientConfig{}, fmt.Errorf("reply_timeout must not be negative")
	}
	return cfg, nil
}
