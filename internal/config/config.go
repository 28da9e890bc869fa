package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

const (
	EnvServerConfig   = "SUMCTL_SERVER_CONFIG"
	EnvClientConfig   = "SUMCTL_CLIENT_CONFIG"
	ServerConfigPath  = "cmd/sumserver/config.toml"
	DefaultPort       = 20000
	DefaultListenAddr = ":20000"
	DefaultServerName = "sumserver"
	MaxWorkers        = 256
)

type ServerConfig struct {
	Name        string   `toml:"name"`
	ListenAddr  string   `toml:"listen_addr"`
	PrefixSums  *bool    `toml:"prefix_sums"`
	Workers     int      `toml:"workers"`
	AdminAddr   string   `toml:"admin_addr"`
	CorsOrigins []string `toml:"cors_origins"`
}

// DefaultServerConfig matches the reference server: all addresses on the
// fixed port, prefix-sum replies on, one exchange at a time, no admin surface.
func DefaultServerConfig() ServerConfig {
	prefix := true
	return ServerConfig{
		Name:       DefaultServerName,
		ListenAddr: DefaultListenAddr,
		PrefixSums: &prefix,
		Workers:    1,
	}
}

// WithPrefixSums reports whether the extended reply is enabled.
func (c ServerConfig) WithPrefixSums() bool {
	return c.PrefixSums == nil || *c.PrefixSums
}

// LoadServerConfig reads path over the defaults. A missing file is only an
// error when required is set.
func LoadServerConfig(path string, required bool) (ServerConfig, error) {
	cfg := DefaultServerConfig()
	if err := loadToml(path, &cfg); err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return ServerConfig{}, err
	}
	if strings.TrimSpace(cfg.Name) == "" {
		cfg.Name = DefaultServerName
	}
	if strings.TrimSpace(cfg.ListenAddr) == "" {
		cfg.ListenAddr = DefaultListenAddr
	}
	if cfg.Workers == 0 {
		cfg.Workers = 1
	}
	if err := ValidateServerConfig(cfg); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func ValidateServerConfig(cfg ServerConfig) error {
	if strings.TrimSpace(cfg.Name) == "" {
		return fmt.Errorf("server config missing name")
	}
	if err := validateAddr(cfg.ListenAddr); err != nil {
		return fmt.Errorf("listen_addr invalid: %w", err)
	}
	if cfg.Workers < 1 || cfg.Workers > MaxWorkers {
		return fmt.Errorf("workers must be between 1 and %d, got %d", MaxWorkers, cfg.Workers)
	}
	if strings.TrimSpace(cfg.AdminAddr) != "" {
		if err := validateAddr(cfg.AdminAddr); err != nil {
			return fmt.Errorf("admin_addr invalid: %w", err)
		}
	}
	return nil
}

func validateAddr(addr string) error {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return fmt.Errorf("address is required")
	}
	if _, port, err := net.SplitHostPort(addr); err != nil {
		return err
	} else if port == "" {
		return fmt.Errorf("port is required")
	}
	return nil
}
