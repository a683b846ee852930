// Package config loads service configuration from file, .env and SOCDRC_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/soc-pilot/drc/internal/checker"
	"github.com/soc-pilot/drc/internal/logger"
	"github.com/soc-pilot/drc/internal/server"
	"github.com/soc-pilot/drc/internal/store"
)

// EnvPrefix prefixes every environment override (server.addr -> SOCDRC_SERVER_ADDR).
const EnvPrefix = "SOCDRC"

// Config is the full service configuration.
type Config struct {
	Log     logger.Config   `mapstructure:"log"`
	Server  server.Config   `mapstructure:"server"`
	Store   store.Config    `mapstructure:"store"`
	Library LibraryConfig   `mapstructure:"library"`
	DRC     checker.Options `mapstructure:"drc"`
}

// LibraryConfig selects the component library source.
type LibraryConfig struct {
	// Dir is a directory of library files; empty uses the built-in catalog.
	Dir   string `mapstructure:"dir"`
	Watch bool   `mapstructure:"watch"`
}

// Load reads configuration. An explicit path must exist; otherwise an
// optional drc.{yaml,json,toml} in the working directory is used.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("drc")
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	srv := server.DefaultConfig()
	v.SetDefault("server.addr", srv.Addr)
	v.SetDefault("server.rate_limit", srv.RateLimit)
	v.SetDefault("server.burst", srv.Burst)
	v.SetDefault("server.request_timeout", srv.RequestTimeout)

	v.SetDefault("store.type", "memory")
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.path", "")
	v.SetDefault("store.bucket", "")
	v.SetDefault("store.prefix", "drc-reports")

	v.SetDefault("library.dir", "")
	v.SetDefault("library.watch", false)

	drc := checker.DefaultOptions()
	v.SetDefault("drc.check_optional_ports", drc.CheckOptionalPorts)
	v.SetDefault("drc.auto_fix", drc.AutoFix)
	v.SetDefault("drc.max_parallel", drc.MaxParallel)
	v.SetDefault("drc.max_fan_out", drc.MaxFanOut)
	v.SetDefault("drc.max_path_length", drc.MaxPathLength)
	v.SetDefault("drc.address_alignment", drc.AddressAlignment)
	regions := make([]map[string]any, 0, len(drc.ReservedRegions))
	for _, r := range drc.ReservedRegions {
		regions = append(regions, map[string]any{"name": r.Name, "base": string(r.Base), "size": string(r.Size)})
	}
	v.SetDefault("drc.reserved_regions", regions)
	v.SetDefault("drc.disabled_rules", []string{})
}
