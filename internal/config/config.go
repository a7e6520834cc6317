package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
	"github.com/tanq16/bfsp/internal/downloader"
	"github.com/tanq16/bfsp/internal/utils"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable, e.g.
// BFSP_MAX_CONNECTIONS.
const EnvPrefix = "BFSP"

type Config struct {
	BaseURL           string            `yaml:"base_url" envconfig:"BASE_URL"`
	MaxConnections    int               `yaml:"max_connections" envconfig:"MAX_CONNECTIONS"`
	MaxDownloads      int               `yaml:"max_downloads" envconfig:"MAX_DOWNLOADS"`
	RequestTimeout    time.Duration     `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
	MaxRetries        int               `yaml:"max_retries" envconfig:"MAX_RETRIES"`
	BaseRetryDelay    time.Duration     `yaml:"base_retry_delay" envconfig:"BASE_RETRY_DELAY"`
	PacingDelay       time.Duration     `yaml:"pacing_delay" envconfig:"PACING_DELAY"`
	DefaultRetryAfter time.Duration     `yaml:"default_retry_after" envconfig:"DEFAULT_RETRY_AFTER"`
	UserAgent         string            `yaml:"user_agent" envconfig:"USER_AGENT"`
	Proxy             string            `yaml:"proxy" envconfig:"PROXY"`
	Headers           map[string]string `yaml:"headers" envconfig:"HEADERS"`
}

func Default() Config {
	d := downloader.DefaultConfig()
	return Config{
		BaseURL:           d.BaseURL,
		MaxConnections:    d.MaxConcurrentConnections,
		MaxDownloads:      d.MaxConcurrentDownloads,
		RequestTimeout:    d.RequestTimeout,
		MaxRetries:        d.MaxRetries,
		BaseRetryDelay:    d.BaseRetryDelay,
		PacingDelay:       d.PacingDelay,
		DefaultRetryAfter: d.DefaultRetryAfter,
	}
}

// Load layers defaults, the YAML file at configPath (optional when empty),
// the dotenv file at envFile (skipped when missing) and BFSP_* variables.
// Values already present in the process environment win over the dotenv file.
func Load(configPath, envFile string) (Config, error) {
	cfg := Default()
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return cfg, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("error parsing config file %s: %w", configPath, err)
		}
		log.Debug().Str("op", "config/load").Msgf("Loaded %s", configPath)
	}
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return cfg, fmt.Errorf("error loading env file %s: %w", envFile, err)
			}
		} else {
			log.Debug().Str("op", "config/load").Msgf("Loaded %s", envFile)
		}
	}
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return cfg, fmt.Errorf("error reading environment: %w", err)
	}
	return cfg, nil
}

// Engine converts the file-level settings into an engine configuration.
func (c Config) Engine() downloader.Config {
	httpCfg := utils.HTTPClientConfig{
		UserAgent: c.UserAgent,
		ProxyURL:  c.Proxy,
		Headers:   c.Headers,
	}
	utils.SplitProxyAuth(&httpCfg)
	return downloader.Config{
		BaseURL:                  c.BaseURL,
		MaxConcurrentConnections: c.MaxConnections,
		MaxConcurrentDownloads:   c.MaxDownloads,
		RequestTimeout:           c.RequestTimeout,
		MaxRetries:               c.MaxRetries,
		BaseRetryDelay:           c.BaseRetryDelay,
		PacingDelay:              c.PacingDelay,
		DefaultRetryAfter:        c.DefaultRetryAfter,
		HTTP:                     httpCfg,
	}
}
