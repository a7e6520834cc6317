package downloader

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tanq16/bfsp/internal/utils"
)

const DefaultBaseURL = "https://promo.betfair.com/betfairsp/prices/"

type Config struct {
	BaseURL string
	// MaxConcurrentConnections caps HTTP round trips holding a connection.
	MaxConcurrentConnections int
	// MaxConcurrentDownloads caps requests inside their retry loop.
	MaxConcurrentDownloads int
	// RequestTimeout bounds one round trip, body included.
	RequestTimeout    time.Duration
	MaxRetries        int
	BaseRetryDelay    time.Duration
	PacingDelay       time.Duration
	DefaultRetryAfter time.Duration
	HTTP              utils.HTTPClientConfig
}

// ResourceURL joins the base URL and a file name, adding the separating
// slash when the base URL lacks it.
func (c Config) ResourceURL(resourceID string) string {
	if !strings.HasSuffix(c.BaseURL, "/") {
		return c.BaseURL + "/" + resourceID
	}
	return c.BaseURL + resourceID
}

func DefaultConfig() Config {
	return Config{
		BaseURL:                  DefaultBaseURL,
		MaxConcurrentConnections: 3,
		MaxConcurrentDownloads:   2,
		RequestTimeout:           60 * time.Second,
		MaxRetries:               3,
		BaseRetryDelay:           time.Second,
		PacingDelay:              100 * time.Millisecond,
		DefaultRetryAfter:        5 * time.Second,
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.BaseURL == "" {
		errs = append(errs, errors.New("base URL is required"))
	}
	if c.MaxConcurrentConnections < 1 {
		errs = append(errs, fmt.Errorf("max concurrent connections must be at least 1, got %d", c.MaxConcurrentConnections))
	}
	if c.MaxConcurrentDownloads < 1 {
		errs = append(errs, fmt.Errorf("max concurrent downloads must be at least 1, got %d", c.MaxConcurrentDownloads))
	}
	if c.MaxConcurrentDownloads > c.MaxConcurrentConnections {
		errs = append(errs, fmt.Errorf("max concurrent downloads (%d) exceeds max concurrent connections (%d)", c.MaxConcurrentDownloads, c.MaxConcurrentConnections))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("request timeout must be positive, got %s", c.RequestTimeout))
	}
	if c.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("max retries cannot be negative, got %d", c.MaxRetries))
	}
	if c.BaseRetryDelay < 0 || c.PacingDelay < 0 || c.DefaultRetryAfter < 0 {
		errs = append(errs, errors.New("delays cannot be negative"))
	}
	return errors.Join(errs...)
}
