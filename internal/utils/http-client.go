package utils

import (
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"time"
)

type HTTPClientConfig struct {
	Timeout         time.Duration
	KATimeout       time.Duration
	ProxyURL        string
	ProxyUsername   string
	ProxyPassword   string
	UserAgent       string
	Headers         map[string]string
	MaxConnsPerHost int // 0 means unlimited
}

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type BFSPHTTPClient struct {
	client *http.Client
	config HTTPClientConfig
}

func NewBFSPHTTPClient(cfg HTTPClientConfig) (*BFSPHTTPClient, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.KATimeout == 0 {
		cfg.KATimeout = 60 * time.Second
	}
	cfg.Headers = maps.Clone(cfg.Headers)
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		IdleConnTimeout:     cfg.KATimeout,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: max(cfg.MaxConnsPerHost, http.DefaultMaxIdleConnsPerHost),
		MaxConnsPerHost:     cfg.MaxConnsPerHost,
	}
	if cfg.ProxyURL != "" {
		proxyURL, err := url.Parse(cfg.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %w", err)
		}
		if cfg.ProxyUsername != "" {
			if cfg.ProxyPassword != "" {
				proxyURL.User = url.UserPassword(cfg.ProxyUsername, cfg.ProxyPassword)
			} else {
				proxyURL.User = url.User(cfg.ProxyUsername)
			}
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}
	return &BFSPHTTPClient{
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		config: cfg,
	}, nil
}

func (b *BFSPHTTPClient) Do(req *http.Request) (*http.Response, error) {
	if b.config.UserAgent != "" {
		req.Header.Set("User-Agent", b.config.UserAgent)
	} else {
		req.Header.Set("User-Agent", ToolUserAgent)
	}
	for k, v := range b.config.Headers {
		req.Header.Set(k, v)
	}
	return b.client.Do(req)
}
