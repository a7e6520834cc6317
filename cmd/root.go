package cmd

import (
	"fmt"
	"maps"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/tanq16/bfsp/internal/config"
	"github.com/tanq16/bfsp/internal/downloader"
	"github.com/tanq16/bfsp/internal/utils"
)

var (
	configPath  string
	envFile     string
	debug       bool
	connections int
	downloads   int
	timeout     time.Duration
	retries     int
	retryDelay  time.Duration
	pacing      time.Duration
	baseURL     string
	userAgent   string
	proxyURL    string
	headers     []string
)

var BFSPVersion = "dev"

// engineConfig is resolved once per invocation by the root pre-run hook.
var engineConfig downloader.Config

var rootCmd = &cobra.Command{
	Use:     "bfsp",
	Short:   "bfsp bulk downloads Betfair SP historical price files",
	Version: BFSPVersion,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		utils.InitLogger(debug)
		utils.ToolUserAgent = "bfsp/" + BFSPVersion
		cfg, err := config.Load(configPath, envFile)
		if err != nil {
			return err
		}
		applyFlags(cmd, &cfg)
		if cfg.UserAgent == "randomize" {
			cfg.UserAgent = utils.GetRandomUserAgent()
		}
		engineConfig = cfg.Engine()
		if err := engineConfig.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		return nil
	},
	SilenceUsage: true,
}

// applyFlags overrides file and environment settings with the flags the user
// actually set on the command line.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("connections") {
		cfg.MaxConnections = connections
	}
	if flags.Changed("downloads") {
		cfg.MaxDownloads = downloads
	}
	if flags.Changed("timeout") {
		cfg.RequestTimeout = timeout
	}
	if flags.Changed("retries") {
		cfg.MaxRetries = retries
	}
	if flags.Changed("retry-delay") {
		cfg.BaseRetryDelay = retryDelay
	}
	if flags.Changed("pacing") {
		cfg.PacingDelay = pacing
	}
	if flags.Changed("base-url") {
		cfg.BaseURL = baseURL
	}
	if flags.Changed("user-agent") {
		cfg.UserAgent = userAgent
	}
	if flags.Changed("proxy") {
		cfg.Proxy = proxyURL
	}
	if len(headers) > 0 {
		merged := maps.Clone(cfg.Headers)
		if merged == nil {
			merged = make(map[string]string)
		}
		maps.Copy(merged, utils.ParseHeaderArgs(headers))
		cfg.Headers = merged
	}
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	d := config.Default()
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file with engine settings")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Dotenv file with BFSP_* settings (ignored if missing)")
	rootCmd.PersistentFlags().IntVar(&connections, "connections", d.MaxConnections, "Maximum concurrent HTTP connections")
	rootCmd.PersistentFlags().IntVar(&downloads, "downloads", d.MaxDownloads, "Maximum files in flight (at most --connections)")
	rootCmd.PersistentFlags().DurationVarP(&timeout, "timeout", "t", d.RequestTimeout, "Timeout per request attempt (eg. 30s, 2m)")
	rootCmd.PersistentFlags().IntVar(&retries, "retries", d.MaxRetries, "Retries after the first attempt")
	rootCmd.PersistentFlags().DurationVar(&retryDelay, "retry-delay", d.BaseRetryDelay, "Base delay for exponential backoff")
	rootCmd.PersistentFlags().DurationVar(&pacing, "pacing", d.PacingDelay, "Delay before the first attempt of each file")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", d.BaseURL, "Archive base URL")
	rootCmd.PersistentFlags().StringVarP(&userAgent, "user-agent", "a", "", "User agent (\"randomize\" picks a browser agent)")
	rootCmd.PersistentFlags().StringVarP(&proxyURL, "proxy", "p", "", "HTTP/HTTPS proxy URL, credentials may be embedded")
	rootCmd.PersistentFlags().StringArrayVarP(&headers, "header", "H", []string{}, "Custom headers (like 'X-Trace: 1'); can be specified multiple times")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(newFetchCmd())
	rootCmd.AddCommand(newPlanCmd())
	rootCmd.AddCommand(newCombineCmd())
	rootCmd.AddCommand(newCountriesCmd())
}
