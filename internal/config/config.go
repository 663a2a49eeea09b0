// Package config provides centralized configuration management for the application.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/cli/go-gh/v2/pkg/auth"
	"github.com/spf13/viper"
)

// Configuration keys. Flags are bound to the same names.
const (
	KeyToken         = "github.token"
	KeyAPIURL        = "github.api_url"
	KeyOwner         = "owner"
	KeyRepositories  = "repositories"
	KeyLookbackDays  = "window.lookback_days"
	KeyReferenceHour = "window.reference_hour"
	KeyTimelinePages = "timeline.max_pages"
	KeyConcurrency   = "concurrency"
)

const defaultAPIURL = "https://api.github.com/"

// Config holds all configuration parameters for the application.
type Config struct {
	GitHub       GitHubConfig
	Owner        string
	Repositories []string
	Window       WindowConfig
	Timeline     TimelineConfig
	Concurrency  int
}

// GitHubConfig holds GitHub specific configuration.
type GitHubConfig struct {
	Token  string
	APIURL string
}

// WindowConfig describes how the report window is built.
type WindowConfig struct {
	LookbackDays  int
	ReferenceHour int
}

// TimelineConfig bounds timeline retrieval per issue.
type TimelineConfig struct {
	MaxPages int
}

// tokenForHost resolves a token from the gh CLI configuration.
var tokenForHost = func(host string) string {
	token, _ := auth.TokenForHost(host)
	return token
}

// New returns a viper instance with defaults and environment bindings applied.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyAPIURL, defaultAPIURL)
	v.SetDefault(KeyLookbackDays, 7)
	v.SetDefault(KeyReferenceHour, 3)
	v.SetDefault(KeyTimelinePages, 0)
	v.SetDefault(KeyConcurrency, 1)

	v.BindEnv(KeyToken, "GITHUB_TOKEN")
	v.BindEnv(KeyAPIURL, "GITHUB_API_URL")
	v.BindEnv(KeyOwner, "ISSUE_STATS_OWNER")
	v.BindEnv(KeyRepositories, "ISSUE_STATS_REPOSITORIES")
	v.BindEnv(KeyLookbackDays, "ISSUE_STATS_LOOKBACK_DAYS")
	v.BindEnv(KeyReferenceHour, "ISSUE_STATS_REFERENCE_HOUR")
	v.BindEnv(KeyTimelinePages, "ISSUE_STATS_TIMELINE_MAX_PAGES")
	v.BindEnv(KeyConcurrency, "ISSUE_STATS_CONCURRENCY")
	return v
}

// Load reads the optional config file into v and builds a validated Config.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	cfg := &Config{
		GitHub: GitHubConfig{
			Token:  v.GetString(KeyToken),
			APIURL: v.GetString(KeyAPIURL),
		},
		Owner:        strings.TrimSpace(v.GetString(KeyOwner)),
		Repositories: splitList(v.GetStringSlice(KeyRepositories)),
		Window: WindowConfig{
			LookbackDays:  v.GetInt(KeyLookbackDays),
			ReferenceHour: v.GetInt(KeyReferenceHour),
		},
		Timeline:    TimelineConfig{MaxPages: v.GetInt(KeyTimelinePages)},
		Concurrency: v.GetInt(KeyConcurrency),
	}
	if cfg.GitHub.Token == "" {
		cfg.GitHub.Token = tokenForHost(apiHost(cfg.GitHub.APIURL))
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// splitList accepts both list values and comma separated strings, as the
// environment can only carry the latter.
func splitList(values []string) []string {
	var out []string
	for _, value := range values {
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}

// apiHost maps an API URL to the host gh stores credentials under.
func apiHost(apiURL string) string {
	u, err := url.Parse(apiURL)
	if err != nil || u.Host == "" || u.Host == "api.github.com" {
		return "github.com"
	}
	return u.Host
}

// validateConfig ensures that all required configuration values are provided.
func validateConfig(cfg *Config) error {
	var missingVars []string
	if cfg.GitHub.Token == "" {
		missingVars = append(missingVars, "GITHUB_TOKEN")
	}
	if cfg.Owner == "" {
		missingVars = append(missingVars, "ISSUE_STATS_OWNER")
	}
	if len(missingVars) > 0 {
		return fmt.Errorf("missing required configuration: %v", missingVars)
	}

	var errs []error
	if cfg.Window.LookbackDays < 1 {
		errs = append(errs, fmt.Errorf("window.lookback_days must be at least 1, got %d", cfg.Window.LookbackDays))
	}
	if cfg.Window.ReferenceHour < 0 || cfg.Window.ReferenceHour > 23 {
		errs = append(errs, fmt.Errorf("window.reference_hour must be within 0-23, got %d", cfg.Window.ReferenceHour))
	}
	if cfg.Timeline.MaxPages < 0 {
		errs = append(errs, fmt.Errorf("timeline.max_pages must not be negative, got %d", cfg.Timeline.MaxPages))
	}
	if cfg.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("concurrency must be at least 1, got %d", cfg.Concurrency))
	}
	if _, err := url.Parse(cfg.GitHub.APIURL); err != nil {
		errs = append(errs, fmt.Errorf("invalid github.api_url: %w", err))
	}
	return errors.Join(errs...)
}
