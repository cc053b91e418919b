package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"github.com/varoOP/moviealert/internal/domain"
)

// EnvPrefix is the prefix of every environment variable moviealert reads.
const EnvPrefix = "MOVIEALERT"

// LegacyAPIKeyEnv is still honoured for the API key.
const LegacyAPIKeyEnv = "TMD_API_V3"

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("api_base_url", domain.DefaultAPIBaseURL)
	v.SetDefault("web_base_url", domain.DefaultWebBaseURL)
	v.SetDefault("language", "en-US")
	v.SetDefault("region", "US")
	v.SetDefault("genre.id", domain.AnimationGenreID)
	v.SetDefault("genre.name", domain.AnimationGenreName)
	v.SetDefault("window.days_before", 0)
	v.SetDefault("window.days_after", 30)
	v.SetDefault("max_pages", 1)
	v.SetDefault("http_timeout", "0s")
	v.SetDefault("rate_limit", 4.0)
	v.SetDefault("browser.command", "")
	v.SetDefault("history.enabled", false)
	v.SetDefault("history.dir", defaultHistoryDir())
	v.SetDefault("discord_webhook_url", "")
	v.SetDefault("log_level", "info")
}

// BindEnv makes every key readable from MOVIEALERT_* variables, with dots in
// nested keys replaced by underscores.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("tmdb_api_key", EnvPrefix+"_TMDB_API_KEY", LegacyAPIKeyEnv)
}

func defaultHistoryDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".moviealert"
	}
	return filepath.Join(home, ".moviealert")
}

// Load loads configuration from the global viper instance:
// 1. Config file (optional)
// 2. Environment variables (MOVIEALERT_*, TMD_API_V3)
// 3. Flags bound by the CLI
func Load() (*domain.Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom loads and validates configuration from v.
func LoadFrom(v *viper.Viper) (*domain.Config, error) {
	SetDefaults(v)
	BindEnv(v)

	cfg := &domain.Config{
		TmdbApiKey:  strings.TrimSpace(v.GetString("tmdb_api_key")),
		APIBaseURL:  v.GetString("api_base_url"),
		WebBaseURL:  v.GetString("web_base_url"),
		Language:    v.GetString("language"),
		Region:      v.GetString("region"),
		MaxPages:    v.GetInt("max_pages"),
		HTTPTimeout: v.GetDuration("http_timeout"),
		RateLimit:   v.GetFloat64("rate_limit"),
		Browser: domain.BrowserConfig{
			Command: v.GetString("browser.command"),
		},
		Genre: domain.GenreConfig{
			ID:   v.GetInt("genre.id"),
			Name: v.GetString("genre.name"),
		},
		Window: domain.Window{
			DaysBefore: v.GetInt("window.days_before"),
			DaysAfter:  v.GetInt("window.days_after"),
		},
		History: domain.HistoryConfig{
			Enabled: v.GetBool("history.enabled"),
			Dir:     v.GetString("history.dir"),
		},
		DiscordWebhookURL: v.GetString("discord_webhook_url"),
		LogLevel:          v.GetString("log_level"),
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks cfg for missing or out of range values.
func Validate(cfg *domain.Config) error {
	if cfg.TmdbApiKey == "" {
		return domain.CredentialError("tmdb_api_key is required (set via config file, " + EnvPrefix + "_TMDB_API_KEY or " + LegacyAPIKeyEnv + " environment variable; keys are issued at https://www.themoviedb.org/settings/api)")
	}
	if cfg.APIBaseURL == "" {
		return invalid("api_base_url must not be empty")
	}
	if cfg.WebBaseURL == "" {
		return invalid("web_base_url must not be empty")
	}
	if cfg.Genre.ID < 0 {
		return invalid("genre.id must not be negative")
	}
	if cfg.Genre.ID == 0 && strings.TrimSpace(cfg.Genre.Name) == "" {
		return invalid("genre.id or genre.name is required")
	}
	if cfg.Window.DaysBefore < 0 || cfg.Window.DaysAfter < 0 {
		return invalid("window.days_before and window.days_after must not be negative")
	}
	if cfg.MaxPages < 1 {
		return invalid("max_pages must be at least 1")
	}
	if cfg.HTTPTimeout < 0 {
		return invalid("http_timeout must not be negative")
	}
	if cfg.RateLimit < 0 {
		return invalid("rate_limit must not be negative")
	}
	if cfg.History.Enabled && cfg.History.Dir == "" {
		return invalid("history.dir is required when history is enabled")
	}
	return nil
}

func invalid(msg string) error {
	return domain.Wrap(domain.ErrConfiguration, msg, nil)
}
