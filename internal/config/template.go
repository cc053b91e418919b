package config

import (
	"os"

	"github.com/pkg/errors"
	"github.com/varoOP/moviealert/internal/domain"
	"gopkg.in/yaml.v3"
)

type fileConfig struct {
	TmdbApiKey        string      `yaml:"tmdb_api_key"`
	APIBaseURL        string      `yaml:"api_base_url"`
	WebBaseURL        string      `yaml:"web_base_url"`
	Language          string      `yaml:"language"`
	Region            string      `yaml:"region"`
	Genre             fileGenre   `yaml:"genre"`
	Window            fileWindow  `yaml:"window"`
	MaxPages          int         `yaml:"max_pages"`
	HTTPTimeout       string      `yaml:"http_timeout"`
	RateLimit         float64     `yaml:"rate_limit"`
	Browser           fileBrowser `yaml:"browser"`
	History           fileHistory `yaml:"history"`
	DiscordWebhookURL string      `yaml:"discord_webhook_url"`
	LogLevel          string      `yaml:"log_level"`
}

type fileGenre struct {
	ID   int    `yaml:"id"`
	Name string `yaml:"name"`
}

type fileWindow struct {
	DaysBefore int `yaml:"days_before"`
	DaysAfter  int `yaml:"days_after"`
}

type fileBrowser struct {
	Command string `yaml:"command"`
}

type fileHistory struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

// Template returns the default configuration as YAML, with an empty API key.
func Template() ([]byte, error) {
	fc := fileConfig{
		APIBaseURL:  domain.DefaultAPIBaseURL,
		WebBaseURL:  domain.DefaultWebBaseURL,
		Language:    "en-US",
		Region:      "US",
		Genre:       fileGenre{ID: domain.AnimationGenreID, Name: domain.AnimationGenreName},
		Window:      fileWindow{DaysBefore: 0, DaysAfter: 30},
		MaxPages:    1,
		HTTPTimeout: "0s",
		RateLimit:   4,
		History:     fileHistory{Enabled: false, Dir: defaultHistoryDir()},
		LogLevel:    "info",
	}

	b, err := yaml.Marshal(fc)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal config template")
	}
	return b, nil
}

// WriteTemplate writes the default configuration to path. An existing file is
// never overwritten.
func WriteTemplate(path string) error {
	b, err := Template()
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	defer f.Close()

	if _, err := f.Write(b); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}
