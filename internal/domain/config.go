package domain

import "time"

const (
	DefaultAPIBaseURL = "https://api.themoviedb.org/3"
	DefaultWebBaseURL = "https://www.themoviedb.org"

	// AnimationGenreID is TMDB's id for the "Animation" movie genre.
	AnimationGenreID   = 16
	AnimationGenreName = "Animation"
)

type Config struct {
	TmdbApiKey        string        `mapstructure:"tmdb_api_key"`
	APIBaseURL        string        `mapstructure:"api_base_url"`
	WebBaseURL        string        `mapstructure:"web_base_url"`
	Language          string        `mapstructure:"language"`
	Region            string        `mapstructure:"region"`
	Genre             GenreConfig   `mapstructure:"genre"`
	Window            Window        `mapstructure:"window"`
	MaxPages          int           `mapstructure:"max_pages"`
	HTTPTimeout       time.Duration `mapstructure:"http_timeout"`
	RateLimit         float64       `mapstructure:"rate_limit"`
	Browser           BrowserConfig `mapstructure:"browser"`
	History           HistoryConfig `mapstructure:"history"`
	DiscordWebhookURL string        `mapstructure:"discord_webhook_url"`
	LogLevel          string        `mapstructure:"log_level"`
}

// GenreConfig selects the genre to discover. A zero ID means the genre is
// looked up by Name through the genre list endpoint.
type GenreConfig struct {
	ID   int    `mapstructure:"id"`
	Name string `mapstructure:"name"`
}

// BrowserConfig overrides the platform's URL opener. Command is split on
// whitespace and the URL is appended as the last argument.
type BrowserConfig struct {
	Command string `mapstructure:"command"`
}

type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
}

// Window is the release date range, relative to the current day, that counts
// as "upcoming".
type Window struct {
	DaysBefore int `mapstructure:"days_before"`
	DaysAfter  int `mapstructure:"days_after"`
}

// Range returns the first and last release day of the window for the
// calendar day of now. Both bounds are midnight UTC.
func (w Window) Range(now time.Time) (time.Time, time.Time) {
	y, m, d := now.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -w.DaysBefore), day.AddDate(0, 0, w.DaysAfter)
}
