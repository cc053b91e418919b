package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/moviealert/internal/domain"
)

// maxListedMovies caps the movies listed in one embed field.
const maxListedMovies = 10

// DiscordService implements NotificationService for Discord webhooks
type DiscordService struct {
	log        zerolog.Logger
	webhookURL string
	httpClient domain.HTTPDoer
	now        func() time.Time
}

// NewDiscordService creates a new Discord notification service
func NewDiscordService(log zerolog.Logger, webhookURL string) *DiscordService {
	return &DiscordService{
		log:        log.With().Str("module", "notification").Str("type", "discord").Logger(),
		webhookURL: webhookURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		now: time.Now,
	}
}

// SendSuccess sends a summary of a completed run
func (s *DiscordService) SendSuccess(ctx context.Context, summary *domain.RunSummary) error {
	if s.webhookURL == "" || summary == nil {
		return nil
	}

	color := 0x00ff00 // Green
	if len(summary.Failures) > 0 {
		color = 0xffa500 // Orange
	}

	embed := discordEmbed{
		Title: "Upcoming movies",
		Description: fmt.Sprintf("%s movies released %s to %s",
			summary.Genre,
			summary.ReleaseFrom.Format(domain.DateLayout),
			summary.ReleaseTo.Format(domain.DateLayout)),
		Color:     color,
		Timestamp: s.now().Format(time.RFC3339),
		Fields: []discordField{
			{Name: "Found", Value: fmt.Sprintf("%d", summary.Found()), Inline: true},
			{Name: "Opened", Value: fmt.Sprintf("%d", summary.Opened), Inline: true},
			{Name: "Skipped", Value: fmt.Sprintf("%d", summary.Skipped), Inline: true},
			{Name: "Failed", Value: fmt.Sprintf("%d", len(summary.Failures)), Inline: true},
		},
	}

	if list := movieList(summary.Results); list != "" {
		embed.Fields = append(embed.Fields, discordField{Name: "Movies", Value: list})
	}

	return s.sendWebhook(ctx, discordWebhook{Embeds: []discordEmbed{embed}})
}

// SendError sends an error notification with error details
func (s *DiscordService) SendError(ctx context.Context, err error) error {
	if s.webhookURL == "" {
		return nil
	}

	embed := discordEmbed{
		Title:       "moviealert run failed",
		Description: fmt.Sprintf("%s failed with error:\n```%s```", domain.Stage(err), err.Error()),
		Color:       0xff0000, // Red
		Timestamp:   s.now().Format(time.RFC3339),
	}

	return s.sendWebhook(ctx, discordWebhook{Embeds: []discordEmbed{embed}})
}

func movieList(results []domain.MovieResult) string {
	var b strings.Builder
	for i, r := range results {
		if i == maxListedMovies {
			fmt.Fprintf(&b, "…and %d more", len(results)-maxListedMovies)
			break
		}
		date := r.Movie.ReleaseDateString()
		if date == "" {
			date = "TBA"
		}
		fmt.Fprintf(&b, "[%s](%s) (%s)\n", r.Movie.Title, r.URL, date)
	}
	return strings.TrimSpace(b.String())
}

// sendWebhook sends a webhook payload to Discord
func (s *DiscordService) sendWebhook(ctx context.Context, payload discordWebhook) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "failed to marshal webhook payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return errors.Wrap(err, "failed to create webhook request")
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to send webhook request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook request failed with status %d", resp.StatusCode)
	}

	s.log.Debug().Msg("Discord notification sent successfully")
	return nil
}

type discordWebhook struct {
	Embeds []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Color       int            `json:"color"`
	Timestamp   string         `json:"timestamp,omitempty"`
	Fields      []discordField `json:"fields,omitempty"`
}

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}
