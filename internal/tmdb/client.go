package tmdb

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/moviealert/internal/domain"
	"golang.org/x/time/rate"
)

// maxErrorBody caps how much of a non-success response is kept for the error.
const maxErrorBody = 4 << 10

type Client struct {
	log      zerolog.Logger
	apiKey   string
	baseURL  string
	language string
	doer     domain.HTTPDoer
	limiter  *rate.Limiter
}

var _ domain.MovieDiscoverer = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithDoer overrides the HTTP transport.
func WithDoer(doer domain.HTTPDoer) Option {
	return func(c *Client) {
		if doer != nil {
			c.doer = doer
		}
	}
}

// WithRateLimiter paces outgoing requests. A nil limiter disables pacing.
func WithRateLimiter(limiter *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = limiter
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log.With().Str("module", "tmdb").Logger()
	}
}

// New creates a TMDB v3 client authenticating with apiKey as a query parameter.
func New(apiKey, baseURL, language string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, domain.CredentialError("tmdb api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, domain.Wrap(domain.ErrConfiguration, "tmdb base url required", nil)
	}

	c := &Client{
		log:      zerolog.Nop(),
		apiKey:   apiKey,
		baseURL:  strings.TrimRight(baseURL, "/"),
		language: strings.TrimSpace(language),
		doer:     &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type discoverResponse struct {
	Page         int           `json:"page"`
	Results      []movieResult `json:"results"`
	TotalPages   int           `json:"total_pages"`
	TotalResults int           `json:"total_results"`
}

type movieResult struct {
	ID          *int64  `json:"id"`
	Title       *string `json:"title"`
	ReleaseDate string  `json:"release_date"`
	GenreIDs    []int   `json:"genre_ids"`
}

type genreResponse struct {
	Genres []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"genres"`
}

type errorResponse struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
}

// Discover returns one page of movies matching the genre and release window.
func (c *Client) Discover(ctx context.Context, q domain.DiscoverQuery) (*domain.DiscoverPage, error) {
	params := url.Values{}
	if q.GenreID > 0 {
		params.Set("with_genres", strconv.Itoa(q.GenreID))
	}
	if !q.ReleaseFrom.IsZero() {
		params.Set("primary_release_date.gte", q.ReleaseFrom.Format(domain.DateLayout))
	}
	if !q.ReleaseTo.IsZero() {
		params.Set("primary_release_date.lte", q.ReleaseTo.Format(domain.DateLayout))
	}
	if q.Region != "" {
		params.Set("region", q.Region)
	}
	if q.Language != "" {
		params.Set("language", q.Language)
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	params.Set("page", strconv.Itoa(page))
	params.Set("sort_by", "popularity.desc")
	params.Set("include_adult", "false")

	body, err := c.get(ctx, "/discover/movie", params)
	if err != nil {
		return nil, err
	}

	var payload discoverResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, domain.Wrap(domain.ErrParse, "decode discover response", err)
	}
	if payload.Results == nil {
		return nil, domain.Wrap(domain.ErrParse, "discover response has no results field", nil)
	}

	movies := make([]domain.MovieSummary, 0, len(payload.Results))
	for i, r := range payload.Results {
		m, err := r.summary()
		if err != nil {
			return nil, domain.Wrap(domain.ErrParse, "result "+strconv.Itoa(i), err)
		}
		movies = append(movies, m)
	}

	c.log.Debug().
		Int("page", payload.Page).
		Int("total_pages", payload.TotalPages).
		Int("total_results", payload.TotalResults).
		Int("results", len(movies)).
		Msg("discover page received")

	return &domain.DiscoverPage{
		Page:         payload.Page,
		TotalPages:   payload.TotalPages,
		TotalResults: payload.TotalResults,
		Movies:       movies,
	}, nil
}

func (r movieResult) summary() (domain.MovieSummary, error) {
	if r.ID == nil {
		return domain.MovieSummary{}, errors.New("missing id")
	}
	if r.Title == nil {
		return domain.MovieSummary{}, errors.Errorf("movie %d: missing title", *r.ID)
	}

	m := domain.MovieSummary{ID: *r.ID, Title: *r.Title}
	if r.ReleaseDate != "" {
		d, err := time.Parse(domain.DateLayout, r.ReleaseDate)
		if err != nil {
			return domain.MovieSummary{}, errors.Wrapf(err, "movie %d: invalid release_date", *r.ID)
		}
		m.ReleaseDate = d
	}
	return m, nil
}

// Genres returns TMDB's movie genre list.
func (c *Client) Genres(ctx context.Context) ([]domain.Genre, error) {
	params := url.Values{}
	if c.language != "" {
		params.Set("language", c.language)
	}

	body, err := c.get(ctx, "/genre/movie/list", params)
	if err != nil {
		return nil, err
	}

	var payload genreResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, domain.Wrap(domain.ErrParse, "decode genre response", err)
	}
	if payload.Genres == nil {
		return nil, domain.Wrap(domain.ErrParse, "genre response has no genres field", nil)
	}

	genres := make([]domain.Genre, 0, len(payload.Genres))
	for _, g := range payload.Genres {
		genres = append(genres, domain.Genre{ID: g.ID, Name: g.Name})
	}
	return genres, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, domain.Wrap(domain.ErrConfiguration, "parse tmdb url", err)
	}
	params.Set("api_key", c.apiKey)
	endpoint.RawQuery = params.Encode()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, domain.Wrap(domain.ErrTransport, "wait for rate limiter", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, domain.Wrap(domain.ErrTransport, "build request", err)
	}
	req.Header.Set("Accept", "application/json")

	c.log.Trace().Str("path", path).Str("page", params.Get("page")).Msg("GET")

	start := time.Now()
	resp, err := c.doer.Do(req)
	latency := time.Since(start)
	if err != nil {
		return nil, domain.Wrap(domain.ErrTransport, "GET "+path+" (latency="+latency.String()+")", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, newRemoteError(resp.StatusCode, raw)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.Wrap(domain.ErrTransport, "read response", err)
	}

	c.log.Trace().Str("path", path).Dur("latency", latency).Int("bytes", len(body)).Msg("response")
	return body, nil
}

func newRemoteError(status int, body []byte) *domain.RemoteError {
	e := &domain.RemoteError{StatusCode: status}
	var payload errorResponse
	if err := json.Unmarshal(body, &payload); err == nil && payload.StatusMessage != "" {
		e.Message = payload.StatusMessage
		return e
	}
	e.Message = strings.TrimSpace(string(body))
	return e
}
