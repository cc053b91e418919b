package domain

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar date format used by TMDB.
const DateLayout = "2006-01-02"

// MovieSummary is one movie from a discover response.
type MovieSummary struct {
	ID          int64
	Title       string
	ReleaseDate time.Time
	// Genre is the genre the movie was discovered under. It comes from the
	// query filter, not from the movie payload.
	Genre string
}

// ReleaseDateString returns the release date in TMDB format, or "" when the
// movie has no release date.
func (m MovieSummary) ReleaseDateString() string {
	if m.ReleaseDate.IsZero() {
		return ""
	}
	return m.ReleaseDate.Format(DateLayout)
}

type Genre struct {
	ID   int
	Name string
}

type DiscoverQuery struct {
	GenreID     int
	ReleaseFrom time.Time
	ReleaseTo   time.Time
	Region      string
	Language    string
	Page        int
}

type DiscoverPage struct {
	Page         int
	TotalPages   int
	TotalResults int
	Movies       []MovieSummary
}

// MovieDiscoverer is the remote metadata API.
type MovieDiscoverer interface {
	Discover(ctx context.Context, q DiscoverQuery) (*DiscoverPage, error)
	Genres(ctx context.Context) ([]Genre, error)
}

// HTTPDoer executes a single HTTP request. *http.Client satisfies it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// URLOpener opens a URL on the host, usually in the default browser.
type URLOpener interface {
	Open(ctx context.Context, url string) error
}

// DetailURL returns the public movie page for id under the given web base URL.
func DetailURL(webBaseURL string, id int64) string {
	return strings.TrimRight(webBaseURL, "/") + "/movie/" + strconv.FormatInt(id, 10)
}
