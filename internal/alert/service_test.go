package alert_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/varoOP/moviealert/internal/alert"
	"github.com/varoOP/moviealert/internal/domain"
	"github.com/varoOP/moviealert/internal/tmdb"
)

type recordingDoer struct {
	status   int
	body     string
	requests []*http.Request
}

func (d *recordingDoer) Do(req *http.Request) (*http.Response, error) {
	d.requests = append(d.requests, req)
	return &http.Response{
		StatusCode: d.status,
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader(d.body)),
	}, nil
}

type fakeDiscoverer struct {
	pages      []*domain.DiscoverPage
	genres     []domain.Genre
	err        error
	queries    []domain.DiscoverQuery
	genreCalls int
}

func (f *fakeDiscoverer) Discover(_ context.Context, q domain.DiscoverQuery) (*domain.DiscoverPage, error) {
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	idx := q.Page - 1
	if idx >= len(f.pages) {
		return &domain.DiscoverPage{Page: q.Page, Movies: []domain.MovieSummary{}}, nil
	}
	return f.pages[idx], nil
}

func (f *fakeDiscoverer) Genres(context.Context) ([]domain.Genre, error) {
	f.genreCalls++
	return f.genres, nil
}

type fakeOpener struct {
	urls []string
	fail map[string]error
}

func (o *fakeOpener) Open(_ context.Context, url string) error {
	o.urls = append(o.urls, url)
	if err, ok := o.fail[url]; ok {
		return err
	}
	return nil
}

type memoryHistory struct {
	seen     map[int64]bool
	recorded []int64
}

func (h *memoryHistory) Has(_ context.Context, id int64) (bool, error) {
	return h.seen[id], nil
}

func (h *memoryHistory) Record(_ context.Context, movie domain.MovieSummary, _ string) error {
	h.recorded = append(h.recorded, movie.ID)
	return nil
}

func (h *memoryHistory) List(context.Context) ([]domain.OpenedMovie, error) { return nil, nil }

func (h *memoryHistory) Clear(context.Context) (int64, error) { return 0, nil }

func testConfig() *domain.Config {
	return &domain.Config{
		TmdbApiKey: "key",
		APIBaseURL: domain.DefaultAPIBaseURL,
		WebBaseURL: domain.DefaultWebBaseURL,
		Language:   "en-US",
		Region:     "US",
		Genre:      domain.GenreConfig{ID: domain.AnimationGenreID, Name: domain.AnimationGenreName},
		Window:     domain.Window{DaysBefore: 0, DaysAfter: 30},
		MaxPages:   1,
	}
}

func movies(ids ...int64) []domain.MovieSummary {
	out := make([]domain.MovieSummary, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.MovieSummary{ID: id, Title: "Movie"})
	}
	return out
}

func newTMDB(t *testing.T, doer domain.HTTPDoer) *tmdb.Client {
	t.Helper()
	client, err := tmdb.New("key", domain.DefaultAPIBaseURL, "en-US", tmdb.WithDoer(doer))
	require.NoError(t, err)
	return client
}

func TestRunOpensEachResultInOrder(t *testing.T) {
	doer := &recordingDoer{
		status: http.StatusOK,
		body:   `{"results":[{"id":101,"title":"Sample Animation","release_date":"2024-06-01"},{"id":202,"title":"Second Film","release_date":"2024-07-15"}]}`,
	}
	opener := &fakeOpener{}

	svc := alert.NewService(zerolog.Nop(), testConfig(), newTMDB(t, doer), opener)
	summary, err := svc.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, doer.requests, 1)
	require.Len(t, opener.urls, 2)
	assert.Contains(t, opener.urls[0], "101")
	assert.Contains(t, opener.urls[1], "202")
	assert.Equal(t, "https://www.themoviedb.org/movie/101", opener.urls[0])

	assert.Equal(t, 2, summary.Found())
	assert.Equal(t, 2, summary.Opened)
	assert.Empty(t, summary.Failures)
	assert.Equal(t, domain.AnimationGenreName, summary.Results[0].Movie.Genre)
	assert.NotEmpty(t, summary.RunID)
}

func TestRunWithoutCredentialMakesNoCalls(t *testing.T) {
	for _, key := range []string{"", "   "} {
		doer := &recordingDoer{status: http.StatusOK, body: `{"results":[]}`}
		opener := &fakeOpener{}
		cfg := testConfig()
		cfg.TmdbApiKey = key

		svc := alert.NewService(zerolog.Nop(), cfg, newTMDB(t, doer), opener)
		summary, err := svc.Run(context.Background())

		require.Error(t, err)
		assert.Nil(t, summary)
		assert.ErrorIs(t, err, domain.ErrConfiguration)
		assert.ErrorIs(t, err, domain.ErrCredential)
		assert.Equal(t, "credential lookup", domain.Stage(err))
		assert.Empty(t, doer.requests)
		assert.Empty(t, opener.urls)
	}
}

func TestRunCallsOpenerOncePerResult(t *testing.T) {
	ids := []int64{5, 3, 9, 1, 7}
	discoverer := &fakeDiscoverer{pages: []*domain.DiscoverPage{{Page: 1, TotalPages: 1, Movies: movies(ids...)}}}
	opener := &fakeOpener{}

	summary, err := alert.NewService(zerolog.Nop(), testConfig(), discoverer, opener).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, opener.urls, len(ids))
	for i, id := range ids {
		assert.Equal(t, domain.DetailURL(domain.DefaultWebBaseURL, id), opener.urls[i])
		assert.Equal(t, id, summary.Results[i].Movie.ID)
	}
}

func TestRunRemoteErrorOpensNothing(t *testing.T) {
	doer := &recordingDoer{status: http.StatusUnauthorized, body: `{"status_code":7,"status_message":"Invalid API key"}`}
	opener := &fakeOpener{}

	_, err := alert.NewService(zerolog.Nop(), testConfig(), newTMDB(t, doer), opener).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRemote)
	assert.Contains(t, err.Error(), "Invalid API key")
	assert.Equal(t, "remote API", domain.Stage(err))
	assert.Empty(t, opener.urls)
}

func TestRunTransportErrorOpensNothing(t *testing.T) {
	discoverer := &fakeDiscoverer{err: domain.Wrap(domain.ErrTransport, "GET /discover/movie", errors.New("connection refused"))}
	opener := &fakeOpener{}

	_, err := alert.NewService(zerolog.Nop(), testConfig(), discoverer, opener).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.Equal(t, "network call", domain.Stage(err))
	assert.Empty(t, opener.urls)
}

func TestRunContinuesAfterOpenFailure(t *testing.T) {
	discoverer := &fakeDiscoverer{pages: []*domain.DiscoverPage{{Page: 1, TotalPages: 1, Movies: movies(1, 2, 3)}}}
	failing := domain.DetailURL(domain.DefaultWebBaseURL, 2)
	opener := &fakeOpener{fail: map[string]error{failing: errors.New("no browser")}}

	summary, err := alert.NewService(zerolog.Nop(), testConfig(), discoverer, opener).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, opener.urls, 3)
	assert.Equal(t, domain.DetailURL(domain.DefaultWebBaseURL, 3), opener.urls[2])
	assert.Equal(t, 2, summary.Opened)
	require.Len(t, summary.Failures, 1)
	assert.ErrorIs(t, summary.Failures[0], domain.ErrSideEffect)

	var openErr *domain.OpenError
	require.True(t, errors.As(summary.Failures[0], &openErr))
	assert.Equal(t, int64(2), openErr.MovieID)
	assert.Equal(t, domain.OpenStatusFailed, summary.Results[1].Status)
}

func TestRunMalformedResponseOpensNothing(t *testing.T) {
	bodies := []string{
		`{"page":1,"total_pages":1}`,
		`{"results":[{"id":101,"title":"ok"},{"title":"no id"}]}`,
		`{"results":[{"id":101}]}`,
		`not json`,
	}

	for _, body := range bodies {
		doer := &recordingDoer{status: http.StatusOK, body: body}
		opener := &fakeOpener{}

		_, err := alert.NewService(zerolog.Nop(), testConfig(), newTMDB(t, doer), opener).Run(context.Background())
		require.Error(t, err, body)
		assert.ErrorIs(t, err, domain.ErrParse, body)
		assert.Equal(t, "response parsing", domain.Stage(err))
		assert.Empty(t, opener.urls, body)
	}
}

func TestRunUsesConfiguredWindow(t *testing.T) {
	discoverer := &fakeDiscoverer{pages: []*domain.DiscoverPage{{Page: 1, TotalPages: 1, Movies: []domain.MovieSummary{}}}}
	cfg := testConfig()
	cfg.Window = domain.Window{DaysBefore: 7, DaysAfter: 60}
	now := time.Date(2024, 5, 20, 22, 30, 0, 0, time.UTC)

	summary, err := alert.NewService(zerolog.Nop(), cfg, discoverer, &fakeOpener{},
		alert.WithClock(func() time.Time { return now })).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, discoverer.queries, 1)
	q := discoverer.queries[0]
	assert.Equal(t, "2024-05-13", q.ReleaseFrom.Format(domain.DateLayout))
	assert.Equal(t, "2024-07-19", q.ReleaseTo.Format(domain.DateLayout))
	assert.Equal(t, domain.AnimationGenreID, q.GenreID)
	assert.Equal(t, "US", q.Region)
	assert.Equal(t, q.ReleaseFrom, summary.ReleaseFrom)
	assert.Equal(t, 0, summary.Found())
}

func TestRunStopsAtMaxPages(t *testing.T) {
	discoverer := &fakeDiscoverer{pages: []*domain.DiscoverPage{
		{Page: 1, TotalPages: 3, Movies: movies(1)},
		{Page: 2, TotalPages: 3, Movies: movies(2)},
		{Page: 3, TotalPages: 3, Movies: movies(3)},
	}}
	cfg := testConfig()
	cfg.MaxPages = 2
	opener := &fakeOpener{}

	_, err := alert.NewService(zerolog.Nop(), cfg, discoverer, opener).Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, discoverer.queries, 2)
	assert.Len(t, opener.urls, 2)
}

func TestRunStopsAtLastPage(t *testing.T) {
	discoverer := &fakeDiscoverer{pages: []*domain.DiscoverPage{
		{Page: 1, TotalPages: 2, Movies: movies(1)},
		{Page: 2, TotalPages: 2, Movies: movies(2)},
	}}
	cfg := testConfig()
	cfg.MaxPages = 10

	_, err := alert.NewService(zerolog.Nop(), cfg, discoverer, &fakeOpener{}).Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, discoverer.queries, 2)
}

func TestRunResolvesGenreByName(t *testing.T) {
	discoverer := &fakeDiscoverer{
		genres: []domain.Genre{{ID: 28, Name: "Action"}, {ID: 16, Name: "Animation"}},
		pages:  []*domain.DiscoverPage{{Page: 1, TotalPages: 1, Movies: movies(1)}},
	}
	cfg := testConfig()
	cfg.Genre = domain.GenreConfig{Name: "animation"}

	summary, err := alert.NewService(zerolog.Nop(), cfg, discoverer, &fakeOpener{}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, discoverer.genreCalls)
	assert.Equal(t, 16, discoverer.queries[0].GenreID)
	assert.Equal(t, "Animation", summary.Genre)
}

func TestRunUnknownGenre(t *testing.T) {
	discoverer := &fakeDiscoverer{genres: []domain.Genre{{ID: 28, Name: "Action"}}}
	cfg := testConfig()
	cfg.Genre = domain.GenreConfig{Name: "Western"}

	_, err := alert.NewService(zerolog.Nop(), cfg, discoverer, &fakeOpener{}).Run(context.Background())
	assert.ErrorIs(t, err, domain.ErrConfiguration)
	assert.NotErrorIs(t, err, domain.ErrCredential)
	assert.Equal(t, "configuration", domain.Stage(err))
	assert.Empty(t, discoverer.queries)
}

func TestRunSkipsMoviesInHistory(t *testing.T) {
	discoverer := &fakeDiscoverer{pages: []*domain.DiscoverPage{{Page: 1, TotalPages: 1, Movies: movies(1, 2, 3)}}}
	history := &memoryHistory{seen: map[int64]bool{2: true}}
	opener := &fakeOpener{}

	summary, err := alert.NewService(zerolog.Nop(), testConfig(), discoverer, opener, alert.WithHistory(history)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{
		domain.DetailURL(domain.DefaultWebBaseURL, 1),
		domain.DetailURL(domain.DefaultWebBaseURL, 3),
	}, opener.urls)
	assert.Equal(t, []int64{1, 3}, history.recorded)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, domain.OpenStatusSkipped, summary.Results[1].Status)
}
