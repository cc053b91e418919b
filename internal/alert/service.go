package alert

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/moviealert/internal/domain"
)

type Service interface {
	Run(ctx context.Context) (*domain.RunSummary, error)
}

type service struct {
	log        zerolog.Logger
	config     *domain.Config
	discoverer domain.MovieDiscoverer
	opener     domain.URLOpener
	history    domain.HistoryRepo
	now        func() time.Time
}

type Option func(*service)

// WithHistory skips movies the repository has already seen and records the
// ones that get opened.
func WithHistory(repo domain.HistoryRepo) Option {
	return func(s *service) {
		s.history = repo
	}
}

// WithClock sets the clock the release window is computed from.
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(log zerolog.Logger, config *domain.Config, discoverer domain.MovieDiscoverer, opener domain.URLOpener, opts ...Option) Service {
	s := &service{
		log:        log.With().Str("module", "alert").Logger(),
		config:     config,
		discoverer: discoverer,
		opener:     opener,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run discovers upcoming movies of the configured genre and opens the detail
// page of each one, in the order the API returned them. Any error before the
// first open aborts the run. A failed open is recorded in the summary and the
// remaining movies are still opened.
func (s *service) Run(ctx context.Context) (*domain.RunSummary, error) {
	if s.config == nil || strings.TrimSpace(s.config.TmdbApiKey) == "" {
		return nil, domain.CredentialError("tmdb api key is not set")
	}

	runID := uuid.NewString()
	log := s.log.With().Str("run_id", runID).Logger()

	genreID, genreName, err := s.resolveGenre(ctx)
	if err != nil {
		return nil, err
	}

	from, to := s.config.Window.Range(s.now())
	log.Info().
		Str("genre", genreName).
		Str("from", from.Format(domain.DateLayout)).
		Str("to", to.Format(domain.DateLayout)).
		Msg("Looking for upcoming movies..")

	movies, err := s.discover(ctx, log, genreID, from, to)
	if err != nil {
		return nil, err
	}

	summary := &domain.RunSummary{
		RunID:       runID,
		ReleaseFrom: from,
		ReleaseTo:   to,
		Genre:       genreName,
		Results:     make([]domain.MovieResult, 0, len(movies)),
	}

	for _, movie := range movies {
		movie.Genre = genreName
		summary.Results = append(summary.Results, s.open(ctx, log, summary, movie))
	}

	log.Info().
		Int("found", summary.Found()).
		Int("opened", summary.Opened).
		Int("skipped", summary.Skipped).
		Int("failed", len(summary.Failures)).
		Msg("Run complete")

	return summary, nil
}

func (s *service) resolveGenre(ctx context.Context) (int, string, error) {
	name := strings.TrimSpace(s.config.Genre.Name)
	if s.config.Genre.ID > 0 {
		if name == "" {
			name = domain.AnimationGenreName
		}
		return s.config.Genre.ID, name, nil
	}
	if name == "" {
		return 0, "", domain.Wrap(domain.ErrConfiguration, "genre id or name is required", nil)
	}

	genres, err := s.discoverer.Genres(ctx)
	if err != nil {
		return 0, "", errors.Wrap(err, "failed to get genre list")
	}
	for _, g := range genres {
		if strings.EqualFold(g.Name, name) {
			s.log.Debug().Str("genre", g.Name).Int("genre_id", g.ID).Msg("resolved genre")
			return g.ID, g.Name, nil
		}
	}
	return 0, "", domain.Wrap(domain.ErrConfiguration, "genre "+name+" not found", nil)
}

func (s *service) discover(ctx context.Context, log zerolog.Logger, genreID int, from, to time.Time) ([]domain.MovieSummary, error) {
	maxPages := s.config.MaxPages
	if maxPages < 1 {
		maxPages = 1
	}

	var movies []domain.MovieSummary
	for page := 1; page <= maxPages; page++ {
		result, err := s.discoverer.Discover(ctx, domain.DiscoverQuery{
			GenreID:     genreID,
			ReleaseFrom: from,
			ReleaseTo:   to,
			Region:      s.config.Region,
			Language:    s.config.Language,
			Page:        page,
		})
		if err != nil {
			return nil, errors.Wrapf(err, "failed to discover movies (page %d)", page)
		}

		movies = append(movies, result.Movies...)
		log.Debug().Int("page", page).Int("total_pages", result.TotalPages).Int("movies", len(result.Movies)).Msg("discovered page")

		if page >= result.TotalPages {
			break
		}
	}
	return movies, nil
}

func (s *service) open(ctx context.Context, log zerolog.Logger, summary *domain.RunSummary, movie domain.MovieSummary) domain.MovieResult {
	url := domain.DetailURL(s.config.WebBaseURL, movie.ID)
	result := domain.MovieResult{Movie: movie, URL: url}

	if s.history != nil {
		seen, err := s.history.Has(ctx, movie.ID)
		if err != nil {
			log.Warn().Err(err).Int64("movie_id", movie.ID).Msg("failed to check history")
		} else if seen {
			log.Info().Str("title", movie.Title).Str("url", url).Msg("URL was opened before, skipping")
			result.Status = domain.OpenStatusSkipped
			summary.Skipped++
			return result
		}
	}

	if err := s.opener.Open(ctx, url); err != nil {
		openErr := &domain.OpenError{MovieID: movie.ID, URL: url, Err: err}
		log.Warn().Err(err).Str("title", movie.Title).Str("url", url).Msg("failed to open movie")
		result.Status = domain.OpenStatusFailed
		result.Err = openErr
		summary.Failures = append(summary.Failures, openErr)
		return result
	}

	log.Info().
		Str("title", movie.Title).
		Str("release_date", movie.ReleaseDateString()).
		Str("url", url).
		Msg("Opened movie")
	result.Status = domain.OpenStatusOpened
	summary.Opened++

	if s.history != nil {
		if err := s.history.Record(ctx, movie, url); err != nil {
			log.Warn().Err(err).Int64("movie_id", movie.ID).Msg("failed to record history")
		}
	}

	return result
}
