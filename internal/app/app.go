package app

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/moviealert/internal/alert"
	"github.com/varoOP/moviealert/internal/browser"
	"github.com/varoOP/moviealert/internal/database"
	"github.com/varoOP/moviealert/internal/domain"
	"github.com/varoOP/moviealert/internal/notification"
	"github.com/varoOP/moviealert/internal/tmdb"
	"golang.org/x/time/rate"
)

// App represents the main application with all dependencies initialized
type App struct {
	log                 zerolog.Logger
	config              *domain.Config
	discoverer          domain.MovieDiscoverer
	notificationService domain.NotificationService

	// overridable in tests
	newOpener func() (domain.URLOpener, error)
}

// RunOptions controls a single run.
type RunOptions struct {
	// DryRun lists movies without opening them or touching the history.
	DryRun bool
}

// NewApp creates a new application instance from a loaded configuration.
func NewApp(log zerolog.Logger, cfg *domain.Config) (*App, error) {
	var opts []tmdb.Option
	opts = append(opts, tmdb.WithLogger(log), tmdb.WithDoer(&http.Client{Timeout: cfg.HTTPTimeout}))
	if cfg.RateLimit > 0 {
		opts = append(opts, tmdb.WithRateLimiter(rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)))
	}

	client, err := tmdb.New(cfg.TmdbApiKey, cfg.APIBaseURL, cfg.Language, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create tmdb client")
	}

	a := &App{
		log:                 log,
		config:              cfg,
		discoverer:          client,
		notificationService: notification.NewService(log, cfg.DiscordWebhookURL),
	}
	a.newOpener = func() (domain.URLOpener, error) {
		return browser.NewOpener(a.log, a.config.Browser.Command)
	}
	return a, nil
}

// Run discovers upcoming movies and opens them. A notification is sent for
// the outcome when a webhook is configured.
func (a *App) Run(ctx context.Context, opts RunOptions) (summary *domain.RunSummary, err error) {
	defer func() {
		if err != nil {
			if notifyErr := a.notificationService.SendError(ctx, err); notifyErr != nil {
				a.log.Warn().Err(notifyErr).Msg("Failed to send error notification")
			}
		}
	}()

	var opener domain.URLOpener
	if opts.DryRun {
		opener = browser.NewRecorder()
	} else {
		opener, err = a.newOpener()
		if err != nil {
			return nil, err
		}
	}

	var svcOpts []alert.Option
	if a.config.History.Enabled && !opts.DryRun {
		db, err := database.NewDB(a.config.History.Dir, a.log)
		if err != nil {
			return nil, errors.Wrap(err, "failed to open history database")
		}
		defer func() {
			if closeErr := db.Close(); closeErr != nil {
				a.log.Warn().Err(closeErr).Msg("failed to close history database")
			}
		}()
		svcOpts = append(svcOpts, alert.WithHistory(database.NewHistoryRepo(a.log, db)))
	}

	svc := alert.NewService(a.log, a.config, a.discoverer, opener, svcOpts...)
	summary, err = svc.Run(ctx)
	if err != nil {
		return nil, err
	}

	if notifyErr := a.notificationService.SendSuccess(ctx, summary); notifyErr != nil {
		a.log.Warn().Err(notifyErr).Msg("Failed to send success notification")
	}

	return summary, nil
}

// History returns the movies opened by earlier runs.
// A directory without a history database yields no entries and is left
// untouched.
func History(ctx context.Context, log zerolog.Logger, dir string) ([]domain.OpenedMovie, error) {
	var entries []domain.OpenedMovie
	err := withExistingHistory(log, dir, func(repo domain.HistoryRepo) error {
		var err error
		entries, err = repo.List(ctx)
		return err
	})
	return entries, err
}

// ClearHistory forgets every opened movie and returns how many were removed.
func ClearHistory(ctx context.Context, log zerolog.Logger, dir string) (int64, error) {
	var n int64
	err := withExistingHistory(log, dir, func(repo domain.HistoryRepo) error {
		var err error
		n, err = repo.Clear(ctx)
		return err
	})
	return n, err
}

func withExistingHistory(log zerolog.Logger, dir string, fn func(repo domain.HistoryRepo) error) error {
	ok, err := database.Exists(dir)
	if err != nil {
		return err
	}
	if !ok {
		log.Debug().Str("dir", dir).Msg("no history database")
		return nil
	}
	return withHistory(log, dir, fn)
}

func withHistory(log zerolog.Logger, dir string, fn func(repo domain.HistoryRepo) error) error {
	db, err := database.NewDB(dir, log)
	if err != nil {
		return errors.Wrap(err, "failed to open history database")
	}
	defer db.Close()

	return fn(database.NewHistoryRepo(log, db))
}
