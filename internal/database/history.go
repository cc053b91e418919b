package database

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/moviealert/internal/domain"
)

// HistoryRepo implements domain.HistoryRepo
type HistoryRepo struct {
	log zerolog.Logger
	db  *DB
	now func() time.Time
}

func NewHistoryRepo(log zerolog.Logger, db *DB) *HistoryRepo {
	return &HistoryRepo{
		log: log.With().Str("repo", "history").Logger(),
		db:  db,
		now: time.Now,
	}
}

var _ domain.HistoryRepo = (*HistoryRepo)(nil)

// Has reports whether movieID has been opened before.
func (r *HistoryRepo) Has(ctx context.Context, movieID int64) (bool, error) {
	queryBuilder := r.db.squirrel.
		Select("1").
		From("opened_movie").
		Where(sq.Eq{"movie_id": movieID}).
		Limit(1)

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return false, errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("Has")

	var one int
	err = r.db.handler.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "error executing query")
	}

	return true, nil
}

// Record inserts or replaces the history entry for movie.
func (r *HistoryRepo) Record(ctx context.Context, movie domain.MovieSummary, url string) error {
	queryBuilder := r.db.squirrel.
		Replace("opened_movie").
		Columns("movie_id", "title", "release_date", "url", "opened_at").
		Values(movie.ID, movie.Title, movie.ReleaseDateString(), url, r.now().UTC().Format(time.RFC3339))

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("Record")

	if _, err := r.db.handler.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "error executing query")
	}

	return nil
}

// List returns all history entries, most recently opened first.
func (r *HistoryRepo) List(ctx context.Context) ([]domain.OpenedMovie, error) {
	queryBuilder := r.db.squirrel.
		Select("movie_id", "title", "release_date", "url", "opened_at").
		From("opened_movie").
		OrderBy("opened_at DESC", "movie_id")

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("List")

	rows, err := r.db.handler.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "error executing query")
	}
	defer rows.Close()

	var entries []domain.OpenedMovie
	for rows.Next() {
		var (
			entry       domain.OpenedMovie
			releaseDate sql.NullString
			openedAt    string
		)
		if err := rows.Scan(&entry.MovieID, &entry.Title, &releaseDate, &entry.URL, &openedAt); err != nil {
			return nil, errors.Wrap(err, "error scanning row")
		}
		entry.ReleaseDate = releaseDate.String
		if t, err := time.Parse(time.RFC3339, openedAt); err == nil {
			entry.OpenedAt = t
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating rows")
	}

	return entries, nil
}

// Clear deletes every history entry and returns how many were removed.
func (r *HistoryRepo) Clear(ctx context.Context) (int64, error) {
	query, args, err := r.db.squirrel.Delete("opened_movie").ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "error building delete query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("Clear")

	res, err := r.db.handler.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, errors.Wrap(err, "error executing delete query")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "error reading affected rows")
	}

	return n, nil
}
