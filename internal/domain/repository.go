package domain

import (
	"context"
	"time"
)

// HistoryRepo remembers which movies have already been opened so later runs
// can skip them.
type HistoryRepo interface {
	Has(ctx context.Context, movieID int64) (bool, error)
	Record(ctx context.Context, movie MovieSummary, url string) error
	List(ctx context.Context) ([]OpenedMovie, error)
	Clear(ctx context.Context) (int64, error)
}

// OpenedMovie is a history entry
type OpenedMovie struct {
	MovieID     int64
	Title       string
	ReleaseDate string
	URL         string
	OpenedAt    time.Time
}
