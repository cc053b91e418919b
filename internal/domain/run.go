package domain

import "time"

type OpenStatus string

const (
	OpenStatusOpened  OpenStatus = "opened"
	OpenStatusSkipped OpenStatus = "skipped"
	OpenStatusFailed  OpenStatus = "failed"
)

// MovieResult is the outcome of one movie within a run.
type MovieResult struct {
	Movie  MovieSummary
	URL    string
	Status OpenStatus
	Err    error
}

// RunSummary describes a completed run. Per-movie open failures are listed in
// Failures; they do not make the run fail.
type RunSummary struct {
	RunID       string
	ReleaseFrom time.Time
	ReleaseTo   time.Time
	Genre       string
	Results     []MovieResult
	Opened      int
	Skipped     int
	Failures    []error
}

// Found returns the number of movies returned by the remote API.
func (s *RunSummary) Found() int {
	return len(s.Results)
}
