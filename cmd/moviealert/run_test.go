package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/varoOP/moviealert/internal/domain"
)

func TestPrintSummary(t *testing.T) {
	summary := &domain.RunSummary{
		Genre:       "Animation",
		ReleaseFrom: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		ReleaseTo:   time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		Results: []domain.MovieResult{
			{
				Movie:  domain.MovieSummary{ID: 101, Title: "Sample Animation", ReleaseDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
				URL:    "https://www.themoviedb.org/movie/101",
				Status: domain.OpenStatusOpened,
			},
			{
				Movie:  domain.MovieSummary{ID: 202, Title: "Second Film"},
				URL:    "https://www.themoviedb.org/movie/202",
				Status: domain.OpenStatusFailed,
			},
		},
		Opened:   1,
		Failures: []error{errors.New("open https://www.themoviedb.org/movie/202 (movie 202): no browser")},
	}

	var buf bytes.Buffer
	printSummary(&buf, summary, false)
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "Upcoming Animation movies (from 2024-06-01 to 2024-07-01): 2\n"))
	assert.Contains(t, out, "Sample Animation")
	assert.Contains(t, out, "https://www.themoviedb.org/movie/101")
	assert.Contains(t, out, "TBA")
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, "1 of 2 movies could not be opened:")
	assert.Contains(t, out, "no browser")
}

func TestPrintSummaryDryRun(t *testing.T) {
	summary := &domain.RunSummary{
		Genre: "Animation",
		Results: []domain.MovieResult{
			{Movie: domain.MovieSummary{ID: 1, Title: "A"}, URL: "u", Status: domain.OpenStatusOpened},
		},
	}

	var buf bytes.Buffer
	printSummary(&buf, summary, true)
	assert.Contains(t, buf.String(), "listed")
	assert.NotContains(t, buf.String(), "opened")
}

func TestPrintSummaryNoMovies(t *testing.T) {
	var buf bytes.Buffer
	printSummary(&buf, &domain.RunSummary{Genre: "Animation"}, false)
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
}

func TestRenderTablePadsShortRows(t *testing.T) {
	var buf bytes.Buffer
	out := renderTable(&buf, []string{"A", "B"}, [][]string{{"only"}}, nil)
	assert.Contains(t, out, "only")
	assert.Empty(t, renderTable(&buf, nil, nil, nil))
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	versionCmd.Run(versionCmd, nil)
	assert.Contains(t, buf.String(), "moviealert: dev")
}
