// Package tmdb is a small client for The Movie Database v3 API.
//
// It covers the two endpoints moviealert needs: movie discovery filtered by
// genre and release date, and the movie genre list. Requests authenticate with
// the api_key query parameter. Failures are classified with the domain error
// kinds so callers can tell transport, remote and parse problems apart.
package tmdb
