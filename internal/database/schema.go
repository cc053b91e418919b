package database

const historySchema = `
CREATE TABLE opened_movie (
	movie_id INTEGER PRIMARY KEY,
	title TEXT NOT NULL,
	release_date TEXT,
	url TEXT NOT NULL,
	opened_at TEXT NOT NULL
);

CREATE INDEX idx_opened_movie_opened_at ON opened_movie(opened_at);
`

// historyMigrations contains incremental schema changes, applied in order
// based on the current user_version. Entry 0 is the base schema.
var historyMigrations = []string{
	"",
}
