package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/varoOP/moviealert/internal/app"
	"github.com/varoOP/moviealert/internal/config"
	"github.com/varoOP/moviealert/internal/domain"
	"github.com/varoOP/moviealert/internal/logger"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Open upcoming animated movies in the browser",
	Long: `Run performs a single pass:
1. Reads the TMDB API key
2. Discovers movies of the configured genre (Animation by default)
   released between today - window.days_before and today + window.days_after
3. Opens the TMDB page of every movie found, in the order TMDB returned them

A movie that fails to open is reported and the remaining movies are still
opened. With --remember, movies opened by earlier runs are skipped.`,
	RunE: runE,
}

// runFlags maps flag names to the config keys they override.
var runFlags = map[string]string{
	"days-before": "window.days_before",
	"days-after":  "window.days_after",
	"max-pages":   "max_pages",
	"genre":       "genre.name",
	"region":      "region",
	"browser":     "browser.command",
	"remember":    "history.enabled",
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("dry-run", false, "list the movies without opening them")
	cmd.Flags().Int("days-before", 0, "include movies released up to this many days ago")
	cmd.Flags().Int("days-after", 30, "include movies released up to this many days from now")
	cmd.Flags().Int("max-pages", 1, "maximum number of result pages to request")
	cmd.Flags().String("genre", "", "genre name to look up instead of the configured genre id")
	cmd.Flags().String("region", "", "ISO 3166-1 region used for release dates")
	cmd.Flags().String("browser", "", "command used to open urls (default depends on the platform)")
	cmd.Flags().Bool("remember", false, "skip movies opened by earlier runs and remember the ones opened now")
}

func init() {
	addRunFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}

func runE(cmd *cobra.Command, args []string) error {
	// Override config values with flags given on the command line
	for flag, key := range runFlags {
		if !cmd.Flags().Changed(flag) {
			continue
		}
		value := cmd.Flags().Lookup(flag).Value.String()
		viper.Set(key, value)
		if flag == "genre" {
			// a genre name on the command line replaces the configured id
			viper.Set("genre.id", 0)
		}
	}
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	application, log, err := newApp()
	if err != nil {
		return err
	}

	summary, err := application.Run(cmd.Context(), app.RunOptions{DryRun: dryRun})
	if err != nil {
		log.Debug().Err(err).Msg("run failed")
		return fmt.Errorf("%s failed: %w", domain.Stage(err), err)
	}

	printSummary(cmd.OutOrStdout(), summary, dryRun)
	return nil
}

func newApp() (*app.App, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("%s failed: %w", domain.Stage(err), err)
	}

	log, err := logger.New(os.Stderr, cfg.LogLevel)
	if err != nil {
		return nil, zerolog.Nop(), err
	}

	application, err := app.NewApp(log, cfg)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	return application, log, nil
}

func printSummary(w io.Writer, summary *domain.RunSummary, dryRun bool) {
	fmt.Fprintf(w, "Upcoming %s movies (from %s to %s): %d\n",
		summary.Genre,
		summary.ReleaseFrom.Format(domain.DateLayout),
		summary.ReleaseTo.Format(domain.DateLayout),
		summary.Found())
	if summary.Found() == 0 {
		return
	}

	rows := make([][]string, 0, len(summary.Results))
	for i, r := range summary.Results {
		status := string(r.Status)
		if dryRun {
			status = "listed"
		}
		date := r.Movie.ReleaseDateString()
		if date == "" {
			date = "TBA"
		}
		rows = append(rows, []string{strconv.Itoa(i + 1), r.Movie.Title, date, r.URL, status})
	}

	fmt.Fprintln(w, renderTable(w,
		[]string{"#", "Title", "Release date", "URL", "Status"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft}))

	if n := len(summary.Failures); n > 0 {
		fmt.Fprintf(w, "%d of %d movies could not be opened:\n", n, summary.Found())
		for _, failure := range summary.Failures {
			fmt.Fprintf(w, "  %v\n", failure)
		}
	}
}
