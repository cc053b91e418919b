package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/varoOP/moviealert/internal/app"
	"github.com/varoOP/moviealert/internal/logger"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect or reset the list of opened movies",
	Long: `Runs started with --remember (or history.enabled in the config) record
every movie they open and skip it on later runs. The history subcommands
show or reset that record.`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List movies opened by earlier runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := logger.New(os.Stderr, viper.GetString("log_level"))
		if err != nil {
			return err
		}

		entries, err := app.History(cmd.Context(), log, viper.GetString("history.dir"))
		if err != nil {
			return fmt.Errorf("failed to read history: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(entries) == 0 {
			fmt.Fprintln(out, "No movies opened yet.")
			return nil
		}

		rows := make([][]string, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, []string{
				strconv.FormatInt(e.MovieID, 10),
				e.Title,
				e.ReleaseDate,
				e.OpenedAt.Local().Format(time.DateTime),
				e.URL,
			})
		}
		fmt.Fprintln(out, renderTable(out,
			[]string{"ID", "Title", "Release date", "Opened", "URL"},
			rows,
			[]columnAlignment{alignRight}))
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget every opened movie",
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := logger.New(os.Stderr, viper.GetString("log_level"))
		if err != nil {
			return err
		}

		n, err := app.ClearHistory(cmd.Context(), log, viper.GetString("history.dir"))
		if err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d movies from the history.\n", n)
		return nil
	},
}

func init() {
	historyCmd.AddCommand(historyListCmd, historyClearCmd)
	rootCmd.AddCommand(historyCmd)
}
