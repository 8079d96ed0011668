package main

import (
	"fmt"
	"io"

	"skidoodle/spotify-activity/internal/activity"
	"skidoodle/spotify-activity/internal/app"

	"github.com/spf13/cobra"
)

var songsLimit int

// songsCmd prints the latest songs, current track first
var songsCmd = &cobra.Command{
	Use:   "songs",
	Short: "Print the latest played songs",
	Long: `Prints up to --limit songs, the currently playing track first.
Any failure is logged and produces empty output.

Example:
  activity songs --limit 5
  activity songs --json`,
	Args: cobra.NoArgs,
	RunE: runSongs,
}

func init() {
	songsCmd.Flags().IntVarP(&songsLimit, "limit", "n", 10, "Maximum number of songs")
}

func runSongs(cmd *cobra.Command, _ []string) error {
	cfg, httpClient, err := loadConfig()
	if err != nil {
		return err
	}

	agg, err := app.NewAggregator(cfg, httpClient)
	if err != nil {
		return err
	}

	events := agg.LatestSongs(cmd.Context(), songsLimit)
	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), events)
	}
	printSongs(cmd.OutOrStdout(), events)
	return nil
}

func printSongs(w io.Writer, events []activity.PlayEvent) {
	for _, e := range events {
		marker := " "
		if e.IsPlaying {
			marker = ">"
		}
		_, _ = fmt.Fprintf(w, "%s %s - %s  (%s)\n", marker, e.Title, e.Artist, e.Time().Local().Format("2006-01-02 15:04"))
	}
}
