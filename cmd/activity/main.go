// Command activity queries the listening activity and repository statistics
// from the command line and checks the server's health endpoint.
package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"skidoodle/spotify-activity/internal/config"
	"skidoodle/spotify-activity/internal/logging"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	jsonOutput bool
	logFormat  string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "activity",
	Short: "Spotify listening activity and GitHub repository statistics",
	Long: `activity fetches the most recent Spotify plays, the currently playing
track and GitHub repository statistics using the same configuration as the
server (environment, .env and config.yaml).`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Override the log format (pretty, json, text)")

	rootCmd.AddCommand(songsCmd)
	rootCmd.AddCommand(repoCmd)
	rootCmd.AddCommand(healthcheckCmd)
}

// loadConfig loads the shared configuration and installs the logger on stderr.
func loadConfig() (*config.Config, *http.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}
	logging.Setup(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	return cfg, &http.Client{Timeout: cfg.Activity.RequestTimeout}, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
