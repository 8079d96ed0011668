package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

const defaultPort = "3000"

var (
	healthPort    string
	healthTimeout time.Duration
)

// healthcheckCmd checks the server's /health endpoint for Docker
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check the local server's health endpoint",
	Long: `Requests http://localhost:<port>/health and exits non-zero unless it
answers 200. The port defaults to SERVER_PORT, then 3000.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), healthTimeout)
		defer cancel()

		url := fmt.Sprintf("http://localhost:%s/health", resolvePort(healthPort))
		if err := checkHealth(ctx, http.DefaultClient, url); err != nil {
			return fmt.Errorf("health check failed: %w", err)
		}
		return nil
	},
}

func init() {
	healthcheckCmd.Flags().StringVarP(&healthPort, "port", "p", "", "Server port (default $SERVER_PORT or 3000)")
	healthcheckCmd.Flags().DurationVar(&healthTimeout, "timeout", 5*time.Second, "Request timeout")
}

func resolvePort(flag string) string {
	if flag != "" {
		return flag
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		return port
	}
	return defaultPort
}

func checkHealth(ctx context.Context, client *http.Client, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", url, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			_, _ = fmt.Fprintf(os.Stderr, "warning: failed to close response body: %v\n", closeErr)
		}
	}()

	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return fmt.Errorf("failed to discard response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("received non-200 status code: %d", resp.StatusCode)
	}

	return nil
}
