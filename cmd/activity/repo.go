package main

import (
	"fmt"
	"io"

	"skidoodle/spotify-activity/internal/app"
	"skidoodle/spotify-activity/internal/github"

	"github.com/spf13/cobra"
)

// repoCmd prints the statistics of a GitHub repository
var repoCmd = &cobra.Command{
	Use:   "repo [owner/name]",
	Short: "Print GitHub repository statistics",
	Long: `Fetches stars, forks, issues, watchers and timestamps of a repository.
Failures are logged and produce empty output.

Example:
  activity repo vaibhav1663/capto`,
	Args: cobra.ExactArgs(1),
	RunE: runRepo,
}

func runRepo(cmd *cobra.Command, args []string) error {
	cfg, httpClient, err := loadConfig()
	if err != nil {
		return err
	}

	repo := app.NewGitHub(cmd.Context(), cfg, httpClient).Lookup(cmd.Context(), args[0])
	if repo == nil {
		return nil
	}
	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), repo)
	}
	printRepository(cmd.OutOrStdout(), args[0], repo)
	return nil
}

func printRepository(w io.Writer, name string, repo *github.Repository) {
	_, _ = fmt.Fprintf(w, "%s\n", name)
	_, _ = fmt.Fprintf(w, "  stars:    %d\n", repo.Stars)
	_, _ = fmt.Fprintf(w, "  forks:    %d\n", repo.Forks)
	_, _ = fmt.Fprintf(w, "  issues:   %d\n", repo.Issues)
	_, _ = fmt.Fprintf(w, "  watchers: %d\n", repo.Watchers)
	_, _ = fmt.Fprintf(w, "  created:  %s\n", repo.Created)
	_, _ = fmt.Fprintf(w, "  updated:  %s\n", repo.Updated)
	_, _ = fmt.Fprintf(w, "  pushed:   %s\n", repo.Pushed)
}
