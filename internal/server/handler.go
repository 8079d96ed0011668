package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"skidoodle/spotify-activity/internal/activity"
	"skidoodle/spotify-activity/internal/github"
	"skidoodle/spotify-activity/internal/spotify"

	"github.com/gorilla/websocket"
)

// handleSpotify serves the latest songs, current track first.
func (s *Server) handleSpotify(w http.ResponseWriter, r *http.Request) {
	limit := s.defaultLimit
	if query := r.URL.Query(); query.Has("limit") {
		n, err := strconv.Atoi(query.Get("limit"))
		if err != nil || n < 1 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	res := s.source.Latest(r.Context(), limit)
	switch res.Outcome {
	case activity.OutcomeTracks:
		s.setCacheHeaders(w)
		writeJSON(w, http.StatusOK, res.Events)
	case activity.OutcomeEmpty:
		http.Error(w, "No songs found", http.StatusNotFound)
	default:
		status, message := spotifyFailure(res.Err)
		slog.Error("error fetching recently played tracks", "error", res.Err, "status", status)
		http.Error(w, message, status)
	}
}

func spotifyFailure(err error) (int, string) {
	switch {
	case errors.Is(err, spotify.ErrMissingCredentials):
		return http.StatusInternalServerError, "Missing required Spotify credentials"
	case errors.Is(err, spotify.ErrAuthUnavailable):
		return http.StatusBadRequest, "Failed to get access token"
	case errors.Is(err, spotify.ErrUpstreamUnavailable):
		return http.StatusBadRequest, "Failed to fetch recently played tracks"
	case errors.Is(err, activity.ErrInvalidLimit):
		return http.StatusBadRequest, "invalid limit"
	default:
		return http.StatusInternalServerError, "Internal Server Error"
	}
}

// handleRepository serves the statistics of one GitHub repository.
func (s *Server) handleRepository(w http.ResponseWriter, r *http.Request) {
	fullName := r.PathValue("owner") + "/" + r.PathValue("name")

	repo, err := s.repos.Repository(r.Context(), fullName)
	switch {
	case err == nil:
		s.setCacheHeaders(w)
		writeJSON(w, http.StatusOK, repo)
	case errors.Is(err, github.ErrInvalidRepository):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, github.ErrRepositoryNotFound):
		http.Error(w, "Repository not found", http.StatusNotFound)
	case errors.Is(err, github.ErrUpstreamUnavailable):
		slog.Error("failed to fetch repository", "repository", fullName, "error", err)
		http.Error(w, "Failed to fetch repository", http.StatusBadGateway)
	default:
		slog.Error("failed to fetch repository", "repository", fullName, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// handleLive upgrades to a websocket and subscribes the connection to the live feed.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		w.Header().Set("Upgrade", "websocket")
		w.Header().Set("Connection", "Upgrade")
		http.Error(w, "426 Upgrade Required", http.StatusUpgradeRequired)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an error response.
		slog.Warn("websocket upgrade failed", "error", err, "origin", r.Header.Get("Origin"))
		return
	}

	client := newClient(s.hub, conn)
	if snap, ok := s.poller.LastSnapshot(); ok {
		if message, err := json.Marshal(snap); err == nil {
			client.send <- message
		}
	}
	if !s.hub.Register(client) {
		_ = conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// healthHandler responds to Docker health checks.
func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.Warn("failed to write health check response", "error", err)
	}
}

func (s *Server) setCacheHeaders(w http.ResponseWriter) {
	if s.maxAge <= 0 {
		w.Header().Set("Cache-Control", "no-store")
		return
	}
	secs := int(s.maxAge.Seconds())
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d, s-maxage=%d", secs, secs))
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("failed to write json response", "error", err)
	}
}
