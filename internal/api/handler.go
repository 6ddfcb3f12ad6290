// internal/api/handler.go
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperrors "gitpulse/internal/errors"
	"gitpulse/internal/ingest"
	"gitpulse/internal/metrics"
	"gitpulse/internal/snapshot"
	"gitpulse/internal/stats"
)

const defaultLeaderboardSize = 10

// Handler is the container for API dependencies.
type Handler struct {
	stats    *stats.Service
	archiver *snapshot.Archiver
	gateway  *ingest.Gateway
	secret   []byte
	branch   string
	logger   *slog.Logger
}

// NewRouter creates and configures a new chi router with all API routes.
func NewRouter(statsSvc *stats.Service, archiver *snapshot.Archiver, gateway *ingest.Gateway, webhookSecret []byte, trackedBranch string, logger *slog.Logger) http.Handler {
	h := &Handler{
		stats:    statsSvc,
		archiver: archiver,
		gateway:  gateway,
		secret:   webhookSecret,
		branch:   trackedBranch,
		logger:   logger,
	}

	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger) // Chi's default logger
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(metricsMiddleware)

	r.Get("/health", h.healthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/webhooks/github", h.handleWebhook)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/stats", h.getStats)
		r.Get("/analytics", h.getAnalytics)
		r.Get("/heatmap", h.getHeatmap)
		r.Get("/activity", h.getActivity)
		r.Get("/leaderboard", h.getLeaderboard)
		r.Post("/leaderboard/snapshot", h.archiveLeaderboard)
		r.Get("/leaderboard/history", h.getLeaderboardHistory)
		r.Get("/repos", h.getRepos)
		r.Get("/repos/{name}", h.getRepoDetail)
	})

	return r
}

// healthCheck is a simple health endpoint.
func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleWebhook validates and ingests a GitHub push delivery.
// POST /webhooks/github
func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	push, err := ingest.ParseWebhook(r, h.secret, h.branch)
	if err != nil {
		var ignored *apperrors.IgnoredEventError
		switch {
		case errors.Is(err, apperrors.ErrMissingSignature), errors.Is(err, apperrors.ErrInvalidSignature):
			metrics.RecordWebhookEvent("rejected")
			respondWithError(w, http.StatusUnauthorized, "Invalid webhook signature")
		case errors.As(err, &ignored):
			metrics.RecordWebhookEvent("ignored")
			respondWithJSON(w, http.StatusOK, map[string]string{"status": "ignored", "reason": ignored.Reason})
		default:
			metrics.RecordWebhookEvent("rejected")
			h.logger.Warn("Failed to parse webhook delivery", "error", err)
			respondWithError(w, http.StatusBadRequest, "Malformed webhook payload")
		}
		return
	}

	if err := h.gateway.Process(r.Context(), push); err != nil {
		metrics.RecordWebhookEvent("failed")
		h.logger.Error("Failed to process push event", "repo", push.RepoName, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	metrics.RecordWebhookEvent("processed")
	respondWithJSON(w, http.StatusOK, map[string]any{
		"status":  "processed",
		"repo":    push.RepoName,
		"commits": len(push.Commits),
	})
}

// getStats returns the dashboard overview.
// GET /v1/stats
func (h *Handler) getStats(w http.ResponseWriter, r *http.Request) {
	overview, err := h.stats.Overview(r.Context())
	if err != nil {
		h.logger.Error("Failed to build overview", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondWithJSON(w, http.StatusOK, overview)
}

// getAnalytics returns the trend report.
// GET /v1/analytics
func (h *Handler) getAnalytics(w http.ResponseWriter, r *http.Request) {
	report, err := h.stats.Analytics(r.Context())
	if err != nil {
		h.logger.Error("Failed to build analytics", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondWithJSON(w, http.StatusOK, report)
}

// getHeatmap returns the year-to-date daily commit counts.
// GET /v1/heatmap
func (h *Handler) getHeatmap(w http.ResponseWriter, r *http.Request) {
	days, err := h.stats.Heatmap(r.Context())
	if err != nil {
		h.logger.Error("Failed to build heatmap", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondWithJSON(w, http.StatusOK, days)
}

// getActivity returns a page of the recent commit feed.
// GET /v1/activity?limit=N&offset=M
func (h *Handler) getActivity(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", stats.ActivityDefaultLimit)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid 'limit' parameter. Must be a non-negative integer.")
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid 'offset' parameter. Must be a non-negative integer.")
		return
	}

	page, err := h.stats.Activity(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error("Failed to build activity feed", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondWithJSON(w, http.StatusOK, page)
}

// getLeaderboard returns the trailing seven-day leaderboard.
// GET /v1/leaderboard?limit=N
func (h *Handler) getLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultLeaderboardSize)
	if err != nil || limit <= 0 || limit > 100 {
		respondWithError(w, http.StatusBadRequest, "Invalid 'limit' parameter. Must be an integer between 1 and 100.")
		return
	}

	board, err := h.stats.Leaderboard(r.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to build leaderboard", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondWithJSON(w, http.StatusOK, board)
}

// archiveLeaderboard freezes the current week's leaderboard.
// POST /v1/leaderboard/snapshot
func (h *Handler) archiveLeaderboard(w http.ResponseWriter, r *http.Request) {
	result, err := h.archiver.Archive(r.Context())
	if err != nil {
		h.logger.Error("Failed to archive leaderboard", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// getLeaderboardHistory returns one archived week when both year and week
// are given, or the list of recently archived weeks otherwise.
// GET /v1/leaderboard/history?year=YYYY&week=WW
func (h *Handler) getLeaderboardHistory(w http.ResponseWriter, r *http.Request) {
	yearStr := r.URL.Query().Get("year")
	weekStr := r.URL.Query().Get("week")

	if yearStr != "" && weekStr != "" {
		year, errY := strconv.Atoi(yearStr)
		week, errW := strconv.Atoi(weekStr)
		if errY != nil || errW != nil || week < 1 || week > 53 {
			respondWithError(w, http.StatusBadRequest, "Invalid 'year' or 'week' parameter.")
			return
		}
		entries, err := h.archiver.History(r.Context(), year, week)
		if err != nil {
			if errors.Is(err, apperrors.ErrNoSnapshot) {
				respondWithError(w, http.StatusNotFound, "No snapshot for that week")
				return
			}
			h.logger.Error("Failed to load snapshot", "year", year, "week", week, "error", err)
			respondWithError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		respondWithJSON(w, http.StatusOK, entries)
		return
	}

	weeks, err := h.archiver.Weeks(r.Context())
	if err != nil {
		h.logger.Error("Failed to list snapshot weeks", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondWithJSON(w, http.StatusOK, weeks)
}

// getRepos returns the active repository cards.
// GET /v1/repos
func (h *Handler) getRepos(w http.ResponseWriter, r *http.Request) {
	repos, err := h.stats.Repos(r.Context())
	if err != nil {
		h.logger.Error("Failed to list repositories", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondWithJSON(w, http.StatusOK, repos)
}

// getRepoDetail returns one repository with recent commits and top contributors.
// GET /v1/repos/{name}
func (h *Handler) getRepoDetail(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	detail, err := h.stats.RepoDetail(r.Context(), name)
	if err != nil {
		if errors.Is(err, apperrors.ErrRepoNotFound) {
			respondWithError(w, http.StatusNotFound, "Repository not found")
			return
		}
		h.logger.Error("Failed to load repository", "repo", name, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondWithJSON(w, http.StatusOK, detail)
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, errors.New("invalid integer parameter")
	}
	return v, nil
}
