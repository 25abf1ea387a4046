package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/podtech-io/devops-pulse/internal/service"
	"github.com/podtech-io/devops-pulse/internal/storage"
)

const (
	defaultCommitLimit   = 100
	defaultAnalyticsDays = 30
)

type handler struct {
	svc    Service
	logger *zap.Logger

	// Defaults applied when a request names no scope of its own.
	organization string
	project      string
}

// scope resolves the organization/project pair from query parameters, falling
// back to the configured defaults.
func (h *handler) scope(r *http.Request) (string, string) {
	organization := r.URL.Query().Get("organization")
	if organization == "" {
		organization = h.organization
	}
	project := r.URL.Query().Get("project")
	if project == "" {
		project = h.project
	}
	return organization, project
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	organization, project := h.scope(r)

	dashboard, err := h.svc.Dashboard(r.Context(), organization, project)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboard)
}

func (h *handler) handleRepositories(w http.ResponseWriter, r *http.Request) {
	organization, project := h.scope(r)

	repos, err := h.svc.Repositories(r.Context(), organization, project)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, repos)
}

func (h *handler) handleCommits(w http.ResponseWriter, r *http.Request) {
	repositoryID := r.URL.Query().Get("repositoryId")
	if repositoryID == "" {
		writeValidationError(w, errors.New("repositoryId query parameter is required"))
		return
	}

	// from/to select a date window instead of the most-recent listing.
	if r.URL.Query().Get("from") != "" || r.URL.Query().Get("to") != "" {
		h.handleCommitsByDateRange(w, r, repositoryID)
		return
	}

	limit, err := intQuery(r, "limit", defaultCommitLimit)
	if err != nil {
		writeValidationError(w, err)
		return
	}

	commits, err := h.svc.Commits(r.Context(), repositoryID, limit)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, commits)
}

func (h *handler) handleCommitsByDateRange(w http.ResponseWriter, r *http.Request, repositoryID string) {
	start, err := timeQuery(r, "from")
	if err != nil {
		writeValidationError(w, err)
		return
	}
	end, err := timeQuery(r, "to")
	if err != nil {
		writeValidationError(w, err)
		return
	}
	if end.IsZero() {
		end = time.Now().UTC()
	}

	commits, err := h.svc.CommitsByDateRange(r.Context(), repositoryID, start, end)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, commits)
}

func (h *handler) handleCommitAnalytics(w http.ResponseWriter, r *http.Request) {
	repositoryID := chi.URLParam(r, "repositoryID")
	days, err := intQuery(r, "days", defaultAnalyticsDays)
	if err != nil {
		writeValidationError(w, err)
		return
	}

	stats, err := h.svc.CommitAnalytics(r.Context(), repositoryID, days)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *handler) handleWorkItems(w http.ResponseWriter, r *http.Request) {
	project := r.URL.Query().Get("projectName")
	if project == "" {
		project = h.project
	}
	iterationPath := r.URL.Query().Get("iterationPath")

	items, err := h.svc.WorkItems(r.Context(), project, iterationPath)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *handler) handleWorkItemAnalytics(w http.ResponseWriter, r *http.Request) {
	project := r.URL.Query().Get("projectName")
	if project == "" {
		project = h.project
	}
	iterationPath := r.URL.Query().Get("iterationPath")

	stats, err := h.svc.WorkItemAnalytics(r.Context(), project, iterationPath)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *handler) handlePullRequests(w http.ResponseWriter, r *http.Request) {
	repositoryID := chi.URLParam(r, "repositoryID")
	status := r.URL.Query().Get("status")

	prs, err := h.svc.PullRequests(r.Context(), repositoryID, status)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, prs)
}

func (h *handler) handleTeamMembers(w http.ResponseWriter, r *http.Request) {
	organization, project := h.scope(r)

	members, err := h.svc.TeamMembers(r.Context(), organization, project)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

func (h *handler) handleSprints(w http.ResponseWriter, r *http.Request) {
	organization, project := h.scope(r)

	sprints, err := h.svc.Sprints(r.Context(), organization, project)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sprints)
}

func (h *handler) handleCurrentSprint(w http.ResponseWriter, r *http.Request) {
	organization, project := h.scope(r)

	sprint, err := h.svc.CurrentSprint(r.Context(), organization, project)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	// No sprint covering today is a valid answer, rendered as JSON null.
	writeJSON(w, http.StatusOK, sprint)
}

func (h *handler) handleSync(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Organization string `json:"organization"`
		Project      string `json:"project"`
		Force        bool   `json:"force"`
	}
	// An empty body is allowed; the configured defaults apply.
	if err := decodeJSON(r.Context(), r.Body, &req); err != nil && !errors.Is(err, io.EOF) {
		writeValidationError(w, err)
		return
	}
	if req.Organization == "" {
		req.Organization = h.organization
	}
	if req.Project == "" {
		req.Project = h.project
	}

	report, err := h.svc.Sync(r.Context(), req.Organization, req.Project, req.Force)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *handler) handleClearCache(w http.ResponseWriter, r *http.Request) {
	organization, project := h.scope(r)

	if err := h.svc.ClearCache(r.Context(), organization, project); err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "cache cleared successfully",
	})
}

func (h *handler) writeServiceError(w http.ResponseWriter, err error) {
	status, code := mapServiceError(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("service error", zap.Error(err))
	}
	writeError(w, status, code, err.Error())
}

func mapServiceError(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidScope):
		return http.StatusBadRequest, "VALIDATION"
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}

func timeQuery(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, nil
	}
	value, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, errors.New(name + " must be an RFC 3339 timestamp")
	}
	return value, nil
}

func intQuery(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New(name + " must be an integer")
	}
	return value, nil
}

func decodeJSON(ctx context.Context, body io.ReadCloser, dst any) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return errors.New("unexpected extra JSON input")
		}
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}

func writeValidationError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusBadRequest, "VALIDATION", err.Error())
}
