package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/podtech-io/devops-pulse/internal/cache"
	"github.com/podtech-io/devops-pulse/internal/domain"
	"github.com/podtech-io/devops-pulse/internal/service"
	"github.com/podtech-io/devops-pulse/internal/storage/memory"
)

const (
	testOrganization = "podtech-io"
	testProject      = "LifeSafety.ai"
)

// newTestHandler wires the router over an in-memory store with no remote
// client, so POST /api/sync runs the demo seeding path.
func newTestHandler() http.Handler {
	svc := service.New(memory.New(), nil, cache.NewTracker(), zap.NewNop(), cache.DefaultTTL)
	return newRouter(zap.NewNop(), svc, testOrganization, testProject)
}

func doRequest(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

func TestHealth(t *testing.T) {
	t.Parallel()

	rec := doRequest(t, newTestHandler(), http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	decodeBody(t, rec, &body)
	assert.Equal(t, "ok", body["status"])
}

func TestSyncSeedsAndServesDashboard(t *testing.T) {
	t.Parallel()

	h := newTestHandler()

	rec := doRequest(t, h, http.MethodPost, "/api/sync", `{"force":true}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var report domain.SyncReport
	decodeBody(t, rec, &report)
	assert.True(t, report.RanSync)
	assert.True(t, report.Success)
	assert.Equal(t, 2, report.Counts.Repositories)
	assert.Equal(t, 3, report.Counts.WorkItems)

	rec = doRequest(t, h, http.MethodGet, "/api/dashboard", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var dashboard domain.Dashboard
	decodeBody(t, rec, &dashboard)
	assert.Equal(t, testOrganization, dashboard.Organization)
	assert.Equal(t, testProject, dashboard.Project)
	assert.Equal(t, 2, dashboard.Metrics.TotalRepositories)
	assert.Equal(t, 3, dashboard.Metrics.TotalWorkItems)
	assert.Len(t, dashboard.RecentWorkItems, 3)
}

func TestSyncWithEmptyBodyUsesDefaults(t *testing.T) {
	t.Parallel()

	rec := doRequest(t, newTestHandler(), http.MethodPost, "/api/sync", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var report domain.SyncReport
	decodeBody(t, rec, &report)
	assert.True(t, report.RanSync)
}

func TestRepositoriesAfterSync(t *testing.T) {
	t.Parallel()

	h := newTestHandler()
	require.Equal(t, http.StatusOK, doRequest(t, h, http.MethodPost, "/api/sync", "").Code)

	rec := doRequest(t, h, http.MethodGet, "/api/repositories", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var repos []domain.Repository
	decodeBody(t, rec, &repos)
	require.Len(t, repos, 2)
	for _, repo := range repos {
		assert.Equal(t, testOrganization, repo.Organization)
	}
}

func TestCommitsRequiresRepositoryID(t *testing.T) {
	t.Parallel()

	rec := doRequest(t, newTestHandler(), http.MethodGet, "/api/commits", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCommitsByDateRange(t *testing.T) {
	t.Parallel()

	h := newTestHandler()
	require.Equal(t, http.StatusOK, doRequest(t, h, http.MethodPost, "/api/sync", "").Code)

	// The seeded commit for demo-repo-1 is authored on 2024-10-09.
	rec := doRequest(t, h, http.MethodGet,
		"/api/commits?repositoryId=demo-repo-1&from=2024-10-01T00:00:00Z&to=2024-10-31T00:00:00Z", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var commits []domain.Commit
	decodeBody(t, rec, &commits)
	require.Len(t, commits, 1)

	rec = doRequest(t, h, http.MethodGet,
		"/api/commits?repositoryId=demo-repo-1&from=2025-01-01T00:00:00Z", "")
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &commits)
	assert.Empty(t, commits)

	rec = doRequest(t, h, http.MethodGet, "/api/commits?repositoryId=demo-repo-1&from=yesterday", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCommitsRejectsBadLimit(t *testing.T) {
	t.Parallel()

	rec := doRequest(t, newTestHandler(), http.MethodGet, "/api/commits?repositoryId=demo-repo-1&limit=ten", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPullRequestsByRepository(t *testing.T) {
	t.Parallel()

	h := newTestHandler()
	require.Equal(t, http.StatusOK, doRequest(t, h, http.MethodPost, "/api/sync", "").Code)

	rec := doRequest(t, h, http.MethodGet, "/api/pull-requests/demo-repo-1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var prs []domain.PullRequest
	decodeBody(t, rec, &prs)
	require.Len(t, prs, 1)
	assert.Equal(t, "active", prs[0].Status)

	rec = doRequest(t, h, http.MethodGet, "/api/pull-requests/demo-repo-1?status=completed", "")
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &prs)
	assert.Empty(t, prs)
}

func TestWorkItemAnalytics(t *testing.T) {
	t.Parallel()

	h := newTestHandler()
	require.Equal(t, http.StatusOK, doRequest(t, h, http.MethodPost, "/api/sync", "").Code)

	rec := doRequest(t, h, http.MethodGet, "/api/work-items/analytics", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats domain.WorkItemStats
	decodeBody(t, rec, &stats)
	assert.Equal(t, 3, stats.TotalWorkItems)
	assert.Equal(t, 1, stats.CompletedWorkItems)
	assert.Equal(t, 1, stats.InProgressWorkItems)
}

func TestCurrentSprintIsNullWhenNoneActive(t *testing.T) {
	t.Parallel()

	h := newTestHandler()
	require.Equal(t, http.StatusOK, doRequest(t, h, http.MethodPost, "/api/sync", "").Code)

	// The seeded sprint's date range is in the past.
	rec := doRequest(t, h, http.MethodGet, "/api/sprints/current", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null", strings.TrimSpace(rec.Body.String()))
}

func TestClearCache(t *testing.T) {
	t.Parallel()

	h := newTestHandler()
	require.Equal(t, http.StatusOK, doRequest(t, h, http.MethodPost, "/api/sync", "").Code)

	rec := doRequest(t, h, http.MethodDelete, "/api/cache", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, h, http.MethodGet, "/api/repositories", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var repos []domain.Repository
	decodeBody(t, rec, &repos)
	assert.Empty(t, repos)
}
