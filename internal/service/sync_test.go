package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/podtech-io/devops-pulse/internal/cache"
	"github.com/podtech-io/devops-pulse/internal/domain"
	"github.com/podtech-io/devops-pulse/internal/storage/memory"
)

type fakeClient struct {
	repos      []domain.Repository
	sprints    []domain.Sprint
	items      []domain.WorkItem
	members    []domain.TeamMember
	membersErr error
	prs        map[string][]domain.PullRequest
	commits    map[string][]domain.Commit
	commitsErr map[string]error

	fetches int
}

func (f *fakeClient) Repositories(_ context.Context) ([]domain.Repository, error) {
	f.fetches++
	return f.repos, nil
}

func (f *fakeClient) Sprints(_ context.Context) ([]domain.Sprint, error) {
	return f.sprints, nil
}

func (f *fakeClient) WorkItems(_ context.Context, _ string) ([]domain.WorkItem, error) {
	return f.items, nil
}

func (f *fakeClient) TeamMembers(_ context.Context) ([]domain.TeamMember, error) {
	if f.membersErr != nil {
		return nil, f.membersErr
	}
	return f.members, nil
}

func (f *fakeClient) PullRequests(_ context.Context, repositoryID, _ string) ([]domain.PullRequest, error) {
	return f.prs[repositoryID], nil
}

func (f *fakeClient) Commits(_ context.Context, repositoryID string, _, _ int) ([]domain.Commit, error) {
	if err := f.commitsErr[repositoryID]; err != nil {
		return nil, err
	}
	return f.commits[repositoryID], nil
}

func newTestService(client RemoteClient) *Service {
	return New(memory.New(), client, cache.NewTracker(), zap.NewNop(), cache.DefaultTTL)
}

func scopedRepos(org, proj string, ids ...string) []domain.Repository {
	repos := make([]domain.Repository, 0, len(ids))
	for _, id := range ids {
		repos = append(repos, domain.Repository{ID: id, Organization: org, ProjectName: proj})
	}
	return repos
}

func TestSyncValidation(t *testing.T) {
	t.Parallel()

	svc := newTestService(&fakeClient{})
	_, err := svc.Sync(context.Background(), "", "proj", false)
	assert.ErrorIs(t, err, ErrInvalidScope)

	_, err = svc.Sync(context.Background(), "org", "", true)
	assert.ErrorIs(t, err, ErrInvalidScope)
}

func TestSyncPartialFailureIsolation(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		repos:      scopedRepos("org", "proj", "r1", "r2"),
		sprints:    []domain.Sprint{{ID: "s1", Organization: "org", ProjectName: "proj"}},
		items:      make([]domain.WorkItem, 5),
		membersErr: errors.New("graph api: 401 unauthorized"),
	}
	for i := range client.items {
		client.items[i] = domain.WorkItem{ID: i + 1, ProjectName: "proj"}
	}

	svc := newTestService(client)
	report, err := svc.Sync(context.Background(), "org", "proj", false)
	require.NoError(t, err)

	assert.True(t, report.Success, "a failed sub-sync must not fail the run")
	assert.True(t, report.RanSync)
	assert.Equal(t, domain.SyncCounts{
		Repositories: 2,
		Sprints:      1,
		WorkItems:    5,
		TeamMembers:  0,
		PullRequests: 0,
		Commits:      0,
	}, report.Counts)

	// A soft team-members failure must not record a freshness timestamp.
	assert.True(t, svc.IsStale(cache.KindTeamMembers, "org", "proj"))
	assert.False(t, svc.IsStale(cache.KindRepositories, "org", "proj"))
}

func TestSyncFreshSkipsWithoutPartialWork(t *testing.T) {
	t.Parallel()

	client := &fakeClient{repos: scopedRepos("org", "proj", "r1")}
	svc := newTestService(client)

	first, err := svc.Sync(context.Background(), "org", "proj", false)
	require.NoError(t, err)
	require.True(t, first.RanSync)
	fetchesAfterFirst := client.fetches

	second, err := svc.Sync(context.Background(), "org", "proj", false)
	require.NoError(t, err)

	assert.False(t, second.RanSync)
	assert.True(t, second.Success)
	require.NotNil(t, second.LastSyncedAt)
	assert.Equal(t, fetchesAfterFirst, client.fetches, "fresh data must short-circuit before any fetch")
	assert.Equal(t, domain.SyncCounts{}, second.Counts)
}

func TestSyncForceBypassesFreshness(t *testing.T) {
	t.Parallel()

	client := &fakeClient{repos: scopedRepos("org", "proj", "r1")}
	svc := newTestService(client)

	_, err := svc.Sync(context.Background(), "org", "proj", false)
	require.NoError(t, err)

	report, err := svc.Sync(context.Background(), "org", "proj", true)
	require.NoError(t, err)
	assert.True(t, report.RanSync)
	assert.Equal(t, 1, report.Counts.Repositories)
	assert.Equal(t, 2, client.fetches)
}

func TestSyncPerRepositoryFailureIsolation(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		repos: scopedRepos("org", "proj", "r1", "r2"),
		commits: map[string][]domain.Commit{
			"r2": {
				{ID: "r2-a", CommitID: "a", RepositoryID: "r2"},
				{ID: "r2-b", CommitID: "b", RepositoryID: "r2"},
			},
		},
		commitsErr: map[string]error{"r1": errors.New("gateway timeout")},
		prs: map[string][]domain.PullRequest{
			"r1": {{ID: 11, RepositoryID: "r1", PullRequestID: 1}},
		},
	}

	svc := newTestService(client)
	report, err := svc.Sync(context.Background(), "org", "proj", true)
	require.NoError(t, err)

	assert.True(t, report.Success)
	assert.Equal(t, 2, report.Counts.Commits, "one repository failing must not stop the loop")
	assert.Equal(t, 1, report.Counts.PullRequests)

	// The shared commits timestamp is recorded even with a failed repository.
	assert.False(t, svc.IsStale(cache.KindCommits, "org", "proj"))
}

func TestSyncDemoFallbackDeterminism(t *testing.T) {
	t.Parallel()

	svc := newTestService(nil)
	ctx := context.Background()

	first, err := svc.Sync(ctx, "org", "proj", true)
	require.NoError(t, err)
	second, err := svc.Sync(ctx, "org", "proj", true)
	require.NoError(t, err)

	assert.True(t, first.RanSync)
	assert.Equal(t, first.Counts, second.Counts)
	assert.Equal(t, 2, second.Counts.Repositories)
	assert.Equal(t, 3, second.Counts.WorkItems)

	// The store is cleared before each seed, so nothing accumulates.
	repos, err := svc.Repositories(ctx, "org", "proj")
	require.NoError(t, err)
	assert.Len(t, repos, 2)
	items, err := svc.WorkItems(ctx, "proj", "")
	require.NoError(t, err)
	assert.Len(t, items, 3)
}

func TestSyncDemoFallbackGatedByFreshness(t *testing.T) {
	t.Parallel()

	svc := newTestService(nil)
	ctx := context.Background()

	first, err := svc.Sync(ctx, "org", "proj", false)
	require.NoError(t, err)
	require.True(t, first.RanSync)

	second, err := svc.Sync(ctx, "org", "proj", false)
	require.NoError(t, err)
	assert.False(t, second.RanSync, "demo seeding respects the staleness gate too")
}

func TestClearCacheForgetsFreshness(t *testing.T) {
	t.Parallel()

	svc := newTestService(nil)
	ctx := context.Background()

	_, err := svc.Sync(ctx, "org", "proj", true)
	require.NoError(t, err)
	require.False(t, svc.IsStale(cache.KindRepositories, "org", "proj"))

	require.NoError(t, svc.ClearCache(ctx, "org", "proj"))

	assert.True(t, svc.IsStale(cache.KindRepositories, "org", "proj"))
	repos, err := svc.Repositories(ctx, "org", "proj")
	require.NoError(t, err)
	assert.Empty(t, repos)
}

func TestSprintsRecomputeState(t *testing.T) {
	t.Parallel()

	svc := newTestService(nil)
	ctx := context.Background()

	start := time.Now().AddDate(0, 0, -3)
	finish := time.Now().AddDate(0, 0, 3)
	_, err := svc.store.UpsertSprints(ctx, []domain.Sprint{{
		ID:           "s1",
		Organization: "org",
		ProjectName:  "proj",
		StartDate:    &start,
		FinishDate:   &finish,
		State:        domain.SprintPast, // stale snapshot
	}})
	require.NoError(t, err)

	sprints, err := svc.Sprints(ctx, "org", "proj")
	require.NoError(t, err)
	require.Len(t, sprints, 1)
	assert.Equal(t, domain.SprintCurrent, sprints[0].State)

	current, err := svc.CurrentSprint(ctx, "org", "proj")
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, domain.SprintCurrent, current.State)
}
