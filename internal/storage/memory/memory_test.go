package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/podtech-io/devops-pulse/internal/domain"
	"github.com/podtech-io/devops-pulse/internal/storage"
)

func ptr(t time.Time) *time.Time { return &t }

func TestUpsertRepositoryIdempotent(t *testing.T) {
	t.Parallel()

	store := New()
	ctx := context.Background()

	repo := domain.Repository{ID: "r1", Name: "frontend", Organization: "org", ProjectName: "proj"}

	_, err := store.UpsertRepository(ctx, repo)
	require.NoError(t, err)
	_, err = store.UpsertRepository(ctx, repo)
	require.NoError(t, err)

	repos, err := store.Repositories(ctx, "org", "proj")
	require.NoError(t, err)
	require.Len(t, repos, 1, "double upsert must not duplicate")
	assert.Equal(t, "frontend", repos[0].Name)
}

func TestUpsertRepositoryOverwrites(t *testing.T) {
	t.Parallel()

	store := New()
	ctx := context.Background()

	_, err := store.UpsertRepository(ctx, domain.Repository{ID: "r1", Name: "old", Organization: "org", ProjectName: "proj"})
	require.NoError(t, err)
	_, err = store.UpsertRepository(ctx, domain.Repository{ID: "r1", Name: "new", Organization: "org", ProjectName: "proj"})
	require.NoError(t, err)

	repo, err := store.Repository(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "new", repo.Name)
}

func TestRepositoryNotFound(t *testing.T) {
	t.Parallel()

	store := New()
	_, err := store.Repository(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCommitsOrderingAndLimit(t *testing.T) {
	t.Parallel()

	store := New()
	ctx := context.Background()
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	var commits []domain.Commit
	for i := 0; i < 5; i++ {
		commits = append(commits, domain.Commit{
			ID:           "r1-" + string(rune('a'+i)),
			CommitID:     string(rune('a' + i)),
			RepositoryID: "r1",
			AuthorDate:   base.Add(time.Duration(i) * time.Hour),
		})
	}
	_, err := store.UpsertCommits(ctx, commits)
	require.NoError(t, err)

	got, err := store.Commits(ctx, "r1", 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "e", got[0].CommitID, "newest first")
	assert.Equal(t, "d", got[1].CommitID)
	assert.Equal(t, "c", got[2].CommitID)
}

func TestCommitsByDateRange(t *testing.T) {
	t.Parallel()

	store := New()
	ctx := context.Background()
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	_, err := store.UpsertCommits(ctx, []domain.Commit{
		{ID: "r1-a", CommitID: "a", RepositoryID: "r1", AuthorDate: base},
		{ID: "r1-b", CommitID: "b", RepositoryID: "r1", AuthorDate: base.AddDate(0, 0, 5)},
		{ID: "r1-c", CommitID: "c", RepositoryID: "r1", AuthorDate: base.AddDate(0, 0, 10)},
	})
	require.NoError(t, err)

	got, err := store.CommitsByDateRange(ctx, "r1", base.AddDate(0, 0, 1), base.AddDate(0, 0, 7))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].CommitID)
}

func TestSingleRecordGetters(t *testing.T) {
	t.Parallel()

	store := New()
	ctx := context.Background()

	_, err := store.UpsertWorkItems(ctx, []domain.WorkItem{{ID: 7, ProjectName: "proj", Title: "fix timeouts"}})
	require.NoError(t, err)
	_, err = store.UpsertPullRequests(ctx, []domain.PullRequest{{ID: 9, RepositoryID: "r1", Title: "add models"}})
	require.NoError(t, err)

	wi, err := store.WorkItem(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "fix timeouts", wi.Title)
	_, err = store.WorkItem(ctx, 8)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	pr, err := store.PullRequest(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, "add models", pr.Title)
	_, err = store.PullRequest(ctx, 10)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = store.UpsertTeamMembers(ctx, []domain.TeamMember{{ID: "m1", DisplayName: "Dana", Organization: "org", ProjectName: "proj"}})
	require.NoError(t, err)
	_, err = store.UpsertSprints(ctx, []domain.Sprint{{ID: "s1", Name: "Sprint 1", Organization: "org", ProjectName: "proj"}})
	require.NoError(t, err)

	member, err := store.TeamMember(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "Dana", member.DisplayName)
	_, err = store.TeamMember(ctx, "m2")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	sprint, err := store.Sprint(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Sprint 1", sprint.Name)
	_, err = store.Sprint(ctx, "s2")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCommitStats(t *testing.T) {
	t.Parallel()

	store := New()
	ctx := context.Background()
	now := time.Now()

	_, err := store.UpsertCommits(ctx, []domain.Commit{
		{ID: "r1-1", RepositoryID: "r1", AuthorName: "Sarah", AuthorEmail: "s@x.io", AuthorDate: now.AddDate(0, 0, -1)},
		{ID: "r1-2", RepositoryID: "r1", AuthorName: "Sarah", AuthorEmail: "s@x.io", AuthorDate: now.AddDate(0, 0, -2)},
		{ID: "r1-3", RepositoryID: "r1", AuthorName: "Alex", AuthorEmail: "a@x.io", AuthorDate: now.AddDate(0, 0, -3)},
		// Outside the 30 day window.
		{ID: "r1-4", RepositoryID: "r1", AuthorName: "Old", AuthorEmail: "o@x.io", AuthorDate: now.AddDate(0, 0, -60)},
		// Different repository.
		{ID: "r2-1", RepositoryID: "r2", AuthorName: "Sarah", AuthorEmail: "s@x.io", AuthorDate: now},
	})
	require.NoError(t, err)

	stats, err := store.CommitStats(ctx, "r1", 30)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalCommits)
	assert.Equal(t, 2, stats.UniqueContributors)
	require.NotEmpty(t, stats.TopContributors)
	assert.Equal(t, "Sarah", stats.TopContributors[0].AuthorName)
	assert.Equal(t, 2, stats.TopContributors[0].CommitCount)
}

func TestWorkItemStatsBuckets(t *testing.T) {
	t.Parallel()

	store := New()
	ctx := context.Background()

	_, err := store.UpsertWorkItems(ctx, []domain.WorkItem{
		{ID: 1, ProjectName: "proj", Type: "Task", State: "Done"},
		{ID: 2, ProjectName: "proj", Type: "Bug", State: "Closed"},
		{ID: 3, ProjectName: "proj", Type: "Task", State: "Active"},
		{ID: 4, ProjectName: "proj", Type: "Bug", State: "Blocked"},
		{ID: 5, ProjectName: "proj", Type: "User Story", State: "New"},
		{ID: 6, ProjectName: "other", Type: "Task", State: "Done"},
	})
	require.NoError(t, err)

	stats, err := store.WorkItemStats(ctx, "proj", "")
	require.NoError(t, err)
	assert.Equal(t, 5, stats.TotalWorkItems)
	assert.Equal(t, 2, stats.CompletedWorkItems)
	assert.Equal(t, 1, stats.InProgressWorkItems)
	assert.Equal(t, 1, stats.BlockedWorkItems)
	assert.ElementsMatch(t, []domain.TypeCount{
		{Type: "Task", Count: 2},
		{Type: "Bug", Count: 2},
		{Type: "User Story", Count: 1},
	}, stats.WorkItemsByType)
}

func TestWorkItemsIterationFilter(t *testing.T) {
	t.Parallel()

	store := New()
	ctx := context.Background()

	_, err := store.UpsertWorkItems(ctx, []domain.WorkItem{
		{ID: 1, ProjectName: "proj", IterationPath: `proj\Sprint 1`, State: "New"},
		{ID: 2, ProjectName: "proj", IterationPath: `proj\Sprint 2`, State: "New"},
	})
	require.NoError(t, err)

	items, err := store.WorkItems(ctx, "proj", `proj\Sprint 1`)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].ID)
}

func TestPullRequestStatusFilter(t *testing.T) {
	t.Parallel()

	store := New()
	ctx := context.Background()

	_, err := store.UpsertPullRequests(ctx, []domain.PullRequest{
		{ID: 1, RepositoryID: "r1", Status: "active"},
		{ID: 2, RepositoryID: "r1", Status: "completed"},
	})
	require.NoError(t, err)

	active, err := store.PullRequests(ctx, "r1", "active")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, 1, active[0].ID)

	all, err := store.PullRequests(ctx, "r1", "all")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCurrentSprint(t *testing.T) {
	t.Parallel()

	store := New()
	ctx := context.Background()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	_, err := store.UpsertSprints(ctx, []domain.Sprint{
		{ID: "s1", Organization: "org", ProjectName: "proj", StartDate: ptr(now.AddDate(0, 0, -20)), FinishDate: ptr(now.AddDate(0, 0, -10))},
		{ID: "s2", Organization: "org", ProjectName: "proj", StartDate: ptr(now.AddDate(0, 0, -5)), FinishDate: ptr(now.AddDate(0, 0, 5))},
		{ID: "s3", Organization: "org", ProjectName: "proj", StartDate: ptr(now.AddDate(0, 0, 10)), FinishDate: ptr(now.AddDate(0, 0, 20))},
	})
	require.NoError(t, err)

	sprint, err := store.CurrentSprint(ctx, "org", "proj", now)
	require.NoError(t, err)
	assert.Equal(t, "s2", sprint.ID)

	_, err = store.CurrentSprint(ctx, "other", "proj", now)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestClearIsScoped(t *testing.T) {
	t.Parallel()

	store := New()
	ctx := context.Background()
	now := time.Now()

	_, err := store.UpsertRepository(ctx, domain.Repository{ID: "r1", Organization: "org", ProjectName: "proj"})
	require.NoError(t, err)
	_, err = store.UpsertRepository(ctx, domain.Repository{ID: "r2", Organization: "org2", ProjectName: "proj2"})
	require.NoError(t, err)
	_, err = store.UpsertCommits(ctx, []domain.Commit{
		{ID: "r1-a", RepositoryID: "r1", AuthorDate: now},
		{ID: "r2-a", RepositoryID: "r2", AuthorDate: now},
	})
	require.NoError(t, err)
	_, err = store.UpsertPullRequests(ctx, []domain.PullRequest{
		{ID: 1, RepositoryID: "r1"},
		{ID: 2, RepositoryID: "r2"},
	})
	require.NoError(t, err)
	_, err = store.UpsertWorkItems(ctx, []domain.WorkItem{
		{ID: 1, ProjectName: "proj"},
		{ID: 2, ProjectName: "proj2"},
	})
	require.NoError(t, err)
	_, err = store.UpsertTeamMembers(ctx, []domain.TeamMember{
		{ID: "m1", Organization: "org", ProjectName: "proj"},
		{ID: "m2", Organization: "org2", ProjectName: "proj2"},
	})
	require.NoError(t, err)
	_, err = store.UpsertSprints(ctx, []domain.Sprint{
		{ID: "s1", Organization: "org", ProjectName: "proj"},
		{ID: "s2", Organization: "org2", ProjectName: "proj2"},
	})
	require.NoError(t, err)

	require.NoError(t, store.Clear(ctx, "org", "proj"))

	repos, _ := store.Repositories(ctx, "org", "proj")
	assert.Empty(t, repos)
	commits, _ := store.Commits(ctx, "r1", 0)
	assert.Empty(t, commits, "commits of owned repositories must be deleted")
	prs, _ := store.PullRequests(ctx, "r1", "")
	assert.Empty(t, prs)
	items, _ := store.WorkItems(ctx, "proj", "")
	assert.Empty(t, items)

	// The other scope is untouched, including its commits and PRs.
	repos2, _ := store.Repositories(ctx, "org2", "proj2")
	assert.Len(t, repos2, 1)
	commits2, _ := store.Commits(ctx, "r2", 0)
	assert.Len(t, commits2, 1)
	prs2, _ := store.PullRequests(ctx, "r2", "")
	assert.Len(t, prs2, 1)
	items2, _ := store.WorkItems(ctx, "proj2", "")
	assert.Len(t, items2, 1)
	members2, _ := store.TeamMembers(ctx, "org2", "proj2")
	assert.Len(t, members2, 1)
	sprints2, _ := store.Sprints(ctx, "org2", "proj2")
	assert.Len(t, sprints2, 1)
}
