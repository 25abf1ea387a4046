// Package storage defines the persistence contract shared by the postgres and
// in-memory variants. Records are written exclusively through upserts keyed by
// the entity's natural id; the last write wins, there are no merge semantics.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/podtech-io/devops-pulse/internal/domain"
)

var ErrNotFound = errors.New("record not found")

type Storage interface {
	// Repositories, ordered by last update, newest first.
	Repositories(ctx context.Context, organization, project string) ([]domain.Repository, error)
	Repository(ctx context.Context, id string) (domain.Repository, error)
	UpsertRepository(ctx context.Context, repo domain.Repository) (domain.Repository, error)

	// Commits are scoped by repository, ordered by author date descending.
	Commits(ctx context.Context, repositoryID string, limit int) ([]domain.Commit, error)
	CommitsByDateRange(ctx context.Context, repositoryID string, start, end time.Time) ([]domain.Commit, error)
	// UpsertCommits is best-effort: an error aborts the remainder of the batch
	// but already-written records stay written.
	UpsertCommits(ctx context.Context, commits []domain.Commit) ([]domain.Commit, error)
	CommitStats(ctx context.Context, repositoryID string, days int) (domain.CommitStats, error)

	// WorkItems are scoped by project name; iterationPath narrows the result
	// when non-empty. Ordered by created date descending.
	WorkItems(ctx context.Context, project, iterationPath string) ([]domain.WorkItem, error)
	WorkItem(ctx context.Context, id int) (domain.WorkItem, error)
	UpsertWorkItems(ctx context.Context, items []domain.WorkItem) ([]domain.WorkItem, error)
	WorkItemStats(ctx context.Context, project, iterationPath string) (domain.WorkItemStats, error)

	// PullRequests are scoped by repository; status narrows the result unless
	// empty or "all". Ordered by creation date descending.
	PullRequests(ctx context.Context, repositoryID, status string) ([]domain.PullRequest, error)
	PullRequest(ctx context.Context, id int) (domain.PullRequest, error)
	UpsertPullRequests(ctx context.Context, prs []domain.PullRequest) ([]domain.PullRequest, error)

	TeamMembers(ctx context.Context, organization, project string) ([]domain.TeamMember, error)
	TeamMember(ctx context.Context, id string) (domain.TeamMember, error)
	UpsertTeamMembers(ctx context.Context, members []domain.TeamMember) ([]domain.TeamMember, error)

	// Sprints ordered by start date descending. Stored sprint state is a
	// snapshot; readers must re-derive it against the current clock.
	Sprints(ctx context.Context, organization, project string) ([]domain.Sprint, error)
	Sprint(ctx context.Context, id string) (domain.Sprint, error)
	UpsertSprints(ctx context.Context, sprints []domain.Sprint) ([]domain.Sprint, error)
	CurrentSprint(ctx context.Context, organization, project string, now time.Time) (domain.Sprint, error)

	// Clear removes every record scoped to the organization/project pair.
	// Commits and pull requests carry no organization/project column, so the
	// owned repository ids are resolved first and only their commits/PRs are
	// deleted; records of other scopes stay untouched.
	Clear(ctx context.Context, organization, project string) error

	Close()
}
