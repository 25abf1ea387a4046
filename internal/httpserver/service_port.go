package httpserver

import (
	"context"
	"time"

	"github.com/podtech-io/devops-pulse/internal/domain"
)

type Service interface {
	Sync(ctx context.Context, organization, project string, force bool) (domain.SyncReport, error)
	ClearCache(ctx context.Context, organization, project string) error

	Dashboard(ctx context.Context, organization, project string) (domain.Dashboard, error)
	Repositories(ctx context.Context, organization, project string) ([]domain.Repository, error)
	Commits(ctx context.Context, repositoryID string, limit int) ([]domain.Commit, error)
	CommitsByDateRange(ctx context.Context, repositoryID string, start, end time.Time) ([]domain.Commit, error)
	CommitAnalytics(ctx context.Context, repositoryID string, days int) (domain.CommitStats, error)
	WorkItems(ctx context.Context, project, iterationPath string) ([]domain.WorkItem, error)
	WorkItemAnalytics(ctx context.Context, project, iterationPath string) (domain.WorkItemStats, error)
	PullRequests(ctx context.Context, repositoryID, status string) ([]domain.PullRequest, error)
	TeamMembers(ctx context.Context, organization, project string) ([]domain.TeamMember, error)
	Sprints(ctx context.Context, organization, project string) ([]domain.Sprint, error)
	CurrentSprint(ctx context.Context, organization, project string) (*domain.Sprint, error)
}
