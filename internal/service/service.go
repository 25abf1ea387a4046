// Package service orchestrates cache synchronization against the remote
// platform and composes stored records into the dashboard views.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/podtech-io/devops-pulse/internal/azuredevops"
	"github.com/podtech-io/devops-pulse/internal/cache"
	"github.com/podtech-io/devops-pulse/internal/domain"
	"github.com/podtech-io/devops-pulse/internal/storage"
)

var ErrInvalidScope = errors.New("organization and project are required")

// RemoteClient is the remote platform surface the orchestrator depends on.
// Implemented by azuredevops.Client; faked in tests.
type RemoteClient interface {
	Repositories(ctx context.Context) ([]domain.Repository, error)
	Commits(ctx context.Context, repositoryID string, top, skip int) ([]domain.Commit, error)
	WorkItems(ctx context.Context, iterationPath string) ([]domain.WorkItem, error)
	PullRequests(ctx context.Context, repositoryID, status string) ([]domain.PullRequest, error)
	TeamMembers(ctx context.Context) ([]domain.TeamMember, error)
	Sprints(ctx context.Context) ([]domain.Sprint, error)
}

type Service struct {
	store   storage.Storage
	client  RemoteClient // nil when no access token is configured
	tracker *cache.Tracker
	logger  *zap.Logger
	ttl     time.Duration
	now     func() time.Time
}

func New(store storage.Storage, client RemoteClient, tracker *cache.Tracker, logger *zap.Logger, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = cache.DefaultTTL
	}
	return &Service{
		store:   store,
		client:  client,
		tracker: tracker,
		logger:  logger,
		ttl:     ttl,
		now:     time.Now,
	}
}

func validateScope(organization, project string) error {
	if organization == "" || project == "" {
		return ErrInvalidScope
	}
	return nil
}

func (s *Service) IsStale(kind, organization, project string) bool {
	return s.tracker.IsStale(kind, organization, project, s.ttl)
}

// ClearCache drops every stored record for the scope and forgets its sync
// timestamps so the next sync is not gated by stale freshness state.
func (s *Service) ClearCache(ctx context.Context, organization, project string) error {
	if err := validateScope(organization, project); err != nil {
		return err
	}
	if err := s.store.Clear(ctx, organization, project); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	s.tracker.Forget(organization, project)
	return nil
}

func (s *Service) Repositories(ctx context.Context, organization, project string) ([]domain.Repository, error) {
	if err := validateScope(organization, project); err != nil {
		return nil, err
	}
	return s.store.Repositories(ctx, organization, project)
}

func (s *Service) Commits(ctx context.Context, repositoryID string, limit int) ([]domain.Commit, error) {
	return s.store.Commits(ctx, repositoryID, limit)
}

func (s *Service) CommitsByDateRange(ctx context.Context, repositoryID string, start, end time.Time) ([]domain.Commit, error) {
	return s.store.CommitsByDateRange(ctx, repositoryID, start, end)
}

func (s *Service) CommitAnalytics(ctx context.Context, repositoryID string, days int) (domain.CommitStats, error) {
	return s.store.CommitStats(ctx, repositoryID, days)
}

func (s *Service) WorkItems(ctx context.Context, project, iterationPath string) ([]domain.WorkItem, error) {
	return s.store.WorkItems(ctx, project, iterationPath)
}

func (s *Service) WorkItemAnalytics(ctx context.Context, project, iterationPath string) (domain.WorkItemStats, error) {
	return s.store.WorkItemStats(ctx, project, iterationPath)
}

func (s *Service) PullRequests(ctx context.Context, repositoryID, status string) ([]domain.PullRequest, error) {
	return s.store.PullRequests(ctx, repositoryID, status)
}

func (s *Service) TeamMembers(ctx context.Context, organization, project string) ([]domain.TeamMember, error) {
	if err := validateScope(organization, project); err != nil {
		return nil, err
	}
	return s.store.TeamMembers(ctx, organization, project)
}

// Sprints returns the scope's sprints with states recomputed against the
// current clock; the stored state is only a snapshot from the last sync.
func (s *Service) Sprints(ctx context.Context, organization, project string) ([]domain.Sprint, error) {
	if err := validateScope(organization, project); err != nil {
		return nil, err
	}
	sprints, err := s.store.Sprints(ctx, organization, project)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for i := range sprints {
		sprints[i] = sprints[i].WithDerivedState(now)
	}
	return sprints, nil
}

// CurrentSprint returns nil without error when no sprint covers the current
// date.
func (s *Service) CurrentSprint(ctx context.Context, organization, project string) (*domain.Sprint, error) {
	if err := validateScope(organization, project); err != nil {
		return nil, err
	}
	now := s.now()
	sprint, err := s.store.CurrentSprint(ctx, organization, project, now)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	sprint = sprint.WithDerivedState(now)
	return &sprint, nil
}

func (s *Service) Dashboard(ctx context.Context, organization, project string) (domain.Dashboard, error) {
	if err := validateScope(organization, project); err != nil {
		return domain.Dashboard{}, err
	}

	repositories, err := s.store.Repositories(ctx, organization, project)
	if err != nil {
		return domain.Dashboard{}, err
	}
	workItems, err := s.store.WorkItems(ctx, project, "")
	if err != nil {
		return domain.Dashboard{}, err
	}
	sprints, err := s.store.Sprints(ctx, organization, project)
	if err != nil {
		return domain.Dashboard{}, err
	}
	stats, err := s.store.WorkItemStats(ctx, project, "")
	if err != nil {
		return domain.Dashboard{}, err
	}
	currentSprint, err := s.CurrentSprint(ctx, organization, project)
	if err != nil {
		return domain.Dashboard{}, err
	}

	recent := workItems
	if len(recent) > 10 {
		recent = recent[:10]
	}
	topRepos := repositories
	if len(topRepos) > 5 {
		topRepos = topRepos[:5]
	}

	return domain.Dashboard{
		Organization: organization,
		Project:      project,
		Metrics: domain.DashboardMetrics{
			TotalWorkItems:      stats.TotalWorkItems,
			CompletedWorkItems:  stats.CompletedWorkItems,
			InProgressWorkItems: stats.InProgressWorkItems,
			BlockedWorkItems:    stats.BlockedWorkItems,
			TotalRepositories:   len(repositories),
			TotalSprints:        len(sprints),
		},
		CurrentSprint:    currentSprint,
		WorkItemsByType:  stats.WorkItemsByType,
		WorkItemsByState: stats.WorkItemsByState,
		RecentWorkItems:  recent,
		Repositories:     topRepos,
	}, nil
}

var _ RemoteClient = (*azuredevops.Client)(nil)
