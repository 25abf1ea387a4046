package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/podtech-io/devops-pulse/internal/azuredevops"
	"github.com/podtech-io/devops-pulse/internal/cache"
	"github.com/podtech-io/devops-pulse/internal/domain"
)

const commitsPageSize = 100

// Sync refreshes every cached entity kind for the scope. Unless forced, it is
// gated on the repositories timestamp: fresh data short-circuits with
// RanSync=false and no partial work. Sub-sync failures never propagate; each
// is logged and contributes a zero count, so callers must interpret the
// counts, not just Success.
func (s *Service) Sync(ctx context.Context, organization, project string, force bool) (domain.SyncReport, error) {
	if err := validateScope(organization, project); err != nil {
		return domain.SyncReport{}, err
	}

	if !force && !s.tracker.IsStale(cache.KindRepositories, organization, project, s.ttl) {
		report := domain.SyncReport{
			Success: true,
			Message: "data is fresh, no sync needed",
		}
		if last, ok := s.tracker.LastSync(cache.KindRepositories, organization, project); ok {
			report.LastSyncedAt = &last
		}
		return report, nil
	}

	if s.client == nil {
		return s.seedDemoData(ctx, organization, project)
	}

	s.logger.Info("starting sync",
		zap.String("organization", organization),
		zap.String("project", project),
		zap.Bool("force", force))

	var counts domain.SyncCounts
	var wg sync.WaitGroup
	wg.Add(4)
	go func() {
		defer wg.Done()
		counts.Repositories = s.syncRepositories(ctx, organization, project)
	}()
	go func() {
		defer wg.Done()
		counts.Sprints = s.syncSprints(ctx, organization, project)
	}()
	go func() {
		defer wg.Done()
		counts.WorkItems = s.syncWorkItems(ctx, organization, project)
	}()
	go func() {
		defer wg.Done()
		counts.TeamMembers = s.syncTeamMembers(ctx, organization, project)
	}()
	wg.Wait()

	// Pull requests and commits hang off repositories, so this loop reads the
	// repository list back from the store after the fan-out has persisted it.
	counts.PullRequests, counts.Commits = s.syncPerRepository(ctx, organization, project)

	syncedAt := s.now()
	report := domain.SyncReport{
		RanSync:  true,
		Success:  true,
		Message:  "data synchronization completed",
		SyncedAt: &syncedAt,
		Counts:   counts,
	}

	s.logger.Info("sync completed",
		zap.String("organization", organization),
		zap.String("project", project),
		zap.Int("repositories", counts.Repositories),
		zap.Int("sprints", counts.Sprints),
		zap.Int("workItems", counts.WorkItems),
		zap.Int("teamMembers", counts.TeamMembers),
		zap.Int("pullRequests", counts.PullRequests),
		zap.Int("commits", counts.Commits))

	return report, nil
}

func (s *Service) syncRepositories(ctx context.Context, organization, project string) int {
	repos, err := s.client.Repositories(ctx)
	if err != nil {
		s.logger.Error("failed to sync repositories", zap.Error(err))
		return 0
	}
	for _, repo := range repos {
		if _, err := s.store.UpsertRepository(ctx, repo); err != nil {
			s.logger.Error("failed to upsert repository", zap.String("id", repo.ID), zap.Error(err))
		}
	}
	s.tracker.RecordSync(cache.KindRepositories, organization, project)
	return len(repos)
}

func (s *Service) syncSprints(ctx context.Context, organization, project string) int {
	sprints, err := s.client.Sprints(ctx)
	if err != nil {
		s.logger.Error("failed to sync sprints", zap.Error(err))
		return 0
	}
	if _, err := s.store.UpsertSprints(ctx, sprints); err != nil {
		s.logger.Error("failed to upsert sprints", zap.Error(err))
		return 0
	}
	s.tracker.RecordSync(cache.KindSprints, organization, project)
	return len(sprints)
}

func (s *Service) syncWorkItems(ctx context.Context, organization, project string) int {
	items, err := s.client.WorkItems(ctx, "")
	if err != nil {
		s.logger.Error("failed to sync work items", zap.Error(err))
		return 0
	}
	if _, err := s.store.UpsertWorkItems(ctx, items); err != nil {
		s.logger.Error("failed to upsert work items", zap.Error(err))
		return 0
	}
	s.tracker.RecordSync(cache.KindWorkItems, organization, project)
	return len(items)
}

// syncTeamMembers treats a remote failure as soft: the directory API needs a
// permission many tokens lack, so a failed fetch reports zero without
// recording a timestamp.
func (s *Service) syncTeamMembers(ctx context.Context, organization, project string) int {
	members, err := s.client.TeamMembers(ctx)
	if err != nil {
		s.logger.Error("failed to sync team members", zap.Error(err))
		return 0
	}
	if len(members) == 0 {
		return 0
	}
	if _, err := s.store.UpsertTeamMembers(ctx, members); err != nil {
		s.logger.Error("failed to upsert team members", zap.Error(err))
		return 0
	}
	s.tracker.RecordSync(cache.KindTeamMembers, organization, project)
	return len(members)
}

func (s *Service) syncPerRepository(ctx context.Context, organization, project string) (prCount, commitCount int) {
	repos, err := s.store.Repositories(ctx, organization, project)
	if err != nil {
		s.logger.Error("failed to read repositories for per-repository sync", zap.Error(err))
		return 0, 0
	}

	for _, repo := range repos {
		prs, err := s.client.PullRequests(ctx, repo.ID, "all")
		if err != nil {
			s.logger.Error("failed to sync pull requests",
				zap.String("repository", repo.ID), zap.Error(err))
		} else if len(prs) > 0 {
			if _, err := s.store.UpsertPullRequests(ctx, prs); err != nil {
				s.logger.Error("failed to upsert pull requests",
					zap.String("repository", repo.ID), zap.Error(err))
			} else {
				prCount += len(prs)
			}
		}

		commits, err := s.client.Commits(ctx, repo.ID, commitsPageSize, 0)
		if err != nil {
			s.logger.Error("failed to sync commits",
				zap.String("repository", repo.ID), zap.Error(err))
			continue
		}
		if len(commits) == 0 {
			continue
		}
		if _, err := s.store.UpsertCommits(ctx, commits); err != nil {
			s.logger.Error("failed to upsert commits",
				zap.String("repository", repo.ID), zap.Error(err))
			continue
		}
		commitCount += len(commits)
	}

	// One shared timestamp per kind for the whole loop, recorded even when
	// individual repositories failed.
	s.tracker.RecordSync(cache.KindPullRequests, organization, project)
	s.tracker.RecordSync(cache.KindCommits, organization, project)
	return prCount, commitCount
}

// seedDemoData substitutes a deterministic dataset when no access token is
// configured. The scope is cleared first so repeated seeds never accumulate.
func (s *Service) seedDemoData(ctx context.Context, organization, project string) (domain.SyncReport, error) {
	s.logger.Info("no access token configured, seeding demo data",
		zap.String("organization", organization),
		zap.String("project", project))

	if err := s.store.Clear(ctx, organization, project); err != nil {
		s.logger.Error("failed to clear cache before demo seed", zap.Error(err))
	}

	data := azuredevops.DemoData(organization, project)
	for _, repo := range data.Repositories {
		if _, err := s.store.UpsertRepository(ctx, repo); err != nil {
			s.logger.Error("failed to seed repository", zap.String("id", repo.ID), zap.Error(err))
		}
	}
	if _, err := s.store.UpsertCommits(ctx, data.Commits); err != nil {
		s.logger.Error("failed to seed commits", zap.Error(err))
	}
	if _, err := s.store.UpsertWorkItems(ctx, data.WorkItems); err != nil {
		s.logger.Error("failed to seed work items", zap.Error(err))
	}
	if _, err := s.store.UpsertPullRequests(ctx, data.PullRequests); err != nil {
		s.logger.Error("failed to seed pull requests", zap.Error(err))
	}
	if _, err := s.store.UpsertTeamMembers(ctx, data.TeamMembers); err != nil {
		s.logger.Error("failed to seed team members", zap.Error(err))
	}
	if _, err := s.store.UpsertSprints(ctx, data.Sprints); err != nil {
		s.logger.Error("failed to seed sprints", zap.Error(err))
	}

	for _, kind := range []string{
		cache.KindRepositories,
		cache.KindSprints,
		cache.KindWorkItems,
		cache.KindTeamMembers,
		cache.KindPullRequests,
		cache.KindCommits,
	} {
		s.tracker.RecordSync(kind, organization, project)
	}

	syncedAt := s.now()
	return domain.SyncReport{
		RanSync:  true,
		Success:  true,
		Message:  "demo data seeded (no access token configured)",
		SyncedAt: &syncedAt,
		Counts: domain.SyncCounts{
			Repositories: len(data.Repositories),
			Sprints:      len(data.Sprints),
			WorkItems:    len(data.WorkItems),
			TeamMembers:  len(data.TeamMembers),
			PullRequests: len(data.PullRequests),
			Commits:      len(data.Commits),
		},
	}, nil
}
